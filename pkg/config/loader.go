package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// typeCache stores parsed configuration structs keyed by their concrete type
// so that every package sharing a config type observes the same values.
type typeCache struct {
	mu     sync.RWMutex
	values map[string]any
}

var (
	cache = &typeCache{values: make(map[string]any)}

	dotenvOnce sync.Once
)

// Load populates cfg from environment variables based on `env` struct tags.
// The first call for a given type parses the environment; subsequent calls
// return the cached copy, so pool sizing and registry DSNs stay consistent
// across the process lifetime.
//
// A .env file in the working directory is loaded once, if present, before the
// first parse. Missing .env files are not an error.
//
// Example:
//
//	var cfg pool.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	name := typeName[T]()

	cache.mu.RLock()
	cached, ok := cache.values[name]
	cache.mu.RUnlock()
	if ok {
		*cfg = cached.(T)
		return nil
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()

	// Another goroutine may have parsed the same type while we waited.
	if cached, ok := cache.values[name]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cache.values[name] = *cfg
	return nil
}

// MustLoad works like Load but panics on failure. Intended for configuration
// without which the process cannot start at all.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
