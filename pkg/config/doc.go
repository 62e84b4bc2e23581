// Package config loads typed configuration structs from environment variables.
//
// Every component of the module (registry store, pool cache, provisioner)
// declares its own Config struct with `env` tags and loads it through
// [Load]. Parsed values are cached per type, so repeated loads are cheap and
// always consistent. All configuration is process-wide and set once at
// startup; nothing here is mutated at runtime.
//
// Usage:
//
//	type Config struct {
//		RegistryDSN string `env:"REGISTRY_DSN,required"`
//		BaseDomain  string `env:"BASE_DOMAIN" envDefault:"localhost"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
package config
