package pool

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

// Manager caches one live connection pool per distinct locator.
//
// Lookups for existing pools take a shared read lock only. Construction on
// miss is deduplicated per locator through singleflight, so any number of
// concurrent first requests for the same locator build exactly one pool,
// while requests for different locators never wait on each other. A failed
// construction leaves no entry behind; the next caller gets a fresh attempt.
type Manager struct {
	factory Factory
	log     *slog.Logger

	evictAfter       time.Duration
	evictionInterval time.Duration

	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool

	sf singleflight.Group

	stop chan struct{}
	done chan struct{}
}

type entry struct {
	pool      *pgxpool.Pool
	createdAt time.Time

	mu         sync.Mutex
	lastUsedAt time.Time
}

func (e *entry) touch() {
	e.mu.Lock()
	e.lastUsedAt = time.Now()
	e.mu.Unlock()
}

func (e *entry) idle() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Since(e.lastUsedAt)
}

// Option configures the manager.
type Option func(*Manager)

// WithLogger sets the logger for pool lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithIdleEviction closes pools that have not been acquired for evictAfter,
// checked every interval. Both must be positive to take effect.
func WithIdleEviction(evictAfter, interval time.Duration) Option {
	return func(m *Manager) {
		m.evictAfter = evictAfter
		m.evictionInterval = interval
	}
}

// NewManager creates a pool cache backed by the given factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		log:     slog.Default(),
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.evictAfter > 0 && m.evictionInterval > 0 {
		go m.evictionLoop()
	} else {
		close(m.done)
	}

	return m
}

// Acquire returns the pool for locator, constructing it on first access.
// All concurrent callers for the same locator observe the same pool instance.
func (m *Manager) Acquire(ctx context.Context, locator string) (*pgxpool.Pool, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrManagerClosed
	}
	if e, ok := m.entries[locator]; ok {
		m.mu.RUnlock()
		e.touch()
		return e.pool, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.sf.Do(locator, func() (any, error) {
		// Re-check inside the flight: another caller may have just won the race.
		m.mu.RLock()
		e, ok := m.entries[locator]
		closed := m.closed
		m.mu.RUnlock()
		if closed {
			return nil, ErrManagerClosed
		}
		if ok {
			return e, nil
		}

		p, err := m.factory(ctx, locator)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		e = &entry{pool: p, createdAt: now, lastUsedAt: now}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			p.Close()
			return nil, ErrManagerClosed
		}
		m.entries[locator] = e
		m.mu.Unlock()

		m.log.InfoContext(ctx, "tenant pool created", slog.String("locator", redact(locator)))
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	e := v.(*entry)
	e.touch()
	return e.pool, nil
}

// Has reports whether a pool exists for locator without creating one.
func (m *Manager) Has(locator string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[locator]
	return ok
}

// Len returns the number of live pools.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close closes and removes the pool for a single locator, if present.
func (m *Manager) Close(locator string) {
	m.mu.Lock()
	e, ok := m.entries[locator]
	if ok {
		delete(m.entries, locator)
	}
	m.mu.Unlock()

	if ok {
		e.pool.Close()
		m.log.Info("tenant pool closed", slog.String("locator", redact(locator)))
	}
}

// Shutdown closes every pool, clears the cache, and stops the eviction loop.
// Used only at process shutdown. Subsequent Acquire calls fail with
// ErrManagerClosed.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	close(m.stop)
	<-m.done

	for _, e := range entries {
		e.pool.Close()
	}
}

// Stat is a point-in-time snapshot of one cached pool.
type Stat struct {
	Locator    string
	CreatedAt  time.Time
	LastUsedAt time.Time
	Acquired   int32
	Idle       int32
	Total      int32
}

// Stats returns a snapshot of every live pool, keyed by locator.
func (m *Manager) Stats() map[string]Stat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Stat, len(m.entries))
	for locator, e := range m.entries {
		st := e.pool.Stat()

		e.mu.Lock()
		lastUsed := e.lastUsedAt
		e.mu.Unlock()

		out[locator] = Stat{
			Locator:    locator,
			CreatedAt:  e.createdAt,
			LastUsedAt: lastUsed,
			Acquired:   st.AcquiredConns(),
			Idle:       st.IdleConns(),
			Total:      st.TotalConns(),
		}
	}
	return out
}

func (m *Manager) evictionLoop() {
	ticker := time.NewTicker(m.evictionInterval)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	var stale []string

	m.mu.RLock()
	for locator, e := range m.entries {
		if e.idle() > m.evictAfter {
			stale = append(stale, locator)
		}
	}
	m.mu.RUnlock()

	for _, locator := range stale {
		m.Close(locator)
	}
}

// redact strips credentials from a locator before it reaches logs.
func redact(locator string) string {
	at := strings.LastIndexByte(locator, '@')
	scheme := strings.Index(locator, "://")
	if at != -1 && scheme != -1 && at > scheme+3 {
		return locator[:scheme+3] + "***" + locator[at:]
	}
	return locator
}
