package state

import (
	"strings"
	"sync"
	"time"

	"github.com/orinrun/orin/internal/orierr"
)

// MemoryStore is the default in-process StateAccess backend: a map behind
// a RWMutex, used for ephemeral runs and tests (spec.md section 4.6).
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]any
	breaker  *Breaker
}

// NewMemoryStore constructs an empty in-memory store. breakerCfg may be
// the zero value to disable the circuit breaker.
func NewMemoryStore(breakerCfg BreakerConfig) *MemoryStore {
	return &MemoryStore{
		data:    make(map[string]any),
		breaker: newWriteBreaker(breakerCfg),
	}
}

func (m *MemoryStore) Read(key string) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Write(key string, value any) error {
	if err := m.breaker.allow(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, existed := m.data[key]
	delete(m.data, key)
	return existed, nil
}

func (m *MemoryStore) ListKeys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Snapshot enumerates every live key with no hard-coded scope list
// (spec.md invariant 6).
func (m *MemoryStore) Snapshot() (Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b := Backup{TimestampUnix: time.Now().Unix()}
	for k, v := range m.data {
		b.Entries = append(b.Entries, BackupEntry{Key: k, Value: v})
	}
	return b, nil
}

// Restore first clears every scope discovered in the backup, then applies
// entries in order (spec.md section 4.6).
func (m *MemoryStore) Restore(b Backup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	scopes := map[string]bool{}
	for _, e := range b.Entries {
		if sc, _, ok := ParseStorageKey(e.Key); ok {
			scopes[sc.prefix()] = true
		}
	}
	for k := range m.data {
		if sc, _, ok := ParseStorageKey(k); ok && scopes[sc.prefix()] {
			delete(m.data, k)
		}
	}
	for _, e := range b.Entries {
		m.data[e.Key] = e.Value
	}
	return nil
}

// BreakerConfig configures the state circuit breaker (spec.md section
// 4.6 / section 5): it trips once MaxFailures failures have been
// recorded, refusing further writes until a cooldown elapses.
type BreakerConfig struct {
	MaxFailures int
	Cooldown    time.Duration
}

type Breaker struct {
	mu         sync.Mutex
	cfg        BreakerConfig
	failures   int
	trippedAt  time.Time
}

func newWriteBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg}
}

// NewBreaker constructs a Breaker other backends (boltstate) can reuse.
func NewBreaker(cfg BreakerConfig) *Breaker { return newWriteBreaker(cfg) }

// Allow reports whether a write should proceed, returning a StateError if
// the breaker is currently tripped.
func (b *Breaker) Allow() error { return b.allow() }

func (b *Breaker) allow() error {
	if b.cfg.MaxFailures <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.trippedAt.IsZero() {
		if time.Since(b.trippedAt) < b.cfg.Cooldown {
			return orierr.Wrap(orierr.KindState, "state", orierr.New(orierr.KindState, "state", "circuit breaker open"))
		}
		// cooldown elapsed: admit this call and reset.
		b.trippedAt = time.Time{}
		b.failures = 0
	}
	return nil
}

// RecordFailure increments the breaker's failure count, tripping it once
// MaxFailures is reached. Backends call this on I/O errors (MemoryStore
// never fails itself, but boltstate.Store does).
func (b *Breaker) RecordFailure() {
	if b.cfg.MaxFailures <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.cfg.MaxFailures {
		b.trippedAt = time.Now()
	}
}
