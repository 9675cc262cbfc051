package resultcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/resilience"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Purge(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GuardedStore routes every call through a circuit breaker so a failing
// backend is skipped instead of retried on every combination.
type GuardedStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
}

func NewGuardedStore(store Store, breaker *resilience.CircuitBreaker) *GuardedStore {
	return &GuardedStore{store: store, breaker: breaker}
}

func (g *GuardedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		ok    bool
	)
	err := g.breaker.Execute(func() error {
		var err error
		value, ok, err = g.store.Get(ctx, key)
		return err
	})
	return value, ok, err
}

func (g *GuardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

func (g *GuardedStore) Purge(ctx context.Context, prefix string) (int64, error) {
	var n int64
	err := g.breaker.Execute(func() error {
		var err error
		n, err = g.store.Purge(ctx, prefix)
		return err
	})
	return n, err
}
