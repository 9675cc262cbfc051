package resultcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	pkgredis "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/resilience"
)

var _ Store = (*pkgredis.Client)(nil)

var errStore = errors.New("store unavailable")

type failingStore struct {
	calls atomic.Int64
}

func (s *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	s.calls.Add(1)
	return nil, false, errStore
}

func (s *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	s.calls.Add(1)
	return errStore
}

func (s *failingStore) Purge(context.Context, string) (int64, error) {
	s.calls.Add(1)
	return 0, errStore
}

type countingObserver struct {
	hits, misses atomic.Int64
}

func (o *countingObserver) CacheHit()  { o.hits.Add(1) }
func (o *countingObserver) CacheMiss() { o.misses.Add(1) }

func key(doc, query string) evaluation.CacheKey {
	return evaluation.CacheKey{
		Fingerprint:    "abc",
		DocWeighting:   doc,
		QueryWeighting: query,
		RankLimit:      15,
		Policy:         evaluation.PolicyExclude,
	}
}

func result(doc, query string, m float64) *evaluation.SweepResult {
	return &evaluation.SweepResult{DocWeighting: doc, QueryWeighting: query, RankLimit: 15, MAP: m, Evaluated: 3}
}

func TestKey(t *testing.T) {
	a := Key(key("ltc", "ntc"))
	if !strings.HasPrefix(a, KeyPrefix) {
		t.Fatalf("Key() = %q, want prefix %q", a, KeyPrefix)
	}
	if len(a) != len(KeyPrefix)+64 {
		t.Errorf("len(Key()) = %d, want %d", len(a), len(KeyPrefix)+64)
	}
	if a != Key(key("ltc", "ntc")) {
		t.Error("Key() not deterministic")
	}
	variants := []evaluation.CacheKey{
		key("ntc", "ltc"),
		{Fingerprint: "abd", DocWeighting: "ltc", QueryWeighting: "ntc", RankLimit: 15, Policy: evaluation.PolicyExclude},
		{Fingerprint: "abc", DocWeighting: "ltc", QueryWeighting: "ntc", RankLimit: 10, Policy: evaluation.PolicyExclude},
		{Fingerprint: "abc", DocWeighting: "ltc", QueryWeighting: "ntc", RankLimit: 15, Policy: evaluation.PolicyZero},
	}
	for _, v := range variants {
		if Key(v) == a {
			t.Errorf("Key(%+v) collides with base key", v)
		}
	}
}

func TestGetOrCompute(t *testing.T) {
	obs := &countingObserver{}
	c := New(NewMemoryStore(), time.Hour, WithObserver(obs))
	ctx := context.Background()
	computes := 0
	compute := func(context.Context) (*evaluation.SweepResult, error) {
		computes++
		return result("ltc", "ntc", 0.42), nil
	}

	first, err := c.GetOrCompute(ctx, key("ltc", "ntc"), compute)
	if err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	second, err := c.GetOrCompute(ctx, key("ltc", "ntc"), compute)
	if err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	if computes != 1 {
		t.Errorf("computes = %d, want 1", computes)
	}
	if *first != *second || second.MAP != 0.42 {
		t.Errorf("cached result = %+v, want %+v", second, first)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", hits, misses)
	}
	if obs.hits.Load() != 1 || obs.misses.Load() != 1 {
		t.Errorf("observer = (%d, %d), want (1, 1)", obs.hits.Load(), obs.misses.Load())
	}
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, 0)
	boom := errors.New("boom")
	_, err := c.GetOrCompute(context.Background(), key("nnn", "nnn"), func(context.Context) (*evaluation.SweepResult, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrCompute() error = %v, want %v", err, boom)
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d, want 0", store.Len())
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	c := New(NewMemoryStore(), 0)
	var computes atomic.Int64
	release := make(chan struct{})
	compute := func(context.Context) (*evaluation.SweepResult, error) {
		computes.Add(1)
		<-release
		return result("atc", "atc", 0.3), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetOrCompute(context.Background(), key("atc", "atc"), compute); err != nil {
				t.Errorf("GetOrCompute() error = %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := computes.Load(); n != 1 {
		t.Fatalf("computes = %d, want 1", n)
	}
	if _, ok := c.Get(context.Background(), key("atc", "atc")); !ok {
		t.Error("result not stored")
	}
}

func TestStoreFailureFallsBackToCompute(t *testing.T) {
	c := New(&failingStore{}, time.Hour)
	got, err := c.GetOrCompute(context.Background(), key("lnc", "ltc"), func(context.Context) (*evaluation.SweepResult, error) {
		return result("lnc", "ltc", 0.5), nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	if got.MAP != 0.5 {
		t.Errorf("MAP = %v, want 0.5", got.MAP)
	}
	if err := c.Invalidate(context.Background()); !errors.Is(err, errStore) {
		t.Errorf("Invalidate() error = %v, want %v", err, errStore)
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	k := key("bnn", "bnn")
	if err := store.Set(ctx, Key(k), []byte("{not json"), 0); err != nil {
		t.Fatal(err)
	}
	c := New(store, 0)
	if _, ok := c.Get(ctx, k); ok {
		t.Fatal("Get() ok = true for corrupt entry")
	}
}

func TestGuardedStoreStopsCallingFailedBackend(t *testing.T) {
	backend := &failingStore{}
	breaker := resilience.NewCircuitBreaker("cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	c := New(NewGuardedStore(backend, breaker), 0)
	compute := func(context.Context) (*evaluation.SweepResult, error) {
		return result("ntc", "ntc", 0.1), nil
	}
	for i := 0; i < 5; i++ {
		if _, err := c.GetOrCompute(context.Background(), key("ntc", "ntc"), compute); err != nil {
			t.Fatalf("GetOrCompute() error = %v", err)
		}
	}
	if breaker.State() != resilience.StateOpen {
		t.Fatalf("breaker state = %v, want open", breaker.State())
	}
	if n := backend.calls.Load(); n != 2 {
		t.Errorf("backend calls = %d, want 2", n)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(100, 0)
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "smarteval:a", []byte("1"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "smarteval:b", []byte("2"), 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "other:c", []byte("3"), 0); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get(ctx, "smarteval:a"); !ok || string(v) != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "smarteval:a"); ok {
		t.Error("Get(a) after expiry ok = true")
	}

	n, err := s.Purge(ctx, KeyPrefix)
	if err != nil || n != 1 {
		t.Fatalf("Purge() = %d, %v, want 1, nil", n, err)
	}
	if _, ok, _ := s.Get(ctx, "other:c"); !ok {
		t.Error("Purge removed a key outside the prefix")
	}
}
