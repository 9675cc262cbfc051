// Package resultcache memoises sweep results across runs. Entries are
// JSON-encoded SweepResults keyed by a hash of the collection fingerprint,
// both weighting codes, the rank limit and the degenerate-relevance policy.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/logger"
)

const KeyPrefix = "smarteval:"

// Store is a byte store with TTL writes. A missing key is ok=false with a
// nil error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context, prefix string) (int64, error)
}

// Observer is told about every hit and miss.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type nopObserver struct{}

func (nopObserver) CacheHit()  {}
func (nopObserver) CacheMiss() {}

type Cache struct {
	store    Store
	ttl      time.Duration
	group    singleflight.Group
	observer Observer
	logger   *slog.Logger
	hits     atomic.Int64
	misses   atomic.Int64
}

type Option func(*Cache)

func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// New returns a Cache over store. A zero ttl keeps entries forever.
func New(store Store, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		ttl:      ttl,
		observer: nopObserver{},
		logger:   logger.WithComponent("result-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the store key for k.
func Key(k evaluation.CacheKey) string {
	raw := fmt.Sprintf("%s|%s|%s|%d|%s", k.Fingerprint, k.DocWeighting, k.QueryWeighting, k.RankLimit, k.Policy)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", KeyPrefix, sum)
}

// Get looks up a cached result. Store and decode failures count as misses.
func (c *Cache) Get(ctx context.Context, key evaluation.CacheKey) (*evaluation.SweepResult, bool) {
	storeKey := Key(key)
	data, ok, err := c.store.Get(ctx, storeKey)
	if err != nil {
		c.logger.Warn("cache get failed", "key", storeKey, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var result evaluation.SweepResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("cache entry unreadable", "key", storeKey, "error", err)
		return nil, false
	}
	return &result, true
}

// Set stores result. Failures are logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key evaluation.CacheKey, result *evaluation.SweepResult) {
	storeKey := Key(key)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", storeKey, "error", err)
		return
	}
	if err := c.store.Set(ctx, storeKey, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", storeKey, "error", err)
	}
}

// GetOrCompute returns the cached result for key or runs compute and stores
// what it returns. Concurrent calls for the same key share one compute.
// Compute errors are returned and nothing is stored.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	key evaluation.CacheKey,
	compute func(ctx context.Context) (*evaluation.SweepResult, error),
) (*evaluation.SweepResult, error) {
	if result, ok := c.Get(ctx, key); ok {
		c.hit(key)
		return result, nil
	}
	val, err, _ := c.group.Do(Key(key), func() (any, error) {
		if result, ok := c.Get(ctx, key); ok {
			c.hit(key)
			return result, nil
		}
		c.misses.Add(1)
		c.observer.CacheMiss()
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	out := *val.(*evaluation.SweepResult)
	return &out, nil
}

func (c *Cache) hit(key evaluation.CacheKey) {
	c.hits.Add(1)
	c.observer.CacheHit()
	c.logger.Debug("cache hit", "doc_weighting", key.DocWeighting, "query_weighting", key.QueryWeighting)
}

// Invalidate drops every entry this package wrote.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.Purge(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
