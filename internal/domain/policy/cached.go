package policy

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/cache"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/metrics"
)

// CachedSource serves policy snapshots from a cache and collapses
// concurrent misses for the same department into one store read. Writes go
// through to the store and drop the cached snapshot.
//
// Each department carries a generation bumped on invalidation. A load that
// started under an older generation never leaves its result in the cache,
// and readers arriving after a write start a fresh load instead of joining
// the stale one.
type CachedSource struct {
	store   StoreAPI
	cache   cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	log     zerolog.Logger
	metrics *metrics.Collector

	mu   sync.Mutex
	gens map[string]uint64
}

func NewCachedSource(store StoreAPI, c cache.Cache, ttl time.Duration, log zerolog.Logger, m *metrics.Collector) *CachedSource {
	return &CachedSource{
		store:   store,
		cache:   c,
		ttl:     ttl,
		log:     log.With().Str("component", "policy_cache").Logger(),
		metrics: m,
		gens:    make(map[string]uint64),
	}
}

func (c *CachedSource) generation(departmentID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[departmentID]
}

func cacheKey(departmentID string) string {
	return "policy:" + departmentID
}

func (c *CachedSource) GetPolicy(ctx context.Context, departmentID string) (Policy, error) {
	key := cacheKey(departmentID)

	var cached Policy
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.log.Warn().Err(err).Str("department_id", departmentID).Msg("policy cache read failed")
	}
	c.metrics.CacheLookup(hit)
	if hit {
		return cached, nil
	}

	gen := c.generation(departmentID)
	v, err, _ := c.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		p, err := c.store.GetPolicy(ctx, departmentID)
		if err != nil {
			return Policy{}, err
		}
		if c.generation(departmentID) != gen {
			return p, nil
		}
		if err := c.cache.Set(ctx, key, p, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("department_id", departmentID).Msg("policy cache write failed")
		}
		// An invalidation between the check and the write may have deleted
		// before we set.
		if c.generation(departmentID) != gen {
			c.drop(ctx, departmentID)
		}
		return p, nil
	})
	if err != nil {
		return Policy{}, err
	}
	return v.(Policy), nil
}

func (c *CachedSource) SavePolicy(ctx context.Context, p Policy) error {
	if err := c.store.SavePolicy(ctx, p); err != nil {
		return err
	}
	c.Invalidate(ctx, p.DepartmentID)
	return nil
}

func (c *CachedSource) SaveOverride(ctx context.Context, o Override) (string, error) {
	id, err := c.store.SaveOverride(ctx, o)
	if err != nil {
		return "", err
	}
	if o.DepartmentID != "" {
		c.Invalidate(ctx, o.DepartmentID)
		return id, nil
	}
	// Department-less overrides apply everywhere; the TTL bounds staleness
	// for departments not flushed here.
	c.log.Info().Str("override_id", id).Msg("global override saved, cached policies expire with ttl")
	return id, nil
}

func (c *CachedSource) Invalidate(ctx context.Context, departmentID string) {
	c.mu.Lock()
	c.gens[departmentID]++
	c.mu.Unlock()
	c.drop(ctx, departmentID)
}

func (c *CachedSource) drop(ctx context.Context, departmentID string) {
	if err := c.cache.Delete(ctx, cacheKey(departmentID)); err != nil {
		c.log.Warn().Err(err).Str("department_id", departmentID).Msg("policy cache invalidate failed")
	}
}
