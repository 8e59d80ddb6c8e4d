package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter counts hits per key in fixed windows. Hit returns the count in
// the current window and the time left until it resets.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
}

func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	full := r.prefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, full)
		pipe.ExpireNX(ctx, full, window)
		ttl = pipe.PTTL(ctx, full)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	left := ttl.Val()
	if left < 0 {
		left = window
	}
	return int(incr.Val()), left, nil
}

type window struct {
	count int
	reset time.Time
}

// MemoryCounter is the in-process Counter. Expired windows are dropped on
// the next hit of their key.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*window), now: time.Now}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, size time.Duration) (int, time.Duration, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(size)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.reset.Sub(now), nil
}
