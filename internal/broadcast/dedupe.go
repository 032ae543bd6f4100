package broadcast

import (
	"context"
	"sync"
	"time"
)

const DefaultDedupeTTL = 24 * time.Hour

type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

// RedisDeduper remembers delivery ids in Redis with SETNX.
type RedisDeduper struct {
	client setNXer
	ttl    time.Duration
}

func NewRedisDeduper(client setNXer, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	stored, err := d.client.SetNX(ctx, key, time.Now().Unix(), d.ttl)
	if err != nil {
		return false, err
	}
	return !stored, nil
}

// MemoryDeduper is the single-instance fallback used when Redis is down.
type MemoryDeduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &MemoryDeduper{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

func (d *MemoryDeduper) Seen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, expires := range d.seen {
		if now.After(expires) {
			delete(d.seen, k)
		}
	}

	if _, ok := d.seen[key]; ok {
		return true, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return false, nil
}
