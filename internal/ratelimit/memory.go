package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 64

type counter struct {
	n       int64
	expires time.Time
}

type shard struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// MemoryStore is a sharded in-process CounterStore. Increments take one shard
// lock, so concurrent requests never undercount. Stale buckets are swept by a
// background goroutine rather than on the request path.
type MemoryStore struct {
	shards [shardCount]*shard
}

// NewMemoryStore creates a MemoryStore and starts its cleanup loop, which
// stops when ctx is cancelled.
func NewMemoryStore(ctx context.Context) *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{counters: make(map[string]*counter)}
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(time.Now())
			case <-ctx.Done():
				return
			}
		}
	}()

	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Get implements CounterStore. Expired buckets read as zero even before
// the sweeper reclaims them.
func (s *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	c, ok := sh.counters[key]
	if !ok || time.Now().After(c.expires) {
		return 0, nil
	}
	return c.n, nil
}

// Incr implements CounterStore.
func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	sh := s.shardFor(key)
	now := time.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	c, ok := sh.counters[key]
	if !ok || now.After(c.expires) {
		c = &counter{expires: now.Add(ttl)}
		sh.counters[key] = c
	}
	c.n++

	return c.n, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, c := range sh.counters {
			if now.After(c.expires) {
				delete(sh.counters, key)
			}
		}
		sh.mu.Unlock()
	}
}
