// Package redis provides the Redis-backed rate-limit counter store used when
// multiple application instances must share request counters.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type CounterStore struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*CounterStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &CounterStore{client: client}, nil
}

func (s *CounterStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.CounterStore.Close: %w", err)
	}
	return nil
}

// Get reads a fixed-window counter; missing keys read as zero.
func (s *CounterStore) Get(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis.CounterStore.Get: %w", err)
	}
	return n, nil
}

// Incr atomically increments a fixed-window counter. The TTL is attached on
// first increment only, so the bucket expires relative to its first request;
// Redis handles eviction, no sweep needed.
func (s *CounterStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis.CounterStore.Incr: %w", err)
	}

	return incr.Val(), nil
}
