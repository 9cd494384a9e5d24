package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisBackend keeps each blob under its plain key name.
type RedisBackend struct {
	rdb *redis.Client
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) Get(ctx context.Context, key Key) ([]byte, error) {
	value, err := b.rdb.Get(ctx, string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (b *RedisBackend) Set(ctx context.Context, key Key, value []byte) error {
	if err := b.rdb.Set(ctx, string(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Remove(ctx context.Context, key Key) error {
	if err := b.rdb.Del(ctx, string(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
