package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the slot under a single Redis key.
type RedisBackend struct {
	client redis.Cmdable
	key    string
}

// NewRedisBackend creates a slot at key.
func NewRedisBackend(client redis.Cmdable, key string) *RedisBackend {
	return &RedisBackend{client: client, key: key}
}

func (b *RedisBackend) Read(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", b.key, err)
	}
	return data, nil
}

func (b *RedisBackend) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", b.key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", b.key, err)
	}
	return nil
}
