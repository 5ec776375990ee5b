package store

import (
	"context"
	"errors"

	"apcc-pipeline/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the session store with Redis through the shared client
// wrapper. Keys are namespaced so a shared Redis can host other state.
type RedisStore struct {
	client *database.RedisClient
	prefix string
}

func NewRedisStore(client *database.RedisClient) *RedisStore {
	return &RedisStore{client: client, prefix: "apcc:session:"}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+key)
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	// No expiration: the session lives until cleared, like the reference
	// store survived page loads.
	return r.client.Set(ctx, r.prefix+key, value, 0)
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key)
}
