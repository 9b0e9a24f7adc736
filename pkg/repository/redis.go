package repository

import (
	"context"
	"errors"

	"github.com/example/pickupshop/pkg/config"
	"github.com/go-redis/redis/v8"
)

// RedisRepository is a BlobStore backed by plain Redis string keys.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return NewRedisRepositoryFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}))
}

func NewRedisRepositoryFromClient(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoData
	}
	return data, err
}

// Put stores the blob without expiration.
func (r *RedisRepository) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, key, string(data), 0).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
