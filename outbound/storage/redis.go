package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists values through a redis client. Values carry no TTL;
// the core owns the lifetime of its records.
type RedisStorage struct {
	Client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{Client: client}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}

	return value, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value string) error {
	return s.Client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}
