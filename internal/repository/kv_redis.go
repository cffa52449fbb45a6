package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "taskflow:"

// RedisKeyValueStore keeps each key as a plain redis string under a prefix.
type RedisKeyValueStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisKeyValueStore.
type RedisOption func(*RedisKeyValueStore)

// WithPrefix sets the key prefix. Default is "taskflow:".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisKeyValueStore) {
		s.prefix = prefix
	}
}

// NewRedisKeyValueStore creates a redis-backed store.
//
//	store := NewRedisKeyValueStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithPrefix("board:"),
//	)
func NewRedisKeyValueStore(client *redis.Client, opts ...RedisOption) *RedisKeyValueStore {
	store := &RedisKeyValueStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s *RedisKeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisKeyValueStore) Close() error {
	return s.client.Close()
}
