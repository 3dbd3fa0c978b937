package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// RedisStore reads documents stored as strings, or as one field of a hash,
// under KeyPrefix+identifier.
type RedisStore struct {
	client  *redis.Client
	addr    string
	prefix  string
	field   string
	timeout time.Duration
}

// OpenRedis connects to the server named by cfg and verifies it answers.
func OpenRedis(ctx context.Context, cfg Config) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: redis fallback store needs an address", classify.ErrConfiguration)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout(cfg))
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(client, cfg), nil
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, cfg Config) *RedisStore {
	return &RedisStore{
		client:  client,
		addr:    client.Options().Addr,
		prefix:  cfg.KeyPrefix,
		field:   cfg.Field,
		timeout: timeout(cfg),
	}
}

// Lookup implements Store.
func (s *RedisStore) Lookup(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		text string
		err  error
	)
	if s.field != "" {
		text, err = s.client.HGet(ctx, s.prefix+key, s.field).Result()
	} else {
		text, err = s.client.Get(ctx, s.prefix+key).Result()
	}
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("redis lookup %s: %w", key, err)
	}
	return text, nil
}

// String implements Store.
func (s *RedisStore) String() string {
	return "redis " + s.addr
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
