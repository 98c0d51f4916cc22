package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// FlagStore keeps idempotency flags as plain Redis keys with EXPIREAT.
type FlagStore struct {
	client    *goredis.Client
	namespace string
}

// Option configures a FlagStore.
type Option func(*FlagStore)

// WithNamespace prefixes every key with ns and a colon.
func WithNamespace(ns string) Option {
	return func(s *FlagStore) {
		s.namespace = ns
	}
}

// Connect parses redisURL (e.g. "redis://localhost:6379/0") and verifies connectivity.
func Connect(ctx context.Context, redisURL string, opts ...Option) (*FlagStore, error) {
	ropts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := goredis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, opts...), nil
}

// New wraps an existing client.
func New(client *goredis.Client, opts ...Option) *FlagStore {
	s := &FlagStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlagStore) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

func (s *FlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *FlagStore) Set(ctx context.Context, key, value string, expireAt time.Time) error {
	err := s.client.SetArgs(ctx, s.key(key), value, goredis.SetArgs{ExpireAt: expireAt}).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *FlagStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *FlagStore) Close() error {
	return s.client.Close()
}
