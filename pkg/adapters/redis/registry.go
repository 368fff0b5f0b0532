package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/shellbridge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Registry implements ports.Registry using Redis.
// Keys are stored as plain strings under a prefix and indexed in a ZSET so List does not
// need SCAN.
type Registry struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Registry)

// WithTTL sets the expiration of written keys. A crashed host then stops advertising its
// port once the TTL elapses.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix (namespace).
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// New creates a new Redis registry with options.
func New(address, password string, db int, opts ...Option) *Registry {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis registry from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Registry {
	registry := &Registry{
		client: client,
		prefix: domain.RegistryNamespace + ":",
		ttl:    0,
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

func (r *Registry) key(name string) string {
	return r.prefix + name
}

func (r *Registry) indexKey() string {
	return r.prefix + "__index"
}

// Write stores the value and indexes the key.
func (r *Registry) Write(ctx context.Context, key string, value []byte) error {
	pipe := r.client.Pipeline()

	pipe.Set(ctx, r.key(key), value, r.ttl)

	// Score = expiry. Keys without TTL get a far-future score.
	score := float64(time.Now().Add(r.ttl).Unix())
	if r.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{
		Score:  score,
		Member: key,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write %q to redis: %w", key, err)
	}
	return nil
}

// Read retrieves the value from Redis.
func (r *Registry) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read %q from redis: %w", key, err)
	}
	return val, nil
}

// Delete removes the key and its index entry.
func (r *Registry) Delete(ctx context.Context, key string) error {
	pipe := r.client.Pipeline()

	pipe.Del(ctx, r.key(key))
	pipe.ZRem(ctx, r.indexKey(), key)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the live keys, pruning index entries whose TTL elapsed.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := r.client.ZRemRangeByScore(ctx, r.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired keys: %w", err)
	}

	keys, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

// Close closes the redis client.
func (r *Registry) Close() error {
	return r.client.Close()
}
