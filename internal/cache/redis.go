package cache

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/config"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

// ErrRemoteMiss is returned by RemoteBackend.Get when the key does not exist
var ErrRemoteMiss = stderrors.New("cache: key not found")

// RemoteBackend is the contract for the shared cache tier. Any key-value
// store meeting it may be swapped in. Implementations must fail fast; the
// two-tier service absorbs their errors.
type RemoteBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching a glob pattern and returns
	// the number deleted.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// RedisBackend implements RemoteBackend on Redis
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend creates a Redis-backed remote tier with short, fail-fast
// timeouts and verifies connectivity once.
func NewRedisBackend(cfg *config.RedisConfig) (*RedisBackend, error) {
	if cfg == nil || !cfg.Enabled() {
		return nil, errors.NewValidationError("Redis configuration is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,

		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,

		MaxRetries:      1,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 128 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis").WithCause(err)
	}

	return &RedisBackend{client: client}, nil
}

// NewRedisBackendFromClient wraps an existing client; used by tests
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get retrieves raw bytes; ErrRemoteMiss when the key does not exist
func (rb *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rb.client.Get(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, ErrRemoteMiss
		}
		return nil, errors.NewCacheError("failed to get Redis key").WithCause(err)
	}
	return data, nil
}

// Set stores raw bytes with an expiration
func (rb *RedisBackend) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := rb.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.NewCacheError("failed to set Redis key").WithCause(err)
	}
	return nil
}

// Delete removes a key
func (rb *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := rb.client.Del(ctx, key).Err(); err != nil {
		return errors.NewCacheError("failed to delete Redis key").WithCause(err)
	}
	return nil
}

// DeletePattern removes all keys matching the glob pattern. This enumerates
// every matching key (KEYS), which is correct but scans the whole keyspace;
// acceptable at this deployment's cache sizes.
func (rb *RedisBackend) DeletePattern(ctx context.Context, pattern string) (int, error) {
	keys, err := rb.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, errors.NewCacheError("failed to enumerate Redis keys").WithCause(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := rb.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.NewCacheError("failed to delete Redis keys").WithCause(err)
	}
	return int(deleted), nil
}

// Ping probes connectivity
func (rb *RedisBackend) Ping(ctx context.Context) error {
	if err := rb.client.Ping(ctx).Err(); err != nil {
		return errors.NewCacheError("Redis ping failed").WithCause(err)
	}
	return nil
}

// Close closes the underlying client
func (rb *RedisBackend) Close() error {
	return rb.client.Close()
}
