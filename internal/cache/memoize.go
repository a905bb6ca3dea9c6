package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// BuildKey derives a deterministic cache key from an operation name and its
// arguments. Arguments are JSON-serialized and hashed so keys stay short and
// never leak raw argument values into key space.
func BuildKey(operation string, args ...interface{}) string {
	if len(args) == 0 {
		return operation
	}

	payload, err := json.Marshal(args)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", args))
	}

	sum := sha256.Sum256(payload)
	return operation + ":" + hex.EncodeToString(sum[:16])
}

// Memoize runs compute through the cache: a live entry for the derived key
// is returned directly, otherwise compute runs and its result is stored with
// the given TTL. Compute errors are returned as-is and nothing is cached.
func Memoize[T any](ctx context.Context, s *Service, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if s.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.Set(ctx, key, result, ttl)
	return result, nil
}

// MemoizeStale behaves like Memoize but falls back to a stale cached value
// when compute fails, reporting whether the returned value was stale.
func MemoizeStale[T any](ctx context.Context, s *Service, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	var cached T
	if s.Get(ctx, key, &cached) {
		return cached, false, nil
	}

	result, err := compute(ctx)
	if err == nil {
		s.Set(ctx, key, result, ttl)
		return result, false, nil
	}

	if found, _ := s.GetStale(ctx, key, &cached); found {
		return cached, true, nil
	}

	var zero T
	return zero, false, err
}
