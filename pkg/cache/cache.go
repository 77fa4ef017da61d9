package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache with TTL support.
//
// TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero: use the store's default TTL (File: never expires, Memory and Redis: one hour)
//   - Negative: item never expires
type Cache[V any] interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) (V, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Has checks whether a key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Marshaler converts cache values to and from bytes.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

var sfGroup singleflight.Group

type computed[V any] struct {
	val V
	ttl time.Duration
}

// GetOrSet returns the cached value for key, or computes and stores it with fn.
// Concurrent misses for the same key share a single call to fn.
// Errors from fn are returned and nothing is cached.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := sfGroup.Do(key, func() (any, error) {
		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return computed[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := res.(computed[V])
	_ = c.Set(ctx, key, r.val, r.ttl)
	return r.val, nil
}

// incrementer is implemented by stores with a native atomic counter.
type incrementer interface {
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
}

// Increment adds delta to the counter at key and returns the new value.
// A missing counter starts at zero. Counters never expire.
func Increment(ctx context.Context, c Cache[int64], key string, delta int64) (int64, error) {
	if inc, ok := c.(incrementer); ok {
		return inc.IncrBy(ctx, key, delta)
	}

	current, err := c.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	next := current + delta
	if err := c.Set(ctx, key, next, -1); err != nil {
		return 0, err
	}
	return next, nil
}

// Decrement subtracts delta from the counter at key and returns the new value.
func Decrement(ctx context.Context, c Cache[int64], key string, delta int64) (int64, error) {
	return Increment(ctx, c, key, -delta)
}
