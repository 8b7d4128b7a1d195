package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"regis_chat_backend/pkg/logging"
)

// TypedCache decodes cached values into T and collapses concurrent loads
// of the same key.
type TypedCache[T any] struct {
	cache       CacheService
	sf          singleflight.Group
	loadTimeout time.Duration
}

const defaultSharedLoadTimeout = 60 * time.Second

func NewTypedCache[T any](cache CacheService) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, loadTimeout: defaultSharedLoadTimeout}
}

func (tc *TypedCache[T]) Set(ctx context.Context, key string, value T, expiration time.Duration) error {
	return tc.cache.SetCache(ctx, key, value, expiration)
}

// Get returns the cached value. The bool reports presence even when decoding fails.
func (tc *TypedCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	rawValue, exists := tc.cache.GetCache(ctx, key)
	if !exists {
		return zero, false, nil
	}

	// L1 hands back the stored value as is
	if typedValue, ok := rawValue.(T); ok {
		return typedValue, true, nil
	}

	var result T
	switch v := rawValue.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, true, nil
	case []byte:
		if err := json.Unmarshal(v, &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, true, nil
	default:
		jsonData, err := json.Marshal(rawValue)
		if err != nil {
			return zero, true, fmt.Errorf("failed to marshal intermediate value: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, true, nil
	}
}

func (tc *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return tc.cache.DelCache(ctx, key)
}

// GetOrLoad serves key from the cache or runs load once for all concurrent
// callers. Cache errors are logged and never returned; load errors are
// returned and not cached.
//
// The shared load runs detached from any single caller, bounded by the
// load timeout, so one caller giving up does not fail the others. Each
// caller still returns as soon as its own ctx is done.
func (tc *TypedCache[T]) GetOrLoad(ctx context.Context, key string, expiration time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok, err := tc.Get(ctx, key); ok && err == nil {
		return v, nil
	} else if err != nil {
		logging.Logger.Warn("cache decode failed", "key", key, "error", err)
	}
	ch := tc.sf.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tc.loadTimeout)
		defer cancel()
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		if err := tc.Set(loadCtx, key, v, expiration); err != nil {
			logging.Logger.Warn("cache store failed", "key", key, "error", err)
		}
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}
