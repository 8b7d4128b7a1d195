package cache

import (
	"context"
	"time"

	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/platform/redis"
)

// l1Share is the fraction of the TTL an entry lives in process memory when
// Redis holds the authoritative copy.
const l1Share = 0.3

type Service struct {
	l1 *L1CacheService
	l2 *redis.Service
}

// NewCacheService builds the cache. l2 may be nil, in which case the
// in-memory level keeps entries for the full TTL.
func NewCacheService(l1 *L1CacheService, l2 *redis.Service) CacheService {
	return &Service{l1: l1, l2: l2}
}

func (cs *Service) GetCache(ctx context.Context, key string) (interface{}, bool) {
	if data, ok := cs.l1.Get(key); ok {
		return data, ok
	}
	if cs.l2 == nil {
		return nil, false
	}
	if data, ok := cs.l2.GetCache(ctx, key); ok {
		return data, ok
	}
	return nil, false
}

func (cs *Service) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if cs.l2 == nil {
		cs.l1.Set(key, value, expiration)
		return nil
	}
	if err := cs.l2.SetCache(ctx, key, value, expiration); err != nil {
		logging.Logger.Error("l2 fail SetCache", "key", key, "error", err)
		return err
	}
	cs.l1.Set(key, value, time.Duration(float64(expiration)*l1Share))
	return nil
}

func (cs *Service) DelCache(ctx context.Context, key string) error {
	cs.l1.Del(key)
	if cs.l2 == nil {
		return nil
	}
	if err := cs.l2.DelCache(ctx, key); err != nil {
		logging.Logger.Error("l2 fail DelCache", "key", key, "error", err)
		return err
	}
	return nil
}
