package cache

import (
	"context"
	"time"
)

// CacheService is the two level cache seen by services.
type CacheService interface {
	GetCache(ctx context.Context, key string) (interface{}, bool)
	SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelCache(ctx context.Context, key string) error
}

// MessageQueue is the Redis list backed job queue.
type MessageQueue interface {
	PushToQueue(ctx context.Context, queueName string, value interface{}) error
	PopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error)
}
