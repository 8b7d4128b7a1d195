package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"regis_chat_backend/config"
	"regis_chat_backend/pkg/logging"
)

const (
	cachePrefix = "cache:"
	queuePrefix = "queue:"
)

// ErrQueueEmpty is returned by PopFromQueue when nothing arrived before the timeout.
var ErrQueueEmpty = errors.New("queue empty")

type Service struct {
	Rdb *redis.Client
}

func InitRedis(cfg *config.Config) (*Service, error) {
	redisUrl := cfg.RedisURL
	if redisUrl == "" {
		return nil, fmt.Errorf("empty redis url")
	}
	opt, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, fmt.Errorf("could not parse Redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(opt)

	testCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(testCtx).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}
	logging.Logger.Info("Connected to Redis", "addr", opt.Addr)
	return NewService(rdb), nil
}

func NewService(rdb *redis.Client) *Service {
	return &Service{Rdb: rdb}
}

func (s *Service) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.Rdb.Set(ctx, cachePrefix+key, jsonData, expiration).Err()
}

// GetCache returns the raw JSON; callers decide how to decode it.
func (s *Service) GetCache(ctx context.Context, key string) (string, bool) {
	val, err := s.Rdb.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Logger.Warn("redis GetCache failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (s *Service) DelCache(ctx context.Context, key string) error {
	return s.Rdb.Del(ctx, cachePrefix+key).Err()
}

func (s *Service) PushToQueue(ctx context.Context, queueName string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		logging.Logger.Error("fail PushToQueue", "queue", queueName, "error", err)
		return err
	}
	return s.Rdb.LPush(ctx, queuePrefix+queueName, string(jsonValue)).Err()
}

// PopFromQueue blocks up to timeout for the oldest item of the queue.
func (s *Service) PopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error) {
	res, err := s.Rdb.BRPop(ctx, timeout, queuePrefix+queueName).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrQueueEmpty
	}
	if err != nil {
		return "", err
	}
	// BRPop replies with [key, value]
	return res[1], nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.Rdb.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.Rdb.Close()
}
