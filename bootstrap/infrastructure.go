package bootstrap

import (
	"github.com/tmc/langchaingo/llms/openai"

	"regis_chat_backend/config"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/platform/cache"
	"regis_chat_backend/platform/database"
	"regis_chat_backend/platform/events"
	"regis_chat_backend/platform/llm"
	"regis_chat_backend/platform/qdrant"
	"regis_chat_backend/platform/queue"
	"regis_chat_backend/platform/redis"
	"regis_chat_backend/platform/storage"
	"regis_chat_backend/platform/watcher"
)

// Infrastructure holds the external clients. DB, Redis, Storage, Queue,
// EventPublisher and Watcher are nil when not configured.
type Infrastructure struct {
	Vectors         *qdrant.Store
	ChatModel       *openai.LLM
	EmbeddingClient *openai.LLM

	DB             *database.DB
	Redis          *redis.Service
	Storage        *storage.Service
	Queue          *queue.MessageQueueService
	Cache          cache.CacheService
	EventPublisher *events.EventPublisher
	Watcher        *watcher.DirWatcher
}

func NewInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{}

	// vector store and model endpoints are always required
	vectors, err := qdrant.NewStore(cfg)
	if err != nil {
		logging.Logger.Error("fail Initializing Qdrant", "error", err)
		return nil, err
	}
	infra.Vectors = vectors

	chatModel, err := llm.NewChatModel(cfg)
	if err != nil {
		_ = infra.Shutdown()
		return nil, err
	}
	infra.ChatModel = chatModel

	embeddingClient, err := llm.NewEmbeddingClient(cfg)
	if err != nil {
		_ = infra.Shutdown()
		return nil, err
	}
	infra.EmbeddingClient = embeddingClient

	// database
	if cfg.DatabaseEnabled() {
		db, err := database.InitPostgres(cfg)
		if err != nil {
			_ = infra.Shutdown()
			return nil, err
		}
		infra.DB = db
		if err := infra.DB.AutoMigrate(); err != nil {
			_ = infra.Shutdown()
			return nil, err
		}
	} else {
		logging.Logger.Info("PG_HOST not set, audit log disabled")
	}

	// redis services
	if cfg.RedisEnabled() {
		redisService, err := redis.InitRedis(cfg)
		if err != nil {
			logging.Logger.Error("fail Initializing Redis", "error", err)
			_ = infra.Shutdown()
			return nil, err
		}
		infra.Redis = redisService
		infra.Queue = queue.NewMessageService(redisService)
		infra.EventPublisher = events.NewEventPublisher(redisService.Rdb)
	} else {
		logging.Logger.Info("REDIS_URL not set, using in-process cache only")
	}

	// storage services
	if cfg.StorageEnabled() {
		storageService, err := storage.InitStorageService(cfg)
		if err != nil {
			logging.Logger.Error("fail Initializing Bucket", "error", err)
			_ = infra.Shutdown()
			return nil, err
		}
		infra.Storage = storageService
	}

	// cache
	l1CacheService := cache.InitL1Cache()
	infra.Cache = cache.NewCacheService(l1CacheService, infra.Redis)

	if cfg.WatchTemplates {
		w, err := watcher.New(".docx")
		if err != nil {
			// hot reload is a convenience, serve without it
			logging.Logger.Warn("template watcher unavailable", "error", err)
		} else {
			infra.Watcher = w
		}
	}

	return infra, nil
}

// Shutdown closes whatever was opened, continuing past failures.
func (infra *Infrastructure) Shutdown() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if infra.Watcher != nil {
		keep(infra.Watcher.Stop())
	}
	if infra.Vectors != nil {
		if err := infra.Vectors.Close(); err != nil {
			logging.Logger.Error("fail closing qdrant", "error", err)
			keep(err)
		}
	}
	if infra.Redis != nil {
		if err := infra.Redis.Close(); err != nil {
			logging.Logger.Error("fail closing redis", "error", err)
			keep(err)
		}
	}
	if infra.DB != nil {
		if err := infra.DB.Close(); err != nil {
			logging.Logger.Error("fail closing database", "error", err)
			keep(err)
		}
	}
	return firstErr
}
