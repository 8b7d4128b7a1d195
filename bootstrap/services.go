package bootstrap

import (
	"context"
	"fmt"

	"regis_chat_backend/config"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/services"
)

type Services struct {
	Registry         *services.FormRegistry
	RetrievalService *services.RetrievalService
	DraftingService  *services.DraftingService
	ChatService      *services.ChatService
	TemplateStore    *services.TemplateStore
	DocService       *services.DocumentService
	IngestService    *services.IngestService
}

// NewServices wires the domain services. ctx bounds background work such as
// the template watcher.
func NewServices(ctx context.Context, cfg *config.Config, repos *Repositories, infra *Infrastructure) (*Services, error) {
	res := &Services{}

	registry, err := services.LoadFormRegistry()
	if err != nil {
		return nil, fmt.Errorf("load form registry: %w", err)
	}
	res.Registry = registry

	// retrieval
	embedder, err := services.NewDenseEmbedder(infra.EmbeddingClient, cfg.EmbeddingBatchSize, cfg.DenseDimension)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	sparse := services.NewSparseEncoder()
	res.RetrievalService = services.NewRetrievalService(registry, embedder, sparse, infra.Vectors, infra.Cache, cfg.RetrievalCacheTTL)

	// drafting
	drafting, err := services.NewDraftingService(infra.ChatModel, registry, services.NewTokenCounter(), services.DraftingOptions{
		Model:         cfg.LLMModel,
		Temperature:   cfg.LLMTemperature,
		MaxTokens:     cfg.LLMMaxTokens,
		HistoryBudget: cfg.HistoryTokenBudget,
	})
	if err != nil {
		return nil, fmt.Errorf("init drafting service: %w", err)
	}
	res.DraftingService = drafting

	res.ChatService = services.NewChatService(registry, res.RetrievalService, drafting, repos.ChatLogRepository, cfg.RetrievalK, cfg.UpstreamTimeout)

	// documents
	res.TemplateStore = services.NewTemplateStore(cfg.TemplateDir)
	if infra.Watcher != nil {
		if err := res.TemplateStore.Watch(ctx, infra.Watcher); err != nil {
			logging.Logger.Warn("template hot reload disabled", "error", err)
		}
	}
	filler := services.NewDocumentFiller(registry, res.TemplateStore, services.FillOptions{
		DefaultFormID: cfg.DefaultFormID,
		Strict:        cfg.StrictFormType,
		Semester:      cfg.Semester,
	})

	// typed nils must not leak into the optional interfaces
	var archive services.DocumentArchive
	if infra.Storage != nil {
		archive = infra.Storage
	}
	res.DocService = services.NewDocumentService(filler, archive, repos.GeneratedDocumentRepository, eventPublisher(infra), cfg.DownloadURLTTL)

	res.IngestService = services.NewIngestService(registry, embedder, sparse, infra.Vectors, services.IngestOptions{
		Dimension: cfg.DenseDimension,
		ExtraURLs: cfg.IngestURLs,
	})
	return res, nil
}

func eventPublisher(infra *Infrastructure) services.FormEventPublisher {
	if infra.EventPublisher == nil {
		return nil
	}
	return infra.EventPublisher
}
