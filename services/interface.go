package services

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"

	"regis_chat_backend/models"
)

// VectorSearcher is the read side of the vector store.
type VectorSearcher interface {
	HybridSearch(ctx context.Context, dense []float32, sparse models.SparseVector, k int) ([]models.Passage, error)
}

// VectorWriter is the write side used by ingestion.
type VectorWriter interface {
	EnsureCollection(ctx context.Context, dim int, recreate bool) error
	Upsert(ctx context.Context, points []models.VectorPoint) (int, error)
}

// ChatModel is satisfied by langchaingo's openai.LLM.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// EmbeddingClient is satisfied by langchaingo's openai.LLM.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder turns text into dense vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the gateway seen by the chat service.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (*models.RetrievalResult, error)
}

// Responder produces the model reply for one chat turn.
type Responder interface {
	Respond(ctx context.Context, contextText, question string, history []models.ChatMessage) (string, error)
}

// DocumentArchive stores rendered documents and signs downloads.
type DocumentArchive interface {
	PutDocument(ctx context.Context, id, filename, contentType string, data []byte) (string, error)
	FileExists(ctx context.Context, fileKey string) (bool, error)
	GeneratePresignedGetDownload(ctx context.Context, fileKey, filename string, ttl time.Duration) (string, error)
}

// FormEventPublisher announces generated documents.
type FormEventPublisher interface {
	PublishFormEvent(ctx context.Context, event *models.FormEvent) error
}
