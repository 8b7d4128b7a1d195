package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"

	"regis_chat_backend/pkg/logging"
)

const embedMaxRetries = 3

// DenseEmbedder batches texts through langchaingo and checks the vector
// width against the collection's dense dimension. Only document batches
// are retried; a query embedding is a single call on the chat path.
type DenseEmbedder struct {
	query     *embeddings.EmbedderImpl
	documents *embeddings.EmbedderImpl
	dimension int
}

func NewDenseEmbedder(client EmbeddingClient, batchSize, dimension int) (*DenseEmbedder, error) {
	if batchSize <= 0 {
		batchSize = 32
	}
	query, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	documents, err := embeddings.NewEmbedder(
		&retryingEmbeddingClient{inner: client, maxRetries: embedMaxRetries, sleep: sleepCtx},
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return &DenseEmbedder{query: query, documents: documents, dimension: dimension}, nil
}

func (e *DenseEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.query.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.check(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *DenseEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.documents.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(vecs), len(texts))
	}
	for _, v := range vecs {
		if err := e.check(v); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

func (e *DenseEmbedder) check(vec []float32) error {
	if e.dimension > 0 && len(vec) != e.dimension {
		return fmt.Errorf("embedding dimension %d does not match configured %d", len(vec), e.dimension)
	}
	return nil
}

type retryingEmbeddingClient struct {
	inner      EmbeddingClient
	maxRetries int
	sleep      func(context.Context, time.Duration) error
}

func (c *retryingEmbeddingClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		vecs, err := c.inner.CreateEmbedding(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
		if attempt == c.maxRetries {
			break
		}
		logging.Logger.Warn("embedding request failed, retrying", "attempt", attempt+1, "error", err)
		if err := c.sleep(ctx, retryDelay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func retryDelay(attempt int) time.Duration {
	if attempt >= 5 {
		return 5 * time.Second
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		return 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
