package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/embeddings"
)

type flakyEmbeddingClient struct {
	failures int
	calls    int
	dim      int
	err      error
}

func (c *flakyEmbeddingClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	if c.calls <= c.failures {
		if c.err != nil {
			return nil, c.err
		}
		return nil, errors.New("503 service unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, c.dim)
	}
	return out, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetryingEmbeddingClient(t *testing.T) {
	inner := &flakyEmbeddingClient{failures: 2, dim: 3}
	var delays []time.Duration
	c := &retryingEmbeddingClient{inner: inner, maxRetries: 3, sleep: func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}}
	vecs, err := c.CreateEmbedding(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("create embedding: %v", err)
	}
	if len(vecs) != 2 || inner.calls != 3 {
		t.Fatalf("got %d vectors after %d calls", len(vecs), inner.calls)
	}
	if len(delays) != 2 || delays[0] != 200*time.Millisecond || delays[1] != 400*time.Millisecond {
		t.Fatalf("unexpected backoff %v", delays)
	}
}

func TestRetryingEmbeddingClientGivesUp(t *testing.T) {
	inner := &flakyEmbeddingClient{failures: 10, dim: 3}
	c := &retryingEmbeddingClient{inner: inner, maxRetries: 3, sleep: noSleep}
	_, err := c.CreateEmbedding(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "after 4 attempts") {
		t.Fatalf("expected give up error, got %v", err)
	}
	if inner.calls != 4 {
		t.Fatalf("expected 4 calls, got %d", inner.calls)
	}
}

func TestRetryingEmbeddingClientStopsOnContextError(t *testing.T) {
	inner := &flakyEmbeddingClient{failures: 10, err: context.DeadlineExceeded}
	c := &retryingEmbeddingClient{inner: inner, maxRetries: 3, sleep: noSleep}
	if _, err := c.CreateEmbedding(context.Background(), []string{"a"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("context errors must not be retried, got %d calls", inner.calls)
	}
}

func TestRetryDelayCapped(t *testing.T) {
	if d := retryDelay(0); d != 200*time.Millisecond {
		t.Fatalf("retryDelay(0) = %v", d)
	}
	for _, attempt := range []int{5, 10, 64} {
		if d := retryDelay(attempt); d != 5*time.Second {
			t.Fatalf("retryDelay(%d) = %v, want cap", attempt, d)
		}
	}
}

func TestDenseEmbedderChecksDimension(t *testing.T) {
	e, err := NewDenseEmbedder(&flakyEmbeddingClient{dim: 4}, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("embed documents: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors across batches, got %d", len(vecs))
	}

	e, err = NewDenseEmbedder(&flakyEmbeddingClient{dim: 3}, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.EmbedQuery(context.Background(), "a"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestEmbedQueryIsSingleShot(t *testing.T) {
	client := &flakyEmbeddingClient{failures: 1, dim: 4}
	e, err := NewDenseEmbedder(client, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.EmbedQuery(context.Background(), "ลาป่วย"); err == nil {
		t.Fatal("expected the first failure to surface")
	}
	if client.calls != 1 {
		t.Fatalf("query embedding called %d times, want 1", client.calls)
	}

	// the same transient failure is retried for document batches
	client = &flakyEmbeddingClient{failures: 1, dim: 4}
	e, err = NewDenseEmbedder(client, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	e.documents, err = embeddings.NewEmbedder(
		&retryingEmbeddingClient{inner: client, maxRetries: embedMaxRetries, sleep: noSleep},
		embeddings.WithBatchSize(8),
	)
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "b"})
	if err != nil || len(vecs) != 2 {
		t.Fatalf("embed documents = %d vectors, %v", len(vecs), err)
	}
	if client.calls != 2 {
		t.Fatalf("document embedding called %d times, want 2", client.calls)
	}
}
