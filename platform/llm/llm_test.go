package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"regis_chat_backend/config"
)

func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gsk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"llama-3.1-8b-instant",
			"choices":[{"index":0,"message":{"role":"assistant","content":"สวัสดีครับ"},"finish_reason":"stop"}]}`))
	})
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: req.Model}
		for i := range req.Input {
			resp.Data = append(resp.Data, item{Object: "embedding", Embedding: []float32{float32(i), 1}, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.GroqAPIKey = "gsk_test"
	cfg.LLMBaseURL = baseURL
	cfg.EmbeddingBaseURL = baseURL
	cfg.UpstreamTimeout = 5 * time.Second
	return cfg
}

func TestChatModelGenerates(t *testing.T) {
	srv := fakeOpenAI(t)
	model, err := NewChatModel(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewChatModel: %v", err)
	}
	resp, err := model.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "hello"),
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Content != "สวัสดีครับ" {
		t.Fatalf("unexpected response %+v", resp.Choices)
	}
}

func TestChatModelWithoutKeyStillBuilds(t *testing.T) {
	srv := fakeOpenAI(t)
	cfg := testConfig(srv.URL)
	cfg.GroqAPIKey = ""
	model, err := NewChatModel(cfg)
	if err != nil {
		t.Fatalf("NewChatModel: %v", err)
	}
	_, err = model.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "hello"),
	})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
}

func TestEmbeddingClient(t *testing.T) {
	srv := fakeOpenAI(t)
	client, err := NewEmbeddingClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewEmbeddingClient: %v", err)
	}
	vecs, err := client.CreateEmbedding(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 1 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
}
