package llm

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms/openai"

	"regis_chat_backend/config"
	"regis_chat_backend/pkg/logging"
)

// placeholderToken keeps the client constructible when the upstream does
// not check keys (local embedding servers) or the key is not configured yet.
const placeholderToken = "none"

// NewChatModel builds the OpenAI compatible chat completion client used for
// Groq.
func NewChatModel(cfg *config.Config) (*openai.LLM, error) {
	token := cfg.GroqAPIKey
	if token == "" {
		logging.Logger.Warn("GROQ_API_KEY is not set, completions will fail")
		token = placeholderToken
	}
	model, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(cfg.LLMBaseURL),
		openai.WithModel(cfg.LLMModel),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	logging.Logger.Info("Chat model ready", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
	return model, nil
}

// NewEmbeddingClient builds the client for the dense embedding endpoint.
func NewEmbeddingClient(cfg *config.Config) (*openai.LLM, error) {
	token := cfg.EmbeddingAPIKey
	if token == "" {
		token = placeholderToken
	}
	client, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(cfg.EmbeddingBaseURL),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("init embedding client: %w", err)
	}
	logging.Logger.Info("Embedding client ready", "base_url", cfg.EmbeddingBaseURL, "model", cfg.EmbeddingModel)
	return client, nil
}
