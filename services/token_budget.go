package services

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
)

const historyEncoding = "cl100k_base"

// perMessageOverhead approximates the role and separator tokens the chat
// format adds around every message.
const perMessageOverhead = 4

// TokenCounter counts tokens with cl100k_base. The encoding is loaded on
// first use; when it cannot be loaded a rune based estimate is used instead.
type TokenCounter struct {
	once  sync.Once
	count func(string) int
}

func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// NewTokenCounterFunc uses count instead of tiktoken.
func NewTokenCounterFunc(count func(string) int) *TokenCounter {
	tc := &TokenCounter{count: count}
	tc.once.Do(func() {})
	return tc
}

func (tc *TokenCounter) Count(text string) int {
	tc.once.Do(tc.load)
	return tc.count(text)
}

func (tc *TokenCounter) load() {
	enc, err := tiktoken.GetEncoding(historyEncoding)
	if err != nil {
		logging.Logger.Warn("tiktoken encoding unavailable, estimating tokens", "encoding", historyEncoding, "error", err)
		tc.count = estimateTokens
		return
	}
	tc.count = func(s string) int { return len(enc.Encode(s, nil, nil)) }
}

// estimateTokens assumes about two runes per token, which over-counts for
// English and roughly matches Thai.
func estimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 1) / 2
}

// TrimHistory drops the oldest messages until the rest fit in budget tokens.
// A non-positive budget keeps everything.
func TrimHistory(history []models.ChatMessage, budget int, counter *TokenCounter) []models.ChatMessage {
	if budget <= 0 || len(history) == 0 {
		return history
	}
	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := counter.Count(history[i].Content) + perMessageOverhead
		if total+cost > budget {
			break
		}
		total += cost
		start = i
	}
	if start > 0 {
		logging.Logger.Debug("history trimmed", "dropped", start, "kept", len(history)-start)
	}
	return history[start:]
}
