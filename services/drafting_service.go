package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
)

var errEmptyCompletion = errors.New("empty completion")

type DraftingOptions struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	HistoryBudget int
}

// DraftingService assembles system, history and context turns and asks the
// chat model for one completion.
type DraftingService struct {
	model        ChatModel
	systemPrompt string
	counter      *TokenCounter
	opts         DraftingOptions
}

func NewDraftingService(model ChatModel, registry *FormRegistry, counter *TokenCounter, opts DraftingOptions) (*DraftingService, error) {
	prompt, err := BuildSystemPrompt(registry)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		counter = NewTokenCounter()
	}
	return &DraftingService{
		model:        model,
		systemPrompt: prompt,
		counter:      counter,
		opts:         opts,
	}, nil
}

// Respond returns the first completion verbatim. On failure the reply is the
// user facing "AI Error: ..." text and err carries the cause.
func (s *DraftingService) Respond(ctx context.Context, contextText, question string, history []models.ChatMessage) (string, error) {
	messages, err := s.buildMessages(contextText, question, history)
	if err != nil {
		return aiErrorReply(err), err
	}

	callOpts := []llms.CallOption{llms.WithTemperature(s.opts.Temperature)}
	if s.opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(s.opts.Model))
	}
	if s.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(s.opts.MaxTokens))
	}

	resp, err := s.model.GenerateContent(ctx, messages, callOpts...)
	if err == nil && (resp == nil || len(resp.Choices) == 0) {
		err = errEmptyCompletion
	}
	if err != nil {
		logging.Logger.Error("fail GenerateContent", "error", err)
		return aiErrorReply(err), err
	}
	return resp.Choices[0].Content, nil
}

func (s *DraftingService) buildMessages(contextText, question string, history []models.ChatMessage) ([]llms.MessageContent, error) {
	kept := TrimHistory(normalizeHistory(history), s.opts.HistoryBudget, s.counter)

	messages := make([]llms.MessageContent, 0, len(kept)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt))
	for _, m := range kept {
		messages = append(messages, llms.TextParts(messageType(m.Role), m.Content))
	}
	userTurn, err := buildUserTurn(contextText, question)
	if err != nil {
		return nil, fmt.Errorf("render user turn: %w", err)
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userTurn))
	return messages, nil
}

// normalizeHistory drops blank messages and roles the model does not know.
func normalizeHistory(history []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history))
	for _, m := range history {
		role := models.ChatRole(strings.ToLower(strings.TrimSpace(string(m.Role))))
		switch role {
		case models.RoleUser, models.RoleAssistant, models.RoleSystem:
		default:
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, models.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

func messageType(role models.ChatRole) llms.ChatMessageType {
	switch role {
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}

func aiErrorReply(err error) string {
	return "AI Error: " + err.Error()
}
