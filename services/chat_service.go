package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/repository"
)

const auditTimeout = 5 * time.Second

type ChatService struct {
	registry    *FormRegistry
	retriever   Retriever
	responder   Responder
	chatLogRepo repository.ChatLogRepository
	k           int
	timeout     time.Duration
}

// NewChatService wires one chat turn. chatLogRepo may be nil when no
// database is configured.
func NewChatService(registry *FormRegistry, retriever Retriever, responder Responder, chatLogRepo repository.ChatLogRepository, k int, timeout time.Duration) *ChatService {
	if k <= 0 {
		k = 5
	}
	return &ChatService{
		registry:    registry,
		retriever:   retriever,
		responder:   responder,
		chatLogRepo: chatLogRepo,
		k:           k,
		timeout:     timeout,
	}
}

// Chat answers one question. Retrieval failures are returned; a model
// failure still produces a reply carrying the error text.
func (s *ChatService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	requestID := uuid.New().String()

	retrieved, err := s.retriever.Retrieve(ctx, req.Message, s.k)
	if err != nil {
		logging.Logger.Error("fail Retrieve", "request_id", requestID, "error", err)
		s.audit(requestID, req.Message, "", nil, nil, true)
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	reply, err := s.responder.Respond(ctx, retrieved.Context, req.Message, req.History)
	failed := err != nil
	if failed {
		logging.Logger.Warn("reply degraded to error text", "request_id", requestID, "error", err)
	}

	var draft *models.DraftPayload
	if !failed {
		draft = ParseFormData(reply, s.registry)
	}
	s.audit(requestID, req.Message, reply, retrieved.Sources, draft, failed)

	return &models.ChatResponse{
		Reply:     reply,
		Sources:   retrieved.Sources,
		Draft:     draft,
		RequestID: requestID,
	}, nil
}

// audit writes the chat log in the background; failures are only logged.
func (s *ChatService) audit(id, message, reply string, sources []models.Source, draft *models.DraftPayload, failed bool) {
	if s.chatLogRepo == nil {
		return
	}
	row := &models.ChatLog{
		ID:        id,
		Message:   message,
		Reply:     reply,
		Failed:    failed,
		CreatedAt: time.Now(),
	}
	if sources == nil {
		sources = []models.Source{}
	}
	if data, err := json.Marshal(sources); err == nil {
		row.Sources = datatypes.JSON(data)
	}
	if draft != nil {
		row.DraftFormID = draft.FormID
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := s.chatLogRepo.Create(ctx, row); err != nil {
			logging.Logger.Error("fail to write chat log", "request_id", id, "error", err)
		}
	}()
}
