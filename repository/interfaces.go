package repository

import (
	"context"
	"errors"

	"regis_chat_backend/models"
)

var ErrNotFound = errors.New("record not found")

type ChatLogRepository interface {
	Create(ctx context.Context, log *models.ChatLog) error
	ListRecent(ctx context.Context, limit int) ([]*models.ChatLog, error)
}

type GeneratedDocumentRepository interface {
	Create(ctx context.Context, doc *models.GeneratedDocument) error
	GetByID(ctx context.Context, id string) (*models.GeneratedDocument, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*models.GeneratedDocument, error)
}
