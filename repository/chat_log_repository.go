package repository

import (
	"context"

	"gorm.io/gorm"

	"regis_chat_backend/models"
)

type chatLogRepository struct {
	DB *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) ChatLogRepository {
	return &chatLogRepository{DB: db}
}

func (r *chatLogRepository) Create(ctx context.Context, log *models.ChatLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *chatLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.ChatLog, error) {
	var logs []*models.ChatLog
	err := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
