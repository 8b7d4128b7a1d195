package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"regis_chat_backend/models"
)

type documentRepository struct {
	DB *gorm.DB
}

func NewGeneratedDocumentRepository(db *gorm.DB) GeneratedDocumentRepository {
	return &documentRepository{DB: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.GeneratedDocument) error {
	return r.DB.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.GeneratedDocument, error) {
	var doc models.GeneratedDocument
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]*models.GeneratedDocument, error) {
	var docs []*models.GeneratedDocument
	err := r.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}
