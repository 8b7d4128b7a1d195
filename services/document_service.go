package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/repository"
)

// ErrArchiveDisabled is returned by DownloadURL when documents are not kept.
var ErrArchiveDisabled = errors.New("document archive disabled")

type DocumentService struct {
	filler      *DocumentFiller
	archive     DocumentArchive
	docRepo     repository.GeneratedDocumentRepository
	publisher   FormEventPublisher
	downloadTTL time.Duration
}

// NewDocumentService wires document generation. archive, docRepo and
// publisher are optional and may be nil.
func NewDocumentService(filler *DocumentFiller, archive DocumentArchive, docRepo repository.GeneratedDocumentRepository, publisher FormEventPublisher, downloadTTL time.Duration) *DocumentService {
	if downloadTTL <= 0 {
		downloadTTL = 15 * time.Minute
	}
	return &DocumentService{
		filler:      filler,
		archive:     archive,
		docRepo:     docRepo,
		publisher:   publisher,
		downloadTTL: downloadTTL,
	}
}

// Generate renders the requested form. Only fill errors are returned;
// archiving, auditing and the event are best effort.
func (s *DocumentService) Generate(ctx context.Context, fields map[string]any) (*models.GeneratedDocument, error) {
	filled, err := s.filler.Fill(fields)
	if err != nil {
		return nil, err
	}

	doc := &models.GeneratedDocument{
		ID:        uuid.New().String(),
		FormID:    filled.FormID,
		StudentID: filled.StudentID,
		Filename:  filled.Filename,
		SizeBytes: int64(len(filled.Content)),
		FellBack:  filled.FellBack,
		CreatedAt: time.Now(),
		Content:   filled.Content,
		MediaType: filled.MediaType,
	}
	if data, err := json.Marshal(fields); err == nil {
		doc.Fields = datatypes.JSON(data)
	}

	if s.archive != nil {
		key, err := s.archive.PutDocument(ctx, doc.ID, doc.Filename, doc.MediaType, doc.Content)
		if err != nil {
			logging.Logger.Error("fail to archive document", "document_id", doc.ID, "error", err)
		} else {
			doc.FileKey = key
		}
	}

	if s.docRepo != nil {
		if err := s.docRepo.Create(ctx, doc); err != nil {
			logging.Logger.Error("fail to record document", "document_id", doc.ID, "error", err)
		}
	}

	if s.publisher != nil {
		event := &models.FormEvent{
			Type:       models.EventFormGenerated,
			DocumentID: doc.ID,
			FormID:     doc.FormID,
			StudentID:  doc.StudentID,
			Filename:   doc.Filename,
			Archived:   doc.Archived(),
		}
		if err := s.publisher.PublishFormEvent(ctx, event); err != nil {
			logging.Logger.Warn("fail to publish form event", "document_id", doc.ID, "error", err)
		}
	}

	logging.Logger.Info("document generated",
		"document_id", doc.ID,
		"form_id", doc.FormID,
		"fell_back", doc.FellBack,
		"archived", doc.Archived(),
	)
	return doc, nil
}

// DownloadURL signs a download link for an archived document.
func (s *DocumentService) DownloadURL(ctx context.Context, id string) (string, error) {
	if s.archive == nil || s.docRepo == nil {
		return "", ErrArchiveDisabled
	}
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !doc.Archived() {
		return "", fmt.Errorf("document %s: %w", id, repository.ErrNotFound)
	}
	exists, err := s.archive.FileExists(ctx, doc.FileKey)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", doc.FileKey, err)
	}
	if !exists {
		logging.Logger.Warn("archived document object is gone", "id", id, "key", doc.FileKey)
		return "", fmt.Errorf("document %s object: %w", id, repository.ErrNotFound)
	}
	return s.archive.GeneratePresignedGetDownload(ctx, doc.FileKey, doc.Filename, s.downloadTTL)
}

// History lists recent documents generated for a student.
func (s *DocumentService) History(ctx context.Context, studentID string, limit int) ([]*models.GeneratedDocument, error) {
	if s.docRepo == nil {
		return []*models.GeneratedDocument{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.docRepo.ListByStudent(ctx, studentID, limit)
}
