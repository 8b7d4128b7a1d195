package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"regis_chat_backend/models"
	"regis_chat_backend/platform/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	db := database.Wrap(gdb)
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return gdb
}

func TestChatLogCreateAndList(t *testing.T) {
	repo := NewChatLogRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	for i, msg := range []string{"ลาป่วยทำไง", "ขอลาออก"} {
		err := repo.Create(ctx, &models.ChatLog{
			ID:        []string{"a", "b"}[i],
			Message:   msg,
			Reply:     "ok",
			Sources:   datatypes.JSON(`[{"doc":"RO.16","url":"https://x"}]`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	logs, err := repo.ListRecent(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "b" {
		t.Fatalf("expected newest log first, got %+v", logs)
	}
}

func TestGeneratedDocumentLookup(t *testing.T) {
	repo := NewGeneratedDocumentRepository(newTestDB(t))
	ctx := context.Background()

	doc := &models.GeneratedDocument{
		ID:        "doc-1",
		FormID:    "RO.16",
		StudentID: "65070501001",
		Filename:  "Filled_RO.16_65070501001.docx",
		Fields:    datatypes.JSON(`{"name":"X"}`),
		FileKey:   "generated/2025/01/10/doc-1_Filled_RO.16_65070501001.docx",
		SizeBytes: 1024,
		Content:   []byte("not persisted"),
	}
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Archived() || got.FormID != "RO.16" || got.Content != nil {
		t.Fatalf("unexpected document %+v", got)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	docs, err := repo.ListByStudent(ctx, "65070501001", 10)
	if err != nil || len(docs) != 1 {
		t.Fatalf("list by student = %d, %v", len(docs), err)
	}
}
