package models

import (
	"time"

	"gorm.io/datatypes"
)

type ChatLog struct {
	ID          string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Message     string         `gorm:"column:message;type:text" json:"message"`
	Reply       string         `gorm:"column:reply;type:text" json:"reply"`
	Sources     datatypes.JSON `gorm:"column:sources" json:"sources"`
	DraftFormID string         `gorm:"column:draft_form_id;type:varchar(32);index" json:"draft_form_id,omitempty"`
	Failed      bool           `gorm:"column:failed" json:"failed"`
	CreatedAt   time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (ChatLog) TableName() string {
	return "chat_logs"
}

// GeneratedDocument records one /generate-form call.
type GeneratedDocument struct {
	ID        string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	FormID    string         `gorm:"column:form_id;type:varchar(32);index" json:"form_id"`
	StudentID string         `gorm:"column:student_id;type:varchar(64);index" json:"student_id"`
	Filename  string         `gorm:"column:filename;type:varchar(255)" json:"filename"`
	Fields    datatypes.JSON `gorm:"column:fields" json:"fields"`
	FileKey   string         `gorm:"column:file_key;type:varchar(512)" json:"file_key,omitempty"`
	SizeBytes int64          `gorm:"column:size_bytes" json:"size_bytes"`
	FellBack  bool           `gorm:"column:fell_back" json:"fell_back"`
	CreatedAt time.Time      `gorm:"column:created_at;index" json:"created_at"`
	Content   []byte         `gorm:"-" json:"-"`
	MediaType string         `gorm:"-" json:"-"`
}

func (GeneratedDocument) TableName() string {
	return "generated_documents"
}

// Archived reports whether the rendered file was stored in the bucket.
func (d *GeneratedDocument) Archived() bool {
	return d.FileKey != ""
}
