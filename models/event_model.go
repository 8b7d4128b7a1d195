package models

import "time"

type FormEventType string

const (
	EventFormGenerated FormEventType = "form.generated"
	EventIngestQueued  FormEventType = "ingest.queued"
)

type FormEvent struct {
	Type       FormEventType `json:"type"`
	DocumentID string        `json:"document_id,omitempty"`
	FormID     string        `json:"form_id,omitempty"`
	StudentID  string        `json:"student_id,omitempty"`
	Filename   string        `json:"filename,omitempty"`
	Archived   bool          `json:"archived"`
	Message    string        `json:"message,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
