package models

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// Source is a document reference returned with a reply. Sources are unique by URL.
type Source struct {
	Doc  string `json:"doc"`
	Page int    `json:"page,omitempty"`
	URL  string `json:"url"`
}

type ChatResponse struct {
	Reply     string        `json:"reply"`
	Sources   []Source      `json:"sources"`
	Draft     *DraftPayload `json:"draft,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// RetrievedChunk is a passage returned by the vector index.
type RetrievedChunk struct {
	Text        string  `json:"text"`
	SourceURL   string  `json:"source_url,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Score       float32 `json:"score"`
}

// RetrievalResult is the merged output of keyword and vector retrieval.
type RetrievalResult struct {
	Context string           `json:"context"`
	Sources []Source         `json:"sources"`
	Chunks  []RetrievedChunk `json:"chunks,omitempty"`
}

// DraftPayload is the structured block the model attaches to drafted requests.
type DraftPayload struct {
	FormID       string            `json:"form_id,omitempty"`
	DraftSubject string            `json:"draft_subject,omitempty"`
	DraftReason  string            `json:"draft_reason,omitempty"`
	StudentID    string            `json:"student_id,omitempty"`
	Name         string            `json:"name,omitempty"`
	Faculty      string            `json:"faculty,omitempty"`
	Department   string            `json:"department,omitempty"`
	Year         string            `json:"year,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}
