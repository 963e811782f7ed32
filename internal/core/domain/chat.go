package domain

import "time"

type ChatSession struct {
	ID         string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// ChatMessage is one turn of a chat session. Sources is populated only on
// assistant messages.
type ChatMessage struct {
	ID        int64     `json:"message_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Source is the provenance record attached to an answer.
type Source struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentName string  `json:"document_name"`
	PageNumber   int     `json:"page_number"`
	SectionName  string  `json:"section_name,omitempty"`
	Score        float64 `json:"score"`
}

// QueryRequest carries one RAG question. Model and SessionID are optional;
// TopK <= 0 falls back to the configured default.
type QueryRequest struct {
	Question  string `json:"question"`
	Model     string `json:"model,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
}

// Answer is the final RAG response handed back to the caller.
type Answer struct {
	Text      string   `json:"text"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"session_id"`
}
