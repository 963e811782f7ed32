package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the metadata record for one uploaded PDF. Name is the base
// filename without extension; chunk ids are derived from it.
type Document struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Filename    string         `json:"filename"`
	StoragePath string         `json:"storage_path"`
	PageCount   int            `json:"page_count"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Page is one page of extracted PDF text, numbered from 1.
type Page struct {
	Number int
	Text   string
}
