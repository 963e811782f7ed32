package domain

// ChunkType classifies chunk content. Current retrieval strategies do not
// discriminate on it, but it is preserved for filtering later on.
type ChunkType string

const (
	ChunkTypeText         ChunkType = "text"
	ChunkTypeTable        ChunkType = "table"
	ChunkTypeBulletpoints ChunkType = "bulletpoints"
	ChunkTypeImageCaption ChunkType = "image_caption"
)

// Chunk is an immutable unit of retrievable text. Created once at ingestion,
// removed only when its owning document is deleted.
type Chunk struct {
	ID             string    `json:"id"`
	DocumentName   string    `json:"document_name"`
	PageNumber     int       `json:"page_number"`
	SectionName    string    `json:"section_name,omitempty"`
	SubsectionName string    `json:"subsection_name,omitempty"`
	ChunkType      ChunkType `json:"chunk_type"`
	Text           string    `json:"text"`
	// Keywords are lower-cased content-word lemmas in document order.
	// Duplicates carry frequency signal. Empty when not yet computed.
	Keywords []string `json:"keywords,omitempty"`
}

// ScoredChunk is a transient per-query result record. EmbeddingScore uses
// distance semantics (lower = more similar), KeyphraseScore frequency
// semantics (higher = more relevant). A nil partial score means the owning
// strategy never surfaced the chunk.
type ScoredChunk struct {
	ChunkID        string   `json:"chunk_id"`
	EmbeddingScore *float64 `json:"embedding_score,omitempty"`
	KeyphraseScore *float64 `json:"keyphrase_score,omitempty"`
	CombinedScore  float64  `json:"combined_score"`
}

// ChunkDistance is a single nearest-neighbor hit from the similarity index.
type ChunkDistance struct {
	ChunkID  string
	Distance float64
}

// RetrievedChunk pairs a resolved chunk with its fused relevance score.
type RetrievedChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
