package ports

import (
	"context"
	"io"

	"github.com/raglab/docquery/internal/core/domain"
)

// DocumentRepository persists and reads document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	Count(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	UpdateCounts(ctx context.Context, id string, pageCount, chunkCount int) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository persists chunk records so the in-memory index can be
// rebuilt on startup.
type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []domain.Chunk) error
	DeleteByDocument(ctx context.Context, documentName string) error
	ListAll(ctx context.Context) ([]domain.Chunk, error)
}

// ChunkIndex is the shared read view of stored chunks. Retrieval only reads;
// implementations must support concurrent readers.
type ChunkIndex interface {
	All(ctx context.Context) ([]domain.Chunk, error)
	Resolve(ctx context.Context, ids []string) ([]domain.Chunk, error)
}

// ObjectStorage stores uploaded PDF blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts per-page plain text from a stored PDF.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) ([]domain.Page, error)
}

// Chunker splits extracted pages into chunk records with stable ids.
type Chunker interface {
	Chunk(doc *domain.Document, pages []domain.Page) []domain.Chunk
}

// KeywordExtractor returns lower-cased content-word lemmas in text order,
// duplicates included. Applied once per chunk at ingestion and once per query.
type KeywordExtractor interface {
	Extract(text string) []string
}

// Embedder builds vectors for chunk texts and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SimilarityIndex is the embedding-backed search collection. Query distance
// semantics: smaller is more similar, with no fixed numeric range.
type SimilarityIndex interface {
	Query(ctx context.Context, text string, topK int) ([]domain.ChunkDistance, error)
}

// SimilarityIndexWriter maintains the search collection at ingestion time.
type SimilarityIndexWriter interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	DeleteDocument(ctx context.Context, documentName string) error
}

// FusionRetriever produces the authoritative ranking for a query.
type FusionRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)
}

// QueryExpander rewrites a user query before retrieval.
type QueryExpander interface {
	Expand(ctx context.Context, query string) (string, error)
}

// AnswerGenerator creates the final user-facing answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, model, question string, chunks []domain.RetrievedChunk) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// ChatStore persists chat sessions and messages.
type ChatStore interface {
	EnsureSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)
	AppendMessage(ctx context.Context, message domain.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}
