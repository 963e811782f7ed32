package ports

import (
	"context"
	"io"

	"github.com/raglab/docquery/internal/core/domain"
)

// DocumentIngestor is the inbound contract for PDF upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous PDF processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentQueryService is the inbound contract for RAG question answering.
type DocumentQueryService interface {
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

// DocumentRemover deletes a document and cascades to every index.
type DocumentRemover interface {
	Remove(ctx context.Context, documentID string) error
}
