package usecase

import (
	"context"
	"fmt"

	"github.com/raglab/docquery/internal/core/ports"
)

type RemoveDocumentUseCase struct {
	repo        ports.DocumentRepository
	chunkRepo   ports.ChunkRepository
	storage     ports.ObjectStorage
	indexWriter ports.SimilarityIndexWriter
	invalidate  func()
}

func NewRemoveDocumentUseCase(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	storage ports.ObjectStorage,
	indexWriter ports.SimilarityIndexWriter,
	invalidate func(),
) *RemoveDocumentUseCase {
	if invalidate == nil {
		invalidate = func() {}
	}
	return &RemoveDocumentUseCase{
		repo:        repo,
		chunkRepo:   chunkRepo,
		storage:     storage,
		indexWriter: indexWriter,
		invalidate:  invalidate,
	}
}

// Remove cascades one document deletion through every store: similarity
// collection, chunk rows, blob, then the metadata row last so a crashed
// cascade stays retryable.
func (uc *RemoveDocumentUseCase) Remove(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.indexWriter.DeleteDocument(ctx, doc.Name); err != nil {
		return fmt.Errorf("delete from similarity store: %w", err)
	}
	if err := uc.chunkRepo.DeleteByDocument(ctx, doc.Name); err != nil {
		return fmt.Errorf("delete chunk rows: %w", err)
	}
	if err := uc.storage.Remove(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete stored blob: %w", err)
	}
	if err := uc.repo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document metadata: %w", err)
	}

	uc.invalidate()
	return nil
}
