package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/raglab/docquery/internal/core/domain"
	"github.com/raglab/docquery/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo        ports.DocumentRepository
	chunkRepo   ports.ChunkRepository
	extractor   ports.TextExtractor
	chunker     ports.Chunker
	keywords    ports.KeywordExtractor
	embedder    ports.Embedder
	indexWriter ports.SimilarityIndexWriter
	invalidate  func()
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	keywords ports.KeywordExtractor,
	embedder ports.Embedder,
	indexWriter ports.SimilarityIndexWriter,
	invalidate func(),
) *ProcessDocumentUseCase {
	if invalidate == nil {
		invalidate = func() {}
	}
	return &ProcessDocumentUseCase{
		repo:        repo,
		chunkRepo:   chunkRepo,
		extractor:   extractor,
		chunker:     chunker,
		keywords:    keywords,
		embedder:    embedder,
		indexWriter: indexWriter,
		invalidate:  invalidate,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	uc.invalidate()
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}

	pages, err := uc.extractPages(ctx, doc)
	if err != nil {
		return err
	}

	chunks, err := uc.chunk(doc, pages)
	if err != nil {
		return err
	}

	for i := range chunks {
		chunks[i].Keywords = uc.keywords.Extract(chunks[i].Text)
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return err
	}

	if err := uc.indexWriter.IndexChunks(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in similarity store: %w", err)
	}

	if err := uc.chunkRepo.CreateBatch(ctx, chunks); err != nil {
		return fmt.Errorf("persist chunk rows: %w", err)
	}

	if err := uc.repo.UpdateCounts(ctx, doc.ID, len(pages), len(chunks)); err != nil {
		return fmt.Errorf("update document counts: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	pages, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("document has no pages"))
	}
	return pages, nil
}

func (uc *ProcessDocumentUseCase) chunk(doc *domain.Document, pages []domain.Page) ([]domain.Chunk, error) {
	chunks := uc.chunker.Chunk(doc, pages)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
