package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/raglab/docquery/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type processRepoFake struct {
	doc         *domain.Document
	getErr      error
	countsErr   error
	statusCalls []statusCall
	pageCount   int
	chunkCount  int
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *processRepoFake) List(context.Context) ([]domain.Document, error) { return nil, nil }
func (f *processRepoFake) Count(context.Context) (int, error)              { return 0, nil }

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *processRepoFake) UpdateCounts(_ context.Context, _ string, pageCount, chunkCount int) error {
	if f.countsErr != nil {
		return f.countsErr
	}
	f.pageCount = pageCount
	f.chunkCount = chunkCount
	return nil
}

func (f *processRepoFake) Delete(context.Context, string) error { return nil }

type processChunkRepoFake struct {
	saved []domain.Chunk
	err   error
}

func (f *processChunkRepoFake) CreateBatch(_ context.Context, chunks []domain.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.saved = chunks
	return nil
}
func (f *processChunkRepoFake) DeleteByDocument(context.Context, string) error { return nil }
func (f *processChunkRepoFake) ListAll(context.Context) ([]domain.Chunk, error) {
	return nil, nil
}

type pageExtractorFake struct {
	pages []domain.Page
	err   error
}

func (f *pageExtractorFake) Extract(context.Context, *domain.Document) ([]domain.Page, error) {
	return f.pages, f.err
}

type chunkerFake struct {
	chunks []domain.Chunk
}

func (f *chunkerFake) Chunk(*domain.Document, []domain.Page) []domain.Chunk { return f.chunks }

type keywordsFake struct{}

func (keywordsFake) Extract(text string) []string { return strings.Fields(strings.ToLower(text)) }

type processEmbedderFake struct {
	err   error
	short bool
}

func (f *processEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{0.1}
	}
	return out, nil
}

func (f *processEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1}, nil
}

type indexWriterFake struct {
	indexed []domain.Chunk
	err     error
}

func (f *indexWriterFake) IndexChunks(_ context.Context, chunks []domain.Chunk, _ [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = chunks
	return nil
}
func (f *indexWriterFake) DeleteDocument(context.Context, string) error { return nil }

func newProcessUC(repo *processRepoFake, chunkRepo *processChunkRepoFake, extractor *pageExtractorFake, chunker *chunkerFake, embedder *processEmbedderFake, writer *indexWriterFake, invalidate func()) *ProcessDocumentUseCase {
	return NewProcessDocumentUseCase(repo, chunkRepo, extractor, chunker, keywordsFake{}, embedder, writer, invalidate)
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Name: "manual"}}
	chunkRepo := &processChunkRepoFake{}
	extractor := &pageExtractorFake{pages: []domain.Page{{Number: 1, Text: "Pump overview"}, {Number: 2, Text: "Filter schedule"}}}
	chunker := &chunkerFake{chunks: []domain.Chunk{
		{ID: "manual-0", DocumentName: "manual", Text: "Pump overview"},
		{ID: "manual-1", DocumentName: "manual", Text: "Filter schedule"},
	}}
	writer := &indexWriterFake{}
	invalidated := false
	uc := newProcessUC(repo, chunkRepo, extractor, chunker, &processEmbedderFake{}, writer, func() { invalidated = true })

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if len(repo.statusCalls) != 2 || repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status transitions: %+v", repo.statusCalls)
	}
	if repo.pageCount != 2 || repo.chunkCount != 2 {
		t.Fatalf("expected counts 2/2, got %d/%d", repo.pageCount, repo.chunkCount)
	}
	if len(writer.indexed) != 2 {
		t.Fatalf("expected 2 chunks indexed, got %d", len(writer.indexed))
	}
	if len(chunkRepo.saved) != 2 {
		t.Fatalf("expected 2 chunk rows saved, got %d", len(chunkRepo.saved))
	}
	if got := chunkRepo.saved[0].Keywords; len(got) != 2 || got[0] != "pump" {
		t.Fatalf("expected keywords attached before persistence, got %v", got)
	}
	if !invalidated {
		t.Fatalf("expected chunk index invalidation after success")
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Name: "manual"}}
	extractor := &pageExtractorFake{err: errors.New("corrupt pdf")}
	uc := newProcessUC(repo, &processChunkRepoFake{}, extractor, &chunkerFake{}, &processEmbedderFake{}, &indexWriterFake{}, nil)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", last.status)
	}
	if !strings.Contains(last.errMsg, "corrupt pdf") {
		t.Fatalf("expected error message recorded, got %q", last.errMsg)
	}
}

func TestProcessByIDEmptyPagesIsInvalidInput(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Name: "manual"}}
	uc := newProcessUC(repo, &processChunkRepoFake{}, &pageExtractorFake{}, &chunkerFake{}, &processEmbedderFake{}, &indexWriterFake{}, nil)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessByIDVectorMismatchFails(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Name: "manual"}}
	extractor := &pageExtractorFake{pages: []domain.Page{{Number: 1, Text: "text"}}}
	chunker := &chunkerFake{chunks: []domain.Chunk{{ID: "manual-0", Text: "a"}, {ID: "manual-1", Text: "b"}}}
	uc := newProcessUC(repo, &processChunkRepoFake{}, extractor, chunker, &processEmbedderFake{short: true}, &indexWriterFake{}, nil)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessByIDIndexErrorMarksFailed(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Name: "manual"}}
	extractor := &pageExtractorFake{pages: []domain.Page{{Number: 1, Text: "text"}}}
	chunker := &chunkerFake{chunks: []domain.Chunk{{ID: "manual-0", Text: "a"}}}
	writer := &indexWriterFake{err: fmt.Errorf("chroma down")}
	uc := newProcessUC(repo, &processChunkRepoFake{}, extractor, chunker, &processEmbedderFake{}, writer, nil)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "chroma down") {
		t.Fatalf("expected index error, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", last.status)
	}
}
