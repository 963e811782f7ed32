package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/raglab/docquery/internal/core/domain"
)

func newChunkRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateBatchCommitsAllRows(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare("INSERT INTO chunks")
	prepared.ExpectExec().
		WithArgs("manual-0", "manual", 1, "Overview", "", "text", "first chunk", []byte(`["first","chunk"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prepared.ExpectExec().
		WithArgs("manual-1", "manual", 2, "Overview", "", "text", "second chunk", []byte(`["second","chunk"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	chunks := []domain.Chunk{
		{ID: "manual-0", DocumentName: "manual", PageNumber: 1, SectionName: "Overview", ChunkType: domain.ChunkTypeText, Text: "first chunk", Keywords: []string{"first", "chunk"}},
		{ID: "manual-1", DocumentName: "manual", PageNumber: 2, SectionName: "Overview", ChunkType: domain.ChunkTypeText, Text: "second chunk", Keywords: []string{"second", "chunk"}},
	}
	if err := repo.CreateBatch(context.Background(), chunks); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateBatchEmptyIsNoop(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	if err := repo.CreateBatch(context.Background(), nil); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListAllUnmarshalsKeywords(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "document_name", "page_number", "section_name", "subsection_name",
		"chunk_type", "chunk_text", "keywords",
	}).AddRow("manual-0", "manual", 1, "Overview", nil, "text", "pump pump filter", []byte(`["pump","pump","filter"]`))

	mock.ExpectQuery("SELECT id, document_name").WillReturnRows(rows)

	chunks, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if len(chunks[0].Keywords) != 3 || chunks[0].Keywords[0] != "pump" {
		t.Fatalf("unexpected keywords: %v", chunks[0].Keywords)
	}
	if chunks[0].SubsectionName != "" {
		t.Fatalf("expected NULL subsection to scan as empty, got %q", chunks[0].SubsectionName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteByDocumentRemovesRows(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM chunks").
		WithArgs("manual").
		WillReturnResult(sqlmock.NewResult(0, 5))

	if err := repo.DeleteByDocument(context.Background(), "manual"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
