package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/raglab/docquery/internal/core/domain"
)

func newChatRepoWithMock(t *testing.T) (*ChatRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChatRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureSessionUpserts(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO chat_sessions").
		WithArgs("sess-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "last_active"}).AddRow("sess-1", now, now))

	session, err := repo.EnsureSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if session.ID != "sess-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendMessageSerializesSources(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs("sess-1", "assistant", "the filter is replaced monthly", []byte(`[{"chunk_id":"manual-3","document_name":"manual","page_number":4,"section_name":"Maintenance","score":0.83}]`), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AppendMessage(context.Background(), domain.ChatMessage{
		SessionID: "sess-1",
		Role:      "assistant",
		Content:   "the filter is replaced monthly",
		Sources: []domain.Source{{
			ChunkID:      "manual-3",
			DocumentName: "manual",
			PageNumber:   4,
			SectionName:  "Maintenance",
			Score:        0.83,
		}},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListMessagesUnknownSession(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.ListMessages(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListMessagesReturnsHistoryInOrder(t *testing.T) {
	repo, mock, done := newChatRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id, session_id, role, content, sources, created_at").
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "role", "content", "sources", "created_at"}).
			AddRow(1, "sess-1", "user", "how often?", []byte(`[]`), now).
			AddRow(2, "sess-1", "assistant", "monthly", []byte(`[{"chunk_id":"manual-3"}]`), now.Add(time.Second)))

	messages, err := repo.ListMessages(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Fatalf("unexpected order: %+v", messages)
	}
	if len(messages[1].Sources) != 1 || messages[1].Sources[0].ChunkID != "manual-3" {
		t.Fatalf("unexpected sources: %+v", messages[1].Sources)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
