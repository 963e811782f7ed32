package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raglab/docquery/internal/core/domain"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// EnsureSession creates the session row on first use and bumps last_active on
// every later call.
func (r *ChatRepository) EnsureSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	now := time.Now().UTC()
	row := r.db.QueryRowContext(ctx, `
INSERT INTO chat_sessions (id, created_at, last_active)
VALUES ($1, $2, $2)
ON CONFLICT (id) DO UPDATE SET last_active = $2
RETURNING id, created_at, last_active
`, sessionID, now)

	var session domain.ChatSession
	if err := row.Scan(&session.ID, &session.CreatedAt, &session.LastActive); err != nil {
		return nil, fmt.Errorf("ensure chat session: %w", err)
	}
	return &session, nil
}

func (r *ChatRepository) AppendMessage(ctx context.Context, message domain.ChatMessage) error {
	sourcesJSON, err := json.Marshal(message.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO chat_messages (session_id, role, content, sources, created_at)
VALUES ($1,$2,$3,$4,$5)
`, message.SessionID, message.Role, message.Content, sourcesJSON, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id = $1)`, sessionID).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check chat session: %w", err)
	}
	if !exists {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "list messages", fmt.Errorf("session %s", sessionID))
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, role, content, sources, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at, id
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var message domain.ChatMessage
		var sourcesRaw []byte
		if err := rows.Scan(
			&message.ID, &message.SessionID, &message.Role, &message.Content, &sourcesRaw, &message.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if err := json.Unmarshal(sourcesRaw, &message.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}
