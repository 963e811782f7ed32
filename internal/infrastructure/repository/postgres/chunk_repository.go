package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/raglab/docquery/internal/core/domain"
)

type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// CreateBatch inserts all chunk rows of one document in a single transaction
// so a partially indexed document never becomes visible to readers.
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chunks (id, document_name, page_number, section_name, subsection_name, chunk_type, chunk_text, keywords)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	page_number = EXCLUDED.page_number,
	section_name = EXCLUDED.section_name,
	subsection_name = EXCLUDED.subsection_name,
	chunk_type = EXCLUDED.chunk_type,
	chunk_text = EXCLUDED.chunk_text,
	keywords = EXCLUDED.keywords
`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		keywordsJSON, err := json.Marshal(chunk.Keywords)
		if err != nil {
			return fmt.Errorf("marshal keywords: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentName, chunk.PageNumber, chunk.SectionName, chunk.SubsectionName,
			string(chunk.ChunkType), chunk.Text, keywordsJSON,
		); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentName string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_name = $1`, documentName); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListAll(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_name, page_number, section_name, subsection_name, chunk_type, chunk_text, keywords
FROM chunks
ORDER BY document_name, id
`)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var chunkType string
		var keywordsRaw []byte
		var section, subsection sql.NullString
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentName, &chunk.PageNumber, &section, &subsection,
			&chunkType, &chunk.Text, &keywordsRaw,
		); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		if err := json.Unmarshal(keywordsRaw, &chunk.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshal keywords: %w", err)
		}
		chunk.SectionName = section.String
		chunk.SubsectionName = subsection.String
		chunk.ChunkType = domain.ChunkType(chunkType)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}
