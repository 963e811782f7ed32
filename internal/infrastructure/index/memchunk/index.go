// Package memchunk keeps an in-memory snapshot of all chunk rows so lexical
// scoring never hits the database on the query path. The snapshot is reloaded
// lazily once it is older than the configured TTL.
package memchunk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/raglab/docquery/internal/core/domain"
	"github.com/raglab/docquery/internal/core/ports"
)

type Index struct {
	repo    ports.ChunkRepository
	ttl     time.Duration
	logger  *slog.Logger
	nowFunc func() time.Time

	mu       sync.RWMutex
	chunks   []domain.Chunk
	byID     map[string]domain.Chunk
	loadedAt time.Time
}

func New(repo ports.ChunkRepository, ttl time.Duration, logger *slog.Logger) *Index {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Index{
		repo:    repo,
		ttl:     ttl,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// All returns the current chunk snapshot, refreshing it first when stale.
// Callers must not mutate the returned slice.
func (idx *Index) All(ctx context.Context) ([]domain.Chunk, error) {
	if err := idx.refreshIfStale(ctx); err != nil {
		return nil, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.chunks, nil
}

// Resolve maps chunk ids back to full chunks, preserving input order and
// skipping ids unknown to the snapshot.
func (idx *Index) Resolve(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if err := idx.refreshIfStale(ctx); err != nil {
		return nil, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := idx.byID[id]; ok {
			out = append(out, chunk)
		}
	}
	return out, nil
}

// Invalidate forces the next read to reload from the repository. Called after
// ingestion and deletion so the same process observes its own writes.
func (idx *Index) Invalidate() {
	idx.mu.Lock()
	idx.loadedAt = time.Time{}
	idx.mu.Unlock()
}

func (idx *Index) refreshIfStale(ctx context.Context) error {
	idx.mu.RLock()
	fresh := !idx.loadedAt.IsZero() && idx.nowFunc().Sub(idx.loadedAt) < idx.ttl
	idx.mu.RUnlock()
	if fresh {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	// Another goroutine may have reloaded while we waited for the lock.
	if !idx.loadedAt.IsZero() && idx.nowFunc().Sub(idx.loadedAt) < idx.ttl {
		return nil
	}

	chunks, err := idx.repo.ListAll(ctx)
	if err != nil {
		if !idx.loadedAt.IsZero() {
			// Serve the stale snapshot rather than failing the query.
			idx.logger.Warn("chunk_index_refresh_failed", slog.String("error", err.Error()))
			return nil
		}
		return domain.WrapError(domain.ErrStoreUnavailable, "load chunk index", err)
	}

	byID := make(map[string]domain.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}
	idx.chunks = chunks
	idx.byID = byID
	idx.loadedAt = idx.nowFunc()
	idx.logger.Debug("chunk_index_refreshed", slog.Int("chunks", len(chunks)))
	return nil
}
