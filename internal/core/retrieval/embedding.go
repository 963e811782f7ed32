package retrieval

import (
	"context"

	"github.com/raglab/docquery/internal/core/domain"
	"github.com/raglab/docquery/internal/core/ports"
)

// EmbeddingStrategy retrieves by nearest-neighbor search in embedding space.
// It populates only the embedding score (distance, lower = closer).
type EmbeddingStrategy struct {
	index ports.SimilarityIndex
}

func NewEmbeddingStrategy(index ports.SimilarityIndex) *EmbeddingStrategy {
	return &EmbeddingStrategy{index: index}
}

func (s *EmbeddingStrategy) Name() string { return "embedding" }

func (s *EmbeddingStrategy) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	hits, err := s.index.Query(ctx, query, topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "similarity search", err)
	}

	out := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		distance := hit.Distance
		out = append(out, domain.ScoredChunk{
			ChunkID:        hit.ChunkID,
			EmbeddingScore: &distance,
		})
	}
	return out, nil
}
