// Package retrieval implements the multi-source fusion retrieval pipeline:
// independent scoring strategies dispatched concurrently, their partial
// scores normalized, fused into a weighted combined score, filtered and
// ranked.
package retrieval

import (
	"context"

	"github.com/raglab/docquery/internal/core/domain"
)

// Strategy scores candidate chunks for a query. Implementations must be
// deterministic for a fixed store state and side-effect free on the store.
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)
}
