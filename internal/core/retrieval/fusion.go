package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/raglab/docquery/internal/core/domain"
)

// Config holds the fusion calibration constants. Alpha weights the embedding
// dimension; 1-alpha weights the keyphrase dimension.
type Config struct {
	Alpha             float64
	MaxCosineDistance float64
	CombinedThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Alpha:             0.5,
		MaxCosineDistance: 1.6,
		CombinedThreshold: 0.4,
	}
}

// Engine combines strategy outputs into one authoritative ranking. It holds
// no per-query state; a single Engine serves concurrent queries.
type Engine struct {
	strategies []Strategy
	cfg        Config
	logger     *slog.Logger
}

func NewEngine(strategies []Strategy, cfg Config, logger *slog.Logger) (*Engine, error) {
	if len(strategies) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new fusion engine", errors.New("at least one strategy is required"))
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new fusion engine", fmt.Errorf("alpha must be in [0,1], got %v", cfg.Alpha))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		strategies: strategies,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Retrieve runs every strategy concurrently, fuses their partial scores,
// filters and returns chunks ranked descending by combined score. A strategy
// failure degrades ranking quality instead of aborting the query.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	partials := e.dispatch(ctx, query, topK)

	fused := e.fuseScores(partials)
	if len(fused) == 0 {
		return nil, nil
	}

	filtered := filterResults(fused, e.cfg.MaxCosineDistance, e.cfg.CombinedThreshold)

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CombinedScore != filtered[j].CombinedScore {
			return filtered[i].CombinedScore > filtered[j].CombinedScore
		}
		return filtered[i].ChunkID < filtered[j].ChunkID
	})
	return filtered, nil
}

// dispatch runs all strategies in parallel and rejoins at a barrier before
// any grouping happens. Strategies share no mutable state; each writes only
// its own result slot.
func (e *Engine) dispatch(ctx context.Context, query string, topK int) []domain.ScoredChunk {
	results := make([][]domain.ScoredChunk, len(e.strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, strategy := range e.strategies {
		g.Go(func() error {
			out, err := strategy.Retrieve(gctx, query, topK)
			if err != nil {
				e.logger.Warn("retrieval_strategy_failed",
					"strategy", strategy.Name(),
					"error", err,
				)
				return nil
			}
			results[i] = out
			return nil
		})
	}
	// Strategy errors are swallowed above; Wait only serves as the barrier.
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	flat := make([]domain.ScoredChunk, 0, total)
	for _, r := range results {
		flat = append(flat, r...)
	}
	return flat
}

type partialScores struct {
	emb *float64
	kp  float64
}

// fuseScores groups partial results by chunk id, default-fills missing
// dimensions, min-max normalizes each dimension and combines them into one
// weighted score per chunk.
func (e *Engine) fuseScores(results []domain.ScoredChunk) []domain.ScoredChunk {
	if len(results) == 0 {
		return nil
	}

	// Last write wins per dimension when a strategy repeats a chunk id.
	groups := make(map[string]partialScores, len(results))
	for _, r := range results {
		group := groups[r.ChunkID]
		if r.EmbeddingScore != nil {
			v := *r.EmbeddingScore
			group.emb = &v
		}
		if r.KeyphraseScore != nil {
			group.kp = *r.KeyphraseScore
		}
		groups[r.ChunkID] = group
	}

	// Chunks unseen by the embedding strategy get the worst observed
	// distance, a conservative penalty rather than an optimistic default.
	defaultEmb := 1.0
	seenEmb := false
	for _, group := range groups {
		if group.emb == nil {
			continue
		}
		if !seenEmb || *group.emb > defaultEmb {
			defaultEmb = *group.emb
		}
		seenEmb = true
	}

	embRaw := make(map[string]float64, len(groups))
	kpRaw := make(map[string]float64, len(groups))
	for id, group := range groups {
		if group.emb != nil {
			embRaw[id] = *group.emb
		} else {
			embRaw[id] = defaultEmb
		}
		kpRaw[id] = group.kp
	}

	e.logger.Debug("fusion_raw_scores", "embedding", embRaw, "keyphrase", kpRaw)

	normEmb := normalizeScores(embRaw, true)
	normKp := normalizeScores(kpRaw, false)

	e.logger.Debug("fusion_normalized_scores", "embedding", normEmb, "keyphrase", normKp)

	fused := make([]domain.ScoredChunk, 0, len(groups))
	for id := range groups {
		emb := embRaw[id]
		kp := kpRaw[id]
		fused = append(fused, domain.ScoredChunk{
			ChunkID:        id,
			EmbeddingScore: &emb,
			KeyphraseScore: &kp,
			CombinedScore:  e.cfg.Alpha*normEmb[id] + (1-e.cfg.Alpha)*normKp[id],
		})
	}
	return fused
}

// normalizeScores min-max scales raw scores to [0,1]. A degenerate dimension
// (all values equal) normalizes to 1.0 everywhere: a non-discriminating
// dimension counts as fully satisfied, not fully failing. When lowerIsBetter
// the result is inverted so higher always means better.
func normalizeScores(raw map[string]float64, lowerIsBetter bool) map[string]float64 {
	norm := make(map[string]float64, len(raw))

	first := true
	var minVal, maxVal float64
	for _, v := range raw {
		if first {
			minVal, maxVal = v, v
			first = false
			continue
		}
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	if maxVal == minVal {
		for id := range raw {
			norm[id] = 1.0
		}
		return norm
	}

	spread := maxVal - minVal
	for id, v := range raw {
		scaled := (v - minVal) / spread
		if lowerIsBetter {
			scaled = 1 - scaled
		}
		norm[id] = scaled
	}
	return norm
}

// filterResults keeps a chunk only if it has some lexical overlap with the
// query, sits within the embedding distance cutoff, and clears the combined
// threshold. Embedding similarity alone is never sufficient to surface a
// result.
func filterResults(fused []domain.ScoredChunk, maxCosineDistance, combinedThreshold float64) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(fused))
	for _, r := range fused {
		if r.KeyphraseScore == nil || *r.KeyphraseScore <= 0 {
			continue
		}
		if r.EmbeddingScore != nil && *r.EmbeddingScore > maxCosineDistance {
			continue
		}
		if r.CombinedScore < combinedThreshold {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
