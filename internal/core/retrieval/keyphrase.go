package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/raglab/docquery/internal/core/domain"
	"github.com/raglab/docquery/internal/core/ports"
)

// KeyphraseStrategy retrieves by lexical overlap of content words between the
// query and chunk keywords, weighted by frequency on both sides. It populates
// only the keyphrase score (higher = more relevant) and never returns chunks
// scoring zero.
type KeyphraseStrategy struct {
	chunks    ports.ChunkIndex
	extractor ports.KeywordExtractor
}

func NewKeyphraseStrategy(chunks ports.ChunkIndex, extractor ports.KeywordExtractor) *KeyphraseStrategy {
	return &KeyphraseStrategy{
		chunks:    chunks,
		extractor: extractor,
	}
}

func (s *KeyphraseStrategy) Name() string { return "keyphrase" }

func (s *KeyphraseStrategy) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	queryFreq := countFrequencies(s.extractor.Extract(query))
	if len(queryFreq) == 0 {
		return nil, nil
	}

	chunks, err := s.chunks.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score := frequencyScore(queryFreq, chunk.Keywords)
		if score <= 0 {
			continue
		}
		kp := score
		scored = append(scored, domain.ScoredChunk{
			ChunkID:        chunk.ID,
			KeyphraseScore: &kp,
		})
	}

	// Equal scores order by chunk id ascending; iteration order of the
	// backing index must not leak into results.
	sort.Slice(scored, func(i, j int) bool {
		if *scored[i].KeyphraseScore != *scored[j].KeyphraseScore {
			return *scored[i].KeyphraseScore > *scored[j].KeyphraseScore
		}
		return scored[i].ChunkID < scored[j].ChunkID
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func countFrequencies(words []string) map[string]int {
	if len(words) == 0 {
		return nil
	}
	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}
	return freq
}

// frequencyScore is the dot product of the query and chunk word frequency
// vectors restricted to their intersection.
func frequencyScore(queryFreq map[string]int, chunkWords []string) float64 {
	if len(chunkWords) == 0 {
		return 0
	}
	chunkFreq := make(map[string]int, len(chunkWords))
	for _, w := range chunkWords {
		chunkFreq[w]++
	}

	score := 0
	for word, qf := range queryFreq {
		if cf, ok := chunkFreq[word]; ok {
			score += qf * cf
		}
	}
	return float64(score)
}
