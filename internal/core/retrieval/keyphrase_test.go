package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raglab/docquery/internal/core/domain"
)

type chunkIndexFake struct {
	chunks []domain.Chunk
	err    error
}

func (f *chunkIndexFake) All(context.Context) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

func (f *chunkIndexFake) Resolve(_ context.Context, ids []string) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		for _, c := range f.chunks {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// wordSplitFake stands in for the content-word extractor: every
// space-separated token counts.
type wordSplitFake struct{}

func (wordSplitFake) Extract(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func TestKeyphraseRetrieveScoresByFrequencyDotProduct(t *testing.T) {
	index := &chunkIndexFake{chunks: []domain.Chunk{
		{ID: "doc-0", Keywords: []string{"sensor", "sensor", "calibration"}},
		{ID: "doc-1", Keywords: []string{"sensor"}},
		{ID: "doc-2", Keywords: []string{"pressure", "valve"}},
	}}
	strategy := NewKeyphraseStrategy(index, wordSplitFake{})

	out, err := strategy.Retrieve(context.Background(), "sensor sensor calibration", 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	// doc-0: 2*2 + 1*1 = 5, doc-1: 2*1 = 2, doc-2 has no overlap.
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(out), out)
	}
	if out[0].ChunkID != "doc-0" || *out[0].KeyphraseScore != 5 {
		t.Fatalf("expected doc-0 with score 5, got %s score %v", out[0].ChunkID, *out[0].KeyphraseScore)
	}
	if out[1].ChunkID != "doc-1" || *out[1].KeyphraseScore != 2 {
		t.Fatalf("expected doc-1 with score 2, got %s score %v", out[1].ChunkID, *out[1].KeyphraseScore)
	}
	if out[0].EmbeddingScore != nil {
		t.Fatalf("keyphrase strategy must not set embedding score")
	}
}

func TestKeyphraseRetrieveExcludesZeroScores(t *testing.T) {
	index := &chunkIndexFake{chunks: []domain.Chunk{
		{ID: "doc-0", Keywords: []string{"unrelated"}},
		{ID: "doc-1", Keywords: nil},
	}}
	strategy := NewKeyphraseStrategy(index, wordSplitFake{})

	out, err := strategy.Retrieve(context.Background(), "sensor", 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("zero-score chunks must be excluded entirely, got %+v", out)
	}
}

func TestKeyphraseRetrieveCapsAtTopK(t *testing.T) {
	chunks := make([]domain.Chunk, 0, 8)
	for _, id := range []string{"a-0", "a-1", "a-2", "a-3", "a-4", "a-5", "a-6", "a-7"} {
		chunks = append(chunks, domain.Chunk{ID: id, Keywords: []string{"sensor"}})
	}
	strategy := NewKeyphraseStrategy(&chunkIndexFake{chunks: chunks}, wordSplitFake{})

	out, err := strategy.Retrieve(context.Background(), "sensor", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected topK=3 results, got %d", len(out))
	}
	// Equal scores cut at the topK boundary by chunk id ascending.
	if out[0].ChunkID != "a-0" || out[1].ChunkID != "a-1" || out[2].ChunkID != "a-2" {
		t.Fatalf("expected deterministic id-ordered head, got %+v", out)
	}
}

func TestKeyphraseRetrieveEmptyQueryWords(t *testing.T) {
	index := &chunkIndexFake{chunks: []domain.Chunk{{ID: "doc-0", Keywords: []string{"sensor"}}}}
	strategy := NewKeyphraseStrategy(index, wordSplitFake{})

	out, err := strategy.Retrieve(context.Background(), "   ", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no results for contentless query, got %+v", out)
	}
}

func TestKeyphraseRetrievePropagatesIndexError(t *testing.T) {
	strategy := NewKeyphraseStrategy(&chunkIndexFake{err: errors.New("index down")}, wordSplitFake{})

	_, err := strategy.Retrieve(context.Background(), "sensor", 5)
	if err == nil {
		t.Fatalf("expected error")
	}
}
