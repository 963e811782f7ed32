package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RAG_ALPHA", "")
	t.Setenv("RAG_MAX_COSINE_DISTANCE", "")
	t.Setenv("RAG_COMBINED_THRESHOLD", "")

	cfg := Load()
	if cfg.RAGTopK != 7 {
		t.Fatalf("expected default top k 7, got %d", cfg.RAGTopK)
	}
	if cfg.RAGAlpha != 0.5 {
		t.Fatalf("expected default alpha 0.5, got %v", cfg.RAGAlpha)
	}
	if cfg.RAGMaxCosineDistance != 1.6 {
		t.Fatalf("expected default cosine distance cutoff 1.6, got %v", cfg.RAGMaxCosineDistance)
	}
	if cfg.RAGCombinedThreshold != 0.4 {
		t.Fatalf("expected default combined threshold 0.4, got %v", cfg.RAGCombinedThreshold)
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "12")
	t.Setenv("RAG_ALPHA", "0.7")
	t.Setenv("RAG_MAX_COSINE_DISTANCE", "1.2")
	t.Setenv("RAG_COMBINED_THRESHOLD", "0.55")

	cfg := Load()
	if cfg.RAGTopK != 12 {
		t.Fatalf("expected top k 12, got %d", cfg.RAGTopK)
	}
	if cfg.RAGAlpha != 0.7 {
		t.Fatalf("expected alpha 0.7, got %v", cfg.RAGAlpha)
	}
	if cfg.RAGMaxCosineDistance != 1.2 {
		t.Fatalf("expected cosine distance cutoff 1.2, got %v", cfg.RAGMaxCosineDistance)
	}
	if cfg.RAGCombinedThreshold != 0.55 {
		t.Fatalf("expected combined threshold 0.55, got %v", cfg.RAGCombinedThreshold)
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("RAG_ALPHA", "not-a-number")
	t.Setenv("QUERY_EXPANSION_MIN_WORDS", "abc")

	cfg := Load()
	if cfg.RAGAlpha != 0.5 {
		t.Fatalf("expected fallback alpha 0.5, got %v", cfg.RAGAlpha)
	}
	if cfg.ExpansionMinWords != 10 {
		t.Fatalf("expected fallback expansion min words 10, got %d", cfg.ExpansionMinWords)
	}
}

func TestLoadExpansionDefaults(t *testing.T) {
	t.Setenv("QUERY_EXPANSION_ENABLED", "")
	t.Setenv("QUERY_EXPANSION_MIN_WORDS", "")
	t.Setenv("QUERY_EXPANSION_MAX_WORDS", "")

	cfg := Load()
	if !cfg.ExpansionEnabled {
		t.Fatalf("expected expansion enabled by default")
	}
	if cfg.ExpansionMinWords != 10 || cfg.ExpansionMaxWords != 50 {
		t.Fatalf("unexpected expansion bounds: %d..%d", cfg.ExpansionMinWords, cfg.ExpansionMaxWords)
	}
}
