package ollama

import (
	"fmt"
	"strings"

	"github.com/raglab/docquery/internal/core/domain"
)

func buildAnswerPrompt(question string, chunks []domain.RetrievedChunk) string {
	var contextBuilder strings.Builder
	for idx, retrieved := range chunks {
		label := retrieved.Chunk.DocumentName
		if retrieved.Chunk.SectionName != "" {
			label += " / " + retrieved.Chunk.SectionName
		}
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] source=%s page=%d score=%.3f\n%s\n\n",
			idx+1,
			label,
			retrieved.Chunk.PageNumber,
			retrieved.Score,
			retrieved.Chunk.Text,
		))
	}

	return fmt.Sprintf(`Answer user question only from context below.
Cite sources by their [n] labels where relevant.
If context is insufficient, say it directly.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}
