// Package chunking splits extracted PDF pages into retrievable chunks.
package chunking

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/raglab/docquery/internal/core/domain"
)

// ParagraphChunker splits page text on blank lines, merges short paragraphs
// up to MaxChars, tags chunk types, and tracks section headings so every
// chunk carries its structural context. Chunk ids are
// "{document_name}-{sequence}" with a document-wide sequence.
type ParagraphChunker struct {
	MaxChars int
}

func NewParagraphChunker(maxChars int) *ParagraphChunker {
	if maxChars <= 0 {
		maxChars = 1200
	}
	return &ParagraphChunker{MaxChars: maxChars}
}

func (c *ParagraphChunker) Chunk(doc *domain.Document, pages []domain.Page) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(pages)*2)
	seq := 0
	section := ""
	subsection := ""

	for _, page := range pages {
		paragraphs := splitParagraphs(page.Text)

		var buf []string
		var bufLen int
		flush := func() {
			if len(buf) == 0 {
				return
			}
			text := strings.Join(buf, "\n\n")
			out = append(out, domain.Chunk{
				ID:             fmt.Sprintf("%s-%d", doc.Name, seq),
				DocumentName:   doc.Name,
				PageNumber:     page.Number,
				SectionName:    section,
				SubsectionName: subsection,
				ChunkType:      classifyChunk(text),
				Text:           text,
			})
			seq++
			buf = buf[:0]
			bufLen = 0
		}

		for _, para := range paragraphs {
			if heading, level := detectHeading(para); heading != "" {
				flush()
				if level == 1 {
					section = heading
					subsection = ""
				} else {
					subsection = heading
				}
				continue
			}

			if bufLen > 0 && bufLen+len(para) > c.MaxChars {
				flush()
			}
			// A single oversized paragraph still becomes one chunk;
			// splitting mid-sentence loses more than it saves.
			buf = append(buf, para)
			bufLen += len(para)
		}
		flush()
	}
	return out
}

func splitParagraphs(text string) []string {
	blocks := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}

// detectHeading reports a short, terminal-punctuation-free line as a section
// heading. Numbered headings ("2.1 Calibration") count as subsections, as
// does any heading below an established section.
func detectHeading(para string) (string, int) {
	if strings.Contains(para, "\n") || len(para) > 80 {
		return "", 0
	}
	trimmed := strings.TrimSpace(para)
	if trimmed == "" || strings.ContainsAny(string(trimmed[len(trimmed)-1]), ".,:;!?") {
		return "", 0
	}

	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 10 {
		return "", 0
	}

	if isNumberedHeading(words[0]) {
		if strings.Count(words[0], ".") >= 1 {
			return trimmed, 2
		}
		return trimmed, 1
	}

	if isTitleCased(words) || isAllUpper(trimmed) {
		return trimmed, 1
	}
	return "", 0
}

func isNumberedHeading(token string) bool {
	token = strings.TrimSuffix(token, ".")
	if token == "" {
		return false
	}
	for _, part := range strings.Split(token, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

func isTitleCased(words []string) bool {
	capitalized := 0
	for _, w := range words {
		r := []rune(w)[0]
		if unicode.IsUpper(r) {
			capitalized++
		}
	}
	return capitalized >= (len(words)+1)/2 && unicode.IsUpper([]rune(words[0])[0])
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// classifyChunk tags content so downstream filtering can discriminate later.
func classifyChunk(text string) domain.ChunkType {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return domain.ChunkTypeText
	}

	bullets := 0
	tabular := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") ||
			strings.HasPrefix(trimmed, "•") || strings.HasPrefix(trimmed, "·") {
			bullets++
		}
		if strings.Contains(line, "\t") || strings.Contains(line, "  |") || strings.Count(line, "|") >= 2 {
			tabular++
		}
	}

	total := len(lines)
	switch {
	case bullets*2 > total:
		return domain.ChunkTypeBulletpoints
	case tabular*2 > total:
		return domain.ChunkTypeTable
	case total == 1 && hasCaptionPrefix(lines[0]):
		return domain.ChunkTypeImageCaption
	default:
		return domain.ChunkTypeText
	}
}

func hasCaptionPrefix(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(lower, "figure ") || strings.HasPrefix(lower, "fig.") ||
		strings.HasPrefix(lower, "image ") || strings.HasPrefix(lower, "photo ")
}
