// Package keywords extracts content words from text: alphabetic tokens,
// lower-cased, function words removed, reduced to a crude lemma. The same
// extractor runs at ingestion time (per chunk) and at query time, so both
// sides of the frequency match share one vocabulary.
package keywords

import (
	"strings"
	"unicode"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns lower-cased lemmas of content words in text order,
// duplicates included.
func (e *Extractor) Extract(text string) []string {
	tokens := tokenizeAlpha(text)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) < 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		out = append(out, lemma(token))
	}
	return out
}

// tokenizeAlpha splits on any non-letter rune and lower-cases. Digits are
// excluded on purpose: only alphabetic tokens carry keyphrase signal.
func tokenizeAlpha(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// lemma strips common noun plural endings. Content words surviving the
// stopword filter are mostly nouns and adjectives, so singularization covers
// the bulk of inflection without a full tagger.
func lemma(token string) string {
	switch {
	case len(token) > 4 && strings.HasSuffix(token, "ies"):
		return token[:len(token)-3] + "y"
	case len(token) > 4 && (strings.HasSuffix(token, "sses") ||
		strings.HasSuffix(token, "shes") ||
		strings.HasSuffix(token, "ches") ||
		strings.HasSuffix(token, "xes") ||
		strings.HasSuffix(token, "zes")):
		return token[:len(token)-2]
	case len(token) > 3 && strings.HasSuffix(token, "s") &&
		!strings.HasSuffix(token, "ss") &&
		!strings.HasSuffix(token, "us") &&
		!strings.HasSuffix(token, "is"):
		return token[:len(token)-1]
	default:
		return token
	}
}

// Function words: pronouns, determiners, prepositions, conjunctions,
// auxiliaries, common adverbs. Approximates keeping only NOUN/PROPN/ADJ.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "us": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "him": {}, "his": {}, "she": {}, "her": {}, "it": {}, "its": {},
	"they": {}, "them": {}, "their": {}, "who": {}, "whom": {}, "whose": {},
	"what": {}, "which": {}, "where": {}, "when": {}, "why": {}, "how": {},
	"and": {}, "or": {}, "but": {}, "nor": {}, "so": {}, "yet": {}, "if": {},
	"because": {}, "although": {}, "while": {}, "whereas": {}, "unless": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "from": {}, "by": {},
	"with": {}, "without": {}, "about": {}, "against": {}, "between": {},
	"into": {}, "through": {}, "during": {}, "before": {}, "after": {},
	"above": {}, "below": {}, "under": {}, "over": {}, "up": {}, "down": {},
	"out": {}, "off": {}, "for": {}, "as": {}, "per": {}, "via": {},
	"is": {}, "am": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "do": {}, "does": {}, "did": {}, "have": {}, "has": {}, "had": {},
	"will": {}, "would": {}, "shall": {}, "should": {}, "can": {}, "could": {},
	"may": {}, "might": {}, "must": {}, "not": {}, "no": {}, "only": {},
	"also": {}, "very": {}, "just": {}, "than": {}, "then": {}, "there": {},
	"here": {}, "all": {}, "any": {}, "each": {}, "both": {}, "some": {},
	"such": {}, "other": {}, "more": {}, "most": {}, "own": {}, "same": {},
	"too": {}, "again": {}, "further": {}, "once": {}, "ever": {}, "never": {},
}
