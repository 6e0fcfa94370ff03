package scanner

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// Relevance scores semantic overlap between the response and the original
// prompt (passed as prior) and blocks when similarity falls under the
// threshold. Cosine over stopword-filtered term frequencies; an embedding
// provider could replace this without changing the contract.
type Relevance struct {
	threshold float64
}

func NewRelevance(threshold float64) *Relevance {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	return &Relevance{threshold: threshold}
}

func (r *Relevance) Name() string { return "Relevance" }

func (r *Relevance) Scan(ctx context.Context, text, prior string) (Result, error) {
	if strings.TrimSpace(prior) == "" {
		// Nothing to compare against; do not block on missing context.
		return Result{Text: text, Valid: true, Score: 0}, nil
	}

	sim := cosineSimilarity(termFreq(prior), termFreq(text))
	return Result{
		Text:  text,
		Valid: sim >= r.threshold,
		Score: clampScore(1 - sim),
	}, nil
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "what": {}, "with": {}, "you": {}, "your": {},
}

func termFreq(text string) map[string]float64 {
	freq := make(map[string]float64)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		freq[w]++
	}
	return freq
}

func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, fa := range a {
		normA += fa * fa
		if fb, ok := b[term]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
