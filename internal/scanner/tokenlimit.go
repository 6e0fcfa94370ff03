package scanner

import (
	"context"
	"strings"
)

// TokenLimit rejects text whose token count exceeds the configured limit.
// When no model tokenizer is available it falls back to a conservative
// approximation (whichever is larger of the word count and len/4).
type TokenLimit struct {
	limit   int
	counter TokenCounter
}

func NewTokenLimit(limit int, counter TokenCounter) *TokenLimit {
	if limit <= 0 {
		limit = 2048
	}
	return &TokenLimit{limit: limit, counter: counter}
}

func (t *TokenLimit) Name() string { return "TokenLimit" }

func (t *TokenLimit) Scan(ctx context.Context, text, prior string) (Result, error) {
	count := t.count(text)
	return Result{
		Text:  text,
		Valid: count <= t.limit,
		Score: clampScore(float64(count) / float64(t.limit)),
	}, nil
}

func (t *TokenLimit) count(text string) int {
	if t.counter != nil {
		return t.counter.CountTokens(text)
	}
	words := len(strings.Fields(text))
	if chars := len(text) / 4; chars > words {
		return chars
	}
	return words
}
