package scanner

import (
	"context"
	"strings"
)

// BanSubstrings does a plain containment check against a banned-term list.
// It never modifies the text; whether an invalid verdict actually blocks is
// the pipeline's mode decision.
type BanSubstrings struct {
	substrings    []string
	caseSensitive bool
}

func NewBanSubstrings(substrings []string, caseSensitive bool) *BanSubstrings {
	cleaned := make([]string, 0, len(substrings))
	for _, s := range substrings {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return &BanSubstrings{substrings: cleaned, caseSensitive: caseSensitive}
}

func (b *BanSubstrings) Name() string { return "BanSubstrings" }

func (b *BanSubstrings) Scan(ctx context.Context, text, prior string) (Result, error) {
	if len(b.substrings) == 0 {
		return Result{Text: text, Valid: true, Score: 0}, nil
	}

	haystack := text
	if !b.caseSensitive {
		haystack = strings.ToLower(text)
	}

	matched := 0
	for _, s := range b.substrings {
		needle := s
		if !b.caseSensitive {
			needle = strings.ToLower(s)
		}
		if strings.Contains(haystack, needle) {
			matched++
		}
	}

	return Result{
		Text:  text,
		Valid: matched == 0,
		Score: clampScore(float64(matched) / float64(len(b.substrings))),
	}, nil
}
