package scanner

import (
	"context"
	"strings"

	"github.com/promptgate-ai/promptgate/internal/detect"
)

// Sensitive flags sensitive data appearing in the output that the caller
// never supplied: a value that was present in the original prompt (passed as
// prior) is the caller's own data, everything else is a leak.
type Sensitive struct {
	bundle *detect.Bundle
}

func NewSensitive(bundle *detect.Bundle) *Sensitive {
	return &Sensitive{bundle: bundle}
}

func (s *Sensitive) Name() string { return "Sensitive" }

func (s *Sensitive) Scan(ctx context.Context, text, prior string) (Result, error) {
	spans := s.bundle.FindSensitiveSpans(text)
	if len(spans) == 0 {
		return Result{Text: text, Valid: true, Score: 0}, nil
	}

	leaks := 0
	for _, sp := range spans {
		value := sp.Value(text)
		if value == "" {
			continue
		}
		if prior != "" && strings.Contains(prior, value) {
			continue
		}
		leaks++
	}

	if leaks == 0 {
		return Result{Text: text, Valid: true, Score: 0}, nil
	}
	return Result{
		Text:  text,
		Valid: false,
		Score: clampScore(0.5 + 0.25*float64(leaks-1)),
	}, nil
}
