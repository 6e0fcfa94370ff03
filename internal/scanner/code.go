package scanner

import (
	"context"

	"github.com/promptgate-ai/promptgate/internal/detect"
)

// Code detects code blocks in the configured languages. Monitor-only in the
// default configuration: the verdict goes invalid on detection but the
// pipeline mode decides whether that blocks.
type Code struct {
	bundle    *detect.Bundle
	languages []string
}

func NewCode(bundle *detect.Bundle, languages []string) *Code {
	return &Code{bundle: bundle, languages: languages}
}

func (c *Code) Name() string { return "Code" }

func (c *Code) Scan(ctx context.Context, text, prior string) (Result, error) {
	if len(c.languages) == 0 {
		return Result{Text: text, Valid: true, Score: 0}, nil
	}

	found := c.bundle.DetectCode(text, c.languages)
	if len(found) == 0 {
		return Result{Text: text, Valid: true, Score: 0}, nil
	}
	return Result{
		Text:  text,
		Valid: false,
		Score: clampScore(0.5 * float64(len(found))),
	}, nil
}
