package scanner

import (
	"context"
	"strings"

	"github.com/promptgate-ai/promptgate/internal/detect"
	"github.com/promptgate-ai/promptgate/internal/vault"
)

// Anonymize replaces detected sensitive spans with vault placeholders so the
// generation engine never sees the raw values. Always valid; the score is the
// fraction of the text that was redacted.
type Anonymize struct {
	bundle *detect.Bundle
	vault  *vault.Vault
}

func NewAnonymize(bundle *detect.Bundle, v *vault.Vault) *Anonymize {
	return &Anonymize{bundle: bundle, vault: v}
}

func (a *Anonymize) Name() string { return "Anonymize" }

func (a *Anonymize) Scan(ctx context.Context, text, prior string) (Result, error) {
	spans := a.bundle.FindSensitiveSpans(text)
	if len(spans) == 0 {
		return Result{Text: text, Valid: true, Score: 0}, nil
	}

	var out strings.Builder
	out.Grow(len(text))

	last := 0
	redacted := 0
	for _, s := range spans {
		out.WriteString(text[last:s.Start])
		out.WriteString(a.vault.Reserve(s.Type, s.Value(text), text))
		redacted += s.End - s.Start
		last = s.End
	}
	out.WriteString(text[last:])

	score := 0.0
	if len(text) > 0 {
		score = clampScore(float64(redacted) / float64(len(text)))
	}
	return Result{Text: out.String(), Valid: true, Score: score}, nil
}
