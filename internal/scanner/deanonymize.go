package scanner

import (
	"context"
	"regexp"

	"github.com/promptgate-ai/promptgate/internal/vault"
)

var placeholderRe = regexp.MustCompile(`\[REDACTED_[A-Z0-9_]+_\d+\]`)

// Deanonymize restores vault placeholders echoed by the model back to their
// original values. Always valid; an unknown placeholder is left verbatim and
// surfaces as a non-zero score so the miss is visible in diagnostics.
type Deanonymize struct {
	vault *vault.Vault
}

func NewDeanonymize(v *vault.Vault) *Deanonymize {
	return &Deanonymize{vault: v}
}

func (d *Deanonymize) Name() string { return "Deanonymize" }

func (d *Deanonymize) Scan(ctx context.Context, text, prior string) (Result, error) {
	total := 0
	missed := 0

	out := placeholderRe.ReplaceAllStringFunc(text, func(ph string) string {
		total++
		if original, ok := d.vault.Resolve(ph); ok {
			return original
		}
		missed++
		return ph
	})

	score := 0.0
	if total > 0 {
		score = float64(missed) / float64(total)
	}
	return Result{Text: out, Valid: true, Score: score}, nil
}
