package scanner

import (
	"context"

	"github.com/promptgate-ai/promptgate/internal/detect"
)

// Toxicity scores hostile or abusive language and blocks at the configured
// threshold. Lexicon accumulation by default, ML score when available.
type Toxicity struct {
	bundle    *detect.Bundle
	ml        LabelScorer
	threshold float64
}

func NewToxicity(bundle *detect.Bundle, ml LabelScorer, threshold float64) *Toxicity {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.7
	}
	return &Toxicity{bundle: bundle, ml: ml, threshold: threshold}
}

func (t *Toxicity) Name() string { return "Toxicity" }

func (t *Toxicity) Scan(ctx context.Context, text, prior string) (Result, error) {
	score := t.bundle.ToxicityScore(text)
	if t.ml != nil {
		if s, ok := t.ml.LabelScore(ctx, text, "toxicity"); ok && s > score {
			score = s
		}
	}
	return Result{Text: text, Valid: score < t.threshold, Score: clampScore(score)}, nil
}
