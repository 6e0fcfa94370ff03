package scanner

import (
	"context"

	"github.com/promptgate-ai/promptgate/internal/detect"
)

// PromptInjection flags attempts to override system instructions. The
// heuristic bundle gives a binary signal; a LabelScorer, when present,
// contributes a graded confidence and the higher of the two wins.
type PromptInjection struct {
	bundle    *detect.Bundle
	ml        LabelScorer
	threshold float64
}

func NewPromptInjection(bundle *detect.Bundle, ml LabelScorer, threshold float64) *PromptInjection {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.9
	}
	return &PromptInjection{bundle: bundle, ml: ml, threshold: threshold}
}

func (p *PromptInjection) Name() string { return "PromptInjection" }

func (p *PromptInjection) Scan(ctx context.Context, text, prior string) (Result, error) {
	score := p.bundle.InjectionScore(text)
	if p.ml != nil {
		if s, ok := p.ml.LabelScore(ctx, text, "prompt_injection"); ok && s > score {
			score = s
		}
	}
	return Result{Text: text, Valid: score < p.threshold, Score: clampScore(score)}, nil
}
