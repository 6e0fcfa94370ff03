package scanner

import (
	"context"

	"github.com/promptgate-ai/promptgate/internal/detect"
)

// NoRefusal flags canned refusal patterns in the model output. A quality
// gate rather than a security one, but it rides the same contract.
type NoRefusal struct {
	bundle *detect.Bundle
}

func NewNoRefusal(bundle *detect.Bundle) *NoRefusal {
	return &NoRefusal{bundle: bundle}
}

func (n *NoRefusal) Name() string { return "NoRefusal" }

func (n *NoRefusal) Scan(ctx context.Context, text, prior string) (Result, error) {
	if n.bundle.RefusalMatch(text) {
		return Result{Text: text, Valid: false, Score: 1}, nil
	}
	return Result{Text: text, Valid: true, Score: 0}, nil
}
