// Package scanner defines the unit-of-work contract for text inspection and
// the built-in scanners that implement it. A scanner sees the output of the
// previous scanner in its set, may transform it, and reports a validity
// verdict plus a risk score in [0,1].
package scanner

import "context"

// Result is one scanner's verdict over a piece of text.
type Result struct {
	// Text is the possibly transformed text to hand to the next scanner.
	Text string
	// Valid is false when the scanner wants the pipeline to block.
	Valid bool
	// Score is the scanner's risk estimate in [0,1].
	Score float64
}

// Scanner inspects and optionally transforms text.
//
// prior carries the original pre-scan prompt on the outbound side so
// relevance and leak checks can compare against what the caller actually
// asked; it is empty inbound. A returned error is an internal fault: the
// pipeline runner records it fail-closed and keeps going.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, text, prior string) (Result, error)
}

// Mode decides whether an invalid verdict blocks the pipeline or is only
// recorded for diagnostics.
type Mode string

const (
	ModeBlock   Mode = "block"
	ModeMonitor Mode = "monitor"
)

// LabelScorer is the optional ML capability behind the heuristic scanners.
// The second return is false when the provider has no score for the label.
type LabelScorer interface {
	LabelScore(ctx context.Context, text, label string) (float64, bool)
}

// TokenCounter counts tokens the way the target model's tokenizer would.
type TokenCounter interface {
	CountTokens(text string) int
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
