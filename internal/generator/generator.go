// Package generator is the narrow contract to the external text-completion
// engine. The gateway only ever sees this interface; the engine behind it
// (llama.cpp server, an OpenAI-compatible endpoint, a test fake) is a black
// box.
package generator

import (
	"context"
	"errors"
)

// ErrUnavailable is the root of every generation failure surfaced to the
// gateway. Callers match it with errors.Is and show a generic message.
var ErrUnavailable = errors.New("generator unavailable")

// Generator produces a completion for a sanitized prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)

	// Ready reports whether the engine can currently serve completions.
	Ready() bool
}
