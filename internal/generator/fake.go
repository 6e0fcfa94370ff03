package generator

import (
	"context"
	"sync"
)

// Fake is a canned generator for tests. It records every prompt it receives.
type Fake struct {
	ResponseText string
	Err          error
	NotReady     bool

	mu      sync.Mutex
	prompts []string
}

// NewFake returns a fake that always answers with response.
func NewFake(response string) *Fake {
	return &Fake{ResponseText: response}
}

func (f *Fake) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.Err != nil {
		return "", f.Err
	}
	return f.ResponseText, nil
}

func (f *Fake) Ready() bool {
	return !f.NotReady
}

// Prompts returns a copy of every prompt seen so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// CallCount reports how many completions were requested.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
