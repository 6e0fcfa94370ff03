package vault

import (
	"fmt"
	"sync"
	"testing"
)

func TestReserveResolveRoundTrip(t *testing.T) {
	v := New()

	ph := v.Reserve("email", "a@b.com", "")
	if ph != "[REDACTED_EMAIL_1]" {
		t.Fatalf("unexpected placeholder %q", ph)
	}

	got, ok := v.Resolve(ph)
	if !ok {
		t.Fatalf("expected placeholder to resolve")
	}
	if got != "a@b.com" {
		t.Fatalf("expected a@b.com, got %q", got)
	}
}

func TestReserveIsStablePerSession(t *testing.T) {
	v := New()

	first := v.Reserve("email", "a@b.com", "")
	second := v.Reserve("email", "a@b.com", "")
	if first != second {
		t.Fatalf("same value produced different placeholders: %q vs %q", first, second)
	}

	other := v.Reserve("email", "c@d.com", "")
	if other == first {
		t.Fatalf("distinct values share placeholder %q", other)
	}
	if v.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", v.Len())
	}
}

func TestReserveSkipsPlaceholdersPresentInSource(t *testing.T) {
	v := New()

	source := "The tag [REDACTED_EMAIL_1] is sample text; my email is a@b.com"
	ph := v.Reserve("email", "a@b.com", source)
	if ph == "[REDACTED_EMAIL_1]" {
		t.Fatalf("placeholder %q collides with literal text in the source", ph)
	}
	if ph != "[REDACTED_EMAIL_2]" {
		t.Fatalf("expected counter to skip past the literal, got %q", ph)
	}

	// The literal occupant must never resolve; only the issued placeholder.
	if _, ok := v.Resolve("[REDACTED_EMAIL_1]"); ok {
		t.Fatalf("literal text resolved as a redaction")
	}
	if got, ok := v.Resolve(ph); !ok || got != "a@b.com" {
		t.Fatalf("issued placeholder did not resolve: %q %v", got, ok)
	}
}

func TestResolveUnknownPlaceholder(t *testing.T) {
	v := New()

	if _, ok := v.Resolve("[REDACTED_EMAIL_99]"); ok {
		t.Fatalf("unknown placeholder should not resolve")
	}
}

func TestClear(t *testing.T) {
	v := New()
	ph := v.Reserve("phone", "+40 721 000 000", "")

	v.Clear()

	if v.Len() != 0 {
		t.Fatalf("expected empty vault after clear, got %d entries", v.Len())
	}
	if _, ok := v.Resolve(ph); ok {
		t.Fatalf("placeholder survived clear")
	}
}

func TestConcurrentReserveUniqueness(t *testing.T) {
	v := New()

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	results := make(chan string, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				results <- v.Reserve("id", fmt.Sprintf("value-%d-%d", w, i), "")
			}
		}(w)
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{})
	for ph := range results {
		if _, dup := seen[ph]; dup {
			t.Fatalf("placeholder %q issued twice", ph)
		}
		seen[ph] = struct{}{}
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d placeholders, got %d", workers*perWorker, len(seen))
	}
}
