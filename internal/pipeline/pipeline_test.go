package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/promptgate-ai/promptgate/internal/detect"
	"github.com/promptgate-ai/promptgate/internal/scanner"
	"github.com/promptgate-ai/promptgate/internal/vault"
)

type stubScanner struct {
	name  string
	valid bool
	score float64
	text  string // when non-empty, replaces the text
	err   error
}

func (s stubScanner) Name() string { return s.name }

func (s stubScanner) Scan(ctx context.Context, text, prior string) (scanner.Result, error) {
	if s.err != nil {
		return scanner.Result{}, s.err
	}
	out := text
	if s.text != "" {
		out = s.text
	}
	return scanner.Result{Text: out, Valid: s.valid, Score: s.score}, nil
}

func TestRunAllBlockOnAny(t *testing.T) {
	set := NewSet(Inbound,
		Step{Scanner: stubScanner{name: "first", valid: false, score: 0.9}},
		Step{Scanner: stubScanner{name: "second", valid: true, score: 0.1}},
		Step{Scanner: stubScanner{name: "third", valid: false, score: 0.8}},
	)
	r := NewRunner(set, nil)

	report := r.Run(context.Background(), Inbound, "text", "")

	if report.Verdict != VerdictBlock {
		t.Fatalf("expected block, got %s", report.Verdict)
	}
	if len(report.Triggered) != 2 || report.Triggered[0] != "first" || report.Triggered[1] != "third" {
		t.Fatalf("expected [first third], got %v", report.Triggered)
	}
	if len(report.Steps) != 3 {
		t.Fatalf("all scanners must run, got %d records", len(report.Steps))
	}
	if !report.Steps[1].Valid {
		t.Fatalf("second scanner's valid record must be preserved")
	}
}

func TestFailClosedOnScannerFault(t *testing.T) {
	set := NewSet(Inbound,
		Step{Scanner: stubScanner{name: "broken", err: errors.New("internal bug")}},
		Step{Scanner: stubScanner{name: "fine", valid: true}},
	)
	r := NewRunner(set, nil)

	report := r.Run(context.Background(), Inbound, "text", "")

	if report.Verdict != VerdictBlock {
		t.Fatalf("faulting scanner must fail closed, got %s", report.Verdict)
	}
	if len(report.Steps) != 2 {
		t.Fatalf("pipeline must continue past a fault, got %d records", len(report.Steps))
	}
	if !report.Steps[0].Faulted || report.Steps[0].Valid || report.Steps[0].Score != 1 {
		t.Fatalf("fault record wrong: %+v", report.Steps[0])
	}
	if report.Text != "text" {
		t.Fatalf("fault must not mutate text, got %q", report.Text)
	}
}

func TestMonitorModeNeverBlocks(t *testing.T) {
	set := NewSet(Outbound,
		Step{Scanner: stubScanner{name: "watcher", valid: false, score: 1}, Mode: scanner.ModeMonitor},
		Step{Scanner: stubScanner{name: "ok", valid: true}},
	)
	r := NewRunner(nil, set)

	report := r.Run(context.Background(), Outbound, "text", "")

	if report.Verdict != VerdictAllow {
		t.Fatalf("monitor scanner must not block, got %s", report.Verdict)
	}
	if len(report.Triggered) != 0 {
		t.Fatalf("monitor hits must not appear in Triggered: %v", report.Triggered)
	}
	if report.Steps[0].Valid {
		t.Fatalf("monitor verdict must still be recorded")
	}
}

func TestTextThreadsThroughScanners(t *testing.T) {
	set := NewSet(Inbound,
		Step{Scanner: stubScanner{name: "rewrite", valid: true, text: "rewritten"}},
		Step{Scanner: stubScanner{name: "pass", valid: true}},
	)
	r := NewRunner(set, nil)

	report := r.Run(context.Background(), Inbound, "original", "")
	if report.Text != "rewritten" {
		t.Fatalf("expected threaded text, got %q", report.Text)
	}
}

func TestMissingDirectionAllows(t *testing.T) {
	r := NewRunner(nil, nil)

	report := r.Run(context.Background(), Outbound, "anything", "")
	if report.Verdict != VerdictAllow || report.Text != "anything" {
		t.Fatalf("missing set must allow untouched, got %+v", report)
	}
}

// Sensitive scanning over raw placeholders and over de-anonymized text can
// disagree for the same response, which is why Deanonymize is ordered first
// on the outbound side.
func TestDeanonymizeOrderChangesSensitiveVerdict(t *testing.T) {
	bundle := detect.NewBundle(nil)
	v := vault.New()
	ctx := context.Background()

	prompt := "forward this to ops"
	anonRes, err := scanner.NewAnonymize(bundle, v).Scan(ctx, "my address is leak@corp.com", "")
	if err != nil {
		t.Fatalf("anonymize: %v", err)
	}
	placeholder := strings.TrimPrefix(anonRes.Text, "my address is ")
	response := "Sure, sending it to " + placeholder + " now."

	deanonFirst := NewSet(Outbound,
		Step{Scanner: scanner.NewDeanonymize(v)},
		Step{Scanner: scanner.NewSensitive(bundle)},
	)
	sensitiveFirst := NewSet(Outbound,
		Step{Scanner: scanner.NewSensitive(bundle)},
		Step{Scanner: scanner.NewDeanonymize(v)},
	)

	withDeanonFirst := NewRunner(nil, deanonFirst).Run(ctx, Outbound, response, prompt)
	withSensitiveFirst := NewRunner(nil, sensitiveFirst).Run(ctx, Outbound, response, prompt)

	if withDeanonFirst.Verdict == withSensitiveFirst.Verdict {
		t.Fatalf("expected order to change the verdict, both were %s", withDeanonFirst.Verdict)
	}
	if withDeanonFirst.Verdict != VerdictBlock {
		t.Fatalf("de-anonymized email not present in the prompt should read as a leak")
	}
}
