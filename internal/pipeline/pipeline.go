// Package pipeline executes an ordered scanner set over text and folds the
// per-scanner verdicts into one allow/block decision per direction.
package pipeline

import (
	"context"

	"github.com/promptgate-ai/promptgate/internal/redact"
	"github.com/promptgate-ai/promptgate/internal/scanner"
)

// Direction tags a scanner set as inbound (user -> model) or outbound
// (model -> user).
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// Verdict is the aggregate decision for one direction.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictBlock Verdict = "block"
)

// Step pairs a scanner with its mode. Monitor steps record their verdicts
// but never flip the aggregate to block.
type Step struct {
	Scanner scanner.Scanner
	Mode    scanner.Mode
}

// Set is an ordered scanner sequence for one direction. Order is load-bearing:
// Anonymize must precede scanners that reject on content it redacts, and
// Deanonymize must precede the outbound relevance and leak checks.
type Set struct {
	Direction Direction
	Steps     []Step
}

// NewSet builds a set. Steps with a nil scanner are dropped; an empty mode
// defaults to block.
func NewSet(direction Direction, steps ...Step) *Set {
	kept := make([]Step, 0, len(steps))
	for _, s := range steps {
		if s.Scanner == nil {
			continue
		}
		if s.Mode == "" {
			s.Mode = scanner.ModeBlock
		}
		kept = append(kept, s)
	}
	return &Set{Direction: direction, Steps: kept}
}

// StepRecord is one scanner's contribution to a report.
type StepRecord struct {
	Scanner string       `json:"scanner"`
	Valid   bool         `json:"valid"`
	Score   float64      `json:"score"`
	Mode    scanner.Mode `json:"mode"`
	Faulted bool         `json:"faulted,omitempty"`
}

// Report is the aggregate result of one pipeline run.
type Report struct {
	Direction Direction    `json:"direction"`
	Text      string       `json:"-"`
	Verdict   Verdict      `json:"verdict"`
	// Triggered lists, in scan order, the block-mode scanners that went
	// invalid. Empty on allow.
	Triggered []string     `json:"triggered,omitempty"`
	Steps     []StepRecord `json:"steps"`
}

// Runner executes scanner sets. One runner serves all requests; it holds no
// per-request state.
type Runner struct {
	sets map[Direction]*Set
}

// NewRunner wires the two directional sets. Either may be nil, in which case
// Run for that direction allows everything untouched.
func NewRunner(inbound, outbound *Set) *Runner {
	sets := make(map[Direction]*Set, 2)
	if inbound != nil {
		sets[Inbound] = inbound
	}
	if outbound != nil {
		sets[Outbound] = outbound
	}
	return &Runner{sets: sets}
}

// Run pushes text through the set for the given direction. Every scanner
// runs even after an invalid verdict, so diagnostics show the full picture.
// A scanner that errors is recorded fail-closed (invalid, score 1) and the
// run continues: one scanner's bug neither kills the pipeline nor lets
// unscanned content through.
func (r *Runner) Run(ctx context.Context, direction Direction, text, prior string) Report {
	report := Report{
		Direction: direction,
		Text:      text,
		Verdict:   VerdictAllow,
	}

	set, ok := r.sets[direction]
	if !ok {
		return report
	}

	current := text
	for _, step := range set.Steps {
		name := step.Scanner.Name()

		res, err := step.Scanner.Scan(ctx, current, prior)
		if err != nil {
			redact.Logf("scanner %s faulted (%s): %v", name, direction, err)
			report.Steps = append(report.Steps, StepRecord{
				Scanner: name,
				Valid:   false,
				Score:   1,
				Mode:    step.Mode,
				Faulted: true,
			})
			if step.Mode == scanner.ModeBlock {
				report.Verdict = VerdictBlock
				report.Triggered = append(report.Triggered, name)
			}
			continue
		}

		current = res.Text
		report.Steps = append(report.Steps, StepRecord{
			Scanner: name,
			Valid:   res.Valid,
			Score:   res.Score,
			Mode:    step.Mode,
		})
		if !res.Valid && step.Mode == scanner.ModeBlock {
			report.Verdict = VerdictBlock
			report.Triggered = append(report.Triggered, name)
		}
	}

	report.Text = current
	return report
}
