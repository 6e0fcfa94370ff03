// Package audit records one event per gateway request: what each direction
// decided, which scanners fired, and how long the phases took. Events leave
// the request path through an async emitter so a slow sink never slows a
// chat.
package audit

import (
	"time"

	"github.com/promptgate-ai/promptgate/internal/pipeline"
	"github.com/promptgate-ai/promptgate/internal/redact"
)

// Decision is the request outcome from the gateway's perspective.
type Decision string

const (
	DecisionAllow           Decision = "allow"
	DecisionBlockedInbound  Decision = "blocked_inbound"
	DecisionBlockedOutbound Decision = "blocked_outbound"
	DecisionErrorGenerator  Decision = "error_generator"
)

// Level controls how much of the request content an event carries.
type Level string

const (
	LevelOff      Level = "off"
	LevelMetadata Level = "metadata"
	LevelFull     Level = "full"
)

// DirectionRecord summarizes one pipeline run.
type DirectionRecord struct {
	Verdict   pipeline.Verdict      `json:"verdict"`
	Triggered []string              `json:"triggered,omitempty"`
	Steps     []pipeline.StepRecord `json:"steps,omitempty"`
	LatencyMs float64               `json:"latency_ms"`
}

// Event is one fully scanned (or blocked, or failed) request.
type Event struct {
	RequestID    string           `json:"request_id"`
	Timestamp    time.Time        `json:"timestamp"`
	Decision     Decision         `json:"decision"`
	Inbound      *DirectionRecord `json:"inbound,omitempty"`
	Outbound     *DirectionRecord `json:"outbound,omitempty"`
	GenLatencyMs float64          `json:"generation_latency_ms,omitempty"`
	// Previews are scrubbed before they get here and only present at
	// level full.
	PromptPreview   string `json:"prompt_preview,omitempty"`
	ResponsePreview string `json:"response_preview,omitempty"`
	Unprotected     bool   `json:"unprotected,omitempty"`
}

// NewDirectionRecord converts a pipeline report for the event payload.
func NewDirectionRecord(report pipeline.Report, latency time.Duration, level Level) *DirectionRecord {
	rec := &DirectionRecord{
		Verdict:   report.Verdict,
		Triggered: append([]string(nil), report.Triggered...),
		LatencyMs: float64(latency.Microseconds()) / 1000.0,
	}
	if level == LevelFull || level == LevelMetadata {
		rec.Steps = append([]pipeline.StepRecord(nil), report.Steps...)
	}
	return rec
}

// Preview scrubs and truncates request content for level-full events.
func Preview(text string) string {
	return redact.Evidence(text)
}

// ParseLevel normalizes a configured audit level; unknown values fall back
// to metadata.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelOff, LevelMetadata, LevelFull:
		return Level(s)
	default:
		return LevelMetadata
	}
}
