// Package gateway mediates every exchange between a caller and the text
// generator: prompts are scanned before generation, responses are scanned
// before delivery, and either direction can veto the exchange.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promptgate-ai/promptgate/internal/audit"
	"github.com/promptgate-ai/promptgate/internal/config"
	"github.com/promptgate-ai/promptgate/internal/detect"
	"github.com/promptgate-ai/promptgate/internal/generator"
	"github.com/promptgate-ai/promptgate/internal/guardml"
	"github.com/promptgate-ai/promptgate/internal/pipeline"
	"github.com/promptgate-ai/promptgate/internal/redact"
	"github.com/promptgate-ai/promptgate/internal/scanner"
	"github.com/promptgate-ai/promptgate/internal/telemetry"
	"github.com/promptgate-ai/promptgate/internal/vault"
)

// Stage names the phase at which a request was decided.
const (
	StageInbound    = "inbound"
	StageGeneration = "generation"
	StageOutbound   = "outbound"
	StageDelivered  = "delivered"
)

// BlockedPromptMessage replaces the response when the prompt is rejected.
const BlockedPromptMessage = "Your message was blocked by the content security policy."

// BlockedResponseMessage replaces the response when the model output is
// rejected.
const BlockedResponseMessage = "The generated response was blocked by the content security policy."

// Reply is the outcome of one mediated exchange.
type Reply struct {
	RequestID string   `json:"request_id"`
	Text      string   `json:"text"`
	Blocked   bool     `json:"blocked"`
	Stage     string   `json:"stage"`
	Triggered []string `json:"triggered,omitempty"`
}

// Options carries the ambient collaborators. Zero value disables both.
type Options struct {
	Audit     audit.Emitter
	Telemetry *telemetry.Provider
}

// Gateway owns the scanner pipelines, the placeholder vault, and the
// generator client for one session.
type Gateway struct {
	cfg       *config.Config
	gen       generator.Generator
	vault     *vault.Vault
	runner    *pipeline.Runner
	ml        *guardml.Model
	emitter   audit.Emitter
	tel       *telemetry.Provider
	level     audit.Level
	protected bool
}

// New builds the gateway from validated configuration. If the scanner
// pipelines cannot be constructed the gateway still comes up, but in
// unprotected mode: prompts pass straight to the generator and the condition
// is loudly logged and visible on Status.
func New(cfg *config.Config, gen generator.Generator, opts Options) *Gateway {
	g := &Gateway{
		cfg:     cfg,
		gen:     gen,
		vault:   vault.New(),
		emitter: opts.Audit,
		tel:     opts.Telemetry,
		level:   audit.ParseLevel(cfg.Audit.Level),
	}
	if g.emitter == nil {
		g.emitter = audit.Nop()
	}

	if cfg.ML.BundleDir != "" {
		model, err := guardml.LoadModel(cfg.ML.BundleDir, cfg.ML.SeqLen)
		if err != nil {
			// Heuristic-only scanning still protects; only log.
			redact.Logf("ml bundle unavailable, falling back to heuristic scanners: %v", err)
		} else {
			g.ml = model
		}
	}

	runner, err := buildRunner(cfg, g.vault, g.ml)
	if err != nil {
		redact.Logf("SECURITY WARNING: scanner pipeline construction failed, running UNPROTECTED: %v", err)
		g.protected = false
		return g
	}
	g.runner = runner
	g.protected = true
	return g
}

func buildRunner(cfg *config.Config, v *vault.Vault, ml *guardml.Model) (*pipeline.Runner, error) {
	sc := cfg.Scanners

	extraTopics := make(map[string][]string)
	for _, t := range sc.BanTopics {
		if len(t.Keywords) > 0 {
			extraTopics[t.Topic] = t.Keywords
		}
	}
	bundle := detect.NewBundle(extraTopics)

	var scorer scanner.LabelScorer
	var counter scanner.TokenCounter
	if ml != nil {
		scorer = ml
		counter = ml
	}

	topics := make([]scanner.TopicThreshold, 0, len(sc.BanTopics))
	for _, t := range sc.BanTopics {
		topics = append(topics, scanner.TopicThreshold{Topic: t.Topic, Threshold: t.Threshold})
	}

	banMode, err := parseMode(sc.BanSubstrings.Mode)
	if err != nil {
		return nil, fmt.Errorf("ban_substrings: %w", err)
	}
	codeMode, err := parseMode(sc.Code.Mode)
	if err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}
	sensitiveMode, err := parseMode(sc.SensitiveMode)
	if err != nil {
		return nil, fmt.Errorf("sensitive: %w", err)
	}
	refusalMode, err := parseMode(sc.NoRefusalMode)
	if err != nil {
		return nil, fmt.Errorf("no_refusal: %w", err)
	}

	inbound := pipeline.NewSet(pipeline.Inbound,
		pipeline.Step{Scanner: scanner.NewAnonymize(bundle, v)},
		pipeline.Step{Scanner: scanner.NewBanSubstrings(sc.BanSubstrings.Input, sc.BanSubstrings.CaseSensitive), Mode: banMode},
		pipeline.Step{Scanner: scanner.NewBanTopics(bundle, scorer, topics)},
		pipeline.Step{Scanner: scanner.NewPromptInjection(bundle, scorer, sc.InjectionThreshold)},
		pipeline.Step{Scanner: scanner.NewTokenLimit(sc.TokenLimit, counter)},
		pipeline.Step{Scanner: scanner.NewToxicity(bundle, scorer, sc.ToxicityThreshold)},
	)

	outbound := pipeline.NewSet(pipeline.Outbound,
		pipeline.Step{Scanner: scanner.NewDeanonymize(v)},
		pipeline.Step{Scanner: scanner.NewNoRefusal(bundle), Mode: refusalMode},
		pipeline.Step{Scanner: scanner.NewBanSubstrings(sc.BanSubstrings.Output, sc.BanSubstrings.CaseSensitive), Mode: banMode},
		pipeline.Step{Scanner: scanner.NewCode(bundle, sc.Code.Languages), Mode: codeMode},
		pipeline.Step{Scanner: scanner.NewRelevance(sc.RelevanceThreshold)},
		pipeline.Step{Scanner: scanner.NewSensitive(bundle), Mode: sensitiveMode},
	)

	return pipeline.NewRunner(inbound, outbound), nil
}

func parseMode(s string) (scanner.Mode, error) {
	switch s {
	case "", string(scanner.ModeBlock):
		return scanner.ModeBlock, nil
	case string(scanner.ModeMonitor):
		return scanner.ModeMonitor, nil
	default:
		return "", fmt.Errorf("unknown scanner mode %q", s)
	}
}

// HandleMessage runs one full exchange. The returned error is non-nil only
// when the generator itself failed; scan verdicts never produce an error,
// they produce a blocked Reply.
func (g *Gateway) HandleMessage(ctx context.Context, message string) (Reply, error) {
	reply := Reply{RequestID: uuid.NewString()}
	event := audit.Event{
		RequestID:   reply.RequestID,
		Timestamp:   time.Now().UTC(),
		Unprotected: !g.protected,
	}
	if g.level == audit.LevelFull {
		event.PromptPreview = audit.Preview(message)
	}
	start := time.Now()

	if !g.protected {
		text, err := g.generate(ctx, message, &event)
		if err != nil {
			reply.Stage = StageGeneration
			event.Decision = audit.DecisionErrorGenerator
			g.finish(&event, start)
			return reply, err
		}
		reply.Text = text
		reply.Stage = StageDelivered
		event.Decision = audit.DecisionAllow
		if g.level == audit.LevelFull {
			event.ResponsePreview = audit.Preview(text)
		}
		g.finish(&event, start)
		return reply, nil
	}

	inStart := time.Now()
	inReport := g.runner.Run(ctx, pipeline.Inbound, message, "")
	event.Inbound = audit.NewDirectionRecord(inReport, time.Since(inStart), g.level)
	g.recordFaults(inReport)

	if inReport.Verdict == pipeline.VerdictBlock {
		reply.Text = BlockedPromptMessage
		reply.Blocked = true
		reply.Stage = StageInbound
		reply.Triggered = inReport.Triggered
		event.Decision = audit.DecisionBlockedInbound
		g.tel.RecordBlock(string(pipeline.Inbound), inReport.Triggered)
		g.finish(&event, start)
		return reply, nil
	}

	raw, err := g.generate(ctx, inReport.Text, &event)
	if err != nil {
		reply.Stage = StageGeneration
		event.Decision = audit.DecisionErrorGenerator
		g.finish(&event, start)
		return reply, err
	}

	outStart := time.Now()
	// The original, pre-scan prompt is the prior: relevance and leak checks
	// must judge the response against what the user actually asked.
	outReport := g.runner.Run(ctx, pipeline.Outbound, raw, message)
	event.Outbound = audit.NewDirectionRecord(outReport, time.Since(outStart), g.level)
	g.recordFaults(outReport)

	if outReport.Verdict == pipeline.VerdictBlock {
		reply.Text = BlockedResponseMessage
		reply.Blocked = true
		reply.Stage = StageOutbound
		reply.Triggered = outReport.Triggered
		event.Decision = audit.DecisionBlockedOutbound
		g.tel.RecordBlock(string(pipeline.Outbound), outReport.Triggered)
		g.finish(&event, start)
		return reply, nil
	}

	reply.Text = outReport.Text
	reply.Stage = StageDelivered
	event.Decision = audit.DecisionAllow
	if g.level == audit.LevelFull {
		event.ResponsePreview = audit.Preview(reply.Text)
	}
	g.finish(&event, start)
	return reply, nil
}

func (g *Gateway) generate(ctx context.Context, prompt string, event *audit.Event) (string, error) {
	timeout := time.Duration(g.cfg.Generator.TimeoutSeconds) * time.Second
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	genStart := time.Now()
	text, err := g.gen.Complete(genCtx, prompt, g.cfg.Generator.MaxTokens, g.cfg.Generator.Temperature)
	genMs := float64(time.Since(genStart).Microseconds()) / 1000.0
	event.GenLatencyMs = genMs
	g.tel.RecordGeneration(genMs, err == nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

func (g *Gateway) recordFaults(report pipeline.Report) {
	for _, step := range report.Steps {
		if step.Faulted {
			g.tel.RecordScannerFault(step.Scanner)
		}
	}
}

func (g *Gateway) finish(event *audit.Event, start time.Time) {
	g.tel.RecordRequest(string(event.Decision), float64(time.Since(start).Microseconds())/1000.0)
	g.emitter.Emit(*event)
}

// Status reports whether scanning is active, the generator is reachable, and
// the ML classifier is loaded. Exposed on the health endpoint so unprotected
// operation is visible from outside.
func (g *Gateway) Status() (protected, ready, mlLoaded bool) {
	return g.protected, g.gen.Ready(), g.ml != nil
}

// Runner exposes the pipeline runner for offline tooling. Nil in
// unprotected mode.
func (g *Gateway) Runner() *pipeline.Runner {
	return g.runner
}

// ResetSession drops all vault placeholders, ending placeholder stability for
// the current session.
func (g *Gateway) ResetSession() {
	g.vault.Clear()
}

// Close releases the ML session and flushes audit.
func (g *Gateway) Close() error {
	if g.ml != nil {
		g.ml.Destroy()
	}
	return g.emitter.Close()
}
