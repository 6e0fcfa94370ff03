// Package telemetry wires OpenTelemetry tracing and metrics for the gateway.
// When disabled it hands out no-op providers so call sites never branch.
package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptgate-ai/promptgate/internal/redact"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and exposes record helpers.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	requestsCounter   metric.Int64Counter
	blocksCounter     metric.Int64Counter
	faultsCounter     metric.Int64Counter
	scanDuration      metric.Float64Histogram
	generateDuration  metric.Float64Histogram
	shutdownTraceFunc func(context.Context) error
	shutdownMeterFunc func(context.Context) error
}

// NewProvider configures OTLP exporters and providers. When disabled it
// returns a provider backed by no-ops.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		no := &Provider{
			Enabled: false,
			tracer:  trace.NewNoopTracerProvider().Tracer(""),
			meter:   noop.NewMeterProvider().Meter(""),
		}
		no.initInstruments()
		return no, nil
	}

	redact.Logf("telemetry enabled (OpenTelemetry OTLP %s) endpoint=%s; without a collector listening, periodic export warnings are expected", strings.ToLower(cfg.Protocol), cfg.Endpoint)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var tp *sdktrace.TracerProvider
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	case "http":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	default:
		return nil, nil
	}

	otel.SetTracerProvider(tp)

	var reader sdkmetric.Reader
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	case "http":
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:           true,
		tracer:            tp.Tracer("promptgate"),
		meter:             mp.Meter("promptgate"),
		shutdownTraceFunc: tp.Shutdown,
		shutdownMeterFunc: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

func (p *Provider) initInstruments() {
	if p == nil {
		return
	}
	// Instrument creation errors are swallowed; telemetry is best-effort.
	p.requestsCounter, _ = p.meter.Int64Counter("promptgate_requests_total")
	p.blocksCounter, _ = p.meter.Int64Counter("promptgate_blocks_total")
	p.faultsCounter, _ = p.meter.Int64Counter("promptgate_scanner_faults_total")
	p.scanDuration, _ = p.meter.Float64Histogram("promptgate_scan_duration_ms")
	p.generateDuration, _ = p.meter.Float64Histogram("promptgate_generation_duration_ms")
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return trace.NewNoopTracerProvider().Tracer("")
	}
	return p.tracer
}

// Meter returns the meter.
func (p *Provider) Meter() metric.Meter {
	if p == nil {
		return noop.NewMeterProvider().Meter("")
	}
	return p.meter
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceFunc != nil {
		_ = p.shutdownTraceFunc(ctx)
	}
	if p.shutdownMeterFunc != nil {
		_ = p.shutdownMeterFunc(ctx)
	}
}

// RecordRequest emits the per-request counter with its final decision.
func (p *Provider) RecordRequest(decision string, durMs float64) {
	if p == nil {
		return
	}
	labels := metric.WithAttributes(attribute.String("promptgate.decision", decision))
	p.requestsCounter.Add(context.Background(), 1, labels)
	p.scanDuration.Record(context.Background(), durMs, labels)
}

// RecordBlock counts a blocking verdict on one direction.
func (p *Provider) RecordBlock(direction string, triggered []string) {
	if p == nil {
		return
	}
	p.blocksCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("promptgate.direction", direction),
		attribute.StringSlice("promptgate.triggered", triggered),
	))
}

// RecordScannerFault counts a scanner that errored and was failed closed.
func (p *Provider) RecordScannerFault(scannerName string) {
	if p == nil {
		return
	}
	p.faultsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("promptgate.scanner", scannerName),
	))
}

// RecordGeneration records upstream model latency.
func (p *Provider) RecordGeneration(durMs float64, ok bool) {
	if p == nil {
		return
	}
	p.generateDuration.Record(context.Background(), durMs, metric.WithAttributes(
		attribute.Bool("promptgate.ok", ok),
	))
}
