package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/promptgate-ai/promptgate/internal/audit"
	"github.com/promptgate-ai/promptgate/internal/config"
	"github.com/promptgate-ai/promptgate/internal/gateway"
	"github.com/promptgate-ai/promptgate/internal/generator"
	"github.com/promptgate-ai/promptgate/internal/server"
	"github.com/promptgate-ai/promptgate/internal/telemetry"
)

const version = "0.3.0"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "promptgate.yaml", "path to config file")
	envFile := flag.String("env-file", "", "optional .env file with secrets")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("load env file: %v", err)
		}
	} else {
		// Best-effort: a .env next to the binary is convenient in dev.
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  version,
	})
	if err != nil {
		log.Fatalf("telemetry init: %v", err)
	}
	defer tel.Shutdown(ctx)

	emitter, err := buildAuditEmitter(cfg)
	if err != nil {
		log.Fatalf("audit init: %v", err)
	}

	gen, err := buildGenerator(cfg)
	if err != nil {
		log.Fatalf("generator init: %v", err)
	}

	gw := gateway.New(cfg, gen, gateway.Options{Audit: emitter, Telemetry: tel})
	defer gw.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(cfg, gw).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("promptgate %s listening on %s (generator=%s)", version, addr, cfg.Generator.Type)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func buildAuditEmitter(cfg *config.Config) (audit.Emitter, error) {
	level := audit.ParseLevel(cfg.Audit.Level)
	if level == audit.LevelOff || len(cfg.Audit.Sinks) == 0 {
		return audit.Nop(), nil
	}

	var sinks []audit.Sink
	for _, sc := range cfg.Audit.Sinks {
		switch sc.Type {
		case "file_jsonl":
			sink, err := audit.NewFileSink(sc.Path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink)
		case "webhook":
			sinks = append(sinks, audit.NewWebhookSink(sc.URL))
		}
	}
	return audit.NewAsyncEmitter(level, sinks), nil
}

func buildGenerator(cfg *config.Config) (generator.Generator, error) {
	timeout := time.Duration(cfg.Generator.TimeoutSeconds) * time.Second
	const maxResponseBytes = 4 << 20

	switch cfg.Generator.Type {
	case "llama_server":
		return generator.NewLlamaServer(cfg.Generator.BaseURL, timeout, maxResponseBytes), nil
	case "openai":
		apiKey := os.Getenv(cfg.Generator.APIKeyEnv)
		return generator.NewOpenAICompat(cfg.Generator.BaseURL, apiKey, cfg.Generator.Model, timeout, maxResponseBytes), nil
	case "fake":
		return generator.NewFake("promptgate fake generator response"), nil
	default:
		// Validate rejects anything else, keep the switch total anyway.
		return generator.NewLlamaServer(cfg.Generator.BaseURL, timeout, maxResponseBytes), nil
	}
}
