package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Generator.BaseURL = "http://127.0.0.1:8081"
	return cfg
}

func TestValidateDefaultsPass(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing server addr",
			mutate: func(c *Config) { c.Server.Addr = "" },
			want:   "server.addr",
		},
		{
			name:   "unknown generator type",
			mutate: func(c *Config) { c.Generator.Type = "carrier_pigeon" },
			want:   "generator.type",
		},
		{
			name:   "bad generator url scheme",
			mutate: func(c *Config) { c.Generator.BaseURL = "ftp://example.com" },
			want:   "base_url",
		},
		{
			name:   "zero token limit",
			mutate: func(c *Config) { c.Scanners.TokenLimit = -1 },
			want:   "token_limit",
		},
		{
			name:   "toxicity threshold out of range",
			mutate: func(c *Config) { c.Scanners.ToxicityThreshold = 1.5 },
			want:   "toxicity_threshold",
		},
		{
			name:   "bad scanner mode",
			mutate: func(c *Config) { c.Scanners.Code.Mode = "sometimes" },
			want:   "code.mode",
		},
		{
			name:   "empty banned topic",
			mutate: func(c *Config) { c.Scanners.BanTopics = []BanTopicConfig{{Topic: "", Threshold: 0.8}} },
			want:   "ban_topics",
		},
		{
			name:   "bad audit level",
			mutate: func(c *Config) { c.Audit.Level = "verbose" },
			want:   "audit.level",
		},
		{
			name:   "file sink without path",
			mutate: func(c *Config) { c.Audit.Sinks = []AuditSinkConfig{{Type: "file_jsonl"}} },
			want:   "missing path",
		},
		{
			name:   "webhook sink with bad url",
			mutate: func(c *Config) { c.Audit.Sinks = []AuditSinkConfig{{Type: "webhook", URL: "not-a-url"}} },
			want:   "invalid url",
		},
		{
			name:   "telemetry without endpoint",
			mutate: func(c *Config) { c.Telemetry.Enabled = true },
			want:   "endpoint",
		},
		{
			name:   "zero generator timeout",
			mutate: func(c *Config) { c.Generator.TimeoutSeconds = 0 },
			want:   "timeout_seconds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/promptgate.yaml")
	if err != nil {
		t.Fatalf("missing file must yield defaults, got %v", err)
	}
	if cfg.Scanners.TokenLimit != 2048 {
		t.Fatalf("expected default token limit 2048, got %d", cfg.Scanners.TokenLimit)
	}
	if cfg.Scanners.RelevanceThreshold != 0.5 {
		t.Fatalf("expected default relevance threshold 0.5, got %v", cfg.Scanners.RelevanceThreshold)
	}
	if cfg.Scanners.Code.Mode != "monitor" {
		t.Fatalf("expected code scanner to default to monitor, got %q", cfg.Scanners.Code.Mode)
	}
}
