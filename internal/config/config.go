// Package config loads and validates the gateway configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full promptgate configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Generator GeneratorConfig `yaml:"generator"`
	Scanners  ScannersConfig  `yaml:"scanners"`
	ML        MLConfig        `yaml:"ml"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
}

type GeneratorConfig struct {
	Type           string  `yaml:"type"`     // llama_server | openai | fake
	BaseURL        string  `yaml:"base_url"` // engine endpoint
	APIKeyEnv      string  `yaml:"api_key_env"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type ScannersConfig struct {
	TokenLimit         int                `yaml:"token_limit"`
	ToxicityThreshold  float64            `yaml:"toxicity_threshold"`
	InjectionThreshold float64            `yaml:"injection_threshold"`
	RelevanceThreshold float64            `yaml:"relevance_threshold"`
	BanSubstrings      BanSubstringsConfig `yaml:"ban_substrings"`
	BanTopics          []BanTopicConfig   `yaml:"ban_topics"`
	Code               CodeConfig         `yaml:"code"`
	SensitiveMode      string             `yaml:"sensitive_mode"`  // block | monitor
	NoRefusalMode      string             `yaml:"no_refusal_mode"` // block | monitor
}

type BanSubstringsConfig struct {
	Input         []string `yaml:"input"`
	Output        []string `yaml:"output"`
	CaseSensitive bool     `yaml:"case_sensitive"`
	Mode          string   `yaml:"mode"` // block | monitor
}

type BanTopicConfig struct {
	Topic     string   `yaml:"topic"`
	Threshold float64  `yaml:"threshold"`
	Keywords  []string `yaml:"keywords"` // optional extra keywords for this topic
}

type CodeConfig struct {
	Languages []string `yaml:"languages"`
	Mode      string   `yaml:"mode"` // block | monitor
}

// MLConfig points at an optional ONNX classifier bundle. Empty bundle_dir
// means heuristic-only scanning.
type MLConfig struct {
	BundleDir string `yaml:"bundle_dir"`
	SeqLen    int    `yaml:"seq_len"`
}

type AuditConfig struct {
	Level string            `yaml:"level"` // off | metadata | full
	Sinks []AuditSinkConfig `yaml:"sinks"`
}

type AuditSinkConfig struct {
	Type string `yaml:"type"` // file_jsonl | webhook
	Path string `yaml:"path"` // for file_jsonl
	URL  string `yaml:"url"`  // for webhook
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns the default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present. The scanner
// defaults mirror the reference deployment: token limit 2048, relevance 0.5,
// the password/admin/root/sudo watchlist, and monitor-only code detection.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "llama_server"
	}
	if cfg.Generator.MaxTokens <= 0 {
		cfg.Generator.MaxTokens = 256
	}
	if cfg.Generator.Temperature <= 0 {
		cfg.Generator.Temperature = 0.7
	}
	if cfg.Generator.TimeoutSeconds <= 0 {
		cfg.Generator.TimeoutSeconds = 120
	}

	sc := &cfg.Scanners
	if sc.TokenLimit <= 0 {
		sc.TokenLimit = 2048
	}
	if sc.ToxicityThreshold <= 0 {
		sc.ToxicityThreshold = 0.7
	}
	if sc.InjectionThreshold <= 0 {
		sc.InjectionThreshold = 0.9
	}
	if sc.RelevanceThreshold <= 0 {
		sc.RelevanceThreshold = 0.5
	}
	if len(sc.BanSubstrings.Input) == 0 {
		sc.BanSubstrings.Input = []string{"password", "admin", "root", "sudo"}
	}
	if len(sc.BanSubstrings.Output) == 0 {
		sc.BanSubstrings.Output = []string{"password", "admin", "root", "sudo"}
	}
	if sc.BanSubstrings.Mode == "" {
		sc.BanSubstrings.Mode = "block"
	}
	if len(sc.BanTopics) == 0 {
		sc.BanTopics = []BanTopicConfig{
			{Topic: "violence", Threshold: 0.8},
			{Topic: "illegal_activities", Threshold: 0.8},
		}
	}
	for i := range sc.BanTopics {
		if sc.BanTopics[i].Threshold <= 0 {
			sc.BanTopics[i].Threshold = 0.8
		}
	}
	if len(sc.Code.Languages) == 0 {
		sc.Code.Languages = []string{"python", "javascript", "php"}
	}
	if sc.Code.Mode == "" {
		sc.Code.Mode = "monitor"
	}
	if sc.SensitiveMode == "" {
		sc.SensitiveMode = "block"
	}
	if sc.NoRefusalMode == "" {
		sc.NoRefusalMode = "block"
	}

	if cfg.ML.SeqLen <= 0 {
		cfg.ML.SeqLen = 256
	}

	if cfg.Audit.Level == "" {
		cfg.Audit.Level = "metadata"
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = "promptgate"
	}
}
