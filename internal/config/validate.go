package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and sane values.
// Any error here is fatal at construction time: the gateway must not start
// serving with a broken scanner configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if err := validateGenerator(cfg.Generator); err != nil {
		return err
	}
	if err := validateScanners(cfg.Scanners); err != nil {
		return err
	}
	if err := validateAudit(cfg.Audit); err != nil {
		return err
	}
	if err := validateTelemetry(cfg.Telemetry); err != nil {
		return err
	}

	return nil
}

func validateGenerator(g GeneratorConfig) error {
	switch strings.ToLower(strings.TrimSpace(g.Type)) {
	case "llama_server", "openai", "fake":
	default:
		return fmt.Errorf("generator.type must be llama_server, openai or fake, got %q", g.Type)
	}

	if g.BaseURL != "" {
		u, err := url.Parse(g.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("generator.base_url is not a valid URL")
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("generator.base_url must be http or https")
		}
	}
	if g.MaxTokens <= 0 {
		return errors.New("generator.max_tokens must be positive")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		return fmt.Errorf("generator.temperature must be in [0,2], got %v", g.Temperature)
	}
	if g.TimeoutSeconds <= 0 {
		return errors.New("generator.timeout_seconds must be positive")
	}
	return nil
}

func validateScanners(sc ScannersConfig) error {
	if sc.TokenLimit <= 0 {
		return errors.New("scanners.token_limit must be positive")
	}
	for name, v := range map[string]float64{
		"scanners.toxicity_threshold":  sc.ToxicityThreshold,
		"scanners.injection_threshold": sc.InjectionThreshold,
		"scanners.relevance_threshold": sc.RelevanceThreshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0,1], got %v", name, v)
		}
	}

	if err := validateMode("scanners.ban_substrings.mode", sc.BanSubstrings.Mode); err != nil {
		return err
	}
	if err := validateMode("scanners.code.mode", sc.Code.Mode); err != nil {
		return err
	}
	if err := validateMode("scanners.sensitive_mode", sc.SensitiveMode); err != nil {
		return err
	}
	if err := validateMode("scanners.no_refusal_mode", sc.NoRefusalMode); err != nil {
		return err
	}

	for i, t := range sc.BanTopics {
		if strings.TrimSpace(t.Topic) == "" {
			return fmt.Errorf("scanners.ban_topics[%d] has an empty topic", i)
		}
		if t.Threshold <= 0 || t.Threshold > 1 {
			return fmt.Errorf("scanners.ban_topics[%d] threshold must be in (0,1], got %v", i, t.Threshold)
		}
	}
	return nil
}

func validateMode(field, mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "block", "monitor":
		return nil
	default:
		return fmt.Errorf("%s must be block or monitor, got %q", field, mode)
	}
}

func validateAudit(a AuditConfig) error {
	switch strings.ToLower(strings.TrimSpace(a.Level)) {
	case "off", "metadata", "full":
	default:
		return fmt.Errorf("audit.level must be off, metadata or full, got %q", a.Level)
	}

	for i, s := range a.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("audit sink %d (file_jsonl) missing path", i)
			}
		case "webhook":
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("audit sink %d (webhook) has an invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("audit sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("audit sink %d has unknown type %q", i, s.Type)
		}
	}
	return nil
}

func validateTelemetry(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "grpc", "http":
		return nil
	default:
		return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", t.Protocol)
	}
}
