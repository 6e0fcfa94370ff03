// Package redact keeps sensitive values out of log lines. Everything the
// gateway logs about user text or scanner evidence goes through here first.
package redact

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe    = regexp.MustCompile(`\+\d[\d\s\-().]{7,}\d`)
	cardRe     = regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`)
	ssnRe      = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	bearerRe   = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._\-+/=]+)`)
	apiKeyRe   = regexp.MustCompile(`(?i)(api[_-]?key(?:s)?\s*[:=]\s*)([A-Za-z0-9._\-+/=]+)`)
	tokenishRe = regexp.MustCompile(`(?i)\b(?:sk|pk|ghp|xox[bap])-[A-Za-z0-9_\-]{16,}\b`)
	passwordRe = regexp.MustCompile(`(?i)(password\s*[:=]\s*)(\S+)`)
)

// String scrubs known sensitive patterns from a free-form string.
func String(s string) string {
	if s == "" {
		return s
	}

	out := s
	out = bearerRe.ReplaceAllString(out, "${1}[SCRUBBED]")
	out = apiKeyRe.ReplaceAllString(out, "${1}[SCRUBBED]")
	out = passwordRe.ReplaceAllString(out, "${1}[SCRUBBED]")
	out = tokenishRe.ReplaceAllString(out, "[SCRUBBED]")
	out = emailRe.ReplaceAllString(out, "[SCRUBBED_EMAIL]")
	out = ssnRe.ReplaceAllString(out, "[SCRUBBED_SSN]")
	out = cardRe.ReplaceAllString(out, "[SCRUBBED_NUMBER]")
	out = phoneRe.ReplaceAllString(out, "[SCRUBBED_PHONE]")
	return out
}

// Any formats the value with %+v and scrubs the result.
func Any(v any) string {
	return String(fmt.Sprintf("%+v", v))
}

// Sprintf formats like fmt.Sprintf and scrubs the result.
func Sprintf(format string, args ...any) string {
	return String(fmt.Sprintf(format, args...))
}

// Logf prints a scrubbed log line.
func Logf(format string, args ...any) {
	log.Print(Sprintf(format, args...))
}

// Fatalf prints a scrubbed fatal log line.
func Fatalf(format string, args ...any) {
	log.Fatal(Sprintf(format, args...))
}

// Evidence scrubs and truncates a snippet for inclusion in audit events.
func Evidence(input string) string {
	safe := strings.TrimSpace(String(input))
	if len(safe) <= 120 {
		return safe
	}
	return safe[:120]
}
