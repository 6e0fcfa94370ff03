package redact

import (
	"strings"
	"testing"
)

func TestStringScrubbing(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		disallow []string
		require  []string
	}{
		{
			name:     "email",
			input:    "user asked from a@b.com about weather",
			disallow: []string{"a@b.com"},
			require:  []string{"[SCRUBBED_EMAIL]"},
		},
		{
			name:     "bearer token",
			input:    "Authorization: Bearer sk-secret-123",
			disallow: []string{"sk-secret-123"},
			require:  []string{"[SCRUBBED]"},
		},
		{
			name:     "api key assignment",
			input:    "api_key=pg-live-abcdef retry later",
			disallow: []string{"pg-live-abcdef"},
			require:  []string{"api_key=[SCRUBBED]"},
		},
		{
			name:     "password assignment",
			input:    "password: hunter2 was rejected",
			disallow: []string{"hunter2"},
			require:  []string{"password: [SCRUBBED]"},
		},
		{
			name:     "card number",
			input:    "pay with 4111 1111 1111 1111 today",
			disallow: []string{"4111 1111 1111 1111"},
			require:  []string{"[SCRUBBED_NUMBER]"},
		},
		{
			name:     "phone number",
			input:    "call +40 721 123 456 now",
			disallow: []string{"+40 721 123 456"},
			require:  []string{"[SCRUBBED_PHONE]"},
		},
		{
			name:     "ssn",
			input:    "ssn 078-05-1120 on record",
			disallow: []string{"078-05-1120"},
			require:  []string{"[SCRUBBED_SSN]"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := String(tc.input)
			for _, bad := range tc.disallow {
				if bad != "" && strings.Contains(out, bad) {
					t.Fatalf("output still contains %q: %s", bad, out)
				}
			}
			for _, want := range tc.require {
				if want != "" && !strings.Contains(out, want) {
					t.Fatalf("output missing required substring %q: %s", want, out)
				}
			}
		})
	}
}

func TestEvidenceTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	if got := Evidence(long); len(got) != 120 {
		t.Fatalf("expected 120 bytes, got %d", len(got))
	}
	if got := Evidence("short"); got != "short" {
		t.Fatalf("short evidence should pass through, got %q", got)
	}
}

func TestEvidenceScrubs(t *testing.T) {
	got := Evidence("mail me at leak@corp.com")
	if strings.Contains(got, "leak@corp.com") {
		t.Fatalf("evidence leaked an email: %s", got)
	}
}
