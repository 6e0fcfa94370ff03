package telemetry

import (
	"testing"
)

func TestSafeAttributesFiltersSensitiveKeys(t *testing.T) {
	kvs := map[string]interface{}{
		"prompt":        "should drop",
		"message":       "drop",
		"response":      "drop",
		"api_key":       "sk-123",
		"token":         "abc",
		"request_id":    "r-1",
		"long_string":   string(make([]byte, 600)),
		"scanner_count": 7,
		"blocked":       true,
	}

	attrs := SafeAttributes(kvs)
	seen := map[string]bool{}
	for _, a := range attrs {
		seen[string(a.Key)] = true
	}
	for _, bad := range []string{"prompt", "message", "response", "api_key", "token", "long_string"} {
		if seen[bad] {
			t.Fatalf("unexpected unsafe attribute %s", bad)
		}
	}
	for _, good := range []string{"request_id", "scanner_count", "blocked"} {
		if !seen[good] {
			t.Fatalf("expected attribute %s to survive", good)
		}
	}
}

func TestSafeAttributesEmptyInput(t *testing.T) {
	if attrs := SafeAttributes(nil); attrs != nil {
		t.Fatalf("expected nil, got %v", attrs)
	}
}
