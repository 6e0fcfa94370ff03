package telemetry

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Keys whose values may carry user text or credentials never become span
// attributes, no matter which call site builds them.
var denyKeys = []string{
	"prompt",
	"message",
	"response",
	"content",
	"original",
	"authorization",
	"api_key",
	"token",
	"email",
	"phone",
	"ssn",
	"credit_card",
}

// SafeAttributes filters out unsafe keys and values and returns OTEL
// attributes for the rest.
func SafeAttributes(values map[string]interface{}) []attribute.KeyValue {
	if len(values) == 0 {
		return nil
	}
	var attrs []attribute.KeyValue
	for k, v := range values {
		lk := strings.ToLower(k)
		skip := false
		for _, bad := range denyKeys {
			if strings.Contains(lk, bad) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		switch val := v.(type) {
		case string:
			if len(val) > 512 {
				continue
			}
			attrs = append(attrs, attribute.String(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case []string:
			vals := val
			if len(vals) > 32 {
				vals = vals[:32]
			}
			attrs = append(attrs, attribute.StringSlice(k, vals))
		default:
			// unsupported types ignored for safety
		}
	}
	return attrs
}
