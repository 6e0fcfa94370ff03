package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var webhookBackoff = []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}

// WebhookSink POSTs each event as JSON to a collector endpoint. Transient
// failures are retried with a short backoff; events that still fail are
// reported to the emitter as an error and dropped.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

func (s *WebhookSink) Write(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit webhook: marshal: %w", err)
	}
	var lastErr error
	for attempt := 0; attempt <= len(webhookBackoff); attempt++ {
		if attempt > 0 {
			time.Sleep(webhookBackoff[attempt-1])
		}
		lastErr = s.post(body)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("audit webhook: %w", lastErr)
}

func (s *WebhookSink) post(body []byte) error {
	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSink) Close() error { return nil }
