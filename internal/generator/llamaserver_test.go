package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLlamaServerComplete(t *testing.T) {
	var gotReq llamaCompletionRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: " Paris is the capital of France. "})
	}))
	defer ts.Close()

	g := NewLlamaServer(ts.URL, 5*time.Second, 0)

	out, err := g.Complete(context.Background(), "What is the capital of France?", 64, 0.7)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Paris is the capital of France." {
		t.Fatalf("unexpected completion %q", out)
	}
	if !strings.HasPrefix(gotReq.Prompt, "[INST] ") || !strings.HasSuffix(gotReq.Prompt, " [/INST]") {
		t.Fatalf("prompt not wrapped in chat format: %q", gotReq.Prompt)
	}
	if gotReq.NPredict != 64 {
		t.Fatalf("expected n_predict 64, got %d", gotReq.NPredict)
	}
	if gotReq.Stream {
		t.Fatalf("streaming must be disabled")
	}
}

func TestLlamaServerUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	g := NewLlamaServer(ts.URL, 5*time.Second, 0)

	_, err := g.Complete(context.Background(), "hi", 16, 0.7)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLlamaServerReady(t *testing.T) {
	healthy := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		if !healthy {
			http.Error(w, "loading", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	g := NewLlamaServer(ts.URL, 5*time.Second, 0)
	if g.Ready() {
		t.Fatalf("expected not ready")
	}
	healthy = true
	if !g.Ready() {
		t.Fatalf("expected ready")
	}
}
