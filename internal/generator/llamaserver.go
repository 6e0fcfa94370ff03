package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// llamaServer talks to a llama.cpp HTTP server's /completion endpoint. It
// wraps prompts in the Llama 2 chat format and stops on instruction markers,
// matching how the model was fine-tuned.
type llamaServer struct {
	baseURL          string
	client           *http.Client
	maxResponseBytes int64
}

// NewLlamaServer creates a llama.cpp server client.
func NewLlamaServer(baseURL string, timeout time.Duration, maxResponseBytes int64) Generator {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8081"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if maxResponseBytes <= 0 {
		maxResponseBytes = 4 * 1024 * 1024
	}
	return &llamaServer{
		baseURL:          strings.TrimRight(baseURL, "/"),
		maxResponseBytes: maxResponseBytes,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type llamaCompletionRequest struct {
	Prompt        string   `json:"prompt"`
	NPredict      int      `json:"n_predict"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	TopK          int      `json:"top_k"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	Stop          []string `json:"stop"`
	Stream        bool     `json:"stream"`
}

type llamaCompletionResponse struct {
	Content string `json:"content"`
}

func (l *llamaServer) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 256
	}

	body, err := json.Marshal(llamaCompletionRequest{
		Prompt:        fmt.Sprintf("[INST] %s [/INST]", prompt),
		NPredict:      maxTokens,
		Temperature:   temperature,
		TopP:          0.9,
		TopK:          20,
		RepeatPenalty: 1.05,
		Stop:          []string{"[INST]", "</s>", "<s>"},
		Stream:        false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: call llama server: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, l.maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read llama response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: llama server status %d", ErrUnavailable, resp.StatusCode)
	}

	var completion llamaCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("%w: decode llama response: %v", ErrUnavailable, err)
	}

	return strings.TrimSpace(completion.Content), nil
}

func (l *llamaServer) Ready() bool {
	req, err := http.NewRequest(http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode == http.StatusOK
}
