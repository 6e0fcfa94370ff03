// Package server exposes the gateway over HTTP: one chat endpoint and a
// health endpoint that reports protection status.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/promptgate-ai/promptgate/internal/config"
	"github.com/promptgate-ai/promptgate/internal/gateway"
	"github.com/promptgate-ai/promptgate/internal/generator"
)

const maxChatBodyBytes = 1 << 20 // 1 MiB

// Server wraps the HTTP routes around a gateway.
type Server struct {
	mux *http.ServeMux
	cfg *config.Config
	gw  *gateway.Gateway
}

// New registers all routes.
func New(cfg *config.Config, gw *gateway.Gateway) *Server {
	s := &Server{
		mux: http.NewServeMux(),
		cfg: cfg,
		gw:  gw,
	}

	s.mux.HandleFunc("/chat", s.handleChat)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Handler returns the root handler for http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response  string   `json:"response"`
	RequestID string   `json:"request_id"`
	Blocked   bool     `json:"blocked"`
	Stage     string   `json:"stage,omitempty"`
	Triggered []string `json:"triggered,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeError(w http.ResponseWriter, status int, message, typ string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{Message: message, Type: typ},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	var reqBody chatRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_request_error")
		return
	}
	if reqBody.Message == "" {
		writeError(w, http.StatusBadRequest, "missing message", "invalid_request_error")
		return
	}

	reply, err := s.gw.HandleMessage(r.Context(), reqBody.Message)
	if err != nil {
		if errors.Is(err, generator.ErrUnavailable) {
			writeError(w, http.StatusBadGateway, "text generation engine unavailable", "generator_error")
			return
		}
		log.Printf("chat request %s failed: %v", reply.RequestID, err)
		writeError(w, http.StatusInternalServerError, "internal error", "internal_error")
		return
	}

	respBody := chatResponse{
		Response:  reply.Text,
		RequestID: reply.RequestID,
		Blocked:   reply.Blocked,
		Stage:     reply.Stage,
		Triggered: reply.Triggered,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(respBody); err != nil {
		log.Printf("failed to write chat response: %v", err)
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Protected bool   `json:"protected"`
	Ready     bool   `json:"ready"`
	ML        bool   `json:"ml"`
}

// handleHealth reports protection status so an unprotected gateway is
// visible to monitoring, not just in the logs.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}

	protected, ready, ml := s.gw.Status()
	status := "healthy"
	if !protected {
		status = "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    status,
		Protected: protected,
		Ready:     ready,
		ML:        ml,
	})
}
