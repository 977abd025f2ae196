// Package httpapi exposes the turn pipeline over HTTP: a chat endpoint,
// liveness and health probes, and the Prometheus scrape endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/orchestrator"
	"github.com/SRdeMora/quimera/internal/types"
)

// Chatter is the turn pipeline the server fronts.
type Chatter interface {
	Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error)
}

// Server handles the HTTP API.
type Server struct {
	chatter Chatter
	health  *orchestrator.HealthAggregator
	logger  *slog.Logger
}

// New creates a Server fronting the given pipeline.
func New(chatter Chatter, health *orchestrator.HealthAggregator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		chatter: chatter,
		health:  health,
		logger:  logger.With("component", "httpapi"),
	}
}

// Router builds the chi router for the API surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	r.Get("/v1/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/v1/chat", s.handleChat)

	return r
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var sessionID types.ID
	if strings.TrimSpace(req.SessionID) != "" {
		parsed, err := types.ParseID(req.SessionID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_session_id", err.Error())
			return
		}
		sessionID = parsed
	}

	resp, err := s.chatter.Chat(r.Context(), orchestrator.ChatRequest{
		SessionID: sessionID,
		Message:   req.Message,
	})
	if err != nil {
		status, code := statusForError(err)
		s.logger.Error("chat turn failed",
			"session_id", req.SessionID,
			"status", status,
			"error", err)
		respondError(w, status, code, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	if report.Overall.IsUnhealthy() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"detail": report.Overall.Message,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Overall.IsUnhealthy() {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, report)
}

// statusForError maps pipeline failures to HTTP status codes. The required
// recency tier being down is a 503; a turn the pipeline could not record is
// a 500 the client should surface, not retry blindly.
func statusForError(err error) (int, string) {
	var qerr *types.QuimeraError
	code := "internal_error"
	if errors.As(err, &qerr) {
		code = strings.ToLower(string(qerr.Code))
	}

	switch {
	case types.IsCode(err, memory.ErrCodeInvalidTurn):
		return http.StatusBadRequest, code
	case types.IsCode(err, types.ErrCodeRequiredTierUnavailable):
		return http.StatusServiceUnavailable, code
	case types.IsCode(err, types.ErrCodeProviderCallFailed),
		types.IsCode(err, types.ErrCodeProviderUnavailable),
		types.IsCode(err, types.ErrCodeProviderAuthFailed):
		return http.StatusBadGateway, code
	default:
		return http.StatusInternalServerError, code
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
