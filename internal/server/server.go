// Package server implements the Clarity proxy: the single inbound HTTP
// endpoint that routes an action-tagged request to the right upstream
// operation and maps every failure onto one user-facing message and status.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clarityhq/clarity/internal/llm"
)

// ClientFactory builds an upstream adapter bound to the given API key.
// The proxy calls it once per request so a per-request apiKey in the body
// can override the configured credential.
type ClientFactory func(apiKey string) (llm.Client, error)

// Server is the Clarity proxy HTTP server.
type Server struct {
	apiKey  string // configured fallback credential; may be empty
	factory ClientFactory
}

// New creates a proxy server. apiKey is the configured fallback credential
// and may be empty, in which case every request must carry its own key.
func New(apiKey string, factory ClientFactory) (*Server, error) {
	if factory == nil {
		return nil, errors.New("client factory cannot be nil")
	}
	return &Server{apiKey: apiKey, factory: factory}, nil
}

// RegisterRoutes sets up the HTTP routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleGenerate is the single proxy endpoint: POST only, body
// {action, input, qaPairs?, apiKey?}, response {result}/{questions} or
// {message} with a non-200 status.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := log.With().Str("request_id", requestID).Logger()

	if r.Method != http.MethodPost {
		logger.Warn().Str("method", r.Method).Msg("Rejecting non-POST request to /api/generate")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		requestsTotal.WithLabelValues("unknown", strconv.Itoa(http.StatusMethodNotAllowed)).Inc()
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, "invalid request body: expected JSON with an 'input' string")
		requestsTotal.WithLabelValues("unknown", strconv.Itoa(http.StatusBadRequest)).Inc()
		return
	}

	action := req.Action
	logger = logger.With().Str("action", action).Logger()

	status, resp := s.generate(r, &req, logger)

	writeJSON(w, status, resp)
	requestsTotal.WithLabelValues(labelAction(action), strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(labelAction(action)).Observe(time.Since(start).Seconds())
	logger.Info().Int("status", status).Dur("duration", time.Since(start)).Msg("Handled generate request")
}

// generate validates the request, dispatches by action tag, and returns
// the response body plus the HTTP status to send.
func (s *Server) generate(r *http.Request, req *GenerateRequest, logger zerolog.Logger) (int, any) {
	if strings.TrimSpace(req.Input) == "" {
		logger.Warn().Msg("Request has blank input")
		return http.StatusBadRequest, ErrorResponse{Message: "input is required"}
	}

	switch req.Action {
	case ActionFast, ActionClarifyQuestions, ActionClarifyFinal:
	default:
		logger.Warn().Msg("Request has unknown action tag")
		return http.StatusBadRequest, ErrorResponse{Message: fmt.Sprintf("unknown action %q", req.Action)}
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.apiKey
	}
	if apiKey == "" {
		logger.Warn().Msg("No API key in request and none configured")
		return http.StatusUnauthorized, ErrorResponse{Message: "API key is required"}
	}

	client, err := s.factory(apiKey)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build upstream client")
		return http.StatusInternalServerError, ErrorResponse{Message: "internal server error"}
	}

	ctx := r.Context()
	switch req.Action {
	case ActionFast:
		result, err := client.OptimizeFast(ctx, req.Input)
		if err != nil {
			return s.upstreamFailure(err, logger)
		}
		return http.StatusOK, GenerateResponse{Result: result}

	case ActionClarifyQuestions:
		questions, err := client.GenerateQuestions(ctx, req.Input)
		if err != nil {
			return s.upstreamFailure(err, logger)
		}
		return http.StatusOK, GenerateResponse{Questions: questions}

	default: // ActionClarifyFinal
		if len(req.QAPairs) == 0 {
			logger.Warn().Msg("clarify_final request is missing qaPairs")
			return http.StatusBadRequest, ErrorResponse{Message: "qaPairs are required for clarify_final"}
		}
		result, err := client.SynthesizeFinal(ctx, req.Input, req.QAPairs)
		if err != nil {
			return s.upstreamFailure(err, logger)
		}
		return http.StatusOK, GenerateResponse{Result: result}
	}
}

// upstreamFailure maps an adapter error onto its HTTP status and
// user-facing message, recording the failure reason metric.
func (s *Server) upstreamFailure(err error, logger zerolog.Logger) (int, any) {
	status, message, reason := ClassifyUpstreamError(err)
	upstreamFailures.WithLabelValues(reason).Inc()
	logger.Error().Err(err).Int("status", status).Str("reason", reason).Msg("Upstream call failed")
	return status, ErrorResponse{Message: message}
}

// ClassifyUpstreamError maps an adapter error onto the HTTP status the
// proxy returns and a short reason tag used for metrics. The body message
// comes from llm.UserMessage so the proxy and the client workflow surface
// the same wording.
func ClassifyUpstreamError(err error) (status int, message, reason string) {
	message = llm.UserMessage(err)

	var httpErr *llm.UpstreamHTTPError
	switch {
	case errors.Is(err, llm.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, message, "timeout"
	case errors.As(err, &httpErr):
		return http.StatusBadGateway, message, "upstream_http"
	case errors.Is(err, llm.ErrEmptyResponse):
		return http.StatusBadGateway, message, "empty_response"
	case errors.Is(err, llm.ErrResponseJSONFind),
		errors.Is(err, llm.ErrResponseJSONUnmarshal),
		errors.Is(err, llm.ErrQuestionShape):
		return http.StatusBadGateway, message, "malformed_json"
	case errors.Is(err, llm.ErrUpstreamCall):
		return http.StatusBadGateway, message, "network"
	default:
		return http.StatusInternalServerError, "internal server error", "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}
