package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dkoutsos/lexroom/internal/auth"
	"github.com/dkoutsos/lexroom/internal/config"
	"github.com/dkoutsos/lexroom/internal/llm"
	"github.com/dkoutsos/lexroom/internal/observability"
	"github.com/dkoutsos/lexroom/internal/orchestrator"
	"github.com/dkoutsos/lexroom/internal/session"
	"github.com/dkoutsos/lexroom/internal/tools"
)

// SessionHeader carries the opaque session identifier between requests.
const SessionHeader = "X-Session-ID"

type Server struct {
	cfg          config.Config
	authority    *auth.Authority
	sessions     *session.Registry
	orchestrator *orchestrator.Orchestrator
	tools        *tools.Registry
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(
	cfg config.Config,
	authority *auth.Authority,
	sessions *session.Registry,
	orch *orchestrator.Orchestrator,
	registry *tools.Registry,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:          cfg,
		authority:    authority,
		sessions:     sessions,
		orchestrator: orch,
		tools:        registry,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Liveness and metrics are the only unauthenticated paths.
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.authority, func(code string) {
			s.metrics.AuthFailures.WithLabelValues(code).Inc()
		}))
		r.Post("/v1/chat", s.handleChat)
		r.Get("/v1/chat/ws", s.handleChatWS)
		r.Get("/v1/tools", s.handleListTools)
		r.Get("/v1/session/{id}/turns", s.handleSessionTurns)
		r.Post("/v1/session/{id}/end", s.handleEndSession)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing identity")
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	sess, status, code, err := s.acquireSession(identity.Subject, r.Header.Get(SessionHeader))
	if err != nil {
		respondError(w, status, code, err.Error())
		return
	}
	defer s.sessions.Release(sess.ID)

	result, err := s.orchestrator.HandleMessage(r.Context(), sess, req.Message)
	if err != nil {
		if errors.Is(err, llm.ErrGatewayTimeout) {
			respondError(w, http.StatusGatewayTimeout, "gateway_timeout", "language model did not respond in time")
			return
		}
		respondError(w, http.StatusBadGateway, "llm_unavailable", "language model request failed")
		return
	}

	w.Header().Set(SessionHeader, sess.ID)
	respondJSON(w, http.StatusOK, result)
}

// acquireSession opens a new session when no id is presented, otherwise
// resumes the existing one with ownership and busy checks.
func (s *Server) acquireSession(subject, id string) (session.Session, int, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		sess, err := s.sessions.Open(subject)
		if err != nil {
			return session.Session{}, http.StatusTooManyRequests, "session_limit_exceeded", err
		}
		s.metrics.SessionEvents.WithLabelValues("created").Inc()
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		return sess, 0, "", nil
	}

	sess, err := s.sessions.Acquire(id, subject)
	switch {
	case err == nil:
		return sess, 0, "", nil
	case errors.Is(err, session.ErrNotFound):
		return session.Session{}, http.StatusNotFound, "session_not_found", err
	case errors.Is(err, session.ErrOwnershipMismatch):
		return session.Session{}, http.StatusForbidden, "session_ownership_mismatch", err
	case errors.Is(err, session.ErrBusy):
		return session.Session{}, http.StatusConflict, "session_busy", err
	default:
		return session.Session{}, http.StatusInternalServerError, "internal", err
	}
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"tools": s.tools.Specs()})
}

func (s *Server) handleSessionTurns(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing identity")
		return
	}

	sess, err := s.sessions.Snapshot(chi.URLParam(r, "id"), identity.Subject)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing identity")
		return
	}

	sess, err := s.sessions.End(chi.URLParam(r, "id"), identity.Subject)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"turns":      len(sess.Turns),
		"status":     "ended",
	})
}

func (s *Server) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, session.ErrOwnershipMismatch):
		respondError(w, http.StatusForbidden, "session_ownership_mismatch", err.Error())
	case errors.Is(err, session.ErrBusy):
		respondError(w, http.StatusConflict, "session_busy", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
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
