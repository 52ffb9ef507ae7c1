// Package api serves the rules backend contract for local development. It
// is a stand-in for the production backend: rules are stored, run-once is a
// dry run that never evaluates messages.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/aira/internal/devapi/store"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/google/uuid"
)

// Server is the development API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *Handler
	health  *observability.HealthRegistry
	token   string
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// Token, when set, must be sent as a bearer token on every route but
	// the health check and the connect callback.
	Token string
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:8090",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new development API server over st.
func NewServer(cfg ServerConfig, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	health := observability.NewHealthRegistry()
	health.Register("store", observability.PingChecker("store", observability.HealthStatusUnhealthy, st.Ping))

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		handler: NewHandler(st, logger),
		health:  health,
		token:   cfg.Token,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Rules
	s.mux.HandleFunc("GET /rules", s.authorize(s.handler.ListRules))
	s.mux.HandleFunc("GET /rules/chat/{w_id}", s.authorize(s.handler.ListChatRules))
	s.mux.HandleFunc("POST /rules", s.authorize(s.handler.CreateRule))
	s.mux.HandleFunc("PUT /rules", s.authorize(s.handler.UpdateRule))
	s.mux.HandleFunc("DELETE /rules", s.authorize(s.handler.DeleteRule))
	s.mux.HandleFunc("POST /rules/run-once", s.authorize(s.handler.RunOnce))

	// Groups and connectors
	s.mux.HandleFunc("GET /waha/groups", s.authorize(s.handler.ListGroups))
	s.mux.HandleFunc("GET /connectors", s.authorize(s.handler.ListConnectors))
	s.mux.HandleFunc("POST /connectors/connect", s.authorize(s.handler.Connect))
	s.mux.HandleFunc("GET /connectors/callback", s.handler.ConnectCallback)
}

// Handler returns the root handler with request ids and access logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.mux)
}

// handleHealth reports store health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting development API server", "addr", s.server.Addr, "health_checks", s.health.Names())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down development API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) authorize(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	want := []byte("Bearer " + s.token)
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestContext stamps request and correlation ids on the context and
// response, and logs each request.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(observability.RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := observability.WithRequestID(r.Context(), requestID)
		if id := strings.TrimSpace(r.Header.Get(observability.CorrelationIDHeader)); id != "" {
			ctx = observability.WithCorrelationID(ctx, id)
		}
		w.Header().Set(observability.RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			observability.StatusKey, rec.status,
			observability.DurationKey, time.Since(start).Milliseconds(),
		)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response the client reads the message from.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
