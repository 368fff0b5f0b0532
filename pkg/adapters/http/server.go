// Package http exposes the bridge lifecycle over a small admin HTTP API.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/shellbridge/internal/jsoncodec"
	"github.com/aretw0/shellbridge/internal/logging"
	"github.com/aretw0/shellbridge/pkg/domain"
)

// Bridge is the part of shellbridge.Controller the admin API drives.
type Bridge interface {
	Connect() bool
	Disconnect() bool
	Status() domain.Status
	SetFilterFolders(ctx context.Context, folders ...string) error
	FilterFolders(ctx context.Context) ([]string, error)
}

// Server serves the admin routes.
type Server struct {
	Bridge   Bridge
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithGatherer exposes the given registry on /metrics instead of the default one.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger configures a logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the admin HTTP handler for bridge.
func NewHandler(bridge Bridge, opts ...Option) http.Handler {
	server := &Server{
		Bridge:   bridge,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/status", server.GetStatus)
	r.Post("/connect", server.Connect)
	r.Post("/disconnect", server.Disconnect)
	r.Get("/folders", server.GetFolders)
	r.Put("/folders", server.PutFolders)
	r.Handle("/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))

	return r
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Bridge.Status())
}

// Connect handles POST /connect. It answers 503 when the bridge could not bind.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	if !s.Bridge.Connect() {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, s.Bridge.Status())
}

// Disconnect handles POST /disconnect.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	s.Bridge.Disconnect()
	s.writeJSON(w, http.StatusOK, s.Bridge.Status())
}

// GetFolders handles GET /folders.
func (s *Server) GetFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.Bridge.FilterFolders(r.Context())
	if err != nil {
		s.Logger.Error("failed to read filter folders", "err", err)
		http.Error(w, "failed to read filter folders", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, folders)
}

// PutFolders handles PUT /folders with a JSON array of paths.
func (s *Server) PutFolders(w http.ResponseWriter, r *http.Request) {
	var folders []string
	if err := jsoncodec.Decode(r.Body, &folders); err != nil {
		http.Error(w, "body must be a JSON array of strings", http.StatusBadRequest)
		return
	}
	if err := s.Bridge.SetFilterFolders(r.Context(), folders...); err != nil {
		s.Logger.Error("failed to set filter folders", "err", err)
		http.Error(w, "failed to set filter folders", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, folders)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := jsoncodec.Encode(w, v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
