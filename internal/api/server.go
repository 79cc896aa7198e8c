package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/listing-resolver/internal/catalog"
	"github.com/JakeFAU/listing-resolver/internal/config"
	"github.com/JakeFAU/listing-resolver/internal/id/uuid"
	"github.com/JakeFAU/listing-resolver/internal/metrics"
)

const maxRequestBody = 64 << 10

// Listings is the catalog surface the handlers call.
type Listings interface {
	Resolve(ctx context.Context, rawURL string) (catalog.Record, error)
	Get(ctx context.Context, identifier string) (catalog.Record, error)
}

// ReadinessCheck reports whether a downstream dependency can take traffic.
type ReadinessCheck func(ctx context.Context) error

// Server wires HTTP handlers to the listing catalog.
type Server struct {
	router   chi.Router
	listings Listings
	checks   []ReadinessCheck
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(listings Listings, cfg config.Config, logger *zap.Logger, checks ...ReadinessCheck) *Server {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		listings: listings,
		checks:   checks,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware(uuid.NewUUIDGenerator()))
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.RequestBudget()))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1/listings", func(r chi.Router) {
		r.Post("/resolve", s.resolveListing)
		r.Get("/{identifier}", s.getListing)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	for _, check := range s.checks {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type resolveRequest struct {
	URL string `json:"url"`
}

func (s *Server) resolveListing(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "url required")
		return
	}
	record, err := s.listings.Resolve(r.Context(), req.URL)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) getListing(w http.ResponseWriter, r *http.Request) {
	record, err := s.listings.Get(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "listing not found")
			return
		}
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
