// Package api is the HTTP transport of the intake service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/intake/service"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Options are the optional parts of a Server.
type Options struct {
	Observability *observability.Observability
	// Checks run on /ready, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

type Server struct {
	svc     *service.Service
	cfg     config.ServerConfig
	obs     *observability.Observability
	log     logger.Logger
	limiter *clientLimiter
	checks  map[string]ReadinessCheck
	router  *chi.Mux
}

func NewServer(svc *service.Service, cfg config.ServerConfig, log logger.Logger, opts Options) *Server {
	s := &Server{
		svc:     svc,
		cfg:     cfg,
		obs:     opts.Observability,
		log:     log.WithFields(map[string]interface{}{"component": "api"}),
		limiter: newClientLimiter(cfg.RateLimit, cfg.RateBurst, 10*time.Minute),
		checks:  opts.Checks,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(config.GetDuration(s.cfg.RequestTimeout)))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.instrument)
		r.Use(s.rateLimit)

		r.Post("/chat", s.handleChat)
		r.Post("/verify-pan", s.handleVerifyPAN)
		r.Post("/verify-aadhaar", s.handleVerifyAadhaar)
		r.Post("/upload-doc", s.handleUploadDocument)
		r.Post("/run-fraud", s.handleRunFraud)
		r.Post("/loan-options", s.handleLoanOptions)
		r.Post("/generate-sanction", s.handleGenerateSanction)
		r.Get("/generate-sanction", s.handleDownloadSanction)
		r.Post("/reset", s.handleReset)
		r.Get("/sessions/{sessionId}", s.handleGetSession)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps the router with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s,
		ReadTimeout:  config.GetDuration(s.cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(s.cfg.WriteTimeout),
		IdleTimeout:  config.GetDuration(s.cfg.IdleTimeout),
	}
}

// ==========================
// Ops endpoints
// ==========================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.svc.Sessions(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		s.log.Warn("Readiness check failed", map[string]interface{}{"checks": failed})
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not ready",
			"checks": failed,
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}
