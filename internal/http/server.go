// Package http serves the recap JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"recap/internal/collection"
	"recap/internal/log"
	"recap/internal/middleware/ratelimit"
	"recap/internal/middleware/security"
	"recap/internal/middleware/trace"
	"recap/internal/services"
)

// Config holds the server settings.
type Config struct {
	Addr              string
	DefaultYear       int
	MaxUploadBytes    int64
	RequestsPerMinute int
}

type Server struct {
	http.Server

	store       collection.Store
	recaps      *services.RecapService
	ready       func(ctx context.Context) error
	defaultYear int
	maxUpload   int64

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware. ready may be nil.
func NewServer(cfg Config, store collection.Store, recaps *services.RecapService, ready func(ctx context.Context) error, logger *log.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.DefaultYear == 0 {
		cfg.DefaultYear = time.Now().Year()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		store:       store,
		recaps:      recaps,
		ready:       ready,
		defaultYear: cfg.DefaultYear,
		maxUpload:   cfg.MaxUploadBytes,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		detector:    security.NewDetector(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("POST /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/imports", s.handleCreateImport)
	mux.HandleFunc("GET /api/imports", s.handleListImports)
	mux.HandleFunc("GET /api/imports/{id}", s.handleGetImport)
	mux.HandleFunc("GET /api/imports/{id}/summary", s.handleImportSummary)
	mux.HandleFunc("GET /api/overrides", s.handleListOverrides)
	mux.HandleFunc("PUT /api/overrides/{gameID}", s.handleSetOverride)
	mux.HandleFunc("DELETE /api/overrides/{gameID}", s.handleDeleteOverride)

	tracer := trace.NewMiddleware(s.detector.ExtractClientIP, logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = log.Middleware(logger, func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeJSON(w, r, http.StatusTooManyRequests, errorResponse{
		Error:     "rate limit exceeded, try again later",
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
