// Package api serves scans over HTTP: uploads and clone requests start a
// scan, stored scans are listed and read back, and the model answers
// questions about them.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"repoviz/internal/config"
	"repoviz/internal/llm"
	"repoviz/internal/scan"
	"repoviz/internal/slogutil"
	"repoviz/internal/source"
)

// ScanStore persists scan results.
type ScanStore interface {
	Save(ctx context.Context, r *scan.Result) error
	Get(ctx context.Context, id string) (*scan.Result, error)
	List(ctx context.Context, limit int) ([]scan.Header, error)
	Delete(ctx context.Context, id string) error
}

// Options holds the components a Server drives. Assistant may be nil, in
// which case the model endpoints answer LLM_UNAVAILABLE.
type Options struct {
	Pipeline  *scan.Pipeline
	Store     ScanStore
	Archives  *source.ArchiveLoader
	Git       *source.GitLoader
	Assistant *llm.Assistant
}

// Server represents the HTTP API server
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	addr    string
	cfg     config.ServerConfig
	logger  *slog.Logger
	opts    Options
	started time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(cfg config.ServerConfig, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultConfig().Server.MaxUploadBytes
	}
	s := &Server{
		addr:    cfg.Addr,
		cfg:     cfg,
		logger:  logger,
		opts:    opts,
		router:  http.NewServeMux(),
		started: time.Now(),
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.applyMiddleware(s.router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       seconds(cfg.ReadTimeoutSeconds, 60),
		WriteTimeout:      seconds(cfg.WriteTimeoutSeconds, 180),
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		"addr", s.addr,
		"auth", s.cfg.TokenHash != "",
		"llm", s.opts.Assistant.Available(),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = AuthMiddleware(s.cfg.TokenHash, s.logger)(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler
}
