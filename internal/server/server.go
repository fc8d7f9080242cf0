// Package server exposes the diagram pipeline over HTTP.
//
// Routes:
//
//	POST /v1/diagrams   JSON rows → {"url","apps","rows","cells"} (?format=xml for the document)
//	POST /v1/decode     {"payload": "..."} or a viewer URL → draw.io XML
//	GET  /health        liveness and build version
//	GET  /metrics       Prometheus exposition
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/interflow/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 8 << 20

const shutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	Runner *pipeline.Runner

	// Options are the defaults for every request. StrictAppTypes can be
	// turned on per request with ?strict=true.
	Options pipeline.Options

	Logger *log.Logger

	// Metrics serves /metrics. Nil uses promhttp.Handler().
	Metrics http.Handler

	MaxBodyBytes int64
}

// Server is an http.Handler for the pipeline routes.
type Server struct {
	runner  *pipeline.Runner
	opts    pipeline.Options
	logger  *log.Logger
	maxBody int64
	router  chi.Router
}

// New builds the router.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		opts:    cfg.Options,
		logger:  cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/diagrams", s.handleDiagrams)
		r.Post("/decode", s.handleDecode)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
