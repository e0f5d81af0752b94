// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"statusboard/internal/controller/handlers"
	"statusboard/internal/controller/middleware"
	"statusboard/internal/store"
)

// Options configures the routes mounted by the server.
type Options struct {
	// APIPrefix is prepended to every API route; it starts and ends with "/".
	APIPrefix string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// ReportLimiter throttles the public report route when set.
	ReportLimiter *middleware.RateLimiter
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(addr string, h *handlers.Handlers, users store.UserStore, logger *slog.Logger, opts Options) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewHandler(h, users, logger, opts),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// NewHandler builds the routed and wrapped HTTP handler.
func NewHandler(h *handlers.Handlers, users store.UserStore, logger *slog.Logger, opts Options) http.Handler {
	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = "/api/"
	}

	authMW := middleware.Auth(users)
	reportMW := func(next http.Handler) http.Handler { return next }
	if opts.ReportLimiter != nil {
		reportMW = opts.ReportLimiter.Middleware()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	// Authenticated apis, scoped to the caller
	mux.Handle("POST "+prefix+"secure/jobs", authMW(http.HandlerFunc(h.SubmitJob)))
	mux.Handle("GET "+prefix+"secure/status/jobs", authMW(http.HandlerFunc(h.GetUserJobs)))
	mux.Handle("GET "+prefix+"secure/status/jobs/all", authMW(http.HandlerFunc(h.GetAllJobs)))
	mux.Handle("GET "+prefix+"secure/status/jobs/{jobId}", authMW(http.HandlerFunc(h.GetJob)))

	// Public endpoint
	// Called by provisioned deploy instances, authenticated by the job token.
	mux.Handle("POST "+prefix+"public/status/jobs/{jobId}", reportMW(http.HandlerFunc(h.ReportJobStatus)))

	return middleware.Recover(logger)(middleware.Logging(logger)(mux))
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
