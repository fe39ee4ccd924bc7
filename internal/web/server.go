// Package web provides the HTTP API for check runs.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JonMunkholm/refcheck/internal/config"
	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/JonMunkholm/refcheck/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the check service.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	limits  []*rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := s.newLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Streams run until the check finishes, so they skip the request timeout.
		r.Get("/checks/{runID}/progress", s.handleCheckProgress)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

			r.Get("/kinds", s.handleListKinds)
			r.Get("/status", s.handleStatus)
			r.Get("/checks", s.handleListChecks)
			r.Get("/checks/{runID}", s.handleCheckResult)

			r.Group(func(r chi.Router) {
				r.Use(middleware.APIKeyAuth(&s.cfg.Security))
				if s.cfg.Rate.Enabled {
					r.With(s.newLimiter(s.cfg.Rate.StartLimit, time.Minute).middleware).
						Post("/checks", s.handleStartCheck)
				} else {
					r.Post("/checks", s.handleStartCheck)
				}
				r.Post("/checks/{runID}/cancel", s.handleCancelCheck)
			})
		})
	})
}

func (s *Server) newLimiter(rate int, window time.Duration) *rateLimiter {
	rl := newRateLimiter(rate, window)
	s.limits = append(s.limits, rl)
	return rl
}

// Run listens on the configured address and serves until ctx is done.
// See Serve for the shutdown sequence.
func (s *Server) Run(ctx context.Context, drain func(context.Context)) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return err
	}
	slog.Info("server starting", "addr", ln.Addr().String())
	return s.Serve(ctx, ln, drain)
}

// Serve accepts connections on ln until ctx is done. It then calls drain
// (if non-nil), shuts the HTTP server down and returns only after in-flight
// requests have finished or SERVER_SHUTDOWN_TIMEOUT has passed.
// drain and the shutdown share that timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener, drain func(context.Context)) error {
	defer s.Shutdown(context.Background())

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if drain != nil {
		drain(shutdownCtx)
	}

	err := srv.Shutdown(shutdownCtx)
	if e := <-serveErr; err == nil && !errors.Is(e, http.ErrServerClosed) {
		err = e
	}
	return err
}

// Shutdown stops the rate limiter sweepers. It is safe to call more than
// once.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limits {
		rl.Stop()
	}
	return nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
