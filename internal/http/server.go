// Package http serves the tracker's JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"tracker/internal/app"
	"tracker/internal/cache"
	"tracker/internal/log"
	"tracker/internal/metrics"
)

// Server handles API requests one at a time against a single app.State.
type Server struct {
	http.Server
	state   *app.State
	metrics *metrics.Recorder
	limiter *rateLimiter
	logger  *log.Logger
	now     func() time.Time

	// mu serializes API handlers.
	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger used by the request middleware.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit caps mutating requests per client IP per window.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) { s.limiter = newRateLimiter(limit, window) }
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(addr string, state *app.State, opts ...Option) *Server {
	s := &Server{
		state:   state,
		limiter: newRateLimiter(60, time.Minute),
		logger:  log.Default(log.ComponentHTTP),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.guard(h))
	}
	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api("POST /api/filters/reset", s.handleResetFilters)
	api("GET /api/summary", s.handleSummary)
	api("GET /api/chart", s.handleChart)
	api("GET /api/categories", s.handleCategories)
	api("GET /api/reports/monthly", s.handleMonthlyReport)
	api("GET /api/export", s.handleExport)
	api("POST /api/import", s.handleImport)
	api("GET /api/theme", s.handleGetTheme)
	api("PUT /api/theme", s.handlePutTheme)
	api("POST /api/theme/toggle", s.handleToggleTheme)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(s.logger)(s.instrument(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// RateLimiter exposes the limiter so its idle clients can be swept by the
// cache manager.
func (s *Server) RateLimiter() cache.Cleaner {
	return s.limiter
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Shutdown(shutdownCtx)
}

// guard applies security headers and rate limiting, then runs next while
// holding the server lock.
func (s *Server) guard(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())

		if isMutating(r.Method) {
			clientIP := extractClientIP(r)
			if !s.limiter.allow(clientIP) {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				NewResponse().Status(http.StatusTooManyRequests).
					JSON(w, ErrorResponse{Error: "rate limit exceeded"})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		next(w, r)
	})
}

// instrument records per-route request metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.Request(route, rw.statusCode, time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
