package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"edash/internal/cache"
	"edash/internal/log"
	"edash/internal/snapshot"
)

type Server struct {
	http.Server
	store       *snapshot.Store
	rateLimiter *rateLimiter
	logger      *log.Logger
	metrics     *securityMetrics

	// LRU cache for rendered API responses. Keys embed the snapshot
	// refresh timestamp, so a refresh naturally invalidates stale entries.
	responseCache *cache.LRUCache[[]byte]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, store *snapshot.Store, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:         store,
		rateLimiter:   newRateLimiter(),
		logger:        logger.WithComponent(log.ComponentHTTP),
		metrics:       &securityMetrics{},
		responseCache: cache.NewLRUCache[[]byte](256, time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.responseCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/feeds", s.withSecurityHeaders(s.handleFeeds))
	mux.HandleFunc("/api/kpis", s.withSecurityHeaders(s.handleKPIs))
	mux.HandleFunc("/api/weekly", s.withSecurityHeaders(s.handleWeekly))
	mux.HandleFunc("/api/breakdown", s.withSecurityHeaders(s.handleBreakdown))
	mux.HandleFunc("/api/refresh", s.withSecurityHeaders(s.handleRefresh))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "suspicious request",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		// Refresh triggers hit the upstream backend, so POSTs are rate
		// limited per client.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatus, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
