// Package middleware holds the HTTP middleware shared by the bopweb router.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	apperrors "bopcli/internal/errors"
	"bopcli/internal/infrastructure"
)

// TraceID copies chi's request ID into the logging trace ID and echoes it
// in the X-Request-ID response header. It must run after chi's RequestID.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			ctx = infrastructure.WithTraceID(ctx, reqID)
			w.Header().Set(chimw.RequestIDHeader, reqID)
		} else {
			ctx = infrastructure.EnsureTraceID(ctx)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimiter rejects requests beyond a token-bucket budget
type RateLimiter struct {
	limiter    *rate.Limiter
	retryAfter int
	logger     *slog.Logger
}

// NewRateLimiter allows rps requests per second with the given burst
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if burst < 1 {
		burst = 1
	}
	retryAfter := 1
	if rps > 0 && rps < 1 {
		retryAfter = int(1/rps + 0.5)
	}
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		retryAfter: retryAfter,
		logger:     logger,
	}
}

// Handler implements rate limiting middleware
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter))
			problem := apperrors.NewProblemDetails(http.StatusTooManyRequests, "/errors/rate-limit", "Too Many Requests",
				"Rate limit exceeded", r.URL.Path).WithExtension("retry_after", rl.retryAfter)
			if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
				problem.WithExtension("trace_id", traceID)
			}
			_ = render.Render(w, r, problem)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds the headers a JSON API should always send
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
