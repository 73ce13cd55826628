// internal/api/middleware.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	commonerrors "loan-intake/internal/common/errors"
)

// instrument traces, times and logs every API request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := r.Context()
		if s.obs != nil {
			var span trace.Span
			ctx, span = s.obs.StartSpan(ctx, r.Method+" "+r.URL.Path)
			defer span.End()
		}

		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		if s.obs != nil {
			s.obs.RecordRequest(ctx, route, status, duration)
		}
		s.log.Debug("Request served", map[string]interface{}{
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"durationMs": duration.Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}

// rateLimit applies a token bucket per client address.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r), time.Now()) {
			s.respondError(w, r, commonerrors.NewRateLimitedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}
