package review

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/scrapeking/idgen"
)

type contextKey string

const (
	loggerKey contextKey = "review_logger"
	runIDKey  contextKey = "review_run_id"
)

// securityHeaders locks responses down to data: nothing is rendered or
// framed.
func securityHeaders(r chi.Router) {
	r.Use(
		middleware.SetHeader("X-Content-Type-Options", "nosniff"),
		middleware.SetHeader("X-Frame-Options", "DENY"),
		middleware.SetHeader("Referrer-Policy", "no-referrer"),
		middleware.SetHeader("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"),
	)
}

// traceID tags each request with an ID from gen. The ID is echoed in
// X-Trace-ID, stored as the chi request ID and carried by a per-request
// logger.
func traceID(base *slog.Logger, gen idgen.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := gen()
			w.Header().Set("X-Trace-ID", id)
			logger := base.With(
				"trace_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			logger.Debug("review: request")
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
			ctx = context.WithValue(ctx, loggerKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger returns the per-request logger, or slog.Default().
func requestLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// runIDParam validates the {id} URL parameter as a run ID and stores its
// canonical form. Malformed IDs get a 400.
func runIDParam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := idgen.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ctx := context.WithValue(r.Context(), runIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func runID(r *http.Request) string {
	id, _ := r.Context().Value(runIDKey).(string)
	return id
}
