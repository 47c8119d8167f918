package httpkit

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/productcatalog/platform/pkg/mlog"
)

// HeaderCorrelationID is the correlation-id header forwarded end to end,
// generated at the gateway if absent and always reflected in the response.
const HeaderCorrelationID = "X-Correlation-ID"

type correlationIDCtxKey struct{}

// WithCorrelationID forwards an incoming X-Correlation-ID or generates one,
// reflects it on the response, and stores it in the request context.
func WithCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(HeaderCorrelationID)
		if cid == "" {
			cid = uuid.NewString()
		}

		w.Header().Set(HeaderCorrelationID, cid)

		ctx := contextWithCorrelationID(r.Context(), cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDCtxKey{}, cid)
}

// CorrelationIDFromContext returns the correlation id stored by
// WithCorrelationID, or "" if none was installed.
func CorrelationIDFromContext(ctx context.Context) string {
	cid, _ := ctx.Value(correlationIDCtxKey{}).(string)
	return cid
}

// statusRecorder captures the status code written so the access log can
// report it after the handler chain completes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// WithLogging installs a correlation-id-scoped logger on the request
// context and emits one access-log entry per request, skipping /health.
func WithLogging(base mlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			cid := CorrelationIDFromContext(r.Context())
			logger := base.WithFields(HeaderCorrelationID, cid)

			ctx := mlog.ContextWithLogger(r.Context(), logger)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			duration := time.Since(start)

			logger.Infof("%s %s %d %s", r.Method, r.URL.Path, rec.status, duration)
		})
	}
}
