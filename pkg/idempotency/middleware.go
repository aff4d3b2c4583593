package idempotency

import (
	"context"
	"net/http"

	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"go.uber.org/zap"
)

const HeaderKey = "Idempotency-Key"

type Checker interface {
	Key(scope, userID, key string) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware rejects a replayed Idempotency-Key with 409. Requests without the
// header pass through. A key whose request got a non-2xx response is released.
// userOf extracts the caller identity so keys are scoped per user.
func Middleware(c Checker, scope string, userOf func(*http.Request) string, log logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderKey)
			if raw == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := c.Key(scope, userOf(r), raw)
			seen, err := c.Seen(r.Context(), key)
			if err != nil {
				// fail open
				log.Warn("idempotency check failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"success":false,"error":"duplicate request"}`))
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status < http.StatusOK || rec.status >= http.StatusMultipleChoices {
				if err := c.Forget(context.WithoutCancel(r.Context()), key); err != nil {
					log.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
				}
			}
		})
	}
}
