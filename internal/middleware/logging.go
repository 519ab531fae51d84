package middleware

import (
	"context"
	"net/http"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// LogRequest logs every request with a request id. An incoming X-Request-Id
// is kept, otherwise a new one is generated. The id is echoed back in the
// response header.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			log.WithFields(log.Fields{
				"request_id": requestID,
				"trace_id":   tracing.TraceID(ctx),
			}).Debugf(" ====> request [%s] path: [%s] [UA: %s]", r.Method, r.URL.Path, r.UserAgent())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the id LogRequest attached to the context.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
