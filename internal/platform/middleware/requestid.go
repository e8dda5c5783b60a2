package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"orgguard/pkg/requestcontext"
)

// RequestIDHeader is the inbound/outbound correlation header. The event
// dispatcher may supply its own ID; otherwise one is generated.
const RequestIDHeader = "X-Request-Id"

// RequestID attaches a correlation ID to the request context and echoes it in
// the response so audit records and dispatcher logs can be joined.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
