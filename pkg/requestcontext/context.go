// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware but consumed by services. Keeping this package
// free of net/http dependencies lets services import only what they need.
//
// Usage in services (read values):
//
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithRequestID(ctx, requestID)
package requestcontext

import "context"

// Context key types (unexported for encapsulation).
type (
	requestIDKey     struct{}
	sourceEventIDKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyRequestID     = requestIDKey{}
	ContextKeySourceEventID = sourceEventIDKey{}
)

// RequestID retrieves the request correlation ID from the context.
// Returns "" if not set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// SourceEventID retrieves the inbound event ID from the context.
// Returns "" if not set.
func SourceEventID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeySourceEventID).(string); ok {
		return id
	}
	return ""
}

// WithSourceEventID injects the inbound event ID into the context.
func WithSourceEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeySourceEventID, id)
}
