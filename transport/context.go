package transport

import "context"

// RequestIDHeader is the header used to correlate client and server logs.
const RequestIDHeader = "X-Request-ID"

type requestIDContextKey struct{}

// WithRequestID attaches a request identifier that the adapter forwards as
// X-Request-ID instead of generating one.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the identifier set by [WithRequestID].
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
