package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/transport"
)

// WithRequestID attaches a correlation id that is forwarded as X-Request-ID
// and recorded on emitted events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return transport.WithRequestID(ctx, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	return transport.RequestIDFromContext(ctx)
}
