package grpcx

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDMetadataKey is the metadata key for request id propagation.
// gRPC metadata keys are lowercased on the wire.
const RequestIDMetadataKey = "x-request-id"

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func NewRequestID() string {
	return uuid.NewString()
}
