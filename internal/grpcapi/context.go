package grpcapi

import (
	"context"

	"torchserved/internal/auth"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	claimsKey
)

// RequestIDHeader is the metadata key carrying the request id in both directions.
const RequestIDHeader = "x-request-id"

// RequestID returns the id assigned by the request-id interceptor.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ClaimsFrom returns the token claims of an authenticated call, if any.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}
