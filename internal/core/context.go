package core

import "context"

type ctxKey int

const correlationIDKey ctxKey = iota

// WithCorrelationID attaches the request correlation ID to ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation ID of ctx, or "" if none is set.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
