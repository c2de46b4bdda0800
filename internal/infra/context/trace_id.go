package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext extracts the trace ID from the context.
// Returns the trace ID and true if present, or empty string and false if not present.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok
}

// WithTraceID creates a new context with the given trace ID value.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// WithNewTraceID attaches a fresh time-ordered trace ID to the context, so all
// log records of one user action can be correlated.
func WithNewTraceID(ctx context.Context) (context.Context, string) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	traceID := id.String()

	return WithTraceID(ctx, traceID), traceID
}
