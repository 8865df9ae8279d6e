package curation

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const RunIDKey ctxKey = "run_id"

// WithRunID tags the context with a fresh run id for log correlation.
func WithRunID(ctx context.Context) context.Context {
	return context.WithValue(ctx, RunIDKey, uuid.NewString())
}

func RunIDFromContext(ctx context.Context) string {
	if v := ctx.Value(RunIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
