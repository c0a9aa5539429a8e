package context

import (
	"context"
)

type contextKey string

const RunIDKey contextKey = "run_id"

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func GetRunID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	runID, ok := ctx.Value(RunIDKey).(string)
	if !ok || runID == "" {
		return "unknown"
	}
	return runID
}
