package domain

import (
	"context"
	"time"
)

type runIDKey struct{}

// WithRunID attaches the id of the current pipeline run to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id stored in ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// RunSummary describes the outcome of one pipeline run.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Features   int       `json:"features"`
	Error      string    `json:"error,omitempty"`
}

// Succeeded reports whether the run emitted its collection.
func (s RunSummary) Succeeded() bool { return s.Error == "" }
