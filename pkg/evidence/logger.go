package evidence

import (
	"context"
	"log/slog"
)

// Recorder persists a completed invocation.
type Recorder interface {
	Record(ctx context.Context, inv *Invocation) error
}

// Logger wraps a Recorder and emits a structured log line per journal write.
type Logger struct {
	store Recorder
	log   *slog.Logger
}

// NewLogger creates a journal logger backed by the given recorder.
func NewLogger(store Recorder, log *slog.Logger) *Logger {
	return &Logger{store: store, log: log}
}

// Record persists and logs the invocation.
func (l *Logger) Record(ctx context.Context, inv *Invocation) error {
	if err := l.store.Record(ctx, inv); err != nil {
		l.log.ErrorContext(ctx, "journal record failed",
			"call_id", inv.CallID,
			"tenant_id", inv.TenantID,
			"error", err,
		)
		return err
	}

	l.log.InfoContext(ctx, "tool_invocation recorded",
		"call_id", inv.CallID,
		"tenant_id", inv.TenantID,
		"agent_id", inv.AgentID,
		"tool", inv.Tool,
		"status", inv.Status,
		"duration_ms", inv.DurationMS,
		"hash", inv.Hash,
	)
	return nil
}
