// Package notify publishes short human-readable notifications about
// completed operations. Delivery is at-most-once: a Notifier never blocks the
// caller on the broker and never reports failure back to it.
package notify

import (
	"context"
	"log/slog"
)

type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Log writes notifications to the structured log only.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Notify(ctx context.Context, msg string) {
	l.log.InfoContext(ctx, "notification", "message", msg)
}

type Nop struct{}

func (Nop) Notify(context.Context, string) {}
