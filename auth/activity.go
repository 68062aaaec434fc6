package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventRefreshSuccess    ActivityEventType = "auth.refresh.success"
	ActivityEventRefreshFailure    ActivityEventType = "auth.refresh.failure"
	ActivityEventLogout            ActivityEventType = "auth.logout"
	ActivityEventRegistered        ActivityEventType = "user.registered"
	ActivityEventUserStatusChanged ActivityEventType = "user.status.changed"
	ActivityEventPasswordChanged   ActivityEventType = "user.password.changed"
	ActivityEventAnonymousFallback ActivityEventType = "auth.optional.anonymous"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     int64
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// LoggingActivitySink writes every event to a Logger at info level
type LoggingActivitySink struct {
	Logger Logger
}

func (s LoggingActivitySink) Record(_ context.Context, event ActivityEvent) error {
	logger := normalizeLogger(s.Logger)
	args := []any{
		"event", string(event.EventType),
		"user_id", event.UserID,
		"occurred_at", event.OccurredAt,
	}
	for k, v := range event.Metadata {
		args = append(args, k, v)
	}
	logger.Info("activity", args...)
	return nil
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// recordActivity emits best effort. Sink errors are logged, never returned.
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		normalizeLogger(logger).Warn("activity sink failed", "event", string(event.EventType), "error", err)
	}
}
