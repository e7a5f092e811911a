package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/history/pkg/domain"
)

// AuditHooks logs every lifecycle event on logger.
// Commits log at Info, vetoes and rewinds at Warn, the rest at Debug.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(level slog.Level) func(context.Context, *domain.TransitionEvent) {
		return func(ctx context.Context, e *domain.TransitionEvent) {
			attrs := []any{
				"action", e.Action,
				"to", e.To.Path(),
				"key", e.To.Key,
			}
			if e.From != nil {
				attrs = append(attrs, "from", e.From.Path())
			}
			if e.Message != nil {
				attrs = append(attrs, "message", e.Message)
			}
			if e.Type == domain.EventRewind {
				attrs = append(attrs, "delta", e.Delta)
			}
			logger.Log(ctx, level, string(e.Type), attrs...)
		}
	}

	return domain.LifecycleHooks{
		OnTransitionStart:      log(slog.LevelDebug),
		OnTransitionCommit:     log(slog.LevelInfo),
		OnTransitionReject:     log(slog.LevelWarn),
		OnTransitionSuperseded: log(slog.LevelDebug),
		OnRewind:               log(slog.LevelWarn),
	}
}
