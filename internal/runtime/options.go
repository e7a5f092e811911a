package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
)

// DefaultKeyLength is the length of generated location keys.
const DefaultKeyLength = 6

// MaxKeyLength bounds configured key lengths.
const MaxKeyLength = 11

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithConfirmer sets the collaborator that answers string veto messages.
// Without it, adapters implementing ports.Confirmer are used.
func WithConfirmer(c ports.Confirmer) EngineOption {
	return func(e *Engine) {
		e.confirmer = c
	}
}

// WithKeyLength sets the length of generated keys. Values outside
// [1, MaxKeyLength] fall back to DefaultKeyLength with a warning.
func WithKeyLength(n int) EngineOption {
	return func(e *Engine) {
		e.keyLength = n
	}
}

// WithContext sets the context passed to lifecycle hooks.
func WithContext(ctx context.Context) EngineOption {
	return func(e *Engine) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}
