package config

import (
	"strings"

	"github.com/aretw0/history"
	"github.com/aretw0/history/pkg/domain"
)

// Hook returns a before hook that vetoes transitions into the guarded prefix.
// The guard's message is handed to the Confirmer; without a message the transition is rejected.
func (g Guard) Hook() history.BeforeHook {
	return history.SyncHook(func(loc domain.Location) any {
		if !strings.HasPrefix(loc.Pathname, g.Prefix) {
			return nil
		}
		if g.Message == "" {
			return false
		}
		return g.Message
	})
}

// GuardHooks converts guards to before hooks, in order.
func GuardHooks(guards []Guard) []history.BeforeHook {
	hooks := make([]history.BeforeHook, len(guards))
	for i, g := range guards {
		hooks[i] = g.Hook()
	}
	return hooks
}
