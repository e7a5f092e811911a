package runtime

import "github.com/aretw0/history/pkg/domain"

// BeforeHook is consulted before a transition is finalized.
//
// A hook produces a result: nil means "no opinion, continue"; any other value stops the
// confirmation chain and becomes the message. false rejects, a string is passed to the
// Confirmer (when one is configured), anything else approves.
//
// Hooks are built with SyncHook or AsyncHook; the zero value is a hook that always continues.
type BeforeHook struct {
	sync  func(domain.Location) any
	async func(domain.Location, func(any))
}

// SyncHook wraps a hook whose return value is its result.
func SyncHook(fn func(loc domain.Location) any) BeforeHook {
	return BeforeHook{sync: fn}
}

// AsyncHook wraps a hook that reports its result through done, now or later.
// done must be called exactly once; further calls are ignored.
func AsyncHook(fn func(loc domain.Location, done func(result any))) BeforeHook {
	return BeforeHook{async: fn}
}

// Block returns a hook that vetoes every transition with message.
func Block(message string) BeforeHook {
	return SyncHook(func(domain.Location) any { return message })
}

func (h BeforeHook) run(loc domain.Location, callback func(any)) {
	switch {
	case h.async != nil:
		h.async(loc, callback)
	case h.sync != nil:
		callback(h.sync(loc))
	default:
		callback(nil)
	}
}

// Listener receives the finalized location after every successful transition.
type Listener func(loc domain.Location)

type registration[T any] struct {
	id uint64
	fn T
}
