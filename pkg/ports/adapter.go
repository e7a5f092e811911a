package ports

import "github.com/aretw0/history/pkg/domain"

// Adapter reads and writes a concrete navigation substrate (an in-memory list,
// a browser address bar, a terminal screen stack...). The engine owns ordering and
// confirmation; the adapter only performs the primitive moves.
type Adapter interface {
	// CurrentLocation returns whatever the adapter considers "now".
	CurrentLocation() domain.Location

	// PushLocation writes a new entry after the current one.
	// Returning false tells the engine the adapter handled the navigation out of band
	// and the engine must not record it.
	PushLocation(loc domain.Location) bool

	// ReplaceLocation overwrites the current entry. Same contract as PushLocation.
	ReplaceLocation(loc domain.Location) bool

	// Go moves the adapter's position by delta entries. Zero is a no-op.
	Go(delta int)
}

// PopNotifier is implemented by adapters that can move on their own (back/forward
// buttons, external events). The engine registers fn to receive POP locations.
type PopNotifier interface {
	OnPop(fn func(domain.Location))
}

// Confirmer turns a veto message into a yes/no decision, typically by asking the user.
// callback may be invoked synchronously or later.
type Confirmer interface {
	Confirm(message string, callback func(ok bool))
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(message string, callback func(ok bool))

// Confirm calls f.
func (f ConfirmFunc) Confirm(message string, callback func(ok bool)) {
	f(message, callback)
}
