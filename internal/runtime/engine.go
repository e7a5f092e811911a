package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/history/internal/logging"
	"github.com/aretw0/history/internal/loop"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
)

const keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Engine is the transition state machine.
//
// It is Idle while no transition is pending and Pending while before hooks (or the
// Confirmer) deliberate on a candidate. A newer request supersedes the pending one;
// the older outcome is dropped when it eventually arrives.
//
// The mutex guards engine fields only. It is never held while calling hooks, listeners,
// the Confirmer or the adapter, so all of them may call back into the engine.
type Engine struct {
	adapter   ports.Adapter
	confirmer ports.Confirmer
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	keyLength int
	ctx       context.Context

	mu        sync.Mutex
	current   *domain.Location
	pending   *domain.Location
	before    []registration[BeforeHook]
	listeners []registration[Listener]
	keys      *KeyStack
	seq       uint64
}

// NewEngine creates an engine over the given adapter.
// When the adapter implements ports.PopNotifier, its POP events are routed to TransitionTo.
func NewEngine(adapter ports.Adapter, opts ...EngineOption) *Engine {
	e := &Engine{
		adapter:   adapter,
		logger:    logging.NewNop(),
		keyLength: DefaultKeyLength,
		ctx:       context.Background(),
		keys:      NewKeyStack(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.keyLength < 1 || e.keyLength > MaxKeyLength {
		e.logger.Warn("invalid key length, using default",
			"key_length", e.keyLength,
			"default", DefaultKeyLength,
		)
		e.keyLength = DefaultKeyLength
	}

	if e.confirmer == nil {
		if c, ok := adapter.(ports.Confirmer); ok {
			e.confirmer = c
		}
	}

	if n, ok := adapter.(ports.PopNotifier); ok {
		n.OnPop(e.TransitionTo)
	}

	return e
}

// Location returns the last finalized location. The first read takes the adapter's
// current location as the starting point.
func (e *Engine) Location() domain.Location {
	e.ensureCurrent()

	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.current
}

// ensureCurrent seeds the current location and the key stack from the adapter the
// first time the engine needs them. The adapter is read without holding mu.
func (e *Engine) ensureCurrent() {
	e.mu.Lock()
	seeded := e.current != nil
	e.mu.Unlock()
	if seeded {
		return
	}

	loc := e.adapter.CurrentLocation()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		return
	}
	e.current = &loc
	if e.keys.Len() == 0 {
		e.keys = NewKeyStack(loc.Key)
	}
}

// Pending reports whether a transition is awaiting confirmation.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// Keys returns the key stack as currently known to the engine.
func (e *Engine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keys.Keys()
}

// ListenBefore registers a hook consulted, in registration order, before each transition.
// The returned function removes this registration.
func (e *Engine) ListenBefore(hook BeforeHook) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	id := e.seq
	e.before = append(e.before, registration[BeforeHook]{id: id, fn: hook})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.before = unregister(e.before, id)
	}
}

// Listen registers a listener invoked, in registration order, after every finalized transition.
// The returned function removes this registration.
func (e *Engine) Listen(listener Listener) func() {
	e.ensureCurrent()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	id := e.seq
	e.listeners = append(e.listeners, registration[Listener]{id: id, fn: listener})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listeners = unregister(e.listeners, id)
	}
}

func unregister[T any](regs []registration[T], id uint64) []registration[T] {
	return slices.DeleteFunc(slices.Clone(regs), func(r registration[T]) bool {
		return r.id == id
	})
}

// TransitionTo requests a move to next.
//
// It is a no-op when next equals the current or the pending location. Otherwise next
// becomes the pending transition and the before hooks run. The outcome is applied only
// if no newer request superseded it in the meantime.
//
// It panics if next carries a function or time.Time in its state.
func (e *Engine) TransitionTo(next domain.Location) {
	e.ensureCurrent()

	candidate, hooks, from, ok := e.begin(next)
	if !ok {
		e.logger.Debug("transition skipped, location unchanged",
			"path", next.Path(),
			"key", next.Key,
			"action", next.Action,
		)
		return
	}

	e.logger.Debug("transition started",
		"path", next.Path(),
		"key", next.Key,
		"action", next.Action,
		"hooks", len(hooks),
	)
	e.emit(e.hooks.OnTransitionStart, &domain.TransitionEvent{
		Type:   domain.EventTransitionStart,
		Action: next.Action,
		From:   from,
		To:     next,
	})

	e.confirm(next, hooks, func(approved bool, message any) {
		e.finish(candidate, approved, message)
	})
}

// begin registers next as the pending transition and snapshots the hooks.
func (e *Engine) begin(next domain.Location) (*domain.Location, []BeforeHook, *domain.Location, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil && domain.LocationsAreEqual(*e.current, next) {
		return nil, nil, nil, false
	}
	if e.pending != nil && domain.LocationsAreEqual(*e.pending, next) {
		return nil, nil, nil, false
	}

	candidate := &next
	e.pending = candidate

	hooks := make([]BeforeHook, len(e.before))
	for i, r := range e.before {
		hooks[i] = r.fn
	}
	return candidate, hooks, e.currentCopy(), true
}

// confirm runs the hook chain and resolves the final message into an approval.
func (e *Engine) confirm(loc domain.Location, hooks []BeforeHook, callback func(approved bool, message any)) {
	loop.Run(len(hooks), func(turn int, next func(), done func(any)) {
		hooks[turn].run(loc, func(result any) {
			if result != nil {
				done(result)
				return
			}
			next()
		})
	}, func(message any, _ bool) {
		if text, ok := message.(string); ok && e.confirmer != nil {
			var once sync.Once
			e.confirmer.Confirm(text, func(ok bool) {
				once.Do(func() { callback(ok, message) })
			})
			return
		}
		callback(message != false, message)
	})
}

// finish applies the outcome of a confirmation for candidate.
func (e *Engine) finish(candidate *domain.Location, approved bool, message any) {
	next, from, live := e.settle(candidate, approved)
	if !live {
		e.logger.Debug("transition superseded, dropping outcome",
			"path", candidate.Path(),
			"key", candidate.Key,
		)
		e.emit(e.hooks.OnTransitionSuperseded, &domain.TransitionEvent{
			Type:    domain.EventTransitionSuperseded,
			Action:  candidate.Action,
			From:    from,
			To:      *candidate,
			Message: message,
		})
		return
	}

	if approved {
		e.apply(next)
		return
	}

	e.logger.Debug("transition rejected", "path", next.Path(), "action", next.Action, "message", message)
	e.emit(e.hooks.OnTransitionReject, &domain.TransitionEvent{
		Type:    domain.EventTransitionReject,
		Action:  next.Action,
		From:    from,
		To:      next,
		Message: message,
	})

	if next.Action == domain.Pop && from != nil {
		e.rewind(*from, next)
	}
}

// settle clears the pending slot if candidate still owns it and applies the
// PUSH to REPLACE downgrade for approved pushes that change nothing.
func (e *Engine) settle(candidate *domain.Location, approved bool) (domain.Location, *domain.Location, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	from := e.currentCopy()
	if e.pending != candidate {
		return domain.Location{}, from, false
	}
	e.pending = nil

	next := *candidate
	if approved && next.Action == domain.Push && from != nil &&
		domain.CreatePath(*from) == domain.CreatePath(next) &&
		domain.StatesAreEqual(from.State, next.State) {
		next.Action = domain.Replace
	}
	return next, from, true
}

// apply writes an approved transition through the adapter and records it.
func (e *Engine) apply(next domain.Location) {
	switch next.Action {
	case domain.Pop:
		e.updateLocation(next)
	case domain.Push:
		if e.adapter.PushLocation(next) {
			e.updateLocation(next)
			return
		}
		e.logger.Debug("adapter handled push out of band", "path", next.Path())
	case domain.Replace:
		if e.adapter.ReplaceLocation(next) {
			e.updateLocation(next)
			return
		}
		e.logger.Debug("adapter handled replace out of band", "path", next.Path())
	default:
		panic(fmt.Sprintf("history: unknown action %q", next.Action))
	}
}

// rewind moves the adapter back to from after a vetoed POP already moved it to to.
func (e *Engine) rewind(from, to domain.Location) {
	e.mu.Lock()
	delta, found := e.keys.Delta(from.Key, to.Key)
	e.mu.Unlock()

	if !found || delta == 0 {
		e.logger.Debug("cannot rewind rejected pop, key not tracked",
			"from_key", from.Key,
			"to_key", to.Key,
		)
		return
	}

	e.emit(e.hooks.OnRewind, &domain.TransitionEvent{
		Type:   domain.EventRewind,
		Action: domain.Pop,
		From:   &from,
		To:     to,
		Delta:  delta,
	})
	e.adapter.Go(delta)
}

// updateLocation is the only mutator of the current location.
func (e *Engine) updateLocation(next domain.Location) {
	e.mu.Lock()
	from := e.currentCopy()
	index := -1
	if e.current != nil {
		index = e.keys.IndexOf(e.current.Key)
	}

	loc := next
	e.current = &loc

	switch loc.Action {
	case domain.Push:
		e.keys.Push(index, loc.Key)
	case domain.Replace:
		e.keys.Set(index, loc.Key)
	}

	listeners := make([]Listener, len(e.listeners))
	for i, r := range e.listeners {
		listeners[i] = r.fn
	}
	e.mu.Unlock()

	e.logger.Debug("transition committed", "path", loc.Path(), "key", loc.Key, "action", loc.Action)
	e.emit(e.hooks.OnTransitionCommit, &domain.TransitionEvent{
		Type:   domain.EventTransitionCommit,
		Action: loc.Action,
		From:   from,
		To:     loc,
	})

	for _, l := range listeners {
		l(loc)
	}
}

// currentCopy must be called with mu held.
func (e *Engine) currentCopy() *domain.Location {
	if e.current == nil {
		return nil
	}
	c := *e.current
	return &c
}

// Push requests a new entry built from input (a path string or a Location).
// It returns an error only for malformed input or state.
func (e *Engine) Push(input any) error {
	return e.navigate(input, domain.Push)
}

// Replace requests that the current entry be overwritten with input.
func (e *Engine) Replace(input any) error {
	return e.navigate(input, domain.Replace)
}

func (e *Engine) navigate(input any, action domain.Action) error {
	loc, err := e.CreateLocation(input, action)
	if err != nil {
		return err
	}
	if err := domain.ValidateState(loc.State); err != nil {
		return fmt.Errorf("%s %s: %w", action, loc.Path(), err)
	}
	e.TransitionTo(loc)
	return nil
}

// Go asks the adapter to move n entries.
func (e *Engine) Go(n int) {
	e.ensureCurrent()
	e.adapter.Go(n)
}

// GoBack is Go(-1).
func (e *Engine) GoBack() {
	e.Go(-1)
}

// GoForward is Go(1).
func (e *Engine) GoForward() {
	e.Go(1)
}

// CreateKey returns a random base-36 key. Collisions are not checked.
func (e *Engine) CreateKey() string {
	b := make([]byte, e.keyLength)
	for i := range b {
		b[i] = keyAlphabet[rand.IntN(len(keyAlphabet))]
	}
	return string(b)
}

// CreateLocation builds a Location for action with a fresh key.
func (e *Engine) CreateLocation(input any, action domain.Action) (domain.Location, error) {
	return domain.CreateLocation(input, action, e.CreateKey())
}

// CreateHref returns the href for loc.
func (e *Engine) CreateHref(loc domain.Location) string {
	return domain.CreatePath(loc)
}

func (e *Engine) emit(fn func(context.Context, *domain.TransitionEvent), evt *domain.TransitionEvent) {
	if fn == nil {
		return
	}
	evt.Timestamp = time.Now()
	fn(e.ctx, evt)
}

// Reset drops any pending transition and resynchronizes the engine with an adapter
// whose entries were replaced wholesale. keys are the entry keys in adapter order.
func (e *Engine) Reset(current domain.Location, keys []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loc := current
	e.current = &loc
	e.pending = nil
	e.keys = NewKeyStack(keys...)
}
