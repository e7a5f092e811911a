package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/history/internal/logging"
	"github.com/aretw0/history/internal/runtime"
	"github.com/aretw0/history/pkg/adapters/memory"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
)

// BeforeHook is consulted before each transition. Build one with SyncHook, AsyncHook or Block.
type BeforeHook = runtime.BeforeHook

// Listener receives every finalized location.
type Listener = runtime.Listener

// SyncHook wraps a hook whose return value is its result.
// nil continues, false rejects, a string asks the Confirmer, anything else approves.
func SyncHook(fn func(loc domain.Location) any) BeforeHook {
	return runtime.SyncHook(fn)
}

// AsyncHook wraps a hook that reports its result through done.
func AsyncHook(fn func(loc domain.Location, done func(result any))) BeforeHook {
	return runtime.AsyncHook(fn)
}

// Block returns a hook that vetoes every transition with message.
func Block(message string) BeforeHook {
	return runtime.Block(message)
}

// History is the high-level entry point for the library.
// It wraps the transition engine and the adapter it drives.
type History struct {
	engine  *runtime.Engine
	adapter ports.Adapter
	logger  *slog.Logger

	hooks       domain.LifecycleHooks
	confirmer   ports.Confirmer
	keyLength   int
	ctx         context.Context
	before      []BeforeHook
	memoryOpts  []memory.Option

	mu       sync.Mutex
	blockers []func()
}

// Option defines a functional option for configuring a History.
type Option func(*History)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		h.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *History) {
		h.hooks = h.hooks.Merge(hooks)
	}
}

// WithConfirmer sets the collaborator that answers string veto messages.
func WithConfirmer(c ports.Confirmer) Option {
	return func(h *History) {
		h.confirmer = c
	}
}

// WithKeyLength sets the length of generated location keys.
func WithKeyLength(n int) Option {
	return func(h *History) {
		h.keyLength = n
	}
}

// WithContext sets the context handed to lifecycle hooks.
func WithContext(ctx context.Context) Option {
	return func(h *History) {
		h.ctx = ctx
	}
}

// WithBeforeHooks registers hooks at construction time, in order.
func WithBeforeHooks(hooks ...BeforeHook) Option {
	return func(h *History) {
		h.before = append(h.before, hooks...)
	}
}

// WithMemoryOptions configures the adapter built by NewMemory.
func WithMemoryOptions(opts ...memory.Option) Option {
	return func(h *History) {
		h.memoryOpts = append(h.memoryOpts, opts...)
	}
}

// New creates a History over an existing adapter.
func New(adapter ports.Adapter, opts ...Option) *History {
	h := &History{adapter: adapter}
	for _, opt := range opts {
		opt(h)
	}
	h.init()
	return h
}

// NewMemory creates a History backed by an in-memory adapter.
func NewMemory(opts ...Option) (*History, error) {
	h := &History{}
	for _, opt := range opts {
		opt(h)
	}

	if h.logger == nil {
		h.logger = logging.NewNop()
	}

	memOpts := append([]memory.Option{memory.WithLogger(h.logger)}, h.memoryOpts...)
	adapter, err := memory.New(memOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory adapter: %w", err)
	}
	h.adapter = adapter
	h.init()
	return h, nil
}

func (h *History) init() {
	// Ensure logger is initialized (so we don't pass nil to runtime)
	if h.logger == nil {
		h.logger = logging.NewNop()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(h.hooks),
		runtime.WithLogger(h.logger),
	}
	if h.confirmer != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithConfirmer(h.confirmer))
	}
	if h.keyLength != 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithKeyLength(h.keyLength))
	}
	if h.ctx != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithContext(h.ctx))
	}

	h.engine = runtime.NewEngine(h.adapter, runtimeOpts...)
	for _, hook := range h.before {
		h.engine.ListenBefore(hook)
	}
	h.memoryOpts = nil
}

// Push navigates to a new entry. input is a path string or a domain.Location.
// Vetoes are not errors: Push returns nil and the location simply does not change.
func (h *History) Push(input any) error {
	return h.engine.Push(input)
}

// Replace overwrites the current entry.
func (h *History) Replace(input any) error {
	return h.engine.Replace(input)
}

// Go moves n entries; negative is back.
func (h *History) Go(n int) {
	h.engine.Go(n)
}

// GoBack moves one entry back.
func (h *History) GoBack() {
	h.engine.GoBack()
}

// GoForward moves one entry forward.
func (h *History) GoForward() {
	h.engine.GoForward()
}

// TransitionTo requests a transition to a fully built location.
func (h *History) TransitionTo(loc domain.Location) {
	h.engine.TransitionTo(loc)
}

// Location returns the current location.
func (h *History) Location() domain.Location {
	return h.engine.Location()
}

// ListenBefore registers a before hook and returns its unsubscribe function.
func (h *History) ListenBefore(hook BeforeHook) func() {
	return h.engine.ListenBefore(hook)
}

// Listen registers a listener and returns its unsubscribe function.
func (h *History) Listen(listener Listener) func() {
	return h.engine.Listen(listener)
}

// Block vetoes every following transition with message until Unblock is called.
func (h *History) Block(message string) {
	stop := h.engine.ListenBefore(runtime.Block(message))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.blockers = append(h.blockers, stop)
}

// Unblock removes every hook registered with Block.
func (h *History) Unblock() {
	h.mu.Lock()
	blockers := h.blockers
	h.blockers = nil
	h.mu.Unlock()

	for _, stop := range blockers {
		stop()
	}
}

// CreateKey returns a fresh random key.
func (h *History) CreateKey() string {
	return h.engine.CreateKey()
}

// CreateLocation builds a Location with a fresh key.
func (h *History) CreateLocation(input any, action domain.Action) (domain.Location, error) {
	return h.engine.CreateLocation(input, action)
}

// CreateHref returns the href of loc.
func (h *History) CreateHref(loc domain.Location) string {
	return h.engine.CreateHref(loc)
}

// CreatePath is domain.CreatePath.
func (h *History) CreatePath(loc domain.Location) string {
	return domain.CreatePath(loc)
}

// Pending reports whether a transition awaits confirmation.
func (h *History) Pending() bool {
	return h.engine.Pending()
}

// Keys returns the keys the engine has observed, oldest first.
func (h *History) Keys() []string {
	return h.engine.Keys()
}

// Adapter returns the adapter driven by this History.
func (h *History) Adapter() ports.Adapter {
	return h.adapter
}

// Snapshot captures the adapter's entries when the adapter supports it.
func (h *History) Snapshot() (*domain.Snapshot, error) {
	s, ok := h.adapter.(ports.Snapshotter)
	if !ok {
		return nil, fmt.Errorf("adapter %T does not support snapshots", h.adapter)
	}
	return s.Snapshot(), nil
}

// Restore loads snap into the adapter and resynchronizes the engine.
// No listener is notified.
func (h *History) Restore(snap *domain.Snapshot) error {
	s, ok := h.adapter.(ports.Snapshotter)
	if !ok {
		return fmt.Errorf("adapter %T does not support snapshots", h.adapter)
	}
	if err := s.Restore(snap); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	keys := make([]string, len(snap.Entries))
	for i, e := range snap.Entries {
		keys[i] = e.Key
	}
	h.engine.Reset(h.adapter.CurrentLocation(), keys)
	return nil
}
