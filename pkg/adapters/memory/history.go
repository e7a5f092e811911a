package memory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/history/internal/logging"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
)

// History is a navigation adapter backed by an in-memory entry list.
// Per-entry state lives in a ports.StateStorage keyed by location key.
// Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []domain.Location
	current int
	onPop   func(domain.Location)

	storage ports.StateStorage
	logger  *slog.Logger

	initial    []any
	initialIdx *int
}

// Option configures a memory History.
type Option func(*History)

// WithEntries sets the initial entries. Each entry is a path string or a domain.Location.
func WithEntries(entries ...any) Option {
	return func(h *History) {
		h.initial = entries
	}
}

// WithCurrent sets the initial position. Defaults to the last entry.
func WithCurrent(index int) Option {
	return func(h *History) {
		h.initialIdx = &index
	}
}

// WithStateStorage replaces the default in-process state storage.
func WithStateStorage(s ports.StateStorage) Option {
	return func(h *History) {
		if s != nil {
			h.storage = s
		}
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a memory History. Without entries it starts at "/".
func New(opts ...Option) (*History, error) {
	h := &History{
		storage: NewStateMap(),
		logger:  logging.NewNop(),
		initial: []any{"/"},
	}
	for _, opt := range opts {
		opt(h)
	}

	if len(h.initial) == 0 {
		h.initial = []any{"/"}
	}

	entries := make([]domain.Location, 0, len(h.initial))
	for i, entry := range h.initial {
		loc, err := domain.CreateLocation(entry, domain.Pop, "")
		if err != nil {
			return nil, fmt.Errorf("initial entry %d: %w", i, err)
		}
		if err := domain.ValidateState(loc.State); err != nil {
			return nil, fmt.Errorf("initial entry %d: %w", i, err)
		}
		entries = append(entries, loc)
	}

	current := len(entries) - 1
	if h.initialIdx != nil {
		current = *h.initialIdx
	}
	if current < 0 || current >= len(entries) {
		return nil, fmt.Errorf("%w: current index %d out of range [0,%d)", domain.ErrInvalidInput, current, len(entries))
	}

	h.entries = entries
	h.current = current
	h.initial = nil
	h.initialIdx = nil
	return h, nil
}

// CurrentLocation returns the entry at the current position, with its state read
// from storage when the entry carries a key.
func (h *History) CurrentLocation() domain.Location {
	h.mu.Lock()
	entry := h.entries[h.current]
	h.mu.Unlock()

	return h.resolve(entry)
}

func (h *History) resolve(entry domain.Location) domain.Location {
	loc := domain.Location{
		Pathname: entry.Pathname,
		Search:   entry.Search,
		Hash:     entry.Hash,
		Basename: entry.Basename,
		State:    entry.State,
		Key:      entry.Key,
		Action:   domain.Pop,
	}
	if entry.Key != "" {
		loc.State = h.readState(entry.Key)
	}
	return loc
}

// PushLocation drops forward entries and appends loc after the current one.
func (h *History) PushLocation(loc domain.Location) bool {
	h.saveState(loc)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.current++
	h.entries = append(h.entries[:h.current], loc)
	return true
}

// ReplaceLocation overwrites the current entry.
func (h *History) ReplaceLocation(loc domain.Location) bool {
	h.saveState(loc)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.current] = loc
	return true
}

// CanGo reports whether moving n entries stays inside the list.
func (h *History) CanGo(n int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canGo(n)
}

func (h *History) canGo(n int) bool {
	next := h.current + n
	return next >= 0 && next < len(h.entries)
}

// Go moves n entries and reports the new entry as a POP.
func (h *History) Go(n int) {
	if n == 0 {
		return
	}

	h.mu.Lock()
	if !h.canGo(n) {
		current, size := h.current, len(h.entries)
		h.mu.Unlock()
		h.logger.Warn("cannot go beyond history",
			"delta", n,
			"index", current,
			"entries", size,
		)
		return
	}
	h.current += n
	entry := h.entries[h.current]
	onPop := h.onPop
	h.mu.Unlock()

	if onPop != nil {
		onPop(h.resolve(entry))
	}
}

// OnPop registers the receiver of POP locations raised by Go.
func (h *History) OnPop(fn func(domain.Location)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPop = fn
}

// Entries returns the entry list with states resolved.
func (h *History) Entries() []domain.Location {
	h.mu.Lock()
	entries := make([]domain.Location, len(h.entries))
	copy(entries, h.entries)
	h.mu.Unlock()

	for i, e := range entries {
		resolved := h.resolve(e)
		resolved.Action = e.Action
		entries[i] = resolved
	}
	return entries
}

// Index returns the current position.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Snapshot captures the entry list and position.
func (h *History) Snapshot() *domain.Snapshot {
	entries := h.Entries()
	return &domain.Snapshot{Entries: entries, Current: h.Index()}
}

// Restore replaces the entry list and position with snap.
// It does not raise a POP.
func (h *History) Restore(snap *domain.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	for _, e := range snap.Entries {
		if e.Key != "" {
			h.saveState(e)
		}
	}

	entries := make([]domain.Location, len(snap.Entries))
	copy(entries, snap.Entries)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = entries
	h.current = snap.Current
	return nil
}

func (h *History) saveState(loc domain.Location) {
	if loc.Key == "" {
		return
	}
	if err := h.storage.SaveState(loc.Key, loc.State); err != nil {
		h.logger.Warn("failed to save location state", "key", loc.Key, "error", err)
	}
}

func (h *History) readState(key string) any {
	state, err := h.storage.LoadState(key)
	if err != nil {
		h.logger.Warn("failed to read location state", "key", key, "error", err)
		return nil
	}
	return state
}
