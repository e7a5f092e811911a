package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/history"
	"github.com/aretw0/history/internal/logging"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex                  // Global lock for the maps
	locks map[string]*lockEntry       // Map of active locks
	live  map[string]*history.History // Open histories
	busy  map[string]bool             // Sessions inside a Do callback
	count *atomic.Int64               // len(live), readable without mu

	locker      ports.DistributedLocker // Optional distributed locker
	lockTTL     time.Duration
	logger      *slog.Logger // Logger for internal events (like deferred errors)
	historyOpts []history.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking. Live histories are then refreshed from
// the store before every operation, since another replica may have changed them.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock lease.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHistoryOptions sets the options used for every history the manager opens.
func WithHistoryOptions(opts ...history.Option) Option {
	return func(m *Manager) {
		m.historyOpts = append(m.historyOpts, opts...)
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*history.History),
		busy:    make(map[string]bool),
		count:   atomic.NewInt64(0),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create opens a fresh session under a new random ID.
func (m *Manager) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := m.Open(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Open returns the live history for sessionID, loading its snapshot or starting a new
// history at "/" (persisted immediately to reserve the ID).
func (m *Manager) Open(ctx context.Context, sessionID string) (*history.History, error) {
	var h *history.History
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		h, err = m.open(ctx, sessionID, true)
		return err
	})
	return h, err
}

// open must be called under the session lock.
func (m *Manager) open(ctx context.Context, sessionID string, create bool) (*history.History, error) {
	m.mu.Lock()
	h, cached := m.live[sessionID]
	m.mu.Unlock()

	if cached && m.locker == nil {
		return h, nil
	}

	snap, err := m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSessionNotFound):
		if !create {
			return nil, err
		}
		snap = nil
	default:
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	if !cached {
		h, err = m.newHistory(sessionID)
		if err != nil {
			return nil, err
		}
	}

	if snap != nil {
		if err := h.Restore(snap); err != nil {
			return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
		}
	} else if err := m.persist(ctx, sessionID, h); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	if !cached {
		m.mu.Lock()
		m.live[sessionID] = h
		m.mu.Unlock()
		m.count.Inc()
		m.logger.Debug("session opened", "session_id", sessionID, "restored", snap != nil)
	}
	return h, nil
}

func (m *Manager) newHistory(sessionID string) (*history.History, error) {
	opts := append([]history.Option{
		history.WithLogger(m.logger.With("session_id", sessionID)),
	}, m.historyOpts...)

	h, err := history.NewMemory(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create history: %w", err)
	}

	// Commits outside Do come from hooks that approved late; Do would not see them.
	h.Listen(func(domain.Location) {
		m.mu.Lock()
		inside := m.busy[sessionID]
		m.mu.Unlock()
		if !inside {
			go m.persistLate(sessionID, h)
		}
	})
	return h, nil
}

// persistLate saves h under the session lock if it is still the live history of sessionID.
func (m *Manager) persistLate(sessionID string, h *history.History) {
	ctx := context.Background()
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		live := m.live[sessionID] == h
		m.mu.Unlock()
		if !live {
			return nil
		}
		return m.persist(ctx, sessionID, h)
	})
	if err != nil {
		m.logger.Warn("Failed to persist late transition",
			"session_id", sessionID,
			"err", err,
		)
	}
}

func (m *Manager) persist(ctx context.Context, sessionID string, h *history.History) error {
	snap, err := h.Snapshot()
	if err != nil {
		return err
	}
	return m.store.Save(ctx, sessionID, snap)
}

// Do runs fn against the session's history under the session lock, then persists the
// resulting snapshot. The session must exist. The snapshot is returned even when fn fails.
// Transitions that fn leaves pending are persisted on their own once they commit.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(h *history.History) error) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		h, err := m.open(ctx, sessionID, false)
		if err != nil {
			return err
		}

		m.mu.Lock()
		m.busy[sessionID] = true
		m.mu.Unlock()

		fnErr := fn(h)

		m.mu.Lock()
		delete(m.busy, sessionID)
		m.mu.Unlock()

		snap, err = h.Snapshot()
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return fmt.Errorf("failed to save session %s: %w", sessionID, err)
		}
		return fnErr
	})
	return snap, err
}

// Snapshot returns the current snapshot of a session without changing it.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		h, err := m.open(ctx, sessionID, false)
		if err != nil {
			return err
		}
		snap, err = h.Snapshot()
		return err
	})
	return snap, err
}

// Close drops the live history. The stored snapshot is kept.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live[sessionID]; ok {
		delete(m.live, sessionID)
		m.count.Dec()
	}
}

// Delete closes the session and removes it from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.Close(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns the stored session IDs in lexical order.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of open histories.
func (m *Manager) Len() int {
	return int(m.count.Load())
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
