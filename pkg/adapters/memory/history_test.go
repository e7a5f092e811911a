package memory_test

import (
	"errors"
	"testing"

	"github.com/aretw0/history/pkg/adapters/memory"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
	"github.com/aretw0/history/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistory(t *testing.T, opts ...memory.Option) *memory.History {
	t.Helper()
	h, err := memory.New(opts...)
	require.NoError(t, err)
	return h
}

func TestHistory_Contract(t *testing.T) {
	tests.AdapterContractTest(t, func(t *testing.T, paths ...string) ports.Adapter {
		entries := make([]any, len(paths))
		for i, p := range paths {
			entries[i] = p
		}
		return newHistory(t, memory.WithEntries(entries...))
	})
}

func TestNew_Defaults(t *testing.T) {
	h := newHistory(t)

	loc := h.CurrentLocation()
	assert.Equal(t, "/", loc.Pathname)
	assert.Equal(t, domain.Pop, loc.Action)
	assert.Empty(t, loc.Key)
	assert.Equal(t, 0, h.Index())
}

func TestNew_InitialEntries(t *testing.T) {
	h := newHistory(t,
		memory.WithEntries("/", domain.Location{Pathname: "/profile", State: "seed"}, "/settings#tabs"),
		memory.WithCurrent(1),
	)

	assert.Equal(t, 1, h.Index())
	loc := h.CurrentLocation()
	assert.Equal(t, "/profile", loc.Pathname)
	assert.Equal(t, "seed", loc.State, "unkeyed entries keep their own state")

	entries := h.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "#tabs", entries[2].Hash)
	for _, e := range entries {
		assert.Empty(t, e.Key)
		assert.Equal(t, domain.Pop, e.Action)
	}
}

func TestNew_InvalidCurrent(t *testing.T) {
	_, err := memory.New(memory.WithEntries("/", "/a"), memory.WithCurrent(2))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = memory.New(memory.WithCurrent(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_InvalidEntry(t *testing.T) {
	_, err := memory.New(memory.WithEntries(42))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistory_PushTruncatesForward(t *testing.T) {
	h := newHistory(t, memory.WithEntries("/", "/a", "/b"), memory.WithCurrent(0))

	h.PushLocation(domain.Location{Pathname: "/c", Key: "kc", Action: domain.Push})

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "/", entries[0].Pathname)
	assert.Equal(t, "/c", entries[1].Pathname)
	assert.Equal(t, 1, h.Index())
	assert.False(t, h.CanGo(1))
}

func TestHistory_GoRaisesPop(t *testing.T) {
	h := newHistory(t)
	h.PushLocation(domain.Location{Pathname: "/a", Key: "ka", Action: domain.Push, State: map[string]any{"n": 1}})

	var popped []domain.Location
	h.OnPop(func(loc domain.Location) { popped = append(popped, loc) })

	h.Go(-1)
	h.Go(1)

	require.Len(t, popped, 2)
	assert.Equal(t, "/", popped[0].Pathname)
	assert.Equal(t, domain.Pop, popped[0].Action)
	assert.Equal(t, "/a", popped[1].Pathname)
	assert.Equal(t, "ka", popped[1].Key)
	assert.Equal(t, map[string]any{"n": 1}, popped[1].State, "keyed state is read back from storage")
}

func TestHistory_GoOutOfRange(t *testing.T) {
	h := newHistory(t, memory.WithEntries("/", "/a"))

	called := false
	h.OnPop(func(domain.Location) { called = true })

	h.Go(1)
	h.Go(-5)
	h.Go(0)

	assert.False(t, called)
	assert.Equal(t, 1, h.Index())
}

type failingStorage struct{}

func (failingStorage) SaveState(string, any) error   { return errors.New("disk full") }
func (failingStorage) LoadState(string) (any, error) { return nil, errors.New("unreadable") }

func TestHistory_StorageFailuresDegrade(t *testing.T) {
	h := newHistory(t, memory.WithStateStorage(failingStorage{}))

	assert.True(t, h.PushLocation(domain.Location{Pathname: "/a", Key: "ka", State: "lost"}))

	loc := h.CurrentLocation()
	assert.Equal(t, "/a", loc.Pathname)
	assert.Nil(t, loc.State)
}

func TestHistory_SnapshotRestore(t *testing.T) {
	h := newHistory(t)
	h.PushLocation(domain.Location{Pathname: "/a", Key: "ka", Action: domain.Push, State: "A"})
	h.PushLocation(domain.Location{Pathname: "/b", Key: "kb", Action: domain.Push})
	h.Go(-1)

	snap := h.Snapshot()
	assert.Equal(t, 1, snap.Current)
	require.Len(t, snap.Entries, 3)
	assert.Equal(t, "A", snap.Entries[1].State)
	assert.Equal(t, domain.Push, snap.Entries[1].Action)

	restored := newHistory(t)
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, 1, restored.Index())
	loc := restored.CurrentLocation()
	assert.Equal(t, "/a", loc.Pathname)
	assert.Equal(t, "A", loc.State)
	assert.True(t, restored.CanGo(1))

	assert.ErrorIs(t, restored.Restore(&domain.Snapshot{}), domain.ErrInvalidInput)
}
