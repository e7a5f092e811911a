package history_test

import (
	"context"
	"testing"

	"github.com/aretw0/history"
	"github.com/aretw0/history/pkg/adapters/memory"
	"github.com/aretw0/history/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemory_Options(t *testing.T) {
	var commits int
	h, err := history.NewMemory(
		history.WithKeyLength(10),
		history.WithMemoryOptions(memory.WithEntries("/", "/inbox")),
		history.WithLifecycleHooks(domain.LifecycleHooks{
			OnTransitionCommit: func(context.Context, *domain.TransitionEvent) { commits++ },
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "/inbox", h.Location().Pathname)
	assert.Len(t, h.CreateKey(), 10)

	require.NoError(t, h.Push("/a"))
	assert.Len(t, h.Location().Key, 10)
	assert.Equal(t, 1, commits)
}

func TestNewMemory_InvalidEntries(t *testing.T) {
	_, err := history.NewMemory(history.WithMemoryOptions(memory.WithCurrent(3)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_CustomAdapter(t *testing.T) {
	adapter, err := memory.New(memory.WithEntries("/start"))
	require.NoError(t, err)

	h := history.New(adapter, history.WithBeforeHooks(history.SyncHook(func(loc domain.Location) any {
		if loc.Pathname == "/forbidden" {
			return false
		}
		return nil
	})))

	require.NoError(t, h.Push("/forbidden"))
	assert.Equal(t, "/start", h.Location().Pathname)
	assert.Same(t, adapter, h.Adapter())
}

func TestHistory_BlockUnblock(t *testing.T) {
	h, err := history.NewMemory(history.WithConfirmer(denyAll{}))
	require.NoError(t, err)

	h.Block("unsaved")
	require.NoError(t, h.Push("/a"))
	assert.Equal(t, "/", h.Location().Pathname)

	h.Unblock()
	require.NoError(t, h.Push("/a"))
	assert.Equal(t, "/a", h.Location().Pathname)
}

type denyAll struct{}

func (denyAll) Confirm(_ string, callback func(bool)) { callback(false) }

func TestHistory_SnapshotRestore(t *testing.T) {
	h, err := history.NewMemory()
	require.NoError(t, err)
	require.NoError(t, h.Push(domain.Location{Pathname: "/a", State: map[string]any{"n": 1}}))
	require.NoError(t, h.Push("/b"))
	h.GoBack()

	snap, err := h.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Current)

	restored, err := history.NewMemory()
	require.NoError(t, err)
	require.NoError(t, restored.Restore(snap))

	loc := restored.Location()
	assert.Equal(t, "/a", loc.Pathname)
	assert.Equal(t, map[string]any{"n": 1}, loc.State)
	assert.Len(t, restored.Keys(), 3)

	// Forward history survives the restore and the engine can rewind onto it.
	restored.GoForward()
	assert.Equal(t, "/b", restored.Location().Pathname)

	// A push after restore truncates at the restored position.
	restored.GoBack()
	require.NoError(t, restored.Push("/c"))
	keys := restored.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, restored.Location().Key, keys[2])
}

func TestHistory_SnapshotUnsupported(t *testing.T) {
	adapter, err := memory.New()
	require.NoError(t, err)
	h := history.New(domainAdapter{adapter})

	_, err = h.Snapshot()
	assert.Error(t, err)
	assert.Error(t, h.Restore(&domain.Snapshot{}))
}

// domainAdapter exposes only the adapter methods, hiding Snapshot and Restore.
type domainAdapter struct{ m *memory.History }

func (a domainAdapter) CurrentLocation() domain.Location       { return a.m.CurrentLocation() }
func (a domainAdapter) PushLocation(loc domain.Location) bool    { return a.m.PushLocation(loc) }
func (a domainAdapter) ReplaceLocation(loc domain.Location) bool { return a.m.ReplaceLocation(loc) }
func (a domainAdapter) Go(n int)                                 { a.m.Go(n) }

func TestCommand_Apply(t *testing.T) {
	h, err := history.NewMemory()
	require.NoError(t, err)

	steps := []history.Command{
		{Op: history.OpPush, Path: "/a?x=1", State: "s"},
		{Op: history.OpPush, Path: "/b"},
		{Op: history.OpGo, Delta: -2},
		{Op: history.OpForward},
		{Op: history.OpReplace, Path: "/c#top"},
	}
	for _, step := range steps {
		require.NoError(t, h.Apply(step))
	}

	loc := h.Location()
	assert.Equal(t, "/c#top", loc.Path())
	assert.Equal(t, history.Replace, loc.Action)

	assert.Error(t, h.Apply(history.Command{Op: "jump"}))
	assert.Error(t, h.Apply(history.Command{Op: history.OpPush}))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    history.Command
		wantErr bool
	}{
		{line: "push /a?x=1", want: history.Command{Op: history.OpPush, Path: "/a?x=1"}},
		{line: "REPLACE /b", want: history.Command{Op: history.OpReplace, Path: "/b"}},
		{line: "go -2", want: history.Command{Op: history.OpGo, Delta: -2}},
		{line: "back", want: history.Command{Op: history.OpBack}},
		{line: "block unsaved changes", want: history.Command{Op: history.OpBlock, Message: "unsaved changes"}},
		{line: "go two", wantErr: true},
		{line: "push", wantErr: true},
		{line: "block", wantErr: true},
		{line: "fly /a", wantErr: true},
		{line: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := history.ParseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
