package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/history/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			Entries: []domain.Location{
				{Pathname: "/", Action: domain.Pop},
				{Pathname: "/a", Search: "?x=1", Key: "k1", Action: domain.Push, State: map[string]any{"foo": "bar"}},
			},
			Current: 1,
		}

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Entries, 2)
		assert.Equal(t, 1, loaded.Current)
		assert.Equal(t, "/a", loaded.Entries[1].Pathname)
		assert.Equal(t, "?x=1", loaded.Entries[1].Search)
		assert.Equal(t, "k1", loaded.Entries[1].Key)
		assert.Equal(t, domain.Push, loaded.Entries[1].Action)
		// JSON persistence may change concrete types, so compare structurally.
		assert.True(t, domain.StatesAreEqual(snap.Entries[1].State, loaded.Entries[1].State))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, &domain.Snapshot{Entries: []domain.Location{{Pathname: "/"}}})
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, &domain.Snapshot{Entries: []domain.Location{{Pathname: "/"}}})
		_ = store.Save(ctx, id2, &domain.Snapshot{Entries: []domain.Location{{Pathname: "/"}}})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
