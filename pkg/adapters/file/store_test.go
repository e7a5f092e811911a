package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/history/pkg/adapters/file"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunSnapshotStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	snap := &domain.Snapshot{Entries: []domain.Location{{Pathname: "/"}, {Pathname: "/a", Key: "k1"}}, Current: 1}
	require.NoError(t, store.Save(ctx, "s1", snap))
	require.NoError(t, store.Save(ctx, "s1", snap), "overwrite must succeed")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "no temp files left behind")
	assert.Equal(t, "s1.json", files[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"current": 1`)
}

func TestFileStore_InvalidIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	snap := &domain.Snapshot{Entries: []domain.Location{{Pathname: "/"}}}

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.ErrorIs(t, store.Save(ctx, id, snap), domain.ErrInvalidInput, id)
		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, id)
		assert.ErrorIs(t, store.Delete(ctx, id), domain.ErrInvalidInput, id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_DeleteMissing(t *testing.T) {
	store := file.New(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), "ghost"))
}
