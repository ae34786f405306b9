package artifact_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralvis/oralvis-api/internal/artifact"
)

func TestFilesystemStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store, err := artifact.NewFilesystemStore(root)
	require.NoError(t, err, "failed to construct store")

	t.Run("NotExists", func(t *testing.T) {
		exists, err := store.Exists(ctx, "images/missing.jpg")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = store.Get(ctx, "images/missing.jpg")
		require.ErrorIs(t, err, artifact.ErrNotFound)
	})

	t.Run("SaveAndRead", func(t *testing.T) {
		expected := []byte("hello world")
		ref, err := artifact.Save(ctx, store, artifact.DirImages, "hello.txt", expected)
		require.NoError(t, err, "failed to save")
		assert.Regexp(t, `^images/\d+-hello\.txt$`, ref)

		exists, err := store.Exists(ctx, ref)
		require.NoError(t, err)
		assert.True(t, exists)

		actual, err := artifact.Read(ctx, store, ref)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)

		onDisk, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
		require.NoError(t, err)
		assert.Equal(t, expected, onDisk)
	})

	t.Run("SameNameDistinctRefs", func(t *testing.T) {
		first, err := artifact.Save(ctx, store, artifact.DirImages, "same.jpg", []byte("1"))
		require.NoError(t, err)
		second, err := artifact.Save(ctx, store, artifact.DirImages, "same.jpg", []byte("2"))
		require.NoError(t, err)

		assert.NotEqual(t, first, second)

		b, err := artifact.Read(ctx, store, first)
		require.NoError(t, err)
		assert.Equal(t, "1", string(b))
	})

	t.Run("Overwrite", func(t *testing.T) {
		ref := artifact.ReportRef("sub", "PAT-1")
		require.NoError(t, artifact.Overwrite(ctx, store, ref, []byte("first")))
		require.NoError(t, artifact.Overwrite(ctx, store, ref, []byte("second")))

		b, err := artifact.Read(ctx, store, ref)
		require.NoError(t, err)
		assert.Equal(t, "second", string(b))

		entries, err := os.ReadDir(filepath.Join(root, "reports", "sub"))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp files should not linger")
	})

	t.Run("Delete", func(t *testing.T) {
		ref, err := artifact.Save(ctx, store, artifact.DirOverlays, "overlay.png", []byte("x"))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, ref))
		exists, err := store.Exists(ctx, ref)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, store.Delete(ctx, ref), "deleting twice should be fine")
	})

	t.Run("Traversal", func(t *testing.T) {
		_, err := store.Get(ctx, "../outside")
		require.ErrorIs(t, err, artifact.ErrInvalidRef)

		err = store.Put(ctx, nil, 0, "/abs")
		require.ErrorIs(t, err, artifact.ErrInvalidRef)
	})

	t.Run("GetStreams", func(t *testing.T) {
		ref, err := artifact.Save(ctx, store, artifact.DirAnnotated, "a.png", []byte("stream"))
		require.NoError(t, err)

		rc, err := store.Get(ctx, ref)
		require.NoError(t, err)
		defer rc.Close()

		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "stream", string(b))
	})

	t.Run("StoreIdentifier", func(t *testing.T) {
		ident, err := store.StoreIdentifier(ctx)
		require.NoError(t, err)
		assert.Contains(t, ident, "file://")
	})
}
