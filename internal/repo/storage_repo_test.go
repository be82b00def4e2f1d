package repo

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oziev02/ImageGallery/internal/domain"
)

func TestStorageRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "outputs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "outputs", "a.png"), []byte("png"), 0o644))

	storage := NewStorageRepository(base)

	for _, u := range []string{"/outputs/a.png", "outputs/a.png", "http://localhost:9090/outputs/a.png"} {
		ok, err := storage.Exists(ctx, u)
		require.NoError(t, err)
		require.True(t, ok, u)
	}

	rc, err := storage.Open(ctx, "/outputs/a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, "png", string(data))

	require.NoError(t, storage.Delete(ctx, "/outputs/a.png"))
	require.NoError(t, storage.Delete(ctx, "/outputs/a.png"), "deleting twice is fine")

	_, err = storage.Open(ctx, "/outputs/a.png")
	require.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestStorageRepositoryStaysInsideBase(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	base := filepath.Join(parent, "outputs")
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("x"), 0o644))

	storage := NewStorageRepository(base)

	ok, err := storage.Exists(context.Background(), "/../secret.txt")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = storage.Open(context.Background(), "/")
	require.ErrorIs(t, err, domain.ErrInvalidImageURL)
}
