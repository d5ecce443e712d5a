package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocal()

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, s.MkdirAll(ctx, nested))
	require.NoError(t, s.MkdirAll(ctx, nested), "MkdirAll is idempotent")

	file := filepath.Join(nested, "f.txt")
	require.NoError(t, s.WriteFile(ctx, file, []byte("hello")))

	r, err := s.Open(ctx, file)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, os.Symlink(file, filepath.Join(nested, "link")))
	linfo, err := s.Lstat(ctx, filepath.Join(nested, "link"))
	require.NoError(t, err)
	assert.NotZero(t, linfo.Mode()&fs.ModeSymlink)
	require.NoError(t, os.Remove(filepath.Join(nested, "link")))

	info, err := s.Stat(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())

	entries, err := s.ReadDir(ctx, nested)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f.txt", entries[0].Name())

	require.NoError(t, s.RemoveAll(ctx, filepath.Join(dir, "a")))
	_, err = s.Stat(ctx, file)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, s.RemoveAll(ctx, filepath.Join(dir, "a")), "RemoveAll on missing path succeeds")
}

func TestLocalWriteNeedsParent(t *testing.T) {
	err := NewLocal().WriteFile(context.Background(), filepath.Join(t.TempDir(), "missing", "f.txt"), []byte("x"))
	assert.Error(t, err)
}

func TestTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	info, err := os.Stat(path)
	require.NoError(t, err)

	created, accessed := Times(path, info)
	assert.False(t, created.IsZero())
	assert.False(t, accessed.IsZero())
	assert.WithinDuration(t, time.Now(), created, time.Hour)
	assert.False(t, created.After(info.ModTime().Add(time.Second)), "created %v is after modified %v", created, info.ModTime())
}

func TestTimesMissingPathFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	created, _ := Times(path, info)
	assert.False(t, created.IsZero())
}

func TestLocalWriteCreatesNoSiblings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocal()
	file := filepath.Join(dir, "f.txt")

	for _, content := range []string{"first version", "v2"} {
		require.NoError(t, s.WriteFile(ctx, file, []byte(content)))
		entries, err := s.ReadDir(ctx, dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "f.txt", entries[0].Name())
	}

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
