package operations

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"fsgate/internal/access"
	"fsgate/internal/lock"
	"fsgate/internal/logging"
	"fsgate/internal/storage"
	"fsgate/internal/toolerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLimit = 64

type fixture struct {
	root    string
	outside string
	ops     *Operations
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStorage(t, storage.NewLocal())
}

func newFixtureWithStorage(t *testing.T, store storage.Storage) *fixture {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	outside, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	logger, _ := logging.NewTestLogger()
	gate, err := access.New([]string{root}, logger)
	require.NoError(t, err)

	locks, err := lock.NewManager(filepath.Join(outside, ".locks"), 0)
	require.NoError(t, err)

	ops, err := New(gate, store, Options{
		MaxFileSize: testLimit,
		Locker:      locks,
		Logger:      logger,
	})
	require.NoError(t, err)

	return &fixture{root: root, outside: outside, ops: ops}
}

func (f *fixture) path(parts ...string) string {
	return filepath.Join(append([]string{f.root}, parts...)...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func requireKind(t *testing.T, err error, kind toolerr.Kind) {
	t.Helper()
	require.Error(t, err)
	var te *toolerr.Error
	require.True(t, errors.As(err, &te), "expected *toolerr.Error, got %T: %v", err, err)
	assert.Equal(t, kind, te.Kind, "error: %v", err)
}

func TestNewValidation(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	gate, err := access.New([]string{t.TempDir()}, logger)
	require.NoError(t, err)

	_, err = New(nil, storage.NewLocal(), Options{MaxFileSize: 1})
	assert.Error(t, err)
	_, err = New(gate, nil, Options{MaxFileSize: 1})
	assert.Error(t, err)
	_, err = New(gate, storage.NewLocal(), Options{MaxFileSize: 0})
	assert.Error(t, err)

	ops, err := New(gate, storage.NewLocal(), Options{MaxFileSize: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), ops.MaxFileSize())
	assert.Equal(t, DefaultListConcurrency, ops.listLimit)
}

func TestWriteReadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.path("notes", "deep", "hello.txt")

	ack, err := f.ops.Write(ctx, target, "héllo")
	require.NoError(t, err)
	assert.Equal(t, OpWrite, ack.Operation)
	assert.Equal(t, 6, ack.Bytes)
	assert.Equal(t, 5, ack.Characters)

	got, err := f.ops.Read(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "héllo", got.Content)
	assert.Equal(t, uint64(6), got.Size)
	assert.Equal(t, target, got.Path)
	assert.True(t, strings.HasPrefix(got.MIMEType, "text/plain"), got.MIMEType)

	_, err = f.ops.Write(ctx, target, "x")
	require.NoError(t, err)
	got, err = f.ops.Read(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Content, "write truncates")
}

func TestWriteEmptyContent(t *testing.T) {
	f := newFixture(t)
	target := f.path("empty.txt")

	_, err := f.ops.Write(context.Background(), target, "")
	require.NoError(t, err)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestReadSizeBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exact := f.path("exact.txt")
	writeFile(t, exact, strings.Repeat("a", testLimit))
	got, err := f.ops.Read(ctx, exact)
	require.NoError(t, err)
	assert.Len(t, got.Content, testLimit)

	over := f.path("over.txt")
	writeFile(t, over, strings.Repeat("a", testLimit+1))
	_, err = f.ops.Read(ctx, over)
	requireKind(t, err, toolerr.TooLarge)
}

func TestReadFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, os.Mkdir(f.path("dir"), 0755))

	_, err := f.ops.Read(ctx, f.path("missing.txt"))
	requireKind(t, err, toolerr.NotFound)

	_, err = f.ops.Read(ctx, f.path("dir"))
	requireKind(t, err, toolerr.IOError)

	_, err = f.ops.Read(ctx, filepath.Join(f.outside, "x"))
	requireKind(t, err, toolerr.AccessDenied)

	_, err = f.ops.Read(ctx, "")
	requireKind(t, err, toolerr.InvalidArgument)
}

func TestReadInvalidUTF8(t *testing.T) {
	f := newFixture(t)
	target := f.path("bin")
	require.NoError(t, os.WriteFile(target, []byte{0xff, 0xfe, 'a'}, 0644))

	got, err := f.ops.Read(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Size)
	assert.True(t, strings.HasSuffix(got.Content, "a"))
}

func TestWriteFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, os.Mkdir(f.path("adir"), 0755))
	_, err := f.ops.Write(ctx, f.path("adir"), "x")
	requireKind(t, err, toolerr.IOError)

	writeFile(t, f.path("file"), "x")
	_, err = f.ops.Write(ctx, f.path("file", "child.txt"), "x")
	requireKind(t, err, toolerr.IOError)
}

func TestDenialHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	victim := filepath.Join(f.outside, "victim.txt")
	writeFile(t, victim, "keep")

	_, err := f.ops.Write(ctx, filepath.Join(f.outside, "new.txt"), "x")
	requireKind(t, err, toolerr.AccessDenied)
	_, err = os.Stat(filepath.Join(f.outside, "new.txt"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = f.ops.Mkdir(ctx, filepath.Join(f.outside, "newdir"))
	requireKind(t, err, toolerr.AccessDenied)
	_, err = os.Stat(filepath.Join(f.outside, "newdir"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = f.ops.Delete(ctx, victim)
	requireKind(t, err, toolerr.AccessDenied)
	content, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(content))

	_, err = f.ops.Write(ctx, f.root+"-archive/x.txt", "x")
	requireKind(t, err, toolerr.AccessDenied)
}

func TestListCompleteness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	writeFile(t, f.path("list", "c.txt"), "ccc")
	writeFile(t, f.path("list", "a.txt"), "a")
	require.NoError(t, os.Mkdir(f.path("list", "b"), 0755))

	got, err := f.ops.List(ctx, f.path("list"))
	require.NoError(t, err)
	require.Len(t, got.Entries, 3)

	assert.Equal(t, "a.txt", got.Entries[0].Name)
	assert.False(t, got.Entries[0].IsDirectory)
	assert.Equal(t, uint64(1), got.Entries[0].Size)

	assert.Equal(t, "b", got.Entries[1].Name)
	assert.True(t, got.Entries[1].IsDirectory)

	assert.Equal(t, "c.txt", got.Entries[2].Name)
	assert.Equal(t, uint64(3), got.Entries[2].Size)
	assert.False(t, got.Entries[2].ModifiedAt.IsZero())

	empty := f.path("empty")
	require.NoError(t, os.Mkdir(empty, 0755))
	got, err = f.ops.List(ctx, empty)
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
}

func TestListFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writeFile(t, f.path("file.txt"), "x")

	_, err := f.ops.List(ctx, f.path("file.txt"))
	requireKind(t, err, toolerr.IOError)

	_, err = f.ops.List(ctx, f.path("missing"))
	requireKind(t, err, toolerr.NotFound)

	_, err = f.ops.List(ctx, f.outside)
	requireKind(t, err, toolerr.AccessDenied)
}

// flakyStorage fails Stat for one specific child name.
type flakyStorage struct {
	storage.Local
	failName string
}

func (s flakyStorage) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if filepath.Base(path) == s.failName {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrPermission}
	}
	return s.Local.Stat(ctx, path)
}

func TestListChildFailureFailsWholeListing(t *testing.T) {
	f := newFixtureWithStorage(t, flakyStorage{failName: "bad.txt"})
	writeFile(t, f.path("d", "good.txt"), "x")
	writeFile(t, f.path("d", "bad.txt"), "x")

	got, err := f.ops.List(context.Background(), f.path("d"))
	assert.Nil(t, got)
	requireKind(t, err, toolerr.IOError)
	assert.Contains(t, err.Error(), "bad.txt")
}

// vanishingStorage deletes one child just before it is stat'ed, the way a
// concurrent delete would between ReadDir and Stat.
type vanishingStorage struct {
	storage.Local
	name string
}

func (s vanishingStorage) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if filepath.Base(path) == s.name {
		_ = os.Remove(path)
	}
	return s.Local.Stat(ctx, path)
}

func TestListSkipsEntriesRemovedDuringListing(t *testing.T) {
	f := newFixtureWithStorage(t, vanishingStorage{name: "gone.txt"})
	writeFile(t, f.path("d", "kept.txt"), "x")
	writeFile(t, f.path("d", "gone.txt"), "x")

	got, err := f.ops.List(context.Background(), f.path("d"))
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "kept.txt", got.Entries[0].Name)
}

func TestListReportsDanglingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	f := newFixture(t)
	writeFile(t, f.path("d", "a.txt"), "x")
	require.NoError(t, os.Symlink(f.path("d", "missing.txt"), f.path("d", "broken")))

	got, err := f.ops.List(context.Background(), f.path("d"))
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "a.txt", got.Entries[0].Name)
	assert.Equal(t, "broken", got.Entries[1].Name)
	assert.False(t, got.Entries[1].IsDirectory)
}

func TestListDuringWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.path("shared.txt")
	writeFile(t, target, "seed")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := f.ops.Write(ctx, target, strings.Repeat("w", i+1)); err != nil {
					assert.NoError(t, err)
					return
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		got, err := f.ops.List(ctx, f.root)
		if !assert.NoError(t, err) {
			break
		}
		if !assert.Len(t, got.Entries, 1) {
			break
		}
		assert.Equal(t, "shared.txt", got.Entries[0].Name)
	}
	close(stop)
	wg.Wait()
}

// growingStorage stats the real (small) file but serves endless content,
// like a file appended to after it was stat'ed.
type growingStorage struct {
	storage.Local
	served *int64
}

func (s growingStorage) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(&countingReader{n: s.served}), nil
}

type countingReader struct{ n *int64 }

func (r *countingReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	*r.n += int64(len(p))
	return len(p), nil
}

func TestReadStopsAtLimitWhenFileGrows(t *testing.T) {
	var served int64
	f := newFixtureWithStorage(t, growingStorage{served: &served})
	writeFile(t, f.path("log.txt"), "small")

	_, err := f.ops.Read(context.Background(), f.path("log.txt"))
	requireKind(t, err, toolerr.TooLarge)
	assert.LessOrEqual(t, served, int64(testLimit+1)+512, "read far past the limit: %d bytes", served)
}

func TestMkdirIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := f.path("x", "y", "z")

	_, err := f.ops.Mkdir(ctx, dir)
	require.NoError(t, err)
	_, err = f.ops.Mkdir(ctx, dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	writeFile(t, f.path("plain"), "x")
	_, err = f.ops.Mkdir(ctx, f.path("plain"))
	requireKind(t, err, toolerr.IOError)
}

func TestDeleteIdempotentAndRecursive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	writeFile(t, f.path("tree", "a", "b.txt"), "x")
	_, err := f.ops.Delete(ctx, f.path("tree"))
	require.NoError(t, err)
	_, err = os.Stat(f.path("tree"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = f.ops.Delete(ctx, f.path("tree"))
	require.NoError(t, err, "second delete succeeds")

	_, err = f.ops.Delete(ctx, f.path("never", "existed"))
	require.NoError(t, err)
}

func TestDeleteRefusesRoot(t *testing.T) {
	f := newFixture(t)

	_, err := f.ops.Delete(context.Background(), f.root)
	requireKind(t, err, toolerr.AccessDenied)

	_, err = os.Stat(f.root)
	assert.NoError(t, err)
}

func TestDeleteSymlinkRemovesLinkOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	f := newFixture(t)
	secret := filepath.Join(f.outside, "secret.txt")
	writeFile(t, secret, "s")
	link := f.path("link")
	require.NoError(t, os.Symlink(secret, link))

	_, err := f.ops.Delete(context.Background(), link)
	require.NoError(t, err)

	_, err = os.Lstat(link)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = os.Stat(secret)
	assert.NoError(t, err, "link target must survive")
}

func TestSymlinkEscapeIsDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	f := newFixture(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(f.outside, "secret.txt"), "s")
	require.NoError(t, os.Symlink(filepath.Join(f.outside, "secret.txt"), f.path("escape.txt")))
	require.NoError(t, os.Symlink(f.outside, f.path("outdir")))

	_, err := f.ops.Read(ctx, f.path("escape.txt"))
	requireKind(t, err, toolerr.AccessDenied)

	_, err = f.ops.Write(ctx, f.path("outdir", "planted.txt"), "x")
	requireKind(t, err, toolerr.AccessDenied)
	_, err = os.Stat(filepath.Join(f.outside, "planted.txt"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = f.ops.List(ctx, f.path("outdir"))
	requireKind(t, err, toolerr.AccessDenied)
}

func TestStat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writeFile(t, f.path("doc.json"), `{"a": 1}`)
	require.NoError(t, os.Mkdir(f.path("sub"), 0755))

	meta, err := f.ops.Stat(ctx, f.path("doc.json"))
	require.NoError(t, err)
	assert.False(t, meta.IsDirectory)
	assert.Equal(t, uint64(8), meta.Size)
	assert.Equal(t, "application/json", meta.MIMEType)
	assert.False(t, meta.CreatedAt.IsZero())
	assert.False(t, meta.AccessedAt.IsZero())
	assert.False(t, meta.ModifiedAt.IsZero())
	assert.True(t, meta.Mode.IsRegular())

	meta, err = f.ops.Stat(ctx, f.path("sub"))
	require.NoError(t, err)
	assert.True(t, meta.IsDirectory)
	assert.Equal(t, DirectoryMIMEType, meta.MIMEType)

	_, err = f.ops.Stat(ctx, f.path("nope"))
	requireKind(t, err, toolerr.NotFound)
}

func TestConcurrentWritesSamePath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.path("shared.txt")

	values := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	var wg sync.WaitGroup
	for _, v := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ops.Write(ctx, target, strings.Repeat(v, 5))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.ops.Read(ctx, target)
	require.NoError(t, err)

	found := false
	for _, v := range values {
		if got.Content == strings.Repeat(v, 5) {
			found = true
		}
	}
	assert.True(t, found, "content %q is not one complete write", got.Content)

	entries, err := os.ReadDir(f.root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary or lock files inside the root")
}

func TestUnixMode(t *testing.T) {
	tests := []struct {
		mode os.FileMode
		want uint32
	}{
		{0o644, 0o100644},
		{0o640, 0o100640},
		{os.ModeDir | 0o755, 0o40755},
		{os.ModeDir | os.ModeSticky | 0o777, 0o41777},
		{os.ModeSymlink | 0o777, 0o120777},
		{os.ModeSetuid | 0o755, 0o104755},
		{os.ModeNamedPipe | 0o600, 0o10600},
		{os.ModeDevice | os.ModeCharDevice | 0o666, 0o20666},
	}
	for _, tt := range tests {
		meta := &FileMetadata{Mode: tt.mode}
		assert.Equal(t, tt.want, meta.UnixMode(), "mode %v", tt.mode)
	}
}
