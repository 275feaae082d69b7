package fsio

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	name := filepath.Join(t.TempDir(), "trace.json")

	exists, err := l.Exists(ctx, name)
	require.NoError(t, err)
	assert.False(t, exists)

	content := []byte("hello local backend")
	require.NoError(t, l.Write(ctx, name, content))

	exists, err = l.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, exists)

	data, _, err := l.Read(ctx, name, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalFS_ChunkedReadConsistency(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	name := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("0123456789abcdef")
	require.NoError(t, l.Write(ctx, name, content))

	for _, split := range []struct{ n1, n2 int64 }{{0, 16}, {1, 15}, {7, 9}, {16, 0}} {
		first, cont, err := l.Read(ctx, name, split.n1, nil)
		require.NoError(t, err)
		second, _, err := l.Read(ctx, name, split.n2, cont)
		require.NoError(t, err)
		assert.Equal(t, content, append(first, second...), "split %d+%d", split.n1, split.n2)
	}
}

func TestLocalFS_ReadMissing(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	_, _, err := l.Read(ctx, filepath.Join(t.TempDir(), "nope"), -1, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalFS_RejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	name := filepath.Join(t.TempDir(), "x")
	require.NoError(t, l.Write(ctx, name, []byte("x")))

	_, _, err := l.Read(ctx, name, -1, &memToken{offset: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var foreign *ForeignTokenError
	require.ErrorAs(t, err, &foreign)
	assert.Equal(t, "local", foreign.Backend)
}

func TestLocalFS_Append(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	require.True(t, l.SupportsAppend())

	name := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, l.Write(ctx, name, []byte("a")))
	require.NoError(t, l.Append(ctx, name, []byte("b")))
	require.NoError(t, l.Append(ctx, name, []byte("c")))

	data, _, err := l.Read(ctx, name, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestLocalFS_Abspath(t *testing.T) {
	l := NewLocalFS()
	dir := t.TempDir()
	t.Setenv("FSIO_TEST_DIR", dir)

	got, err := l.Abspath("$FSIO_TEST_DIR/trace.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trace.json"), got)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err = l.Abspath("~/trace.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "trace.json"), got)
}

func TestLocalFS_GlobNative(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	dir := t.TempDir()
	for _, name := range []string{"run1.json", "run2.json", "other.txt"} {
		require.NoError(t, l.Write(ctx, filepath.Join(dir, name), []byte("x")))
	}

	// Full native glob syntax, unlike the remote backends.
	matches, err := l.Glob(ctx, filepath.Join(dir, "run?.json"))
	require.NoError(t, err)
	sort.Strings(matches)
	assert.Equal(t, []string{
		filepath.Join(dir, "run1.json"),
		filepath.Join(dir, "run2.json"),
	}, matches)
}

func TestLocalFS_DirOperations(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	require.NoError(t, l.MakeDirs(ctx, nested))
	require.NoError(t, l.MakeDirs(ctx, nested)) // idempotent

	isDir, err := l.IsDir(ctx, nested)
	require.NoError(t, err)
	assert.True(t, isDir)

	require.NoError(t, l.Write(ctx, filepath.Join(nested, "f.txt"), []byte("x")))
	names, err := l.ListDir(ctx, nested)
	require.NoError(t, err)
	assert.Equal(t, []string{"f.txt"}, names)

	st, err := l.Stat(ctx, filepath.Join(nested, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Length)
}

func TestLocalFS_DownloadFileIdentity(t *testing.T) {
	ctx := context.Background()
	l := NewLocalFS()
	got, err := l.DownloadFile(ctx, "/var/log/trace.json")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/trace.json", got)
}
