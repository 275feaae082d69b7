package fsio

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFS_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemFS()

	exists, err := m.Exists(ctx, "mem://runs/trace.json")
	require.NoError(t, err)
	assert.False(t, exists)

	content := []byte("hello memory backend")
	require.NoError(t, m.Write(ctx, "mem://runs/trace.json", content))

	exists, err = m.Exists(ctx, "mem://runs/trace.json")
	require.NoError(t, err)
	assert.True(t, exists)

	data, _, err := m.Read(ctx, "mem://runs/trace.json", -1, nil)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestMemFS_ReadContinuation(t *testing.T) {
	ctx := context.Background()
	m := NewMemFS()
	require.NoError(t, m.Write(ctx, "mem://b/k", []byte("0123456789")))

	first, cont, err := m.Read(ctx, "mem://b/k", 4, nil)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(first))

	second, cont, err := m.Read(ctx, "mem://b/k", 4, cont)
	require.NoError(t, err)
	assert.Equal(t, "4567", string(second))

	// Past the end: empty, not an error.
	rest, cont, err := m.Read(ctx, "mem://b/k", -1, cont)
	require.NoError(t, err)
	assert.Equal(t, "89", string(rest))

	empty, _, err := m.Read(ctx, "mem://b/k", -1, cont)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemFS_ReadMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemFS()
	_, _, err := m.Read(ctx, "mem://b/missing", -1, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Stat(ctx, "mem://b/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemFS_GlobRules(t *testing.T) {
	ctx := context.Background()
	m := NewMemFS()
	require.NoError(t, m.Write(ctx, "mem://b/run1.json", []byte("1")))
	require.NoError(t, m.Write(ctx, "mem://b/run2.json", []byte("2")))
	require.NoError(t, m.Write(ctx, "mem://b/other.txt", []byte("3")))

	t.Run("trailing star", func(t *testing.T) {
		matches, err := m.Glob(ctx, "mem://b/run*")
		require.NoError(t, err)
		sort.Strings(matches)
		assert.Equal(t, []string{"mem://b/run1.json", "mem://b/run2.json"}, matches)
	})

	t.Run("question mark unsupported", func(t *testing.T) {
		_, err := m.Glob(ctx, "mem://b/run?.json")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotSupported)

		var patternErr *UnsupportedPatternError
		assert.ErrorAs(t, err, &patternErr)
	})

	t.Run("non-trailing star is empty", func(t *testing.T) {
		matches, err := m.Glob(ctx, "mem://b/run*.json")
		require.NoError(t, err)
		assert.Empty(t, matches)

		matches, err = m.Glob(ctx, "mem://b/a*b*")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestMemFS_MakeDirsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemFS()

	require.NoError(t, m.MakeDirs(ctx, "mem://b/dir"))
	exists, err := m.Exists(ctx, "mem://b/dir")
	require.NoError(t, err)
	assert.True(t, exists)

	before, err := m.ListDir(ctx, "mem://b")
	require.NoError(t, err)

	require.NoError(t, m.MakeDirs(ctx, "mem://b/dir"))
	after, err := m.ListDir(ctx, "mem://b")
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after)
}

func TestMemFS_ListDir(t *testing.T) {
	ctx := context.Background()
	m := NewMemFS()
	require.NoError(t, m.Write(ctx, "mem://b/d/f1", []byte("1")))
	require.NoError(t, m.Write(ctx, "mem://b/d/f2", []byte("2")))
	require.NoError(t, m.Write(ctx, "mem://b/d/sub/f3", []byte("3")))

	names, err := m.ListDir(ctx, "mem://b/d")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"f1", "f2", "sub"}, names)

	isDir, err := m.IsDir(ctx, "mem://b/d/sub")
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = m.IsDir(ctx, "mem://b/d/f1")
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestMemFS_DownloadFile(t *testing.T) {
	ctx := context.Background()
	m := NewMemFS()
	require.NoError(t, m.Write(ctx, "mem://b/trace.json", []byte("payload")))

	local, err := m.DownloadFile(ctx, "mem://b/trace.json")
	require.NoError(t, err)
	defer os.Remove(local)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
