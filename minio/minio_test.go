package minio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracekit/fsio"
)

func TestBucketAndKey(t *testing.T) {
	bucket, key, err := bucketAndKey("minio://traces/runs/run1/trace.json")
	require.NoError(t, err)
	assert.Equal(t, "traces", bucket)
	assert.Equal(t, "runs/run1/trace.json", key)

	_, _, err = bucketAndKey("minio://")
	require.Error(t, err)
	var malformed *fsio.MalformedURLError
	assert.ErrorAs(t, err, &malformed)

	_, _, err = bucketAndKey("minio://bucket-without-key")
	assert.Error(t, err)
}

func TestGlob_PatternRules(t *testing.T) {
	ctx := context.Background()
	fs := &FileSystem{logger: fsio.NoopLogger()}

	_, err := fs.Glob(ctx, "minio://bucket/run?.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, fsio.ErrNotSupported)

	matches, err := fs.Glob(ctx, "minio://bucket/run*.json")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestTokenOffset(t *testing.T) {
	off, err := tokenOffset(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), off)

	off, err = tokenOffset(&token{offset: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(42), off)

	_, err = tokenOffset(&struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, fsio.ErrInvalidArgument)
}

func TestNotFound(t *testing.T) {
	assert.True(t, notFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, notFound(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.False(t, notFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, notFound(errors.New("connection refused")))
}

func TestNew_RequiresEndpoint(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")
	_, err := New()
	require.Error(t, err)
	assert.ErrorIs(t, err, fsio.ErrInvalidArgument)
}

// TestIntegration runs against a live endpoint from MINIO_ENDPOINT,
// MINIO_ACCESS_KEY, and MINIO_SECRET_KEY. The bucket "fsio-test" must
// exist.
func TestIntegration(t *testing.T) {
	if os.Getenv("MINIO_ENDPOINT") == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	fs, err := New(WithLogger(fsio.NoopLogger()))
	require.NoError(t, err)

	base := fmt.Sprintf("minio://fsio-test/it-%d", time.Now().UnixNano())
	path := base + "/trace.json"
	content := []byte(`{"traceEvents":[]}`)

	require.NoError(t, fs.Write(ctx, path, content))

	exists, err := fs.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	data, _, err := fs.Read(ctx, path, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	first, cont, err := fs.Read(ctx, path, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, content[:5], first)

	rest, _, err := fs.Read(ctx, path, -1, cont)
	require.NoError(t, err)
	assert.Equal(t, content[5:], rest)

	stat, err := fs.Stat(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), stat.Length)

	isDir, err := fs.IsDir(ctx, base)
	require.NoError(t, err)
	assert.True(t, isDir)

	names, err := fs.ListDir(ctx, base)
	require.NoError(t, err)
	assert.Contains(t, names, "trace.json")

	matches, err := fs.Glob(ctx, base+"/trace*")
	require.NoError(t, err)
	assert.Contains(t, matches, path)

	local, err := fs.DownloadFile(ctx, path)
	require.NoError(t, err)
	defer os.Remove(local)
	downloaded, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)

	_, _, err = fs.Read(ctx, base+"/missing.json", -1, nil)
	assert.ErrorIs(t, err, fsio.ErrNotFound)
}
