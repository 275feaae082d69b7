package fsio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterRejectsColon(t *testing.T) {
	r := NewRegistry()
	err := r.Register("s3:", NewMemFS())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRegistry_ResolveLocal(t *testing.T) {
	r := NewRegistry()

	fs, err := r.Resolve("/tmp/trace.json")
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, fs)

	// Relative paths resolve to the same backend.
	fs2, err := r.Resolve("trace.json")
	require.NoError(t, err)
	assert.Same(t, fs, fs2)
}

func TestRegistry_ResolveIdempotent(t *testing.T) {
	r := NewRegistry()
	mem := NewMemFS()
	require.NoError(t, r.Register("mem", mem))

	for range 3 {
		fs, err := r.Resolve("mem://bucket/key")
		require.NoError(t, err)
		assert.Same(t, FileSystem(mem), fs)
	}
}

func TestRegistry_ResolveHTTPByHost(t *testing.T) {
	r := NewRegistry()
	blob := NewMemFS()
	require.NoError(t, r.Register(BlobPrefix, blob))

	fs, err := r.Resolve("https://acct.blob.core.windows.net/container/path")
	require.NoError(t, err)
	assert.Same(t, FileSystem(blob), fs)

	// Scheme matching is case-insensitive.
	fs, err = r.Resolve("HTTPS://acct.blob.core.windows.net/container/path")
	require.NoError(t, err)
	assert.Same(t, FileSystem(blob), fs)

	// Non-storage hosts are unsupported, not local.
	_, err = r.Resolve("https://example.com/container/path")
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestRegistry_ResolveHTTPWithoutBlobBackend(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("https://acct.blob.core.windows.net/container/path")
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestRegistry_ResolveUnknownPrefix(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("gs://bucket/key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSupported)

	var schemeErr *UnsupportedSchemeError
	require.ErrorAs(t, err, &schemeErr)
	assert.Equal(t, "gs", schemeErr.Scheme)
}
