package fsio

import "context"

// StatData holds file statistics returned by Stat.
type StatData struct {
	// Length is the size of the file in bytes.
	Length int64
}

// Continuation is an opaque resume token threaded through successive Read
// calls. Each backend defines its own private token type; a token
// produced by one backend must only ever be passed back to that backend
// for the same filename. Backends reject foreign tokens with a
// ForeignTokenError. A nil Continuation means "read from the start".
type Continuation any

// FileSystem is the contract every backend must satisfy.
//
// Path-manipulation methods (Abspath, Basename, Relpath, Join) are pure
// string operations for remote backends; only the local backend performs
// user/home/env expansion. Their outputs round-trip exactly into the I/O
// methods on the same backend.
type FileSystem interface {
	// Exists reports whether a path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Abspath returns an absolute form of path.
	Abspath(path string) (string, error)

	// Basename returns the final path component.
	Basename(path string) string

	// Relpath returns path relative to start, or path unchanged when it
	// is not nested under start.
	Relpath(path, start string) string

	// Join joins path elements with the backend's separator.
	Join(path string, elem ...string) string

	// Read returns up to size bytes (all remaining if size < 0) starting
	// where cont left off (the start if cont is nil), along with a new
	// continuation token for the next chunk. Read fails with ErrNotFound
	// if the path does not exist.
	Read(ctx context.Context, path string, size int64, cont Continuation) ([]byte, Continuation, error)

	// Write replaces the full contents of path.
	Write(ctx context.Context, path string, data []byte) error

	// SupportsAppend reports whether Append is natively supported.
	// Backends returning false rely on File's spill-buffer emulation and
	// implement Append as a no-op.
	SupportsAppend() bool

	// Append appends to path. Only meaningful when SupportsAppend.
	Append(ctx context.Context, path string, data []byte) error

	// Glob returns the paths matching pattern. Remote backends support
	// only a trailing '*': a '?' anywhere fails with an
	// UnsupportedPatternError and a non-trailing '*' yields no matches.
	// The local backend supports full native glob syntax.
	Glob(ctx context.Context, pattern string) ([]string, error)

	// IsDir reports whether path is a directory.
	IsDir(ctx context.Context, path string) (bool, error)

	// ListDir returns the entries contained in path, in arbitrary order,
	// without "." and "..".
	ListDir(ctx context.Context, path string) ([]string, error)

	// MakeDirs creates path and any intermediate segments. Idempotent.
	MakeDirs(ctx context.Context, path string) error

	// Stat returns file statistics for path.
	Stat(ctx context.Context, path string) (StatData, error)

	// DownloadFile materializes path as a local file for callers that
	// need native file-handle access, returning its location. Remote
	// backends stream the object to a temporary file the caller is
	// responsible for discarding; the local backend returns path itself.
	DownloadFile(ctx context.Context, path string) (string, error)
}
