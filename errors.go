package fsio

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned when a path does not exist.
	//
	// Backends should return an error that satisfies
	// `errors.Is(err, ErrNotFound)`. The default maps to `fs.ErrNotExist`,
	// so local backend errors satisfy it without translation.
	ErrNotFound = fs.ErrNotExist

	// ErrNotSupported is returned for operations the resolved backend
	// cannot perform, such as wildcard glob patterns beyond a trailing '*'
	// or paths with an unregistered prefix.
	ErrNotSupported = errors.New("operation not supported")

	// ErrInvalidArgument is returned for malformed inputs: a registration
	// prefix containing ':', a blob URL without exactly
	// container/blob-path segments, a continuation token produced by a
	// different backend, or string content written to a binary-mode file.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned by operations on a closed File.
	ErrClosed = errors.New("file already closed")

	// ErrWrongMode is returned when reading a write-mode File or writing a
	// read-mode File.
	ErrWrongMode = errors.New("wrong file mode")
)

// UnsupportedSchemeError indicates that no backend is registered for the
// prefix (or HTTP host) a path resolved to.
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("no recognized filesystem for prefix %q", e.Scheme)
}

func (e *UnsupportedSchemeError) Unwrap() error { return ErrNotSupported }

// UnsupportedPatternError indicates a glob pattern beyond the trailing-'*'
// subset remote backends implement.
type UnsupportedPatternError struct {
	Pattern string
}

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("pattern %q not supported by compat glob", e.Pattern)
}

func (e *UnsupportedPatternError) Unwrap() error { return ErrNotSupported }

// MalformedURLError indicates a remote path that does not parse into the
// addressing scheme of its backend.
type MalformedURLError struct {
	URL    string
	Reason string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed url %q: %s", e.URL, e.Reason)
}

func (e *MalformedURLError) Unwrap() error { return ErrInvalidArgument }

// ForeignTokenError indicates a continuation token passed to a backend
// other than the one that produced it.
type ForeignTokenError struct {
	Backend string
}

func (e *ForeignTokenError) Error() string {
	return fmt.Sprintf("continuation token was not produced by the %s backend", e.Backend)
}

func (e *ForeignTokenError) Unwrap() error { return ErrInvalidArgument }
