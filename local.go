package fsio

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS implements FileSystem over the host filesystem's native
// primitives.
type LocalFS struct{}

// NewLocalFS creates a local backend.
func NewLocalFS() *LocalFS {
	return &LocalFS{}
}

// localToken encodes the native stream position after a read. The offset
// is whatever the underlying stream reports, not necessarily the byte
// count handed back to the caller.
type localToken struct {
	offset int64
}

func localOffset(cont Continuation) (*localToken, error) {
	if cont == nil {
		return nil, nil
	}
	t, ok := cont.(*localToken)
	if !ok {
		return nil, &ForeignTokenError{Backend: "local"}
	}
	return t, nil
}

func (l *LocalFS) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Abspath resolves "~" and environment variables before making the path
// absolute.
func (l *LocalFS) Abspath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

func (l *LocalFS) Basename(path string) string {
	return filepath.Base(path)
}

func (l *LocalFS) Relpath(path, start string) string {
	rel, err := filepath.Rel(start, path)
	if err != nil {
		return path
	}
	return rel
}

func (l *LocalFS) Join(path string, elem ...string) string {
	return filepath.Join(append([]string{path}, elem...)...)
}

func (l *LocalFS) Read(_ context.Context, path string, size int64, cont Continuation) ([]byte, Continuation, error) {
	tok, err := localOffset(cont)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if tok != nil {
		if _, err := f.Seek(tok.offset, io.SeekStart); err != nil {
			return nil, nil, err
		}
	}

	var data []byte
	if size < 0 {
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, nil, err
		}
	} else {
		buf := make([]byte, size)
		n, err := io.ReadFull(f, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, err
		}
		data = buf[:n]
	}

	// The new offset may not be the old offset plus len(data); measure it
	// in whatever terms the underlying stream uses.
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil, err
	}
	return data, &localToken{offset: pos}, nil
}

func (l *LocalFS) Write(_ context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func (l *LocalFS) SupportsAppend() bool { return true }

func (l *LocalFS) Append(_ context.Context, path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Glob supports full native glob syntax, unlike the remote backends.
func (l *LocalFS) Glob(_ context.Context, pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

func (l *LocalFS) IsDir(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (l *LocalFS) ListDir(_ context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (l *LocalFS) MakeDirs(_ context.Context, path string) error {
	return os.MkdirAll(path, 0o755)
}

func (l *LocalFS) Stat(_ context.Context, path string) (StatData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return StatData{}, err
	}
	return StatData{Length: info.Size()}, nil
}

// DownloadFile is the identity for local paths.
func (l *LocalFS) DownloadFile(_ context.Context, path string) (string, error) {
	return path, nil
}
