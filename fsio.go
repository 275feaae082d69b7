package fsio

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Exists reports whether a path exists.
func Exists(ctx context.Context, path string) (bool, error) {
	fs, err := Resolve(path)
	if err != nil {
		return false, err
	}
	return fs.Exists(ctx, path)
}

// Abspath returns an absolute form of path.
func Abspath(path string) (string, error) {
	fs, err := Resolve(path)
	if err != nil {
		return "", err
	}
	return fs.Abspath(path)
}

// Basename returns the final component of path.
func Basename(path string) (string, error) {
	fs, err := Resolve(path)
	if err != nil {
		return "", err
	}
	return fs.Basename(path), nil
}

// Relpath returns path relative to start.
func Relpath(path, start string) (string, error) {
	fs, err := Resolve(path)
	if err != nil {
		return "", err
	}
	return fs.Relpath(path, start), nil
}

// Join joins path elements with the separator of path's backend.
func Join(path string, elem ...string) (string, error) {
	fs, err := Resolve(path)
	if err != nil {
		return "", err
	}
	return fs.Join(path, elem...), nil
}

// DownloadFile materializes path as a local file and returns its
// location. For local paths it returns path itself; for remote paths the
// caller owns (and should discard) the returned temporary file.
func DownloadFile(ctx context.Context, path string) (string, error) {
	fs, err := Resolve(path)
	if err != nil {
		return "", err
	}
	return fs.DownloadFile(ctx, path)
}

// Glob returns the paths matching pattern.
func Glob(ctx context.Context, pattern string) ([]string, error) {
	fs, err := Resolve(pattern)
	if err != nil {
		return nil, err
	}
	return fs.Glob(ctx, pattern)
}

// IsDir reports whether path is a directory.
func IsDir(ctx context.Context, path string) (bool, error) {
	fs, err := Resolve(path)
	if err != nil {
		return false, err
	}
	return fs.IsDir(ctx, path)
}

// ListDir returns the entries contained in path, in arbitrary order,
// without "." and "..".
func ListDir(ctx context.Context, path string) ([]string, error) {
	fs, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.ListDir(ctx, path)
}

// MakeDirs creates path and all intermediate segments. Idempotent.
func MakeDirs(ctx context.Context, path string) error {
	fs, err := Resolve(path)
	if err != nil {
		return err
	}
	return fs.MakeDirs(ctx, path)
}

// Stat returns file statistics for path.
func Stat(ctx context.Context, path string) (StatData, error) {
	fs, err := Resolve(path)
	if err != nil {
		return StatData{}, err
	}
	return fs.Stat(ctx, path)
}

// ReadFile reads the whole of name through a buffered File, draining the
// backend until it produces no more data.
func ReadFile(ctx context.Context, name string, opts ...FileOption) ([]byte, error) {
	f, err := OpenFile(name, "rb", opts...)
	if err != nil {
		return nil, err
	}
	var data []byte
	for {
		chunk, err := f.Read(ctx, -1)
		if err != nil {
			f.Close(ctx)
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		data = append(data, chunk...)
	}
	if err := f.Close(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFile writes data to name, replacing any existing contents, and
// flushes on close.
func WriteFile(ctx context.Context, name string, data []byte, opts ...FileOption) error {
	f, err := OpenFile(name, "wb", opts...)
	if err != nil {
		return err
	}
	if _, err := f.Write(ctx, data); err != nil {
		f.Close(ctx)
		return err
	}
	return f.Close(ctx)
}

// DownloadAll materializes every path as a local file, downloading at
// most limit files at a time (a small default when limit <= 0). The
// returned locations correspond to paths by index. The first failure
// cancels the remaining downloads.
//
// This is caller-side parallelism over independent DownloadFile calls;
// the backends themselves stay synchronous.
func DownloadAll(ctx context.Context, paths []string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 4
	}
	local := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range paths {
		g.Go(func() error {
			name, err := DownloadFile(ctx, p)
			if err != nil {
				return err
			}
			local[i] = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return local, nil
}
