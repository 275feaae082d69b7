package fsio

import (
	"context"
	"iter"
)

// WalkEntry is one directory visited by Walk: its path, the names of its
// subdirectories, and the names of its leaf files.
type WalkEntry struct {
	Dir     string
	SubDirs []string
	Files   []string
}

// Walker is an optional capability for backends with a native flat
// listing: they produce the whole walk in a single pass instead of
// recursive ListDir/IsDir calls. The blob backend groups all blobs under
// the root by their parent directory and yields one entry per distinct
// parent, with no subdirectory recursion.
type Walker interface {
	Walk(ctx context.Context, top string) iter.Seq2[WalkEntry, error]
}

// Walk yields a pre-order traversal of the directory tree under top as a
// lazy, finite sequence. The sequence is restartable by calling Walk
// again. Listing errors are yielded with a zero-value entry; the consumer
// decides whether to continue past them or stop.
func Walk(ctx context.Context, top string) iter.Seq2[WalkEntry, error] {
	return WalkFS(ctx, nil, top)
}

// WalkFS is Walk against an explicit backend. A nil fs resolves top
// through the default registry.
func WalkFS(ctx context.Context, fs FileSystem, top string) iter.Seq2[WalkEntry, error] {
	return func(yield func(WalkEntry, error) bool) {
		resolved := fs
		if resolved == nil {
			var err error
			resolved, err = Resolve(top)
			if err != nil {
				yield(WalkEntry{}, err)
				return
			}
		}
		if w, ok := resolved.(Walker); ok {
			for entry, err := range w.Walk(ctx, top) {
				if !yield(entry, err) {
					return
				}
			}
			return
		}
		root, err := resolved.Abspath(top)
		if err != nil {
			yield(WalkEntry{}, err)
			return
		}
		walkDir(ctx, resolved, root, yield)
	}
}

func walkDir(ctx context.Context, fs FileSystem, dir string, yield func(WalkEntry, error) bool) bool {
	listing, err := fs.ListDir(ctx, dir)
	if err != nil {
		return yield(WalkEntry{Dir: dir}, err)
	}

	var subDirs, files []string
	for _, item := range listing {
		full := fs.Join(dir, item)
		isDir, err := fs.IsDir(ctx, full)
		if err != nil {
			if !yield(WalkEntry{Dir: full}, err) {
				return false
			}
			continue
		}
		if isDir {
			subDirs = append(subDirs, item)
		} else {
			files = append(files, item)
		}
	}

	if !yield(WalkEntry{Dir: dir, SubDirs: subDirs, Files: files}, nil) {
		return false
	}
	for _, sub := range subDirs {
		if !walkDir(ctx, fs, fs.Join(dir, sub), yield) {
			return false
		}
	}
	return true
}
