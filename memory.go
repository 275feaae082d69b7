package fsio

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tracekit/fsio/internal/urlpath"
)

// MemFS is an in-memory FileSystem for testing. It behaves like the
// remote backends: slash-separated keys, trailing-'*' glob only,
// directory markers, no native append. Thread-safe.
type MemFS struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemFS creates a new in-memory backend.
func NewMemFS() *MemFS {
	return &MemFS{objects: make(map[string][]byte)}
}

type memToken struct {
	offset int64
}

func memOffset(cont Continuation) (int64, error) {
	if cont == nil {
		return 0, nil
	}
	t, ok := cont.(*memToken)
	if !ok {
		return 0, &ForeignTokenError{Backend: "memory"}
	}
	return t.offset, nil
}

func (m *MemFS) Exists(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[path]; ok {
		return true, nil
	}
	return m.hasPrefixLocked(strings.TrimSuffix(path, "/") + "/"), nil
}

func (m *MemFS) hasPrefixLocked(prefix string) bool {
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (m *MemFS) Abspath(path string) (string, error) { return path, nil }

func (m *MemFS) Basename(path string) string {
	return urlpath.Basename(path)
}

func (m *MemFS) Relpath(path, start string) string {
	return urlpath.Relpath(path, start)
}

func (m *MemFS) Join(path string, elem ...string) string {
	return urlpath.Join(path, elem...)
}

func (m *MemFS) Read(_ context.Context, path string, size int64, cont Continuation) ([]byte, Continuation, error) {
	off, err := memOffset(cont)
	if err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	data, ok := m.objects[path]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	end := int64(len(data))
	if size >= 0 && off+size < end {
		end = off + size
	}
	chunk := make([]byte, end-off)
	copy(chunk, data[off:end])
	return chunk, &memToken{offset: end}, nil
}

func (m *MemFS) Write(_ context.Context, path string, data []byte) error {
	copied := make([]byte, len(data))
	copy(copied, data)
	m.mu.Lock()
	m.objects[path] = copied
	m.mu.Unlock()
	return nil
}

func (m *MemFS) SupportsAppend() bool { return false }

func (m *MemFS) Append(_ context.Context, _ string, _ []byte) error { return nil }

func (m *MemFS) Glob(_ context.Context, pattern string) ([]string, error) {
	if strings.ContainsRune(pattern, '?') {
		return nil, &UnsupportedPatternError{Pattern: pattern}
	}
	if strings.Index(pattern, "*") != len(pattern)-1 {
		return nil, nil
	}
	prefix := pattern[:len(pattern)-1]
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) && key != prefix {
			matches = append(matches, key)
		}
	}
	return matches, nil
}

func (m *MemFS) IsDir(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasPrefixLocked(strings.TrimSuffix(path, "/") + "/"), nil
}

func (m *MemFS) ListDir(_ context.Context, path string) ([]string, error) {
	prefix := strings.TrimSuffix(path, "/") + "/"
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for key := range m.objects {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok || rest == "" {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *MemFS) MakeDirs(ctx context.Context, path string) error {
	exists, err := m.Exists(ctx, path)
	if err != nil || exists {
		return err
	}
	// Directory marker, same convention as the object-store backend.
	return m.Write(ctx, strings.TrimSuffix(path, "/")+"/", nil)
}

func (m *MemFS) Stat(_ context.Context, path string) (StatData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[path]
	if !ok {
		return StatData{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return StatData{Length: int64(len(data))}, nil
}

func (m *MemFS) DownloadFile(_ context.Context, path string) (string, error) {
	m.mu.RLock()
	data, ok := m.objects[path]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	f, err := os.CreateTemp("", "fsio-*-"+urlpath.Basename(path))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
