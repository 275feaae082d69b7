package fsio

import (
	"fmt"
	"net/url"
	"strings"
)

// BlobHostSuffix is the storage-domain suffix that routes http(s) URLs to
// the backend registered under BlobPrefix.
const BlobHostSuffix = ".blob.core.windows.net"

// BlobPrefix is the registration key for the Azure blob backend. It is
// consulted both for "blob://" paths and for http(s) URLs whose host ends
// in BlobHostSuffix.
const BlobPrefix = "blob"

// Registry maps path prefixes to backend instances.
//
// A Registry is populated once at startup and treated as immutable
// afterwards; it performs no locking of its own under that discipline.
type Registry struct {
	backends map[string]FileSystem
}

// NewRegistry returns a Registry with the local backend registered under
// the empty prefix.
func NewRegistry() *Registry {
	r := &Registry{backends: make(map[string]FileSystem)}
	r.backends[""] = NewLocalFS()
	return r
}

// Register registers fs under the given prefix. The prefix must not
// contain a ':'. Re-registering a prefix replaces the previous backend.
func (r *Registry) Register(prefix string, fs FileSystem) error {
	if strings.Contains(prefix, ":") {
		return fmt.Errorf("filesystem prefix %q cannot contain a ':': %w", prefix, ErrInvalidArgument)
	}
	r.backends[prefix] = fs
	return nil
}

// Resolve returns the backend registered for the given path.
//
// The prefix is the substring before the first "://" (empty for local
// paths). "http" and "https" prefixes are resolved by host: hosts ending
// in BlobHostSuffix dispatch to the BlobPrefix registration, anything
// else is unsupported.
func (r *Registry) Resolve(path string) (FileSystem, error) {
	prefix := ""
	if i := strings.Index(path, "://"); i >= 0 {
		prefix = path[:i]
	}
	if strings.EqualFold(prefix, "http") || strings.EqualFold(prefix, "https") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, &MalformedURLError{URL: path, Reason: err.Error()}
		}
		if strings.HasSuffix(strings.ToLower(u.Host), BlobHostSuffix) {
			if fs, ok := r.backends[BlobPrefix]; ok {
				return fs, nil
			}
			return nil, &UnsupportedSchemeError{Scheme: BlobPrefix}
		}
		return nil, &UnsupportedSchemeError{Scheme: u.Host}
	}
	fs, ok := r.backends[prefix]
	if !ok {
		return nil, &UnsupportedSchemeError{Scheme: prefix}
	}
	return fs, nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the free-function
// surface. Populate it at startup, before any path resolution.
func Default() *Registry {
	return defaultRegistry
}

// Register registers fs under prefix in the default registry.
func Register(prefix string, fs FileSystem) error {
	return defaultRegistry.Register(prefix, fs)
}

// Resolve returns the backend for path from the default registry.
func Resolve(path string) (FileSystem, error) {
	return defaultRegistry.Resolve(path)
}
