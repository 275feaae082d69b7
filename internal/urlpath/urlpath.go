// Package urlpath implements the pure-string path manipulation shared by
// the remote backends: slash-separated keys with no cleaning, expansion,
// or host-filesystem semantics.
package urlpath

import "strings"

// Basename returns the final slash-separated component of p. A trailing
// slash yields an empty basename.
func Basename(p string) string {
	parts := strings.Split(p, "/")
	return parts[len(parts)-1]
}

// Relpath returns p relative to start. When p is not nested under start
// it is returned unchanged.
func Relpath(p, start string) string {
	if !strings.HasPrefix(p, start) {
		return p
	}
	start = strings.TrimRight(start, "/")
	// Skip the separating slash as well.
	if len(p) <= len(start)+1 {
		return ""
	}
	return p[len(start)+1:]
}

// Join joins path elements with a slash, verbatim. Unlike path.Join it
// performs no cleaning, so the result round-trips exactly into reads and
// writes on the same key.
func Join(p string, elem ...string) string {
	return strings.Join(append([]string{p}, elem...), "/")
}

// Dir returns the directory portion of p, empty when p has no slash.
func Dir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}
