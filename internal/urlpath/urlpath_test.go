package urlpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"s3://bucket/dir/file.json", "file.json"},
		{"s3://bucket/dir/", ""},
		{"file.json", "file.json"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Basename(tt.path), "Basename(%q)", tt.path)
	}
}

func TestRelpath(t *testing.T) {
	tests := []struct {
		path  string
		start string
		want  string
	}{
		{"s3://bucket/dir/file.json", "s3://bucket", "dir/file.json"},
		{"s3://bucket/dir/file.json", "s3://bucket/", "dir/file.json"},
		{"s3://bucket/dir/file.json", "s3://bucket/dir", "file.json"},
		{"s3://bucket/dir", "s3://bucket/dir", ""},
		{"s3://other/file.json", "s3://bucket", "s3://other/file.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Relpath(tt.path, tt.start), "Relpath(%q, %q)", tt.path, tt.start)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "s3://bucket/dir/file.json", Join("s3://bucket", "dir", "file.json"))
	assert.Equal(t, "s3://bucket", Join("s3://bucket"))
	// No cleaning: what goes in comes out.
	assert.Equal(t, "s3://bucket//file.json", Join("s3://bucket/", "file.json"))
}

func TestDir(t *testing.T) {
	assert.Equal(t, "s3://bucket/dir", Dir("s3://bucket/dir/file.json"))
	assert.Equal(t, "", Dir("file.json"))
	assert.Equal(t, "s3://bucket/dir", Dir("s3://bucket/dir/"))
}
