package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tracekit/fsio"
	"github.com/tracekit/fsio/internal/urlpath"
)

// Prefix is the registration key for this backend.
const Prefix = "minio"

// FileSystem implements fsio.FileSystem over an S3-compatible endpoint
// via minio-go, with "minio://bucket/key" addressing.
type FileSystem struct {
	client *minio.Client
	logger *fsio.Logger
}

type options struct {
	client *minio.Client
	logger *fsio.Logger
}

// Option configures the backend constructor.
type Option func(*options)

// WithClient supplies a pre-built client, skipping environment-derived
// configuration.
func WithClient(c *minio.Client) Option {
	return func(o *options) { o.client = c }
}

// WithLogger overrides the backend's logger.
func WithLogger(l *fsio.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates the backend. Without WithClient, the client is built from
// MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, and MINIO_SECURE.
func New(opts ...Option) (*FileSystem, error) {
	o := options{logger: fsio.NewLogger(nil)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		endpoint := os.Getenv("MINIO_ENDPOINT")
		if endpoint == "" {
			return nil, fmt.Errorf("MINIO_ENDPOINT not set: %w", fsio.ErrInvalidArgument)
		}
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: os.Getenv("MINIO_SECURE") == "true",
		})
		if err != nil {
			return nil, err
		}
		o.client = client
	}
	return &FileSystem{client: o.client, logger: o.logger}, nil
}

// Register builds the backend and registers it under Prefix.
func Register(r *fsio.Registry, opts ...Option) error {
	fs, err := New(opts...)
	if err != nil {
		return err
	}
	return r.Register(Prefix, fs)
}

func bucketAndKey(name string) (string, string, error) {
	rest := strings.TrimPrefix(name, Prefix+"://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" {
		return "", "", &fsio.MalformedURLError{URL: name, Reason: "want minio://bucket/key"}
	}
	return bucket, key, nil
}

type token struct {
	offset int64
}

func tokenOffset(cont fsio.Continuation) (int64, error) {
	if cont == nil {
		return 0, nil
	}
	t, ok := cont.(*token)
	if !ok {
		return 0, &fsio.ForeignTokenError{Backend: Prefix}
	}
	return t.offset, nil
}

func notFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket"
}

func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return false, err
	}
	return f.probe(ctx, bucket, key)
}

// probe lists one page under key with the directory delimiter; a file, a
// marker, or any nested object counts as existing.
func (f *FileSystem) probe(ctx context.Context, bucket, key string) (bool, error) {
	for obj := range f.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    key,
		Recursive: false,
	}) {
		if obj.Err != nil {
			if notFound(obj.Err) {
				return false, nil
			}
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

func (f *FileSystem) Abspath(path string) (string, error) { return path, nil }

func (f *FileSystem) Basename(path string) string {
	return urlpath.Basename(path)
}

func (f *FileSystem) Relpath(path, start string) string {
	return urlpath.Relpath(path, start)
}

func (f *FileSystem) Join(path string, elem ...string) string {
	return urlpath.Join(path, elem...)
}

func (f *FileSystem) Read(ctx context.Context, path string, size int64, cont fsio.Continuation) ([]byte, fsio.Continuation, error) {
	off, err := tokenOffset(cont)
	if err != nil {
		return nil, nil, err
	}
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return nil, nil, err
	}

	// Stat up front: it surfaces NotFound before the first read and gives
	// the length used to clamp out-of-range requests.
	info, err := f.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if notFound(err) {
			return nil, nil, fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return nil, nil, err
	}

	end := info.Size
	if size >= 0 && off+size < end {
		end = off + size
	}
	if off >= end {
		return []byte{}, &token{offset: off}, nil
	}

	f.logger.Info("minio: starting read", "file", path, "offset", off)
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end-1); err != nil {
		return nil, nil, err
	}
	obj, err := f.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, err
	}
	f.logger.Info("minio: read done", "file", path, "size", len(data))

	return data, &token{offset: off + int64(len(data))}, nil
}

func (f *FileSystem) Write(ctx context.Context, path string, data []byte) error {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return err
	}
	_, err = f.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (f *FileSystem) SupportsAppend() bool { return false }

func (f *FileSystem) Append(_ context.Context, _ string, _ []byte) error { return nil }

func (f *FileSystem) Glob(ctx context.Context, pattern string) ([]string, error) {
	if strings.ContainsRune(pattern, '?') {
		return nil, &fsio.UnsupportedPatternError{Pattern: pattern}
	}
	if strings.Index(pattern, "*") != len(pattern)-1 {
		return nil, nil
	}
	prefix := pattern[:len(pattern)-1]
	bucket, key, err := bucketAndKey(prefix)
	if err != nil {
		return nil, err
	}
	var matches []string
	for obj := range f.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    key,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if rest := strings.TrimPrefix(obj.Key, key); rest != "" {
			matches = append(matches, prefix+rest)
		}
	}
	return matches, nil
}

func (f *FileSystem) IsDir(ctx context.Context, path string) (bool, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return false, err
	}
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return f.probe(ctx, bucket, key)
}

func (f *FileSystem) ListDir(ctx context.Context, path string) ([]string, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	var names []string
	for obj := range f.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    key,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		// Non-recursive listings report nested prefixes with a trailing
		// slash, like S3 common prefixes.
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, key), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (f *FileSystem) MakeDirs(ctx context.Context, path string) error {
	exists, err := f.Exists(ctx, path)
	if err != nil || exists {
		return err
	}
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	_, err = f.client.PutObject(ctx, bucket, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	return err
}

func (f *FileSystem) Stat(ctx context.Context, path string) (fsio.StatData, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return fsio.StatData{}, err
	}
	info, err := f.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if notFound(err) {
			return fsio.StatData{}, fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return fsio.StatData{}, err
	}
	return fsio.StatData{Length: info.Size}, nil
}

func (f *FileSystem) DownloadFile(ctx context.Context, path string) (string, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "fsio-*-"+urlpath.Basename(path))
	if err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	f.logger.Info("minio: starting download", "file", path, "as", tmp.Name())
	if err := f.client.FGetObject(ctx, bucket, key, tmp.Name(), minio.GetObjectOptions{}); err != nil {
		os.Remove(tmp.Name())
		if notFound(err) {
			return "", fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return "", err
	}
	f.logger.Info("minio: download done", "file", path, "as", tmp.Name())
	return tmp.Name(), nil
}
