package azblob

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/url"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	az "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/tracekit/fsio"
	"github.com/tracekit/fsio/internal/urlpath"
)

// client is the narrow slice of the blob service the backend uses.
// A count <= 0 on download means "to the end of the blob"; a max <= 0 on
// list means unbounded.
type client interface {
	download(ctx context.Context, container, blob string, offset, count int64) ([]byte, error)
	list(ctx context.Context, container, prefix string, max int32) ([]string, error)
	upload(ctx context.Context, container, blob string, data []byte) error
	size(ctx context.Context, container, blob string) (int64, error)
}

// FileSystem implements fsio.FileSystem over Azure Blob Storage with
// account/container/blob-path addressing.
type FileSystem struct {
	// newClient builds a client for one storage account. Clients are
	// per-account because anonymous access derives the endpoint from the
	// URL being resolved.
	newClient func(account string) (client, error)
	logger    *fsio.Logger
}

type options struct {
	connectionString string
	logger           *fsio.Logger
}

// Option configures the backend constructor.
type Option func(*options)

// WithConnectionString overrides the AZURE_STORAGE_CONNECTION_STRING
// environment variable.
func WithConnectionString(s string) Option {
	return func(o *options) { o.connectionString = s }
}

// WithLogger overrides the backend's logger.
func WithLogger(l *fsio.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates the backend. With a connection string (option or
// environment), all accounts authenticate through it; otherwise each
// account gets an anonymous client derived from the URL host.
func New(opts ...Option) (*FileSystem, error) {
	o := options{
		connectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
		logger:           fsio.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &FileSystem{
		newClient: func(account string) (client, error) {
			var c *az.Client
			var err error
			if o.connectionString != "" {
				c, err = az.NewClientFromConnectionString(o.connectionString, nil)
			} else {
				c, err = az.NewClientWithNoCredential("https://"+account+"/", nil)
			}
			if err != nil {
				return nil, err
			}
			return &sdkClient{c: c}, nil
		},
		logger: o.logger,
	}, nil
}

// Register builds the backend and registers it under fsio.BlobPrefix,
// which also covers http(s) URLs with a blob-storage host.
func Register(r *fsio.Registry, opts ...Option) error {
	fs, err := New(opts...)
	if err != nil {
		return err
	}
	return r.Register(fsio.BlobPrefix, fs)
}

// containerAndPath splits a blob URL into account, container, and blob
// path. The URL path must carry exactly those two segments.
func containerAndPath(name string) (string, string, string, error) {
	u, err := url.Parse(name)
	if err != nil {
		return "", "", "", &fsio.MalformedURLError{URL: name, Reason: err.Error()}
	}
	container, blobPath, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || container == "" || blobPath == "" {
		return "", "", "", &fsio.MalformedURLError{URL: name, Reason: "want account host and container/blob-path"}
	}
	return u.Host, container, blobPath, nil
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
		return 0, &fsio.ForeignTokenError{Backend: fsio.BlobPrefix}
	}
	return t.offset, nil
}

func isNotFound(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound)
}

// matchFirst applies the name heuristic to the first listed blob: the
// path segment directly after the target's parent directory must equal
// the target's basename. asDir additionally requires a deeper component.
func matchFirst(blobName, target string, asDir bool) bool {
	if dir := urlpath.Dir(target); dir != "" {
		rel := blobName[len(dir):]
		parts := strings.Split(strings.TrimLeft(rel, "/"), "/")
		if parts[0] != urlpath.Basename(target) {
			return false
		}
		return !asDir || len(parts) > 1
	}
	parts := strings.Split(blobName, "/")
	if parts[0] != target {
		return false
	}
	return !asDir || len(parts) > 1
}

func (f *FileSystem) lookup(ctx context.Context, path string, asDir bool) (bool, error) {
	account, container, p, err := containerAndPath(path)
	if err != nil {
		return false, err
	}
	c, err := f.newClient(account)
	if err != nil {
		return false, err
	}
	names, err := c.list(ctx, container, p, 1)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if len(names) == 0 {
		return false, nil
	}
	return matchFirst(names[0], p, asDir), nil
}

func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	return f.lookup(ctx, path, false)
}

func (f *FileSystem) IsDir(ctx context.Context, path string) (bool, error) {
	return f.lookup(ctx, path, true)
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
	account, container, p, err := containerAndPath(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := f.newClient(account)
	if err != nil {
		return nil, nil, err
	}

	// The size probe surfaces NotFound before the first read and clamps
	// ranges past the end of the blob.
	total, err := c.size(ctx, container, p)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return nil, nil, err
	}
	end := total
	if size >= 0 && off+size < end {
		end = off + size
	}
	if off >= end {
		return []byte{}, &token{offset: off}, nil
	}

	f.logger.Info("azure blob: starting read", "file", path, "offset", off)
	data, err := c.download(ctx, container, p, off, end-off)
	if err != nil {
		return nil, nil, err
	}
	f.logger.Info("azure blob: read done", "file", path, "size", len(data))

	return data, &token{offset: off + int64(len(data))}, nil
}

func (f *FileSystem) Write(ctx context.Context, path string, data []byte) error {
	account, container, p, err := containerAndPath(path)
	if err != nil {
		return err
	}
	c, err := f.newClient(account)
	if err != nil {
		return err
	}
	return c.upload(ctx, container, p, data)
}

func (f *FileSystem) SupportsAppend() bool { return false }

func (f *FileSystem) Append(_ context.Context, _ string, _ []byte) error { return nil }

// Glob returns the names of blobs matching a trailing-'*' prefix
// pattern. Matches are blob names within the container, not full URLs.
func (f *FileSystem) Glob(ctx context.Context, pattern string) ([]string, error) {
	if strings.ContainsRune(pattern, '?') {
		return nil, &fsio.UnsupportedPatternError{Pattern: pattern}
	}
	if strings.Index(pattern, "*") != len(pattern)-1 {
		return nil, nil
	}
	account, container, p, err := containerAndPath(pattern[:len(pattern)-1])
	if err != nil {
		return nil, err
	}
	c, err := f.newClient(account)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, container, p, 0)
}

func (f *FileSystem) ListDir(ctx context.Context, path string) ([]string, error) {
	account, container, p, err := containerAndPath(path)
	if err != nil {
		return nil, err
	}
	c, err := f.newClient(account)
	if err != nil {
		return nil, err
	}
	names, err := c.list(ctx, container, p, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var items []string
	for _, name := range names {
		item := urlpath.Relpath(name, p)
		if item != "" && !seen[item] {
			seen[item] = true
			items = append(items, item)
		}
	}
	return items, nil
}

// MakeDirs is a no-op: blob stores have no directory entities, uploads
// create the implied hierarchy.
func (f *FileSystem) MakeDirs(_ context.Context, _ string) error { return nil }

func (f *FileSystem) Stat(ctx context.Context, path string) (fsio.StatData, error) {
	account, container, p, err := containerAndPath(path)
	if err != nil {
		return fsio.StatData{}, err
	}
	c, err := f.newClient(account)
	if err != nil {
		return fsio.StatData{}, err
	}
	total, err := c.size(ctx, container, p)
	if err != nil {
		if isNotFound(err) {
			return fsio.StatData{}, fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return fsio.StatData{}, err
	}
	return fsio.StatData{Length: total}, nil
}

func (f *FileSystem) DownloadFile(ctx context.Context, path string) (string, error) {
	account, container, p, err := containerAndPath(path)
	if err != nil {
		return "", err
	}
	c, err := f.newClient(account)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "fsio-*-"+urlpath.Basename(path))
	if err != nil {
		return "", err
	}
	f.logger.Info("azure blob: starting download", "file", path, "as", tmp.Name())
	data, err := c.download(ctx, container, p, 0, 0)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		if isNotFound(err) {
			return "", fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	f.logger.Info("azure blob: download done", "file", path, "as", tmp.Name(), "size", len(data))
	return tmp.Name(), nil
}

// Walk lists every blob under top in one pass and yields one entry per
// distinct parent directory, grouped by synthesized parent URL. Entries
// are one level deep: no subdirectory recursion.
func (f *FileSystem) Walk(ctx context.Context, top string) iter.Seq2[fsio.WalkEntry, error] {
	return func(yield func(fsio.WalkEntry, error) bool) {
		account, container, p, err := containerAndPath(top)
		if err != nil {
			yield(fsio.WalkEntry{}, err)
			return
		}
		c, err := f.newClient(account)
		if err != nil {
			yield(fsio.WalkEntry{}, err)
			return
		}
		names, err := c.list(ctx, container, p, 0)
		if err != nil {
			yield(fsio.WalkEntry{}, err)
			return
		}
		groups := make(map[string][]string)
		var order []string
		for _, name := range names {
			dirURL := fmt.Sprintf("https://%s/%s/%s", account, container, urlpath.Dir(name))
			if _, ok := groups[dirURL]; !ok {
				order = append(order, dirURL)
			}
			groups[dirURL] = append(groups[dirURL], urlpath.Basename(name))
		}
		for _, dirURL := range order {
			if !yield(fsio.WalkEntry{Dir: dirURL, Files: groups[dirURL]}, nil) {
				return
			}
		}
	}
}

// sdkClient adapts the Azure SDK client to the narrow client interface.
type sdkClient struct {
	c *az.Client
}

func (s *sdkClient) download(ctx context.Context, container, blob string, offset, count int64) ([]byte, error) {
	if count < 0 {
		count = 0 // to the end
	}
	resp, err := s.c.DownloadStream(ctx, container, blob, &az.DownloadStreamOptions{
		Range: az.HTTPRange{Offset: offset, Count: count},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *sdkClient) list(ctx context.Context, container, prefix string, max int32) ([]string, error) {
	opts := &az.ListBlobsFlatOptions{Prefix: to.Ptr(prefix)}
	if max > 0 {
		opts.MaxResults = to.Ptr(max)
	}
	pager := s.c.NewListBlobsFlatPager(container, opts)
	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Segment.BlobItems {
			names = append(names, *item.Name)
			if max > 0 && int32(len(names)) >= max {
				return names, nil
			}
		}
	}
	return names, nil
}

func (s *sdkClient) upload(ctx context.Context, container, blob string, data []byte) error {
	_, err := s.c.UploadBuffer(ctx, container, blob, data, nil)
	return err
}

func (s *sdkClient) size(ctx context.Context, container, blob string) (int64, error) {
	resp, err := s.c.ServiceClient().NewContainerClient(container).NewBlobClient(blob).GetProperties(ctx, nil)
	if err != nil {
		return 0, err
	}
	if resp.ContentLength == nil {
		return 0, nil
	}
	return *resp.ContentLength, nil
}
