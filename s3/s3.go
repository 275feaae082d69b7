package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/tracekit/fsio"
	"github.com/tracekit/fsio/internal/urlpath"
)

// Prefix is the registration key for this backend.
const Prefix = "s3"

// Client is the subset of the S3 API the backend uses. *s3.Client
// satisfies it; tests substitute a fake.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ Client = (*s3.Client)(nil)

// FileSystem implements fsio.FileSystem over an S3-compatible object
// store with "s3://bucket/key" addressing.
type FileSystem struct {
	client Client
	logger *fsio.Logger
}

type options struct {
	client   Client
	endpoint string
	logger   *fsio.Logger
}

// Option configures the backend constructor.
type Option func(*options)

// WithClient supplies a pre-built client, skipping environment-derived
// configuration.
func WithClient(c Client) Option {
	return func(o *options) { o.client = c }
}

// WithEndpoint overrides the endpoint, taking precedence over the
// S3_ENDPOINT environment variable.
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
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
// the default AWS config chain, static credentials from
// AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY when both are set, and a
// path-style custom endpoint from S3_ENDPOINT.
func New(ctx context.Context, opts ...Option) (*FileSystem, error) {
	o := options{logger: fsio.NewLogger(nil)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if accessKey != "" && secretKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, err
		}
		endpoint := o.endpoint
		if endpoint == "" {
			endpoint = os.Getenv("S3_ENDPOINT")
		}
		o.client = s3.NewFromConfig(cfg, func(so *s3.Options) {
			if endpoint != "" {
				so.BaseEndpoint = aws.String(endpoint)
				so.UsePathStyle = true
			}
		})
	}
	return &FileSystem{client: o.client, logger: o.logger}, nil
}

// Register builds the backend and registers it under Prefix.
func Register(ctx context.Context, r *fsio.Registry, opts ...Option) error {
	fs, err := New(ctx, opts...)
	if err != nil {
		return err
	}
	return r.Register(Prefix, fs)
}

// bucketAndKey splits an s3-prefixed URL into bucket and key.
func bucketAndKey(name string) (string, string, error) {
	rest := strings.TrimPrefix(name, Prefix+"://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" {
		return "", "", &fsio.MalformedURLError{URL: name, Reason: "want s3://bucket/key"}
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

func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return false, err
	}
	return f.probe(ctx, bucket, key)
}

// probe checks for matching objects or common prefixes under key. An
// object whose key is an exact prefix of other keys appears as existing
// whether probed as a file or as a directory.
func (f *FileSystem) probe(ctx context.Context, bucket, key string) (bool, error) {
	out, err := f.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(key),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
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
	if size == 0 {
		return []byte{}, &token{offset: off}, nil
	}

	f.logger.Info("s3: starting read", "file", path, "offset", off)
	data, err := f.getRange(ctx, bucket, key, rangeHeader(off, size))
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil, fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		var apiErr smithy.APIError
		if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "InvalidRange" {
			return nil, nil, err
		}
		// Asked past the end of the object. Clamp to the object's length
		// in a second request so the common path never checks it.
		if size < 0 {
			return []byte{}, &token{offset: off}, nil
		}
		head, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, nil, err
		}
		end := min(aws.ToInt64(head.ContentLength), off+size)
		if off >= end {
			data = []byte{}
		} else {
			data, err = f.getRange(ctx, bucket, key, fmt.Sprintf("bytes=%d-%d", off, end-1))
			if err != nil {
				return nil, nil, err
			}
		}
	}
	f.logger.Info("s3: read done", "file", path, "size", len(data))

	// Raw bytes, no decoding: the offset advances by exactly what was
	// received.
	return data, &token{offset: off + int64(len(data))}, nil
}

func rangeHeader(off, size int64) string {
	switch {
	case size < 0 && off == 0:
		return ""
	case size < 0:
		return fmt.Sprintf("bytes=%d-", off)
	default:
		return fmt.Sprintf("bytes=%d-%d", off, off+size-1)
	}
}

func (f *FileSystem) getRange(ctx context.Context, bucket, key, rng string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if rng != "" {
		input.Range = aws.String(rng)
	}
	resp, err := f.client.GetObject(ctx, input)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (f *FileSystem) Write(ctx context.Context, path string, data []byte) error {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return err
	}
	_, err = f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (f *FileSystem) SupportsAppend() bool { return false }

func (f *FileSystem) Append(_ context.Context, _ string, _ []byte) error { return nil }

func (f *FileSystem) Glob(ctx context.Context, pattern string) ([]string, error) {
	// Only a prefix with a trailing '*' and no '?' anywhere.
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
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(key),
	})
	var matches []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rest := strings.TrimPrefix(aws.ToString(obj.Key), key)
			if rest != "" {
				matches = append(matches, prefix+rest)
			}
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
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(key),
		Delimiter: aws.String("/"),
	})
	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, cp := range page.CommonPrefixes {
			p := aws.ToString(cp.Prefix)
			names = append(names, strings.TrimSuffix(p[len(key):], "/"))
		}
		for _, obj := range page.Contents {
			// Skip the base dir, which would add an empty string.
			if name := aws.ToString(obj.Key)[len(key):]; name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// MakeDirs puts a zero-length directory-marker object with a trailing
// slash unless the path already probes as existing.
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
	_, err = f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	return err
}

func (f *FileSystem) Stat(ctx context.Context, path string) (fsio.StatData, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return fsio.StatData{}, err
	}
	head, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return fsio.StatData{}, fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return fsio.StatData{}, err
	}
	return fsio.StatData{Length: aws.ToInt64(head.ContentLength)}, nil
}

// DownloadFile streams the whole object to a temporary file and returns
// its location. The caller owns the file.
func (f *FileSystem) DownloadFile(ctx context.Context, path string) (string, error) {
	bucket, key, err := bucketAndKey(path)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "fsio-*-"+urlpath.Basename(path))
	if err != nil {
		return "", err
	}
	f.logger.Info("s3: starting download", "file", path, "as", tmp.Name())
	downloader := manager.NewDownloader(f.client)
	_, err = downloader.Download(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", fmt.Errorf("%s: %w", path, fsio.ErrNotFound)
		}
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	f.logger.Info("s3: download done", "file", path, "as", tmp.Name())
	return tmp.Name(), nil
}
