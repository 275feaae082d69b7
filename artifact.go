package fsio

import (
	"context"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// OpenArtifact opens name for reading, transparently decompressing
// gzip-compressed trace artifacts (paths ending in ".gz"). The returned
// reader must be closed; closing it closes the underlying File.
func OpenArtifact(ctx context.Context, name string, opts ...FileOption) (io.ReadCloser, error) {
	f, err := OpenFile(name, "rb", opts...)
	if err != nil {
		return nil, err
	}
	r := f.Reader(ctx)
	if strings.HasSuffix(name, ".gz") {
		zr, err := gzip.NewReader(r)
		if err != nil {
			f.Close(ctx)
			return nil, err
		}
		return &artifactReader{Reader: zr, close: func() error {
			zerr := zr.Close()
			if err := f.Close(ctx); err != nil {
				return err
			}
			return zerr
		}}, nil
	}
	return &artifactReader{Reader: r, close: func() error {
		return f.Close(ctx)
	}}, nil
}

type artifactReader struct {
	io.Reader
	close func() error
}

func (r *artifactReader) Close() error { return r.close() }
