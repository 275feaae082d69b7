package fsio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// DefaultChunkSize is the minimum amount requested from a backend per
// fetch when reading through a File.
const DefaultChunkSize = 16 * 1024 * 1024

type fileOptions struct {
	chunkSize int64
	registry  *Registry
}

// FileOption configures a File at open time.
type FileOption func(*fileOptions)

// WithChunkSize overrides the minimum fetch size. Values <= 0 keep the
// default.
func WithChunkSize(n int64) FileOption {
	return func(o *fileOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithRegistry resolves the file's backend from r instead of the default
// registry.
func WithRegistry(r *Registry) FileOption {
	return func(o *fileOptions) {
		if r != nil {
			o.registry = r
		}
	}
}

// File wraps one backend and one filename in a buffered, chunked,
// resumable stream: incremental reads, line iteration, and
// write-with-flush-on-close semantics independent of backend
// capabilities.
//
// A File is a single open→operate→close session. It holds private
// continuation state and must not be shared across goroutines or reused
// after Close.
type File struct {
	name           string
	fs             FileSystem
	supportsAppend bool
	binary         bool
	writeMode      bool
	closed         bool

	buf       []byte
	bufOff    int
	chunkSize int64
	cont      Continuation

	// Spill file accumulating writes for backends without native append,
	// flushed as one whole-object write.
	spill        *os.File
	writeStarted bool
}

// OpenFile opens name in one of the modes "r", "rb", "br", "w", "wb",
// "bw". Binary and text modes differ only in what WriteString accepts;
// data always moves as bytes.
func OpenFile(name, mode string, opts ...FileOption) (*File, error) {
	switch mode {
	case "r", "rb", "br", "w", "wb", "bw":
	default:
		return nil, fmt.Errorf("mode %q not supported by File: %w", mode, ErrInvalidArgument)
	}
	o := fileOptions{
		chunkSize: DefaultChunkSize,
		registry:  Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	fs, err := o.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &File{
		name:           name,
		fs:             fs,
		supportsAppend: fs.SupportsAppend(),
		binary:         strings.Contains(mode, "b"),
		writeMode:      strings.Contains(mode, "w"),
		chunkSize:      o.chunkSize,
	}, nil
}

// Open opens name for reading bytes.
func Open(name string, opts ...FileOption) (*File, error) {
	return OpenFile(name, "rb", opts...)
}

// Create opens name for writing bytes.
func Create(name string, opts ...FileOption) (*File, error) {
	return OpenFile(name, "wb", opts...)
}

// Name returns the filename the File was opened with.
func (f *File) Name() string { return f.name }

// readBufferTo drains the internal buffer up to newOff and returns the
// drained bytes.
func (f *File) readBufferTo(newOff int) []byte {
	old := f.bufOff
	end := min(len(f.buf), newOff)
	if end < old {
		end = old
	}
	f.bufOff = end
	return f.buf[old:end]
}

// Read returns up to n bytes, or, when n < 0, everything available after
// draining the buffer plus one backend fetch, which is not necessarily
// the whole remote object. Callers wanting all of a large object call Read(-1)
// repeatedly until it produces no data, or use ReadFile.
func (f *File) Read(ctx context.Context, n int64) ([]byte, error) {
	if f.writeMode {
		return nil, fmt.Errorf("file not opened in read mode: %w", ErrWrongMode)
	}
	if f.closed {
		return nil, ErrClosed
	}

	var result []byte
	if len(f.buf) > f.bufOff {
		if n >= 0 {
			chunk := f.readBufferTo(f.bufOff + int(n))
			if int64(len(chunk)) == n {
				return chunk, nil
			}
			result = chunk
			n -= int64(len(chunk))
		} else {
			result = f.readBufferTo(len(f.buf))
		}
	}

	readSize := n
	if n >= 0 && readSize < f.chunkSize {
		readSize = f.chunkSize
	}
	buf, cont, err := f.fs.Read(ctx, f.name, readSize, f.cont)
	if err != nil {
		return nil, err
	}
	f.buf = buf
	f.cont = cont
	f.bufOff = 0

	var chunk []byte
	if n >= 0 {
		chunk = f.readBufferTo(int(n))
	} else {
		chunk = f.readBufferTo(len(f.buf))
	}
	if result == nil {
		return chunk, nil
	}
	return append(result, chunk...), nil
}

// ReadLine returns the next line including its trailing newline, growing
// the read one unit at a time past the buffer until a newline appears or
// the backend is exhausted. At the end of the sequence it returns io.EOF.
func (f *File) ReadLine(ctx context.Context) ([]byte, error) {
	var line []byte
	for {
		if len(f.buf) == 0 {
			chunk, err := f.Read(ctx, 1)
			if err != nil {
				return nil, err
			}
			line = chunk
			if len(line) > 0 && (line[len(line)-1] == '\n' || len(f.buf) == 0) {
				return line, nil
			}
			if len(f.buf) == 0 {
				return nil, io.EOF
			}
			continue
		}
		if idx := bytes.IndexByte(f.buf[f.bufOff:], '\n'); idx >= 0 {
			chunk, err := f.Read(ctx, int64(idx+1))
			if err != nil {
				return nil, err
			}
			return append(line, chunk...), nil
		}
		chunk, err := f.Read(ctx, int64(len(f.buf)+1-f.bufOff))
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > 0 && (line[len(line)-1] == '\n' || len(f.buf) == 0) {
			return line, nil
		}
		if len(f.buf) == 0 {
			return nil, io.EOF
		}
	}
}

// Lines iterates over the remaining lines. The sequence is lazy, finite,
// and not restartable; a read failure is yielded once and ends the
// sequence.
func (f *File) Lines(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := f.ReadLine(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(string(line), nil) {
				return
			}
		}
	}
}

// Write writes p, clearing the target on the first call and appending on
// subsequent calls. On backends without native append the bytes
// accumulate in a local spill file until Flush or Close.
func (f *File) Write(ctx context.Context, p []byte) (int, error) {
	if !f.writeMode {
		return 0, fmt.Errorf("file not opened in write mode: %w", ErrWrongMode)
	}
	if f.closed {
		return 0, ErrClosed
	}

	if f.supportsAppend {
		if !f.writeStarted {
			// First chunk truncates the target if it already exists.
			if err := f.fs.Write(ctx, f.name, p); err != nil {
				return 0, err
			}
			f.writeStarted = true
			return len(p), nil
		}
		if err := f.fs.Append(ctx, f.name, p); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	if f.spill == nil {
		spill, err := os.CreateTemp("", "fsio-spill-")
		if err != nil {
			return 0, err
		}
		f.spill = spill
	}
	return f.spill.Write(p)
}

// WriteString writes s. On a binary-mode handle it fails: binary writes
// take bytes.
func (f *File) WriteString(ctx context.Context, s string) (int, error) {
	if f.binary {
		return 0, fmt.Errorf("file content must be bytes in binary mode: %w", ErrInvalidArgument)
	}
	return f.Write(ctx, []byte(s))
}

// Flush pushes spilled writes to the backend as one whole-object write.
// The spill is kept, so a later Flush resends the cumulative content.
func (f *File) Flush(ctx context.Context) error {
	if f.closed {
		return ErrClosed
	}
	if f.supportsAppend || f.spill == nil {
		return nil
	}
	if _, err := f.spill.Seek(0, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(f.spill)
	if err != nil {
		return err
	}
	if err := f.fs.Write(ctx, f.name, data); err != nil {
		return err
	}
	_, err = f.spill.Seek(int64(len(data)), io.SeekStart)
	return err
}

// Close flushes pending writes, releases the spill file, and marks the
// handle closed. Any further operation fails with ErrClosed.
func (f *File) Close(ctx context.Context) error {
	if err := f.Flush(ctx); err != nil {
		return err
	}
	if f.spill != nil {
		name := f.spill.Name()
		if err := f.spill.Close(); err != nil {
			return err
		}
		os.Remove(name)
		f.spill = nil
		f.writeStarted = false
	}
	f.closed = true
	f.buf = nil
	f.bufOff = 0
	f.cont = nil
	return nil
}

// Reader adapts the File to io.Reader, bound to ctx for the duration.
func (f *File) Reader(ctx context.Context) io.Reader {
	return &fileReader{ctx: ctx, f: f}
}

type fileReader struct {
	ctx context.Context
	f   *File
}

func (r *fileReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data, err := r.f.Read(r.ctx, int64(len(p)))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, io.EOF
	}
	return copy(p, data), nil
}
