// Package fsio provides a pluggable virtual filesystem for reading and
// writing profiling-trace artifacts, whether they live on local disk, in
// an S3-compatible object store, or in Azure Blob Storage.
//
// A Registry dispatches file operations by URL prefix to a registered
// FileSystem backend. The local backend is always registered under the
// empty prefix; cloud backends are registered explicitly at startup:
//
//	reg := fsio.Default()
//	if err := s3.Register(ctx, reg); err != nil {
//	    log.Warn("s3 support disabled", "error", err)
//	}
//	if err := azblob.Register(ctx, reg); err != nil {
//	    log.Warn("azure blob support disabled", "error", err)
//	}
//
// A registration failure simply means paths with that prefix later fail
// with an unsupported-scheme error; nothing crashes at startup.
//
// # Paths
//
// Paths are plain strings of the form "<prefix>://<remainder>". The empty
// prefix denotes local paths, "s3" an S3 bucket/key, "minio" an
// S3-compatible endpoint, and "https" URLs whose host ends in
// ".blob.core.windows.net" dispatch to the Azure blob backend.
//
// # Reading and writing
//
// File layers buffered, chunked, resumable reads and write-with-flush
// semantics on top of any backend:
//
//	f, err := fsio.OpenFile("s3://bucket/run1/trace.json", "rb")
//	defer f.Close(ctx)
//	for line, err := range f.Lines(ctx) {
//	    ...
//	}
//
// Backends that cannot natively append (all remote backends) emulate
// append-on-write through a local spill file that is flushed as one
// whole-object write on Flush or Close.
//
// All operations are synchronous; cancellation and timeouts are the
// caller's responsibility via the context and the SDK transports.
// Continuation tokens returned by FileSystem.Read are private per-handle
// state, so multiple handles may read the same path concurrently.
// Concurrent writers to the same path are not coordinated: last writer
// wins.
package fsio
