// Package s3 implements the fsio backend for S3 and S3-compatible object
// stores using the AWS SDK v2.
//
// Paths use "s3://bucket/key" addressing. Reads are ranged GETs; requests
// past the end of an object are clamped to the object's length after a
// metadata probe rather than surfaced as range errors. Writes replace the
// whole object, so append goes through fsio.File's spill emulation.
//
// Configuration is environment-derived, matching the profiling tool's
// deployment model: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY select
// static credentials when both are set, and S3_ENDPOINT points the client
// at a custom, path-style endpoint.
package s3
