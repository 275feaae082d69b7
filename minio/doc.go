// Package minio implements the fsio backend for S3-compatible object
// stores reached through minio-go, with "minio://bucket/key" addressing.
//
// It mirrors the s3 backend's semantics (ranged reads clamped to the
// object length, trailing-'*' glob, directory markers) but targets
// self-hosted and on-prem endpoints configured through MINIO_ENDPOINT,
// MINIO_ACCESS_KEY, MINIO_SECRET_KEY, and MINIO_SECURE.
package minio
