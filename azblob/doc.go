// Package azblob implements the fsio backend for Azure Blob Storage.
//
// URLs parse as "https://account.blob.core.windows.net/container/path":
// the host is the storage account and the path must carry exactly a
// container and a blob path. Existence and directory checks are a
// name-prefix heuristic over a one-page listing; blobs that merely share
// a name prefix without being logically nested can be misclassified.
// That is an accepted limitation of the addressing model, not a contract
// to strengthen.
//
// With AZURE_STORAGE_CONNECTION_STRING set, clients authenticate through
// the connection string; otherwise anonymous per-account clients are
// built from the URL.
package azblob
