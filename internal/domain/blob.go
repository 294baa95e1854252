package domain

import (
	"context"
	"io"
)

// BlobPutResult describes a stored blob. StorageKey is the opaque
// fileLocation recorded on documents and versions.
type BlobPutResult struct {
	StorageKey string
	Size       int64
	SHA256     []byte
}

// BlobStorage is the file-content collaborator. Document bytes are
// referenced by opaque storage keys; the docstore core never reads or
// interprets blob content.
type BlobStorage interface {
	// Put uploads a stream and returns the final storage key and size.
	Put(ctx context.Context, r io.Reader, hintName, contentType string) (BlobPutResult, error)

	// Get opens a blob for reading. rangeHeader is an optional HTTP Range
	// value ("bytes=START-END"); contentRange is set when a range was served.
	Get(ctx context.Context, storageKey, rangeHeader string) (rc io.ReadCloser, contentLen int64, contentRange, contentType string, err error)

	// Remove deletes a blob. Removing a missing key is not an error.
	Remove(ctx context.Context, storageKey string) error
}
