package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when the requested object key does not exist.
var ErrObjectNotFound = errors.New("object not found in storage")

// FileStorage defines the interface for object storage operations. Artifacts
// stream through the API server: clients never talk to the backend directly.
type FileStorage interface {
	// Upload stores an object under the given key. Keys are write-once;
	// a new file version always gets a fresh key.
	Upload(ctx context.Context, objectKey, contentType string, size int64, body io.Reader) error

	// Download returns the object body and its content type. The caller
	// must close the returned reader.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, string, error)

	// Delete removes an object. Used only for compensating cleanup of the
	// most recently attempted artifact; historical versions are never
	// deleted.
	Delete(ctx context.Context, objectKey string) error
}
