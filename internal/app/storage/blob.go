// Package storage provides download access to the recording blob store.
// Uploads belong to the backend that owns the recordings; the pipeline only
// reads.
package storage

import "context"

// BlobStore fetches recorded audio by storage path.
type BlobStore interface {
	// Stat returns the object size in bytes.
	Stat(ctx context.Context, path string) (int64, error)
	// Download copies the object to destPath on local disk.
	Download(ctx context.Context, path, destPath string) error
}
