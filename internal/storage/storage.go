package storage

import "context"

// ObjectStore is the object-storage boundary the pipeline depends on. No
// retry/backoff contract is assumed; a failed download surfaces as a pipeline
// failure for the document.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}
