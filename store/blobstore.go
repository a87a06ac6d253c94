package store

import (
	"context"
	"io"
)

// BlobInfo describes one stored blob. TaskID and Filename come from object
// metadata when present; callers fall back to parsing Key for blobs uploaded
// by clients that predate the metadata.
type BlobInfo struct {
	Key      string
	TaskID   string
	Filename string
}

// BlobStore is the remote file store keyed by "<taskId>--<filename>" under a
// fixed root prefix.
type BlobStore interface {
	Upload(ctx context.Context, key string, taskID, filename string, data io.Reader) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	ListAll(ctx context.Context) ([]BlobInfo, error)
}
