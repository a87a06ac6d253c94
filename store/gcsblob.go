package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const blobPrefix = "files/"

// KeySeparator joins the owning task id and the original filename in a blob
// key: "<taskId>--<filename>". Object metadata is the authoritative owner
// reference; the separator split is only a fallback for blobs written before
// metadata was recorded.
const KeySeparator = "--"

type GCSBlobStore struct {
	bucket *storage.BucketHandle
	urlTTL time.Duration
}

func NewGCSBlobStore(bucket *storage.BucketHandle) *GCSBlobStore {
	return &GCSBlobStore{bucket: bucket, urlTTL: 24 * time.Hour}
}

func (s *GCSBlobStore) Upload(ctx context.Context, key string, taskID, filename string, data io.Reader) error {
	w := s.bucket.Object(blobPrefix + key).NewWriter(ctx)
	w.Metadata = map[string]string{
		"taskId":   taskID,
		"filename": filename,
	}
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *GCSBlobStore) URL(ctx context.Context, key string) (string, error) {
	return s.bucket.SignedURL(blobPrefix+key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(s.urlTTL),
	})
}

func (s *GCSBlobStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(blobPrefix + key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSBlobStore) ListAll(ctx context.Context) ([]BlobInfo, error) {
	var blobs []BlobInfo
	objects := s.bucket.Objects(ctx, &storage.Query{Prefix: blobPrefix})
	for {
		attrs, err := objects.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		key := strings.TrimPrefix(attrs.Name, blobPrefix)
		if key == "" {
			continue
		}
		blobs = append(blobs, BlobInfo{
			Key:      key,
			TaskID:   attrs.Metadata["taskId"],
			Filename: attrs.Metadata["filename"],
		})
	}
	return blobs, nil
}

// ParseKey recovers the owning task id and filename from a composite blob
// key. Filenames containing the separator keep everything after the first
// occurrence.
func ParseKey(key string) (taskID, filename string, ok bool) {
	taskID, filename, ok = strings.Cut(key, KeySeparator)
	if !ok || taskID == "" || filename == "" {
		return "", "", false
	}
	return taskID, filename, true
}
