package services

import (
	"context"
	"fmt"
	"io"
	"log"

	"todoapp/model"
	"todoapp/store"
)

// AttachmentResolver derives the owner of every stored blob and keeps the
// reconciler's attachment map current. One blob per task; a replacement
// upload always deletes the old blob first, so last write for a task id wins.
type AttachmentResolver struct {
	blobs store.BlobStore
	rec   *Reconciler
}

func NewAttachmentResolver(blobs store.BlobStore, rec *Reconciler) *AttachmentResolver {
	return &AttachmentResolver{blobs: blobs, rec: rec}
}

// resolve fetches the blob's download URL and merges the entry into the
// attachment map. A failed URL fetch leaves the attachment absent; the rest
// of the view is unaffected.
func (r *AttachmentResolver) resolve(ctx context.Context, info store.BlobInfo) error {
	taskID := info.TaskID
	if taskID == "" {
		// Blob written before owner metadata was recorded: fall back to the
		// composite-key split.
		var ok bool
		taskID, _, ok = store.ParseKey(info.Key)
		if !ok {
			return fmt.Errorf("blob %q has no owner metadata and no parsable key", info.Key)
		}
	}
	url, err := r.blobs.URL(ctx, info.Key)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", info.Key, err)
	}
	r.rec.SetAttachment(model.Attachment{TaskID: taskID, URL: url, StorageKey: info.Key})
	return nil
}

// Bootstrap lists every stored blob and resolves each one, populating the
// attachment map before the first render. Individual failures are logged and
// skipped.
func (r *AttachmentResolver) Bootstrap(ctx context.Context) error {
	blobs, err := r.blobs.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, info := range blobs {
		if err := r.resolve(ctx, info); err != nil {
			log.Printf("attachment bootstrap: %v", err)
		}
	}
	return nil
}

// Upload stores data under "<taskId>--<filename>" and resolves it into the
// attachment map. If the owning task disappeared while the upload was in
// flight, the result is discarded and the orphaned blob deleted instead of
// merging a stale entry.
func (r *AttachmentResolver) Upload(ctx context.Context, taskID, filename string, data io.Reader) error {
	key := taskID + store.KeySeparator + filename
	if err := r.blobs.Upload(ctx, key, taskID, filename, data); err != nil {
		return err
	}
	if !r.rec.HasTask(taskID) {
		if err := r.blobs.Delete(ctx, key); err != nil {
			log.Printf("orphan blob %q not deleted: %v", key, err)
		}
		return nil
	}
	return r.resolve(ctx, store.BlobInfo{Key: key, TaskID: taskID, Filename: filename})
}

// Remove deletes the blob referenced by the mapping entry for taskID, if
// any. The mapping entry itself is not cleared; once the owning task is gone
// it is unreachable from the view.
func (r *AttachmentResolver) Remove(ctx context.Context, taskID string) error {
	att, ok := r.rec.Attachment(taskID)
	if !ok {
		return nil
	}
	return r.blobs.Delete(ctx, att.StorageKey)
}
