// Package memory holds in-memory doubles for the two remote stores, used by
// tests in place of Firestore and Cloud Storage.
package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"todoapp/model"
	"todoapp/store"
)

type TaskStore struct {
	mu       sync.Mutex
	tasks    map[string]model.Task
	order    []string
	watchers []func([]model.Task)
	now      func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]model.Task),
		now:   time.Now,
	}
}

// SetNow overrides the clock used for server-assigned timestamps.
func (s *TaskStore) SetNow(now func() time.Time) {
	s.now = now
}

func (s *TaskStore) Upsert(ctx context.Context, task model.Task) error {
	s.mu.Lock()
	if task.Timestamp.IsZero() {
		task.Timestamp = s.now()
	}
	if _, ok := s.tasks[task.ID]; !ok {
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = task
	snapshot := s.snapshotLocked()
	watchers := append([]func([]model.Task){}, s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w(snapshot)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.tasks[id]; ok {
		delete(s.tasks, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	snapshot := s.snapshotLocked()
	watchers := append([]func([]model.Task){}, s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		w(snapshot)
	}
	return nil
}

// Watch delivers the current snapshot immediately, then again after every
// mutation, until ctx is cancelled.
func (s *TaskStore) Watch(ctx context.Context, onSnapshot func(tasks []model.Task)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, onSnapshot)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	onSnapshot(snapshot)
	<-ctx.Done()
}

// Tasks returns the stored documents in arrival order.
func (s *TaskStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *TaskStore) snapshotLocked() []model.Task {
	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out
}

type blob struct {
	data     []byte
	taskID   string
	filename string
}

type BlobStore struct {
	mu    sync.Mutex
	blobs map[string]blob

	// Ops records blob operations ("upload:<key>", "delete:<key>") in call
	// order so tests can assert counts and ordering.
	Ops []string

	// FailURL makes URL return an error for the given keys.
	FailURL map[string]bool
}

func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs:   make(map[string]blob),
		FailURL: make(map[string]bool),
	}
}

func (s *BlobStore) Upload(ctx context.Context, key string, taskID, filename string, data io.Reader) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = blob{data: buf, taskID: taskID, filename: filename}
	s.Ops = append(s.Ops, "upload:"+key)
	return nil
}

func (s *BlobStore) URL(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailURL[key] {
		return "", errors.New("url fetch failed")
	}
	if _, ok := s.blobs[key]; !ok {
		return "", errors.New("blob not found")
	}
	return "memory://" + key, nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	s.Ops = append(s.Ops, "delete:"+key)
	return nil
}

func (s *BlobStore) ListAll(ctx context.Context) ([]store.BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.BlobInfo
	for key, b := range s.blobs {
		out = append(out, store.BlobInfo{Key: key, TaskID: b.taskID, Filename: b.filename})
	}
	return out, nil
}

// Blob returns the stored bytes for key, if present.
func (s *BlobStore) Blob(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(b.data), true
}
