package store

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"todoapp/model"
)

const taskCollection = "todos"

type FirestoreTaskStore struct {
	client *firestore.Client
}

func NewFirestoreTaskStore(client *firestore.Client) *FirestoreTaskStore {
	return &FirestoreTaskStore{client: client}
}

func (s *FirestoreTaskStore) Upsert(ctx context.Context, task model.Task) error {
	// Full-document overwrite; the serverTimestamp tag on Timestamp makes the
	// backend assign it on every write.
	_, err := s.client.Collection(taskCollection).Doc(task.ID).Set(ctx, task)
	return err
}

func (s *FirestoreTaskStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.Collection(taskCollection).Doc(id).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// Watch streams full collection snapshots to onSnapshot until ctx is
// cancelled. There is no retry: a broken stream ends the watch and the last
// delivered snapshot stands.
func (s *FirestoreTaskStore) Watch(ctx context.Context, onSnapshot func(tasks []model.Task)) {
	snapshots := s.client.Collection(taskCollection).Snapshots(ctx)
	defer snapshots.Stop()

	for {
		snap, err := snapshots.Next()
		if err != nil {
			if status.Code(err) != codes.Canceled {
				log.Printf("task watch stopped: %v", err)
			}
			return
		}

		var tasks []model.Task
		docs := snap.Documents
		for {
			doc, err := docs.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				log.Printf("task watch: read document: %v", err)
				return
			}
			var task model.Task
			if err := doc.DataTo(&task); err != nil {
				log.Printf("task watch: parse document %s: %v", doc.Ref.ID, err)
				continue
			}
			tasks = append(tasks, task)
		}
		onSnapshot(tasks)
	}
}
