package store

import (
	"context"

	"todoapp/model"
)

// TaskStore is the remote document collection holding task records. Watch
// delivers the full current snapshot of the collection on every change, in
// the order the backend emits them, until ctx is cancelled.
type TaskStore interface {
	Upsert(ctx context.Context, task model.Task) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, onSnapshot func(tasks []model.Task))
}
