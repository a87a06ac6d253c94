package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"todoapp/model"
	"todoapp/store"
)

// Reconciler holds the two independent state slices of the view model: the
// latest full task snapshot from the document store and the attachment map
// built by the resolver. Every change to either recomputes the merged view
// and broadcasts it to subscribers. There is one logical writer per slice;
// the mutex keeps the slices and the derived view consistent between them.
type Reconciler struct {
	mu          sync.Mutex
	tasks       []model.Task
	attachments map[string]model.Attachment
	view        []model.TaskView
	subscribers map[chan []model.TaskView]struct{}
	now         func() time.Time
}

func NewReconciler() *Reconciler {
	r := &Reconciler{
		attachments: make(map[string]model.Attachment),
		subscribers: make(map[chan []model.TaskView]struct{}),
		now:         time.Now,
	}
	r.view = Reconcile(r.tasks, r.attachments, r.now())
	return r
}

// SetNow overrides the shared clock, for tests.
func (r *Reconciler) SetNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Reconcile merges a task snapshot with the attachment map into the rendered
// view. Pure: no input is mutated and a fresh slice is returned. Order is
// newest first by server timestamp; tasks whose timestamp has not resolved
// yet sort before all resolved ones, and equal timestamps fall back to
// descending id so the order is total.
func Reconcile(tasks []model.Task, attachments map[string]model.Attachment, now time.Time) []model.TaskView {
	view := make([]model.TaskView, 0, len(tasks))
	for _, task := range tasks {
		entry := model.TaskView{Task: task, Overdue: overdue(task.DueAt, now)}
		if att, ok := attachments[task.ID]; ok {
			a := att
			entry.Attachment = &a
		}
		view = append(view, entry)
	}
	sort.SliceStable(view, func(i, j int) bool {
		a, b := view[i].Task, view[j].Task
		if a.Timestamp.IsZero() != b.Timestamp.IsZero() {
			return a.Timestamp.IsZero()
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
	return view
}

func overdue(dueAt string, now time.Time) bool {
	due, ok := parseDue(dueAt)
	return ok && due.Before(now)
}

func parseDue(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ApplySnapshot replaces the task snapshot wholesale, as delivered by the
// document store's live subscription.
func (r *Reconciler) ApplySnapshot(tasks []model.Task) {
	r.mu.Lock()
	r.tasks = append([]model.Task(nil), tasks...)
	r.recomputeLocked()
	r.mu.Unlock()
}

// ApplyLocalWrite merges one just-written document into the snapshot ahead of
// the server echo, the way the original client saw its own writes
// immediately. The next full snapshot replaces it with the server copy.
func (r *Reconciler) ApplyLocalWrite(task model.Task) {
	r.mu.Lock()
	replaced := false
	tasks := append([]model.Task(nil), r.tasks...)
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, task)
	}
	r.tasks = tasks
	r.recomputeLocked()
	r.mu.Unlock()
}

// ApplyLocalDelete removes one document from the snapshot ahead of the
// server echo.
func (r *Reconciler) ApplyLocalDelete(id string) {
	r.mu.Lock()
	tasks := r.tasks[:0:0]
	for _, t := range r.tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	r.tasks = tasks
	r.recomputeLocked()
	r.mu.Unlock()
}

// SetAttachment merges one resolved attachment into the map. Last write for
// a task id wins.
func (r *Reconciler) SetAttachment(att model.Attachment) {
	r.mu.Lock()
	attachments := make(map[string]model.Attachment, len(r.attachments)+1)
	for id, a := range r.attachments {
		attachments[id] = a
	}
	attachments[att.TaskID] = att
	r.attachments = attachments
	r.recomputeLocked()
	r.mu.Unlock()
}

// Attachment returns the current mapping entry for a task id. Entries for
// deleted tasks may linger; they are unreachable from the view and callers
// must not treat them as authoritative.
func (r *Reconciler) Attachment(taskID string) (model.Attachment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	att, ok := r.attachments[taskID]
	return att, ok
}

// Task returns the task with the given id from the current snapshot.
func (r *Reconciler) Task(id string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (r *Reconciler) HasTask(id string) bool {
	_, ok := r.Task(id)
	return ok
}

// View returns the current merged view.
func (r *Reconciler) View() []model.TaskView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Subscribe returns a channel that carries the merged view after every
// change. The channel holds only the latest view; slow readers skip
// intermediate states. The returned func unsubscribes.
func (r *Reconciler) Subscribe() (<-chan []model.TaskView, func()) {
	ch := make(chan []model.TaskView, 1)
	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		delete(r.subscribers, ch)
		r.mu.Unlock()
	}
	return ch, cancel
}

// Run drives the reconciler: it follows the document store's live
// subscription and re-evaluates overdue flags on a shared clock tick, so
// rows never carry their own timers. Blocks until ctx is done.
func (r *Reconciler) Run(ctx context.Context, tasks store.TaskStore) {
	go tasks.Watch(ctx, r.ApplySnapshot)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick recomputes the view and broadcasts only when an overdue flag flipped.
func (r *Reconciler) tick() {
	r.mu.Lock()
	fresh := Reconcile(r.tasks, r.attachments, r.now())
	changed := len(fresh) != len(r.view)
	if !changed {
		for i := range fresh {
			if fresh[i].Overdue != r.view[i].Overdue {
				changed = true
				break
			}
		}
	}
	if changed {
		r.view = fresh
		r.broadcastLocked()
	}
	r.mu.Unlock()
}

func (r *Reconciler) recomputeLocked() {
	r.view = Reconcile(r.tasks, r.attachments, r.now())
	r.broadcastLocked()
}

func (r *Reconciler) broadcastLocked() {
	for ch := range r.subscribers {
		select {
		case ch <- r.view:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- r.view:
			default:
			}
		}
	}
}
