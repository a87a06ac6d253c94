package model

import (
	"time"
)

type Task struct {
	ID          string    `firestore:"id" json:"id"`
	Title       string    `firestore:"taskTitle" json:"taskTitle"`
	Description string    `firestore:"taskDescription" json:"taskDescription"`
	DueAt       string    `firestore:"taskDate" json:"taskDate"` // ISO-8601
	IsDone      bool      `firestore:"taskIsDone" json:"taskIsDone"`
	Timestamp   time.Time `firestore:"timestamp,serverTimestamp" json:"timestamp"`
}

// TaskView is a task as rendered: the stored document plus the attachment
// joined in and the overdue flag computed from the shared clock.
type TaskView struct {
	Task
	Attachment *Attachment `json:"attachment,omitempty"`
	Overdue    bool        `json:"overdue"`
}
