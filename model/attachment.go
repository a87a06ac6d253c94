package model

// Attachment is in-memory metadata for the blob attached to a task. It is
// derived from the file store at startup or after an upload and never written
// into the task document itself.
type Attachment struct {
	TaskID     string `json:"taskId"`
	URL        string `json:"url"`
	StorageKey string `json:"storageKey"`
}
