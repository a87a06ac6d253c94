package task

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"todoapp/model"
	"todoapp/services"
	"todoapp/store/memory"
)

type env struct {
	router *gin.Engine
	tasks  *memory.TaskStore
	blobs  *memory.BlobStore
	rec    *services.Reconciler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tasks := memory.NewTaskStore()
	blobs := memory.NewBlobStore()
	rec := services.NewReconciler()
	resolver := services.NewAttachmentResolver(blobs, rec)

	router := gin.New()
	CreateTaskController(router, tasks, resolver, rec)
	ListTaskController(router, rec)
	UpdateTaskController(router, tasks, resolver, rec)
	ToggleTaskController(router, tasks, rec)
	DeleteTaskController(router, tasks, resolver, rec)

	return &env{router: router, tasks: tasks, blobs: blobs, rec: rec}
}

func (e *env) do(t *testing.T, method, url string, fields map[string]string, filename, filedata string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := form.CreateFormFile("taskFile", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(filedata)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) create(t *testing.T, fields map[string]string, filename, filedata string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/task", fields, filename, filedata)
	if w.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		TaskID string `json:"taskID"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse create response: %v", err)
	}
	return resp.TaskID
}

func TestCreateTask_EmptyTitleIsSilentlyDiscarded(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/task", map[string]string{
		"taskTitle":       "   ",
		"taskDescription": "desc",
		"taskDate":        "2030-01-01T10:00",
	}, "notes.txt", "content")

	if w.Code != http.StatusNoContent {
		t.Fatalf("got %d, want 204", w.Code)
	}
	if got := e.tasks.Tasks(); len(got) != 0 {
		t.Fatalf("document written for empty title: %+v", got)
	}
	if len(e.blobs.Ops) != 0 {
		t.Fatalf("blob uploaded for empty title: %v", e.blobs.Ops)
	}
}

func TestCreateTask_NoFile(t *testing.T) {
	e := newEnv(t)

	id := e.create(t, map[string]string{
		"taskTitle":       "Buy milk",
		"taskDescription": "2%",
		"taskDate":        "2025-01-01T10:00",
	}, "", "")

	view := e.rec.View()
	if len(view) != 1 {
		t.Fatalf("got %d entries, want 1", len(view))
	}
	got := view[0]
	if got.ID != id || got.Title != "Buy milk" || got.Description != "2%" || got.DueAt != "2025-01-01T10:00" {
		t.Fatalf("fields not preserved: %+v", got)
	}
	if got.IsDone {
		t.Fatalf("new task must not be done")
	}
	if got.Attachment != nil {
		t.Fatalf("no file was sent, got attachment %+v", got.Attachment)
	}
}

func TestCreateTask_NewestSortsFirst(t *testing.T) {
	e := newEnv(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	e.tasks.SetNow(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	})

	e.create(t, map[string]string{"taskTitle": "first", "taskDate": "2030-01-01T10:00"}, "", "")
	newest := e.create(t, map[string]string{"taskTitle": "second", "taskDate": "2030-01-01T10:00"}, "", "")

	// Settle the optimistic entries with the stored snapshot.
	e.rec.ApplySnapshot(e.tasks.Tasks())

	view := e.rec.View()
	if len(view) != 2 || view[0].ID != newest {
		t.Fatalf("newest task not first: %+v", view)
	}
}

func TestCreateTask_WithFileRoundTrip(t *testing.T) {
	e := newEnv(t)

	id := e.create(t, map[string]string{
		"taskTitle": "With file",
		"taskDate":  "2030-01-01T10:00",
	}, "notes.txt", "hello")

	view := e.rec.View()
	if len(view) != 1 || view[0].Attachment == nil {
		t.Fatalf("attachment missing from merged view: %+v", view)
	}
	att := view[0].Attachment
	if att.TaskID != id || att.StorageKey != id+"--notes.txt" || att.URL != "memory://"+id+"--notes.txt" {
		t.Fatalf("attachment wrong: %+v", att)
	}
	if data, ok := e.blobs.Blob(att.StorageKey); !ok || string(data) != "hello" {
		t.Fatalf("blob content wrong: %q ok=%v", data, ok)
	}
}

func TestToggleTask_FlipsDoneAndPreservesFields(t *testing.T) {
	e := newEnv(t)
	id := e.create(t, map[string]string{
		"taskTitle":       "Toggle me",
		"taskDescription": "desc",
		"taskDate":        "2030-01-01T10:00",
	}, "", "")

	before := e.tasks.Tasks()[0]

	w := e.do(t, http.MethodPatch, "/task/"+id+"/done", nil, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("toggle returned %d: %s", w.Code, w.Body.String())
	}

	after := e.tasks.Tasks()[0]
	if !after.IsDone {
		t.Fatalf("done flag not flipped")
	}
	after.IsDone = before.IsDone
	after.Timestamp = before.Timestamp
	if after != before {
		t.Fatalf("other fields changed: %+v vs %+v", after, before)
	}

	w = e.do(t, http.MethodPatch, "/task/"+id+"/done", nil, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("second toggle returned %d", w.Code)
	}
	if e.tasks.Tasks()[0].IsDone {
		t.Fatalf("second toggle did not flip back")
	}
}

func TestToggleTask_UnknownID(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPatch, "/task/nope/done", nil, "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", w.Code)
	}
}

func TestUpdateTask_OverwritesFields(t *testing.T) {
	e := newEnv(t)
	id := e.create(t, map[string]string{
		"taskTitle":       "Before",
		"taskDescription": "old",
		"taskDate":        "2030-01-01T10:00",
	}, "", "")

	w := e.do(t, http.MethodPut, "/task/"+id, map[string]string{
		"taskTitle":       "After",
		"taskDescription": "new",
		"taskDate":        "2031-02-02T11:00",
	}, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", w.Code, w.Body.String())
	}

	got := e.tasks.Tasks()[0]
	if got.Title != "After" || got.Description != "new" || got.DueAt != "2031-02-02T11:00" {
		t.Fatalf("fields not overwritten: %+v", got)
	}
	if got.IsDone {
		t.Fatalf("done flag must survive the edit")
	}
}

func TestUpdateTask_ReplacementFileDeletesOldBlobFirst(t *testing.T) {
	e := newEnv(t)
	id := e.create(t, map[string]string{
		"taskTitle": "Edit file",
		"taskDate":  "2030-01-01T10:00",
	}, "old.txt", "old")

	e.blobs.Ops = nil
	w := e.do(t, http.MethodPut, "/task/"+id, map[string]string{
		"taskTitle": "Edit file",
		"taskDate":  "2030-01-01T10:00",
	}, "new.txt", "new")
	if w.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", w.Code, w.Body.String())
	}

	want := []string{"delete:" + id + "--old.txt", "upload:" + id + "--new.txt"}
	if len(e.blobs.Ops) != 2 || e.blobs.Ops[0] != want[0] || e.blobs.Ops[1] != want[1] {
		t.Fatalf("ops %v, want %v", e.blobs.Ops, want)
	}

	att := e.rec.View()[0].Attachment
	if att == nil || att.StorageKey != id+"--new.txt" {
		t.Fatalf("mapping not replaced: %+v", att)
	}
}

func TestDeleteTask_RemovesDocumentAndBlobOnce(t *testing.T) {
	e := newEnv(t)
	id := e.create(t, map[string]string{
		"taskTitle": "Doomed",
		"taskDate":  "2030-01-01T10:00",
	}, "f.txt", "x")

	e.blobs.Ops = nil
	w := e.do(t, http.MethodDelete, "/task/"+id, nil, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", w.Code, w.Body.String())
	}

	if got := e.tasks.Tasks(); len(got) != 0 {
		t.Fatalf("document still stored: %+v", got)
	}
	if len(e.rec.View()) != 0 {
		t.Fatalf("task still in merged view")
	}
	want := "delete:" + id + "--f.txt"
	if len(e.blobs.Ops) != 1 || e.blobs.Ops[0] != want {
		t.Fatalf("expected exactly one blob delete %q, got %v", want, e.blobs.Ops)
	}
}

func TestDeleteTask_WithoutAttachment(t *testing.T) {
	e := newEnv(t)
	id := e.create(t, map[string]string{
		"taskTitle": "Plain",
		"taskDate":  "2030-01-01T10:00",
	}, "", "")

	w := e.do(t, http.MethodDelete, "/task/"+id, nil, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete returned %d", w.Code)
	}
	if len(e.blobs.Ops) != 0 {
		t.Fatalf("blob ops for task without attachment: %v", e.blobs.Ops)
	}
}

func TestListTasks_ReturnsMergedView(t *testing.T) {
	e := newEnv(t)
	id := e.create(t, map[string]string{
		"taskTitle": "Listed",
		"taskDate":  "2030-01-01T10:00",
	}, "a.txt", "a")

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list returned %d", w.Code)
	}

	var resp struct {
		Tasks []model.TaskView `json:"tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse list response: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].ID != id || resp.Tasks[0].Attachment == nil {
		t.Fatalf("unexpected list body: %s", w.Body.String())
	}
}
