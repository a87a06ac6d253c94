package task

import (
	"context"
	"net/http"
	"time"
	"todoapp/services"
	"todoapp/store"

	"github.com/gin-gonic/gin"
)

func ToggleTaskController(router *gin.Engine, tasks store.TaskStore, rec *services.Reconciler) {
	router.PATCH("/task/:id/done", func(c *gin.Context) {
		Toggletask(c, tasks, rec)
	})
}

// Toggletask flips the completion flag with a full-document overwrite; every
// other field is preserved as-is.
func Toggletask(c *gin.Context, tasks store.TaskStore, rec *services.Reconciler) {
	taskid := c.Param("id")
	current, ok := rec.Task(taskid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	current.IsDone = !current.IsDone
	// Zero timestamp: the server assigns a fresh one on write, same as the
	// other write paths.
	current.Timestamp = time.Time{}

	ctx := context.Background()
	if err := tasks.Upsert(ctx, current); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}
	rec.ApplyLocalWrite(current)

	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully", "taskIsDone": current.IsDone})
}
