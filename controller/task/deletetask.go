package task

import (
	"context"
	"net/http"
	"todoapp/services"
	"todoapp/store"

	"github.com/gin-gonic/gin"
)

func DeleteTaskController(router *gin.Engine, tasks store.TaskStore, resolver *services.AttachmentResolver, rec *services.Reconciler) {
	router.DELETE("/task/:id", func(c *gin.Context) {
		Deletetask(c, tasks, resolver, rec)
	})
}

// Deletetask removes the document first, then the attachment blob if the
// mapping has one.
func Deletetask(c *gin.Context, tasks store.TaskStore, resolver *services.AttachmentResolver, rec *services.Reconciler) {
	taskid := c.Param("id")

	ctx := context.Background()
	if err := tasks.Delete(ctx, taskid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}
	rec.ApplyLocalDelete(taskid)

	if err := resolver.Remove(ctx, taskid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
