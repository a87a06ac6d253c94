package task

import (
	"context"
	"net/http"
	"todoapp/dto"
	"todoapp/model"
	"todoapp/services"
	"todoapp/store"

	"github.com/gin-gonic/gin"
)

func UpdateTaskController(router *gin.Engine, tasks store.TaskStore, resolver *services.AttachmentResolver, rec *services.Reconciler) {
	router.PUT("/task/:id", func(c *gin.Context) {
		Updatetask(c, tasks, resolver, rec)
	})
}

// Updatetask overwrites the full document with the edited fields. A
// replacement file first deletes the previous blob, then uploads the new one.
func Updatetask(c *gin.Context, tasks store.TaskStore, resolver *services.AttachmentResolver, rec *services.Reconciler) {
	taskid := c.Param("id")
	current, ok := rec.Task(taskid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	var taskReq dto.UpdateTaskRequest
	if err := c.ShouldBind(&taskReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	updated := model.Task{
		ID:          taskid,
		Title:       taskReq.Title,
		Description: taskReq.Description,
		DueAt:       taskReq.DueAt,
		IsDone:      current.IsDone,
	}

	ctx := context.Background()
	if err := tasks.Upsert(ctx, updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}
	rec.ApplyLocalWrite(updated)

	if fileHeader, err := c.FormFile("taskFile"); err == nil {
		// Old blob first, then the replacement.
		if err := resolver.Remove(ctx, taskid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete old file"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
			return
		}
		defer file.Close()
		if err := resolver.Upload(ctx, taskid, fileHeader.Filename, file); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully"})
}
