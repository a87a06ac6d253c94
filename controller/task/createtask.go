package task

import (
	"context"
	"net/http"
	"strings"
	"time"
	"todoapp/dto"
	"todoapp/model"
	"todoapp/services"
	"todoapp/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func CreateTaskController(router *gin.Engine, tasks store.TaskStore, resolver *services.AttachmentResolver, rec *services.Reconciler) {
	router.POST("/task", func(c *gin.Context) {
		Createtask(c, tasks, resolver, rec)
	})
}

func Createtask(c *gin.Context, tasks store.TaskStore, resolver *services.AttachmentResolver, rec *services.Reconciler) {
	var taskReq dto.CreateTaskRequest
	if err := c.ShouldBind(&taskReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// Empty title is silently discarded: no document, no blob.
	if strings.TrimSpace(taskReq.Title) == "" {
		c.Status(http.StatusNoContent)
		return
	}

	if taskReq.DueAt == "" {
		taskReq.DueAt = time.Now().Format(time.RFC3339)
	}

	taskid := uuid.New().String()

	newtask := model.Task{
		ID:          taskid,
		Title:       taskReq.Title,
		Description: taskReq.Description,
		DueAt:       taskReq.DueAt,
		IsDone:      false,
	}

	ctx := context.Background()
	if err := tasks.Upsert(ctx, newtask); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}
	rec.ApplyLocalWrite(newtask)

	if fileHeader, err := c.FormFile("taskFile"); err == nil {
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

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"taskID":  taskid,
	})
}
