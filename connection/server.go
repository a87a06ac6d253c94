package connection

import (
	"context"
	"log"

	controller "todoapp/controller/task"
	"todoapp/services"
	"todoapp/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func StartServer() {
	router := gin.Default()

	fb, bucket, err := FBConnection()
	if err != nil {
		log.Fatalf("Failed to initialize Firebase clients: %v", err)
	}

	tasks := store.NewFirestoreTaskStore(fb)
	blobs := store.NewGCSBlobStore(bucket)

	rec := services.NewReconciler()
	resolver := services.NewAttachmentResolver(blobs, rec)

	// Populate the attachment map before the first render, then follow the
	// live task subscription.
	ctx := context.Background()
	if err := resolver.Bootstrap(ctx); err != nil {
		log.Printf("attachment bootstrap failed, starting without attachments: %v", err)
	}
	go rec.Run(ctx, tasks)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Api is running!"})
	})

	router.Use(cors.Default())

	controller.CreateTaskController(router, tasks, resolver, rec)
	controller.ListTaskController(router, rec)
	controller.StreamTaskController(router, rec)
	controller.UpdateTaskController(router, tasks, resolver, rec)
	controller.ToggleTaskController(router, tasks, rec)
	controller.DeleteTaskController(router, tasks, resolver, rec)

	router.Run()
}
