package task

import (
	"net/http"
	"todoapp/services"

	"github.com/gin-gonic/gin"
)

func ListTaskController(router *gin.Engine, rec *services.Reconciler) {
	router.GET("/tasks", func(c *gin.Context) {
		Listtasks(c, rec)
	})
}

// Listtasks returns the merged view: every task from the latest snapshot with
// its attachment joined in, newest first.
func Listtasks(c *gin.Context, rec *services.Reconciler) {
	c.JSON(http.StatusOK, gin.H{"tasks": rec.View()})
}
