package task

import (
	"io"
	"todoapp/services"

	"github.com/gin-gonic/gin"
)

func StreamTaskController(router *gin.Engine, rec *services.Reconciler) {
	router.GET("/tasks/stream", func(c *gin.Context) {
		Streamtasks(c, rec)
	})
}

// Streamtasks pushes the merged view over SSE: one event immediately, then
// one per change (snapshot arrival, attachment resolution, overdue flip).
func Streamtasks(c *gin.Context, rec *services.Reconciler) {
	events, cancel := rec.Subscribe()
	defer cancel()

	c.SSEvent("tasks", rec.View())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case view, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("tasks", view)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
