package tasks

import (
	"errors"
	"log/slog"
	"net/http"

	httperr "github.com/aevon-lab/project-pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

const msgTaskNotFound = "Task not found or still pending"

// RegisterRoutes registers the task status endpoint.
func (r *Runner) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/tasks/:task_id", r.StatusHandler)
}

// StatusHandler reports a finished task. Pending tasks are answered with 404,
// the same as unknown ids, so clients poll until a terminal status appears.
func (r *Runner) StatusHandler(c *gin.Context) {
	taskID := c.Param("task_id")

	st, err := r.Status(taskID)
	if err != nil {
		if !errors.Is(err, ErrTaskNotFound) {
			slog.Error("[Tasks] Failed to read task status", "task_id", taskID, "error", err)
		}
		writeNotFound(c)
		return
	}

	if st.Status == string(StatusPending) {
		writeNotFound(c)
		return
	}

	c.JSON(http.StatusOK, st)
}

func writeNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, httperr.ErrorResponse{
		ErrorType: httperr.HttpTaskNotFoundError,
		Message:   msgTaskNotFound,
	})
}
