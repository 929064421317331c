package syncjob

import (
	"log/slog"
	"net/http"

	httperr "github.com/aevon-lab/project-pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// Trigger exposes manual sync submission over HTTP.
type Trigger struct {
	submitter Submitter
}

func NewTrigger(submitter Submitter) *Trigger {
	return &Trigger{submitter: submitter}
}

// RegisterRoutes registers the manual sync endpoint.
func (t *Trigger) RegisterRoutes(r gin.IRouter) {
	r.POST("/sync", t.TriggerHandler)
}

// TriggerHandler queues a sync pass and returns its task id.
func (t *Trigger) TriggerHandler(c *gin.Context) {
	taskID, err := t.submitter.Submit(TaskName, nil)
	if err != nil {
		slog.Error("[SyncJob] Failed to queue manual sync", "error", err)
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnavailableError,
			Message:   "Failed to queue sync",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Sync queued",
		"task_id": taskID,
	})
}
