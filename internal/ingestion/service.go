package ingestion

import (
	"github.com/gin-gonic/gin"
)

// Submitter hands validated batches to the task runner.
type Submitter interface {
	Submit(name string, payload interface{}) (string, error)
}

type Service struct {
	submitter        Submitter
	maxBodySizeBytes int
}

func NewService(submitter Submitter, maxBodySizeMB int) *Service {
	if submitter == nil {
		panic("ingestion: submitter must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		submitter:        submitter,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/events", s.IngestHandler)
}
