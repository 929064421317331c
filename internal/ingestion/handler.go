package ingestion

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/project-pulse/internal/api/v1"
	httperr "github.com/aevon-lab/project-pulse/internal/core/errors"
	"github.com/aevon-lab/project-pulse/internal/metrics"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Body must be a JSON array of events"
	msgNoValidEvents  = "No valid events in request"
	msgQueueFailed    = "Failed to queue events"
	msgQueued         = "Events queued for ingestion"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler accepts a batch of events. Each element is validated on its own;
// valid events are queued as one task and invalid ones are reported back.
func (s *Service) IngestHandler(c *gin.Context) {
	raw, err := s.parseBatch(c)
	if err != nil {
		writeError(c, err)
		return
	}

	events, rejected := validateBatch(raw)
	if len(rejected) > 0 {
		metrics.EventsIngested.WithLabelValues(metrics.OutcomeRejected).Add(float64(len(rejected)))
		slog.Warn("[Ingestion] Rejected invalid events",
			"rejected", len(rejected),
			"accepted", len(events))
	}

	if len(events) == 0 {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    msgNoValidEvents,
			details:    map[string]interface{}{"rejected": rejected},
		})
		return
	}

	taskID, submitErr := s.submitter.Submit(TaskName, events)
	if submitErr != nil {
		slog.Error("[Ingestion] Failed to queue batch", "error", submitErr, "events", len(events))
		writeError(c, &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpUnavailableError,
			message:    msgQueueFailed,
		})
		return
	}

	slog.Info("[Ingestion] Batch queued",
		"task_id", taskID,
		"events", len(events))

	c.JSON(http.StatusAccepted, v1.TaskResponse{
		Message:  msgQueued,
		TaskID:   taskID,
		Count:    len(events),
		Rejected: rejected,
	})
}

// parseBatch reads the size-limited body and splits the top-level JSON array
// into raw elements without decoding them.
func (s *Service) parseBatch(c *gin.Context) ([]json.RawMessage, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpPayloadTooLargeError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(bodyBytes, &raw); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return raw, nil
}

// validateBatch validates every element independently.
func validateBatch(raw []json.RawMessage) ([]*v1.Event, []*v1.ValidationError) {
	events := make([]*v1.Event, 0, len(raw))
	var rejected []*v1.ValidationError
	for i, elem := range raw {
		evt, verr := v1.ParseEventInput(i, elem)
		if verr != nil {
			rejected = append(rejected, verr)
			continue
		}
		events = append(events, evt)
	}
	return events, rejected
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
