package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpValidationError      = "validation_failed"
	HttpInvalidQueryError    = "invalid_query"
	HttpTaskNotFoundError    = "task_not_found"
	HttpUnavailableError     = "service_unavailable"
	HttpRateLimitedError     = "rate_limited"
	HttpPayloadTooLargeError = "payload_too_large"
)

// ErrorResponse is the error response body shared by all endpoints.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
