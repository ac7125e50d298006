package analyzer

import (
	"fmt"
	"time"
)

// SubmissionError indicates the remote backend rejected the analyze request.
type SubmissionError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s submission rejected (status %d): %s", e.Backend, e.StatusCode, e.Body)
}

// NewSubmissionError creates a SubmissionError, truncating the response body.
func NewSubmissionError(backend string, statusCode int, body string) *SubmissionError {
	return &SubmissionError{Backend: backend, StatusCode: statusCode, Body: Truncate(body, 500)}
}

// TimeoutError indicates polling exceeded the time budget without reaching
// a terminal state.
type TimeoutError struct {
	Backend string
	Budget  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s waiting for a terminal state", e.Backend, e.Budget)
}

// RemoteError indicates the backend itself reported failure or cancellation.
type RemoteError struct {
	Backend string
	Detail  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s reported failure: %s", e.Backend, e.Detail)
}

// Truncate shortens s to maxLen bytes plus an ellipsis marker.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
