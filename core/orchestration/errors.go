package orchestration

import (
	"errors"
	"fmt"

	"task-forge/core/repository"
)

var (
	// ErrUpstreamRejected matches any *UpstreamRejectedError
	ErrUpstreamRejected = errors.New("upstream rejected build request")
	// ErrTransport is returned when the upstream could not be reached
	ErrTransport = errors.New("upstream transport failure")
	// ErrMalformedResponse is returned when the upstream body has the wrong shape
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrTimeout is returned when the upstream did not answer in time
	ErrTimeout = errors.New("upstream request timed out")
	// ErrJobNotFound is returned for an unknown job ID
	ErrJobNotFound = repository.ErrJobNotFound
	// ErrEmptyPrompt is returned when a brief has no text
	ErrEmptyPrompt = errors.New("prompt must not be empty")
)

// UpstreamRejectedError carries the status and raw body of a non-2xx
// orchestrator response
type UpstreamRejectedError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamRejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("build request failed: upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("build request failed: upstream status %d: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrUpstreamRejected) match
func (e *UpstreamRejectedError) Is(target error) bool {
	return target == ErrUpstreamRejected
}
