package provider

import (
	"errors"
	"fmt"
)

// Failure taxonomy surfaced to the gateway and the pipeline.
var (
	// ErrQuotaExceeded means the provider itself rejected the call for
	// rate-limit reasons. The caller already waited out the local window,
	// so this indicates cross-process contention on the same quota and is
	// a hard stop, never retried by this code.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrAuthFailed means the credentials were rejected. Not retryable
	// under the current configuration.
	ErrAuthFailed = errors.New("provider authentication failed")
)

// Error carries the status and message of any other non-success provider
// response, surfaced as-is.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error: status=%d: %s", e.Status, e.Message)
}
