package request

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKey is returned when a completion is requested without a key for
// the card's service.
var ErrNoAPIKey = errors.New("no API key configured")

// APIError is a non-2xx answer from a completion endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("completion request failed: status %d", e.Status)
	}
	return fmt.Sprintf("completion request failed: status %d: %s", e.Status, msg)
}

// Retryable reports whether the server signalled a transient failure.
func (e *APIError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
