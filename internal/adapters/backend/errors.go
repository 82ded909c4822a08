package backend

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned for HTTP 401 responses. Callers branch on
// it to prompt a re-login instead of showing a generic failure.
var ErrAuthRequired = errors.New("authentication required")

// APIError is any non-2xx backend response other than 401.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d", e.Status)
}

// IsAuthError reports whether err represents a missing or expired session.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}
