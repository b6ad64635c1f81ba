package repository

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrOffline marks failures caused by remote access being unavailable in offline mode.
	ErrOffline = errors.New("offline mode")
	// ErrVerification marks artifacts rejected by verification.
	ErrVerification = errors.New("verification failed")
)

// HTTPStatusError is returned by transports for unexpected HTTP responses.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("could not get resource %q: received status code %d (%s)", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsServerError reports whether the status code indicates a server side problem.
func (e *HTTPStatusError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// DisabledError is returned for every request to a repository that was disabled
// after an earlier failure. It wraps the failure that disabled the repository.
type DisabledError struct {
	Repository string
	Cause      error
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("skipped repository %s due to earlier error: %v", e.Repository, e.Cause)
}

func (e *DisabledError) Unwrap() error {
	return e.Cause
}
