package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/selection"
)

var (
	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRepository is returned when metadata refers to a repository that is not part of the chain.
	ErrInvalidRepository = errors.New("invalid repository")
)

// IsCriticalFailure reports whether a failure makes consulting further repositories
// pointless: timeouts and server errors.
func IsCriticalFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var status *repository.HTTPStatusError
	if errors.As(err, &status) {
		return status.IsServerError()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// NotFoundError is returned when no repository could provide the requested component.
// It carries what was tried across all repositories.
type NotFoundError struct {
	// Requested is the requested component or selector.
	Requested string
	// Dynamic is set for selectors that can match several versions.
	Dynamic    bool
	Attempted  []string
	Unmatched  []string
	Rejections []selection.Rejection
}

func (e *NotFoundError) Error() string {
	var sb strings.Builder
	if e.Dynamic {
		fmt.Fprintf(&sb, "could not find any version that matches %s", e.Requested)
	} else {
		fmt.Fprintf(&sb, "could not find %s", e.Requested)
	}
	if len(e.Unmatched) > 0 {
		fmt.Fprintf(&sb, "\nversions that do not match: %s", strings.Join(e.Unmatched, ", "))
	}
	for _, rej := range e.Rejections {
		fmt.Fprintf(&sb, "\n%s", rej)
	}
	if len(e.Attempted) > 0 {
		sb.WriteString("\nsearched in the following locations:")
		for _, location := range e.Attempted {
			fmt.Fprintf(&sb, "\n  - %s", location)
		}
	}
	return sb.String()
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RejectedBySelector reports whether a candidate was rejected by the reject selector.
func (e *NotFoundError) RejectedBySelector() bool {
	for _, rej := range e.Rejections {
		if rej.Cause == selection.RejectedBySelector {
			return true
		}
	}
	return false
}

// ResolveError is returned when no repository could provide the requested component and
// at least one of them failed.
type ResolveError struct {
	Requested string
	Failures  []error
}

func (e *ResolveError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "could not resolve %s", e.Requested)
	for _, err := range e.Failures {
		fmt.Fprintf(&sb, "\n  - %v", err)
	}
	return sb.String()
}

func (e *ResolveError) Unwrap() []error { return e.Failures }
