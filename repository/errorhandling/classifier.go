package errorhandling

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"

	"ocm.software/open-component-model/resolution/repository"
)

// Classification decides how a failed request is handled.
type Classification int

const (
	// Permanent failures disable the repository without retrying.
	Permanent Classification = iota
	// Transient failures are retried, the repository is disabled once retries are exhausted.
	Transient
	// Propagate failures are returned as is. They concern the requested content rather
	// than the repository, e.g. offline mode or a rejected artifact.
	Propagate
)

func (c Classification) String() string {
	switch c {
	case Transient:
		return "transient"
	case Propagate:
		return "propagate"
	default:
		return "permanent"
	}
}

// Classifier classifies the failure of a request.
type Classifier func(err error) Classification

// DefaultClassifier retries likely transient networking issues, propagates offline and
// verification failures and treats everything else as permanent.
func DefaultClassifier(err error) Classification {
	switch {
	case errors.Is(err, repository.ErrOffline), errors.Is(err, repository.ErrVerification):
		return Propagate
	case IsLikelyTransientNetworkingIssue(err):
		return Transient
	default:
		return Permanent
	}
}

// IsLikelyTransientNetworkingIssue reports whether err looks like a connectivity problem
// or a server side error that may go away when retried.
func IsLikelyTransientNetworkingIssue(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var status *repository.HTTPStatusError
	if errors.As(err, &status) {
		return status.IsServerError()
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
