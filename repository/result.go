package repository

import (
	"fmt"
	"slices"

	"ocm.software/open-component-model/resolution/metadata"
)

// State is the outcome of a single resolve call.
type State int

const (
	// StateUnknown means the access point could not answer, the caller should ask the next one.
	StateUnknown State = iota
	// StateMissing means the requested module, version or artifact does not exist.
	StateMissing
	// StateFailed means the lookup failed, see Result.Err.
	StateFailed
	// StateResolved means a value was found.
	StateResolved
	// StateListed means a version listing was produced.
	StateListed
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateMissing:
		return "Missing"
	case StateFailed:
		return "Failed"
	case StateResolved:
		return "Resolved"
	case StateListed:
		return "Listed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of a resolve call. It is immutable, the With* methods return
// modified copies.
type Result[T any] struct {
	state         State
	value         T
	err           error
	authoritative bool
	attempted     []string
}

// Unknown creates a result without an answer.
func Unknown[T any]() Result[T] {
	return Result[T]{state: StateUnknown}
}

// Missing creates a negative result.
func Missing[T any]() Result[T] {
	return Result[T]{state: StateMissing}
}

// Failed creates a failed result.
func Failed[T any](err error) Result[T] {
	return Result[T]{state: StateFailed, err: err}
}

// Resolved creates a result holding a value.
func Resolved[T any](value T) Result[T] {
	return Result[T]{state: StateResolved, value: value}
}

// Listed creates a version listing result.
func Listed(versions []string) VersionListResult {
	return VersionListResult{state: StateListed, value: versions}
}

func (r Result[T]) State() State { return r.state }

// HasResult reports whether the access point answered the request.
func (r Result[T]) HasResult() bool { return r.state != StateUnknown }

// Found reports whether the result holds a value.
func (r Result[T]) Found() bool { return r.state == StateResolved || r.state == StateListed }

// Value returns the resolved value or listing.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure of a failed result.
func (r Result[T]) Err() error { return r.err }

// Authoritative reports whether the answer was verified since the session started,
// so that a remote lookup is not needed.
func (r Result[T]) Authoritative() bool { return r.authoritative }

// Attempted returns the locations that were looked at to produce the result.
func (r Result[T]) Attempted() []string { return slices.Clone(r.attempted) }

// WithAuthoritative returns a copy with the authoritative flag set.
func (r Result[T]) WithAuthoritative(authoritative bool) Result[T] {
	r.authoritative = authoritative
	return r
}

// WithAttempted returns a copy with additional attempted locations.
func (r Result[T]) WithAttempted(locations ...string) Result[T] {
	if len(locations) == 0 {
		return r
	}
	r.attempted = append(slices.Clone(r.attempted), locations...)
	return r
}

func (r Result[T]) String() string {
	switch r.state {
	case StateFailed:
		return fmt.Sprintf("%s: %v", r.state, r.err)
	case StateResolved, StateListed:
		return fmt.Sprintf("%s: %v", r.state, r.value)
	default:
		return r.state.String()
	}
}

type (
	// VersionListResult lists the known versions of a module.
	VersionListResult = Result[[]string]
	// MetadataResult holds resolved component metadata.
	MetadataResult = Result[*metadata.Metadata]
	// ArtifactSetResult holds the artifacts of a component.
	ArtifactSetResult = Result[[]metadata.ComponentArtifact]
	// ArtifactResult holds the path of a locally available artifact file.
	ArtifactResult = Result[string]
)
