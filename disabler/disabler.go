// Package disabler keeps track of repositories disabled after a failure during a
// resolution session.
package disabler

import (
	"log/slog"
	"sync"

	"ocm.software/open-component-model/resolution/metrics"
)

var logger = slog.With(slog.String("realm", "resolution"))

// Outcome describes the effect of a TryDisable call.
type Outcome int

const (
	// NotDisabled means the repository was not disabled and stays enabled.
	NotDisabled Outcome = iota
	// NewlyDisabled means the call disabled the repository.
	NewlyDisabled
	// AlreadyDisabled means an earlier call disabled the repository, the cause was not replaced.
	AlreadyDisabled
)

// Disabled reports whether the repository is disabled after the call.
func (o Outcome) Disabled() bool {
	return o != NotDisabled
}

func (o Outcome) String() string {
	switch o {
	case NewlyDisabled:
		return "NewlyDisabled"
	case AlreadyDisabled:
		return "AlreadyDisabled"
	default:
		return "NotDisabled"
	}
}

// Disabler records disabled repositories.
type Disabler interface {
	// TryDisable disables the repository with the given id. The first cause is kept.
	TryDisable(repositoryID string, cause error) Outcome
	IsDisabled(repositoryID string) bool
	// Cause returns the failure that disabled the repository.
	Cause(repositoryID string) (error, bool)
}

// Registry is a Disabler safe for concurrent use. It lives as long as the resolution
// session that created it, disabled repositories are never enabled again.
type Registry struct {
	disabled sync.Map
}

var _ Disabler = (*Registry)(nil)

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

func (r *Registry) TryDisable(repositoryID string, cause error) Outcome {
	if _, loaded := r.disabled.LoadOrStore(repositoryID, cause); loaded {
		return AlreadyDisabled
	}
	logger.Warn("repository disabled", slog.String("repository", repositoryID), slog.Any("cause", cause))
	metrics.RepositoryDisabledTotal.WithLabelValues(repositoryID).Inc()
	return NewlyDisabled
}

func (r *Registry) IsDisabled(repositoryID string) bool {
	_, ok := r.disabled.Load(repositoryID)
	return ok
}

func (r *Registry) Cause(repositoryID string) (error, bool) {
	v, ok := r.disabled.Load(repositoryID)
	if !ok {
		return nil, false
	}
	err, _ := v.(error)
	return err, true
}

// DisabledRepositories returns the ids of all disabled repositories.
func (r *Registry) DisabledRepositories() []string {
	var ids []string
	r.disabled.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	return ids
}

// NoOp never disables repositories.
type NoOp struct{}

var _ Disabler = NoOp{}

func (NoOp) TryDisable(string, error) Outcome { return NotDisabled }
func (NoOp) IsDisabled(string) bool           { return false }
func (NoOp) Cause(string) (error, bool)       { return nil, false }
