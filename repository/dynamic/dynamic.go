// Package dynamic provides the repository decorator for Ivy's dynamic resolve mode.
// Ivy descriptors may record the dynamic constraint a dependency was declared with next
// to the version that was pinned on publication. In dynamic resolve mode the declared
// constraint is used instead of the pinned version.
package dynamic

import (
	"context"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/repository"
)

// Repository is the dynamic resolve decorator.
type Repository struct {
	delegate repository.Repository
	local    *access
	remote   *access
}

var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.Wrapper    = (*Repository)(nil)
)

// New wraps delegate.
func New(delegate repository.Repository) *Repository {
	return &Repository{
		delegate: delegate,
		local:    &access{Access: delegate.Local()},
		remote:   &access{Access: delegate.Remote()},
	}
}

func (r *Repository) ID() string                    { return r.delegate.ID() }
func (r *Repository) Name() string                  { return r.delegate.Name() }
func (r *Repository) Local() repository.Access      { return r.local }
func (r *Repository) Remote() repository.Access     { return r.remote }
func (r *Repository) Unwrap() repository.Repository { return r.delegate }

type access struct {
	repository.Access
}

func (a *access) ResolveComponentMetadata(ctx context.Context, id coordinate.Component, override repository.Override) repository.MetadataResult {
	result := a.Access.ResolveComponentMetadata(ctx, id, override)
	if result.State() != repository.StateResolved {
		return result
	}
	m := result.Value()
	if m.Ivy == nil {
		return result
	}
	rewritten := false
	for _, dep := range m.Dependencies {
		if dep.DynamicConstraintVersion != "" && dep.DynamicConstraintVersion != dep.Selector.Version {
			rewritten = true
			break
		}
	}
	if !rewritten {
		return result
	}
	m = m.Clone()
	for i, dep := range m.Dependencies {
		if dep.DynamicConstraintVersion != "" {
			m.Dependencies[i].Selector.Version = dep.DynamicConstraintVersion
		}
	}
	return repository.Resolved(m).
		WithAuthoritative(result.Authoritative()).
		WithAttempted(result.Attempted()...)
}
