// Package offline provides the repository decorator used in offline mode. Its remote
// access point fails every request without contacting the wrapped repository, so only
// what the local access point can answer from the caches is available.
package offline

import (
	"context"
	"fmt"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

// Error is the failure of a remote request in offline mode. It matches repository.ErrOffline.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Is(target error) bool { return target == repository.ErrOffline }

func errorf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// Repository is the offline decorator.
type Repository struct {
	delegate repository.Repository
}

var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.Wrapper    = (*Repository)(nil)
)

// New wraps delegate.
func New(delegate repository.Repository) *Repository {
	return &Repository{delegate: delegate}
}

func (r *Repository) ID() string                    { return r.delegate.ID() }
func (r *Repository) Name() string                  { return r.delegate.Name() }
func (r *Repository) Local() repository.Access      { return r.delegate.Local() }
func (r *Repository) Remote() repository.Access     { return failingAccess{} }
func (r *Repository) Unwrap() repository.Repository { return r.delegate }

type failingAccess struct{}

func (failingAccess) ListModuleVersions(_ context.Context, selector coordinate.Selector, _ repository.Override) repository.VersionListResult {
	return repository.Failed[[]string](errorf("No cached version listing for %s available for offline mode", selector))
}

func (failingAccess) ResolveComponentMetadata(_ context.Context, id coordinate.Component, _ repository.Override) repository.MetadataResult {
	return repository.Failed[*metadata.Metadata](errorf("No cached version of %s available for offline mode", id))
}

func (failingAccess) ResolveArtifactsWithType(_ context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	return repository.Failed[[]metadata.ComponentArtifact](errorf("No cached %s artifacts of %s available for offline mode", artifactType, component.ID))
}

func (failingAccess) ResolveArtifact(_ context.Context, artifact metadata.ComponentArtifact, _ metadata.Sources) repository.ArtifactResult {
	return repository.Failed[string](errorf("No cached version of %s available for offline mode", artifact.ID))
}

func (failingAccess) EstimateMetadataFetchingCost(context.Context, coordinate.Component) repository.Cost {
	return repository.CostFast
}
