// Package filtering provides the repository decorator restricting a repository to the
// modules allowed by a content filter. Requests for other modules are answered without
// consulting the wrapped repository.
package filtering

import (
	"context"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

// Repository is the filtering decorator.
type Repository struct {
	delegate repository.Repository
	filter   repository.ContentFilter

	local, remote *access
}

var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.Wrapper    = (*Repository)(nil)
	_ repository.Filtered   = (*Repository)(nil)
)

// New wraps delegate. A nil filter returns delegate unchanged.
func New(delegate repository.Repository, filter repository.ContentFilter) repository.Repository {
	if filter == nil {
		return delegate
	}
	r := &Repository{delegate: delegate, filter: filter}
	r.local = &access{filter: filter, delegate: delegate.Local()}
	r.remote = &access{filter: filter, delegate: delegate.Remote()}
	return r
}

func (r *Repository) ID() string                              { return r.delegate.ID() }
func (r *Repository) Name() string                            { return r.delegate.Name() }
func (r *Repository) Local() repository.Access                { return r.local }
func (r *Repository) Remote() repository.Access               { return r.remote }
func (r *Repository) Unwrap() repository.Repository           { return r.delegate }
func (r *Repository) ContentFilter() repository.ContentFilter { return r.filter }

type access struct {
	filter   repository.ContentFilter
	delegate repository.Access
}

func (a *access) ListModuleVersions(ctx context.Context, selector coordinate.Selector, override repository.Override) repository.VersionListResult {
	if !a.filter.AllowsModule(selector.Module) {
		return repository.Listed([]string{}).WithAuthoritative(true)
	}
	return a.delegate.ListModuleVersions(ctx, selector, override)
}

func (a *access) ResolveComponentMetadata(ctx context.Context, id coordinate.Component, override repository.Override) repository.MetadataResult {
	if !a.filter.AllowsComponent(id) {
		return repository.Missing[*metadata.Metadata]().WithAuthoritative(true)
	}
	return a.delegate.ResolveComponentMetadata(ctx, id, override)
}

func (a *access) ResolveArtifactsWithType(ctx context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	if !a.filter.AllowsComponent(component.ID) {
		return repository.Resolved([]metadata.ComponentArtifact{})
	}
	return a.delegate.ResolveArtifactsWithType(ctx, component, artifactType)
}

func (a *access) ResolveArtifact(ctx context.Context, artifact metadata.ComponentArtifact, sources metadata.Sources) repository.ArtifactResult {
	if !a.filter.AllowsComponent(artifact.ID.Component) {
		return repository.Missing[string]()
	}
	return a.delegate.ResolveArtifact(ctx, artifact, sources)
}

func (a *access) EstimateMetadataFetchingCost(ctx context.Context, id coordinate.Component) repository.Cost {
	if !a.filter.AllowsComponent(id) {
		return repository.CostCheap
	}
	return a.delegate.EstimateMetadataFetchingCost(ctx, id)
}
