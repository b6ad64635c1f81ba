package resolution

import (
	"context"
	"errors"
	"fmt"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/resolver"
	"ocm.software/open-component-model/resolution/version"
)

// Resolver resolves dependencies and their artifacts against a chain of repositories.
type Resolver struct {
	repositories []repository.Repository
	components   *resolver.ComponentIDResolver
	metadata     *resolver.MetadataResolver
	artifacts    *resolver.ArtifactResolver
}

// NewResolver creates a resolver searching the repositories in order.
func (s *Session) NewResolver(repositories []repository.Repository, opts ...resolver.Option) *Resolver {
	return &Resolver{
		repositories: repositories,
		components:   resolver.NewComponentIDResolver(repositories, opts...),
		metadata:     resolver.NewMetadataResolver(repositories),
		artifacts:    resolver.NewArtifactResolver(repositories),
	}
}

// Repositories returns the repositories searched by the resolver.
func (r *Resolver) Repositories() []repository.Repository { return r.repositories }

// NewRequest parses a dependency in group:name:version notation. reject is an optional
// version selector rejecting matching versions.
func NewRequest(notation, reject string) (resolver.Request, error) {
	selector, err := coordinate.ParseSelector(notation)
	if err != nil {
		return resolver.Request{}, err
	}
	req := resolver.Request{Selector: selector}
	if req.Version, err = version.Parse(selector.Version); err != nil {
		return resolver.Request{}, fmt.Errorf("invalid version of %s: %w", notation, err)
	}
	if reject != "" {
		if req.Reject, err = version.Parse(reject); err != nil {
			return resolver.Request{}, fmt.Errorf("invalid reject selector %q: %w", reject, err)
		}
	}
	return req, nil
}

// Resolve resolves a dependency to a component. The metadata of the component is
// resolved as well, unless the dependency was rejected.
func (r *Resolver) Resolve(ctx context.Context, req resolver.Request) (resolver.ComponentID, error) {
	id, err := r.components.Resolve(ctx, req)
	if err != nil || id.Rejected || id.Metadata != nil {
		return id, err
	}
	resolution, err := r.metadata.Resolve(ctx, id.ID, req.Override)
	if err != nil {
		return id, err
	}
	id.Metadata = resolution.Metadata
	id.Repository = resolution.Repository
	return id, nil
}

// ResolveMetadata resolves the metadata of an exact component version.
func (r *Resolver) ResolveMetadata(ctx context.Context, id coordinate.Component, override repository.Override) (resolver.Resolution, error) {
	return r.metadata.Resolve(ctx, id, override)
}

// Fetch makes the artifacts of the given type of a resolved component available as
// local files. An empty type fetches all artifacts.
func (r *Resolver) Fetch(ctx context.Context, component *metadata.Metadata, artifactType string) ([]string, error) {
	set := r.artifacts.ResolveArtifactsWithType(ctx, component, artifactType)
	switch set.State() {
	case repository.StateResolved:
	case repository.StateFailed:
		return nil, set.Err()
	default:
		return nil, fmt.Errorf("could not determine %q artifacts of %s", artifactType, component.ID)
	}

	files := make([]string, 0, len(set.Value()))
	var errs []error
	for _, artifact := range set.Value() {
		result := r.artifacts.ResolveArtifact(ctx, component, artifact)
		switch result.State() {
		case repository.StateResolved:
			files = append(files, result.Value())
		case repository.StateFailed:
			errs = append(errs, result.Err())
		default:
			errs = append(errs, &resolver.NotFoundError{Requested: artifact.ID.String(), Attempted: result.Attempted()})
		}
	}
	return files, errors.Join(errs...)
}
