package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/metrics"
	"ocm.software/open-component-model/resolution/repository"
)

// ArtifactResolver resolves artifacts from the repository their component was resolved from.
//
// Single artifacts are resolved at most once per repository during the lifetime of the
// resolver. Concurrent requests for the same artifact share one resolution.
type ArtifactResolver struct {
	repositories map[string]repository.Repository

	sf      singleflight.Group
	mu      sync.RWMutex
	results map[string]repository.ArtifactResult
}

// NewArtifactResolver creates a resolver for components resolved from repositories.
func NewArtifactResolver(repositories []repository.Repository) *ArtifactResolver {
	byID := make(map[string]repository.Repository, len(repositories))
	for _, repo := range repositories {
		byID[repo.ID()] = repo
	}
	return &ArtifactResolver{repositories: byID, results: map[string]repository.ArtifactResult{}}
}

func (r *ArtifactResolver) repositoryOf(sources metadata.Sources) (repository.Repository, error) {
	src, ok := metadata.Find[metadata.RepositorySource](sources)
	if !ok {
		return nil, fmt.Errorf("%w: component was not resolved from a repository", ErrInvalidRepository)
	}
	repo, ok := r.repositories[src.RepositoryID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown repository %s", ErrInvalidRepository, src)
	}
	return repo, nil
}

// ResolveArtifactsWithType lists the artifacts of a type of a resolved component.
func (r *ArtifactResolver) ResolveArtifactsWithType(ctx context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	repo, err := r.repositoryOf(component.Sources)
	if err != nil {
		return repository.Failed[[]metadata.ComponentArtifact](err)
	}
	result := repo.Local().ResolveArtifactsWithType(ctx, component, artifactType)
	if !result.HasResult() {
		result = repo.Remote().ResolveArtifactsWithType(ctx, component, artifactType)
	}
	return result
}

// ResolveArtifact makes an artifact of a resolved component available as a local file.
func (r *ArtifactResolver) ResolveArtifact(ctx context.Context, component *metadata.Metadata, artifact metadata.ComponentArtifact) repository.ArtifactResult {
	repo, err := r.repositoryOf(component.Sources)
	if err != nil {
		return repository.Failed[string](err)
	}

	key := repo.ID() + "|" + artifact.ID.String()
	if result, ok := r.lookup(key); ok {
		return result
	}

	// callers giving up do not cancel the flight
	flight := r.sf.DoChan(key, func() (any, error) {
		if result, ok := r.lookup(key); ok {
			return result, nil
		}
		ctx := context.WithoutCancel(ctx)
		result := repo.Local().ResolveArtifact(ctx, artifact, component.Sources)
		if !result.HasResult() {
			result = repo.Remote().ResolveArtifact(ctx, artifact, component.Sources)
		}
		r.mu.Lock()
		r.results[key] = result
		r.mu.Unlock()
		return result, nil
	})
	select {
	case <-ctx.Done():
		return repository.Failed[string](fmt.Errorf("could not resolve %s: %w", artifact.ID, ctx.Err()))
	case res := <-flight:
		if res.Shared {
			metrics.CacheShareCounterTotal.Inc()
			logger.DebugContext(ctx, "shared artifact resolution", slog.String("artifact", artifact.ID.String()), slog.String("repository", repo.Name()))
		}
		return res.Val.(repository.ArtifactResult)
	}
}

func (r *ArtifactResolver) lookup(key string) (repository.ArtifactResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[key]
	return result, ok
}
