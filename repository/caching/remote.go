package caching

import (
	"context"
	"log/slog"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/metrics"
	"ocm.software/open-component-model/resolution/repository"
)

// remoteAccess delegates to the remote access of the wrapped repository and caches the
// outcome. Failures are never cached.
type remoteAccess struct {
	*Repository
}

var _ repository.Access = (*remoteAccess)(nil)

func (r *remoteAccess) request(op string) {
	metrics.RemoteRequestCounterTotal.WithLabelValues(r.ID(), op).Inc()
}

func (r *remoteAccess) ListModuleVersions(ctx context.Context, selector coordinate.Selector, override repository.Override) repository.VersionListResult {
	r.request("list")
	result := r.delegate.Remote().ListModuleVersions(ctx, selector, override)
	if result.State() == repository.StateListed {
		r.caches.Versions.Cache(r.ID(), selector.Module, result.Value())
	}
	return result
}

func (r *remoteAccess) ResolveComponentMetadata(ctx context.Context, id coordinate.Component, override repository.Override) repository.MetadataResult {
	r.request("metadata")
	result := r.delegate.Remote().ResolveComponentMetadata(ctx, id, override)
	switch result.State() {
	case repository.StateMissing:
		r.caches.Metadata.CacheMissing(r.ID(), id)
		r.log(ctx).DebugContext(ctx, "cached missing component", slog.String("component", id.String()))
		return result
	case repository.StateResolved:
	default:
		return result
	}

	m := result.Value()
	if _, ok := metadata.Find[metadata.DescriptorHashSource](m.Sources); !ok {
		hash, err := metadata.DescriptorHash(m)
		if err != nil {
			return repository.Failed[*metadata.Metadata](err)
		}
		m = m.WithSource(metadata.DescriptorHashSource{Hash: hash})
	}
	entry := r.caches.Metadata.CacheMetadata(r.ID(), id, m)
	processed, err := r.processedMetadata(ctx, entry, override)
	if err != nil {
		return repository.Failed[*metadata.Metadata](err)
	}
	return repository.Resolved(processed).WithAttempted(result.Attempted()...)
}

func (r *remoteAccess) ResolveArtifactsWithType(ctx context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	r.request("artifacts")
	result := r.delegate.Remote().ResolveArtifactsWithType(ctx, component, artifactType)
	if result.State() == repository.StateResolved {
		hash := descriptorHashSource(component.Sources)
		r.caches.Artifacts.Cache(r.ID(), component.ID, artifactsContext(artifactType), result.Value(), hash.Hash)
	}
	return result
}

func (r *remoteAccess) ResolveArtifact(ctx context.Context, artifact metadata.ComponentArtifact, sources metadata.Sources) repository.ArtifactResult {
	r.request("artifact")
	result := r.delegate.Remote().ResolveArtifact(ctx, artifact, sources)
	hash := descriptorHashSource(sources)
	switch result.State() {
	case repository.StateResolved:
		r.caches.Files.Store(r.ID(), artifact.ID, result.Value(), hash.Hash)
	case repository.StateMissing:
		r.caches.Files.StoreMissing(r.ID(), artifact.ID, result.Attempted(), hash.Hash)
	}
	return result
}

func (r *remoteAccess) EstimateMetadataFetchingCost(ctx context.Context, id coordinate.Component) repository.Cost {
	return r.delegate.Remote().EstimateMetadataFetchingCost(ctx, id)
}
