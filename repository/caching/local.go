package caching

import (
	"context"
	"log/slog"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/metrics"
	"ocm.software/open-component-model/resolution/repository"
)

const (
	kindVersions  = "versions"
	kindMetadata  = "metadata"
	kindArtifacts = "artifacts"
	kindArtifact  = "artifact"
)

func hit(kind string)  { metrics.CacheHitCounterTotal.WithLabelValues(kind).Inc() }
func miss(kind string) { metrics.CacheMissCounterTotal.WithLabelValues(kind).Inc() }

func artifactsContext(artifactType string) string {
	return "artifacts:" + artifactType
}

// localAccess answers requests from the delegate's local access or the caches.
type localAccess struct {
	*Repository
}

var _ repository.Access = (*localAccess)(nil)

func (l *localAccess) ListModuleVersions(ctx context.Context, selector coordinate.Selector, override repository.Override) repository.VersionListResult {
	if result := l.delegate.Local().ListModuleVersions(ctx, selector, override); result.HasResult() {
		return result
	}

	entry, ok := l.caches.Versions.Get(l.ID(), selector.Module)
	if !ok {
		miss(kindVersions)
		l.log(ctx).DebugContext(ctx, "no cached version listing", slog.String("module", selector.Module.String()))
		return repository.Unknown[[]string]()
	}
	age := cache.Age(l.time, entry.CachedAt)
	expiry := l.policy.VersionListExpiry(selector.Module, entry.Versions, age)
	if expiry.MustCheck {
		miss(kindVersions)
		l.log(ctx).DebugContext(ctx, "cached version listing expired", slog.String("module", selector.Module.String()), slog.Duration("age", age))
		return repository.Unknown[[]string]()
	}
	hit(kindVersions)
	l.listener.OnDynamicVersionSelection(selector, expiry, entry.Versions)
	l.log(ctx).DebugContext(ctx, "found cached version listing", slog.String("module", selector.Module.String()), slog.Any("versions", entry.Versions))
	return repository.Listed(entry.Versions).WithAuthoritative(age == 0)
}

func (l *localAccess) ResolveComponentMetadata(ctx context.Context, id coordinate.Component, override repository.Override) repository.MetadataResult {
	if result := l.delegate.Local().ResolveComponentMetadata(ctx, id, override); result.HasResult() {
		return result
	}

	entry, ok := l.caches.Metadata.Get(l.ID(), id)
	if !ok {
		miss(kindMetadata)
		l.log(ctx).DebugContext(ctx, "no cached metadata", slog.String("component", id.String()))
		return repository.Unknown[*metadata.Metadata]()
	}
	age := cache.Age(l.time, entry.CachedAt)

	if entry.Missing {
		if l.policy.MissingModuleExpiry(id, age).MustCheck {
			miss(kindMetadata)
			l.log(ctx).DebugContext(ctx, "cached missing component expired", slog.String("component", id.String()), slog.Duration("age", age))
			return repository.Unknown[*metadata.Metadata]()
		}
		hit(kindMetadata)
		l.log(ctx).DebugContext(ctx, "component cached as missing", slog.String("component", id.String()))
		return repository.Missing[*metadata.Metadata]().WithAuthoritative(age == 0)
	}

	var expiry cache.Expiry
	changing := override.Changing || entry.Metadata.Changing
	if changing {
		expiry = l.policy.ChangingModuleExpiry(id, age)
	} else {
		expiry = l.policy.ModuleExpiry(id, age)
	}
	if expiry.MustCheck {
		miss(kindMetadata)
		l.log(ctx).DebugContext(ctx, "cached metadata expired", slog.String("component", id.String()), slog.Duration("age", age))
		return repository.Unknown[*metadata.Metadata]()
	}

	processed, err := l.processedMetadata(ctx, entry, override)
	if err != nil {
		return repository.Failed[*metadata.Metadata](err)
	}
	hit(kindMetadata)
	if changing {
		l.listener.OnChangingModuleResolve(id, expiry)
	}
	l.log(ctx).DebugContext(ctx, "found cached metadata", slog.String("component", id.String()))
	return repository.Resolved(processed).WithAuthoritative(age == 0)
}

func (l *localAccess) ResolveArtifactsWithType(ctx context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	if result := l.delegate.Local().ResolveArtifactsWithType(ctx, component, artifactType); result.HasResult() {
		return result
	}

	entry, ok := l.caches.Artifacts.Get(l.ID(), component.ID, artifactsContext(artifactType))
	if !ok {
		miss(kindArtifacts)
		return repository.Unknown[[]metadata.ComponentArtifact]()
	}
	age := cache.Age(l.time, entry.CachedAt)
	hash := descriptorHashSource(component.Sources)
	expiry := l.policy.ModuleArtifactsExpiry(component.ID, entry.Artifacts, age, hash.Changing, hash.Hash == entry.DescriptorHash)
	if expiry.MustCheck {
		miss(kindArtifacts)
		l.log(ctx).DebugContext(ctx, "cached artifact set expired", slog.String("component", component.ID.String()), slog.String("type", artifactType))
		return repository.Unknown[[]metadata.ComponentArtifact]()
	}
	hit(kindArtifacts)
	return repository.Resolved(entry.Artifacts).WithAuthoritative(age == 0)
}

func (l *localAccess) ResolveArtifact(ctx context.Context, artifact metadata.ComponentArtifact, sources metadata.Sources) repository.ArtifactResult {
	if result := l.delegate.Local().ResolveArtifact(ctx, artifact, sources); result.HasResult() {
		return result
	}

	entry, ok := l.caches.Files.Get(l.ID(), artifact.ID)
	if !ok {
		miss(kindArtifact)
		return repository.Unknown[string]()
	}
	age := cache.Age(l.time, entry.CachedAt)
	hash := descriptorHashSource(sources)
	hashMatch := hash.Hash == entry.DescriptorHash

	if entry.Missing {
		if !l.policy.ArtifactExpiry(artifact.ID, "", age, hash.Changing, hashMatch).MustCheck {
			hit(kindArtifact)
			return repository.Missing[string]().WithAttempted(entry.Attempted...)
		}
	} else if !l.policy.ArtifactExpiry(artifact.ID, entry.File, age, hash.Changing, hashMatch).MustCheck {
		hit(kindArtifact)
		return repository.Resolved(entry.File)
	}
	miss(kindArtifact)
	l.log(ctx).DebugContext(ctx, "cached artifact expired", slog.String("artifact", artifact.ID.String()), slog.Bool("descriptorChanged", !hashMatch))
	return repository.Unknown[string]()
}

func (l *localAccess) EstimateMetadataFetchingCost(ctx context.Context, id coordinate.Component) repository.Cost {
	entry, ok := l.caches.Metadata.Get(l.ID(), id)
	if !ok {
		return l.delegate.Remote().EstimateMetadataFetchingCost(ctx, id)
	}
	age := cache.Age(l.time, entry.CachedAt)
	if entry.Missing {
		if l.policy.MissingModuleExpiry(id, age).MustCheck {
			return l.delegate.Remote().EstimateMetadataFetchingCost(ctx, id)
		}
		return repository.CostCheap
	}
	if entry.Metadata.Changing && l.policy.ChangingModuleExpiry(id, age).MustCheck {
		return l.delegate.Remote().EstimateMetadataFetchingCost(ctx, id)
	}
	return repository.CostFast
}
