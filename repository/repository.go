// Package repository defines the contract between the resolution engine and the
// repositories it consults.
//
// Every repository offers two access points: Local answers from data that is
// available without network access (caches, in-memory state) and Remote performs
// the actual lookup. Callers always ask Local first and only consult Remote if
// Local did not produce a result or the result is not authoritative.
//
// Repositories are usually assembled from decorators, each wrapping the next:
//
//	error handling -> filtering -> offline -> verification -> caching -> dynamic resolve -> base
package repository

import (
	"context"
	"fmt"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
)

// Cost estimates how expensive fetching metadata for a component is.
type Cost int

const (
	// CostFast means the metadata is available in memory.
	CostFast Cost = iota
	// CostCheap means the metadata is available without network access.
	CostCheap
	// CostExpensive means the metadata has to be fetched remotely.
	CostExpensive
)

func (c Cost) String() string {
	switch c {
	case CostFast:
		return "FAST"
	case CostCheap:
		return "CHEAP"
	case CostExpensive:
		return "EXPENSIVE"
	default:
		return fmt.Sprintf("Cost(%d)", int(c))
	}
}

// Override carries request specific metadata overriding what a repository would assume.
type Override struct {
	// Changing forces the requested component to be treated as changing.
	Changing bool
}

// Access is one access point of a repository.
type Access interface {
	// ListModuleVersions lists all versions known for the selected module.
	ListModuleVersions(ctx context.Context, selector coordinate.Selector, override Override) VersionListResult
	// ResolveComponentMetadata fetches the metadata of one component version.
	ResolveComponentMetadata(ctx context.Context, id coordinate.Component, override Override) MetadataResult
	// ResolveArtifactsWithType lists the artifacts of the given type belonging to a resolved component.
	ResolveArtifactsWithType(ctx context.Context, component *metadata.Metadata, artifactType string) ArtifactSetResult
	// ResolveArtifact makes the content of an artifact available as a local file.
	ResolveArtifact(ctx context.Context, artifact metadata.ComponentArtifact, sources metadata.Sources) ArtifactResult
	// EstimateMetadataFetchingCost estimates the cost of ResolveComponentMetadata for the component.
	EstimateMetadataFetchingCost(ctx context.Context, id coordinate.Component) Cost
}

// Repository is a named source of components with a local and a remote access point.
type Repository interface {
	// ID uniquely identifies the repository and its configuration within a session.
	ID() string
	Name() string
	Local() Access
	Remote() Access
}

// Wrapper is implemented by repositories decorating another repository.
type Wrapper interface {
	Unwrap() Repository
}

// Find walks the chain of wrapped repositories and returns the first one implementing T.
func Find[T any](repo Repository) (T, bool) {
	for repo != nil {
		if t, ok := repo.(T); ok {
			return t, true
		}
		w, ok := repo.(Wrapper)
		if !ok {
			break
		}
		repo = w.Unwrap()
	}
	var zero T
	return zero, false
}

// New creates a repository from its access points.
func New(id, name string, local, remote Access) Repository {
	return &repository{id: id, name: name, local: local, remote: remote}
}

type repository struct {
	id, name      string
	local, remote Access
}

func (r *repository) ID() string     { return r.id }
func (r *repository) Name() string   { return r.name }
func (r *repository) Local() Access  { return r.local }
func (r *repository) Remote() Access { return r.remote }

// UnknownAccess answers every request with an unknown result. It serves as the local
// access of repositories that have nothing available without network access.
type UnknownAccess struct{}

var _ Access = UnknownAccess{}

func (UnknownAccess) ListModuleVersions(context.Context, coordinate.Selector, Override) VersionListResult {
	return Unknown[[]string]()
}

func (UnknownAccess) ResolveComponentMetadata(context.Context, coordinate.Component, Override) MetadataResult {
	return Unknown[*metadata.Metadata]()
}

func (UnknownAccess) ResolveArtifactsWithType(context.Context, *metadata.Metadata, string) ArtifactSetResult {
	return Unknown[[]metadata.ComponentArtifact]()
}

func (UnknownAccess) ResolveArtifact(context.Context, metadata.ComponentArtifact, metadata.Sources) ArtifactResult {
	return Unknown[string]()
}

func (UnknownAccess) EstimateMetadataFetchingCost(context.Context, coordinate.Component) Cost {
	return CostExpensive
}
