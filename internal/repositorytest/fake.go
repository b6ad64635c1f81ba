// Package repositorytest provides scriptable repositories for tests.
package repositorytest

import (
	"context"
	"fmt"
	"sync"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

// Operation names as recorded by Access.
const (
	OpListVersions     = "ListModuleVersions"
	OpResolveMetadata  = "ResolveComponentMetadata"
	OpResolveArtifacts = "ResolveArtifactsWithType"
	OpResolveArtifact  = "ResolveArtifact"
	OpEstimateCost     = "EstimateMetadataFetchingCost"
)

// Access is a repository.Access answering from in-memory content and counting calls.
// Unknown content is reported as missing, or as unknown if UnknownIfAbsent was set.
type Access struct {
	mu         sync.Mutex
	versions   map[coordinate.Module][]string
	components map[coordinate.Component]*metadata.Metadata
	files      map[coordinate.Artifact]string
	failure    func(op string, call int) error
	unknown    bool
	// authoritative marks every result as authoritative.
	authoritative bool
	cost          repository.Cost
	calls         map[string]int
}

var _ repository.Access = (*Access)(nil)

// NewAccess creates an empty access point.
func NewAccess() *Access {
	return &Access{
		versions:   map[coordinate.Module][]string{},
		components: map[coordinate.Component]*metadata.Metadata{},
		files:      map[coordinate.Artifact]string{},
		calls:      map[string]int{},
		cost:       repository.CostExpensive,
	}
}

// UnknownIfAbsent answers requests for absent content with an unknown result.
func (a *Access) UnknownIfAbsent() *Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unknown = true
	return a
}

// Authoritative marks every result as authoritative, like a cache verified during the session.
func (a *Access) Authoritative() *Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authoritative = true
	return a
}

// WithVersions adds a version listing.
func (a *Access) WithVersions(module coordinate.Module, versions ...string) *Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.versions[module] = versions
	return a
}

// WithComponent adds component metadata.
func (a *Access) WithComponent(m *metadata.Metadata) *Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.components[m.ID] = m
	return a
}

// WithComponents adds metadata for each version of the module with the given status.
func (a *Access) WithComponents(module coordinate.Module, status string, versions ...string) *Access {
	for _, v := range versions {
		a.WithComponent(&metadata.Metadata{
			ID:     coordinate.Component{Module: module, Version: v},
			Status: status,
		})
	}
	return a
}

// WithFile adds an artifact file.
func (a *Access) WithFile(id coordinate.Artifact, file string) *Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[id] = file
	return a
}

// WithCost sets the estimated metadata fetching cost.
func (a *Access) WithCost(cost repository.Cost) *Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cost = cost
	return a
}

// FailWith fails every operation with err.
func (a *Access) FailWith(err error) *Access {
	return a.FailFunc(func(string, int) error { return err })
}

// FailFunc decides per operation and call count (starting at 1) whether to fail.
func (a *Access) FailFunc(fn func(op string, call int) error) *Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failure = fn
	return a
}

// Calls returns how often the operation was invoked.
func (a *Access) Calls(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[op]
}

// TotalCalls returns how often any operation except cost estimation was invoked.
func (a *Access) TotalCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for op, n := range a.calls {
		if op != OpEstimateCost {
			total += n
		}
	}
	return total
}

func (a *Access) record(op string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls[op]++
	if a.failure != nil {
		return a.failure(op, a.calls[op])
	}
	return nil
}

func (a *Access) ListModuleVersions(_ context.Context, selector coordinate.Selector, _ repository.Override) repository.VersionListResult {
	if err := a.record(OpListVersions); err != nil {
		return repository.Failed[[]string](err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	versions, ok := a.versions[selector.Module]
	switch {
	case ok:
		return repository.Listed(versions).WithAuthoritative(a.authoritative)
	case a.unknown:
		return repository.Unknown[[]string]()
	}
	return repository.Missing[[]string]().WithAttempted(fmt.Sprintf("fake:%s", selector.Module)).WithAuthoritative(a.authoritative)
}

func (a *Access) ResolveComponentMetadata(_ context.Context, id coordinate.Component, _ repository.Override) repository.MetadataResult {
	if err := a.record(OpResolveMetadata); err != nil {
		return repository.Failed[*metadata.Metadata](err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.components[id]
	switch {
	case ok:
		return repository.Resolved(m).WithAuthoritative(a.authoritative)
	case a.unknown:
		return repository.Unknown[*metadata.Metadata]()
	}
	return repository.Missing[*metadata.Metadata]().WithAttempted(fmt.Sprintf("fake:%s", id)).WithAuthoritative(a.authoritative)
}

func (a *Access) ResolveArtifactsWithType(_ context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	if err := a.record(OpResolveArtifacts); err != nil {
		return repository.Failed[[]metadata.ComponentArtifact](err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unknown {
		return repository.Unknown[[]metadata.ComponentArtifact]()
	}
	return repository.Resolved(component.ComponentArtifacts(artifactType))
}

func (a *Access) ResolveArtifact(_ context.Context, artifact metadata.ComponentArtifact, _ metadata.Sources) repository.ArtifactResult {
	if err := a.record(OpResolveArtifact); err != nil {
		return repository.Failed[string](err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	file, ok := a.files[artifact.ID]
	switch {
	case ok:
		return repository.Resolved(file).WithAuthoritative(a.authoritative)
	case a.unknown:
		return repository.Unknown[string]()
	}
	return repository.Missing[string]().WithAttempted(fmt.Sprintf("fake:%s", artifact.ID.FileName())).WithAuthoritative(a.authoritative)
}

func (a *Access) EstimateMetadataFetchingCost(context.Context, coordinate.Component) repository.Cost {
	_ = a.record(OpEstimateCost)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cost
}

// Repository is a repository.Repository with fake access points.
type Repository struct {
	id           string
	LocalAccess  *Access
	RemoteAccess *Access
}

var _ repository.Repository = (*Repository)(nil)

// NewRepository creates a repository whose local access answers unknown for everything
// and whose remote access is empty.
func NewRepository(id string) *Repository {
	return &Repository{
		id:           id,
		LocalAccess:  NewAccess().UnknownIfAbsent().WithCost(repository.CostCheap),
		RemoteAccess: NewAccess(),
	}
}

func (r *Repository) ID() string                { return r.id }
func (r *Repository) Name() string              { return r.id }
func (r *Repository) Local() repository.Access  { return r.LocalAccess }
func (r *Repository) Remote() repository.Access { return r.RemoteAccess }
