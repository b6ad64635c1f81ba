package resolution

import (
	"log/slog"

	"github.com/opencontainers/go-digest"

	"ocm.software/open-component-model/resolution/layout"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/repository/caching"
	"ocm.software/open-component-model/resolution/repository/dynamic"
	"ocm.software/open-component-model/resolution/repository/errorhandling"
	"ocm.software/open-component-model/resolution/repository/filtering"
	"ocm.software/open-component-model/resolution/repository/offline"
	"ocm.software/open-component-model/resolution/repository/verifying"
	"ocm.software/open-component-model/resolution/verification"
)

// RepositorySpec describes a repository of the chain.
type RepositorySpec struct {
	Name      string
	Transport layout.Transport
	// Filter restricts the modules looked up in the repository. Optional.
	Filter *filtering.ContentDescriptor
	// DynamicResolve replaces Ivy dependency versions by their dynamic constraints.
	DynamicResolve bool
	// Verifier checks downloaded artifacts. Optional.
	Verifier verification.Verifier
}

// ID identifies the repository across sessions, so that persisted cache entries are
// only used for the same repository.
func (s RepositorySpec) ID() string {
	filter := ""
	if s.Filter != nil {
		filter = s.Filter.String()
	}
	return digest.FromString(s.Name + "\n" + s.Transport.Location("") + "\n" + filter).Encoded()[:16]
}

// NewRepository assembles the decorator stack of a repository.
func (s *Session) NewRepository(spec RepositorySpec) repository.Repository {
	id := spec.ID()

	var repo repository.Repository = layout.New(id, spec.Name, spec.Transport, s.caches.FileStore)
	if spec.DynamicResolve {
		repo = dynamic.New(repo)
	}
	repo = caching.New(repo,
		caching.WithCaches(s.caches),
		caching.WithPolicy(s.policy),
		caching.WithTimeProvider(s.time),
		caching.WithProcessor(s.processor),
		caching.WithListener(s.changing),
	)
	if spec.Verifier != nil {
		repo = verifying.New(repo, spec.Verifier)
	}
	if s.offline {
		repo = offline.New(repo)
	}
	if spec.Filter != nil {
		repo = filtering.New(repo, spec.Filter)
	}
	repo = errorhandling.New(repo, s.disabler, s.retry...)

	logger.Debug("assembled repository",
		slog.String("repository", spec.Name),
		slog.String("id", id),
		slog.String("location", spec.Transport.Location("")))
	return repo
}
