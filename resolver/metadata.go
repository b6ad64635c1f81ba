package resolver

import (
	"context"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

// MetadataResolver resolves the metadata of exact component versions.
type MetadataResolver struct {
	repositories []repository.Repository
}

// NewMetadataResolver creates a resolver searching repositories in order.
func NewMetadataResolver(repositories []repository.Repository) *MetadataResolver {
	return &MetadataResolver{repositories: repositories}
}

// Resolve returns the metadata of the first repository providing the component.
//
// If repositories only provide metadata flagged as missing, i.e. synthesized for a
// component without a descriptor, the first of those is returned. It is up to the
// caller whether to accept it.
func (r *MetadataResolver) Resolve(ctx context.Context, id coordinate.Component, override repository.Override) (Resolution, error) {
	log := slogcontext.FromCtx(ctx).With(slog.String("realm", "resolution"), slog.String("component", id.String()))

	states := make([]*metadataState, 0, len(r.repositories))
	for _, repo := range r.repositories {
		states = append(states, &metadataState{repo: repo, id: id, override: override})
	}

	var failures []error
	best, missing, critical := r.findBestMatch(ctx, states, &failures)
	if best == nil && !critical && len(missing) > 0 {
		log.DebugContext(ctx, "nothing found in first pass, searching remotely", slog.Int("repositories", len(missing)))
		best, _, critical = r.findBestMatch(ctx, missing, &failures)
	}

	if critical {
		return Resolution{}, &ResolveError{Requested: id.String(), Failures: failures}
	}
	if best != nil {
		return Resolution{
			Metadata:   withRepositorySource(best.result.Value(), best.repo),
			Repository: best.repo,
		}, nil
	}
	if len(failures) > 0 {
		return Resolution{}, &ResolveError{Requested: id.String(), Failures: failures}
	}
	var diag diagnostics
	for _, s := range states {
		diag.attempt(s.result.Attempted()...)
	}
	return Resolution{}, &NotFoundError{Requested: id.String(), Attempted: diag.attempted}
}

// findBestMatch returns the first state resolving the component with a descriptor, or
// else the first resolving it without one. It stops at the first critical failure.
func (r *MetadataResolver) findBestMatch(ctx context.Context, queue []*metadataState, failures *[]error) (best *metadataState, missing []*metadataState, critical bool) {
	for _, state := range queue {
		result := state.resolve(ctx)
		switch result.State() {
		case repository.StateFailed:
			*failures = append(*failures, result.Err())
			if IsCriticalFailure(result.Err()) {
				return best, missing, true
			}
		case repository.StateResolved:
			if !result.Value().Missing {
				return state, nil, false
			}
			if best == nil {
				best = state
			}
		default:
			if state.search.canMakeFurtherAttempts() {
				missing = append(missing, state)
			}
		}
	}
	return best, missing, false
}

// metadataState is the search for an exact component version in one repository.
type metadataState struct {
	repo     repository.Repository
	id       coordinate.Component
	override repository.Override
	search   search[*metadata.Metadata]
	result   repository.MetadataResult
}

func (s *metadataState) resolve(ctx context.Context) repository.MetadataResult {
	s.result = s.search.resolve(ctx, false,
		func(ctx context.Context) repository.MetadataResult {
			return s.repo.Local().ResolveComponentMetadata(ctx, s.id, s.override)
		},
		func(ctx context.Context) repository.MetadataResult {
			return s.repo.Remote().ResolveComponentMetadata(ctx, s.id, s.override)
		})
	return s.result
}
