package resolver

import (
	"context"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/selection"
	"ocm.software/open-component-model/resolution/version"
)

// Request is a dependency to resolve.
type Request struct {
	// Selector is the requested module and version constraint.
	Selector coordinate.Selector
	// Version is the parsed version constraint of Selector.
	Version version.Selector
	// Reject rejects versions matching Version. Optional.
	Reject version.Selector
	// Attributes requested by the consumer.
	Attributes map[string]string
	Override   repository.Override
}

// Resolution is a resolved component.
type Resolution struct {
	// Metadata of the component, carrying the repository source of Repository.
	Metadata   *metadata.Metadata
	Repository repository.Repository
	// Unmatched and Rejections are the versions skipped in favor of the resolved one.
	Unmatched  []string
	Rejections []selection.Rejection
}

// DynamicVersionResolver resolves dynamic selectors to the newest matching component
// version across all repositories.
type DynamicVersionResolver struct {
	repositories []repository.Repository
	options      Options
}

// NewDynamicVersionResolver creates a resolver searching repositories in order.
func NewDynamicVersionResolver(repositories []repository.Repository, opts ...Option) *DynamicVersionResolver {
	return &DynamicVersionResolver{repositories: repositories, options: newOptions(opts)}
}

// Resolve returns the newest component version matching the request found in any of
// the repositories. If none was found it returns a NotFoundError, or a ResolveError if
// a repository failed.
func (r *DynamicVersionResolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	log := slogcontext.FromCtx(ctx).With(slog.String("realm", "resolution"), slog.String("selector", req.Selector.String()))

	states := make([]*versionState, 0, len(r.repositories))
	for _, repo := range r.repositories {
		states = append(states, &versionState{
			resolver:   r,
			repo:       repo,
			req:        &req,
			candidates: map[string]*candidate{},
		})
	}

	var failures []error
	best, missing, critical := r.findLatest(ctx, states, &failures)
	if best == nil && !critical && len(missing) > 0 {
		log.DebugContext(ctx, "nothing found in first pass, searching remotely", slog.Int("repositories", len(missing)))
		best, _, critical = r.findLatest(ctx, missing, &failures)
	}

	if critical {
		// a failing repository might hold a newer version than the best one found so far
		return Resolution{}, &ResolveError{Requested: req.Selector.String(), Failures: failures}
	}
	if best != nil {
		log.DebugContext(ctx, "resolved", slog.String("component", best.result.Value().ID.String()), slog.String("repository", best.repo.Name()))
		return best.resolution(), nil
	}
	if len(failures) > 0 {
		return Resolution{}, &ResolveError{Requested: req.Selector.String(), Failures: failures}
	}
	var diag diagnostics
	for _, s := range states {
		diag.merge(&s.diag)
	}
	return Resolution{}, &NotFoundError{
		Requested:  req.Selector.String(),
		Dynamic:    true,
		Attempted:  diag.attempted,
		Unmatched:  diag.unmatched,
		Rejections: diag.rejections,
	}
}

// findLatest resolves every state in the queue and returns the state with the newest
// component, the states that may find more when asked again, and whether a critical
// failure ended the search.
func (r *DynamicVersionResolver) findLatest(ctx context.Context, queue []*versionState, failures *[]error) (best *versionState, missing []*versionState, critical bool) {
	for _, state := range queue {
		result := state.resolve(ctx)
		switch result.State() {
		case repository.StateFailed:
			*failures = append(*failures, result.Err())
			if IsCriticalFailure(result.Err()) {
				return best, missing, true
			}
		case repository.StateResolved:
			best = r.chooseBest(best, state)
		default:
			if state.canMakeFurtherAttempts() {
				missing = append(missing, state)
			}
		}
	}
	return best, missing, false
}

func (r *DynamicVersionResolver) chooseBest(one, two *versionState) *versionState {
	if one == nil {
		return two
	}
	if r.options.Chooser.SelectNewestComponent(one.result.Value(), two.result.Value()) == one.result.Value() {
		return one
	}
	return two
}

// versionState is the search for a dynamic selector in one repository.
type versionState struct {
	resolver *DynamicVersionResolver
	repo     repository.Repository
	req      *Request

	listing    search[[]string]
	candidates map[string]*candidate
	matched    *candidate
	result     repository.MetadataResult
	diag       diagnostics
}

func (s *versionState) resolve(ctx context.Context) repository.MetadataResult {
	listing := s.listing.resolve(ctx, false,
		func(ctx context.Context) repository.VersionListResult {
			return s.repo.Local().ListModuleVersions(ctx, s.req.Selector, s.req.Override)
		},
		func(ctx context.Context) repository.VersionListResult {
			return s.repo.Remote().ListModuleVersions(ctx, s.req.Selector, s.req.Override)
		})
	s.diag.attempt(listing.Attempted()...)

	switch listing.State() {
	case repository.StateFailed:
		s.result = repository.Failed[*metadata.Metadata](listing.Err())
	case repository.StateListed:
		s.selectMatchingVersionAndResolve(ctx, listing.Value())
	case repository.StateMissing:
		s.result = repository.Missing[*metadata.Metadata]()
	default:
		s.result = repository.Unknown[*metadata.Metadata]()
	}
	return s.result
}

func (s *versionState) selectMatchingVersionAndResolve(ctx context.Context, versions []string) {
	candidates := make([]selection.Candidate, 0, len(versions))
	for _, v := range versions {
		c, ok := s.candidates[v]
		if !ok {
			c = &candidate{
				id:       coordinate.Component{Module: s.req.Selector.Module, Version: v},
				repo:     s.repo,
				override: s.req.Override,
			}
			s.candidates[v] = c
		}
		// candidates of a remote listing are checked remotely as well
		c.eager = !s.listing.canMakeFurtherAttempts()
		candidates = append(candidates, c)
	}

	filter, _ := repository.ContentFilterOf(s.repo)
	options := s.resolver.options
	selected := options.Chooser.SelectNewestMatchingComponent(ctx, candidates, selection.Request{
		Selector:   s.req.Version,
		Reject:     s.req.Reject,
		Attributes: s.req.Attributes,
		Schema:     options.Schema,
		Rules:      options.Rules,
		Filter:     filter,
	})
	s.diag.attempt(selected.Attempted...)
	s.diag.unmatch(selected.Unmatched...)
	s.diag.reject(selected.Rejections...)

	switch selected.Outcome {
	case selection.Matched:
		s.matched = selected.Match.(*candidate)
		result := s.matched.search.result
		if selected.Metadata == nil {
			result = s.matched.ResolveMetadata(ctx)
		}
		s.diag.attempt(result.Attempted()...)
		if result.State() == repository.StateResolved {
			result = repository.Resolved(withRepositorySource(result.Value(), s.repo)).
				WithAuthoritative(result.Authoritative())
		}
		s.result = result
	case selection.Failed:
		s.result = repository.Failed[*metadata.Metadata](selected.Err)
	case selection.Unresolved:
		s.result = repository.Unknown[*metadata.Metadata]()
	default:
		s.result = repository.Missing[*metadata.Metadata]()
	}
}

// canMakeFurtherAttempts reports whether asking again may produce a different result.
func (s *versionState) canMakeFurtherAttempts() bool {
	return s.listing.canMakeFurtherAttempts() || (s.matched != nil && s.matched.search.canMakeFurtherAttempts())
}

func (s *versionState) resolution() Resolution {
	return Resolution{
		Metadata:   s.result.Value(),
		Repository: s.repo,
		Unmatched:  s.diag.unmatched,
		Rejections: s.diag.rejections,
	}
}

// candidate is one listed version. Its metadata is searched locally, then remotely, at
// most once per access point across both passes.
type candidate struct {
	id       coordinate.Component
	repo     repository.Repository
	override repository.Override
	eager    bool
	search   search[*metadata.Metadata]
}

var _ selection.Candidate = (*candidate)(nil)

func (c *candidate) ID() coordinate.Component { return c.id }

func (c *candidate) ResolveMetadata(ctx context.Context) repository.MetadataResult {
	return c.search.resolve(ctx, c.eager,
		func(ctx context.Context) repository.MetadataResult {
			return c.repo.Local().ResolveComponentMetadata(ctx, c.id, c.override)
		},
		func(ctx context.Context) repository.MetadataResult {
			return c.repo.Remote().ResolveComponentMetadata(ctx, c.id, c.override)
		})
}

func withRepositorySource(m *metadata.Metadata, repo repository.Repository) *metadata.Metadata {
	return m.WithSource(metadata.RepositorySource{RepositoryID: repo.ID(), RepositoryName: repo.Name()})
}
