package resolver

import (
	"context"
	"errors"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/selection"
	"ocm.software/open-component-model/resolution/version"
)

// ComponentID is the component a dependency resolved to.
type ComponentID struct {
	ID coordinate.Component
	// Metadata is set if it was resolved to select the version.
	Metadata   *metadata.Metadata
	Repository repository.Repository
	// Rejected is set if the version matched but is rejected by the reject selector.
	Rejected   bool
	Unmatched  []string
	Rejections []selection.Rejection
}

// ComponentIDResolver resolves dependencies to component ids. Exact versions are taken
// as they are, without asking any repository. Dynamic selectors are resolved with a
// DynamicVersionResolver.
type ComponentIDResolver struct {
	dynamic *DynamicVersionResolver
}

// NewComponentIDResolver creates a resolver searching repositories in order for dynamic selectors.
func NewComponentIDResolver(repositories []repository.Repository, opts ...Option) *ComponentIDResolver {
	return &ComponentIDResolver{dynamic: NewDynamicVersionResolver(repositories, opts...)}
}

// Resolve resolves the requested selector.
func (r *ComponentIDResolver) Resolve(ctx context.Context, req Request) (ComponentID, error) {
	if !req.Version.IsDynamic() {
		id := coordinate.Component{Module: req.Selector.Module, Version: req.Selector.Version}
		return ComponentID{
			ID:       id,
			Rejected: req.Reject != nil && req.Reject.Accept(id.Version),
		}, nil
	}

	resolution, err := r.dynamic.Resolve(ctx, req)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) && notFound.RejectedBySelector() {
			return rejectedBySelector(notFound), nil
		}
		return ComponentID{}, err
	}
	return ComponentID{
		ID:         resolution.Metadata.ID,
		Metadata:   resolution.Metadata,
		Repository: resolution.Repository,
		Unmatched:  resolution.Unmatched,
		Rejections: resolution.Rejections,
	}, nil
}

// rejectedBySelector reports the newest version rejected by the reject selector.
func rejectedBySelector(err *NotFoundError) ComponentID {
	result := ComponentID{Rejected: true, Unmatched: err.Unmatched, Rejections: err.Rejections}
	var newest string
	for _, rej := range err.Rejections {
		if rej.Cause != selection.RejectedBySelector {
			continue
		}
		if newest == "" || version.Compare(rej.ID.Version, newest) > 0 {
			newest = rej.ID.Version
			result.ID = rej.ID
		}
	}
	return result
}
