package resolver

import (
	"context"

	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/selection"
)

// searchState tracks which access points of a repository were asked for a request.
type searchState int

const (
	notStarted searchState = iota
	localDone
	remoteDone
)

// search asks the local access point of a repository first and the remote one only if
// the local one had no result, or in a later call if its result was not authoritative.
// Eager searches ask the remote access point right away if the local result is not
// authoritative. A resolved or failed local result settles the search, so the remote
// access point is not asked for it. Each access point is asked at most once.
type search[T any] struct {
	state  searchState
	result repository.Result[T]
}

func (s *search[T]) resolve(ctx context.Context, eager bool, local, remote func(context.Context) repository.Result[T]) repository.Result[T] {
	if s.state == notStarted {
		s.state = localDone
		s.result = local(ctx)
		if s.result.HasResult() {
			if s.result.Authoritative() {
				s.state = remoteDone
			}
			if !eager || s.state == remoteDone {
				return s.result
			}
		}
	}
	if s.state == localDone && !s.settled() {
		s.state = remoteDone
		s.result = remote(ctx)
	}
	return s.result
}

func (s *search[T]) settled() bool {
	state := s.result.State()
	return state == repository.StateResolved || state == repository.StateFailed
}

// canMakeFurtherAttempts reports whether asking again may reach the remote access point.
func (s *search[T]) canMakeFurtherAttempts() bool {
	return s.state == notStarted || (s.state == localDone && !s.settled())
}

// diagnostics collects what was tried, without duplicates.
type diagnostics struct {
	attempted  []string
	unmatched  []string
	rejections []selection.Rejection
	seen       map[string]struct{}
}

func (d *diagnostics) once(key string) bool {
	if d.seen == nil {
		d.seen = map[string]struct{}{}
	}
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

func (d *diagnostics) attempt(locations ...string) {
	for _, l := range locations {
		if d.once("attempted|" + l) {
			d.attempted = append(d.attempted, l)
		}
	}
}

func (d *diagnostics) unmatch(versions ...string) {
	for _, v := range versions {
		if d.once("unmatched|" + v) {
			d.unmatched = append(d.unmatched, v)
		}
	}
}

func (d *diagnostics) reject(rejections ...selection.Rejection) {
	for _, r := range rejections {
		if d.once("rejected|" + r.String()) {
			d.rejections = append(d.rejections, r)
		}
	}
}

func (d *diagnostics) merge(other *diagnostics) {
	d.attempt(other.attempted...)
	d.unmatch(other.unmatched...)
	d.reject(other.rejections...)
}
