package version

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultStatusScheme is the status scheme used for metadata that does not declare
// its own, ordered from least to most mature.
var DefaultStatusScheme = []string{"integration", "milestone", "release"}

// MetadataView is the part of resolved component metadata a Selector may need to
// accept a candidate.
type MetadataView interface {
	ComponentVersion() string
	ComponentStatus() string
	ComponentStatusScheme() []string
}

// Selector matches candidate versions against a requested version constraint.
type Selector interface {
	// IsDynamic reports whether the selector can match more than one version,
	// so that the available versions need to be listed.
	IsDynamic() bool
	// RequiresMetadata reports whether candidates can only be judged with their
	// metadata, in which case AcceptMetadata must be used instead of Accept.
	RequiresMetadata() bool
	// MatchesUniqueVersion reports whether at most one version can ever be accepted.
	MatchesUniqueVersion() bool
	// Accept judges a candidate by its version string.
	Accept(candidate string) bool
	// AcceptMetadata judges a candidate by its resolved metadata.
	AcceptMetadata(candidate MetadataView) bool
	// Selector returns the textual notation the selector was created from.
	Selector() string
}

// ErrEmptySelector is returned when parsing an empty constraint.
var ErrEmptySelector = errors.New("empty version selector")

// Parse creates the Selector matching the given notation:
//
//	[1.0,2.0)  ]1.0,2.0]  (,2.0]  [1.0,)   version ranges
//	1.+  1.2+  +                            prefix selectors
//	latest.release  latest.integration     status selectors
//	^1.2  ~1.2.3  >= 1.0, < 2.0            semantic version constraints
//	1.0                                     exact versions
func Parse(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptySelector
	}
	switch {
	case isRange(s):
		return NewRangeSelector(s, DefaultComparator)
	case strings.HasSuffix(s, "+"):
		return NewPrefixSelector(s), nil
	case strings.HasPrefix(s, latestPrefix):
		return NewLatestSelector(s)
	case isSemverConstraint(s):
		return NewSemverConstraintSelector(s)
	}
	return NewExactSelector(s), nil
}

// MustParse is Parse that panics on invalid input. It is meant for static selectors.
func MustParse(s string) Selector {
	sel, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("invalid version selector %q: %v", s, err))
	}
	return sel
}

// ExactSelector accepts exactly one version string.
type ExactSelector struct {
	version string
}

var _ Selector = ExactSelector{}

// NewExactSelector creates a selector that only accepts the given version.
func NewExactSelector(version string) ExactSelector {
	return ExactSelector{version: version}
}

func (s ExactSelector) IsDynamic() bool            { return false }
func (s ExactSelector) RequiresMetadata() bool     { return false }
func (s ExactSelector) MatchesUniqueVersion() bool { return true }
func (s ExactSelector) Accept(candidate string) bool {
	return candidate == s.version
}
func (s ExactSelector) AcceptMetadata(candidate MetadataView) bool {
	return s.Accept(candidate.ComponentVersion())
}
func (s ExactSelector) Selector() string { return s.version }
func (s ExactSelector) String() string   { return s.version }

// PrefixSelector accepts all versions starting with a prefix, written as "1.+".
// A bare "+" accepts every version.
type PrefixSelector struct {
	selector string
	prefix   string
}

var _ Selector = PrefixSelector{}

// NewPrefixSelector creates a selector from a notation ending with '+'.
func NewPrefixSelector(selector string) PrefixSelector {
	return PrefixSelector{selector: selector, prefix: strings.TrimSuffix(selector, "+")}
}

func (s PrefixSelector) IsDynamic() bool            { return true }
func (s PrefixSelector) RequiresMetadata() bool     { return false }
func (s PrefixSelector) MatchesUniqueVersion() bool { return false }
func (s PrefixSelector) Accept(candidate string) bool {
	return strings.HasPrefix(candidate, s.prefix)
}
func (s PrefixSelector) AcceptMetadata(candidate MetadataView) bool {
	return s.Accept(candidate.ComponentVersion())
}
func (s PrefixSelector) Selector() string { return s.selector }
func (s PrefixSelector) String() string   { return s.selector }

const latestPrefix = "latest."

// LatestSelector accepts candidates whose status is at least as mature as the requested
// one, e.g. "latest.release". It can only judge candidates by their metadata.
type LatestSelector struct {
	status string
}

var _ Selector = LatestSelector{}

// NewLatestSelector creates a selector from a "latest.<status>" notation.
func NewLatestSelector(selector string) (LatestSelector, error) {
	status, ok := strings.CutPrefix(selector, latestPrefix)
	if !ok || status == "" {
		return LatestSelector{}, fmt.Errorf("invalid latest selector %q", selector)
	}
	return LatestSelector{status: status}, nil
}

// Status is the minimum status accepted.
func (s LatestSelector) Status() string { return s.status }

func (s LatestSelector) IsDynamic() bool            { return true }
func (s LatestSelector) RequiresMetadata() bool     { return true }
func (s LatestSelector) MatchesUniqueVersion() bool { return false }

// Accept always rejects since the status of a candidate is only known from its metadata.
func (s LatestSelector) Accept(string) bool { return false }

func (s LatestSelector) AcceptMetadata(candidate MetadataView) bool {
	scheme := candidate.ComponentStatusScheme()
	if len(scheme) == 0 {
		scheme = DefaultStatusScheme
	}
	requested := indexOf(scheme, s.status)
	return requested >= 0 && requested <= indexOf(scheme, candidate.ComponentStatus())
}

func (s LatestSelector) Selector() string { return latestPrefix + s.status }
func (s LatestSelector) String() string   { return s.Selector() }

func indexOf(values []string, v string) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return -1
}

// UnionSelector accepts a candidate if any of its members does. It is used to express
// a list of rejected versions.
type UnionSelector []Selector

var _ Selector = UnionSelector{}

// Union combines several selectors.
func Union(selectors ...Selector) UnionSelector {
	return UnionSelector(selectors)
}

func (u UnionSelector) IsDynamic() bool {
	for _, s := range u {
		if s.IsDynamic() {
			return true
		}
	}
	return false
}

func (u UnionSelector) RequiresMetadata() bool {
	for _, s := range u {
		if s.RequiresMetadata() {
			return true
		}
	}
	return false
}

func (u UnionSelector) MatchesUniqueVersion() bool {
	return len(u) == 1 && u[0].MatchesUniqueVersion()
}

func (u UnionSelector) Accept(candidate string) bool {
	for _, s := range u {
		if s.Accept(candidate) {
			return true
		}
	}
	return false
}

func (u UnionSelector) AcceptMetadata(candidate MetadataView) bool {
	for _, s := range u {
		if s.AcceptMetadata(candidate) {
			return true
		}
	}
	return false
}

func (u UnionSelector) Selector() string {
	parts := make([]string, 0, len(u))
	for _, s := range u {
		parts = append(parts, s.Selector())
	}
	return strings.Join(parts, " | ")
}

func (u UnionSelector) String() string { return u.Selector() }
