package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SemverConstraintSelector accepts semantic versions satisfying a constraint such as
// "^1.2" or ">= 1.0, < 2.0". Candidates that are not valid semantic versions are rejected.
type SemverConstraintSelector struct {
	selector    string
	constraints *semver.Constraints
}

var _ Selector = SemverConstraintSelector{}

func isSemverConstraint(s string) bool {
	return strings.ContainsAny(s[:1], "^~<>=!") || strings.Contains(s, "||")
}

// NewSemverConstraintSelector parses a semantic version constraint.
func NewSemverConstraintSelector(selector string) (SemverConstraintSelector, error) {
	c, err := semver.NewConstraint(selector)
	if err != nil {
		return SemverConstraintSelector{}, fmt.Errorf("invalid semantic version constraint %q: %w", selector, err)
	}
	return SemverConstraintSelector{selector: selector, constraints: c}, nil
}

func (s SemverConstraintSelector) IsDynamic() bool            { return true }
func (s SemverConstraintSelector) RequiresMetadata() bool     { return false }
func (s SemverConstraintSelector) MatchesUniqueVersion() bool { return false }

func (s SemverConstraintSelector) Accept(candidate string) bool {
	v, err := semver.NewVersion(candidate)
	if err != nil {
		return false
	}
	return s.constraints.Check(v)
}

func (s SemverConstraintSelector) AcceptMetadata(candidate MetadataView) bool {
	return s.Accept(candidate.ComponentVersion())
}

func (s SemverConstraintSelector) Selector() string { return s.selector }
func (s SemverConstraintSelector) String() string   { return s.selector }
