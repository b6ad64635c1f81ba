package selection

import (
	"fmt"
	"slices"

	"ocm.software/open-component-model/resolution/version"
)

// CompatibilityRule decides whether a candidate attribute value satisfies the requested value.
type CompatibilityRule func(requested, candidate string) bool

// Equal is the default compatibility rule.
func Equal(requested, candidate string) bool {
	return requested == candidate
}

// UpTo accepts candidates with a value not newer than the requested one, e.g. for
// runtime versions a consumer supports.
func UpTo(requested, candidate string) bool {
	return version.Compare(candidate, requested) <= 0
}

// Schema holds the compatibility rules of attributes. Attributes without a rule are
// compared with Equal. A nil Schema compares every attribute with Equal.
type Schema struct {
	rules map[string]CompatibilityRule
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{rules: map[string]CompatibilityRule{}}
}

// WithRule registers the compatibility rule of an attribute.
func (s *Schema) WithRule(attribute string, rule CompatibilityRule) *Schema {
	s.rules[attribute] = rule
	return s
}

func (s *Schema) rule(attribute string) CompatibilityRule {
	if s != nil {
		if r, ok := s.rules[attribute]; ok {
			return r
		}
	}
	return Equal
}

// Mismatch describes an attribute a candidate is incompatible with.
type Mismatch struct {
	Attribute string
	Requested string
	Found     string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("attribute '%s': required '%s', found '%s'", m.Attribute, m.Requested, m.Found)
}

// Mismatches returns the requested attributes the candidate attributes are incompatible
// with, sorted by attribute name. Attributes the candidate does not declare are compatible.
func (s *Schema) Mismatches(requested, candidate map[string]string) []Mismatch {
	var mismatches []Mismatch
	for attribute, want := range requested {
		got, ok := candidate[attribute]
		if !ok {
			continue
		}
		if !s.rule(attribute)(want, got) {
			mismatches = append(mismatches, Mismatch{Attribute: attribute, Requested: want, Found: got})
		}
	}
	slices.SortFunc(mismatches, func(a, b Mismatch) int {
		switch {
		case a.Attribute < b.Attribute:
			return -1
		case a.Attribute > b.Attribute:
			return 1
		}
		return 0
	})
	return mismatches
}
