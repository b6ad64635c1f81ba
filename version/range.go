package version

import (
	"fmt"
	"strings"
)

// RangeSelector accepts versions within an interval, written in the usual bracket
// notation. '[' and ']' mark inclusive bounds, '(' and ')' as well as outward facing
// brackets mark exclusive bounds, and an empty bound is unbounded:
//
//	[1.0,2.0)  1.0 <= v < 2.0
//	]1.0,2.0]  1.0 <  v <= 2.0
//	(,2.0]     v <= 2.0
//	[1.0,)     v >= 1.0
type RangeSelector struct {
	selector       string
	lower          string
	lowerInclusive bool
	upper          string
	upperInclusive bool
	comparator     Comparator
}

var _ Selector = RangeSelector{}

func isRange(s string) bool {
	if len(s) < 3 || !strings.Contains(s, ",") {
		return false
	}
	return strings.ContainsAny(s[:1], "[](") && strings.ContainsAny(s[len(s)-1:], "[])")
}

// NewRangeSelector parses a range notation.
func NewRangeSelector(selector string, comparator Comparator) (RangeSelector, error) {
	if !isRange(selector) {
		return RangeSelector{}, fmt.Errorf("invalid version range %q", selector)
	}
	if comparator == nil {
		comparator = DefaultComparator
	}
	lower, upper, _ := strings.Cut(selector[1:len(selector)-1], ",")
	if strings.Contains(upper, ",") {
		return RangeSelector{}, fmt.Errorf("invalid version range %q: too many bounds", selector)
	}
	r := RangeSelector{
		selector:       selector,
		lower:          strings.TrimSpace(lower),
		lowerInclusive: selector[0] == '[',
		upper:          strings.TrimSpace(upper),
		upperInclusive: selector[len(selector)-1] == ']',
		comparator:     comparator,
	}
	if r.lower == "" && r.upper == "" {
		return RangeSelector{}, fmt.Errorf("invalid version range %q: no bounds", selector)
	}
	if r.lower != "" && r.upper != "" {
		c := comparator.Compare(r.lower, r.upper)
		if c > 0 || (c == 0 && !(r.lowerInclusive && r.upperInclusive)) {
			return RangeSelector{}, fmt.Errorf("invalid version range %q: empty interval", selector)
		}
	}
	return r, nil
}

// Lower returns the lower bound and whether it is inclusive. An empty bound is unbounded.
func (r RangeSelector) Lower() (string, bool) { return r.lower, r.lowerInclusive }

// Upper returns the upper bound and whether it is inclusive. An empty bound is unbounded.
func (r RangeSelector) Upper() (string, bool) { return r.upper, r.upperInclusive }

func (r RangeSelector) IsDynamic() bool        { return true }
func (r RangeSelector) RequiresMetadata() bool { return false }

func (r RangeSelector) MatchesUniqueVersion() bool {
	return r.lower != "" && r.lower == r.upper
}

func (r RangeSelector) Accept(candidate string) bool {
	if r.lower != "" {
		c := r.comparator.Compare(candidate, r.lower)
		if c < 0 || (c == 0 && !r.lowerInclusive) {
			return false
		}
	}
	if r.upper != "" {
		c := r.comparator.Compare(candidate, r.upper)
		if c > 0 || (c == 0 && !r.upperInclusive) {
			return false
		}
	}
	return true
}

func (r RangeSelector) AcceptMetadata(candidate MetadataView) bool {
	return r.Accept(candidate.ComponentVersion())
}

func (r RangeSelector) Selector() string { return r.selector }
func (r RangeSelector) String() string   { return r.selector }
