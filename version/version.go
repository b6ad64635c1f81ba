// Package version implements parsing, ordering and matching of version strings.
//
// Versions are not required to follow semantic versioning. A version is split
// into parts at '.', '-', '_' and '+' as well as at every transition between
// digits and letters, so "1.0rc1" consists of the parts 1, 0, rc and 1.
// Parts are compared pairwise: numeric parts numerically, a numeric part is
// always newer than a textual part, and textual parts are compared
// lexicographically except for a set of well-known qualifiers that carry an
// explicit order:
//
//	dev < (any other qualifier) < rc < snapshot < final < ga < release < sp
package version

import (
	"slices"
	"strings"
)

// Version is a parsed version string.
type Version struct {
	source string
	parts  []string
}

// NewVersion splits the given string into its comparable parts.
func NewVersion(s string) Version {
	parts := make([]string, 0, 4)
	start := 0
	digit := false
	for pos := 0; pos < len(s); pos++ {
		ch := s[pos]
		switch {
		case ch == '.' || ch == '_' || ch == '-' || ch == '+':
			parts = append(parts, s[start:pos])
			start = pos + 1
			digit = false
		case ch >= '0' && ch <= '9':
			if !digit && pos > start {
				parts = append(parts, s[start:pos])
				start = pos
			}
			digit = true
		default:
			if digit {
				parts = append(parts, s[start:pos])
				start = pos
			}
			digit = false
		}
	}
	if len(s) > start {
		parts = append(parts, s[start:])
	}
	return Version{source: s, parts: parts}
}

func (v Version) String() string {
	return v.source
}

// Parts returns the parts the version was split into.
func (v Version) Parts() []string {
	return slices.Clone(v.parts)
}

// IsQualified reports whether any part of the version is not numeric, as in "1.0-rc1".
func (v Version) IsQualified() bool {
	for _, p := range v.parts {
		if !isNumeric(p) {
			return true
		}
	}
	return false
}

// BaseVersion is the leading numeric portion of the version, e.g. "1.2" for "1.2-SNAPSHOT".
func (v Version) BaseVersion() string {
	var numeric []string
	for _, p := range v.parts {
		if !isNumeric(p) {
			break
		}
		numeric = append(numeric, p)
	}
	if len(numeric) == 0 {
		return v.source
	}
	return strings.Join(numeric, ".")
}

var qualifierOrder = map[string]int{
	"dev":      -1,
	"rc":       1,
	"snapshot": 2,
	"final":    3,
	"ga":       4,
	"release":  5,
	"sp":       6,
}

// Compare returns a negative number if a is older than b, a positive number if a is newer
// and zero if both are considered equal.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	return CompareVersions(NewVersion(a), NewVersion(b))
}

// CompareVersions compares two parsed versions, see Compare.
func CompareVersions(v1, v2 Version) int {
	p1, p2 := v1.parts, v2.parts
	n := min(len(p1), len(p2))
	for i := range n {
		a, b := p1[i], p2[i]
		if a == b {
			continue
		}
		aNum, bNum := isNumeric(a), isNumeric(b)
		switch {
		case aNum && !bNum:
			return 1
		case bNum && !aNum:
			return -1
		case aNum && bNum:
			if c := compareNumeric(a, b); c != 0 {
				return c
			}
			continue
		}
		q1, ok1 := qualifierOrder[strings.ToLower(a)]
		q2, ok2 := qualifierOrder[strings.ToLower(b)]
		switch {
		case ok1:
			return q1 - q2
		case ok2:
			return -q2
		}
		return strings.Compare(a, b)
	}
	switch {
	case len(p1) > len(p2):
		return trailingOrder(p1[n])
	case len(p2) > len(p1):
		return -trailingOrder(p2[n])
	}
	return 0
}

// trailingOrder decides how a version with an extra part relates to the shorter one:
// 1.0.1 is newer than 1.0, while 1.0-rc1 and 1.0-dev are older.
func trailingOrder(part string) int {
	if isNumeric(part) {
		return 1
	}
	return -1
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Comparator orders version strings.
type Comparator interface {
	Compare(a, b string) int
}

// ComparatorFunc adapts a function to a Comparator.
type ComparatorFunc func(a, b string) int

func (f ComparatorFunc) Compare(a, b string) int { return f(a, b) }

// DefaultComparator orders versions with Compare.
var DefaultComparator Comparator = ComparatorFunc(Compare)

// SortLatestFirst sorts the given versions newest first. Versions comparing equal keep
// their relative order.
func SortLatestFirst(versions []string, cmp Comparator) {
	if cmp == nil {
		cmp = DefaultComparator
	}
	slices.SortStableFunc(versions, func(a, b string) int {
		return cmp.Compare(b, a)
	})
}
