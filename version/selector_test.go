package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/version"
)

type meta struct {
	version string
	status  string
	scheme  []string
}

func (m meta) ComponentVersion() string        { return m.version }
func (m meta) ComponentStatus() string         { return m.status }
func (m meta) ComponentStatusScheme() []string { return m.scheme }

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		kind     any
		dynamic  bool
		metadata bool
		unique   bool
	}{
		{in: "1.0", kind: version.ExactSelector{}, unique: true},
		{in: "1.+", kind: version.PrefixSelector{}, dynamic: true},
		{in: "+", kind: version.PrefixSelector{}, dynamic: true},
		{in: "[1.0,2.0)", kind: version.RangeSelector{}, dynamic: true},
		{in: "[1.0,1.0]", kind: version.RangeSelector{}, dynamic: true, unique: true},
		{in: "latest.release", kind: version.LatestSelector{}, dynamic: true, metadata: true},
		{in: "^1.2", kind: version.SemverConstraintSelector{}, dynamic: true},
		{in: ">= 1.0, < 2.0", kind: version.SemverConstraintSelector{}, dynamic: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			sel, err := version.Parse(tc.in)
			require.NoError(t, err)
			assert.IsType(t, tc.kind, sel)
			assert.Equal(t, tc.dynamic, sel.IsDynamic())
			assert.Equal(t, tc.metadata, sel.RequiresMetadata())
			assert.Equal(t, tc.unique, sel.MatchesUniqueVersion())
			assert.Equal(t, tc.in, sel.Selector())
		})
	}

	for _, invalid := range []string{"", "latest.", "[2.0,1.0]", "(,)", "^not-a-version"} {
		t.Run("invalid "+invalid, func(t *testing.T) {
			_, err := version.Parse(invalid)
			assert.Error(t, err)
		})
	}
}

func TestRangeSelectorAccept(t *testing.T) {
	cases := []struct {
		selector string
		accepted []string
		rejected []string
	}{
		{"[1.0,2.0)", []string{"1.0", "1.5", "1.99"}, []string{"0.9", "2.0", "2.1"}},
		{"]1.0,2.0]", []string{"1.0.1", "2.0"}, []string{"1.0", "2.0.1"}},
		{"(,2.0]", []string{"0.1", "2.0"}, []string{"2.1"}},
		{"[1.0,)", []string{"1.0", "99"}, []string{"0.9"}},
		{"]1.0,2.0[", []string{"1.5"}, []string{"1.0", "2.0"}},
	}
	for _, tc := range cases {
		t.Run(tc.selector, func(t *testing.T) {
			sel := version.MustParse(tc.selector)
			for _, v := range tc.accepted {
				assert.True(t, sel.Accept(v), "expected %s to accept %s", tc.selector, v)
			}
			for _, v := range tc.rejected {
				assert.False(t, sel.Accept(v), "expected %s to reject %s", tc.selector, v)
			}
		})
	}
}

func TestPrefixSelector(t *testing.T) {
	sel := version.MustParse("1.+")
	assert.True(t, sel.Accept("1.0"))
	assert.True(t, sel.Accept("1.10"))
	assert.False(t, sel.Accept("2.0"))
	assert.False(t, sel.Accept("10.0"))
	assert.True(t, version.MustParse("+").Accept("anything"))
}

func TestLatestSelector(t *testing.T) {
	sel := version.MustParse("latest.milestone")
	assert.False(t, sel.Accept("1.0"))
	assert.True(t, sel.AcceptMetadata(meta{version: "1.0", status: "release"}))
	assert.True(t, sel.AcceptMetadata(meta{version: "1.0", status: "milestone"}))
	assert.False(t, sel.AcceptMetadata(meta{version: "1.0", status: "integration"}))
	assert.False(t, sel.AcceptMetadata(meta{version: "1.0", status: "release", scheme: []string{"alpha", "release"}}))
	assert.True(t, version.MustParse("latest.alpha").AcceptMetadata(meta{version: "1.0", status: "release", scheme: []string{"alpha", "release"}}))
}

func TestSemverConstraintSelector(t *testing.T) {
	sel := version.MustParse("^1.2")
	assert.True(t, sel.Accept("1.2.0"))
	assert.True(t, sel.Accept("1.9"))
	assert.False(t, sel.Accept("2.0.0"))
	assert.False(t, sel.Accept("not.a.version"))
}

func TestUnionSelector(t *testing.T) {
	sel := version.Union(version.MustParse("1.0"), version.MustParse("[2.0,3.0)"))
	assert.True(t, sel.Accept("1.0"))
	assert.True(t, sel.Accept("2.5"))
	assert.False(t, sel.Accept("1.5"))
	assert.Equal(t, "1.0 | [2.0,3.0)", sel.Selector())
	assert.True(t, version.Union(version.MustParse("1.0")).MatchesUniqueVersion())
}
