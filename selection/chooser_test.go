package selection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/repository/filtering"
	"ocm.software/open-component-model/resolution/selection"
	"ocm.software/open-component-model/resolution/version"
)

var module = coordinate.NewModule("com.x", "lib")

type candidate struct {
	id     coordinate.Component
	result repository.MetadataResult
	calls  int
}

func (c *candidate) ID() coordinate.Component { return c.id }

func (c *candidate) ResolveMetadata(context.Context) repository.MetadataResult {
	c.calls++
	return c.result
}

func resolved(v, status string, attributes map[string]string) *candidate {
	id := coordinate.Component{Module: module, Version: v}
	return &candidate{id: id, result: repository.Resolved(&metadata.Metadata{ID: id, Status: status, Attributes: attributes})}
}

func candidates(cs ...*candidate) []selection.Candidate {
	out := make([]selection.Candidate, 0, len(cs))
	for _, c := range cs {
		out = append(out, c)
	}
	return out
}

func TestSelectNewestComponent(t *testing.T) {
	chooser := selection.NewChooser(nil)
	v10 := &metadata.Metadata{ID: coordinate.Component{Module: module, Version: "1.0"}}
	v10missing := &metadata.Metadata{ID: coordinate.Component{Module: module, Version: "1.0"}, Missing: true}
	v11 := &metadata.Metadata{ID: coordinate.Component{Module: module, Version: "1.1"}}

	assert.Same(t, v10, chooser.SelectNewestComponent(v10missing, v10), "descriptor wins on equal versions")
	assert.Same(t, v10, chooser.SelectNewestComponent(v10, v10missing))
	assert.Same(t, v11, chooser.SelectNewestComponent(v10, v11))
	assert.Same(t, v11, chooser.SelectNewestComponent(v11, v10missing))
	assert.Same(t, v10, chooser.SelectNewestComponent(nil, v10))
	assert.Same(t, v10, chooser.SelectNewestComponent(v10, nil))
}

func TestNewestMatchingVersionWins(t *testing.T) {
	v09, v10, v11, v20 := resolved("0.9", "", nil), resolved("1.0", "", nil), resolved("1.1", "", nil), resolved("2.0", "", nil)
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(v10, v20, v09, v11), selection.Request{
		Selector: version.MustParse("1.+"),
	})
	require.Equal(t, selection.Matched, result.Outcome)
	assert.Equal(t, "1.1", result.Match.ID().Version)
	assert.Equal(t, []string{"2.0"}, result.Unmatched, "older versions are never looked at")
	assert.Nil(t, result.Metadata)
	for _, c := range []*candidate{v09, v10, v11, v20} {
		assert.Zero(t, c.calls, "metadata is not needed to match %s", c.id.Version)
	}
}

func TestUniqueSelectorStopsAtRuleRejection(t *testing.T) {
	v09, v10, v20 := resolved("0.9", "", nil), resolved("1.0", "", nil), resolved("2.0", "", nil)
	evaluated := 0
	rule := selection.Rule{
		Name: "no 1.0",
		Evaluate: func(_ context.Context, c selection.CandidateView) (selection.Verdict, error) {
			evaluated++
			if c.ID().Version == "1.0" {
				return selection.Reject("broken release"), nil
			}
			return selection.Accept(), nil
		},
	}
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(v09, v10, v20), selection.Request{
		Selector: version.MustParse("1.0"),
		Rules:    []selection.Rule{rule},
	})
	assert.Equal(t, selection.NoMatch, result.Outcome)
	assert.Equal(t, []string{"2.0"}, result.Unmatched, "0.9 is never looked at")
	require.Len(t, result.Rejections, 1)
	assert.Equal(t, selection.RejectedByRule, result.Rejections[0].Cause)
	assert.Equal(t, "broken release", result.Rejections[0].Reason)
	assert.Equal(t, 1, evaluated)
}

func TestRuleRejectionContinuesForRanges(t *testing.T) {
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(),
		candidates(resolved("1.1", "", nil), resolved("1.2", "", nil)),
		selection.Request{
			Selector: version.MustParse("1.+"),
			Rules:    []selection.Rule{selection.RejectVersions(module, "known bug", "1.2")},
		})
	require.Equal(t, selection.Matched, result.Outcome)
	assert.Equal(t, "1.1", result.Match.ID().Version)
	require.Len(t, result.Rejections, 1)
	assert.Equal(t, "1.2 rejected by rule: known bug", result.Rejections[0].String())
}

func TestSelectorRequiringMetadata(t *testing.T) {
	v11, v12 := resolved("1.1", "release", nil), resolved("1.2", "integration", nil)
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(v11, v12), selection.Request{
		Selector: version.MustParse("latest.release"),
	})
	require.Equal(t, selection.Matched, result.Outcome)
	assert.Equal(t, "1.1", result.Match.ID().Version)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "release", result.Metadata.Status)
	assert.Equal(t, []string{"1.2"}, result.Unmatched)
	assert.Equal(t, 1, v12.calls)
	assert.Equal(t, 1, v11.calls)
}

func TestUnusableMetadata(t *testing.T) {
	id := coordinate.Component{Module: module, Version: "1.2"}
	older := resolved("1.1", "release", nil)

	failing := &candidate{id: id, result: repository.Failed[*metadata.Metadata](errors.New("boom"))}
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(older, failing), selection.Request{
		Selector: version.MustParse("latest.release"),
	})
	assert.Equal(t, selection.Failed, result.Outcome)
	assert.EqualError(t, result.Err, "boom")

	unknown := &candidate{id: id, result: repository.Unknown[*metadata.Metadata]()}
	result = selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(older, unknown), selection.Request{
		Selector: version.MustParse("latest.release"),
	})
	assert.Equal(t, selection.Unresolved, result.Outcome)
	assert.Zero(t, older.calls, "search stops at the unresolved candidate")

	missing := &candidate{id: id, result: repository.Missing[*metadata.Metadata]().WithAttempted("repo/1.2")}
	result = selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(older, missing), selection.Request{
		Selector: version.MustParse("latest.release"),
	})
	require.Equal(t, selection.Matched, result.Outcome, "missing metadata does not match but does not stop the search")
	assert.Equal(t, "1.1", result.Match.ID().Version)
	assert.Equal(t, []string{"1.2"}, result.Unmatched)
}

func TestAttributeMismatch(t *testing.T) {
	schema := selection.NewSchema().WithRule("jvm", selection.UpTo)
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(),
		candidates(
			resolved("1.2", "", map[string]string{"jvm": "17", "os": "linux"}),
			resolved("1.1", "", map[string]string{"jvm": "8"}),
		),
		selection.Request{
			Selector:   version.MustParse("1.+"),
			Attributes: map[string]string{"jvm": "11", "os": "linux"},
			Schema:     schema,
		})
	require.Equal(t, selection.Matched, result.Outcome)
	assert.Equal(t, "1.1", result.Match.ID().Version)
	require.Len(t, result.Rejections, 1)
	assert.Equal(t, selection.RejectedByAttributes, result.Rejections[0].Cause)
	assert.Equal(t, "attribute 'jvm': required '11', found '17'", result.Rejections[0].Reason)
}

func TestRejectSelectorAndContentFilter(t *testing.T) {
	filter, err := filtering.NewContentDescriptor(nil, []string{"com.x:lib:1.3"})
	require.NoError(t, err)
	v13 := resolved("1.3", "", nil)
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(),
		candidates(resolved("1.1", "", nil), resolved("1.2", "", nil), v13),
		selection.Request{
			Selector: version.MustParse("1.+"),
			Reject:   version.MustParse("1.2"),
			Filter:   filter,
		})
	require.Equal(t, selection.Matched, result.Outcome)
	assert.Equal(t, "1.1", result.Match.ID().Version)
	assert.True(t, result.RejectedBySelector())
	assert.Empty(t, result.Unmatched, "filtered versions are not candidates")
}

func TestRulesWithoutInputsRunFirst(t *testing.T) {
	var order []string
	record := func(name string, needs selection.Needs, verdict selection.Verdict) selection.Rule {
		return selection.Rule{
			Name:  name,
			Needs: needs,
			Evaluate: func(context.Context, selection.CandidateView) (selection.Verdict, error) {
				order = append(order, name)
				return verdict, nil
			},
		}
	}
	v12 := resolved("1.2", "", nil)
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(v12), selection.Request{
		Selector: version.MustParse("1.+"),
		Rules: []selection.Rule{
			record("metadata", selection.NeedsMetadata, selection.Accept()),
			record("plain", 0, selection.Reject("")),
		},
	})
	assert.Equal(t, selection.NoMatch, result.Outcome)
	assert.Equal(t, []string{"plain"}, order)
	assert.Zero(t, v12.calls, "metadata is not fetched when a plain rule already rejected")
	assert.Equal(t, "rejected by rule plain", result.Rejections[0].Reason)

	order = nil
	result = selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(v12), selection.Request{
		Selector: version.MustParse("1.+"),
		Rules: []selection.Rule{
			record("ivy", selection.NeedsIvyDescriptor, selection.Reject("no ivy")),
			record("metadata", selection.NeedsMetadata, selection.Accept()),
		},
	})
	require.Equal(t, selection.Matched, result.Outcome)
	assert.Equal(t, []string{"metadata"}, order, "rules are skipped if their inputs are unavailable")
	assert.NotNil(t, result.Metadata)
}

func TestRuleErrorsFailSelection(t *testing.T) {
	result := selection.NewChooser(nil).SelectNewestMatchingComponent(t.Context(), candidates(resolved("1.2", "", nil)), selection.Request{
		Selector: version.MustParse("1.+"),
		Rules: []selection.Rule{{
			Name: "broken",
			Evaluate: func(context.Context, selection.CandidateView) (selection.Verdict, error) {
				return selection.Verdict{}, errors.New("boom")
			},
		}},
	})
	assert.Equal(t, selection.Failed, result.Outcome)
	assert.ErrorContains(t, result.Err, "rule broken: boom")
}
