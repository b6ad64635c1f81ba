// Package selection chooses the component version satisfying a request among the
// candidates found in the repositories.
package selection

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/version"
)

// Candidate is a version of a module found while resolving a dynamic selector.
type Candidate interface {
	ID() coordinate.Component
	// ResolveMetadata resolves the metadata of the candidate. It is only called if the
	// metadata is needed to judge the candidate.
	ResolveMetadata(ctx context.Context) repository.MetadataResult
}

// Request describes what the selected component has to satisfy.
type Request struct {
	Selector version.Selector
	// Reject rejects matching candidates. Optional.
	Reject version.Selector
	// Attributes requested by the consumer. Candidates declaring incompatible values are rejected.
	Attributes map[string]string
	Schema     *Schema
	Rules      []Rule
	// Filter restricts the candidates to the content of a repository. Optional.
	Filter repository.ContentFilter
}

// Outcome of a selection.
type Outcome int

const (
	// NoMatch means no candidate satisfied the request.
	NoMatch Outcome = iota
	// Matched means a candidate was selected.
	Matched
	// Failed means the metadata of a candidate could not be resolved.
	Failed
	// Unresolved means the metadata of a candidate was needed but is not available without
	// asking further, e.g. the remote access point of the repository.
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Failed:
		return "failed"
	case Unresolved:
		return "unresolved"
	default:
		return "no match"
	}
}

// RejectionCause tells why a candidate was rejected.
type RejectionCause int

const (
	RejectedBySelector RejectionCause = iota
	RejectedByRule
	RejectedByAttributes
)

func (c RejectionCause) String() string {
	switch c {
	case RejectedByRule:
		return "rule"
	case RejectedByAttributes:
		return "attributes"
	default:
		return "selector"
	}
}

// Rejection records a rejected candidate.
type Rejection struct {
	ID     coordinate.Component
	Cause  RejectionCause
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s rejected by %s: %s", r.ID.Version, r.Cause, r.Reason)
}

// Result of a selection.
type Result struct {
	Outcome Outcome
	// Match is the selected candidate.
	Match Candidate
	// Metadata of the selected candidate, if it was resolved during selection.
	Metadata *metadata.Metadata
	// Err is the failure of a Failed selection.
	Err error
	// Attempted are the locations searched for candidate metadata.
	Attempted []string
	// Unmatched are the candidate versions not accepted by the selector.
	Unmatched  []string
	Rejections []Rejection
}

// RejectedBySelector reports whether a candidate was rejected by the reject selector.
func (r *Result) RejectedBySelector() bool {
	return slices.ContainsFunc(r.Rejections, func(rej Rejection) bool { return rej.Cause == RejectedBySelector })
}

// Chooser selects component versions.
type Chooser struct {
	comparator version.Comparator
}

// NewChooser creates a chooser ordering versions with cmp. A nil comparator uses version.DefaultComparator.
func NewChooser(cmp version.Comparator) *Chooser {
	if cmp == nil {
		cmp = version.DefaultComparator
	}
	return &Chooser{comparator: cmp}
}

// SelectNewestComponent returns the newer of two resolved components. Of two components
// with the same version the one with a descriptor wins. Either may be nil.
func (c *Chooser) SelectNewestComponent(one, two *metadata.Metadata) *metadata.Metadata {
	if one == nil || two == nil {
		if one == nil {
			return two
		}
		return one
	}
	switch cmp := c.comparator.Compare(one.ID.Version, two.ID.Version); {
	case cmp > 0:
		return one
	case cmp < 0:
		return two
	}
	if one.Missing && !two.Missing {
		return two
	}
	return one
}

// SelectNewestMatchingComponent returns the newest candidate satisfying the request.
//
// Candidates are judged newest first. Metadata is only resolved if the selector, the
// consumer attributes or a rule need it. If the selector matches a unique version,
// the search stops at the first candidate rejected by a rule.
func (c *Chooser) SelectNewestMatchingComponent(ctx context.Context, candidates []Candidate, req Request) Result {
	var result Result
	for _, candidate := range c.sortLatestFirst(candidates) {
		id := candidate.ID()
		if req.Filter != nil && !req.Filter.AllowsComponent(id) {
			continue
		}
		provider := &metadataProvider{candidate: candidate}

		matches := c.versionMatches(ctx, req.Selector, id, provider)
		if provider.notUsable() {
			provider.applyTo(&result)
			return result
		}
		if !matches {
			result.Unmatched = append(result.Unmatched, id.Version)
			continue
		}

		if mismatches := c.attributeMismatches(ctx, req, provider); len(mismatches) > 0 {
			reasons := make([]string, 0, len(mismatches))
			for _, m := range mismatches {
				reasons = append(reasons, m.String())
			}
			result.Rejections = append(result.Rejections, Rejection{ID: id, Cause: RejectedByAttributes, Reason: strings.Join(reasons, ", ")})
			continue
		}

		if req.Reject != nil && req.Reject.Accept(id.Version) {
			result.Rejections = append(result.Rejections, Rejection{ID: id, Cause: RejectedBySelector, Reason: "rejected version " + req.Reject.Selector()})
			continue
		}

		verdict, err := c.applyRules(ctx, req.Rules, candidateView{id: id, metadata: provider})
		if err != nil {
			result.Outcome = Failed
			result.Err = fmt.Errorf("could not apply component selection rules to %s: %w", id, err)
			return result
		}
		if verdict.Rejected {
			result.Rejections = append(result.Rejections, Rejection{ID: id, Cause: RejectedByRule, Reason: verdict.Reason})
			if req.Selector.MatchesUniqueVersion() {
				break
			}
			continue
		}

		result.Outcome = Matched
		result.Match = candidate
		if m, ok := provider.resolved(); ok {
			result.Metadata = m
		}
		return result
	}
	result.Outcome = NoMatch
	return result
}

func (c *Chooser) sortLatestFirst(candidates []Candidate) []Candidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return c.comparator.Compare(b.ID().Version, a.ID().Version)
	})
	return sorted
}

func (c *Chooser) versionMatches(ctx context.Context, selector version.Selector, id coordinate.Component, provider *metadataProvider) bool {
	if !selector.RequiresMetadata() {
		return selector.Accept(id.Version)
	}
	m, ok := provider.usable(ctx)
	return ok && selector.AcceptMetadata(m)
}

func (c *Chooser) attributeMismatches(ctx context.Context, req Request, provider *metadataProvider) []Mismatch {
	if len(req.Attributes) == 0 {
		return nil
	}
	m, ok := provider.usable(ctx)
	if !ok {
		return nil
	}
	return req.Schema.Mismatches(req.Attributes, m.Attributes)
}

// applyRules runs the rules without inputs first. Rules with inputs only run if none of
// those rejected the candidate, and are skipped if their inputs are not available.
func (c *Chooser) applyRules(ctx context.Context, rules []Rule, view candidateView) (Verdict, error) {
	var withInputs []Rule
	for _, rule := range rules {
		if rule.Needs != 0 {
			withInputs = append(withInputs, rule)
			continue
		}
		if verdict, err := c.applyRule(ctx, rule, view); err != nil || verdict.Rejected {
			return verdict, err
		}
	}
	for _, rule := range withInputs {
		if verdict, err := c.applyRule(ctx, rule, view); err != nil || verdict.Rejected {
			return verdict, err
		}
	}
	return Accept(), nil
}

func (c *Chooser) applyRule(ctx context.Context, rule Rule, view candidateView) (Verdict, error) {
	if !rule.appliesTo(view.id.Module) || !view.available(ctx, rule.Needs) {
		return Accept(), nil
	}
	verdict, err := rule.Evaluate(ctx, view)
	if err != nil {
		return Verdict{}, fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	if verdict.Rejected && verdict.Reason == "" {
		verdict.Reason = "rejected by rule " + rule.Name
	}
	return verdict, nil
}

// metadataProvider resolves the metadata of a candidate on first use.
type metadataProvider struct {
	candidate Candidate
	fetched   bool
	result    repository.MetadataResult
}

func (p *metadataProvider) resolve(ctx context.Context) repository.MetadataResult {
	if !p.fetched {
		p.result = p.candidate.ResolveMetadata(ctx)
		p.fetched = true
	}
	return p.result
}

func (p *metadataProvider) usable(ctx context.Context) (*metadata.Metadata, bool) {
	p.resolve(ctx)
	return p.resolved()
}

func (p *metadataProvider) resolved() (*metadata.Metadata, bool) {
	if !p.fetched || p.result.State() != repository.StateResolved || p.result.Value() == nil {
		return nil, false
	}
	return p.result.Value(), true
}

// notUsable reports whether metadata was needed but could not be resolved.
// Missing metadata is usable: the candidate simply does not match.
func (p *metadataProvider) notUsable() bool {
	if !p.fetched {
		return false
	}
	state := p.result.State()
	return state == repository.StateUnknown || state == repository.StateFailed
}

func (p *metadataProvider) applyTo(result *Result) {
	result.Attempted = append(result.Attempted, p.result.Attempted()...)
	if p.result.State() == repository.StateFailed {
		result.Outcome = Failed
		result.Err = p.result.Err()
		return
	}
	result.Outcome = Unresolved
}
