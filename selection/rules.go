package selection

import (
	"context"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
)

// Needs declares the inputs a rule requires besides the candidate id.
type Needs uint8

const (
	// NeedsMetadata requires the resolved metadata of the candidate.
	NeedsMetadata Needs = 1 << iota
	// NeedsIvyDescriptor requires the Ivy descriptor of the candidate.
	NeedsIvyDescriptor
)

// Verdict is the decision of a rule.
type Verdict struct {
	Rejected bool
	Reason   string
}

// Accept keeps the candidate.
func Accept() Verdict { return Verdict{} }

// Reject rejects the candidate for the given reason.
func Reject(reason string) Verdict { return Verdict{Rejected: true, Reason: reason} }

// CandidateView is what a rule can see of a candidate. Metadata and the Ivy descriptor
// are only fetched when asked for.
type CandidateView interface {
	ID() coordinate.Component
	Metadata(ctx context.Context) (*metadata.Metadata, bool)
	IvyDescriptor(ctx context.Context) (*metadata.IvyDescriptor, bool)
}

// Rule is a component selection rule.
type Rule struct {
	Name string
	// Needs declares the inputs of the rule. Rules are skipped for candidates whose
	// inputs are not available.
	Needs Needs
	// Applies restricts the rule to some modules. Nil applies the rule to all modules.
	Applies  func(coordinate.Module) bool
	Evaluate func(ctx context.Context, candidate CandidateView) (Verdict, error)
}

func (r Rule) appliesTo(m coordinate.Module) bool {
	return r.Applies == nil || r.Applies(m)
}

// RejectVersions is a rule rejecting the given versions of a module.
func RejectVersions(module coordinate.Module, reason string, versions ...string) Rule {
	return Rule{
		Name:    "reject " + module.String(),
		Applies: func(m coordinate.Module) bool { return m == module },
		Evaluate: func(_ context.Context, c CandidateView) (Verdict, error) {
			for _, v := range versions {
				if c.ID().Version == v {
					return Reject(reason), nil
				}
			}
			return Accept(), nil
		},
	}
}

type candidateView struct {
	id       coordinate.Component
	metadata *metadataProvider
}

func (v candidateView) ID() coordinate.Component { return v.id }

func (v candidateView) Metadata(ctx context.Context) (*metadata.Metadata, bool) {
	return v.metadata.usable(ctx)
}

func (v candidateView) IvyDescriptor(ctx context.Context) (*metadata.IvyDescriptor, bool) {
	m, ok := v.metadata.usable(ctx)
	if !ok || m.Ivy == nil {
		return nil, false
	}
	return m.Ivy, true
}

// available reports whether the inputs of the rule can be provided for the candidate.
func (v candidateView) available(ctx context.Context, needs Needs) bool {
	if needs&NeedsIvyDescriptor != 0 {
		_, ok := v.IvyDescriptor(ctx)
		return ok
	}
	if needs&NeedsMetadata != 0 {
		_, ok := v.Metadata(ctx)
		return ok
	}
	return true
}
