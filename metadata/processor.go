package metadata

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
)

// Rule adjusts metadata after it was read from a repository, e.g. to fix a wrong
// status or add missing dependencies. Rules operate on a private copy.
type Rule struct {
	// Name identifies the rule. Together with Params it is part of the rules hash, so
	// changing either invalidates processed metadata that was memoized before.
	Name   string
	Params map[string]string
	Apply  func(ctx context.Context, m *Metadata) error
}

// Processor applies component metadata rules.
type Processor interface {
	Process(ctx context.Context, m *Metadata) (*Metadata, error)
	// RulesHash identifies the set of rules the processor applies.
	RulesHash() string
}

// RuleProcessor applies an ordered list of rules.
type RuleProcessor struct {
	rules []Rule

	hashOnce sync.Once
	hash     string
}

var _ Processor = (*RuleProcessor)(nil)

// NewProcessor creates a processor applying the given rules in order.
func NewProcessor(rules ...Rule) *RuleProcessor {
	return &RuleProcessor{rules: rules}
}

func (p *RuleProcessor) Process(ctx context.Context, m *Metadata) (*Metadata, error) {
	if len(p.rules) == 0 {
		return m, nil
	}
	processed := m.Clone()
	for _, rule := range p.rules {
		if err := rule.Apply(ctx, processed); err != nil {
			return nil, fmt.Errorf("metadata rule %q failed for %s: %w", rule.Name, m.ID, err)
		}
	}
	// rules may not change the identity of the component
	processed.ID = m.ID
	return processed, nil
}

func (p *RuleProcessor) RulesHash() string {
	p.hashOnce.Do(func() {
		type ruleKey struct {
			Name   string            `json:"name"`
			Params map[string]string `json:"params,omitempty"`
		}
		keys := make([]ruleKey, 0, len(p.rules))
		for _, r := range p.rules {
			keys = append(keys, ruleKey{Name: r.Name, Params: r.Params})
		}
		data, err := CanonicalJSON(keys)
		if err != nil {
			// names and string maps always encode
			panic(err)
		}
		p.hash = digest.FromBytes(data).Encoded()
	})
	return p.hash
}
