// Package resolver searches the chain of repositories for components and artifacts.
//
// Repositories are searched in two passes. The first pass answers from the local access
// points where possible and only asks a remote access point if the local one knew
// nothing. Only if that produced no result, a second pass asks the remote access points
// of the repositories whose local answer was not authoritative.
package resolver

import (
	"log/slog"

	"ocm.software/open-component-model/resolution/selection"
)

var logger = slog.With(slog.String("realm", "resolution"))

// Options configures the resolvers.
type Options struct {
	Chooser *selection.Chooser
	// Schema of the consumer attributes. Nil compares attributes for equality.
	Schema *selection.Schema
	// Rules are component selection rules applied to candidates of dynamic selectors.
	Rules []selection.Rule
}

// Option modifies Options.
type Option func(*Options)

// WithChooser sets the chooser.
func WithChooser(c *selection.Chooser) Option {
	return func(o *Options) { o.Chooser = c }
}

// WithAttributeSchema sets the attribute schema.
func WithAttributeSchema(s *selection.Schema) Option {
	return func(o *Options) { o.Schema = s }
}

// WithRules adds component selection rules.
func WithRules(rules ...selection.Rule) Option {
	return func(o *Options) { o.Rules = append(o.Rules, rules...) }
}

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Chooser == nil {
		o.Chooser = selection.NewChooser(nil)
	}
	return o
}
