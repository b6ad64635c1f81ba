// Package errorhandling provides the repository decorator retrying failed requests and
// disabling repositories that keep failing.
//
// A request failing with a transient error is retried up to MaxTentatives times with an
// exponential backoff. If it keeps failing, or fails with a permanent error, the repository
// is disabled for the rest of the session and every later request fails immediately with a
// repository.DisabledError wrapping the original failure.
package errorhandling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	slogcontext "github.com/veqryn/slog-context"
	"k8s.io/apimachinery/pkg/util/wait"

	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/disabler"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/metrics"
	"ocm.software/open-component-model/resolution/repository"
)

const (
	// DefaultMaxTentatives is the default number of attempts per request.
	DefaultMaxTentatives = 3
	// DefaultInitialBackoff is the default wait time before the first retry. It doubles with every retry.
	DefaultInitialBackoff = time.Second
)

// Options configures the error handling decorator.
type Options struct {
	MaxTentatives  int
	InitialBackoff time.Duration
	Classifier     Classifier
}

// Option modifies Options.
type Option func(*Options)

// WithMaxTentatives sets the number of attempts per request.
func WithMaxTentatives(n int) Option {
	return func(o *Options) { o.MaxTentatives = n }
}

// WithInitialBackoff sets the wait time before the first retry.
func WithInitialBackoff(d time.Duration) Option {
	return func(o *Options) { o.InitialBackoff = d }
}

// WithClassifier sets the failure classifier.
func WithClassifier(c Classifier) Option {
	return func(o *Options) { o.Classifier = c }
}

// Repository is the error handling decorator.
type Repository struct {
	delegate repository.Repository
	disabler disabler.Disabler
	options  Options

	local, remote *access
}

var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.Wrapper    = (*Repository)(nil)
)

// New wraps delegate. Disabled repositories are recorded in d.
func New(delegate repository.Repository, d disabler.Disabler, opts ...Option) *Repository {
	options := Options{
		MaxTentatives:  DefaultMaxTentatives,
		InitialBackoff: DefaultInitialBackoff,
		Classifier:     DefaultClassifier,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxTentatives < 1 {
		options.MaxTentatives = 1
	}
	r := &Repository{delegate: delegate, disabler: d, options: options}
	r.local = &access{Repository: r, delegate: delegate.Local()}
	r.remote = &access{Repository: r, delegate: delegate.Remote()}
	return r
}

func (r *Repository) ID() string                    { return r.delegate.ID() }
func (r *Repository) Name() string                  { return r.delegate.Name() }
func (r *Repository) Local() repository.Access      { return r.local }
func (r *Repository) Remote() repository.Access     { return r.remote }
func (r *Repository) Unwrap() repository.Repository { return r.delegate }

type access struct {
	*Repository
	delegate repository.Access
}

var _ repository.Access = (*access)(nil)

func (a *access) ListModuleVersions(ctx context.Context, selector coordinate.Selector, override repository.Override) repository.VersionListResult {
	return perform(ctx, a.Repository, "list", "list versions of "+selector.Module.String(), func(ctx context.Context) repository.VersionListResult {
		return a.delegate.ListModuleVersions(ctx, selector, override)
	})
}

func (a *access) ResolveComponentMetadata(ctx context.Context, id coordinate.Component, override repository.Override) repository.MetadataResult {
	return perform(ctx, a.Repository, "metadata", "resolve "+id.String(), func(ctx context.Context) repository.MetadataResult {
		return a.delegate.ResolveComponentMetadata(ctx, id, override)
	})
}

func (a *access) ResolveArtifactsWithType(ctx context.Context, component *metadata.Metadata, artifactType string) repository.ArtifactSetResult {
	return perform(ctx, a.Repository, "artifacts", fmt.Sprintf("resolve %s artifacts of %s", artifactType, component.ID), func(ctx context.Context) repository.ArtifactSetResult {
		return a.delegate.ResolveArtifactsWithType(ctx, component, artifactType)
	})
}

func (a *access) ResolveArtifact(ctx context.Context, artifact metadata.ComponentArtifact, sources metadata.Sources) repository.ArtifactResult {
	return perform(ctx, a.Repository, "artifact", "download "+artifact.ID.String(), func(ctx context.Context) repository.ArtifactResult {
		return a.delegate.ResolveArtifact(ctx, artifact, sources)
	})
}

func (a *access) EstimateMetadataFetchingCost(ctx context.Context, id coordinate.Component) repository.Cost {
	return a.delegate.EstimateMetadataFetchingCost(ctx, id)
}

func perform[T any](ctx context.Context, r *Repository, op, description string, call func(context.Context) repository.Result[T]) repository.Result[T] {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", "resolution"), slog.String("repository", r.Name()))

	if cause, disabled := r.disabler.Cause(r.ID()); disabled {
		return repository.Failed[T](&repository.DisabledError{Repository: r.Name(), Cause: cause})
	}

	var (
		result   repository.Result[T]
		attempts int
	)
	backoff := wait.Backoff{
		Duration: r.options.InitialBackoff,
		Factor:   2,
		Steps:    r.options.MaxTentatives,
	}
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempts++
		result = call(ctx)
		if result.State() != repository.StateFailed {
			return true, nil
		}
		switch r.options.Classifier(result.Err()) {
		case Propagate:
			return true, nil
		case Transient:
			if attempts < r.options.MaxTentatives {
				metrics.RetryCounterTotal.WithLabelValues(r.ID(), op).Inc()
				logger.DebugContext(ctx, "request failed, retrying",
					slog.String("operation", description),
					slog.Int("attempt", attempts),
					slog.String("error", result.Err().Error()))
			}
			return false, nil
		default:
			return false, result.Err()
		}
	})
	if err == nil {
		return result
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return repository.Failed[T](fmt.Errorf("could not %s from repository %s: interrupted: %w", description, r.Name(), ctxErr))
	}

	cause := result.Err()
	if cause == nil {
		cause = err
	}
	if outcome := r.disabler.TryDisable(r.ID(), cause); outcome == disabler.NewlyDisabled {
		logger.WarnContext(ctx, "disabling repository after failure",
			slog.String("operation", description),
			slog.Int("attempts", attempts),
			slog.String("error", cause.Error()))
	}
	return repository.Failed[T](fmt.Errorf("could not %s from repository %s: %w", description, r.Name(), cause)).
		WithAttempted(result.Attempted()...)
}
