// Package caching provides the repository decorator answering local requests from the
// caches and writing the results of remote requests back into them.
package caching

import (
	"context"
	"log/slog"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository"
)

// Listener is notified whenever a cached value that may change over time is used,
// so that callers relying on it know when their results may become stale.
type Listener interface {
	OnDynamicVersionSelection(selector coordinate.Selector, expiry cache.Expiry, versions []string)
	OnChangingModuleResolve(id coordinate.Component, expiry cache.Expiry)
}

type noopListener struct{}

func (noopListener) OnDynamicVersionSelection(coordinate.Selector, cache.Expiry, []string) {}
func (noopListener) OnChangingModuleResolve(coordinate.Component, cache.Expiry)            {}

// Options configures the caching decorator.
type Options struct {
	// Caches to read from and write to. Defaults to in-memory caches.
	Caches *cache.Caches
	// Policy decides whether cache entries may be used. Defaults to cache.NewDefaultPolicy.
	Policy cache.Policy
	// TimeProvider computes the age of cache entries. Defaults to the time of creation.
	TimeProvider cache.TimeProvider
	// Processor applies component metadata rules to metadata. Defaults to no rules.
	Processor metadata.Processor
	// Listener is notified about the use of changing values.
	Listener Listener
}

// Option modifies Options.
type Option func(*Options)

// WithCaches sets the caches.
func WithCaches(caches *cache.Caches) Option {
	return func(o *Options) { o.Caches = caches }
}

// WithPolicy sets the expiry policy.
func WithPolicy(policy cache.Policy) Option {
	return func(o *Options) { o.Policy = policy }
}

// WithTimeProvider sets the time provider.
func WithTimeProvider(tp cache.TimeProvider) Option {
	return func(o *Options) { o.TimeProvider = tp }
}

// WithProcessor sets the metadata processor.
func WithProcessor(p metadata.Processor) Option {
	return func(o *Options) { o.Processor = p }
}

// WithListener sets the listener.
func WithListener(l Listener) Option {
	return func(o *Options) { o.Listener = l }
}

// Repository is the caching decorator.
type Repository struct {
	delegate repository.Repository
	caches   *cache.Caches
	policy   cache.Policy
	time     cache.TimeProvider
	process  metadata.Processor
	listener Listener

	local  *localAccess
	remote *remoteAccess
}

var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.Wrapper    = (*Repository)(nil)
)

// New wraps delegate with caching.
func New(delegate repository.Repository, opts ...Option) *Repository {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.TimeProvider == nil {
		options.TimeProvider = cache.NewBuildCommenced(time.Now())
	}
	if options.Caches == nil {
		options.Caches = cache.New(options.TimeProvider)
	}
	if options.Policy == nil {
		options.Policy = cache.NewDefaultPolicy()
	}
	if options.Processor == nil {
		options.Processor = metadata.NewProcessor()
	}
	if options.Listener == nil {
		options.Listener = noopListener{}
	}

	r := &Repository{
		delegate: delegate,
		caches:   options.Caches,
		policy:   options.Policy,
		time:     options.TimeProvider,
		process:  options.Processor,
		listener: options.Listener,
	}
	r.local = &localAccess{Repository: r}
	r.remote = &remoteAccess{Repository: r}
	return r
}

func (r *Repository) ID() string                    { return r.delegate.ID() }
func (r *Repository) Name() string                  { return r.delegate.Name() }
func (r *Repository) Local() repository.Access      { return r.local }
func (r *Repository) Remote() repository.Access     { return r.remote }
func (r *Repository) Unwrap() repository.Repository { return r.delegate }

func (r *Repository) log(ctx context.Context) *slog.Logger {
	return slogcontext.FromCtx(ctx).With(slog.String("realm", "resolution"), slog.String("repository", r.Name()))
}

// processedMetadata applies the metadata rules to a cached entry, memoizing the result per
// rules hash, and attaches the sources of this repository.
func (r *Repository) processedMetadata(ctx context.Context, entry *cache.CachedMetadata, override repository.Override) (*metadata.Metadata, error) {
	rulesHash := r.process.RulesHash()
	processed, ok := entry.ProcessedMetadata(rulesHash)
	if !ok {
		var err error
		if processed, err = r.process.Process(ctx, entry.Metadata); err != nil {
			return nil, err
		}
		entry.PutProcessedMetadata(rulesHash, processed)
	}

	changing := override.Changing || processed.Changing
	if changing && !processed.Changing {
		processed = processed.WithChanging()
	}
	return processed.WithSources(metadata.NewSources(
		metadata.RepositorySource{RepositoryID: r.ID(), RepositoryName: r.Name()},
		metadata.DescriptorHashSource{Hash: entry.DescriptorHash, Changing: changing},
	)), nil
}

func descriptorHashSource(sources metadata.Sources) metadata.DescriptorHashSource {
	src, _ := metadata.Find[metadata.DescriptorHashSource](sources)
	return src
}
