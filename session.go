// Package resolution assembles repositories and resolvers of the dependency resolution
// engine into a Session.
//
// A session fixes the time cached entries are aged against, owns the caches and the
// registry of disabled repositories and builds every repository as a stack of
// decorators around a layout repository:
//
//	error handling -> filtering -> offline -> verifying -> caching -> dynamic resolve -> layout
package resolution

import (
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/disabler"
	"ocm.software/open-component-model/resolution/metadata"
	"ocm.software/open-component-model/resolution/repository/errorhandling"
)

var logger = slog.With(slog.String("realm", "resolution"))

// Options configures a Session.
type Options struct {
	// TimeProvider ages cache entries. Defaults to the time the session was created.
	TimeProvider cache.TimeProvider
	// FileSystem and CacheDir persist caches. Caches are kept in memory if FileSystem is nil.
	FileSystem vfs.FileSystem
	CacheDir   string
	// Policy decides whether cache entries may be used. Defaults to cache.NewDefaultPolicy.
	Policy *cache.DefaultPolicy
	// Processor applies component metadata rules.
	Processor metadata.Processor
	// Offline answers all requests from the caches.
	Offline bool
	// Refresh ignores cache entries not verified within the session.
	Refresh bool
	// Retry configures the error handling of every repository.
	Retry []errorhandling.Option
}

// Option modifies Options.
type Option func(*Options)

// WithTimeProvider sets the time provider.
func WithTimeProvider(tp cache.TimeProvider) Option {
	return func(o *Options) { o.TimeProvider = tp }
}

// WithCacheDir persists caches in dir of fs.
func WithCacheDir(fs vfs.FileSystem, dir string) Option {
	return func(o *Options) {
		o.FileSystem = fs
		o.CacheDir = dir
	}
}

// WithPolicy sets the cache expiry policy.
func WithPolicy(policy *cache.DefaultPolicy) Option {
	return func(o *Options) { o.Policy = policy }
}

// WithProcessor sets the component metadata rules processor.
func WithProcessor(p metadata.Processor) Option {
	return func(o *Options) { o.Processor = p }
}

// WithOffline enables offline mode.
func WithOffline(offline bool) Option {
	return func(o *Options) { o.Offline = offline }
}

// WithRefresh enables refresh mode.
func WithRefresh(refresh bool) Option {
	return func(o *Options) { o.Refresh = refresh }
}

// WithRetry adds error handling options.
func WithRetry(opts ...errorhandling.Option) Option {
	return func(o *Options) { o.Retry = append(o.Retry, opts...) }
}

// Session is the scope of one resolution run.
type Session struct {
	time      cache.TimeProvider
	caches    *cache.Caches
	policy    *cache.DefaultPolicy
	processor metadata.Processor
	disabler  *disabler.Registry
	offline   bool
	retry     []errorhandling.Option
	changing  *ChangingValues
}

// NewSession creates a session.
func NewSession(opts ...Option) *Session {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.TimeProvider == nil {
		options.TimeProvider = cache.NewBuildCommenced(time.Now())
	}
	if options.Policy == nil {
		options.Policy = cache.NewDefaultPolicy()
	}
	if options.Processor == nil {
		options.Processor = metadata.NewProcessor()
	}
	policy := *options.Policy
	policy.Offline = policy.Offline || options.Offline
	policy.Refresh = policy.Refresh || options.Refresh

	var cacheOpts []cache.Option
	if options.FileSystem != nil {
		cacheOpts = append(cacheOpts, cache.WithFileSystem(options.FileSystem, options.CacheDir))
	}

	logger.Debug("created session",
		slog.Bool("offline", options.Offline),
		slog.Bool("refresh", options.Refresh),
		slog.String("cache", options.CacheDir))

	return &Session{
		time:      options.TimeProvider,
		caches:    cache.New(options.TimeProvider, cacheOpts...),
		policy:    &policy,
		processor: options.Processor,
		disabler:  disabler.New(),
		offline:   options.Offline,
		retry:     options.Retry,
		changing:  &ChangingValues{},
	}
}

// Caches returns the caches shared by all repositories of the session.
func (s *Session) Caches() *cache.Caches { return s.caches }

// Disabler returns the registry of repositories disabled during the session.
func (s *Session) Disabler() *disabler.Registry { return s.disabler }

// ChangingValues returns the changing values used from the caches during the session.
func (s *Session) ChangingValues() *ChangingValues { return s.changing }
