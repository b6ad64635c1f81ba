package resolution

import (
	"errors"
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/config"
	"ocm.software/open-component-model/resolution/layout"
	"ocm.software/open-component-model/resolution/repository"
	"ocm.software/open-component-model/resolution/repository/errorhandling"
	"ocm.software/open-component-model/resolution/repository/filtering"
	"ocm.software/open-component-model/resolution/resolver"
	"ocm.software/open-component-model/resolution/selection"
	"ocm.software/open-component-model/resolution/verification"
)

// NewSessionFromConfig creates a session configured by cfg. Caches and file system
// repositories are located on fs.
func NewSessionFromConfig(cfg *config.Config, fs vfs.FileSystem, opts ...Option) *Session {
	policy := cache.NewDefaultPolicy()
	options := []Option{
		WithOffline(cfg.Offline),
		WithRefresh(cfg.Refresh),
		WithRetry(
			errorhandling.WithMaxTentatives(cfg.MaxTentatives()),
			errorhandling.WithInitialBackoff(cfg.InitialBackoff()),
		),
		WithPolicy(policy),
	}
	if c := cfg.Cache; c != nil {
		if c.Dir != "" {
			options = append(options, WithCacheDir(fs, c.Dir))
		}
		if c.DynamicVersions != nil {
			policy.DynamicVersionsTTL = c.DynamicVersions.Value()
		}
		if c.ChangingModules != nil {
			policy.ChangingModulesTTL = c.ChangingModules.Value()
		}
		if c.MissingModules != nil {
			policy.MissingModulesTTL = c.MissingModules.Value()
		}
	}
	return NewSession(append(options, opts...)...)
}

// RepositoriesFromConfig assembles the configured repositories in order.
func (s *Session) RepositoriesFromConfig(cfg *config.Config, fs vfs.FileSystem, httpOpts ...layout.HTTPOption) ([]repository.Repository, error) {
	repos := make([]repository.Repository, 0, len(cfg.Repositories))
	var errs []error
	for _, rc := range cfg.Repositories {
		spec, err := s.repositorySpec(rc, fs, httpOpts)
		if err != nil {
			errs = append(errs, fmt.Errorf("repository %q: %w", rc.Name, err))
			continue
		}
		repos = append(repos, s.NewRepository(spec))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return repos, nil
}

func (s *Session) repositorySpec(rc config.Repository, fs vfs.FileSystem, httpOpts []layout.HTTPOption) (RepositorySpec, error) {
	spec := RepositorySpec{Name: rc.Name, DynamicResolve: rc.DynamicResolve}

	switch rc.Type {
	case config.RepositoryTypeFileSystem:
		spec.Transport = layout.NewFileSystemTransport(fs, rc.Location)
	case config.RepositoryTypeHTTP:
		transport, err := layout.NewHTTPTransport(rc.Location, httpOpts...)
		if err != nil {
			return spec, err
		}
		spec.Transport = transport
	default:
		return spec, fmt.Errorf("unsupported type %q", rc.Type)
	}

	if len(rc.Includes) > 0 || len(rc.Excludes) > 0 {
		filter, err := filtering.NewContentDescriptor(rc.Includes, rc.Excludes)
		if err != nil {
			return spec, err
		}
		spec.Filter = filter
	}

	if rc.Verification != nil {
		verifier := verification.NewDigestVerifier(s.caches.FileStore)
		verifier.Strict = rc.Verification.Strict
		spec.Verifier = verifier
	}
	return spec, nil
}

// RulesFromConfig compiles the configured selection rules.
func RulesFromConfig(cfg *config.Config) ([]selection.Rule, error) {
	rules := make([]selection.Rule, 0, len(cfg.Rules))
	var errs []error
	for _, rc := range cfg.Rules {
		rule, err := selection.CELRule(rc.Name, rc.Expression, rc.Reason)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rules, nil
}

// NewResolverFromConfig creates a resolver over the configured repositories applying
// the configured rules.
func (s *Session) NewResolverFromConfig(cfg *config.Config, fs vfs.FileSystem, httpOpts ...layout.HTTPOption) (*Resolver, error) {
	repos, err := s.RepositoriesFromConfig(cfg, fs, httpOpts...)
	if err != nil {
		return nil, err
	}
	rules, err := RulesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return s.NewResolver(repos, resolver.WithRules(rules...)), nil
}
