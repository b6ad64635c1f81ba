// Package config contains the configuration of a resolution session.
//
// Configuration is read from YAML or JSON documents of type
// resolution.config.ocm.software/v1alpha1:
//
//	type: resolution.config.ocm.software/v1alpha1
//	repositories:
//	- name: central
//	  type: http
//	  location: https://repo.example.com/maven
//	  excludes: ["com.internal"]
//	retry:
//	  maxTentatives: 5
//	  initialBackoff: 500ms
//	cache:
//	  dir: ~/.cache/ocm-resolve
//	  dynamicVersions: 1h
//	rules:
//	- name: no-snapshots
//	  expression: candidate.version.endsWith("-SNAPSHOT")
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"
)

const (
	// ConfigType defines the type identifier of resolution configurations.
	ConfigType = "resolution.config.ocm.software"
	// Version of the configuration format.
	Version = "v1alpha1"
)

// Environment variables overriding the retry configuration.
const (
	EnvMaxTentatives = "OCM_RESOLUTION_MAX_TENTATIVES"
	// EnvInitialBackoff is given in milliseconds.
	EnvInitialBackoff = "OCM_RESOLUTION_INITIAL_BACKOFF"
)

// Repository types.
const (
	RepositoryTypeFileSystem = "filesystem"
	RepositoryTypeHTTP       = "http"
)

// Defaults applied when no value is configured.
var (
	DefaultMaxTentatives  = 3
	DefaultInitialBackoff = Duration(time.Second)
)

// Config is the configuration of a resolution session.
type Config struct {
	Type string `json:"type"`

	// Repositories are searched in order.
	Repositories []Repository `json:"repositories,omitempty"`
	Retry        *Retry       `json:"retry,omitempty"`
	Cache        *Cache       `json:"cache,omitempty"`
	// Offline answers all requests from the cache.
	Offline bool `json:"offline,omitempty"`
	// Refresh ignores cache entries not verified within the session.
	Refresh bool `json:"refresh,omitempty"`
	// Rules reject candidate versions during dynamic version selection.
	Rules []Rule `json:"rules,omitempty"`
}

// Repository configures one repository of the chain.
type Repository struct {
	Name string `json:"name"`
	// Type is either filesystem or http.
	Type     string `json:"type"`
	Location string `json:"location"`
	// Includes and Excludes are content filter patterns of the form group[:name[:version]].
	Includes []string `json:"includes,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
	// DynamicResolve replaces Ivy dependency versions by their declared dynamic constraints.
	DynamicResolve bool `json:"dynamicResolve,omitempty"`
	// Verification of downloaded artifacts, disabled if not set.
	Verification *Verification `json:"verification,omitempty"`
}

// Verification configures artifact verification.
type Verification struct {
	// Strict rejects artifacts without a recorded digest.
	Strict bool `json:"strict,omitempty"`
}

// Retry configures the handling of failing repositories.
type Retry struct {
	MaxTentatives  int       `json:"maxTentatives,omitempty"`
	InitialBackoff *Duration `json:"initialBackoff,omitempty"`
}

// Cache configures the persistent caches and their expiry.
type Cache struct {
	// Dir persists caches on disk. Caches are kept in memory if not set.
	Dir             string    `json:"dir,omitempty"`
	DynamicVersions *Duration `json:"dynamicVersions,omitempty"`
	ChangingModules *Duration `json:"changingModules,omitempty"`
	MissingModules  *Duration `json:"missingModules,omitempty"`
}

// Rule is a CEL expression rejecting the candidates it evaluates to true for.
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Reason     string `json:"reason,omitempty"`
}

// New creates an empty configuration.
func New() *Config {
	return &Config{Type: ConfigType + "/" + Version}
}

// Decode decodes a YAML or JSON configuration.
func Decode(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(fs vfs.FileSystem, path string) (*Config, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("unable to read configuration %q: %w", path, err)
	}
	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the type and the repositories of the configuration.
func (c *Config) Validate() error {
	var errs []error
	switch c.Type {
	case ConfigType, ConfigType + "/" + Version:
	default:
		errs = append(errs, fmt.Errorf("unsupported configuration type %q, expected %s/%s", c.Type, ConfigType, Version))
	}

	names := map[string]struct{}{}
	for i, repo := range c.Repositories {
		if repo.Name == "" {
			errs = append(errs, fmt.Errorf("repository %d: name is required", i))
		} else if _, ok := names[repo.Name]; ok {
			errs = append(errs, fmt.Errorf("repository %d: duplicate name %q", i, repo.Name))
		}
		names[repo.Name] = struct{}{}
		switch repo.Type {
		case RepositoryTypeFileSystem, RepositoryTypeHTTP:
		default:
			errs = append(errs, fmt.Errorf("repository %q: unsupported type %q", repo.Name, repo.Type))
		}
		if repo.Location == "" {
			errs = append(errs, fmt.Errorf("repository %q: location is required", repo.Name))
		}
	}

	for i, rule := range c.Rules {
		if rule.Name == "" || rule.Expression == "" {
			errs = append(errs, fmt.Errorf("rule %d: name and expression are required", i))
		}
	}
	if c.Retry != nil && c.Retry.MaxTentatives < 0 {
		errs = append(errs, errors.New("retry: maxTentatives must not be negative"))
	}
	return errors.Join(errs...)
}

// MaxTentatives returns the configured number of attempts per request.
func (c *Config) MaxTentatives() int {
	if c.Retry == nil || c.Retry.MaxTentatives == 0 {
		return DefaultMaxTentatives
	}
	return c.Retry.MaxTentatives
}

// InitialBackoff returns the configured backoff before the first retry.
func (c *Config) InitialBackoff() time.Duration {
	if c.Retry == nil || c.Retry.InitialBackoff == nil {
		return DefaultInitialBackoff.Value()
	}
	return c.Retry.InitialBackoff.Value()
}

// ApplyEnvironment overrides the retry configuration with the values of
// EnvMaxTentatives and EnvInitialBackoff.
func (c *Config) ApplyEnvironment() error {
	return c.ApplyLookup(os.LookupEnv)
}

// ApplyLookup is ApplyEnvironment with a custom lookup function.
func (c *Config) ApplyLookup(lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvMaxTentatives); ok && strings.TrimSpace(value) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value %q for %s: must be a positive number", value, EnvMaxTentatives)
		}
		c.retry().MaxTentatives = n
	}
	if value, ok := lookup(EnvInitialBackoff); ok && strings.TrimSpace(value) != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || ms < 0 {
			return fmt.Errorf("invalid value %q for %s: must be a number of milliseconds", value, EnvInitialBackoff)
		}
		c.retry().InitialBackoff = NewDuration(time.Duration(ms) * time.Millisecond)
	}
	return nil
}

func (c *Config) retry() *Retry {
	if c.Retry == nil {
		c.Retry = &Retry{}
	}
	return c.Retry
}
