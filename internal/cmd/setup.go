package cmd

import (
	"fmt"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"ocm.software/open-component-model/resolution"
	"ocm.software/open-component-model/resolution/config"
)

// loadConfig reads the configuration file and applies environment and flag overrides.
func loadConfig(cmd *cobra.Command, fs vfs.FileSystem) (*config.Config, error) {
	flags := cmd.Flags()
	path, err := flags.GetString(ConfigFlag)
	if err != nil {
		return nil, err
	}
	cfg := config.New()
	if path != "" {
		if cfg, err = config.Load(fs, path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnvironment(); err != nil {
		return nil, err
	}

	repos, err := flags.GetStringArray(RepositoryFlag)
	if err != nil {
		return nil, err
	}
	for _, repo := range repos {
		name, location, ok := strings.Cut(repo, "=")
		if !ok || name == "" || location == "" {
			return nil, fmt.Errorf("invalid repository %q, expected name=location", repo)
		}
		typ := config.RepositoryTypeFileSystem
		if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
			typ = config.RepositoryTypeHTTP
		}
		cfg.Repositories = append(cfg.Repositories, config.Repository{Name: name, Type: typ, Location: location})
	}

	if dir, err := flags.GetString(CacheDirFlag); err != nil {
		return nil, err
	} else if dir != "" {
		if cfg.Cache == nil {
			cfg.Cache = &config.Cache{}
		}
		cfg.Cache.Dir = dir
	}
	if offline, err := flags.GetBool(OfflineFlag); err != nil {
		return nil, err
	} else if offline {
		cfg.Offline = true
	}
	if refresh, err := flags.GetBool(RefreshFlag); err != nil {
		return nil, err
	} else if refresh {
		cfg.Refresh = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Repositories) == 0 {
		return nil, fmt.Errorf("no repositories configured, use --%s or --%s", ConfigFlag, RepositoryFlag)
	}
	return cfg, nil
}

// newResolver sets up a session and a resolver for the configured repositories.
func newResolver(cmd *cobra.Command) (*resolution.Session, *resolution.Resolver, error) {
	fs := osfs.New()
	cfg, err := loadConfig(cmd, fs)
	if err != nil {
		return nil, nil, err
	}
	session := resolution.NewSessionFromConfig(cfg, fs)
	res, err := session.NewResolverFromConfig(cfg, fs)
	if err != nil {
		return nil, nil, err
	}
	return session, res, nil
}
