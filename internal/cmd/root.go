// Package cmd implements the ocm-resolve command line.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/resolution/internal/log"
)

const (
	ConfigFlag     = "config"
	RepositoryFlag = "repository"
	CacheDirFlag   = "cache-dir"
	OfflineFlag    = "offline"
	RefreshFlag    = "refresh"
)

// Execute runs the root command and exits on failure.
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

// New creates the root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocm-resolve [sub-command]",
		Short: "Resolve components against a chain of repositories",
		Long: `ocm-resolve resolves dependency selectors such as com.example:lib:1.+ to
  component versions by searching a chain of repositories, and fetches their
  artifacts. Lookups are cached, so later runs can work offline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: setupLogging,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringP(ConfigFlag, "c", "", "configuration file of type resolution.config.ocm.software/v1alpha1")
	cmd.PersistentFlags().StringArray(RepositoryFlag, nil, `additional repository as name=location, appended to the configured ones. Locations starting with http:// or https:// are read over HTTP, others from the file system`)
	cmd.PersistentFlags().String(CacheDirFlag, "", "directory to persist caches in, overriding the configuration")
	cmd.PersistentFlags().Bool(OfflineFlag, false, "answer all requests from the caches")
	cmd.PersistentFlags().Bool(RefreshFlag, false, "ignore cache entries from earlier runs")
	log.RegisterLoggingFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewResolve())
	cmd.AddCommand(NewFetch())
	cmd.AddCommand(NewVersion())
	return cmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	cmd.SetContext(slogcontext.NewCtx(cmd.Context(), logger))
	return nil
}
