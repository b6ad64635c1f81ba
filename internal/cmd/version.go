package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/resolution/internal/flags/enum"
)

const (
	FormatFlag            = "format"
	FormatFlagJSON        = "json"
	FormatFlagGoBuildInfo = "gobuildinfo"
)

// BuildVersion is set at build time.
var BuildVersion = "n/a"

// VersionInfo is the version printed in json format.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Revision  string `json:"revision,omitempty"`
}

func NewVersion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Retrieve the version of ocm-resolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := enum.Get(cmd.Flags(), FormatFlag)
			if err != nil {
				return err
			}
			info, ok := debug.ReadBuildInfo()
			if !ok {
				return errors.New("no build info available")
			}
			if BuildVersion != "n/a" {
				info.Main.Version = BuildVersion
			}
			switch format {
			case FormatFlagGoBuildInfo:
				_, err = io.Copy(cmd.OutOrStdout(), strings.NewReader(info.String()))
				return err
			default:
				v := VersionInfo{Version: info.Main.Version, GoVersion: info.GoVersion}
				for _, setting := range info.Settings {
					if setting.Key == "vcs.revision" {
						v.Revision = setting.Value
					}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
			}
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	enum.Var(cmd.Flags(), FormatFlag, []string{FormatFlagJSON, FormatFlagGoBuildInfo}, "format of the version information")
	return cmd
}
