package cmd

import (
	"errors"
	"fmt"
	"path"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"ocm.software/open-component-model/resolution"
)

const (
	TypeFlag      = "type"
	OutputDirFlag = "output-dir"
)

func NewFetch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch {group:name:version}...",
		Short: "Resolve dependency selectors and download the artifacts of the components",
		Args:  cobra.MinimumNArgs(1),
		Example: `  # Download the jar of the newest 1.x version
  ocm-resolve fetch --repository local=./layout com.example:lib:1.+ --type jar --output-dir ./libs`,
		RunE:              runFetch,
		DisableAutoGenTag: true,
	}
	cmd.Flags().String(TypeFlag, "", "artifact type to fetch, all artifacts if empty")
	cmd.Flags().String(OutputDirFlag, ".", "directory to copy the artifacts to")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	artifactType, err := cmd.Flags().GetString(TypeFlag)
	if err != nil {
		return err
	}
	outputDir, err := cmd.Flags().GetString(OutputDirFlag)
	if err != nil {
		return err
	}

	session, res, err := newResolver(cmd)
	if err != nil {
		return err
	}
	target := osfs.New()
	if err := target.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory %q: %w", outputDir, err)
	}
	source := session.Caches().FileStore.FileSystem()

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Component", "File"})

	var errs []error
	for _, arg := range args {
		req, err := resolution.NewRequest(arg, "")
		if err != nil {
			return err
		}
		id, err := res.Resolve(ctx, req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id.Rejected {
			errs = append(errs, fmt.Errorf("%s resolved to rejected version %s", arg, id.ID))
			continue
		}
		files, err := res.Fetch(ctx, id.Metadata, artifactType)
		if err != nil {
			errs = append(errs, err)
		}
		for _, file := range files {
			dst := vfs.Join(target, outputDir, path.Base(file))
			if err := vfs.CopyFile(source, file, target, dst); err != nil {
				errs = append(errs, fmt.Errorf("unable to copy %s: %w", path.Base(file), err))
				continue
			}
			t.AppendRow(table.Row{id.ID.String(), dst})
		}
	}

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return errors.Join(errs...)
}
