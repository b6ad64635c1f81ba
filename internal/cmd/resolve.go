package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/resolution"
	"ocm.software/open-component-model/resolution/internal/flags/enum"
	"ocm.software/open-component-model/resolution/resolver"
)

const (
	OutputFlag      = "output"
	RejectFlag      = "reject"
	ConcurrencyFlag = "concurrency"

	defaultConcurrency = 4
)

// Resolved is the outcome of resolving one selector.
type Resolved struct {
	Requested  string   `json:"requested"`
	Component  string   `json:"component,omitempty"`
	Repository string   `json:"repository,omitempty"`
	Status     string   `json:"status,omitempty"`
	Rejected   bool     `json:"rejected,omitempty"`
	Skipped    []string `json:"skipped,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func NewResolve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve {group:name:version}...",
		Short: "Resolve dependency selectors to component versions",
		Args:  cobra.MinimumNArgs(1),
		Example: `  # Resolve the newest 1.x version of a module
  ocm-resolve resolve --repository central=https://repo.example.com/maven com.example:lib:1.+

  # Resolve the newest release using a configuration file
  ocm-resolve resolve -c resolution.yaml com.example:lib:latest.release -o json`,
		RunE:              runResolve,
		DisableAutoGenTag: true,
	}
	enum.VarP(cmd.Flags(), OutputFlag, "o", []string{"table", "json", "yaml"}, "output format")
	cmd.Flags().String(RejectFlag, "", "version selector rejecting matching versions, e.g. [2.0,)")
	cmd.Flags().Int(ConcurrencyFlag, defaultConcurrency, "number of selectors resolved concurrently")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	output, err := enum.Get(cmd.Flags(), OutputFlag)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	reject, err := cmd.Flags().GetString(RejectFlag)
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt(ConcurrencyFlag)
	if err != nil {
		return err
	}

	requests := make([]resolver.Request, len(args))
	for i, arg := range args {
		if requests[i], err = resolution.NewRequest(arg, reject); err != nil {
			return err
		}
	}

	session, res, err := newResolver(cmd)
	if err != nil {
		return err
	}

	results := make([]Resolved, len(requests))
	errs := make([]error, len(requests))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(concurrency, 1))
	for i, req := range requests {
		eg.Go(func() error {
			results[i] = Resolved{Requested: req.Selector.String()}
			id, err := res.Resolve(egctx, req)
			if err != nil {
				errs[i] = err
				results[i].Error = firstLine(err)
				return nil
			}
			results[i].Component = id.ID.String()
			results[i].Rejected = id.Rejected
			if id.Repository != nil {
				results[i].Repository = id.Repository.Name()
			}
			if id.Metadata != nil {
				results[i].Status = id.Metadata.Status
			}
			for _, rej := range id.Rejections {
				results[i].Skipped = append(results[i].Skipped, rej.String())
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if err := render(cmd.OutOrStdout(), output, results); err != nil {
		return err
	}
	if validFor, ok := session.ChangingValues().ValidFor(); ok {
		slogcontext.FromCtx(ctx).InfoContext(ctx, "results depend on changing values", slog.Duration("validFor", validFor))
	}
	return errors.Join(errs...)
}

func firstLine(err error) string {
	line, _, _ := strings.Cut(err.Error(), "\n")
	return line
}

func render(w io.Writer, format string, results []Resolved) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		data, err := yaml.Marshal(results)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "table":
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Requested", "Component", "Repository", "Status", "Note"})
		for _, r := range results {
			note := r.Error
			if r.Rejected {
				note = "rejected"
			}
			t.AppendRow(table.Row{r.Requested, r.Component, r.Repository, r.Status, note})
		}
		style := table.StyleLight
		style.Options.DrawBorder = false
		t.SetStyle(style)
		t.Render()
		return nil
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}
