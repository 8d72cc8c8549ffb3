package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"projectpulse/internal/app"
	"projectpulse/internal/config"
	"projectpulse/internal/dataprocessing"
	"projectpulse/internal/exporter"
	"projectpulse/internal/infrastructure"
	"projectpulse/pkg/contracts"
	"projectpulse/pkg/contracts/domain"
)

type rootOptions struct {
	configFile string
	logLevel   string
	filter     domain.ProjectFilter
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pulsectl",
		Short: "Project Pulse command line client",
		Long: `pulsectl reads the project tracking sheet once, using the same
configuration as the server, and prints or exports the dashboard.

Examples:
  pulsectl summary --person ana
  pulsectl projects --status "En curso"
  pulsectl export --format csv --client acme`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file (defaults to PULSE_CONFIG or config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	flags.StringVar(&opts.filter.Person, "person", "", "only projects whose assignee contains this text")
	flags.StringVar(&opts.filter.Client, "client", "", "only projects whose client contains this text")
	flags.StringVar(&opts.filter.Status, "status", "", "only projects with this status")

	root.AddCommand(
		newSummaryCmd(opts),
		newProjectsCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs and aggregates as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, opts, func(ctx context.Context, a *app.Application) error {
				summary, err := a.Dashboard.Summary(opts.filter)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			})
		},
	}
}

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects ordered by deadline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDashboard(cmd, opts, func(ctx context.Context, a *app.Application) error {
				projects, err := a.Dashboard.Projects(opts.filter)
				if err != nil {
					return err
				}
				return printProjects(cmd.OutOrStdout(), dataprocessing.SortByDeadline(projects))
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an export into the reports directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			return withDashboard(cmd, opts, func(ctx context.Context, a *app.Application) error {
				projects, err := a.Dashboard.Projects(opts.filter)
				if err != nil {
					return err
				}
				summary, err := a.Dashboard.Summary(opts.filter)
				if err != nil {
					return err
				}
				path, err := a.Exporter.WriteFile(ctx, f, dataprocessing.SortByDeadline(projects), summary)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatXLSX), "xlsx, csv or json")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s, api %s\n", contracts.GetFullVersionString(), contracts.APIVersion)
		},
	}
}

// withDashboard builds the application without serving HTTP, runs one
// refresh and hands it to fn.
func withDashboard(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *app.Application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Stop(context.Background()); err != nil {
			logger.Warn("cleanup failed", slog.String("error", err.Error()))
		}
	}()

	info, err := a.Dashboard.RefreshNow(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	logger.Debug("sheet loaded",
		slog.String("source", info.Source),
		slog.Int("rows", info.RowCount))

	return fn(ctx, a)
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	cfg.Telemetry.MetricsEnabled = false
	cfg.Telemetry.TraceExporter = config.TraceExporterNone
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func printProjects(w io.Writer, projects []domain.Project) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLIENTE\tMARCA\tRESPONSABLE\tESTADO\tFIN\tCRITICO")
	for _, p := range projects {
		deadline := "-"
		if p.Fin != nil {
			deadline = p.Fin.Format("2006-01-02")
		}
		critical := ""
		if p.IsCritical {
			critical = "si"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Client, p.Brand, p.Person, p.Status, deadline, critical)
	}
	return tw.Flush()
}
