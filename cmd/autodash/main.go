package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"autodash/app"
	"autodash/internal"
	"autodash/internal/config"
	"autodash/internal/container"
)

// cli is what every subcommand needs after startup
type cli struct {
	cfg    *config.Config
	logger *internal.Logger
	deps   *container.Container
}

// adHoc holds the flags used when no definition file is given
type adHoc struct {
	definition string
	data       string
	table      string
	dims       []string
	measure    string
	agg        string
	chart      string
	title      string
}

func main() {
	rt := &cli{}

	rootCmd := &cobra.Command{
		Use:   "autodash",
		Short: "Interactive dashboards from tabular data, exportable as static reports",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level), os.Stderr)
			rt.deps, err = container.New(cfg, rt.logger)
			return err
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCmd(rt),
		newExportCmd(rt),
		newSynthesizeCmd(rt),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *adHoc) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&a.definition, "definition", "d", "", "TOML report definition")
	f.StringVar(&a.data, "data", "", "CSV/XLSX file or SQL DSN (defaults to AUTODASH_DATA_FILE)")
	f.StringVar(&a.table, "table", "", "sheet name for XLSX, table name for SQL")
	f.StringSliceVar(&a.dims, "dims", nil, "dimension fields, comma separated")
	f.StringVar(&a.measure, "measure", "", "numeric field to aggregate")
	f.StringVar(&a.agg, "agg", "sum", "aggregation: sum, mean, median, min, max, count")
	f.StringVar(&a.chart, "chart", "bar", "chart kind: bar, line, pie")
	f.StringVar(&a.title, "title", "", "dashboard title")
}

func (a *adHoc) load(cfg *config.Config) (*config.ReportDefinition, error) {
	if a.definition != "" {
		return config.LoadReportDefinition(a.definition)
	}
	data := a.data
	if data == "" {
		data = cfg.Data.File
	}
	return definitionFromFlags(data, a.table, a.dims, a.measure, a.agg, a.chart, a.title)
}

func newServeCmd(rt *cli) *cobra.Command {
	var flags adHoc
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dashboards with live controls",
		Long: `Synthesize controls for each dashboard and serve them over HTTP.
Every control change recomputes the view.

Example: autodash serve --data sales.csv --dims region,year --measure amount`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			def, err := flags.load(rt.cfg)
			if err != nil {
				return err
			}
			items, err := buildDashboards(ctx, rt.deps.Dashboards, def, rt.cfg.Data.Strategy, true, rt.logger)
			if err != nil {
				return err
			}

			server, err := rt.deps.NewServer(port)
			if err != nil {
				return err
			}
			for _, b := range items {
				server.Attach(b.Dashboard.ID, b.Surface)
				if err := b.Dashboard.Engine.Trigger(ctx); err != nil {
					rt.logger.Warn("initial render of %s: %v", b.Dashboard.Title, err)
				}
			}
			return server.Start(ctx)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&port, "port", "", "listen port (defaults to PORT)")
	return cmd
}

func newExportCmd(rt *cli) *cobra.Command {
	var flags adHoc
	var formats []string
	var output, author string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Capture dashboards headlessly and write a report",
		Long: `Build every dashboard, re-run its view with the current control values
and write one document per format.

Example: autodash export -d report.toml --format pdf,html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			def, err := flags.load(rt.cfg)
			if err != nil {
				return err
			}
			items, err := buildDashboards(ctx, rt.deps.Dashboards, def, rt.cfg.Data.Strategy, false, rt.logger)
			if err != nil {
				return err
			}

			if len(formats) == 0 {
				formats = []string{"pdf"}
				if def.Format != "" {
					formats = strings.Split(def.Format, ",")
				}
			}
			if output == "" {
				output = def.Output
			}
			req := app.ExportRequest{
				Title:    firstNonEmpty(def.Title, rt.cfg.Export.Title),
				Author:   firstNonEmpty(author, def.Author, rt.cfg.Export.Author),
				Filename: output,
				Formats:  formats,
			}

			list := make([]*app.Dashboard, len(items))
			for i, b := range items {
				list[i] = b.Dashboard
			}
			result, err := rt.deps.Exports.Export(ctx, list, req)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			for _, p := range result.Paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "output formats: pdf, html, xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file name without extension")
	cmd.Flags().StringVar(&author, "author", "", "author shown on the cover")
	return cmd
}

func newSynthesizeCmd(rt *cli) *cobra.Command {
	var flags adHoc

	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Show the controls that would be generated for each dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := flags.load(rt.cfg)
			if err != nil {
				return err
			}
			items, err := buildDashboards(cmd.Context(), rt.deps.Dashboards, def, rt.cfg.Data.Strategy, false, rt.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range items {
				s := b.Dashboard.Synthesis
				fmt.Fprintf(out, "# %s\n", b.Dashboard.Title)
				for _, line := range s.Log {
					fmt.Fprintf(out, "# %s\n", line)
				}
				equivalent, err := s.Equivalent()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, equivalent)
			}
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
