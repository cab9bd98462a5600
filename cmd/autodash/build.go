package main

import (
	"context"
	"fmt"
	"strings"

	"autodash/adapters/excel"
	"autodash/adapters/sqlstore"
	"autodash/app"
	"autodash/domain/dashboard"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/config"
	"autodash/internal/errors"
	"autodash/internal/frame"
	"autodash/internal/views"
	"autodash/ports"
	"autodash/ui"
)

// built pairs a dashboard with the live surface it renders into, if any
type built struct {
	Dashboard *app.Dashboard
	Surface   *ui.Surface
}

// source is a loaded dataset: the port synthesis reads distinct values
// from and the frame the view computes over
type source struct {
	port  ports.DatasetPort
	frame *frame.Frame
	close func()
}

// openSource picks a reader by file extension, otherwise treats data as
// a SQL DSN
func openSource(ctx context.Context, def config.DashboardDefinition, logger *internal.Logger) (*source, error) {
	if excel.Supported(def.Data) {
		reader := excel.NewDataReader(def.Data, logger)
		if def.Table != "" {
			reader = reader.WithSheet(def.Table)
		}
		f, err := reader.ReadFrame()
		if err != nil {
			return nil, err
		}
		return &source{port: f, frame: f, close: func() {}}, nil
	}

	if def.Table == "" {
		return nil, errors.ConfigInvalid(fmt.Sprintf("%s: a SQL source needs a table", def.Data))
	}
	ds, err := sqlstore.Open(ctx, def.Driver, def.Data, def.Table)
	if err != nil {
		return nil, err
	}
	f, err := ds.Load(ctx)
	if err != nil {
		ds.Close()
		return nil, err
	}
	return &source{port: ds, frame: f, close: func() { ds.Close() }}, nil
}

// viewFor builds the stock grouped-measure view for a definition
func viewFor(def config.DashboardDefinition, f *frame.Frame) (report.View, error) {
	agg, err := frame.ParseAggregation(def.Aggregation)
	if err != nil {
		return report.View{}, err
	}
	kind := report.ChartKind(strings.ToLower(strings.TrimSpace(def.Chart)))
	switch kind {
	case "":
		kind = report.ChartBar
	case report.ChartBar, report.ChartLine, report.ChartPie:
	default:
		return report.View{}, errors.ConfigInvalid(fmt.Sprintf("unknown chart kind %q", def.Chart))
	}

	title := def.Title
	if title == "" {
		title = fmt.Sprintf("%s of %s", agg.Label(), def.Measure)
	}
	g := views.GroupedMeasure{
		Title:       title,
		Data:        f,
		Measure:     def.Measure,
		Aggregation: agg,
		Chart:       kind,
		TotalLabel:  def.TotalLabel,
		Share:       def.Share,
	}
	return g.View(def.Narrative), nil
}

// buildDashboards creates every dashboard in the definition. withSurface
// attaches a live surface to each one.
func buildDashboards(ctx context.Context, svc *app.DashboardService, def *config.ReportDefinition, strategy dashboard.Strategy, withSurface bool, logger *internal.Logger) ([]built, error) {
	if def.Strategy != "" {
		strategy = dashboard.ParseStrategy(def.Strategy)
	}

	var out []built
	for i, dd := range def.Dashboards {
		src, err := openSource(ctx, dd, logger)
		if err != nil {
			return nil, fmt.Errorf("dashboard %d: %w", i+1, err)
		}

		view, err := viewFor(dd, src.frame)
		if err != nil {
			src.close()
			return nil, fmt.Errorf("dashboard %d: %w", i+1, err)
		}

		b := built{}
		req := app.DashboardRequest{
			Title:      dd.Title,
			Dataset:    src.port,
			Dimensions: dd.Dimensions,
			Strategy:   strategy,
			View:       view,
		}
		if withSurface {
			b.Surface = ui.NewSurface()
			req.Surface = b.Surface
		}

		d, err := svc.Create(ctx, req)
		src.close()
		if err != nil {
			return nil, err
		}
		applySelections(d, dd.Selections, dd.Axis, logger)
		b.Dashboard = d
		out = append(out, b)
	}
	return out, nil
}

// applySelections presets data control values and the grouping axis; a bad
// preset is logged and the synthesized default kept
func applySelections(d *app.Dashboard, selections map[string][]string, axis string, logger *internal.Logger) {
	for name, labels := range selections {
		if err := d.Registry.SetLabels(name, labels); err != nil {
			logger.Warn("%s: ignoring selection for %s: %v", d.Title, name, err)
		}
	}
	if axis == "" {
		return
	}
	if err := d.Registry.SetAxis(axis); err != nil {
		logger.Warn("%s: ignoring axis %s: %v", d.Title, axis, err)
	}
}

// definitionFromFlags builds a one-dashboard definition for ad-hoc runs
func definitionFromFlags(data, table string, dims []string, measure, agg, chart, title string) (*config.ReportDefinition, error) {
	def := &config.ReportDefinition{
		Title: title,
		Dashboards: []config.DashboardDefinition{{
			Title:       title,
			Data:        data,
			Table:       table,
			Dimensions:  dims,
			Measure:     measure,
			Aggregation: agg,
			Chart:       chart,
		}},
	}
	if err := config.ValidateReportDefinition(def); err != nil {
		return nil, err
	}
	return def, nil
}
