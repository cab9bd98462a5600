// Package container wires configuration into the services the commands use.
package container

import (
	"fmt"

	"autodash/adapters/chart"
	"autodash/adapters/excel"
	"autodash/adapters/html"
	"autodash/adapters/pdf"
	"autodash/app"
	"autodash/internal"
	"autodash/internal/config"
	"autodash/ports"
	"autodash/ui"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Charts     *chart.Renderer
	Dashboards *app.DashboardService
	Exports    *app.ExportService
}

// New creates a container from cfg. A nil logger uses the default one.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Charts: chart.NewRenderer(),
	}
	c.Dashboards = app.NewDashboardService(app.NewControlSynthesizer(logger), logger)
	c.Exports = app.NewExportService(cfg.Export.OutputDir, app.NewDocumentAssembler(logger), logger, c.Writers()...)
	return c, nil
}

// Writers returns one document writer per supported export format
func (c *Container) Writers() []ports.DocumentWriter {
	w, h := c.Config.Charts.Width, c.Config.Charts.Height
	return []ports.DocumentWriter{
		pdf.NewExporter(c.Charts, c.Config.Export.FontPaths, w, h, c.Logger),
		html.NewExporter(c.Charts, w, h, c.Logger),
		excel.NewWriter(c.Logger),
	}
}

// NewServer creates the live dashboard server. An empty port uses the
// configured one.
func (c *Container) NewServer(port string) (*ui.App, error) {
	if port == "" {
		port = c.Config.Server.Port
	}
	return ui.NewApp(ui.Config{
		Port:        port,
		ChartWidth:  c.Config.Charts.Width / 2,
		ChartHeight: c.Config.Charts.Height / 2,
		Author:      c.Config.Export.Author,
	}, c.Dashboards, c.Exports, c.Charts, c.Logger)
}
