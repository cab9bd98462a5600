// Package html writes assembled documents as a single self-contained HTML
// file: inline styles, inline SVG charts, no scripts or external assets.
package html

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"autodash/domain/core"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/errors"
	"autodash/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Exporter renders a report.Document through html/template
type Exporter struct {
	charts ports.ChartVectorRenderer
	width  int
	height int
	logger *internal.Logger
}

// NewExporter creates an HTML writer. charts may be nil, in which case
// chart blocks show a placeholder.
func NewExporter(charts ports.ChartVectorRenderer, width, height int, logger *internal.Logger) *Exporter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Exporter{charts: charts, width: width, height: height, logger: logger.With("html")}
}

// Extension implements ports.DocumentWriter
func (e *Exporter) Extension() string { return "html" }

type page struct {
	Title string
	Pages [][]nodeView
}

// nodeView holds exactly one populated field
type nodeView struct {
	Cover        *report.Cover
	Heading      *report.Heading
	HeadingLevel int
	Narrative    template.HTML
	Controls     *report.ConfigList
	Notice       *report.Notice
	Table        *report.TableBlock
	Chart        *report.ChartBlock
	SVG          template.HTML
}

// Write implements ports.DocumentWriter
func (e *Exporter) Write(ctx context.Context, req ports.ExportRequest) ([]string, error) {
	if req.Document == nil {
		return nil, errors.InvalidInput("no document to write")
	}
	var warnings []string
	p := page{Title: req.Document.Title}
	current := []nodeView{}

	for _, node := range req.Document.Nodes {
		if err := ctx.Err(); err != nil {
			return warnings, err
		}
		if _, ok := node.(report.PageBreak); ok {
			if len(current) > 0 {
				p.Pages = append(p.Pages, current)
				current = []nodeView{}
			}
			continue
		}
		view, warn := e.view(node)
		if warn != "" {
			warnings = append(warnings, warn)
			e.logger.Warn("%s", warn)
		}
		current = append(current, view)
	}
	if len(current) > 0 {
		p.Pages = append(p.Pages, current)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "report", p); err != nil {
		return warnings, errors.ExportError("failed to render html", err)
	}
	if err := os.WriteFile(req.Path, buf.Bytes(), 0o644); err != nil {
		return warnings, errors.ExportError("failed to write "+req.Path, err)
	}
	e.logger.Info("html written to %s (%d bytes)", req.Path, buf.Len())
	return warnings, nil
}

func (e *Exporter) view(node report.Node) (nodeView, string) {
	switch n := node.(type) {
	case report.Cover:
		return nodeView{Cover: &n}, ""
	case report.Heading:
		level := 2
		if n.Level > 1 {
			level = 3
		}
		return nodeView{Heading: &n, HeadingLevel: level}, ""
	case report.Narrative:
		return nodeView{Narrative: RenderMarkdown(n.Source)}, ""
	case report.ConfigList:
		return nodeView{Controls: &n}, ""
	case report.Notice:
		return nodeView{Notice: &n}, ""
	case report.TableBlock:
		return nodeView{Table: &n}, ""
	case report.ChartBlock:
		svg, err := e.svg(n.Chart)
		if err != nil {
			return nodeView{Chart: &n}, fmt.Sprintf("chart %d (%s): %v", n.Index, n.Title, errors.RenderError(err))
		}
		return nodeView{Chart: &n, SVG: svg}, ""
	}
	return nodeView{}, ""
}

func (e *Exporter) svg(c report.Chart) (template.HTML, error) {
	if e.charts == nil {
		return "", core.ErrRasterUnavailable
	}
	var buf bytes.Buffer
	if err := e.charts.RenderSVG(c, &buf, e.width, e.height); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// RenderMarkdown converts narrative text to HTML. Raw HTML in the source
// is dropped.
func RenderMarkdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(src), p, r))
}
