// Package pdf writes assembled documents as static paginated PDF files.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"autodash/domain/core"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/errors"
	"autodash/ports"
)

const (
	fontFamily   = "doc"
	coreFamily   = "Helvetica"
	lineHeight   = 6.0
	cellHeight   = 6.5
	bodySize     = 10.0
	tableSize    = 8.5
	ellipsisText = "…"
)

// Exporter renders a report.Document with fpdf
type Exporter struct {
	rasterizer  ports.ChartRasterizer
	fonts       []string
	chartWidth  int
	chartHeight int
	tempRoot    string
	logger      *internal.Logger
}

// Option configures an Exporter
type Option func(*Exporter)

// WithTempRoot places the scoped chart directory under dir
func WithTempRoot(dir string) Option {
	return func(e *Exporter) { e.tempRoot = dir }
}

// NewExporter creates a PDF writer. fonts is the ordered list of TrueType
// candidates; rasterizer may be nil, in which case charts are placeholders.
func NewExporter(rasterizer ports.ChartRasterizer, fonts []string, chartWidth, chartHeight int, logger *internal.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	e := &Exporter{
		rasterizer:  rasterizer,
		fonts:       fonts,
		chartWidth:  chartWidth,
		chartHeight: chartHeight,
		logger:      logger.With("pdf"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extension implements ports.DocumentWriter
func (e *Exporter) Extension() string { return "pdf" }

// Write implements ports.DocumentWriter. The chart directory is removed
// when Write returns, whatever the outcome.
func (e *Exporter) Write(ctx context.Context, req ports.ExportRequest) ([]string, error) {
	if req.Document == nil {
		return nil, errors.InvalidInput("no document to write")
	}
	tmp, err := os.MkdirTemp(e.tempRoot, "autodash-charts-*")
	if err != nil {
		return nil, errors.ExportError("failed to create chart directory", err)
	}
	defer os.RemoveAll(tmp)

	w := newWriter(e, tmp)
	w.loadFont()
	w.start(req.Document)

	for _, node := range req.Document.Nodes {
		if err := ctx.Err(); err != nil {
			return w.warnings, err
		}
		w.node(node)
		if w.pdf.Err() {
			return w.warnings, errors.ExportError("failed to render document", w.pdf.Error())
		}
	}

	if err := w.pdf.OutputFileAndClose(req.Path); err != nil {
		return w.warnings, errors.ExportError("failed to write "+req.Path, err)
	}
	e.logger.Info("pdf written to %s (%d pages, %d charts)", req.Path, w.pdf.PageNo(), w.charts)
	return w.warnings, nil
}

// writer holds the state of one document render
type writer struct {
	e        *Exporter
	pdf      *fpdf.Fpdf
	tmp      string
	family   string
	tr       func(string) string
	warnings []string
	charts   int
}

func newWriter(e *Exporter, tmp string) *writer {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetMargins(18, 18, 18)
	p.SetAutoPageBreak(true, 18)
	return &writer{e: e, pdf: p, tmp: tmp, family: coreFamily, tr: func(s string) string { return s }}
}

func (w *writer) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.warnings = append(w.warnings, msg)
	w.e.logger.Warn("%s", msg)
}

// loadFont tries each candidate in order and falls back to a core font,
// which only covers Latin-1 text
func (w *writer) loadFont() {
	for _, path := range w.e.fonts {
		if w.tryFont(path) {
			w.family = fontFamily
			w.e.logger.Debug("using font %s", path)
			return
		}
	}
	w.tr = w.pdf.UnicodeTranslatorFromDescriptor("")
	w.warn("%v: falling back to %s, non-Latin text may not render", core.ErrFontUnavailable, coreFamily)
}

func (w *writer) tryFont(path string) (ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			w.pdf.ClearError()
			ok = false
		}
	}()
	w.pdf.AddUTF8FontFromBytes(fontFamily, "", data)
	w.pdf.AddUTF8FontFromBytes(fontFamily, "B", data)
	if w.pdf.Err() {
		w.e.logger.Debug("font %s rejected: %v", path, w.pdf.Error())
		w.pdf.ClearError()
		return false
	}
	return true
}

func (w *writer) font(style string, size float64) {
	w.pdf.SetFont(w.family, style, size)
}

func (w *writer) usableWidth() float64 {
	pw, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	return pw - left - right
}

func (w *writer) start(doc *report.Document) {
	w.pdf.SetTitle(doc.Title, true)
	w.pdf.SetAuthor(doc.Author, true)
	w.pdf.SetCreationDate(doc.Created)
	w.pdf.SetFooterFunc(func() {
		w.pdf.SetY(-12)
		w.font("", 8)
		w.pdf.CellFormat(0, 6, fmt.Sprintf("%d", w.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	w.pdf.AddPage()
}

func (w *writer) node(n report.Node) {
	switch v := n.(type) {
	case report.Cover:
		w.cover(v)
	case report.Heading:
		w.heading(v)
	case report.Narrative:
		w.narrative(v)
	case report.ConfigList:
		w.configList(v)
	case report.Notice:
		w.notice(v)
	case report.TableBlock:
		w.table(v)
	case report.ChartBlock:
		w.chart(v)
	case report.PageBreak:
		w.pdf.AddPage()
	}
}

func (w *writer) cover(c report.Cover) {
	_, ph := w.pdf.GetPageSize()
	w.pdf.SetY(ph / 3)
	w.font("B", 26)
	w.pdf.MultiCell(0, 12, w.tr(c.Title), "", "C", false)
	w.pdf.Ln(8)
	w.font("", 12)
	if c.Author != "" {
		w.pdf.CellFormat(0, 8, w.tr(c.Author), "", 1, "C", false, 0, "")
	}
	w.pdf.CellFormat(0, 8, c.Date.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
}

func (w *writer) heading(h report.Heading) {
	size := 18.0
	if h.Level > 1 {
		size = 14
	}
	w.font("B", size)
	w.pdf.MultiCell(0, size*0.5, w.tr(h.Text), "", "L", false)
	w.pdf.Ln(3)
}

func (w *writer) narrative(n report.Narrative) {
	for _, b := range n.Blocks {
		switch b.Kind {
		case report.BlockHeading2:
			w.font("B", 13)
			w.pdf.MultiCell(0, 7, w.tr(b.Text()), "", "L", false)
		case report.BlockHeading3:
			w.font("B", 11)
			w.pdf.MultiCell(0, 6.5, w.tr(b.Text()), "", "L", false)
		case report.BlockBullet:
			left, _, _, _ := w.pdf.GetMargins()
			w.font("", bodySize)
			w.pdf.SetX(left + 3)
			w.pdf.Write(lineHeight, w.tr("• "))
			w.spans(b.Spans)
			w.pdf.Ln(lineHeight)
		default:
			w.spans(b.Spans)
			w.pdf.Ln(lineHeight + 1)
		}
	}
	w.pdf.Ln(2)
}

func (w *writer) spans(spans []report.Span) {
	for _, s := range spans {
		style := ""
		if s.Bold {
			style = "B"
		}
		w.font(style, bodySize)
		w.pdf.Write(lineHeight, w.tr(s.Text))
	}
}

func (w *writer) configList(c report.ConfigList) {
	w.font("B", bodySize)
	w.pdf.CellFormat(0, lineHeight, w.tr("Configuration"), "", 1, "L", false, 0, "")
	for _, item := range c.Items {
		w.font("B", 9)
		w.pdf.Write(5, w.tr(item.Name+": "))
		w.font("", 9)
		w.pdf.Write(5, w.tr(item.Value))
		w.pdf.Ln(5)
	}
	w.pdf.Ln(3)
}

func (w *writer) notice(n report.Notice) {
	w.pdf.SetTextColor(176, 84, 0)
	w.font("", 9)
	w.pdf.MultiCell(0, 5, w.tr("Warning: "+n.Text), "", "L", false)
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.Ln(2)
}

func (w *writer) table(t report.TableBlock) {
	if t.Title != "" {
		w.font("B", 11)
		w.pdf.MultiCell(0, 6, w.tr(t.Title), "", "L", false)
	}
	if len(t.Header) == 0 {
		return
	}
	colW := w.usableWidth() / float64(len(t.Header))

	w.font("B", tableSize)
	w.pdf.SetFillColor(220, 224, 230)
	for _, h := range t.Header {
		w.pdf.CellFormat(colW, cellHeight, w.fit(h, colW), "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(-1)

	for _, r := range t.Rows {
		style, fill := "", false
		if r.Aggregate {
			style, fill = "B", true
			w.pdf.SetFillColor(232, 238, 247)
		}
		w.font(style, tableSize)
		for i := range t.Header {
			text := ""
			if i < len(r.Cells) {
				text = r.Cells[i]
			}
			align := "L"
			if r.Ellipsis {
				align = "C"
			} else if i > 0 {
				align = "R"
			}
			w.pdf.CellFormat(colW, cellHeight, w.fit(text, colW), "1", 0, align, fill, 0, "")
		}
		w.pdf.Ln(-1)
	}

	if t.Truncated {
		w.font("", 8)
		w.pdf.CellFormat(0, 5, w.tr(fmt.Sprintf("Showing %d of %d rows", len(t.Rows), t.TotalRows)), "", 1, "L", false, 0, "")
	}
	w.pdf.Ln(4)
}

// fit shortens s until it fits in a cell of width colW. Truncation works on
// the source runes; the translator maps each candidate to the font encoding.
func (w *writer) fit(s string, colW float64) string {
	limit := colW - 2
	if out := w.tr(s); w.pdf.GetStringWidth(out) <= limit {
		return out
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := w.tr(string(runes) + ellipsisText)
		if w.pdf.GetStringWidth(candidate) <= limit {
			return candidate
		}
	}
	return w.tr(string(runes))
}

func (w *writer) chart(c report.ChartBlock) {
	w.charts++
	w.font("B", 11)
	w.pdf.MultiCell(0, 6, w.tr(fmt.Sprintf("Chart %d: %s", c.Index, c.Title)), "", "L", false)

	if w.e.rasterizer == nil {
		w.placeholder(c, core.ErrRasterUnavailable)
		return
	}
	path := filepath.Join(w.tmp, "chart_"+uuid.NewString()+".png")
	if err := w.e.rasterizer.RasterizePNG(c.Chart, path, w.e.chartWidth, w.e.chartHeight); err != nil {
		w.placeholder(c, err)
		return
	}

	width := w.usableWidth()
	height := width * float64(w.e.chartHeight) / float64(w.e.chartWidth)
	_, ph := w.pdf.GetPageSize()
	_, _, _, bottom := w.pdf.GetMargins()
	if w.pdf.GetY()+height > ph-bottom {
		w.pdf.AddPage()
	}
	w.pdf.ImageOptions(path, -1, w.pdf.GetY(), width, height, true,
		fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	w.pdf.Ln(4)
}

func (w *writer) placeholder(c report.ChartBlock, err error) {
	w.warn("chart %d (%s): %v", c.Index, c.Title, errors.RenderError(err))
	w.pdf.SetDrawColor(180, 180, 180)
	w.font("", 9)
	label := strings.TrimSpace(fmt.Sprintf("[chart unavailable] %s", c.Title))
	w.pdf.CellFormat(0, 30, w.tr(label), "1", 1, "C", false, 0, "")
	w.pdf.SetDrawColor(0, 0, 0)
	w.pdf.Ln(4)
}
