package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/domain/report"
	"autodash/internal"
)

const (
	// MaxTableRows caps the rows rendered per table
	MaxTableRows = 100
	// ChartsPerPage is how many charts share a page before a break
	ChartsPerPage = 2
	// NullPlaceholder is printed for null cells
	NullPlaceholder = "—"
	// ValueSeparator joins multi-valued control selections
	ValueSeparator = ", "
	ellipsisCell   = "…"
)

// AssembleOptions carries document-level metadata
type AssembleOptions struct {
	Title  string
	Author string
}

// DocumentAssembler lays captured results out as a linear document
type DocumentAssembler struct {
	printer *message.Printer
	logger  *internal.Logger
	now     func() time.Time
}

// NewDocumentAssembler creates an assembler
func NewDocumentAssembler(logger *internal.Logger) *DocumentAssembler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DocumentAssembler{
		printer: message.NewPrinter(language.English),
		logger:  logger.With("assembler"),
		now:     time.Now,
	}
}

// Assemble builds the document: a cover, then one section per capture with
// heading, narrative, config list, tables and charts.
func (a *DocumentAssembler) Assemble(captures []*report.CaptureResult, opts AssembleOptions) *report.Document {
	doc := &report.Document{
		Title:   opts.Title,
		Author:  opts.Author,
		Created: a.now(),
	}
	doc.Nodes = append(doc.Nodes,
		report.Cover{Title: opts.Title, Author: opts.Author, Date: doc.Created},
		report.PageBreak{},
	)

	for i, c := range captures {
		if i > 0 {
			doc.Nodes = appendBreak(doc.Nodes)
		}
		doc.Nodes = append(doc.Nodes, a.section(i, c)...)
		doc.Warnings = append(doc.Warnings, c.Warnings...)
	}

	if n := len(doc.Nodes); n > 0 {
		if _, ok := doc.Nodes[n-1].(report.PageBreak); ok {
			doc.Nodes = doc.Nodes[:n-1]
		}
	}
	a.logger.Debug("assembled %q: %d sections, %d nodes", opts.Title, len(captures), len(doc.Nodes))
	return doc
}

func (a *DocumentAssembler) section(i int, c *report.CaptureResult) []report.Node {
	title := c.Title
	if title == "" {
		title = fmt.Sprintf("Dashboard %d", i+1)
	}
	nodes := []report.Node{report.Heading{Text: title, Level: 1}}

	if c.Narrative != nil {
		if blocks := ParseNarrative(*c.Narrative); len(blocks) > 0 {
			nodes = append(nodes, report.Narrative{Source: *c.Narrative, Blocks: blocks})
		}
	}

	if len(c.Controls) > 0 {
		nodes = append(nodes, ConfigListFor(c.Controls))
	}

	for _, w := range c.Warnings {
		nodes = append(nodes, report.Notice{Text: w})
	}

	for _, t := range c.Tables {
		nodes = append(nodes, a.TableBlock(t))
	}

	for j, fig := range c.Figures {
		nodes = append(nodes, report.ChartBlock{Index: j + 1, Title: ChartTitle(fig, j+1), Chart: fig})
		if (j+1)%ChartsPerPage == 0 && j+1 < len(c.Figures) {
			nodes = appendBreak(nodes)
		}
	}
	return nodes
}

func appendBreak(nodes []report.Node) []report.Node {
	if n := len(nodes); n > 0 {
		if _, ok := nodes[n-1].(report.PageBreak); ok {
			return nodes
		}
	}
	return append(nodes, report.PageBreak{})
}

// ChartTitle returns the chart's title or "Chart n" when it has none
func ChartTitle(c report.Chart, n int) string {
	if strings.TrimSpace(c.Title) != "" {
		return c.Title
	}
	return fmt.Sprintf("Chart %d", n)
}

// ConfigListFor renders the control snapshot as name: value lines
func ConfigListFor(controls []dashboard.ControlSnapshot) report.ConfigList {
	list := report.ConfigList{Items: make([]report.ConfigItem, 0, len(controls))}
	for _, c := range controls {
		name := c.Label
		if name == "" {
			name = c.Name
		}
		labels := dataset.Labels(c.Value)
		list.Items = append(list.Items, report.ConfigItem{
			Name:   name,
			Value:  strings.Join(labels, ValueSeparator),
			Values: labels,
		})
	}
	return list
}

// TableBlock formats a captured table, capping it at MaxTableRows. When
// the table is cut and its original last row is a total row, that row is
// kept at the end; otherwise an ellipsis row marks the cut.
func (a *DocumentAssembler) TableBlock(t report.Table) report.TableBlock {
	block := report.TableBlock{
		Title:     t.Title,
		Header:    append([]string(nil), t.Columns...),
		TotalRows: t.Height(),
	}

	rows := t.Rows
	if len(rows) > MaxTableRows {
		block.Truncated = true
		last := rows[len(rows)-1]
		head := rows[:MaxTableRows]
		rows = make([][]dataset.Value, 0, MaxTableRows+1)
		rows = append(rows, head...)
		if report.IsTotalRow(last) {
			rows = append(rows, last)
			block.Pinned = true
		}
	}

	for _, r := range rows {
		block.Rows = append(block.Rows, report.Row{
			Cells:     a.formatRow(r),
			Aggregate: report.IsTotalRow(r),
		})
	}
	if block.Truncated && !block.Pinned {
		cells := make([]string, len(t.Columns))
		for i := range cells {
			cells[i] = ellipsisCell
		}
		block.Rows = append(block.Rows, report.Row{Cells: cells, Ellipsis: true})
	}
	return block
}

func (a *DocumentAssembler) formatRow(r []dataset.Value) []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = a.FormatCell(v)
	}
	return out
}

// FormatCell renders a cell: thousands separators, two decimals for
// floats, none for integers, a placeholder for null
func (a *DocumentAssembler) FormatCell(v dataset.Value) string {
	switch v.Kind {
	case dataset.KindNull:
		return NullPlaceholder
	case dataset.KindInt:
		return a.printer.Sprintf("%d", v.Int)
	case dataset.KindFloat:
		return a.printer.Sprintf("%.2f", v.Float)
	default:
		return v.Label()
	}
}

// ParseNarrative parses the restricted markdown used for narratives:
// "## " and "### " headings, "- " and "* " bullets, **bold** spans, and
// plain paragraphs. Consecutive plain lines form one paragraph.
func ParseNarrative(text string) []report.Block {
	var blocks []report.Block
	var para []string

	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, report.Block{Kind: report.BlockParagraph, Spans: parseSpans(strings.Join(para, " "))})
			para = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "### "):
			flush()
			blocks = append(blocks, report.Block{Kind: report.BlockHeading3, Spans: parseSpans(strings.TrimSpace(line[4:]))})
		case strings.HasPrefix(line, "## "):
			flush()
			blocks = append(blocks, report.Block{Kind: report.BlockHeading2, Spans: parseSpans(strings.TrimSpace(line[3:]))})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			flush()
			blocks = append(blocks, report.Block{Kind: report.BlockBullet, Spans: parseSpans(strings.TrimSpace(line[2:]))})
		default:
			para = append(para, line)
		}
	}
	flush()
	return blocks
}

// parseSpans splits **bold** runs out of a line. An unpaired marker is
// kept as literal text.
func parseSpans(s string) []report.Span {
	parts := strings.Split(s, "**")
	if len(parts)%2 == 0 {
		// odd number of markers: glue the last one back on
		n := len(parts)
		parts[n-2] = parts[n-2] + "**" + parts[n-1]
		parts = parts[:n-1]
	}
	spans := make([]report.Span, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		spans = append(spans, report.Span{Text: p, Bold: i%2 == 1})
	}
	return spans
}
