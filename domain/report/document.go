package report

import "time"

// NodeKind tags document section nodes
type NodeKind int

const (
	NodeCover NodeKind = iota
	NodeHeading
	NodeNarrative
	NodeConfigList
	NodeTable
	NodeChart
	NodeNotice
	NodePageBreak
)

// Node is one section of an assembled document
type Node interface {
	Kind() NodeKind
}

// Document is the ordered, linear list of sections handed to a writer
type Document struct {
	Title    string
	Author   string
	Created  time.Time
	Nodes    []Node
	Warnings []string
}

// Count returns how many nodes of kind k the document holds
func (d *Document) Count(k NodeKind) int {
	n := 0
	for _, node := range d.Nodes {
		if node.Kind() == k {
			n++
		}
	}
	return n
}

// Cover is the title page
type Cover struct {
	Title  string
	Author string
	Date   time.Time
}

// Heading starts a section
type Heading struct {
	Text  string
	Level int
}

// BlockKind tags narrative blocks
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading2
	BlockHeading3
	BlockBullet
)

// Span is a run of text, optionally bold
type Span struct {
	Text string
	Bold bool
}

// Block is one line-level element of a narrative
type Block struct {
	Kind  BlockKind
	Spans []Span
}

// Text joins all spans without styling
func (b Block) Text() string {
	s := ""
	for _, sp := range b.Spans {
		s += sp.Text
	}
	return s
}

// Narrative is parsed narrative text
type Narrative struct {
	// Source is the unparsed text, for writers with their own markdown renderer
	Source string
	Blocks []Block
}

// ConfigItem is one name: value line of the config list
type ConfigItem struct {
	Name   string
	Value  string
	Values []string
}

// ConfigList shows the control snapshot a view was captured with
type ConfigList struct {
	Items []ConfigItem
}

// Row is a rendered table row
type Row struct {
	Cells     []string
	Aggregate bool
	Ellipsis  bool
}

// TableBlock is a formatted, row-capped table
type TableBlock struct {
	Title     string
	Header    []string
	Rows      []Row
	TotalRows int
	Truncated bool
	Pinned    bool
}

// ChartBlock is one chart to draw
type ChartBlock struct {
	Index int
	Title string
	Chart Chart
}

// Notice surfaces a warning recorded on a capture
type Notice struct {
	Text string
}

// PageBreak forces a new page
type PageBreak struct{}

func (Cover) Kind() NodeKind      { return NodeCover }
func (Heading) Kind() NodeKind    { return NodeHeading }
func (Narrative) Kind() NodeKind  { return NodeNarrative }
func (ConfigList) Kind() NodeKind { return NodeConfigList }
func (TableBlock) Kind() NodeKind { return NodeTable }
func (ChartBlock) Kind() NodeKind { return NodeChart }
func (Notice) Kind() NodeKind     { return NodeNotice }
func (PageBreak) Kind() NodeKind  { return NodePageBreak }
