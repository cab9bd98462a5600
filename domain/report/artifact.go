package report

// ChartKind selects how a chart is drawn
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

// Chart is a render-ready chart description.
// It carries data only; rasterization belongs to a ChartRasterizer.
type Chart struct {
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	XAxis  string    `json:"x_axis,omitempty"`
	YAxis  string    `json:"y_axis,omitempty"`
	Series []Series  `json:"series"`
}

// Series is a named sequence of labelled points
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Point is a single labelled value
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// IsEmpty reports whether the chart has no points at all
func (c Chart) IsEmpty() bool {
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// Artifact is what a view function returns: one chart or an ordered list.
// Construct with SingleChart or ChartList.
type Artifact struct {
	charts []Chart
	list   bool
}

// SingleChart wraps one chart
func SingleChart(c Chart) Artifact {
	return Artifact{charts: []Chart{c}}
}

// ChartList wraps an ordered list of charts
func ChartList(cs ...Chart) Artifact {
	return Artifact{charts: append([]Chart(nil), cs...), list: true}
}

// IsList reports whether the artifact was built with ChartList
func (a Artifact) IsList() bool { return a.list }

// Figures returns the charts in order
func (a Artifact) Figures() []Chart {
	return append([]Chart(nil), a.charts...)
}

// Len returns the number of charts carried
func (a Artifact) Len() int { return len(a.charts) }
