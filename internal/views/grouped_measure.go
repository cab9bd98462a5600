package views

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"autodash/domain/dataset"
	"autodash/domain/report"
	"autodash/internal/frame"
)

// DefaultTotalLabel is the first cell of the summary row
const DefaultTotalLabel = "Total"

// GroupedMeasure is the stock dashboard view: filter the frame by the
// current bindings, group by the aggregation axis, reduce the measure per
// group, draw the result and emit a summary table ending in a total row.
type GroupedMeasure struct {
	Title       string
	Data        *frame.Frame
	Measure     string
	Aggregation frame.Aggregation
	Chart       report.ChartKind
	// TotalLabel overrides DefaultTotalLabel, e.g. "合计"
	TotalLabel string
	// Share adds a pie chart of each group's share of the total
	Share bool
}

// View wraps g as a view descriptor
func (g GroupedMeasure) View(narrative string) report.View {
	v := report.View{Title: g.Title, Func: g.Compute}
	if narrative != "" {
		v = v.WithNarrative(narrative)
	}
	return v
}

// Compute is the report.ViewFunc
func (g GroupedMeasure) Compute(vc report.ViewContext) (report.Artifact, error) {
	if g.Data == nil {
		return report.Artifact{}, fmt.Errorf("no data bound to view %q", g.Title)
	}
	if !g.Data.HasColumn(g.Measure) && g.Aggregation != frame.AggCount {
		return report.Artifact{}, fmt.Errorf("measure %q not found", g.Measure)
	}
	axis := vc.Axis()
	filtered := g.Data.Filter(vc.Bindings())

	groups, err := filtered.GroupBy(axis)
	if err != nil {
		return report.Artifact{}, err
	}

	agg := g.Aggregation
	if agg == "" {
		agg = frame.AggSum
	}
	valueHeader := fmt.Sprintf("%s of %s", agg.Label(), g.Measure)

	labels := make([]string, 0, len(groups))
	values := make([]float64, 0, len(groups))
	counts := make([]int, 0, len(groups))
	for _, grp := range groups {
		if grp.Key.IsNull() {
			continue
		}
		v, err := grp.Frame.Aggregate(g.Measure, agg)
		if err != nil {
			// a group with no numeric values has nothing to show
			continue
		}
		labels = append(labels, grp.Key.Label())
		values = append(values, v)
		counts = append(counts, grp.Frame.Len())
	}

	total := g.total(filtered, values, agg)

	table := report.Table{
		Title:   fmt.Sprintf("%s by %s", valueHeader, axis),
		Columns: []string{axis, valueHeader, "Rows"},
	}
	for i := range labels {
		table.Rows = append(table.Rows, []dataset.Value{
			dataset.String(labels[i]),
			dataset.Float(values[i]),
			dataset.Int(int64(counts[i])),
		})
	}
	totalLabel := g.TotalLabel
	if totalLabel == "" {
		totalLabel = DefaultTotalLabel
	}
	table.Rows = append(table.Rows, []dataset.Value{
		dataset.String(totalLabel),
		dataset.Float(total),
		dataset.Int(int64(filtered.Len())),
	})
	vc.Emit(table)

	kind := g.Chart
	if kind == "" {
		kind = report.ChartBar
	}
	main := report.Chart{
		Kind:   kind,
		Title:  g.Title,
		XAxis:  axis,
		YAxis:  valueHeader,
		Series: []report.Series{{Name: g.Measure, Points: points(labels, values)}},
	}
	if !g.Share || kind == report.ChartPie {
		return report.SingleChart(main), nil
	}

	share := make([]float64, len(values))
	copy(share, values)
	if sum := floats.Sum(share); sum != 0 {
		floats.Scale(100/sum, share)
	}
	pie := report.Chart{
		Kind:   report.ChartPie,
		Title:  fmt.Sprintf("Share of %s by %s", g.Measure, axis),
		Series: []report.Series{{Name: "share %", Points: points(labels, share)}},
	}
	return report.ChartList(main, pie), nil
}

// total reduces the whole filtered frame; for sums it equals the sum of the
// group values. No numeric values gives 0.
func (g GroupedMeasure) total(filtered *frame.Frame, values []float64, agg frame.Aggregation) float64 {
	if agg == frame.AggSum {
		return floats.Sum(values)
	}
	t, err := filtered.Aggregate(g.Measure, agg)
	if err != nil {
		return 0
	}
	return t
}

func points(labels []string, values []float64) []report.Point {
	out := make([]report.Point, len(labels))
	for i := range labels {
		out[i] = report.Point{Label: labels[i], Value: values[i]}
	}
	return out
}
