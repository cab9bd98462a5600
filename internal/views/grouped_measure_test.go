package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/domain/report"
	"autodash/internal/frame"
)

type stubContext struct {
	bindings dashboard.BindingSnapshot
	axis     string
	tables   []report.Table
}

func (s *stubContext) Context() context.Context            { return context.Background() }
func (s *stubContext) Bindings() dashboard.BindingSnapshot { return s.bindings }
func (s *stubContext) Axis() string                        { return s.axis }
func (s *stubContext) Emit(t report.Table)                 { s.tables = append(s.tables, t) }

func ordersFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.FromStrings(
		[]string{"region", "year", "amount"},
		[][]string{
			{"North", "2023", "10"},
			{"North", "2024", "20"},
			{"South", "2023", "5"},
			{"South", "2024", "15"},
			{"West", "2024", "50"},
		},
	)
	require.NoError(t, err)
	return f
}

func bindings(region ...dataset.Value) dashboard.BindingSnapshot {
	return dashboard.NewBindingSnapshot([]dashboard.Control{
		{Name: "region", Role: dashboard.RoleData, Value: region},
		{Name: "year", Role: dashboard.RoleData, Value: []dataset.Value{dataset.All}},
		{Name: dashboard.AggregationAxisName, Role: dashboard.RoleAggregationAxis, Value: []dataset.Value{dataset.String("region")}},
	})
}

func TestGroupedMeasure_SumByAxis(t *testing.T) {
	g := GroupedMeasure{Title: "Revenue", Data: ordersFrame(t), Measure: "amount"}
	vc := &stubContext{bindings: bindings(dataset.All), axis: "region"}

	art, err := g.Compute(vc)
	require.NoError(t, err)
	require.Equal(t, 1, art.Len())

	chart := art.Figures()[0]
	assert.Equal(t, report.ChartBar, chart.Kind)
	assert.Equal(t, []report.Point{
		{Label: "North", Value: 30},
		{Label: "South", Value: 20},
		{Label: "West", Value: 50},
	}, chart.Series[0].Points)

	require.Len(t, vc.tables, 1)
	table := vc.tables[0]
	assert.Equal(t, []string{"region", "Total of amount", "Rows"}, table.Columns)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, []dataset.Value{dataset.String("Total"), dataset.Float(100), dataset.Int(5)}, table.Rows[3])
}

func TestGroupedMeasure_FilterAndShare(t *testing.T) {
	g := GroupedMeasure{
		Title:       "Revenue",
		Data:        ordersFrame(t),
		Measure:     "amount",
		Aggregation: frame.AggMean,
		TotalLabel:  "合计",
		Share:       true,
	}
	vc := &stubContext{bindings: bindings(dataset.String("North"), dataset.String("South")), axis: "year"}

	art, err := g.Compute(vc)
	require.NoError(t, err)
	require.True(t, art.IsList())
	figs := art.Figures()
	require.Len(t, figs, 2)

	assert.Equal(t, []report.Point{
		{Label: "2023", Value: 7.5},
		{Label: "2024", Value: 17.5},
	}, figs[0].Series[0].Points)

	assert.Equal(t, report.ChartPie, figs[1].Kind)
	assert.InDelta(t, 30.0, figs[1].Series[0].Points[0].Value, 1e-9)
	assert.InDelta(t, 70.0, figs[1].Series[0].Points[1].Value, 1e-9)

	last := vc.tables[0].Rows[len(vc.tables[0].Rows)-1]
	assert.Equal(t, dataset.String("合计"), last[0])
	assert.Equal(t, dataset.Float(12.5), last[1])
}

func TestGroupedMeasure_Errors(t *testing.T) {
	vc := &stubContext{bindings: bindings(dataset.All), axis: "region"}

	_, err := GroupedMeasure{Data: ordersFrame(t), Measure: "missing"}.Compute(vc)
	assert.Error(t, err)

	_, err = GroupedMeasure{Measure: "amount"}.Compute(vc)
	assert.Error(t, err)

	vc.axis = "nope"
	_, err = GroupedMeasure{Data: ordersFrame(t), Measure: "amount"}.Compute(vc)
	assert.Error(t, err)
}

func TestGroupedMeasure_View(t *testing.T) {
	g := GroupedMeasure{Title: "Revenue", Data: ordersFrame(t), Measure: "amount"}
	v := g.View("## About\nsum of amount")
	require.NotNil(t, v.Narrative)
	assert.Equal(t, "Revenue", v.Title)
	assert.Nil(t, g.View("").Narrative)
}
