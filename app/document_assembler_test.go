package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/domain/report"
)

func fixedAssembler() *DocumentAssembler {
	a := NewDocumentAssembler(testLogger)
	a.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return a
}

func longTable(n int, last string) report.Table {
	t := report.Table{Title: "detail", Columns: []string{"region", "amount"}}
	for i := 0; i < n-1; i++ {
		t.Rows = append(t.Rows, []dataset.Value{dataset.String(fmt.Sprintf("r%d", i)), dataset.Int(int64(i))})
	}
	t.Rows = append(t.Rows, []dataset.Value{dataset.String(last), dataset.Int(999999)})
	return t
}

func TestTableBlock_PinsTotalRow(t *testing.T) {
	a := fixedAssembler()
	for _, marker := range []string{"合计", "Total", "Grand Total", "小计 (East)"} {
		t.Run(marker, func(t *testing.T) {
			block := a.TableBlock(longTable(150, marker))
			assert.True(t, block.Truncated)
			assert.True(t, block.Pinned)
			assert.Equal(t, 150, block.TotalRows)
			require.Len(t, block.Rows, MaxTableRows+1)

			last := block.Rows[len(block.Rows)-1]
			assert.Equal(t, []string{marker, "999,999"}, last.Cells)
			assert.True(t, last.Aggregate)
			assert.False(t, last.Ellipsis)
		})
	}
}

func TestTableBlock_EllipsisWhenNoTotal(t *testing.T) {
	block := fixedAssembler().TableBlock(longTable(150, "r149"))
	assert.True(t, block.Truncated)
	assert.False(t, block.Pinned)
	require.Len(t, block.Rows, MaxTableRows+1)
	last := block.Rows[len(block.Rows)-1]
	assert.True(t, last.Ellipsis)
	assert.Equal(t, "r99", block.Rows[MaxTableRows-1].Cells[0])
}

func TestTableBlock_ShortTableUnchanged(t *testing.T) {
	block := fixedAssembler().TableBlock(longTable(5, "Total"))
	assert.False(t, block.Truncated)
	require.Len(t, block.Rows, 5)
	assert.True(t, block.Rows[4].Aggregate)
	assert.False(t, block.Rows[0].Aggregate)
}

func TestFormatCell(t *testing.T) {
	a := fixedAssembler()
	tests := []struct {
		in   dataset.Value
		want string
	}{
		{dataset.Int(1234567), "1,234,567"},
		{dataset.Int(-42), "-42"},
		{dataset.Float(1234.5), "1,234.50"},
		{dataset.Float(0.126), "0.13"},
		{dataset.Null(), NullPlaceholder},
		{dataset.String("North"), "North"},
		{dataset.Time(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), "2024-01-02"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.FormatCell(tt.in), "%v", tt.in)
	}
}

func TestParseNarrative(t *testing.T) {
	blocks := ParseNarrative("## Summary\nRevenue grew **12%**\nyear over year.\n\n- first point\n* second **bold**\n### Detail\nplain")
	require.Len(t, blocks, 6)

	assert.Equal(t, report.BlockHeading2, blocks[0].Kind)
	assert.Equal(t, "Summary", blocks[0].Text())

	assert.Equal(t, report.BlockParagraph, blocks[1].Kind)
	assert.Equal(t, []report.Span{
		{Text: "Revenue grew "},
		{Text: "12%", Bold: true},
		{Text: " year over year."},
	}, blocks[1].Spans)

	assert.Equal(t, report.BlockBullet, blocks[2].Kind)
	assert.Equal(t, report.BlockBullet, blocks[3].Kind)
	assert.Equal(t, report.Span{Text: "bold", Bold: true}, blocks[3].Spans[1])
	assert.Equal(t, report.BlockHeading3, blocks[4].Kind)
	assert.Equal(t, "plain", blocks[5].Text())
}

func TestParseNarrative_UnpairedBold(t *testing.T) {
	blocks := ParseNarrative("a **b** c **d")
	require.Len(t, blocks, 1)
	assert.Equal(t, []report.Span{
		{Text: "a "},
		{Text: "b", Bold: true},
		{Text: " c **d"},
	}, blocks[0].Spans)
}

func chartsN(n int) []report.Chart {
	out := make([]report.Chart, n)
	for i := range out {
		out[i] = report.Chart{Kind: report.ChartBar}
	}
	out[0].Title = "Revenue"
	return out
}

func TestAssemble_Layout(t *testing.T) {
	narrative := "## Notes\ntext"
	captures := []*report.CaptureResult{
		{
			Title:     "first",
			Narrative: &narrative,
			Controls: []dashboard.ControlSnapshot{
				{Name: "product", Value: []dataset.Value{dataset.String("A"), dataset.String("B")}},
				{Name: dashboard.AggregationAxisName, Label: "Aggregation axis (group by)", Value: []dataset.Value{dataset.String("product")}},
			},
			Tables:  []report.Table{longTable(3, "Total")},
			Figures: chartsN(5),
		},
		{Title: "second", Figures: chartsN(1)},
	}

	doc := fixedAssembler().Assemble(captures, AssembleOptions{Title: "Q1", Author: "ops"})

	require.IsType(t, report.Cover{}, doc.Nodes[0])
	cover := doc.Nodes[0].(report.Cover)
	assert.Equal(t, "ops", cover.Author)
	assert.Equal(t, 2025, cover.Date.Year())

	kinds := make([]report.NodeKind, len(doc.Nodes))
	for i, n := range doc.Nodes {
		kinds[i] = n.Kind()
	}
	assert.Equal(t, []report.NodeKind{
		report.NodeCover, report.NodePageBreak,
		report.NodeHeading, report.NodeNarrative, report.NodeConfigList, report.NodeTable,
		report.NodeChart, report.NodeChart, report.NodePageBreak,
		report.NodeChart, report.NodeChart, report.NodePageBreak,
		report.NodeChart, report.NodePageBreak,
		report.NodeHeading, report.NodeChart,
	}, kinds)

	cfg := doc.Nodes[4].(report.ConfigList)
	assert.Equal(t, report.ConfigItem{Name: "product", Value: "A, B", Values: []string{"A", "B"}}, cfg.Items[0])
	assert.Equal(t, "Aggregation axis (group by)", cfg.Items[1].Name)

	first := doc.Nodes[6].(report.ChartBlock)
	second := doc.Nodes[7].(report.ChartBlock)
	assert.Equal(t, "Revenue", first.Title)
	assert.Equal(t, "Chart 2", second.Title)
}

func TestAssemble_FailedInstanceKeepsSection(t *testing.T) {
	captures := []*report.CaptureResult{
		{Title: "ok", Figures: chartsN(1), Tables: []report.Table{longTable(2, "x")}},
		{Title: "broken", Warnings: []string{"compute error: boom"}},
	}
	doc := fixedAssembler().Assemble(captures, AssembleOptions{Title: "T"})

	assert.Equal(t, 2, doc.Count(report.NodeHeading))
	assert.Equal(t, 1, doc.Count(report.NodeChart))
	assert.Equal(t, 1, doc.Count(report.NodeTable))
	assert.Equal(t, 1, doc.Count(report.NodeNotice))
	assert.Equal(t, []string{"compute error: boom"}, doc.Warnings)

	last := doc.Nodes[len(doc.Nodes)-1]
	assert.Equal(t, report.NodeNotice, last.Kind())
}
