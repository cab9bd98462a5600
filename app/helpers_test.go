package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/frame"
)

var testLogger = internal.NewDiscardLogger()

// salesFrame builds year (5 values), product (80 values), region (3 values)
// and an amount column
func salesFrame(t *testing.T) *frame.Frame {
	t.Helper()
	headers := []string{"year", "product", "region", "amount"}
	regions := []string{"North", "South", "West"}
	var rows [][]string
	for i := 0; i < 400; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("%d", 2021+i%5),
			fmt.Sprintf("P%02d", i%80),
			regions[i%3],
			fmt.Sprintf("%d", 10+i),
		})
	}
	f, err := frame.FromStrings(headers, rows)
	require.NoError(t, err)
	return f
}

// cardinalityFrame builds a single column "f" with n distinct values
func cardinalityFrame(t *testing.T, n int) *frame.Frame {
	t.Helper()
	var rows [][]string
	for i := 0; i < n; i++ {
		rows = append(rows, []string{fmt.Sprintf("v%03d", i)})
	}
	f, err := frame.FromStrings([]string{"f"}, rows)
	require.NoError(t, err)
	return f
}

// recordingSurface captures everything the engine shows
type recordingSurface struct {
	mu      sync.Mutex
	tables  []report.Table
	charts  [][]report.Chart
	errs    []error
	cleared int
}

func (s *recordingSurface) ShowTable(t report.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, t)
}

func (s *recordingSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

func (s *recordingSurface) ShowCharts(c []report.Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = append(s.charts, c)
}

func (s *recordingSurface) ShowError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

// countingView emits one table per call and returns a bar chart with one
// point per bound field
func countingView(vc report.ViewContext) (report.Artifact, error) {
	vc.Emit(report.Table{Title: "by " + vc.Axis(), Columns: []string{vc.Axis()}})
	var pts []report.Point
	for _, name := range vc.Bindings().Names() {
		vals, all := vc.Bindings().Selected(name)
		n := float64(len(vals))
		if all {
			n = -1
		}
		pts = append(pts, report.Point{Label: name, Value: n})
	}
	return report.SingleChart(report.Chart{
		Kind:   report.ChartBar,
		Title:  "selection sizes",
		Series: []report.Series{{Name: vc.Axis(), Points: pts}},
	}), nil
}
