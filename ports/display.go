package ports

import "autodash/domain/report"

// TableSink receives tabular side-outputs
type TableSink interface {
	ShowTable(t report.Table)
}

// DisplaySurface is the live, interactive destination for a dashboard.
// Return values are never consumed.
type DisplaySurface interface {
	TableSink
	// Clear drops the previous render before a new computation starts
	Clear()
	ShowCharts(charts []report.Chart)
	ShowError(err error)
}

// DiscardSink drops every table
type DiscardSink struct{}

// ShowTable implements TableSink
func (DiscardSink) ShowTable(report.Table) {}
