package ui

import (
	"sync"
	"time"

	"autodash/domain/report"
)

// Surface is the in-memory live display for one dashboard. The recompute
// engine writes to it; page handlers read a copy.
type Surface struct {
	mu      sync.RWMutex
	charts  []report.Chart
	tables  []report.Table
	err     error
	renders int
	updated time.Time
}

// SurfaceState is a point-in-time copy of what the surface shows
type SurfaceState struct {
	Charts  []report.Chart
	Tables  []report.Table
	Err     error
	Renders int
	Updated time.Time
}

// NewSurface creates an empty surface
func NewSurface() *Surface {
	return &Surface{}
}

// Clear implements ports.DisplaySurface
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = nil
	s.tables = nil
	s.err = nil
}

// ShowTable implements ports.TableSink
func (s *Surface) ShowTable(t report.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, t.Clone())
}

// ShowCharts implements ports.DisplaySurface
func (s *Surface) ShowCharts(charts []report.Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = append([]report.Chart(nil), charts...)
	s.renders++
	s.updated = time.Now()
}

// ShowError implements ports.DisplaySurface
func (s *Surface) ShowError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.updated = time.Now()
}

// State returns a copy of the current display
func (s *Surface) State() SurfaceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SurfaceState{
		Charts:  append([]report.Chart(nil), s.charts...),
		Tables:  append([]report.Table(nil), s.tables...),
		Err:     s.err,
		Renders: s.renders,
		Updated: s.updated,
	}
}
