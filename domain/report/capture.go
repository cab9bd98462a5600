package report

import (
	"time"

	"autodash/domain/core"
	"autodash/domain/dashboard"
)

// CaptureResult is one headless re-execution of a dashboard's view.
// It is produced fresh on every export and never persisted.
type CaptureResult struct {
	DashboardID core.DashboardID            `json:"dashboard_id"`
	Title       string                      `json:"title"`
	Controls    []dashboard.ControlSnapshot `json:"controls"`
	Narrative   *string                     `json:"narrative,omitempty"`
	Figures     []Chart                     `json:"figures"`
	Tables      []Table                     `json:"tables"`
	Warnings    []string                    `json:"warnings,omitempty"`
	CapturedAt  time.Time                   `json:"captured_at"`
}

// Failed reports whether the view raised during capture
func (r *CaptureResult) Failed() bool {
	return len(r.Figures) == 0 && len(r.Tables) == 0 && len(r.Warnings) > 0
}

// AddWarning records a non-fatal problem on the result
func (r *CaptureResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
