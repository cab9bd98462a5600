package ui

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"autodash/app"
	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/domain/report"
	"autodash/internal/errors"
)

type indexEntry struct {
	ID       string
	Title    string
	Controls int
	State    string
	Warnings int
}

type indexPage struct {
	Title      string
	Dashboards []indexEntry
	Formats    []string
}

type optionView struct {
	Label    string
	Selected bool
}

type controlView struct {
	ID              string
	Name            string
	Label           string
	Multiple        bool
	Meta            bool
	HighCardinality bool
	Options         []optionView
}

type chartView struct {
	Index int
	Title string
	SVG   template.HTML
	Error string
}

type dashboardPage struct {
	ID       string
	Title    string
	State    string
	Controls []controlView
	Charts   []chartView
	Tables   []report.TableBlock
	Error    string
	Flash    string
	Warnings []string
	Renders  int
	Formats  []string
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"dashboards": len(a.dashboards.List()),
	})
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Title: "Dashboards", Formats: a.formats()}
	for _, d := range a.dashboards.List() {
		page.Dashboards = append(page.Dashboards, indexEntry{
			ID:       d.ID.String(),
			Title:    d.Title,
			Controls: len(d.Registry.DataControls()),
			State:    d.Engine.State().String(),
			Warnings: len(d.Synthesis.Warnings),
		})
	}
	a.renderTemplate(w, http.StatusOK, "index", page)
}

func (a *App) dashboardFromRequest(w http.ResponseWriter, r *http.Request) (*app.Dashboard, bool) {
	id := core.DashboardID(chi.URLParam(r, "id"))
	d, ok := a.dashboards.Get(id)
	if !ok {
		http.Error(w, errors.NotFound("dashboard "+id.String()).Error(), http.StatusNotFound)
		return nil, false
	}
	return d, true
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := a.dashboardFromRequest(w, r)
	if !ok {
		return
	}
	a.renderDashboard(w, r, d, http.StatusOK, "")
}

func (a *App) renderDashboard(w http.ResponseWriter, r *http.Request, d *app.Dashboard, status int, flash string) {
	s := a.surface(d.ID)
	if s == nil {
		http.Error(w, "dashboard has no live surface", http.StatusConflict)
		return
	}
	if st := s.State(); st.Renders == 0 && st.Err == nil {
		// first visit renders the default selection
		if err := d.Engine.Trigger(r.Context()); err != nil {
			a.logger.Warn("initial render of %s: %v", d.Title, err)
		}
	}
	state := s.State()

	page := dashboardPage{
		ID:       d.ID.String(),
		Title:    d.Title,
		State:    d.Engine.State().String(),
		Controls: controlViews(d.Registry.AllControls()),
		Flash:    flash,
		Warnings: d.Synthesis.Warnings,
		Renders:  state.Renders,
		Formats:  a.formats(),
	}
	if state.Err != nil {
		page.Error = state.Err.Error()
	}
	for i, c := range state.Charts {
		page.Charts = append(page.Charts, a.chartView(c, i+1))
	}
	for _, t := range state.Tables {
		page.Tables = append(page.Tables, a.assembler.TableBlock(t))
	}
	a.renderTemplate(w, status, "dashboard", page)
}

func (a *App) chartView(c report.Chart, n int) chartView {
	cv := chartView{Index: n, Title: app.ChartTitle(c, n)}
	if a.charts == nil {
		cv.Error = "chart rendering unavailable"
		return cv
	}
	var buf bytes.Buffer
	if err := a.charts.RenderSVG(c, &buf, a.config.ChartWidth, a.config.ChartHeight); err != nil {
		cv.Error = err.Error()
		return cv
	}
	cv.SVG = template.HTML(buf.String())
	return cv
}

func controlViews(controls []dashboard.Control) []controlView {
	out := make([]controlView, 0, len(controls))
	for _, c := range controls {
		cv := controlView{
			ID:              "c-" + c.Name,
			Name:            c.Name,
			Label:           c.Label,
			Multiple:        c.Kind == dashboard.MultiChoice,
			Meta:            c.IsMeta(),
			HighCardinality: c.HighCardinality,
		}
		if cv.Meta {
			cv.ID = "m-" + c.Name
		}
		for _, o := range c.Options {
			cv.Options = append(cv.Options, optionView{Label: o.Label(), Selected: dataset.Contains(c.Value, o)})
		}
		out = append(out, cv)
	}
	return out
}

// handleSetControl applies one control change and recomputes. A rejected
// value is reported on the page; a failing view is shown by the surface.
func (a *App) handleSetControl(w http.ResponseWriter, r *http.Request) {
	d, ok := a.dashboardFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := r.PostForm.Get("control")
	labels := r.PostForm["value"]

	var err error
	if r.PostForm.Get("scope") == "meta" {
		err = d.Engine.SetMetaLabels(r.Context(), name, labels)
	} else {
		err = d.Engine.SetControlLabels(r.Context(), name, labels)
	}
	if err != nil && (core.IsBindingError(err) || errors.GetCode(err) == errors.CodeInvalidInput) {
		a.renderDashboard(w, r, d, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, "/dashboards/"+d.ID.String()+"/", http.StatusSeeOther)
}

func (a *App) handleRefresh(w http.ResponseWriter, r *http.Request) {
	d, ok := a.dashboardFromRequest(w, r)
	if !ok {
		return
	}
	if err := d.Engine.Trigger(r.Context()); err != nil {
		a.logger.Warn("refresh of %s: %v", d.Title, err)
	}
	http.Redirect(w, r, "/dashboards/"+d.ID.String()+"/", http.StatusSeeOther)
}

func (a *App) formats() []string {
	if a.exports == nil {
		return nil
	}
	return a.exports.Formats()
}

// handleExport captures every served dashboard into one document per
// requested format
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	if a.exports == nil {
		a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "export is disabled"})
		return
	}
	if err := r.ParseForm(); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	formats := r.Form["format"]
	if len(formats) == 0 {
		formats = a.exports.Formats()
	}
	req := app.ExportRequest{
		Title:    strings.TrimSpace(r.Form.Get("title")),
		Author:   a.config.Author,
		Filename: strings.TrimSpace(r.Form.Get("filename")),
		Formats:  formats,
	}

	result, err := a.exports.Export(r.Context(), a.dashboards.List(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.GetCode(err) == errors.CodeInvalidInput {
			status = http.StatusBadRequest
		}
		a.logger.Error("export failed: %v", err)
		a.writeJSON(w, status, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       result.ID.String(),
		"paths":    result.Paths,
		"warnings": result.Warnings,
	})
}
