package app

import (
	"context"
	"fmt"
	"sync"

	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/ports"
)

// Dashboard is one interactive instance: synthesized controls, their live
// bindings, the bound view and the engine driving the live surface.
type Dashboard struct {
	ID        core.DashboardID
	Title     string
	View      report.View
	Registry  *BindingRegistry
	Engine    *RecomputeEngine
	Synthesis *Synthesis
}

// DashboardRequest describes a dashboard to build
type DashboardRequest struct {
	Title      string
	Dataset    ports.DatasetPort
	Dimensions []string
	Strategy   dashboard.Strategy
	View       report.View
	Surface    ports.DisplaySurface
}

// DashboardService builds dashboards and keeps the ones currently served
type DashboardService struct {
	synthesizer *ControlSynthesizer
	logger      *internal.Logger

	mu         sync.RWMutex
	dashboards []*Dashboard
}

// NewDashboardService creates a dashboard service
func NewDashboardService(synthesizer *ControlSynthesizer, logger *internal.Logger) *DashboardService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if synthesizer == nil {
		synthesizer = NewControlSynthesizer(logger)
	}
	return &DashboardService{
		synthesizer: synthesizer,
		logger:      logger.With("dashboards"),
	}
}

// Create synthesizes controls for the request and binds the view to them.
// Zero usable dimensions is the only fatal outcome.
func (s *DashboardService) Create(ctx context.Context, req DashboardRequest) (*Dashboard, error) {
	synth, err := s.synthesizer.Synthesize(ctx, req.Dataset, req.Dimensions, req.Strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard %q: %w", req.Title, err)
	}

	surface := req.Surface
	if surface == nil {
		surface = nullSurface{}
	}
	title := req.Title
	if title == "" {
		title = req.View.Title
	}

	registry := NewBindingRegistry(synth.Controls)
	d := &Dashboard{
		ID:        core.NewDashboardID(),
		Title:     title,
		View:      req.View,
		Registry:  registry,
		Engine:    NewRecomputeEngine(title, registry, req.View, surface, s.logger),
		Synthesis: synth,
	}

	s.mu.Lock()
	s.dashboards = append(s.dashboards, d)
	s.mu.Unlock()

	s.logger.Info("dashboard %s (%s) ready with %d controls", title, d.ID.String(), len(synth.Controls))
	return d, nil
}

// List returns the dashboards in creation order
func (s *DashboardService) List() []*Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Dashboard(nil), s.dashboards...)
}

// Get finds a dashboard by id
func (s *DashboardService) Get(id core.DashboardID) (*Dashboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.dashboards {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// nullSurface is used for dashboards built only for export
type nullSurface struct{}

func (nullSurface) ShowTable(report.Table)    {}
func (nullSurface) Clear()                    {}
func (nullSurface) ShowCharts([]report.Chart) {}
func (nullSurface) ShowError(error)           {}
