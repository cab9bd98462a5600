package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/errors"
	"autodash/ports"
)

// EngineState is the recompute engine's lifecycle state
type EngineState int

const (
	StateIdle EngineState = iota
	StateComputing
	StateFailed
)

func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// RecomputeEngine re-runs a dashboard's view whenever a control changes and
// routes the result to the live display surface. Events are handled one at
// a time in arrival order: an event's view call and display update finish
// before the next event starts.
type RecomputeEngine struct {
	name     string
	registry *BindingRegistry
	view     report.View
	surface  ports.DisplaySurface
	logger   *internal.Logger

	sem *semaphore.Weighted

	mu          sync.Mutex
	state       EngineState
	lastErr     error
	lastRender  renderFingerprint
	onStateFunc func(EngineState)
}

// renderFingerprint identifies the inputs and outputs of the last good render
type renderFingerprint struct {
	inputs  core.Hash
	figures core.Hash
}

// NewRecomputeEngine wires a registry and a view to a display surface
func NewRecomputeEngine(name string, registry *BindingRegistry, view report.View, surface ports.DisplaySurface, logger *internal.Logger) *RecomputeEngine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &RecomputeEngine{
		name:     name,
		registry: registry,
		view:     view,
		surface:  surface,
		logger:   logger.With("engine"),
		sem:      semaphore.NewWeighted(1),
	}
}

// OnStateChange registers a hook called on every state transition
func (e *RecomputeEngine) OnStateChange(fn func(EngineState)) {
	e.mu.Lock()
	e.onStateFunc = fn
	e.mu.Unlock()
}

// State returns the current state
func (e *RecomputeEngine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastError returns the error of the most recent failed event, if any
func (e *RecomputeEngine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// SetControl applies a display-surface mutation and recomputes.
// An invalid value is rejected before any computation starts.
func (e *RecomputeEngine) SetControl(ctx context.Context, name string, values []dataset.Value) error {
	if err := e.registry.Set(name, values); err != nil {
		e.logger.Warn("%s: rejected change to %s: %v", e.name, name, err)
		return err
	}
	return e.Trigger(ctx)
}

// SetControlLabels is SetControl for values submitted as option labels
func (e *RecomputeEngine) SetControlLabels(ctx context.Context, name string, labels []string) error {
	if err := e.registry.SetLabels(name, labels); err != nil {
		e.logger.Warn("%s: rejected change to %s: %v", e.name, name, err)
		return err
	}
	return e.Trigger(ctx)
}

// SetMetaLabels changes a system control and recomputes
func (e *RecomputeEngine) SetMetaLabels(ctx context.Context, name string, labels []string) error {
	if err := e.registry.SetMetaLabels(name, labels); err != nil {
		e.logger.Warn("%s: rejected change to %s: %v", e.name, name, err)
		return err
	}
	return e.Trigger(ctx)
}

// SetAxis regroups the view by field and recomputes
func (e *RecomputeEngine) SetAxis(ctx context.Context, field string) error {
	if err := e.registry.SetAxis(field); err != nil {
		e.logger.Warn("%s: rejected axis %s: %v", e.name, field, err)
		return err
	}
	return e.Trigger(ctx)
}

// Trigger recomputes the view with the current bindings. A view failure is
// shown on the surface and returned as a compute error; bindings are left
// as they are.
func (e *RecomputeEngine) Trigger(ctx context.Context) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)

	e.setState(StateComputing)
	e.surface.Clear()

	bindings := e.registry.DataValues()
	axis, err := e.registry.AggregationAxis()
	if err != nil {
		e.logger.Error("%s: %v", e.name, err)
		e.fail(err)
		return err
	}

	vc := &liveContext{ctx: ctx, bindings: bindings, axis: axis, sink: e.surface}
	art, err := invokeView(e.view.Func, vc)
	if err != nil {
		cerr := errors.ComputeError(core.NewComputeError(e.name, err))
		e.logger.Warn("%s: %v", e.name, cerr)
		e.surface.ShowError(cerr)
		e.fail(cerr)
		return cerr
	}

	figures := art.Figures()
	e.surface.ShowCharts(figures)
	e.remember(bindings, axis, figures)

	e.mu.Lock()
	e.lastErr = nil
	e.mu.Unlock()
	e.setState(StateIdle)
	e.logger.Debug("%s: rendered %d figures (axis=%s)", e.name, len(figures), axis)
	return nil
}

// fail moves through Failed back to Idle so the next event is accepted
func (e *RecomputeEngine) fail(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	e.setState(StateFailed)
	e.setState(StateIdle)
}

func (e *RecomputeEngine) setState(s EngineState) {
	e.mu.Lock()
	e.state = s
	fn := e.onStateFunc
	e.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (e *RecomputeEngine) remember(bindings dashboard.BindingSnapshot, axis string, figures []report.Chart) {
	in, err := bindingFingerprint(bindings, axis)
	if err != nil {
		return
	}
	out, err := core.Fingerprint(figures)
	if err != nil {
		return
	}
	e.mu.Lock()
	e.lastRender = renderFingerprint{inputs: in, figures: out}
	e.mu.Unlock()
}

// lastRendered returns the fingerprint of the last successful live render
func (e *RecomputeEngine) lastRendered() renderFingerprint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRender
}

func bindingFingerprint(bindings dashboard.BindingSnapshot, axis string) (core.Hash, error) {
	return core.Fingerprint(struct {
		Values map[string][]dataset.Value `json:"values"`
		Axis   string                     `json:"axis"`
	}{bindings.Map(), axis})
}

// liveContext sends emitted tables straight to the display surface
type liveContext struct {
	ctx      context.Context
	bindings dashboard.BindingSnapshot
	axis     string
	sink     ports.TableSink
}

func (c *liveContext) Context() context.Context            { return c.ctx }
func (c *liveContext) Bindings() dashboard.BindingSnapshot { return c.bindings }
func (c *liveContext) Axis() string                        { return c.axis }
func (c *liveContext) Emit(t report.Table)                 { c.sink.ShowTable(t) }

// invokeView calls fn once, turning a panic into an error
func invokeView(fn report.ViewFunc, vc report.ViewContext) (art report.Artifact, err error) {
	if fn == nil {
		return art, core.ErrNoView
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", core.ErrViewPanic, r)
		}
	}()
	return fn(vc)
}
