package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/errors"
	"autodash/ports"
)

// Narrative block markers accepted inside a view's Doc
var narrativeTags = []string{"REPORT_METADATA", "METADATA"}

// CaptureContext is the view context used for headless capture. Emitted
// tables are recorded in order and then forwarded to an optional
// downstream sink. After Seal the context rejects further emissions.
type CaptureContext struct {
	ctx        context.Context
	bindings   dashboard.BindingSnapshot
	axis       string
	downstream ports.TableSink

	mu     sync.Mutex
	tables []report.Table
	sealed bool
	leaked int
}

// NewCaptureContext creates a capture context for one view invocation
func NewCaptureContext(ctx context.Context, bindings dashboard.BindingSnapshot, axis string, downstream ports.TableSink) *CaptureContext {
	if downstream == nil {
		downstream = ports.DiscardSink{}
	}
	return &CaptureContext{ctx: ctx, bindings: bindings, axis: axis, downstream: downstream}
}

func (c *CaptureContext) Context() context.Context            { return c.ctx }
func (c *CaptureContext) Bindings() dashboard.BindingSnapshot { return c.bindings }
func (c *CaptureContext) Axis() string                        { return c.axis }

// Emit records t and forwards it downstream
func (c *CaptureContext) Emit(t report.Table) {
	c.mu.Lock()
	if c.sealed {
		c.leaked++
		c.mu.Unlock()
		return
	}
	c.tables = append(c.tables, t.Clone())
	c.mu.Unlock()
	c.downstream.ShowTable(t)
}

// Seal stops recording and returns the tables recorded so far
func (c *CaptureContext) Seal() []report.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	return append([]report.Table(nil), c.tables...)
}

// Tables returns the tables recorded so far
func (c *CaptureContext) Tables() []report.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]report.Table(nil), c.tables...)
}

// Err reports a capture error if a view kept emitting after the capture
// returned, which means it retained the context past its invocation
func (c *CaptureContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.leaked > 0 {
		return errors.CaptureError(fmt.Errorf("%w (%d tables)", core.ErrLeakedCapture, c.leaked))
	}
	return nil
}

// CapturePipeline re-runs dashboard views headlessly for export
type CapturePipeline struct {
	downstream ports.TableSink
	logger     *internal.Logger
	now        func() time.Time

	mu       sync.Mutex
	contexts []*CaptureContext
}

// NewCapturePipeline creates a pipeline. downstream receives every recorded
// table after it is recorded and may be nil.
func NewCapturePipeline(downstream ports.TableSink, logger *internal.Logger) *CapturePipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CapturePipeline{
		downstream: downstream,
		logger:     logger.With("capture"),
		now:        time.Now,
	}
}

// Capture invokes the dashboard's view once with its current bindings and
// collects figures, tables, narrative and the control snapshot. A failing
// view yields a result with no outputs and a warning; it is not an error.
func (p *CapturePipeline) Capture(ctx context.Context, d *Dashboard) (*report.CaptureResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &report.CaptureResult{
		DashboardID: d.ID,
		Title:       d.Title,
		Controls:    d.Registry.Snapshot(),
		CapturedAt:  p.now(),
	}

	narrative, err := ResolveNarrative(d.View)
	if err != nil {
		p.warn(result, "%s: %v", d.Title, errors.RenderError(err))
	}
	result.Narrative = narrative

	bindings := d.Registry.DataValues()
	axis, err := d.Registry.AggregationAxis()
	if err != nil {
		p.logger.Error("%s: %v", d.Title, err)
		return nil, fmt.Errorf("failed to capture %q: %w", d.Title, err)
	}

	cc := NewCaptureContext(ctx, bindings, axis, p.downstream)
	p.mu.Lock()
	p.contexts = append(p.contexts, cc)
	p.mu.Unlock()

	art, err := invokeView(d.View.Func, cc)
	tables := cc.Seal()
	if err != nil {
		p.warn(result, "%v", errors.ComputeError(core.NewComputeError(d.Title, err)))
		return result, nil
	}

	result.Figures = art.Figures()
	result.Tables = tables
	if len(result.Figures) == 0 {
		p.warn(result, "%s: %v", d.Title, core.ErrEmptyOutput)
	}
	p.checkDivergence(result, d, bindings, axis)

	p.logger.Info("captured %s: %d figures, %d tables", d.Title, len(result.Figures), len(result.Tables))
	return result, nil
}

// CaptureAll captures every dashboard in order. Per-dashboard view
// failures are recorded on the results; an unset axis or a leaked capture
// context aborts.
func (p *CapturePipeline) CaptureAll(ctx context.Context, dashboards []*Dashboard) ([]*report.CaptureResult, error) {
	results := make([]*report.CaptureResult, 0, len(dashboards))
	for _, d := range dashboards {
		r, err := p.Capture(ctx, d)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := p.Verify(); err != nil {
		return nil, err
	}
	return results, nil
}

// Verify fails if any capture context was written to after it was sealed
func (p *CapturePipeline) Verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cc := range p.contexts {
		if err := cc.Err(); err != nil {
			p.logger.Error("%v", err)
			return err
		}
	}
	return nil
}

// checkDivergence compares the captured figures with the last live render
// of the same bindings
func (p *CapturePipeline) checkDivergence(result *report.CaptureResult, d *Dashboard, bindings dashboard.BindingSnapshot, axis string) {
	if d.Engine == nil {
		return
	}
	live := d.Engine.lastRendered()
	if live.inputs.IsEmpty() {
		return
	}
	in, err := bindingFingerprint(bindings, axis)
	if err != nil || !in.Equals(live.inputs) {
		return
	}
	out, err := core.Fingerprint(result.Figures)
	if err != nil {
		return
	}
	if !out.Equals(live.figures) {
		p.warn(result, "%s: %v: captured charts differ from the last live render", d.Title, core.ErrNonDeterministic)
	}
}

func (p *CapturePipeline) warn(r *report.CaptureResult, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.AddWarning(msg)
	p.logger.Warn("%s", msg)
}

// ResolveNarrative returns the view's narrative. The explicit field wins;
// otherwise a [REPORT_METADATA] (or [METADATA]) block in Doc is used.
// An open marker without its close marker is reported as malformed.
func ResolveNarrative(v report.View) (*string, error) {
	if v.Narrative != nil {
		text := strings.TrimSpace(*v.Narrative)
		if text == "" {
			return nil, nil
		}
		return &text, nil
	}
	return extractNarrative(v.Doc)
}

func extractNarrative(doc string) (*string, error) {
	for _, tag := range narrativeTags {
		open := "[" + tag + "]"
		closeTag := "[/" + tag + "]"
		i := strings.Index(doc, open)
		if i < 0 {
			continue
		}
		rest := doc[i+len(open):]
		j := strings.Index(rest, closeTag)
		if j < 0 {
			return nil, fmt.Errorf("%w: %s without %s", core.ErrMalformedNarrative, open, closeTag)
		}
		text := strings.TrimSpace(rest[:j])
		if text == "" {
			return nil, nil
		}
		return &text, nil
	}
	return nil, nil
}
