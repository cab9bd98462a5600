package report

import (
	"context"

	"autodash/domain/dashboard"
)

// ViewContext is what a view function sees during one invocation.
// Emit is the side channel for tables; where they go depends on the path
// (live display or headless capture), never on the view itself.
type ViewContext interface {
	Context() context.Context
	Bindings() dashboard.BindingSnapshot
	Axis() string
	Emit(t Table)
}

// ViewFunc computes the primary chart output for the current bindings
type ViewFunc func(vc ViewContext) (Artifact, error)

// View is a view function plus its descriptor
type View struct {
	Title string
	// Narrative is explanatory text destined for the exported document.
	Narrative *string
	// Doc is free-form documentation. When Narrative is nil, a
	// [REPORT_METADATA] block inside Doc is used instead.
	Doc  string
	Func ViewFunc
}

// WithNarrative returns a copy of v carrying the given narrative
func (v View) WithNarrative(text string) View {
	v.Narrative = &text
	return v
}
