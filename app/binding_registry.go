package app

import (
	"sync"

	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/internal/errors"
)

// BindingRegistry holds the live controls of one dashboard instance.
// The display surface mutates values through Set, SetMeta and SetAxis;
// everything else reads copies. Data and meta controls are indexed
// separately, so a data field may share a name with a system control.
type BindingRegistry struct {
	mu       sync.RWMutex
	controls []dashboard.Control
	data     map[string]int
	meta     map[string]int
}

// NewBindingRegistry takes ownership of copies of the given controls
func NewBindingRegistry(controls []dashboard.Control) *BindingRegistry {
	r := &BindingRegistry{
		controls: make([]dashboard.Control, len(controls)),
		data:     make(map[string]int, len(controls)),
		meta:     make(map[string]int),
	}
	for i, c := range controls {
		r.controls[i] = c.Clone()
		if c.IsMeta() {
			r.meta[c.Name] = i
		} else {
			r.data[c.Name] = i
		}
	}
	return r
}

// AllControls returns every control, meta controls included
func (r *BindingRegistry) AllControls() []dashboard.Control {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dashboard.Control, len(r.controls))
	for i, c := range r.controls {
		out[i] = c.Clone()
	}
	return out
}

// DataControls returns the business filter controls only
func (r *BindingRegistry) DataControls() []dashboard.Control {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dashboard.Control, 0, len(r.controls))
	for _, c := range r.controls {
		if !c.IsMeta() {
			out = append(out, c.Clone())
		}
	}
	return out
}

// DataValues returns the current business filter values
func (r *BindingRegistry) DataValues() dashboard.BindingSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return dashboard.NewBindingSnapshot(r.controls)
}

// AggregationAxis returns the field currently chosen as grouping key
func (r *BindingRegistry) AggregationAxis() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.controls {
		if c.Role != dashboard.RoleAggregationAxis {
			continue
		}
		if len(c.Value) == 0 {
			break
		}
		return c.Value[0].Label(), nil
	}
	return "", errors.BindingError(core.ErrAxisUnset)
}

// Snapshot freezes every control's current value for export
func (r *BindingRegistry) Snapshot() []dashboard.ControlSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dashboard.ControlSnapshot, len(r.controls))
	for i, c := range r.controls {
		out[i] = dashboard.ControlSnapshot{
			Name:  c.Name,
			Label: c.Label,
			Role:  c.Role,
			Value: append([]dataset.Value(nil), c.Value...),
		}
	}
	return out
}

// Set replaces a data control's value. Values must be drawn from the
// control's options; single-choice controls take exactly one value.
func (r *BindingRegistry) Set(name string, values []dataset.Value) error {
	return r.set(r.data, name, values)
}

// SetMeta is Set for system controls such as the aggregation axis
func (r *BindingRegistry) SetMeta(name string, values []dataset.Value) error {
	return r.set(r.meta, name, values)
}

// SetAxis selects the field the view groups by
func (r *BindingRegistry) SetAxis(field string) error {
	r.mu.RLock()
	name, found := "", false
	for _, c := range r.controls {
		if c.Role == dashboard.RoleAggregationAxis {
			name, found = c.Name, true
			break
		}
	}
	r.mu.RUnlock()
	if !found {
		return errors.BindingError(core.ErrAxisUnset)
	}
	return r.setLabels(r.meta, name, []string{field})
}

// SetLabels resolves option labels (as submitted by an HTML form) to values
// and sets them on a data control
func (r *BindingRegistry) SetLabels(name string, labels []string) error {
	return r.setLabels(r.data, name, labels)
}

// SetMetaLabels is SetLabels for system controls
func (r *BindingRegistry) SetMetaLabels(name string, labels []string) error {
	return r.setLabels(r.meta, name, labels)
}

func (r *BindingRegistry) set(index map[string]int, name string, values []dataset.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := index[name]
	if !ok {
		return errors.BindingError(core.ErrUnknownControl)
	}
	c := &r.controls[i]
	if c.Kind == dashboard.SingleChoice && len(values) != 1 {
		return errors.InvalidInput(name + " is single-choice and takes exactly one value")
	}
	for _, v := range values {
		if !dataset.Contains(c.Options, v) {
			return errors.BindingError(core.NewInvalidOptionError(name, v.Label()))
		}
	}
	c.Value = append([]dataset.Value(nil), values...)
	return nil
}

func (r *BindingRegistry) setLabels(index map[string]int, name string, labels []string) error {
	r.mu.RLock()
	i, ok := index[name]
	var options []dataset.Value
	if ok {
		options = r.controls[i].Options
	}
	r.mu.RUnlock()
	if !ok {
		return errors.BindingError(core.ErrUnknownControl)
	}

	byLabel := make(map[string]dataset.Value, len(options))
	for _, o := range options {
		byLabel[o.Label()] = o
	}
	values := make([]dataset.Value, 0, len(labels))
	for _, l := range labels {
		v, ok := byLabel[l]
		if !ok {
			return errors.BindingError(core.NewInvalidOptionError(name, l))
		}
		values = append(values, v)
	}
	return r.set(index, name, values)
}
