package dashboard

import (
	"strings"

	"autodash/domain/dataset"
)

// ControlKind is the widget shape a control is rendered as
type ControlKind string

const (
	SingleChoice ControlKind = "single-choice"
	MultiChoice  ControlKind = "multi-choice"
)

// ControlRole separates business filters from system controls.
// Filtering by role is structural: a data field whose name looks like a
// system control is still a data control.
type ControlRole int

const (
	RoleData ControlRole = iota
	RoleAggregationAxis
	RoleSystem
)

// AggregationAxisName is the name given to the synthesized axis control
const AggregationAxisName = "aggregationAxis"

// Strategy picks the default selection for multi-choice controls
type Strategy string

const (
	StrategySelectAll   Strategy = "all"
	StrategySelectFirst Strategy = "first"
)

// ParseStrategy maps a config string onto a Strategy, defaulting to select-all
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "first-n", "latest":
		return StrategySelectFirst
	default:
		return StrategySelectAll
	}
}

// Control is one filter widget bound to a dataset field, or a meta control
type Control struct {
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Kind    ControlKind     `json:"kind"`
	Role    ControlRole     `json:"role"`
	Options []dataset.Value `json:"options"`
	Value   []dataset.Value `json:"value"`

	DistinctCount   int  `json:"distinct_count"`
	HighCardinality bool `json:"high_cardinality"`
}

// IsMeta reports whether the control is a system/meta control
func (c Control) IsMeta() bool {
	return c.Role != RoleData
}

// Clone returns a deep copy so callers can't mutate registry state
func (c Control) Clone() Control {
	out := c
	out.Options = append([]dataset.Value(nil), c.Options...)
	out.Value = append([]dataset.Value(nil), c.Value...)
	return out
}

// Accepts reports whether every value is one of the control's options
func (c Control) Accepts(values []dataset.Value) bool {
	for _, v := range values {
		if !dataset.Contains(c.Options, v) {
			return false
		}
	}
	return true
}

// ValueLabel joins the current value labels with sep
func (c Control) ValueLabel(sep string) string {
	return strings.Join(dataset.Labels(c.Value), sep)
}

// ControlSnapshot is the frozen name/value pair captured for export
type ControlSnapshot struct {
	Name  string          `json:"name"`
	Label string          `json:"label"`
	Role  ControlRole     `json:"role"`
	Value []dataset.Value `json:"value"`
}

// BindingSnapshot is a read-only view of the data controls' current values.
// It never contains meta controls.
type BindingSnapshot struct {
	names  []string
	values map[string][]dataset.Value
}

// NewBindingSnapshot builds a snapshot from data controls only
func NewBindingSnapshot(controls []Control) BindingSnapshot {
	s := BindingSnapshot{values: make(map[string][]dataset.Value)}
	for _, c := range controls {
		if c.IsMeta() {
			continue
		}
		s.names = append(s.names, c.Name)
		s.values[c.Name] = append([]dataset.Value(nil), c.Value...)
	}
	return s
}

// Names returns field names in control order
func (s BindingSnapshot) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of bound fields
func (s BindingSnapshot) Len() int { return len(s.names) }

// Get returns the selected values for a field
func (s BindingSnapshot) Get(name string) ([]dataset.Value, bool) {
	v, ok := s.values[name]
	if !ok {
		return nil, false
	}
	return append([]dataset.Value(nil), v...), true
}

// Has reports whether the field is bound
func (s BindingSnapshot) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Selected returns the concrete filter values for a field.
// all is true when the field should not be filtered: the sentinel is
// selected, nothing is selected, or the field is unknown.
func (s BindingSnapshot) Selected(name string) (vals []dataset.Value, all bool) {
	v, ok := s.values[name]
	if !ok || len(v) == 0 {
		return nil, true
	}
	for _, x := range v {
		if x.IsAll() {
			return nil, true
		}
	}
	return append([]dataset.Value(nil), v...), false
}

// Map returns a copy of the snapshot as a plain map
func (s BindingSnapshot) Map() map[string][]dataset.Value {
	out := make(map[string][]dataset.Value, len(s.values))
	for k, v := range s.values {
		out[k] = append([]dataset.Value(nil), v...)
	}
	return out
}
