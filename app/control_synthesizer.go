package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/internal"
	"autodash/internal/config"
	"autodash/internal/errors"
	"autodash/ports"
)

// Cardinality tiers. A field with at most singleChoiceMax distinct values
// becomes a single-choice control; up to multiChoiceMax a multi-choice one;
// anything above is still multi-choice but flagged high-cardinality.
const (
	singleChoiceMax      = 10
	multiChoiceMax       = 50
	mediumDefaultCount   = 3
	highCardDefaultCount = 5
)

// Synthesis is the outcome of one control synthesis run
type Synthesis struct {
	Controls        []dashboard.Control
	Dimensions      []string
	HighCardinality []string
	Warnings        []string
	Log             []string
}

// DataControls returns the synthesized controls without the axis control
func (s *Synthesis) DataControls() []dashboard.Control {
	out := make([]dashboard.Control, 0, len(s.Controls))
	for _, c := range s.Controls {
		if !c.IsMeta() {
			out = append(out, c)
		}
	}
	return out
}

// ControlSynthesizer builds filter controls from dataset statistics
type ControlSynthesizer struct {
	logger *internal.Logger
}

// NewControlSynthesizer creates a synthesizer
func NewControlSynthesizer(logger *internal.Logger) *ControlSynthesizer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ControlSynthesizer{logger: logger.With("synthesizer")}
}

// Synthesize creates one control per usable dimension plus the aggregation
// axis control. Unusable fields are skipped with a warning; zero usable
// fields is fatal.
func (s *ControlSynthesizer) Synthesize(ctx context.Context, ds ports.DatasetPort, dims []string, strategy dashboard.Strategy) (*Synthesis, error) {
	columns, err := ds.Columns(ctx)
	if err != nil {
		return nil, errors.DatasetError("failed to enumerate dataset columns", err)
	}
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.Name] = true
	}

	result := &Synthesis{}
	s.record(result, "building controls for %d requested dimensions (strategy=%s)", len(dims), strategy)

	seen := make(map[string]bool, len(dims))
	for _, dim := range dims {
		if seen[dim] {
			s.warn(result, "field %q requested twice, keeping the first", dim)
			continue
		}
		seen[dim] = true

		if !known[dim] {
			s.warn(result, "%v", core.NewFieldMissingError(dim))
			continue
		}

		values, err := ds.Distinct(ctx, dim)
		if err != nil {
			s.warn(result, "field %q: failed to compute distinct values: %v", dim, err)
			continue
		}
		values = normalizeDistinct(values)
		if len(values) == 0 {
			s.warn(result, "%v", core.NewEmptyValueSetError(dim))
			continue
		}

		ctrl := buildControl(dim, values, strategy)
		result.Controls = append(result.Controls, ctrl)
		result.Dimensions = append(result.Dimensions, dim)

		if ctrl.HighCardinality {
			result.HighCardinality = append(result.HighCardinality, dim)
			s.warn(result, "field %q has %d distinct values; consider a cascading filter", dim, len(values))
		}
		s.record(result, "%s: %s (%d options + %s, default: %s)",
			dim, ctrl.Kind, len(values), dataset.AllLabel, ctrl.ValueLabel(", "))
	}

	if len(result.Controls) == 0 {
		s.logger.Error("no usable dimensions among %v", dims)
		return nil, errors.SynthesisError(core.ErrNoUsableDimensions)
	}

	axis := buildAxisControl(result.Dimensions)
	result.Controls = append(result.Controls, axis)
	s.record(result, "%s: %s (%d dimensions, default: %s)",
		axis.Name, axis.Kind, len(axis.Options), axis.ValueLabel(", "))

	return result, nil
}

// normalizeDistinct drops nulls and duplicates and sorts by natural order
func normalizeDistinct(values []dataset.Value) []dataset.Value {
	seen := make(map[string]bool, len(values))
	out := make([]dataset.Value, 0, len(values))
	for _, v := range values {
		if v.IsNull() || v.IsAll() {
			continue
		}
		k := v.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

func buildControl(name string, values []dataset.Value, strategy dashboard.Strategy) dashboard.Control {
	options := make([]dataset.Value, 0, len(values)+1)
	options = append(options, dataset.All)
	options = append(options, values...)

	ctrl := dashboard.Control{
		Name:          name,
		Label:         name,
		Role:          dashboard.RoleData,
		Options:       options,
		DistinctCount: len(values),
	}

	n := len(values)
	switch {
	case n <= singleChoiceMax:
		ctrl.Kind = dashboard.SingleChoice
		ctrl.Value = []dataset.Value{dataset.All}
	case n <= multiChoiceMax:
		ctrl.Kind = dashboard.MultiChoice
		ctrl.Value = defaultSelection(values, strategy, mediumDefaultCount)
	default:
		ctrl.Kind = dashboard.MultiChoice
		ctrl.Value = defaultSelection(values, strategy, highCardDefaultCount)
		ctrl.HighCardinality = true
		ctrl.Label = name + " (many options)"
	}
	return ctrl
}

func defaultSelection(values []dataset.Value, strategy dashboard.Strategy, n int) []dataset.Value {
	if strategy == dashboard.StrategySelectAll {
		return []dataset.Value{dataset.All}
	}
	if n > len(values) {
		n = len(values)
	}
	return append([]dataset.Value(nil), values[:n]...)
}

func buildAxisControl(dims []string) dashboard.Control {
	options := make([]dataset.Value, len(dims))
	for i, d := range dims {
		options[i] = dataset.String(d)
	}
	return dashboard.Control{
		Name:          dashboard.AggregationAxisName,
		Label:         "Aggregation axis (group by)",
		Kind:          dashboard.SingleChoice,
		Role:          dashboard.RoleAggregationAxis,
		Options:       options,
		Value:         []dataset.Value{options[0]},
		DistinctCount: len(dims),
	}
}

func (s *ControlSynthesizer) record(r *Synthesis, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	r.Log = append(r.Log, line)
	s.logger.Info("%s", line)
}

func (s *ControlSynthesizer) warn(r *Synthesis, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, line)
	s.logger.Warn("%s", line)
}

// controlDefinition is the TOML shape of a hand-written control
type controlDefinition struct {
	Name    string   `toml:"name"`
	Label   string   `toml:"label"`
	Kind    string   `toml:"kind"`
	Options []string `toml:"options"`
	Default []string `toml:"default"`
}

// Equivalent renders the synthesized controls as a TOML snippet an operator
// can copy and customise instead of relying on synthesis
func (s *Synthesis) Equivalent() (string, error) {
	doc := struct {
		Controls []controlDefinition `toml:"controls"`
	}{}
	for _, c := range s.Controls {
		doc.Controls = append(doc.Controls, controlDefinition{
			Name:    c.Name,
			Label:   c.Label,
			Kind:    string(c.Kind),
			Options: dataset.Labels(c.Options),
			Default: dataset.Labels(c.Value),
		})
	}
	out, err := config.EncodeDefinition(doc)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode control definitions")
	}
	return strings.TrimSpace(out) + "\n", nil
}
