package app

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/internal/errors"
	"autodash/internal/frame"
)

func TestSynthesize_CardinalityTiers(t *testing.T) {
	tests := []struct {
		name     string
		distinct int
		strategy dashboard.Strategy
		kind     dashboard.ControlKind
		high     bool
		defaults int // 0 means the sentinel
	}{
		{"one value", 1, dashboard.StrategySelectFirst, dashboard.SingleChoice, false, 0},
		{"ten values", 10, dashboard.StrategySelectFirst, dashboard.SingleChoice, false, 0},
		{"eleven values select first", 11, dashboard.StrategySelectFirst, dashboard.MultiChoice, false, 3},
		{"eleven values select all", 11, dashboard.StrategySelectAll, dashboard.MultiChoice, false, 0},
		{"fifty values", 50, dashboard.StrategySelectFirst, dashboard.MultiChoice, false, 3},
		{"fifty one values", 51, dashboard.StrategySelectFirst, dashboard.MultiChoice, true, 5},
		{"fifty one values select all", 51, dashboard.StrategySelectAll, dashboard.MultiChoice, true, 0},
	}

	s := NewControlSynthesizer(testLogger)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Synthesize(context.Background(), cardinalityFrame(t, tt.distinct), []string{"f"}, tt.strategy)
			require.NoError(t, err)
			require.Len(t, res.Controls, 2)

			c := res.Controls[0]
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.high, c.HighCardinality)
			assert.Len(t, c.Options, tt.distinct+1)
			assert.True(t, c.Options[0].IsAll())
			assert.True(t, c.Accepts(c.Value), "value must be a subset of options")

			if tt.defaults == 0 {
				require.Len(t, c.Value, 1)
				assert.True(t, c.Value[0].IsAll())
			} else {
				assert.Equal(t, c.Options[1:tt.defaults+1], c.Value)
			}
		})
	}
}

func TestSynthesize_YearAndProduct(t *testing.T) {
	s := NewControlSynthesizer(testLogger)
	res, err := s.Synthesize(context.Background(), salesFrame(t), []string{"year", "product"}, dashboard.StrategySelectFirst)
	require.NoError(t, err)
	require.Len(t, res.Controls, 3)

	year := res.Controls[0]
	assert.Equal(t, "year", year.Name)
	assert.Equal(t, dashboard.SingleChoice, year.Kind)
	assert.Equal(t, []dataset.Value{
		dataset.All, dataset.Int(2021), dataset.Int(2022), dataset.Int(2023), dataset.Int(2024), dataset.Int(2025),
	}, year.Options)
	assert.Equal(t, []dataset.Value{dataset.All}, year.Value)

	product := res.Controls[1]
	assert.Equal(t, "product", product.Name)
	assert.Equal(t, dashboard.MultiChoice, product.Kind)
	assert.True(t, product.HighCardinality)
	assert.Equal(t, 80, product.DistinctCount)
	assert.Equal(t, []string{"P00", "P01", "P02", "P03", "P04"}, dataset.Labels(product.Value))
	assert.Equal(t, []string{"product"}, res.HighCardinality)
	assert.NotEmpty(t, res.Warnings)

	axis := res.Controls[2]
	assert.Equal(t, dashboard.AggregationAxisName, axis.Name)
	assert.Equal(t, dashboard.RoleAggregationAxis, axis.Role)
	assert.Equal(t, []string{"year", "product"}, dataset.Labels(axis.Options))
	assert.Equal(t, []string{"year"}, dataset.Labels(axis.Value))
	assert.False(t, dataset.Contains(axis.Options, dataset.All))
}

func TestSynthesize_SkipsUnusableFields(t *testing.T) {
	f, err := frame.FromStrings(
		[]string{"region", "empty"},
		[][]string{{"North", ""}, {"South", "NA"}, {"North", ""}},
	)
	require.NoError(t, err)

	s := NewControlSynthesizer(testLogger)
	res, err := s.Synthesize(context.Background(), f, []string{"missing", "empty", "region", "region"}, dashboard.StrategySelectAll)
	require.NoError(t, err)

	require.Len(t, res.DataControls(), 1)
	assert.Equal(t, "region", res.DataControls()[0].Name)
	assert.Equal(t, []string{"region"}, dataset.Labels(res.Controls[1].Options))
	assert.Len(t, res.Warnings, 3)
	assert.Contains(t, res.Warnings[0], "missing")
	assert.Contains(t, res.Warnings[1], "empty")
}

func TestSynthesize_NoUsableDimensions(t *testing.T) {
	s := NewControlSynthesizer(testLogger)
	_, err := s.Synthesize(context.Background(), cardinalityFrame(t, 3), []string{"nope"}, dashboard.StrategySelectAll)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, core.ErrNoUsableDimensions))
	assert.True(t, core.IsFatal(err))
	assert.Equal(t, errors.CodeSynthesisError, errors.GetCode(err))
}

func TestSynthesize_NaturalOrder(t *testing.T) {
	f, err := frame.FromStrings([]string{"n"}, [][]string{{"10"}, {"2"}, {"33"}, {"2"}, {"1"}})
	require.NoError(t, err)

	s := NewControlSynthesizer(testLogger)
	res, err := s.Synthesize(context.Background(), f, []string{"n"}, dashboard.StrategySelectAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALL", "1", "2", "10", "33"}, dataset.Labels(res.Controls[0].Options))
}

func TestSynthesis_Equivalent(t *testing.T) {
	s := NewControlSynthesizer(testLogger)
	res, err := s.Synthesize(context.Background(), salesFrame(t), []string{"region"}, dashboard.StrategySelectAll)
	require.NoError(t, err)

	out, err := res.Equivalent()
	require.NoError(t, err)
	assert.Contains(t, out, "[[controls]]")
	assert.Contains(t, out, "region")
	assert.Contains(t, out, "single-choice")
	assert.Contains(t, out, dashboard.AggregationAxisName)
	assert.NotEmpty(t, res.Log)
}

func TestSynthesize_FieldNamedLikeAxisStaysSettable(t *testing.T) {
	f, err := frame.FromStrings([]string{dashboard.AggregationAxisName, "region"}, [][]string{
		{"a", "North"},
		{"b", "South"},
	})
	require.NoError(t, err)

	res, err := NewControlSynthesizer(testLogger).Synthesize(context.Background(), f,
		[]string{dashboard.AggregationAxisName, "region"}, dashboard.StrategySelectAll)
	require.NoError(t, err)
	require.Len(t, res.Controls, 3)

	r := NewBindingRegistry(res.Controls)
	require.NoError(t, r.Set(dashboard.AggregationAxisName, []dataset.Value{dataset.String("b")}))
	got, _ := r.DataValues().Get(dashboard.AggregationAxisName)
	assert.Equal(t, []dataset.Value{dataset.String("b")}, got)

	axis, err := r.AggregationAxis()
	require.NoError(t, err)
	assert.Equal(t, dashboard.AggregationAxisName, axis)
}
