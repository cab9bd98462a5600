package app

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodash/domain/core"
	"autodash/domain/dashboard"
	"autodash/domain/dataset"
)

func registryFixture() *BindingRegistry {
	return NewBindingRegistry([]dashboard.Control{
		{
			Name:    "region",
			Kind:    dashboard.SingleChoice,
			Role:    dashboard.RoleData,
			Options: []dataset.Value{dataset.All, dataset.String("North"), dataset.String("South")},
			Value:   []dataset.Value{dataset.All},
		},
		{
			// a data field that happens to look like a system control
			Name:    "_aggregation_dimension",
			Kind:    dashboard.MultiChoice,
			Role:    dashboard.RoleData,
			Options: []dataset.Value{dataset.All, dataset.Int(1), dataset.Int(2)},
			Value:   []dataset.Value{dataset.Int(1)},
		},
		{
			Name:    dashboard.AggregationAxisName,
			Kind:    dashboard.SingleChoice,
			Role:    dashboard.RoleAggregationAxis,
			Options: []dataset.Value{dataset.String("region"), dataset.String("_aggregation_dimension")},
			Value:   []dataset.Value{dataset.String("region")},
		},
		{
			Name:    "theme",
			Kind:    dashboard.SingleChoice,
			Role:    dashboard.RoleSystem,
			Options: []dataset.Value{dataset.String("light")},
			Value:   []dataset.Value{dataset.String("light")},
		},
	})
}

func TestBindingRegistry_DataValuesExcludeMetaControls(t *testing.T) {
	r := registryFixture()

	vals := r.DataValues()
	assert.Equal(t, []string{"region", "_aggregation_dimension"}, vals.Names())
	assert.False(t, vals.Has(dashboard.AggregationAxisName))
	assert.False(t, vals.Has("theme"))

	assert.Len(t, r.AllControls(), 4)
	assert.Len(t, r.DataControls(), 2)
}

func TestBindingRegistry_AggregationAxis(t *testing.T) {
	r := registryFixture()
	axis, err := r.AggregationAxis()
	require.NoError(t, err)
	assert.Equal(t, "region", axis)

	require.NoError(t, r.SetAxis("_aggregation_dimension"))
	axis, err = r.AggregationAxis()
	require.NoError(t, err)
	assert.Equal(t, "_aggregation_dimension", axis)

	assert.True(t, stderrors.Is(r.SetAxis("year"), core.ErrInvalidOption))
	assert.True(t, stderrors.Is(r.Set(dashboard.AggregationAxisName, []dataset.Value{dataset.String("region")}), core.ErrUnknownControl))
	require.NoError(t, r.SetMeta(dashboard.AggregationAxisName, []dataset.Value{dataset.String("region")}))
	axis, _ = r.AggregationAxis()
	assert.Equal(t, "region", axis)

	bare := NewBindingRegistry(registryFixture().DataControls())
	_, err = bare.AggregationAxis()
	assert.True(t, stderrors.Is(err, core.ErrAxisUnset))
	assert.True(t, stderrors.Is(bare.SetAxis("region"), core.ErrAxisUnset))
}

func TestBindingRegistry_DataFieldNamedLikeAxis(t *testing.T) {
	r := NewBindingRegistry([]dashboard.Control{
		{
			Name:    dashboard.AggregationAxisName,
			Kind:    dashboard.SingleChoice,
			Role:    dashboard.RoleData,
			Options: []dataset.Value{dataset.All, dataset.String("a"), dataset.String("b")},
			Value:   []dataset.Value{dataset.All},
		},
		{
			Name:    "region",
			Kind:    dashboard.SingleChoice,
			Role:    dashboard.RoleData,
			Options: []dataset.Value{dataset.All, dataset.String("North")},
			Value:   []dataset.Value{dataset.All},
		},
		{
			Name:    dashboard.AggregationAxisName,
			Kind:    dashboard.SingleChoice,
			Role:    dashboard.RoleAggregationAxis,
			Options: []dataset.Value{dataset.String(dashboard.AggregationAxisName), dataset.String("region")},
			Value:   []dataset.Value{dataset.String(dashboard.AggregationAxisName)},
		},
	})

	require.NoError(t, r.Set(dashboard.AggregationAxisName, []dataset.Value{dataset.String("b")}))
	got, ok := r.DataValues().Get(dashboard.AggregationAxisName)
	require.True(t, ok)
	assert.Equal(t, []dataset.Value{dataset.String("b")}, got)

	require.NoError(t, r.SetLabels(dashboard.AggregationAxisName, []string{"a"}))
	got, _ = r.DataValues().Get(dashboard.AggregationAxisName)
	assert.Equal(t, []dataset.Value{dataset.String("a")}, got)

	require.NoError(t, r.SetAxis("region"))
	axis, err := r.AggregationAxis()
	require.NoError(t, err)
	assert.Equal(t, "region", axis)

	// the axis change left the data control alone
	got, _ = r.DataValues().Get(dashboard.AggregationAxisName)
	assert.Equal(t, []dataset.Value{dataset.String("a")}, got)
}

func TestBindingRegistry_Set(t *testing.T) {
	tests := []struct {
		name    string
		control string
		values  []dataset.Value
		wantErr error
	}{
		{"valid single", "region", []dataset.Value{dataset.String("South")}, nil},
		{"valid multi", "_aggregation_dimension", []dataset.Value{dataset.Int(1), dataset.Int(2)}, nil},
		{"empty multi", "_aggregation_dimension", nil, nil},
		{"unknown control", "nope", []dataset.Value{dataset.All}, core.ErrUnknownControl},
		{"value not an option", "region", []dataset.Value{dataset.String("East")}, core.ErrInvalidOption},
		{"string ALL is not the sentinel", "region", []dataset.Value{dataset.String("ALL")}, core.ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registryFixture()
			err := r.Set(tt.control, tt.values)
			if tt.wantErr != nil {
				assert.True(t, stderrors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			got, _ := r.DataValues().Get(tt.control)
			assert.Equal(t, len(tt.values), len(got))
		})
	}

	r := registryFixture()
	assert.Error(t, r.Set("region", []dataset.Value{dataset.String("North"), dataset.String("South")}))
}

func TestBindingRegistry_SetLabels(t *testing.T) {
	r := registryFixture()
	require.NoError(t, r.SetLabels("_aggregation_dimension", []string{"2"}))
	got, _ := r.DataValues().Get("_aggregation_dimension")
	assert.Equal(t, []dataset.Value{dataset.Int(2)}, got)

	require.NoError(t, r.SetLabels("region", []string{"ALL"}))
	_, all := r.DataValues().Selected("region")
	assert.True(t, all)

	assert.Error(t, r.SetLabels("region", []string{"East"}))
}

func TestBindingRegistry_ReturnsCopies(t *testing.T) {
	r := registryFixture()
	controls := r.AllControls()
	controls[0].Value[0] = dataset.String("South")

	got, _ := r.DataValues().Get("region")
	assert.True(t, got[0].IsAll())
}
