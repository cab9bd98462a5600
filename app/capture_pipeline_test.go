package app

import (
	"context"
	stderrors "errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodash/domain/core"
	"autodash/domain/dataset"
	"autodash/domain/report"
)

func TestCapture_MatchesLivePath(t *testing.T) {
	surface := &recordingSurface{}
	d := newTestDashboard(t, report.View{Func: countingView}, surface)
	ctx := context.Background()

	require.NoError(t, d.Engine.SetControl(ctx, "region", []dataset.Value{dataset.String("West")}))
	live := surface.charts[len(surface.charts)-1]

	p := NewCapturePipeline(nil, testLogger)
	res, err := p.Capture(ctx, d)
	require.NoError(t, err)

	assert.Equal(t, live, res.Figures)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Tables, 1)
	assert.Equal(t, "by year", res.Tables[0].Title)
	assert.Len(t, surface.tables, 1, "capture tables must not reach the live surface")
}

func TestCapture_LivePathUnaffectedAfterCapture(t *testing.T) {
	surface := &recordingSurface{}
	d := newTestDashboard(t, report.View{Func: countingView}, surface)
	ctx := context.Background()

	p := NewCapturePipeline(nil, testLogger)
	_, err := p.Capture(ctx, d)
	require.NoError(t, err)

	failing := *d
	failing.View = report.View{Func: func(report.ViewContext) (report.Artifact, error) { panic("x") }}
	_, err = p.Capture(ctx, &failing)
	require.NoError(t, err)

	require.NoError(t, d.Engine.Trigger(ctx))
	assert.Len(t, surface.tables, 1)
	assert.Len(t, surface.charts, 1)
	assert.NoError(t, p.Verify())
}

func TestCapture_ForwardsToDownstream(t *testing.T) {
	downstream := &recordingSurface{}
	d := newTestDashboard(t, report.View{Func: countingView}, &recordingSurface{})

	p := NewCapturePipeline(downstream, testLogger)
	res, err := p.Capture(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, res.Tables, downstream.tables)
}

func TestCapture_ViewFailureIsRecorded(t *testing.T) {
	view := func(vc report.ViewContext) (report.Artifact, error) {
		vc.Emit(report.Table{Title: "partial"})
		return report.Artifact{}, stderrors.New("division by zero")
	}
	d := newTestDashboard(t, report.View{Func: view}, &recordingSurface{})

	p := NewCapturePipeline(nil, testLogger)
	res, err := p.Capture(context.Background(), d)
	require.NoError(t, err)
	assert.Empty(t, res.Figures)
	assert.Empty(t, res.Tables)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "division by zero")
	assert.True(t, res.Failed())
	assert.NotEmpty(t, res.Controls)
}

func TestCapture_LeakedContextIsFatal(t *testing.T) {
	var kept report.ViewContext
	view := func(vc report.ViewContext) (report.Artifact, error) {
		kept = vc
		return report.SingleChart(report.Chart{Kind: report.ChartBar}), nil
	}
	d := newTestDashboard(t, report.View{Func: view}, &recordingSurface{})

	p := NewCapturePipeline(nil, testLogger)
	_, err := p.Capture(context.Background(), d)
	require.NoError(t, err)
	require.NoError(t, p.Verify())

	kept.Emit(report.Table{Title: "late"})
	err = p.Verify()
	require.Error(t, err)
	assert.True(t, core.IsCaptureError(err))
	assert.True(t, core.IsFatal(err))
}

func TestCapture_DetectsNonDeterministicView(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	view := func(vc report.ViewContext) (report.Artifact, error) {
		return report.SingleChart(report.Chart{
			Kind:   report.ChartBar,
			Series: []report.Series{{Points: []report.Point{{Label: "x", Value: rng.Float64()}}}},
		}), nil
	}
	d := newTestDashboard(t, report.View{Func: view}, &recordingSurface{})
	require.NoError(t, d.Engine.Trigger(context.Background()))

	res, err := NewCapturePipeline(nil, testLogger).Capture(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], core.ErrNonDeterministic.Error())
}

func TestResolveNarrative(t *testing.T) {
	explicit := "explicit text"
	tests := []struct {
		name    string
		view    report.View
		want    string
		wantNil bool
		wantErr bool
	}{
		{"explicit field wins", report.View{Narrative: &explicit, Doc: "[REPORT_METADATA]doc[/REPORT_METADATA]"}, "explicit text", false, false},
		{"report metadata block", report.View{Doc: "Sales view.\n[REPORT_METADATA]\n## Notes\nUp **12%**\n[/REPORT_METADATA]\ntrailer"}, "## Notes\nUp **12%**", false, false},
		{"legacy alias", report.View{Doc: "[METADATA] legacy [/METADATA]"}, "legacy", false, false},
		{"no block", report.View{Doc: "just docs"}, "", true, false},
		{"empty block", report.View{Doc: "[REPORT_METADATA]  [/REPORT_METADATA]"}, "", true, false},
		{"unclosed block", report.View{Doc: "[REPORT_METADATA] dangling"}, "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNarrative(tt.view)
			if tt.wantErr {
				assert.True(t, stderrors.Is(err, core.ErrMalformedNarrative))
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestCapture_MalformedNarrativeIsAWarning(t *testing.T) {
	d := newTestDashboard(t, report.View{Func: countingView, Doc: "[METADATA] open"}, &recordingSurface{})
	res, err := NewCapturePipeline(nil, testLogger).Capture(context.Background(), d)
	require.NoError(t, err)
	assert.Nil(t, res.Narrative)
	require.Len(t, res.Warnings, 1)
	assert.NotEmpty(t, res.Figures)
}
