package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"convsim/adapters/rng"
	"convsim/domain/core"
	"convsim/domain/experiment"
	"convsim/domain/run"
	"convsim/domain/stats"
	apperrors "convsim/internal/errors"
	"convsim/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardRequest() AnalysisRequest {
	return AnalysisRequest{
		Title:       "control",
		Trials:      10000,
		Experiment:  testkit.StandardExperiment(),
		Seed:        testkit.Seed(testkit.StandardSeed),
		GridSize:    250,
		Regions:     testkit.StandardRegions(),
		PrefixSizes: testkit.StandardPrefixes(),
	}
}

func TestAnalyze_StandardExperiment(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)

	report, err := svc.Analyze(context.Background(), standardRequest())
	require.NoError(t, err)

	assert.False(t, report.SessionID.String() == "")
	assert.Equal(t, 10000, report.Run.Len())
	require.NotNil(t, report.Density)
	assert.Equal(t, 250, report.Density.Len())
	assert.Empty(t, report.Failures)

	require.Len(t, report.Regions, 3)
	for _, r := range report.Regions {
		require.NotNil(t, r.Shading, "regions carry shading when a density exists")
		assert.InDelta(t, r.Analytic, r.Empirical, 0.05, r.Label)
	}

	require.Len(t, report.Convergence, 4)
	assert.Len(t, report.Convergence[0].Points, 1)
	assert.Equal(t, 10000, report.Convergence[3].PrefixLength)
	assert.Equal(t, []float64{85, 100, 115}, report.TickValues)

	require.NotNil(t, report.Profile)
	assert.InDelta(t, 100, report.Profile.Summary.Mean, 0.5)
	assert.Greater(t, report.Profile.Shape.Skewness, 0.0)
}

func TestAnalyze_Deterministic(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)
	a, err := svc.Analyze(context.Background(), standardRequest())
	require.NoError(t, err)
	b, err := svc.Analyze(context.Background(), standardRequest())
	require.NoError(t, err)

	assert.Equal(t, a.Run.Fingerprint(), b.Run.Fingerprint())
	assert.Equal(t, a.Density.Density, b.Density.Density)
	assert.Equal(t, a.Regions[0].Empirical, b.Regions[0].Empirical)
}

func TestAnalyze_DegenerateRunIsNonFatal(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)
	req := standardRequest()
	req.Trials = 100
	req.PrefixSizes = []int{10, 100}
	req.Experiment = experiment.Context{Visitors: 1000, ConversionRate: 1}

	report, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, report.Density)
	require.NotNil(t, report.Profile)
	assert.True(t, report.Profile.Degenerate)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "density", report.Failures[0].Stage)
	assert.Equal(t, "DEGENERATE_DISTRIBUTION", report.Failures[0].Code)

	require.Len(t, report.Regions, 3)
	assert.Nil(t, report.Regions[0].Shading)
	assert.Equal(t, 1.0, report.Regions[1].Empirical, "every trial converts fully")
	require.Len(t, report.Convergence, 2)
}

func TestAnalyze_SingleTrialReportEncodes(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)
	req := standardRequest()
	req.Trials = 1
	req.PrefixSizes = []int{1}

	report, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, report.Profile)
	assert.Equal(t, 0.0, report.Profile.Summary.StdDev)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestAnalyze_ValidatesEagerly(t *testing.T) {
	svc := NewAnalysisService(&testkit.FailingRNG{Err: errors.New("must not be reached")}, nil)

	tests := []struct {
		name   string
		mutate func(*AnalysisRequest)
		want   error
	}{
		{"zero trials", func(r *AnalysisRequest) { r.Trials = 0 }, core.ErrInvalidParameter},
		{"bad rate", func(r *AnalysisRequest) { r.Experiment.ConversionRate = 2 }, core.ErrInvalidParameter},
		{"bad grid", func(r *AnalysisRequest) { r.GridSize = 1 }, core.ErrInvalidParameter},
		{"unbounded region", func(r *AnalysisRequest) { r.Regions = []stats.Region{{}} }, core.ErrInvalidRegion},
		{"empty prefixes", func(r *AnalysisRequest) { r.PrefixSizes = nil }, core.ErrInvalidPrefixSequence},
		{"descending prefixes", func(r *AnalysisRequest) { r.PrefixSizes = []int{5, 1} }, core.ErrInvalidPrefixSequence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := standardRequest()
			tt.mutate(&req)
			report, err := svc.Analyze(context.Background(), req)
			assert.Nil(t, report)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestAnalyze_UnseededUsesRecordedSeed(t *testing.T) {
	svc := NewAnalysisService(testkit.NewFixedSeedRNG(7), nil)
	req := standardRequest()
	req.Seed = nil
	req.Trials = 500
	req.PrefixSizes = []int{500}

	report, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.Run.Seed)
}

func TestAnalyze_RateUnitTicks(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)
	req := standardRequest()
	req.Unit = stats.UnitRate
	req.Regions = stats.DefaultRegions(0.085, 0.115)

	report, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.085, 0.1, 0.115}, report.TickValues)
	assert.Equal(t, stats.UnitRate, report.Density.Unit)
}

func TestAnalyzeBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)

	good := standardRequest()
	good.Trials = 1000
	good.PrefixSizes = []int{1, 1000}

	bad := good
	bad.Regions = []stats.Region{{}}

	other := good
	other.Seed = testkit.Seed(7)

	results, err := svc.AnalyzeBatch(context.Background(), []AnalysisRequest{good, bad, other}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	require.NoError(t, results[0].Err)
	assert.True(t, errors.Is(results[1].Err, core.ErrInvalidRegion))
	require.NoError(t, results[2].Err)
	assert.NotEqual(t, results[0].Report.Run.Fingerprint(), results[2].Report.Run.Fingerprint())
}

func TestAnalyzeBatch_CancelledBeforeStart(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := standardRequest()
	results, err := svc.AnalyzeBatch(ctx, []AnalysisRequest{req, req}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Nil(t, r.Report)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestReportView(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)
	req := standardRequest()
	req.Title = ""
	req.Trials = 200
	req.PrefixSizes = []int{200}

	report, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	view := report.View()
	assert.Equal(t, "200 simulated experiments (visitors=1000 rate=0.1000)", view.Title)
	assert.Same(t, report.Run, view.Run)
	assert.Len(t, view.Regions, 3)
}

func TestReplay_ReproducesRun(t *testing.T) {
	svc := NewAnalysisService(testkit.NewFixedSeedRNG(99), nil)
	req := standardRequest()
	req.Seed = nil
	req.Trials = 1000
	req.PrefixSizes = []int{1000}

	report, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, report.Manifest)
	assert.Equal(t, int64(99), report.Manifest.Fingerprint.Seed)

	replayed, err := svc.Replay(context.Background(), report.Manifest)
	require.NoError(t, err)
	assert.Equal(t, report.Run.Values(), replayed.Values())
}

func TestReplay_DetectsMismatch(t *testing.T) {
	svc := NewAnalysisService(rng.NewPCGAdapter(), nil)
	report, err := svc.Analyze(context.Background(), standardRequest())
	require.NoError(t, err)

	tampered := *report.Manifest
	tampered.OutcomeHash = core.HashFloats([]float64{1, 2, 3})
	_, err = svc.Replay(context.Background(), &tampered)
	assert.ErrorIs(t, err, run.ErrReplayMismatch)

	other := *report.Manifest
	other.Fingerprint = run.NewRunFingerprint(10000, testkit.StandardExperiment(), stats.UnitCount, 42, "0.0.1")
	_, err = svc.Replay(context.Background(), &other)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
