package density

import (
	"errors"
	"testing"

	"convsim/domain/core"
	"convsim/domain/experiment"
	domainStats "convsim/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionProbability_StandardScenario(t *testing.T) {
	run := simulate(t, 10000, 42)
	e := NewEstimator()

	p, err := e.RegionProbability(run, domainStats.AtMost(85), nil, standardExperiment)
	require.NoError(t, err)

	analytic := NewNormalModel(standardExperiment).CDF(0.085)
	assert.InDelta(t, analytic, p.Analytic, 1e-12)
	assert.InDelta(t, p.Analytic, p.Empirical, 0.03, "empirical %.4f vs analytic %.4f", p.Empirical, p.Analytic)
	assert.Equal(t, "85 conversions or less", p.Label)
	assert.Nil(t, p.Shading)
}

func TestRegionProbability_AnalyticForms(t *testing.T) {
	run := simulate(t, 1000, 42)
	e := NewEstimator()
	m := NewNormalModel(standardExperiment)

	upper, err := e.RegionProbability(run, domainStats.AtLeast(115), nil, standardExperiment)
	require.NoError(t, err)
	assert.InDelta(t, 1-m.CDF(0.115), upper.Analytic, 1e-12)

	between, err := e.RegionProbability(run, domainStats.Between(85, 115), nil, standardExperiment)
	require.NoError(t, err)
	assert.InDelta(t, m.CDF(0.115)-m.CDF(0.085), between.Analytic, 1e-12)
}

func TestRegionProbability_BoundaryAsymmetry(t *testing.T) {
	// Values sit exactly on the bounds: one-sided regions count them,
	// the two-sided region does not.
	run := runOf(85, 85, 100, 115, 115)
	e := NewEstimator()

	atMost, err := e.RegionProbability(run, domainStats.AtMost(85), nil, standardExperiment)
	require.NoError(t, err)
	atLeast, err := e.RegionProbability(run, domainStats.AtLeast(115), nil, standardExperiment)
	require.NoError(t, err)
	between, err := e.RegionProbability(run, domainStats.Between(85, 115), nil, standardExperiment)
	require.NoError(t, err)

	assert.InDelta(t, 0.4, atMost.Empirical, 1e-12)
	assert.InDelta(t, 0.4, atLeast.Empirical, 1e-12)
	assert.InDelta(t, 0.2, between.Empirical, 1e-12)
}

func TestRegionProbability_TailComplementarity(t *testing.T) {
	e := NewEstimator()
	exp := experiment.Context{Visitors: 1, ConversionRate: 0.5}

	run := continuousRun(5000, 11)
	for _, b := range []float64{-1, 0, 0.5, 1.3} {
		low, err := e.RegionProbability(run, domainStats.AtMost(b), nil, exp)
		require.NoError(t, err)
		high, err := e.RegionProbability(run, domainStats.AtLeast(b+1e-12), nil, exp)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, low.Empirical+high.Empirical, 1e-3, "bound %g", b)
	}

	counts := simulate(t, 5000, 5)
	for _, b := range []float64{90, 100, 110} {
		low, err := e.RegionProbability(counts, domainStats.AtMost(b), nil, standardExperiment)
		require.NoError(t, err)
		high, err := e.RegionProbability(counts, domainStats.AtLeast(b+1), nil, standardExperiment)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, low.Empirical+high.Empirical, 1e-12, "integer bound %g", b)
	}
}

func TestRegionProbability_RateUnitSkipsVisitorScaling(t *testing.T) {
	values := []float64{0.08, 0.09, 0.10, 0.11, 0.12}
	run := domainStats.NewSimulationRun("run-rate", domainStats.UnitRate, 0, standardExperiment, values)

	p, err := NewEstimator().RegionProbability(run, domainStats.AtMost(0.085), nil, standardExperiment)
	require.NoError(t, err)
	assert.InDelta(t, NewNormalModel(standardExperiment).CDF(0.085), p.Analytic, 1e-12)
	assert.InDelta(t, 0.2, p.Empirical, 1e-12)
}

func TestRegionProbability_InvalidRegion(t *testing.T) {
	run := runOf(1, 2, 3)
	e := NewEstimator()

	p, err := e.RegionProbability(run, domainStats.Region{}, nil, standardExperiment)
	assert.Nil(t, p, "no default probability for an unbounded region")
	assert.True(t, errors.Is(err, core.ErrInvalidRegion))

	_, err = e.RegionProbability(run, domainStats.Between(3, 1), nil, standardExperiment)
	assert.True(t, errors.Is(err, core.ErrInvalidRegion))
}

func TestRegionProbability_InvalidExperiment(t *testing.T) {
	_, err := NewEstimator().RegionProbability(runOf(1, 2), domainStats.AtMost(1), nil, experiment.Context{})
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}

func TestRegionProbability_ZeroStandardError(t *testing.T) {
	exp := experiment.Context{Visitors: 10, ConversionRate: 1}
	run := domainStats.NewSimulationRun("run-full", domainStats.UnitCount, 0, exp, []float64{10, 10})

	p, err := NewEstimator().RegionProbability(run, domainStats.AtMost(9), nil, exp)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Analytic)
	assert.Equal(t, 0.0, p.Empirical)
}

func TestFirstIndexAbove(t *testing.T) {
	grid := []float64{1, 2, 3, 4}
	assert.Equal(t, 0, FirstIndexAbove(grid, 0))
	assert.Equal(t, 1, FirstIndexAbove(grid, 1))
	assert.Equal(t, 2, FirstIndexAbove(grid, 2.5))
	assert.Equal(t, 3, FirstIndexAbove(grid, 4), "no point above bound falls back to last index")
	assert.Equal(t, 3, FirstIndexAbove(grid, 100))
	assert.Equal(t, 0, FirstIndexAbove(nil, 1))
}

func TestShade(t *testing.T) {
	est := &domainStats.DensityEstimate{Grid: []float64{80, 90, 100, 110, 120}}

	atMost := Shade(est, domainStats.AtMost(85))
	assert.Equal(t, 1, atMost.LowerPosition)
	assert.Equal(t, 4, atMost.UpperPosition)
	assert.Equal(t, domainStats.Segment{Start: 0, End: 1, Shaded: true}, atMost.Segments[0])
	assert.False(t, atMost.Segments[1].Shaded)
	assert.False(t, atMost.Segments[2].Shaded)

	atLeast := Shade(est, domainStats.AtLeast(115))
	assert.Equal(t, 0, atLeast.LowerPosition)
	assert.Equal(t, 4, atLeast.UpperPosition)
	assert.Equal(t, domainStats.Segment{Start: 4, End: 5, Shaded: true}, atLeast.Segments[2])

	between := Shade(est, domainStats.Between(85, 115))
	assert.Equal(t, domainStats.Segment{Start: 1, End: 4, Shaded: true}, between.Segments[1])
	assert.False(t, between.Segments[0].Shaded)
	assert.False(t, between.Segments[2].Shaded)
}

func TestRegionProbability_WithEstimateCarriesShading(t *testing.T) {
	run := simulate(t, 2000, 42)
	e := NewEstimator()
	est, err := e.EstimateDensity(run, 250)
	require.NoError(t, err)

	p, err := e.RegionProbability(run, domainStats.Between(85, 115), est, standardExperiment)
	require.NoError(t, err)
	require.NotNil(t, p.Shading)
	assert.Greater(t, est.Grid[p.Shading.LowerPosition], 85.0)
	assert.Greater(t, est.Grid[p.Shading.UpperPosition], 115.0)
	assert.LessOrEqual(t, est.Grid[p.Shading.LowerPosition-1], 85.0)
}
