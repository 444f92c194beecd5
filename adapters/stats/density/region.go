package density

import (
	"sort"

	"convsim/domain/core"
	"convsim/domain/experiment"
	domainStats "convsim/domain/stats"
)

// RegionProbability evaluates region against the run (empirical share) and
// against the normal approximation of the experiment (analytic share).
//
//   - at most L:      empirical P(v <= L),      analytic CDF(L)
//   - at least U:     empirical P(v >= U),      analytic 1 - CDF(U)
//   - between L, U:   empirical P(L < v < U),   analytic CDF(U) - CDF(L)
//
// For count runs the bounds are converted to rates by dividing by the
// visitor count before evaluating the CDF. When estimate is non-nil the
// result also carries the grid shading for the region.
func (e *Estimator) RegionProbability(
	run *domainStats.SimulationRun,
	region domainStats.Region,
	estimate *domainStats.DensityEstimate,
	exp experiment.Context,
) (*domainStats.RegionProbability, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	if run.Len() == 0 {
		return nil, estimationError(run.ID, StageRegion, core.NewInvalidParameterError("run", "is empty"))
	}

	empirical := float64(run.Count(region.Contains)) / float64(run.Len())

	model := NewNormalModel(exp)
	toRate := func(bound float64) float64 {
		if run.Unit == domainStats.UnitRate {
			return bound
		}
		return bound / float64(exp.Visitors)
	}

	var analytic float64
	switch region.Kind() {
	case domainStats.RegionAtMost:
		analytic = model.CDF(toRate(*region.Lower))
	case domainStats.RegionAtLeast:
		analytic = model.Survival(toRate(*region.Upper))
	case domainStats.RegionBetween:
		analytic = model.CDF(toRate(*region.Upper)) - model.CDF(toRate(*region.Lower))
	}

	result := &domainStats.RegionProbability{
		Region:    region,
		Label:     region.Label(run.Unit),
		Empirical: empirical,
		Analytic:  clamp01(analytic),
	}
	if estimate != nil {
		shading := Shade(estimate, region)
		result.Shading = &shading
	}
	return result, nil
}

// FirstIndexAbove returns the first index i with grid[i] > bound. When no
// grid point exceeds bound it returns the last index. grid must be sorted
// ascending.
func FirstIndexAbove(grid []float64, bound float64) int {
	if len(grid) == 0 {
		return 0
	}
	i := sort.Search(len(grid), func(i int) bool { return grid[i] > bound })
	if i == len(grid) {
		return len(grid) - 1
	}
	return i
}

// Shade splits the density grid into the three segments used for area
// rendering. An absent lower bound places the lower position at 0; an absent
// upper bound places the upper position at the last grid index. The shaded
// segment is the left one for "at most", the right one for "at least" and the
// middle one for "between".
func Shade(estimate *domainStats.DensityEstimate, region domainStats.Region) domainStats.Shading {
	last := estimate.Len() - 1
	if last < 0 {
		last = 0
	}

	lo, hi := 0, last
	if region.Lower != nil {
		lo = FirstIndexAbove(estimate.Grid, *region.Lower)
	}
	if region.Upper != nil {
		hi = FirstIndexAbove(estimate.Grid, *region.Upper)
	}

	kind := region.Kind()
	return domainStats.Shading{
		LowerPosition: lo,
		UpperPosition: hi,
		Segments: [3]domainStats.Segment{
			{Start: 0, End: lo, Shaded: kind == domainStats.RegionAtMost},
			{Start: lo, End: hi, Shaded: kind == domainStats.RegionBetween},
			{Start: hi, End: estimate.Len(), Shaded: kind == domainStats.RegionAtLeast},
		},
	}
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
