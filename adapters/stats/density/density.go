package density

import (
	"fmt"
	"math"

	"convsim/domain/core"
	domainStats "convsim/domain/stats"

	"github.com/aclements/go-moremath/stats"
	mstats "github.com/montanaflynn/stats"
)

// Estimator fits Gaussian kernel density estimates and evaluates regions
// over simulation runs. It holds no state; one value can serve any number of
// runs.
type Estimator struct{}

// NewEstimator creates a new estimator
func NewEstimator() *Estimator {
	return &Estimator{}
}

// EstimateDensity evaluates a Gaussian KDE of run on gridSize equally spaced
// points spanning [min(run), max(run)]. gridSize 0 selects DefaultGridSize.
// The bandwidth follows Scott's rule: sample std * n^(-1/5).
func (e *Estimator) EstimateDensity(run *domainStats.SimulationRun, gridSize int) (*domainStats.DensityEstimate, error) {
	if gridSize == 0 {
		gridSize = domainStats.DefaultGridSize
	}
	if gridSize < 2 {
		return nil, estimationError(run.ID, StageDensity,
			core.NewInvalidParameterError("grid_size", fmt.Sprintf("must be at least 2, got %d", gridSize)))
	}
	if run.Len() == 0 {
		return nil, estimationError(run.ID, StageDensity, core.NewInvalidParameterError("run", "is empty"))
	}
	if run.IsDegenerate() {
		return nil, estimationError(run.ID, StageDensity, core.NewDegenerateDistributionError(run.Min(), run.Len()))
	}

	values := run.Values()
	sd, err := mstats.StandardDeviationSample(values)
	if err != nil {
		return nil, estimationError(run.ID, StageDensity, err)
	}
	bandwidth := sd * math.Pow(float64(len(values)), -1.0/5)
	if !(bandwidth > 0) || math.IsInf(bandwidth, 0) {
		return nil, estimationError(run.ID, StageDensity,
			fmt.Errorf("%w: bandwidth %g", core.ErrDegenerateDistribution, bandwidth))
	}

	kde := &stats.KDE{
		Sample:    stats.Sample{Xs: values},
		Kernel:    stats.GaussianKernel,
		Bandwidth: bandwidth,
	}

	grid := linspace(run.Min(), run.Max(), gridSize)
	density := make([]float64, gridSize)
	for i, x := range grid {
		density[i] = kde.PDF(x)
	}

	cumulative, err := normalizedCumSum(density)
	if err != nil {
		return nil, estimationError(run.ID, StageDensity, err)
	}

	return &domainStats.DensityEstimate{
		RunID:      run.ID,
		Unit:       run.Unit,
		Bandwidth:  bandwidth,
		Grid:       grid,
		Density:    density,
		Cumulative: cumulative,
	}, nil
}

// linspace returns n evenly spaced points from lo to hi inclusive. The last
// point is pinned to hi to avoid accumulated rounding.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// normalizedCumSum returns cumsum(xs) / sum(xs).
func normalizedCumSum(xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	total := 0.0
	for i, x := range xs {
		total += x
		out[i] = total
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: density sums to %g", core.ErrDegenerateDistribution, total)
	}
	for i := range out {
		out[i] /= total
	}
	return out, nil
}
