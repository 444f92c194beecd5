package ports

import (
	"context"
	"io"

	"convsim/domain/experiment"
	"convsim/domain/stats"
)

// AnalysisView is the read-only bundle a renderer consumes. Renderers format
// it; they never compute probabilities or densities themselves.
type AnalysisView struct {
	Title       string
	Experiment  experiment.Context
	Run         *stats.SimulationRun
	Density     *stats.DensityEstimate
	Profile     *stats.RunProfile
	Regions     []stats.RegionProbability
	Convergence []stats.ConvergenceSeries
	TickValues  []float64
	Failures    []StageFailure
}

// StageFailure records a non-fatal failure of one pipeline stage for one run.
type StageFailure struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RendererPort turns an analysis into a static artifact.
type RendererPort interface {
	// Format is the artifact extension, e.g. "png", "xlsx", "html".
	Format() string
	Render(ctx context.Context, view AnalysisView, w io.Writer) error
}
