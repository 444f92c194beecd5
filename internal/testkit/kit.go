package testkit

import (
	"context"
	"io"
	"math/rand/v2"

	"convsim/adapters/rng"
	"convsim/adapters/stats/convergence"
	"convsim/adapters/stats/density"
	"convsim/adapters/stats/simulator"
	"convsim/domain/experiment"
	"convsim/domain/stats"
	"convsim/internal/profiling"
	"convsim/ports"

	"github.com/stretchr/testify/mock"
)

// StandardSeed is the seed used by every fixture.
const StandardSeed int64 = 42

// StandardExperiment is 1000 visitors converting at 10%.
func StandardExperiment() experiment.Context {
	return experiment.Context{Visitors: 1000, ConversionRate: 0.10}
}

// StandardRegions are the three default views around 85 and 115 conversions.
func StandardRegions() []stats.Region {
	return stats.DefaultRegions(85, 115)
}

// StandardPrefixes are the convergence panel sizes for a 10000-trial run.
func StandardPrefixes() []int {
	return []int{1, 50, 200, 10000}
}

// Seed returns a pointer to a copy of v.
func Seed(v int64) *int64 { return &v }

// FixedSeedRNG wraps the PCG adapter but always hands out the same fresh
// seed, so unseeded code paths stay reproducible in tests.
type FixedSeedRNG struct {
	*rng.PCGAdapter
	Fresh int64
}

// NewFixedSeedRNG creates the fixture RNG port
func NewFixedSeedRNG(fresh int64) *FixedSeedRNG {
	return &FixedSeedRNG{PCGAdapter: rng.NewPCGAdapter(), Fresh: fresh}
}

// FreshSeed returns the configured seed
func (f *FixedSeedRNG) FreshSeed(ctx context.Context) int64 {
	return f.Fresh
}

// FailingRNG returns err from every SeededStream call
type FailingRNG struct {
	Err error
}

func (f *FailingRNG) SeededStream(ctx context.Context, name string, seed int64) (rand.Source, error) {
	return nil, f.Err
}

func (f *FailingRNG) FreshSeed(ctx context.Context) int64 { return 0 }

// MockRenderer is a testify mock of ports.RendererPort. Render expects
// Return(err, payload); a non-empty payload is written to w first.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Format() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRenderer) Render(ctx context.Context, view ports.AnalysisView, w io.Writer) error {
	args := m.Called(ctx, view, w)
	if payload := args.String(1); payload != "" {
		if _, err := io.WriteString(w, payload); err != nil {
			return err
		}
	}
	return args.Error(0)
}

// StandardView runs the standard experiment at the given trial count through
// the simulator, estimator and tracker and packages the result for renderers.
func StandardView(trials int) (ports.AnalysisView, error) {
	ctx := context.Background()
	exp := StandardExperiment()

	run, err := simulator.NewSimulator(rng.NewPCGAdapter()).Simulate(ctx, simulator.Params{
		Trials:     trials,
		Experiment: exp,
		Seed:       Seed(StandardSeed),
	})
	if err != nil {
		return ports.AnalysisView{}, err
	}

	est := density.NewEstimator()
	d, err := est.EstimateDensity(run, 0)
	if err != nil {
		return ports.AnalysisView{}, err
	}

	profile, err := profiling.NewDistributionAnalyzer().Profile(run)
	if err != nil {
		return ports.AnalysisView{}, err
	}

	view := ports.AnalysisView{
		Title:      "standard experiment",
		Experiment: exp,
		Run:        run,
		Density:    d,
		Profile:    profile,
		TickValues: []float64{85, 100, 115},
	}
	for _, region := range StandardRegions() {
		p, err := est.RegionProbability(run, region, d, exp)
		if err != nil {
			return ports.AnalysisView{}, err
		}
		view.Regions = append(view.Regions, *p)
	}

	prefixes := []int{1, trials / 2, trials}
	view.Convergence, err = convergence.NewTracker().Series(run, prefixes)
	if err != nil {
		return ports.AnalysisView{}, err
	}
	return view, nil
}

// EmptyView is a view with nothing to draw.
func EmptyView() ports.AnalysisView {
	return ports.AnalysisView{Title: "empty", Experiment: StandardExperiment()}
}
