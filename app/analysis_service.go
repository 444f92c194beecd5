package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"convsim/adapters/stats/convergence"
	"convsim/adapters/stats/density"
	"convsim/adapters/stats/simulator"
	"convsim/domain/core"
	"convsim/domain/experiment"
	"convsim/domain/run"
	"convsim/domain/stats"
	"convsim/internal"
	apperrors "convsim/internal/errors"
	"convsim/internal/profiling"
	"convsim/ports"

	"golang.org/x/sync/semaphore"
)

// Version is recorded in run manifests; outcomes are only guaranteed to
// replay under the same version.
const Version = "0.3.0"

// AnalysisService runs the simulate → estimate → evaluate → converge pipeline
// for conversion experiments
type AnalysisService struct {
	simulator *simulator.Simulator
	estimator *density.Estimator
	tracker   *convergence.Tracker
	profiler  *profiling.DistributionAnalyzer
	logger    *internal.Logger
}

// AnalysisRequest defines one experiment analysis
type AnalysisRequest struct {
	Title       string             `json:"title,omitempty"`
	Trials      int                `json:"trials"`
	Experiment  experiment.Context `json:"experiment"`
	Unit        stats.Unit         `json:"unit,omitempty"`
	Seed        *int64             `json:"seed,omitempty"`
	GridSize    int                `json:"grid_size,omitempty"`
	Regions     []stats.Region     `json:"regions"`
	PrefixSizes []int              `json:"prefix_sizes"`
}

// AnalysisReport bundles every artifact computed for one request
type AnalysisReport struct {
	SessionID   core.SessionID            `json:"session_id"`
	Request     AnalysisRequest           `json:"request"`
	Run         *stats.SimulationRun      `json:"run"`
	Manifest    *run.Manifest             `json:"manifest"`
	Density     *stats.DensityEstimate    `json:"density,omitempty"`
	Profile     *stats.RunProfile         `json:"profile,omitempty"`
	Regions     []stats.RegionProbability `json:"regions"`
	Convergence []stats.ConvergenceSeries `json:"convergence"`
	TickValues  []float64                 `json:"tick_values"`
	Failures    []ports.StageFailure      `json:"failures,omitempty"`
	RuntimeMs   int64                     `json:"runtime_ms"`
}

// BatchResult pairs a report with the error that prevented it, if any
type BatchResult struct {
	Index  int             `json:"index"`
	Report *AnalysisReport `json:"report,omitempty"`
	Err    error           `json:"-"`
}

// NewAnalysisService creates an analysis service over the given RNG port
func NewAnalysisService(rngPort ports.RNGPort, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.Nop()
	}
	return &AnalysisService{
		simulator: simulator.NewSimulator(rngPort),
		estimator: density.NewEstimator(),
		tracker:   convergence.NewTracker(),
		profiler:  profiling.NewDistributionAnalyzer(),
		logger:    logger,
	}
}

// Validate checks every input before any computation starts.
func (r AnalysisRequest) Validate() error {
	params := r.simulationParams()
	if err := params.Validate(); err != nil {
		return err
	}
	if r.GridSize != 0 && r.GridSize < 2 {
		return core.NewInvalidParameterError("grid_size", fmt.Sprintf("must be at least 2, got %d", r.GridSize))
	}
	for i, region := range r.Regions {
		if err := region.Validate(); err != nil {
			return fmt.Errorf("region %d: %w", i, err)
		}
	}
	return convergence.ValidatePrefixSizes(r.PrefixSizes)
}

func (r AnalysisRequest) simulationParams() simulator.Params {
	return simulator.Params{
		Trials:     r.Trials,
		Experiment: r.Experiment,
		Unit:       r.Unit,
		Seed:       r.Seed,
	}
}

// Analyze runs the full pipeline for one experiment. Input errors are
// returned before any work happens. A density failure is recorded on the
// report and the remaining stages still run.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisReport, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	simRun, err := s.simulator.Simulate(ctx, req.simulationParams())
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}
	log := s.logger.With("run_id", simRun.ID.String())
	log.Debug("simulated %d trials (%s, seed=%d, fingerprint=%s)", simRun.Len(), req.Experiment, simRun.Seed, simRun.Fingerprint().Short())

	report := &AnalysisReport{
		SessionID: core.NewSessionID(),
		Request:   req,
		Run:       simRun,
		Manifest:  run.NewManifest(simRun, Version),
	}

	est, err := s.estimator.EstimateDensity(simRun, req.GridSize)
	if err != nil {
		var estErr *density.EstimationError
		if !errors.As(err, &estErr) {
			return nil, err
		}
		log.Warn("density estimation skipped: %v", err)
		report.Failures = append(report.Failures, stageFailure(estErr.Stage, err))
	} else {
		report.Density = est
	}

	if profile, err := s.profiler.Profile(simRun); err != nil {
		log.Warn("profile skipped: %v", err)
		report.Failures = append(report.Failures, stageFailure("profile", err))
	} else {
		report.Profile = profile
	}

	for _, region := range req.Regions {
		prob, err := s.estimator.RegionProbability(simRun, region, report.Density, req.Experiment)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", region.Label(simRun.Unit), err)
		}
		log.Debug("%s: empirical=%.4f analytic=%.4f", prob.Label, prob.Empirical, prob.Analytic)
		report.Regions = append(report.Regions, *prob)
	}

	series, err := s.tracker.Series(simRun, req.PrefixSizes)
	if err != nil {
		return nil, err
	}
	report.Convergence = series
	report.TickValues = tickValues(req, simRun.Unit)
	report.RuntimeMs = time.Since(start).Milliseconds()

	log.Info("analysis complete in %dms (%d regions, %d prefixes, %d failures)",
		report.RuntimeMs, len(report.Regions), len(report.Convergence), len(report.Failures))
	return report, nil
}

// AnalyzeBatch runs independent experiments with at most parallelism in
// flight. Cancellation is checked between experiments; an experiment already
// running is allowed to finish. Results keep request order. The returned
// error is non-nil only when ctx ended before every experiment started.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, reqs []AnalysisRequest, parallelism int) ([]BatchResult, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	sem := semaphore.NewWeighted(int64(parallelism))
	results := make([]BatchResult, len(reqs))
	var wg sync.WaitGroup

	var stopErr error
	for i, req := range reqs {
		err := ctx.Err()
		if err == nil {
			err = sem.Acquire(ctx, 1)
		}
		if err != nil {
			stopErr = err
			for j := i; j < len(reqs); j++ {
				results[j] = BatchResult{Index: j, Err: err}
			}
			break
		}

		wg.Add(1)
		go func(i int, req AnalysisRequest) {
			defer wg.Done()
			defer sem.Release(1)

			report, err := s.Analyze(ctx, req)
			if err != nil {
				s.logger.Warn("batch experiment %d failed: %v", i, err)
			}
			results[i] = BatchResult{Index: i, Report: report, Err: err}
		}(i, req)
	}
	wg.Wait()

	if stopErr != nil {
		return results, fmt.Errorf("batch cancelled: %w", stopErr)
	}
	return results, nil
}

// Replay re-simulates the run a manifest describes and checks that the
// outcomes match. A manifest from another version is rejected up front.
func (s *AnalysisService) Replay(ctx context.Context, m *run.Manifest) (*stats.SimulationRun, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	fp := m.Fingerprint
	if fp.CodeVersion != Version {
		return nil, apperrors.InvalidInput(fmt.Sprintf("manifest was recorded by version %s, this is %s", fp.CodeVersion, Version))
	}

	seed := fp.Seed
	replayed, err := s.simulator.Simulate(ctx, simulator.Params{
		Trials:     fp.Trials,
		Experiment: fp.Experiment,
		Unit:       fp.Unit,
		Seed:       &seed,
	})
	if err != nil {
		return nil, fmt.Errorf("replay failed: %w", err)
	}
	if err := m.Verify(replayed); err != nil {
		return nil, err
	}
	s.logger.Info("replayed run %s (%s)", m.RunID, m.OutcomeHash.Short())
	return replayed, nil
}

// View adapts a report for renderers.
func (r *AnalysisReport) View() ports.AnalysisView {
	title := r.Request.Title
	if title == "" {
		title = fmt.Sprintf("%d simulated experiments (%s)", r.Run.Len(), r.Request.Experiment)
	}
	return ports.AnalysisView{
		Title:       title,
		Experiment:  r.Request.Experiment,
		Run:         r.Run,
		Density:     r.Density,
		Profile:     r.Profile,
		Regions:     r.Regions,
		Convergence: r.Convergence,
		TickValues:  r.TickValues,
		Failures:    r.Failures,
	}
}

func stageFailure(stage string, err error) ports.StageFailure {
	return ports.StageFailure{
		Stage:   stage,
		Code:    apperrors.GetCode(err),
		Message: err.Error(),
	}
}

// tickValues returns the distinct region bounds plus the expected outcome,
// ascending.
func tickValues(req AnalysisRequest, unit stats.Unit) []float64 {
	expected := req.Experiment.ExpectedConversions()
	if unit == stats.UnitRate {
		expected = req.Experiment.ConversionRate
	} else {
		expected = math.Round(expected)
	}

	seen := map[float64]bool{expected: true}
	ticks := []float64{expected}
	add := func(v *float64) {
		if v != nil && !seen[*v] {
			seen[*v] = true
			ticks = append(ticks, *v)
		}
	}
	for _, region := range req.Regions {
		add(region.Lower)
		add(region.Upper)
	}
	sort.Float64s(ticks)
	return ticks
}
