package app

import (
	"convsim/domain/experiment"
	"convsim/domain/stats"
	"convsim/internal/config"
)

// DefaultRequest builds the request described by the configuration.
func DefaultRequest(cfg *config.Config) AnalysisRequest {
	return AnalysisRequest{
		Trials: cfg.Simulation.Trials,
		Experiment: experiment.Context{
			Visitors:       cfg.Simulation.Visitors,
			ConversionRate: cfg.Simulation.ConversionRate,
		},
		Unit:        cfg.Simulation.Unit,
		Seed:        cfg.Simulation.Seed,
		GridSize:    cfg.Density.GridSize,
		Regions:     cfg.Regions.Regions(),
		PrefixSizes: append([]int(nil), cfg.Convergence.PrefixSizes...),
	}
}

// AnalysisInput is a partially specified request as decoded from JSON. A
// field that is absent takes its default; a present field is kept as given,
// zero included, and left for validation to judge.
type AnalysisInput struct {
	Title          string              `json:"title"`
	Trials         *int                `json:"trials"`
	Experiment     *experiment.Context `json:"experiment"`
	Visitors       *int                `json:"visitors"`
	ConversionRate *float64            `json:"conversion_rate"`
	Unit           string              `json:"unit"`
	Seed           *int64              `json:"seed"`
	GridSize       *int                `json:"grid_size"`
	Regions        []stats.Region      `json:"regions"`
	PrefixSizes    []int               `json:"prefix_sizes"`
}

// Resolve merges in over base. Visitors and ConversionRate override the
// matching fields of Experiment, or of the base experiment when Experiment
// is absent. Only an unknown unit fails here; every other check happens in
// AnalysisRequest.Validate.
func (in AnalysisInput) Resolve(base AnalysisRequest) (AnalysisRequest, error) {
	req := base
	if in.Title != "" {
		req.Title = in.Title
	}
	if in.Unit != "" {
		unit, err := stats.ParseUnit(in.Unit)
		if err != nil {
			return AnalysisRequest{}, err
		}
		req.Unit = unit
	}
	if in.Trials != nil {
		req.Trials = *in.Trials
	}
	if in.Experiment != nil {
		req.Experiment = *in.Experiment
	}
	if in.Visitors != nil {
		req.Experiment.Visitors = *in.Visitors
	}
	if in.ConversionRate != nil {
		req.Experiment.ConversionRate = *in.ConversionRate
	}
	if in.Seed != nil {
		req.Seed = in.Seed
	}
	if in.GridSize != nil {
		req.GridSize = *in.GridSize
	}
	if in.Regions != nil {
		req.Regions = in.Regions
	}
	if in.PrefixSizes != nil {
		req.PrefixSizes = in.PrefixSizes
	}
	return req, nil
}
