package simulator

import (
	"context"
	"fmt"

	"convsim/domain/core"
	"convsim/domain/experiment"
	"convsim/domain/stats"
	"convsim/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// streamName keys the RNG stream used for binomial draws.
const streamName = "simulator.binomial"

// Params describes one simulation request.
type Params struct {
	Trials     int
	Experiment experiment.Context
	Unit       stats.Unit
	// Seed makes the run reproducible. Nil draws a fresh seed, which is
	// recorded on the returned run.
	Seed *int64
}

// Validate checks trials > 0 and the experiment parameters.
func (p Params) Validate() error {
	if p.Trials <= 0 {
		return core.NewInvalidParameterError("trials", fmt.Sprintf("must be positive, got %d", p.Trials))
	}
	if err := p.Experiment.Validate(); err != nil {
		return err
	}
	if p.Unit != "" && p.Unit != stats.UnitCount && p.Unit != stats.UnitRate {
		return core.NewInvalidParameterError("unit", fmt.Sprintf("unknown unit %q", p.Unit))
	}
	return nil
}

// Simulator draws repeated binomial conversion outcomes
type Simulator struct {
	rngPort ports.RNGPort
}

// NewSimulator creates a simulator over the given RNG port
func NewSimulator(rngPort ports.RNGPort) *Simulator {
	return &Simulator{rngPort: rngPort}
}

// Simulate produces p.Trials independent Binomial(visitors, rate) draws. With
// UnitRate every draw is divided by the visitor count.
func (s *Simulator) Simulate(ctx context.Context, p Params) (*stats.SimulationRun, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	unit := p.Unit
	if unit == "" {
		unit = stats.UnitCount
	}

	var seed int64
	if p.Seed != nil {
		seed = *p.Seed
	} else {
		seed = s.rngPort.FreshSeed(ctx)
	}

	src, err := s.rngPort.SeededStream(ctx, streamName, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to open rng stream: %w", err)
	}

	visitors := float64(p.Experiment.Visitors)
	rate := p.Experiment.ConversionRate
	values := make([]float64, p.Trials)

	switch rate {
	case 0:
		// all zeros
	case 1:
		for i := range values {
			values[i] = visitors
		}
	default:
		dist := distuv.Binomial{N: visitors, P: rate, Src: src}
		for i := range values {
			values[i] = dist.Rand()
		}
	}

	if unit == stats.UnitRate {
		for i := range values {
			values[i] /= visitors
		}
	}

	return stats.NewSimulationRun(core.NewRunID(), unit, seed, p.Experiment, values), nil
}
