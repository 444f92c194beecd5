package stats

import (
	"encoding/json"
	"fmt"
	"math"

	"convsim/domain/core"
	"convsim/domain/experiment"
)

// ============================================================================
// SIMULATION OUTPUT
// ============================================================================

// Unit says whether simulated outcomes are conversion counts or rates.
type Unit string

const (
	UnitCount Unit = "count"
	UnitRate  Unit = "rate"
)

// ParseUnit accepts "count" or "rate"; empty means count.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case "", UnitCount:
		return UnitCount, nil
	case UnitRate:
		return UnitRate, nil
	}
	return "", core.NewInvalidParameterError("unit", fmt.Sprintf("must be %q or %q, got %q", UnitCount, UnitRate, s))
}

// SimulationRun is the ordered, fixed-length output of one simulation.
// INVARIANTS:
// - length fixed at creation
// - values never mutated after creation (Values returns a copy)
type SimulationRun struct {
	ID         core.RunID         `json:"id"`
	Unit       Unit               `json:"unit"`
	Seed       int64              `json:"seed"`
	Experiment experiment.Context `json:"experiment"`
	CreatedAt  core.Timestamp     `json:"created_at"`

	values   []float64
	min, max float64
}

// NewSimulationRun copies values into a new run.
func NewSimulationRun(id core.RunID, unit Unit, seed int64, exp experiment.Context, values []float64) *SimulationRun {
	owned := make([]float64, len(values))
	copy(owned, values)

	r := &SimulationRun{
		ID:         id,
		Unit:       unit,
		Seed:       seed,
		Experiment: exp,
		CreatedAt:  core.Now(),
		values:     owned,
		min:        math.Inf(1),
		max:        math.Inf(-1),
	}
	for _, v := range owned {
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	return r
}

// Len returns the number of simulated experiments.
func (r *SimulationRun) Len() int { return len(r.values) }

// At returns the i-th simulated outcome.
func (r *SimulationRun) At(i int) float64 { return r.values[i] }

// Values returns a copy of the simulated outcomes.
func (r *SimulationRun) Values() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

// Min returns the smallest outcome (+Inf for an empty run).
func (r *SimulationRun) Min() float64 { return r.min }

// Max returns the largest outcome (-Inf for an empty run).
func (r *SimulationRun) Max() float64 { return r.max }

// IsDegenerate reports whether every outcome is identical.
func (r *SimulationRun) IsDegenerate() bool {
	return len(r.values) > 0 && r.min == r.max
}

// Fingerprint hashes the ordered values.
func (r *SimulationRun) Fingerprint() core.Hash {
	return core.HashFloats(r.values)
}

// Count returns how many outcomes satisfy pred.
func (r *SimulationRun) Count(pred func(float64) bool) int {
	n := 0
	for _, v := range r.values {
		if pred(v) {
			n++
		}
	}
	return n
}

type simulationRunJSON struct {
	ID          core.RunID         `json:"id"`
	Unit        Unit               `json:"unit"`
	Seed        int64              `json:"seed"`
	Experiment  experiment.Context `json:"experiment"`
	CreatedAt   core.Timestamp     `json:"created_at"`
	Fingerprint core.Hash          `json:"fingerprint"`
	Values      []float64          `json:"values"`
}

// MarshalJSON exposes the values for renderers.
func (r *SimulationRun) MarshalJSON() ([]byte, error) {
	return json.Marshal(simulationRunJSON{
		ID:          r.ID,
		Unit:        r.Unit,
		Seed:        r.Seed,
		Experiment:  r.Experiment,
		CreatedAt:   r.CreatedAt,
		Fingerprint: r.Fingerprint(),
		Values:      r.values,
	})
}

// ============================================================================
// DENSITY
// ============================================================================

// DefaultGridSize is the number of evaluation points of a density estimate.
const DefaultGridSize = 250

// DensityEstimate pairs an evaluation grid with KDE values and the normalized
// cumulative sum.
// INVARIANTS:
// - Grid strictly increasing, len(Grid) == len(Density) == len(Cumulative)
// - Cumulative non-decreasing, Cumulative[len-1] == 1
type DensityEstimate struct {
	RunID      core.RunID `json:"run_id"`
	Unit       Unit       `json:"unit"`
	Bandwidth  float64    `json:"bandwidth"`
	Grid       []float64  `json:"grid"`
	Density    []float64  `json:"density"`
	Cumulative []float64  `json:"cumulative"`
}

// Len returns the grid size.
func (d *DensityEstimate) Len() int { return len(d.Grid) }

// Exceedance is the estimated probability of exceeding Grid[i].
func (d *DensityEstimate) Exceedance(i int) float64 {
	return 1 - d.Cumulative[i]
}

// ExceedanceLabel renders the hover text for grid point i, e.g.
// "Pr(value > 98.25) = 41.20%". Rates are shown as percentages.
func (d *DensityEstimate) ExceedanceLabel(subject string, i int) string {
	x := d.Grid[i]
	if d.Unit == UnitRate {
		return fmt.Sprintf("Pr( %s > %.3f%%) = %.2f%%", subject, 100*x, 100*d.Exceedance(i))
	}
	return fmt.Sprintf("Pr( %s > %.2f) = %.2f%%", subject, x, 100*d.Exceedance(i))
}

// ============================================================================
// CONVERGENCE
// ============================================================================

// ConvergencePoint is one element of a prefix with its 1-based running
// occurrence count within that prefix.
type ConvergencePoint struct {
	Index      int     `json:"index"`
	Value      float64 `json:"value"`
	Occurrence int     `json:"occurrence"`
}

// ValueCount is the total occurrences of a distinct value within a prefix.
type ValueCount struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// ConvergenceSeries describes the first PrefixLength outcomes of a run.
type ConvergenceSeries struct {
	PrefixLength int                `json:"prefix_length"`
	Requested    int                `json:"requested"`
	Points       []ConvergencePoint `json:"points"`
	Totals       []ValueCount       `json:"totals"`
}

// TotalFor returns the occurrence count of value within the prefix.
func (s ConvergenceSeries) TotalFor(value float64) int {
	for _, vc := range s.Totals {
		if vc.Value == value {
			return vc.Count
		}
	}
	return 0
}
