package convergence

import (
	"fmt"
	"sort"

	"convsim/domain/core"
	"convsim/domain/stats"
)

// Tracker computes per-prefix running occurrence counts over a simulation
// run, showing how the empirical distribution settles as more trials are
// included.
type Tracker struct{}

// NewTracker creates a new convergence tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// ValidatePrefixSizes requires a non-empty, strictly increasing sequence of
// positive sizes.
func ValidatePrefixSizes(sizes []int) error {
	if len(sizes) == 0 {
		return core.NewInvalidPrefixSequenceError("prefix sizes must not be empty")
	}
	for i, l := range sizes {
		if l < 1 {
			return core.NewInvalidPrefixSequenceError(fmt.Sprintf("prefix size at position %d is %d, must be >= 1", i, l))
		}
		if i > 0 && l <= sizes[i-1] {
			return core.NewInvalidPrefixSequenceError(fmt.Sprintf("prefix sizes must be strictly increasing, got %d after %d", l, sizes[i-1]))
		}
	}
	return nil
}

// Series returns one ConvergenceSeries per requested prefix size. Sizes
// beyond the run length are clamped to it. Each series only reflects the
// first PrefixLength outcomes. Running counts are computed in a single pass;
// every series owns its Points and Totals.
func (t *Tracker) Series(run *stats.SimulationRun, prefixSizes []int) ([]stats.ConvergenceSeries, error) {
	if err := ValidatePrefixSizes(prefixSizes); err != nil {
		return nil, err
	}
	n := run.Len()
	if n == 0 {
		return nil, core.NewInvalidParameterError("run", "is empty")
	}

	limit := clamp(prefixSizes[len(prefixSizes)-1], n)
	points := make([]stats.ConvergencePoint, limit)
	counts := make(map[float64]int)

	out := make([]stats.ConvergenceSeries, 0, len(prefixSizes))
	next := 0
	for i := 0; i < limit; i++ {
		v := run.At(i)
		counts[v]++
		points[i] = stats.ConvergencePoint{Index: i, Value: v, Occurrence: counts[v]}

		// several requested sizes may clamp to the same length
		for next < len(prefixSizes) && clamp(prefixSizes[next], n) == i+1 {
			out = append(out, stats.ConvergenceSeries{
				PrefixLength: i + 1,
				Requested:    prefixSizes[next],
				Points:       append([]stats.ConvergencePoint(nil), points[:i+1]...),
				Totals:       snapshot(counts),
			})
			next++
		}
	}
	return out, nil
}

// Tally counts every distinct value in the whole run, ascending by value.
func Tally(run *stats.SimulationRun) []stats.ValueCount {
	counts := make(map[float64]int)
	for i := 0; i < run.Len(); i++ {
		counts[run.At(i)]++
	}
	return snapshot(counts)
}

func snapshot(counts map[float64]int) []stats.ValueCount {
	out := make([]stats.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, stats.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

func clamp(l, n int) int {
	if l > n {
		return n
	}
	return l
}
