package stats

import (
	"fmt"
	"math"

	"convsim/domain/core"
)

// RegionKind classifies a region by which bounds it carries.
type RegionKind string

const (
	RegionAtMost  RegionKind = "at_most"
	RegionAtLeast RegionKind = "at_least"
	RegionBetween RegionKind = "between"
)

// Region is a one- or two-sided predicate over simulated outcomes.
//
// Boundary policy:
//   - lower only:  value <= Lower
//   - upper only:  value >= Upper
//   - both:        Lower < value < Upper
//
// The two-sided form is strict while the one-sided forms are inclusive, so
// P(at most b) + P(between b and c) + P(at least c) can fall short of 1 when
// outcomes land exactly on b or c. This asymmetry is kept on purpose and
// covered by tests.
type Region struct {
	Name  string   `json:"name"`
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
}

// AtMost builds the region value <= lower.
func AtMost(lower float64) Region {
	return Region{Lower: &lower}
}

// AtLeast builds the region value >= upper.
func AtLeast(upper float64) Region {
	return Region{Upper: &upper}
}

// Between builds the region lower < value < upper.
func Between(lower, upper float64) Region {
	return Region{Lower: &lower, Upper: &upper}
}

// Named returns a copy of r with the given name.
func (r Region) Named(name string) Region {
	r.Name = name
	return r
}

// Validate rejects regions without bounds, with NaN bounds, or with
// Lower > Upper.
func (r Region) Validate() error {
	if r.Lower == nil && r.Upper == nil {
		return core.NewInvalidRegionError("at least one of lower or upper must be set")
	}
	if r.Lower != nil && math.IsNaN(*r.Lower) {
		return core.NewInvalidRegionError("lower bound is NaN")
	}
	if r.Upper != nil && math.IsNaN(*r.Upper) {
		return core.NewInvalidRegionError("upper bound is NaN")
	}
	if r.Lower != nil && r.Upper != nil && *r.Lower > *r.Upper {
		return core.NewInvalidRegionError(fmt.Sprintf("lower %g exceeds upper %g", *r.Lower, *r.Upper))
	}
	return nil
}

// Kind reports the region type. Call Validate first; an unbounded region
// reports "".
func (r Region) Kind() RegionKind {
	switch {
	case r.Lower != nil && r.Upper != nil:
		return RegionBetween
	case r.Lower != nil:
		return RegionAtMost
	case r.Upper != nil:
		return RegionAtLeast
	}
	return ""
}

// Contains applies the boundary policy to a single value.
func (r Region) Contains(v float64) bool {
	switch r.Kind() {
	case RegionBetween:
		return *r.Lower < v && v < *r.Upper
	case RegionAtMost:
		return v <= *r.Lower
	case RegionAtLeast:
		return v >= *r.Upper
	}
	return false
}

// Label returns Name, or a generated description such as
// "85 conversions or less".
func (r Region) Label(unit Unit) string {
	if r.Name != "" {
		return r.Name
	}
	f := func(v float64) string {
		if unit == UnitRate {
			return fmt.Sprintf("%.2f%%", 100*v)
		}
		return fmt.Sprintf("%g conversions", v)
	}
	switch r.Kind() {
	case RegionBetween:
		if unit == UnitRate {
			return fmt.Sprintf("Between %s and %s", f(*r.Lower), f(*r.Upper))
		}
		return fmt.Sprintf("Between %g and %g conversions", *r.Lower, *r.Upper)
	case RegionAtMost:
		return f(*r.Lower) + " or less"
	case RegionAtLeast:
		return f(*r.Upper) + " or more"
	}
	return "unbounded region"
}

// DefaultRegions returns the three standard views: at most lower, at least
// upper, and strictly between the two.
func DefaultRegions(lower, upper float64) []Region {
	return []Region{AtMost(lower), AtLeast(upper), Between(lower, upper)}
}

// ============================================================================
// REGION PROBABILITY
// ============================================================================

// Segment is a half-open slice [Start, End) of the density grid.
type Segment struct {
	Start  int  `json:"start"`
	End    int  `json:"end"`
	Shaded bool `json:"shaded"`
}

// Shading locates a region on a density grid for area rendering.
type Shading struct {
	LowerPosition int        `json:"lower_position"`
	UpperPosition int        `json:"upper_position"`
	Segments      [3]Segment `json:"segments"`
}

// RegionProbability holds the empirical and analytic probability of a
// region. Both values lie in [0,1].
type RegionProbability struct {
	Region    Region   `json:"region"`
	Label     string   `json:"label"`
	Empirical float64  `json:"empirical"`
	Analytic  float64  `json:"analytic"`
	Shading   *Shading `json:"shading,omitempty"`
}

// Difference is Empirical - Analytic.
func (p RegionProbability) Difference() float64 {
	return p.Empirical - p.Analytic
}

// Caption is the annotation text for the empirical share.
func (p RegionProbability) Caption() string {
	return fmt.Sprintf("%.2f%% of outcomes shaded", 100*p.Empirical)
}
