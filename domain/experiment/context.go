package experiment

import (
	"fmt"
	"math"

	"convsim/domain/core"
)

// Context carries the parameters of one binomial conversion experiment. It is
// passed explicitly to every component that needs the visitor count or the
// conversion rate.
type Context struct {
	Visitors       int     `json:"visitors"`
	ConversionRate float64 `json:"conversion_rate"`
}

// New validates and returns an experiment context.
func New(visitors int, conversionRate float64) (Context, error) {
	c := Context{Visitors: visitors, ConversionRate: conversionRate}
	if err := c.Validate(); err != nil {
		return Context{}, err
	}
	return c, nil
}

// Validate checks visitors > 0 and 0 <= rate <= 1.
func (c Context) Validate() error {
	if c.Visitors <= 0 {
		return core.NewInvalidParameterError("visitors", fmt.Sprintf("must be positive, got %d", c.Visitors))
	}
	if math.IsNaN(c.ConversionRate) || c.ConversionRate < 0 || c.ConversionRate > 1 {
		return core.NewInvalidParameterError("conversion_rate", fmt.Sprintf("must be within [0,1], got %g", c.ConversionRate))
	}
	return nil
}

// StandardError is the standard deviation of the observed conversion rate,
// sqrt(p(1-p)/n).
func (c Context) StandardError() float64 {
	if c.Visitors <= 0 {
		return 0
	}
	p := c.ConversionRate
	return math.Sqrt(p * (1 - p) / float64(c.Visitors))
}

// ExpectedConversions is visitors * rate.
func (c Context) ExpectedConversions() float64 {
	return float64(c.Visitors) * c.ConversionRate
}

func (c Context) String() string {
	return fmt.Sprintf("visitors=%d rate=%.4f", c.Visitors, c.ConversionRate)
}
