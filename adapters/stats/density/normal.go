package density

import (
	"convsim/domain/experiment"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalModel is the closed-form approximation of the sampling distribution
// of the conversion rate: Normal(rate, standard error).
type NormalModel struct {
	Mean   float64
	StdDev float64
}

// NewNormalModel builds the approximation for an experiment.
func NewNormalModel(exp experiment.Context) NormalModel {
	return NormalModel{Mean: exp.ConversionRate, StdDev: exp.StandardError()}
}

// CDF computes P(X <= x). A zero standard deviation is treated as a point
// mass at Mean.
func (m NormalModel) CDF(x float64) float64 {
	if m.StdDev <= 0 {
		if x >= m.Mean {
			return 1
		}
		return 0
	}
	return distuv.Normal{Mu: m.Mean, Sigma: m.StdDev}.CDF(x)
}

// Survival computes 1 - CDF(x).
func (m NormalModel) Survival(x float64) float64 {
	return 1 - m.CDF(x)
}
