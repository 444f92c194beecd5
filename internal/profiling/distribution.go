package profiling

import (
	"math"

	"convsim/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalityAlpha is the Jarque-Bera significance level for LooksNormal.
const normalityAlpha = 0.05

// DistributionAnalyzer profiles the shape of simulated runs
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Profile summarizes run and tests its shape against a normal distribution.
// A degenerate run gets its summary only, with Degenerate set.
func (da *DistributionAnalyzer) Profile(run *stats.SimulationRun) (*stats.RunProfile, error) {
	data := mstats.Float64Data(run.Values())

	summary, err := summarize(data)
	if err != nil {
		return nil, err
	}

	exp := run.Experiment
	profile := &stats.RunProfile{
		Summary:        summary,
		ExpectedMean:   exp.ExpectedConversions(),
		ExpectedStdDev: math.Sqrt(exp.ExpectedConversions() * (1 - exp.ConversionRate)),
		Degenerate:     run.IsDegenerate(),
	}
	if run.Unit == stats.UnitRate {
		profile.ExpectedMean = exp.ConversionRate
		profile.ExpectedStdDev = exp.StandardError()
	}
	if profile.Degenerate {
		return profile, nil
	}

	profile.Shape = shape(data, summary.Mean, summary.StdDev)
	profile.Outliers = countOutliers(data, summary.Q25, summary.Q75)
	return profile, nil
}

// summarize fills the descriptive statistics. Quartiles use the nearest-rank
// method so runs of any length have them, and a single-value run reports a
// StdDev of 0 where the sample formula would divide by zero.
func summarize(data mstats.Float64Data) (stats.SummaryStats, error) {
	var s stats.SummaryStats
	var err error
	if s.Mean, err = data.Mean(); err != nil {
		return s, err
	}
	if len(data) > 1 {
		if s.StdDev, err = data.StandardDeviationSample(); err != nil {
			return s, err
		}
	}
	if s.Min, err = data.Min(); err != nil {
		return s, err
	}
	if s.Max, err = data.Max(); err != nil {
		return s, err
	}
	if s.Median, err = data.Median(); err != nil {
		return s, err
	}
	if s.Q25, err = data.PercentileNearestRank(25); err != nil {
		return s, err
	}
	if s.Q75, err = data.PercentileNearestRank(75); err != nil {
		return s, err
	}
	return s, nil
}

// shape computes the adjusted Fisher-Pearson skewness, the bias-corrected
// excess kurtosis and the Jarque-Bera statistic with its chi-squared(2)
// p-value.
func shape(data []float64, mean, stdDev float64) stats.ShapeStats {
	var out stats.ShapeStats
	n := float64(len(data))
	if n < 4 || stdDev == 0 {
		return out
	}

	var m2, m3, m4 float64
	for _, x := range data {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= n
	m3 /= n
	m4 /= n

	g1 := m3 / math.Pow(m2, 1.5)
	g2 := m4/(m2*m2) - 3

	out.Skewness = g1 * math.Sqrt(n*(n-1)) / (n - 2)
	out.ExcessKurtosis = ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))

	out.JarqueBera = n / 6 * (g1*g1 + g2*g2/4)
	out.JarqueBeraP = distuv.ChiSquared{K: 2}.Survival(out.JarqueBera)
	out.LooksNormal = out.JarqueBeraP > normalityAlpha
	return out
}

// countOutliers counts values outside 1.5 IQR of the quartiles.
func countOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	n := 0
	for _, x := range data {
		if x < lower || x > upper {
			n++
		}
	}
	return n
}
