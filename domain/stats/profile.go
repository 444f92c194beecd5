package stats

// ============================================================================
// SHAPE PROFILE
// ============================================================================

// SummaryStats are the location and spread of a run.
type SummaryStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// ShapeStats describe how far a run departs from a normal shape.
type ShapeStats struct {
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis"`
	JarqueBera     float64 `json:"jarque_bera"`
	JarqueBeraP    float64 `json:"jarque_bera_p"`
	LooksNormal    bool    `json:"looks_normal"`
}

// RunProfile compares the simulated distribution with the binomial moments
// the normal approximation assumes.
type RunProfile struct {
	Summary SummaryStats `json:"summary"`
	Shape   ShapeStats   `json:"shape"`
	// ExpectedMean and ExpectedStdDev are the binomial moments in the run's
	// unit.
	ExpectedMean   float64 `json:"expected_mean"`
	ExpectedStdDev float64 `json:"expected_std_dev"`
	Outliers       int     `json:"outliers"`
	Degenerate     bool    `json:"degenerate"`
}
