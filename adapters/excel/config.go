package excel

// WorkbookConfig controls the layout of the exported workbook
type WorkbookConfig struct {
	RunSheet         string `json:"run_sheet"`
	DensitySheet     string `json:"density_sheet"`
	RegionSheet      string `json:"region_sheet"`
	ConvergenceSheet string `json:"convergence_sheet"`
	SummarySheet     string `json:"summary_sheet"`
	// Charts adds a density line chart to the density sheet.
	Charts bool `json:"charts"`
}

// DefaultWorkbookConfig returns the standard sheet names with charts enabled
func DefaultWorkbookConfig() WorkbookConfig {
	return WorkbookConfig{
		RunSheet:         "Run",
		DensitySheet:     "Density",
		RegionSheet:      "Regions",
		ConvergenceSheet: "Convergence",
		SummarySheet:     "Summary",
		Charts:           true,
	}
}
