package excel

import (
	"context"
	"fmt"
	"io"

	"convsim/domain/stats"
	"convsim/ports"

	"github.com/xuri/excelize/v2"
)

// Renderer writes an analysis as an XLSX workbook
type Renderer struct {
	config WorkbookConfig
}

// NewRenderer creates a workbook renderer
func NewRenderer(config WorkbookConfig) *Renderer {
	return &Renderer{config: config}
}

// Format implements ports.RendererPort
func (r *Renderer) Format() string { return "xlsx" }

// Render builds the workbook in memory and streams it to w.
func (r *Renderer) Render(ctx context.Context, view ports.AnalysisView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sheets := []struct {
		name  string
		table table
	}{
		{r.config.SummarySheet, summaryTable(view)},
		{r.config.RunSheet, runTable(view.Run)},
		{r.config.DensitySheet, densityTable(view)},
		{r.config.RegionSheet, regionTable(view)},
		{r.config.ConvergenceSheet, convergenceTable(view.Convergence)},
	}

	for i, s := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == 0 {
			// NewFile starts with Sheet1
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", s.name, err)
		}
		if err := writeTable(f, s.name, s.table, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", s.name, err)
		}
	}

	if r.config.Charts && view.Density != nil {
		if err := addDensityChart(f, r.config.DensitySheet, view); err != nil {
			return fmt.Errorf("failed to add density chart: %w", err)
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t table, headerStyle int) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}
	for i, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func addDensityChart(f *excelize.File, sheet string, view ports.AnalysisView) error {
	n := view.Density.Len()
	return f.AddChart(sheet, "F2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, n+1),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, n+1),
		}},
		Title:  []excelize.RichTextRun{{Text: view.Title}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

func summaryTable(view ports.AnalysisView) table {
	t := table{Headers: []string{"Field", "Value"}}
	t.add("Title", view.Title)
	t.add("Visitors", view.Experiment.Visitors)
	t.add("Conversion rate", view.Experiment.ConversionRate)
	t.add("Standard error", view.Experiment.StandardError())
	if view.Run != nil {
		t.add("Run ID", view.Run.ID.String())
		t.add("Seed", view.Run.Seed)
		t.add("Trials", view.Run.Len())
		t.add("Unit", string(view.Run.Unit))
		t.add("Fingerprint", view.Run.Fingerprint().Short())
	}
	if view.Density != nil {
		t.add("Bandwidth", view.Density.Bandwidth)
	}
	if p := view.Profile; p != nil {
		t.add("Mean", p.Summary.Mean)
		t.add("Expected mean", p.ExpectedMean)
		t.add("Std dev", p.Summary.StdDev)
		t.add("Expected std dev", p.ExpectedStdDev)
		t.add("Skewness", p.Shape.Skewness)
		t.add("Excess kurtosis", p.Shape.ExcessKurtosis)
		t.add("Jarque-Bera p", p.Shape.JarqueBeraP)
	}
	for _, failure := range view.Failures {
		t.add("Failure ("+failure.Stage+")", failure.Code+": "+failure.Message)
	}
	return t
}

func runTable(run *stats.SimulationRun) table {
	t := table{Headers: []string{"Trial", "Outcome"}}
	if run == nil {
		return t
	}
	for i := 0; i < run.Len(); i++ {
		t.add(i+1, run.At(i))
	}
	return t
}

func densityTable(view ports.AnalysisView) table {
	t := table{Headers: []string{"Value", "Density", "Cumulative", "Exceedance"}}
	d := view.Density
	if d == nil {
		return t
	}
	for i := range d.Grid {
		t.add(d.Grid[i], d.Density[i], d.Cumulative[i], d.Exceedance(i))
	}
	return t
}

func regionTable(view ports.AnalysisView) table {
	t := table{Headers: []string{"Region", "Kind", "Lower", "Upper", "Empirical", "Analytic", "Difference"}}
	for _, p := range view.Regions {
		t.add(p.Label, string(p.Region.Kind()), bound(p.Region.Lower), bound(p.Region.Upper),
			p.Empirical, p.Analytic, p.Difference())
	}
	return t
}

func convergenceTable(series []stats.ConvergenceSeries) table {
	t := table{Headers: []string{"Prefix", "Index", "Value", "Occurrence"}}
	for _, s := range series {
		for _, p := range s.Points {
			t.add(s.PrefixLength, p.Index, p.Value, p.Occurrence)
		}
	}
	return t
}

func bound(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
