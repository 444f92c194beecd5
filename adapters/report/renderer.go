package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"convsim/domain/stats"
	"convsim/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	mstats "github.com/montanaflynn/stats"
)

// Renderer writes a standalone HTML summary of an analysis
type Renderer struct{}

// NewRenderer creates an HTML summary renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Format implements ports.RendererPort
func (r *Renderer) Format() string { return "html" }

// Render converts the Markdown summary to a complete HTML page.
func (r *Renderer) Render(ctx context.Context, view ports.AnalysisView, w io.Writer) error {
	md, err := Markdown(view)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: view.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	if _, err := w.Write(markdown.ToHTML(md, p, renderer)); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	return nil
}

// Markdown builds the report body.
func Markdown(view ports.AnalysisView) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", view.Title)
	fmt.Fprintf(&b, "%d visitors converting at %.2f%% (standard error %.4f).\n\n",
		view.Experiment.Visitors, 100*view.Experiment.ConversionRate, view.Experiment.StandardError())

	if view.Run != nil {
		if err := writeRunSummary(&b, view.Run); err != nil {
			return nil, err
		}
	}

	if p := view.Profile; p != nil && !p.Degenerate {
		b.WriteString("## Shape\n\n")
		b.WriteString("| | Simulated | Binomial |\n|---|---:|---:|\n")
		fmt.Fprintf(&b, "| Mean | %.4g | %.4g |\n", p.Summary.Mean, p.ExpectedMean)
		fmt.Fprintf(&b, "| Std dev | %.4g | %.4g |\n\n", p.Summary.StdDev, p.ExpectedStdDev)
		verdict := "consistent with"
		if !p.Shape.LooksNormal {
			verdict = "departs from"
		}
		fmt.Fprintf(&b, "Skewness %.3f, excess kurtosis %.3f: the simulated shape %s a normal curve (Jarque-Bera p = %.3g).\n\n",
			p.Shape.Skewness, p.Shape.ExcessKurtosis, verdict, p.Shape.JarqueBeraP)
	}

	if len(view.Regions) > 0 {
		b.WriteString("## Regions\n\n")
		b.WriteString("| Region | Simulated | Normal approximation | Difference |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, p := range view.Regions {
			fmt.Fprintf(&b, "| %s | %.2f%% | %.2f%% | %+.2f pp |\n",
				p.Label, 100*p.Empirical, 100*p.Analytic, 100*p.Difference())
		}
		b.WriteString("\n")
	}

	if d := view.Density; d != nil {
		fmt.Fprintf(&b, "## Density\n\nGaussian kernel, bandwidth %.4f, %d grid points.\n\n", d.Bandwidth, d.Len())
		for _, i := range quartileIndexes(d) {
			fmt.Fprintf(&b, "- %s\n", d.ExceedanceLabel(subject(d.Unit), i))
		}
		b.WriteString("\n")
	}

	if len(view.Convergence) > 0 {
		b.WriteString("## Convergence\n\n| Experiments | Distinct outcomes | Most frequent | Count |\n|---:|---:|---:|---:|\n")
		for _, s := range view.Convergence {
			top := mode(s.Totals)
			fmt.Fprintf(&b, "| %d | %d | %g | %d |\n", s.PrefixLength, len(s.Totals), top.Value, top.Count)
		}
		b.WriteString("\n")
	}

	if len(view.Failures) > 0 {
		b.WriteString("## Skipped stages\n\n")
		for _, f := range view.Failures {
			fmt.Fprintf(&b, "- **%s** (`%s`): %s\n", f.Stage, f.Code, f.Message)
		}
		b.WriteString("\n")
	}
	return b.Bytes(), nil
}

func writeRunSummary(b *bytes.Buffer, run *stats.SimulationRun) error {
	data := mstats.Float64Data(run.Values())
	mean, err := data.Mean()
	if err != nil {
		return fmt.Errorf("failed to summarize run: %w", err)
	}
	median, err := data.Median()
	if err != nil {
		return fmt.Errorf("failed to summarize run: %w", err)
	}
	p5, err := data.PercentileNearestRank(5)
	if err != nil {
		return fmt.Errorf("failed to summarize run: %w", err)
	}
	p95, err := data.PercentileNearestRank(95)
	if err != nil {
		return fmt.Errorf("failed to summarize run: %w", err)
	}

	fmt.Fprintf(b, "## Simulation\n\n")
	fmt.Fprintf(b, "- Run `%s`, seed %d, %d experiments\n", run.ID, run.Seed, run.Len())
	fmt.Fprintf(b, "- Mean %.4g, median %.4g\n", mean, median)
	fmt.Fprintf(b, "- 90%% of outcomes between %.4g and %.4g\n", p5, p95)
	fmt.Fprintf(b, "- Range %.4g to %.4g\n\n", run.Min(), run.Max())
	return nil
}

// quartileIndexes picks the grid points closest to each quartile of the
// cumulative sequence.
func quartileIndexes(d *stats.DensityEstimate) []int {
	var out []int
	targets := []float64{0.25, 0.5, 0.75}
	t := 0
	for i, c := range d.Cumulative {
		if t < len(targets) && c >= targets[t] {
			out = append(out, i)
			t++
		}
	}
	return out
}

func mode(totals []stats.ValueCount) stats.ValueCount {
	var top stats.ValueCount
	for _, vc := range totals {
		if vc.Count > top.Count {
			top = vc
		}
	}
	return top
}

func subject(unit stats.Unit) string {
	if unit == stats.UnitRate {
		return "rate"
	}
	return "conversions"
}
