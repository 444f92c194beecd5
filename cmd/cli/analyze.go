package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"convsim/app"
	"convsim/domain/stats"
	"convsim/internal"
	"convsim/internal/config"
	"convsim/internal/container"

	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	title    string
	trials   int
	visitors int
	rate     float64
	seed     int64
	unit     string
	gridSize int
	lower    float64
	upper    float64
	prefixes string
	formats  string
	outDir   string
	jsonOut  bool
	logLevel string
}

func newAnalyzeCmd() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Simulate one experiment, evaluate regions and write charts",
		Long: `Simulate repeated binomial experiments, estimate their density, compare
region probabilities with the normal approximation and track convergence.

Unset flags fall back to the SIM_*, REGION_*, DENSITY_* and CONVERGENCE_*
environment variables.

Example: convsim analyze --trials 10000 --visitors 1000 --rate 0.1 --seed 42 --lower 85 --upper 115`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(f.logLevel)
			if err != nil {
				return err
			}
			req, err := f.request(cmd, c.DefaultRequest())
			if err != nil {
				return err
			}

			report, err := c.Analysis.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			if f.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)

			return writeOutputs(cmd, c, report, f.formats, f.outDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.title, "title", "", "Chart title")
	flags.IntVar(&f.trials, "trials", 0, "Number of simulated experiments")
	flags.IntVar(&f.visitors, "visitors", 0, "Visitors per experiment")
	flags.Float64Var(&f.rate, "rate", 0, "Conversion rate in [0,1]")
	flags.Int64Var(&f.seed, "seed", 0, "Random seed (omit for a fresh seed)")
	flags.StringVar(&f.unit, "unit", "", "Outcome unit: count or rate")
	flags.IntVar(&f.gridSize, "grid-size", 0, "Density grid size")
	flags.Float64Var(&f.lower, "lower", 0, "Lower region bound")
	flags.Float64Var(&f.upper, "upper", 0, "Upper region bound")
	flags.StringVar(&f.prefixes, "prefixes", "", "Comma-separated convergence prefix sizes, e.g. 1,50,200,10000")
	flags.StringVar(&f.formats, "formats", "", "Comma-separated output formats (default OUTPUT_FORMATS, \"none\" to skip)")
	flags.StringVar(&f.outDir, "out", "", "Output directory (default OUTPUT_DIR)")
	flags.BoolVar(&f.jsonOut, "json", false, "Print the full report as JSON and skip file output")
	flags.StringVar(&f.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (default LOG_LEVEL)")

	return cmd
}

// request overlays explicitly set flags on the configured defaults.
func (f *analyzeFlags) request(cmd *cobra.Command, base app.AnalysisRequest) (app.AnalysisRequest, error) {
	req := base
	flags := cmd.Flags()

	req.Title = f.title
	if flags.Changed("trials") {
		req.Trials = f.trials
	}
	if flags.Changed("visitors") {
		req.Experiment.Visitors = f.visitors
	}
	if flags.Changed("rate") {
		req.Experiment.ConversionRate = f.rate
	}
	if flags.Changed("seed") {
		seed := f.seed
		req.Seed = &seed
	}
	if flags.Changed("unit") {
		unit, err := stats.ParseUnit(f.unit)
		if err != nil {
			return req, err
		}
		req.Unit = unit
	}
	if flags.Changed("grid-size") {
		req.GridSize = f.gridSize
	}
	if flags.Changed("lower") || flags.Changed("upper") {
		bounds := config.RegionConfig{}
		if flags.Changed("lower") {
			bounds.Lower = &f.lower
		}
		if flags.Changed("upper") {
			bounds.Upper = &f.upper
		}
		req.Regions = bounds.Regions()
	}
	if flags.Changed("prefixes") {
		prefixes, err := config.ParseIntList(f.prefixes)
		if err != nil {
			return req, err
		}
		req.PrefixSizes = prefixes
	}
	return req, nil
}

func newContainer(logLevel string) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := internal.NewDefaultLogger()
	if logLevel != "" {
		logger.SetLevel(internal.ParseLogLevel(logLevel))
	}
	return container.New(cfg, logger)
}

func writeOutputs(cmd *cobra.Command, c *container.Container, report *app.AnalysisReport, formats, outDir string) error {
	if strings.EqualFold(formats, "none") {
		return nil
	}
	list := c.Config.Output.Formats
	if formats != "" {
		list = strings.Split(formats, ",")
	}
	render := c.Render
	if outDir != "" {
		render = app.NewRenderService(outDir, c.Logger, c.Renderers...)
	}
	paths, err := render.WriteFiles(cmd.Context(), report, list)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
	}
	return nil
}

func printReport(w io.Writer, report *app.AnalysisReport) {
	run := report.Run
	fmt.Fprintf(w, "%s\n", report.View().Title)
	fmt.Fprintf(w, "run %s  seed %d  range [%g, %g]\n\n", run.ID, run.Seed, run.Min(), run.Max())

	fmt.Fprintf(w, "%-40s %10s %10s %10s\n", "REGION", "SIMULATED", "NORMAL", "DIFF")
	for _, p := range report.Regions {
		fmt.Fprintf(w, "%-40s %9.2f%% %9.2f%% %+9.2fpp\n", p.Label, 100*p.Empirical, 100*p.Analytic, 100*p.Difference())
	}

	if report.Density != nil {
		fmt.Fprintf(w, "\ndensity: %d points, bandwidth %.4f\n", report.Density.Len(), report.Density.Bandwidth)
	}
	fmt.Fprintln(w, "\nconvergence:")
	for _, s := range report.Convergence {
		fmt.Fprintf(w, "  first %-8d %d distinct outcomes\n", s.PrefixLength, len(s.Totals))
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(w, "\nskipped %s: %s\n", failure.Stage, failure.Message)
	}
}
