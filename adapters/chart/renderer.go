package chart

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"convsim/domain/stats"
	"convsim/ports"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	lineColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	shadeColor = color.RGBA{R: 31, G: 119, B: 180, A: 96}
	dotColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Config sizes the rendered image
type Config struct {
	Width       vg.Length
	PanelHeight vg.Length
	DPI         int
}

// DefaultConfig returns an 8in wide image with 3in panels at 96 DPI
func DefaultConfig() Config {
	return Config{Width: 8 * vg.Inch, PanelHeight: 3 * vg.Inch, DPI: 96}
}

// Renderer draws the analysis as a PNG: one shaded density panel per region
// followed by one convergence panel per prefix.
type Renderer struct {
	config Config
}

// NewRenderer creates a PNG renderer
func NewRenderer(config Config) *Renderer {
	return &Renderer{config: config}
}

// Format implements ports.RendererPort
func (r *Renderer) Format() string { return "png" }

// Render implements ports.RendererPort
func (r *Renderer) Render(ctx context.Context, view ports.AnalysisView, w io.Writer) error {
	panels, err := r.panels(ctx, view)
	if err != nil {
		return err
	}

	rows := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.NewWith(
		vgimg.UseWH(r.config.Width, r.config.PanelHeight*vg.Length(len(panels))),
		vgimg.UseDPI(r.config.DPI),
	)
	tiles := draw.Tiles{Rows: len(panels), Cols: 1, PadX: vg.Millimeter, PadY: 2 * vg.Millimeter, PadTop: vg.Millimeter, PadBottom: vg.Millimeter}
	canvases := plot.Align(rows, tiles, draw.New(img))
	for i := range panels {
		panels[i].Draw(canvases[i][0])
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func (r *Renderer) panels(ctx context.Context, view ports.AnalysisView) ([]*plot.Plot, error) {
	var panels []*plot.Plot
	if view.Density != nil {
		for _, region := range view.Regions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := densityPanel(view, region)
			if err != nil {
				return nil, err
			}
			panels = append(panels, p)
		}
	}
	for _, series := range view.Convergence {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := convergencePanel(view, series)
		if err != nil {
			return nil, err
		}
		panels = append(panels, p)
	}
	if len(panels) == 0 {
		p := plot.New()
		p.Title.Text = view.Title + " (nothing to plot)"
		panels = append(panels, p)
	}
	return panels, nil
}

func densityPanel(view ports.AnalysisView, region stats.RegionProbability) (*plot.Plot, error) {
	d := view.Density
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s", view.Title, region.Label)
	p.X.Label.Text = axisLabel(d.Unit)
	p.Y.Label.Text = "density"
	p.X.Tick.Marker = ticks(view.TickValues, d.Unit)

	if region.Shading != nil {
		for _, seg := range region.Shading.Segments {
			if !seg.Shaded || seg.End <= seg.Start {
				continue
			}
			end := seg.End
			if end < d.Len() {
				end++
			}
			fill, err := plotter.NewLine(xys(d.Grid[seg.Start:end], d.Density[seg.Start:end]))
			if err != nil {
				return nil, err
			}
			fill.FillColor = shadeColor
			fill.LineStyle.Width = 0
			p.Add(fill)
		}
	}

	curve, err := plotter.NewLine(xys(d.Grid, d.Density))
	if err != nil {
		return nil, err
	}
	curve.Color = lineColor
	p.Add(curve)
	p.Legend.Add(fmt.Sprintf("%s (analytic %.2f%%)", region.Caption(), 100*region.Analytic), curve)
	p.Legend.Top = true
	return p, nil
}

func convergencePanel(view ports.AnalysisView, series stats.ConvergenceSeries) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(series.Points))
	for i, pt := range series.Points {
		pts[i].X = pt.Value
		pts[i].Y = float64(pt.Occurrence)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("First %d simulated experiments", series.PrefixLength)
	p.X.Label.Text = axisLabel(unitOf(view))
	p.Y.Label.Text = "occurrences"
	p.X.Tick.Marker = ticks(view.TickValues, unitOf(view))

	dots, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	dots.GlyphStyle.Color = dotColor
	dots.GlyphStyle.Radius = vg.Points(1.5)
	dots.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(dots)
	return p, nil
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

func unitOf(view ports.AnalysisView) stats.Unit {
	if view.Run != nil {
		return view.Run.Unit
	}
	return stats.UnitCount
}

func axisLabel(unit stats.Unit) string {
	if unit == stats.UnitRate {
		return "conversion rate"
	}
	return "conversions"
}

// ticks pins the x axis to the supplied values; nil falls back to the
// default marker.
func ticks(values []float64, unit stats.Unit) plot.Ticker {
	if len(values) == 0 {
		return plot.DefaultTicks{}
	}
	out := make([]plot.Tick, len(values))
	for i, v := range values {
		label := strconv.FormatFloat(v, 'f', -1, 64)
		if unit == stats.UnitRate {
			label = strconv.FormatFloat(100*v, 'f', 1, 64) + "%"
		}
		out[i] = plot.Tick{Value: v, Label: label}
	}
	return plot.ConstantTicks(out)
}
