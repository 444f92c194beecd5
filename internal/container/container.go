package container

import (
	"fmt"

	"convsim/adapters/chart"
	"convsim/adapters/excel"
	"convsim/adapters/report"
	"convsim/adapters/rng"
	"convsim/app"
	"convsim/internal"
	"convsim/internal/config"
	"convsim/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	RNG       ports.RNGPort
	Renderers []ports.RendererPort

	// Services
	Analysis *app.AnalysisService
	Render   *app.RenderService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.Nop()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		RNG:    rng.NewPCGAdapter(),
	}
	c.Renderers = []ports.RendererPort{
		chart.NewRenderer(chart.DefaultConfig()),
		excel.NewRenderer(excel.DefaultWorkbookConfig()),
		report.NewRenderer(),
	}

	c.Analysis = app.NewAnalysisService(c.RNG, logger.With("component", "analysis"))
	c.Render = app.NewRenderService(cfg.Output.Dir, logger.With("component", "render"), c.Renderers...)

	for _, format := range cfg.Output.Formats {
		if !c.hasFormat(format) {
			return nil, fmt.Errorf("OUTPUT_FORMATS: unsupported format %q (have %v)", format, c.Render.Formats())
		}
	}
	return c, nil
}

// DefaultRequest is the analysis described by the configuration
func (c *Container) DefaultRequest() app.AnalysisRequest {
	return app.DefaultRequest(c.Config)
}

func (c *Container) hasFormat(format string) bool {
	for _, f := range c.Render.Formats() {
		if f == format {
			return true
		}
	}
	return false
}
