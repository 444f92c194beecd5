package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"convsim/internal"
	"convsim/internal/errors"
	"convsim/ports"

	"golang.org/x/sync/errgroup"
)

// RenderService hands analysis reports to the configured renderers
type RenderService struct {
	renderers map[string]ports.RendererPort
	outputDir string
	logger    *internal.Logger
}

// NewRenderService registers renderers by their format
func NewRenderService(outputDir string, logger *internal.Logger, renderers ...ports.RendererPort) *RenderService {
	if logger == nil {
		logger = internal.Nop()
	}
	byFormat := make(map[string]ports.RendererPort, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &RenderService{renderers: byFormat, outputDir: outputDir, logger: logger}
}

// Formats lists the registered formats, sorted.
func (s *RenderService) Formats() []string {
	out := make([]string, 0, len(s.renderers))
	for f := range s.renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Render streams one format of the report to w.
func (s *RenderService) Render(ctx context.Context, report *AnalysisReport, format string, w io.Writer) error {
	r, ok := s.renderers[format]
	if !ok {
		return errors.InvalidInput(fmt.Sprintf("unsupported format %q (have %v)", format, s.Formats()))
	}
	if err := r.Render(ctx, report.View(), w); err != nil {
		return errors.RenderFailed(format, err)
	}
	return nil
}

// WriteFiles renders every requested format into the output directory as
// <session-id>.<format> and returns the written paths in request order, each format once. An
// empty formats list renders all registered formats. Formats render
// concurrently; the first failure cancels the rest.
func (s *RenderService) WriteFiles(ctx context.Context, report *AnalysisReport, formats []string) ([]string, error) {
	if len(formats) == 0 {
		formats = s.Formats()
	}
	seen := make(map[string]bool, len(formats))
	unique := make([]string, 0, len(formats))
	for _, format := range formats {
		if _, ok := s.renderers[format]; !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("unsupported format %q (have %v)", format, s.Formats()))
		}
		if !seen[format] {
			seen[format] = true
			unique = append(unique, format)
		}
	}
	formats = unique
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", s.outputDir)
	}

	paths := make([]string, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		paths[i] = filepath.Join(s.outputDir, fmt.Sprintf("%s.%s", report.SessionID, format))
		g.Go(func() error {
			if err := s.writeFile(gctx, report, format, paths[i]); err != nil {
				return err
			}
			s.logger.Info("wrote %s", paths[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *RenderService) writeFile(ctx context.Context, report *AnalysisReport, format, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()
	return s.Render(ctx, report, format, f)
}
