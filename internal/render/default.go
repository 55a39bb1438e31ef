package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
)

var _ Renderer = (*Default)(nil)

// Default dispatches a request to the backend suited to it: polar projections to the raster
// renderer, line plots over time to go-chart and everything else to gonum/plot.
type Default struct {
	scatter *ScatterRenderer
	line    *LineRenderer
	polar   *PolarRenderer
	logger  *slog.Logger
}

// NewDefault creates the default renderer.
func NewDefault(logger *slog.Logger) (*Default, error) {
	polar, err := NewPolarRenderer(PolarConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating polar renderer: %w", err)
	}

	return &Default{
		scatter: NewScatterRenderer(),
		line:    NewLineRenderer(),
		polar:   polar,
		logger:  logger,
	}, nil
}

func (d *Default) Render(ctx context.Context, req Request) error {
	if req.PlotTo != "" && req.PlotTo != PlotToFile {
		return fmt.Errorf("unsupported plot target %q", req.PlotTo)
	}

	var (
		backend Renderer
		name    string
	)
	switch {
	case req.Projection == ProjectionPolar:
		backend, name = d.polar, "polar"
	case req.PlotType != PlotTypeScatter && d.line.CanRender(req):
		backend, name = d.line, "line"
	default:
		backend, name = d.scatter, "scatter"
	}

	if err := backend.Render(ctx, req); err != nil {
		return fmt.Errorf("rendering %s: %w", req.Path, err)
	}

	attrs := []any{
		slog.String("path", req.Path),
		slog.String("backend", name),
		slog.Int("series", len(req.Series)),
	}
	if info, err := os.Stat(req.Path); err == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	d.logger.Debug("figure written", attrs...)

	return nil
}
