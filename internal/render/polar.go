package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	polarDPI      = 100.0
	polarFontSize = 10.0
	dotRadius     = 2
	legendSwatch  = 8
	lineSpacing   = 1.4

	// Default border sizes in pixels
	defaultPolarTopBorder    = 60
	defaultPolarSideBorder   = 40
	defaultPolarBottomBorder = 30
)

// BorderConfig defines the sizes of white space around the polar plot area
type BorderConfig struct {
	Top    int // Space for the title
	Left   int
	Bottom int // Space below the legend
	Right  int
}

// PolarConfig holds the configuration of the polar renderer
type PolarConfig struct {
	DPI          float64 // Pixels per inch of the figure size
	FontSize     float64 // Font size in points, overridden by the request font size
	BorderConfig BorderConfig
}

// PolarRenderer draws polar scatter plots (skyplots) on a raster image. X values are angles
// in radians measured clockwise from north, y values are radial distances.
type PolarRenderer struct {
	font   *truetype.Font
	config PolarConfig
}

// NewPolarRenderer creates a new polar renderer with the given configuration
func NewPolarRenderer(config PolarConfig) (*PolarRenderer, error) {
	// Set defaults for zero values
	if config.DPI == 0 {
		config.DPI = polarDPI
	}
	if config.FontSize == 0 {
		config.FontSize = polarFontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultPolarTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultPolarSideBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultPolarBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultPolarSideBorder
	}

	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return &PolarRenderer{font: parsedFont, config: config}, nil
}

func (r *PolarRenderer) Render(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	for _, s := range req.Series {
		if s.Times != nil || s.IsCategorical() {
			return fmt.Errorf("series %q: polar plots need numeric angles and radii", s.Label)
		}
	}

	img, err := r.draw(req)
	if err != nil {
		return err
	}
	return writeImage(img, req.Path)
}

// polarLayout is the geometry of one figure
type polarLayout struct {
	center image.Point
	radius int
	rMin   float64
	rMax   float64
	legend image.Rectangle
}

func (l polarLayout) point(theta, r float64) (int, int) {
	norm := (r - l.rMin) / (l.rMax - l.rMin)
	px := norm * float64(l.radius)
	return l.center.X + int(math.Round(px*math.Sin(theta))), l.center.Y - int(math.Round(px*math.Cos(theta)))
}

func (r *PolarRenderer) draw(req Request) (*image.RGBA, error) {
	w, h := figureSize(req.FigSize)
	width, height := int(w*r.config.DPI), int(h*r.config.DPI)

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	fontSize := r.config.FontSize
	if req.FontSize > 0 {
		fontSize = req.FontSize
	}

	ann := newPolarAnnotator(r.font, r.config.DPI, fontSize, img)
	defer ann.Close()

	layout := r.layout(req, ann, width, height)

	canvas, err := newPolarCanvas(img)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		msg string
		fn  func(*polarCanvas, polarLayout, Request, *polarAnnotator) error
	}{
		{"drawing grid", drawPolarGrid},
		{"drawing points", drawPolarPoints},
		{"drawing title", drawPolarTitle},
		{"drawing legend", drawPolarLegend},
	}
	for _, step := range steps {
		if err := step.fn(canvas, layout, req, ann); err != nil {
			return nil, fmt.Errorf("%s: %w", step.msg, err)
		}
	}

	return img, nil
}

func (r *PolarRenderer) layout(req Request, ann *polarAnnotator, width, height int) polarLayout {
	b := r.config.BorderConfig

	top := b.Top
	if lines := len(strings.Split(titleWithSummary(req), "\n")); lines > 1 {
		top += (lines - 1) * ann.lineHeight()
	}

	var legendHeight int
	if req.Legend {
		legendHeight = legendRows(req) * ann.lineHeight()
	}

	areaW := width - b.Left - b.Right
	areaH := height - top - b.Bottom - legendHeight - ann.lineHeight()
	radius := max(min(areaW, areaH)/2, 10)

	l := polarLayout{
		center: image.Pt(b.Left+areaW/2, top+ann.lineHeight()/2+radius),
		radius: radius,
		rMin:   0,
		rMax:   90,
	}
	if req.YLim != nil && req.YLim.Max > req.YLim.Min {
		l.rMin, l.rMax = req.YLim.Min, req.YLim.Max
	}

	legendTop := l.center.Y + radius + ann.lineHeight()
	l.legend = image.Rect(b.Left, legendTop, width-b.Right, legendTop+legendHeight)
	return l
}

func legendRows(req Request) int {
	ncol := max(req.LegendNCol, 1)
	var labelled int
	for _, s := range req.Series {
		if s.Label != "" {
			labelled++
		}
	}
	return (labelled + ncol - 1) / ncol
}

func drawPolarGrid(c *polarCanvas, l polarLayout, req Request, ann *polarAnnotator) error {
	// concentric circles at the radial ticks, outer circle last
	ticks := req.YTicks
	if len(ticks) == 0 {
		ticks = []float64{l.rMin + (l.rMax-l.rMin)/3, l.rMin + 2*(l.rMax-l.rMin)/3}
	}
	for _, t := range ticks {
		if t <= l.rMin || t >= l.rMax {
			continue
		}
		radius := int((t - l.rMin) / (l.rMax - l.rMin) * float64(l.radius))
		c.circle(l.center, radius, gridColor)
	}
	c.circle(l.center, l.radius, axisColor)

	// spokes every 45 degrees with azimuth labels
	for deg := 0; deg < 360; deg += 45 {
		theta := float64(deg) * math.Pi / 180
		x, y := l.point(theta, l.rMax)
		c.line(l.center, image.Pt(x, y), gridColor)

		lx, ly := l.point(theta, l.rMax+(l.rMax-l.rMin)*0.08)
		if err := ann.drawCentered(fmt.Sprintf("%d°", deg), lx, ly); err != nil {
			return err
		}
	}

	// radial tick labels along the 22.5 degree direction
	for i, t := range req.YTicks {
		label := fmt.Sprintf("%g", t)
		if i < len(req.YTickLabels) {
			label = req.YTickLabels[i]
		}
		x, y := l.point(math.Pi/8, t)
		if err := ann.drawCentered(label, x, y); err != nil {
			return err
		}
	}
	return nil
}

func drawPolarPoints(c *polarCanvas, l polarLayout, req Request, _ *polarAnnotator) error {
	colors := seriesColors(req)
	for i, s := range req.Series {
		for j, theta := range s.X {
			radius := s.Y[j]
			if math.IsNaN(theta) || math.IsNaN(radius) || radius < l.rMin || radius > l.rMax {
				continue
			}
			x, y := l.point(theta, radius)
			c.dot(image.Pt(x, y), dotRadius, colors[i])
		}
	}
	return nil
}

func drawPolarTitle(c *polarCanvas, l polarLayout, req Request, ann *polarAnnotator) error {
	y := ann.lineHeight()
	for _, line := range strings.Split(titleWithSummary(req), "\n") {
		if err := ann.drawCentered(strings.TrimSpace(line), c.img.Bounds().Dx()/2, y); err != nil {
			return err
		}
		y += ann.lineHeight()
	}
	return nil
}

func drawPolarLegend(c *polarCanvas, l polarLayout, req Request, ann *polarAnnotator) error {
	if !req.Legend {
		return nil
	}

	ncol := max(req.LegendNCol, 1)
	colWidth := l.legend.Dx() / ncol
	colors := seriesColors(req)

	var n int
	for i, s := range req.Series {
		if s.Label == "" {
			continue
		}
		x := l.legend.Min.X + (n%ncol)*colWidth
		y := l.legend.Min.Y + (n/ncol)*ann.lineHeight()
		n++

		c.rect(image.Rect(x, y-legendSwatch, x+legendSwatch, y), colors[i])
		if err := ann.drawString(s.Label, x+legendSwatch+4, y); err != nil {
			return err
		}
	}
	return nil
}

// polarAnnotator draws text with a freetype context
type polarAnnotator struct {
	context  *freetype.Context
	fontFace font.Face
}

func newPolarAnnotator(f *truetype.Font, dpi, fontSize float64, img *image.RGBA) *polarAnnotator {
	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(f)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)

	return &polarAnnotator{
		context: ctx,
		fontFace: truetype.NewFace(f, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}
}

func (a *polarAnnotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *polarAnnotator) lineHeight() int {
	metrics := a.fontFace.Metrics()
	return int(float64((metrics.Ascent + metrics.Descent).Round()) * lineSpacing)
}

// drawCentered draws s centered horizontally and vertically on x, y.
func (a *polarAnnotator) drawCentered(s string, x, y int) error {
	width := font.MeasureString(a.fontFace, s).Round()
	metrics := a.fontFace.Metrics()
	return a.drawString(s, x-width/2, y+(metrics.Ascent.Round()-metrics.Descent.Round())/2)
}

// drawString draws s with its baseline at y.
func (a *polarAnnotator) drawString(s string, x, y int) error {
	if _, err := a.context.DrawString(s, freetype.Pt(x, y)); err != nil {
		return fmt.Errorf("drawing %q: %w", s, err)
	}
	return nil
}

// polarCanvas draws grid lines and markers with an anti-aliased raster context.
type polarCanvas struct {
	img *image.RGBA
	gc  *drawing.RasterGraphicContext
}

func newPolarCanvas(img *image.RGBA) (*polarCanvas, error) {
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, fmt.Errorf("creating graphic context: %w", err)
	}
	gc.SetLineWidth(1)
	return &polarCanvas{img: img, gc: gc}, nil
}

func (c *polarCanvas) circle(center image.Point, radius int, col color.Color) {
	if radius <= 0 {
		return
	}
	cx, cy, r := float64(center.X), float64(center.Y), float64(radius)
	c.gc.SetStrokeColor(col)
	c.gc.ArcTo(cx, cy, r, r, 0, 2*math.Pi)
	c.gc.Close()
	c.gc.Stroke()
}

func (c *polarCanvas) line(from, to image.Point, col color.Color) {
	c.gc.SetStrokeColor(col)
	c.gc.MoveTo(float64(from.X), float64(from.Y))
	c.gc.LineTo(float64(to.X), float64(to.Y))
	c.gc.Stroke()
}

func (c *polarCanvas) dot(center image.Point, radius int, col color.Color) {
	cx, cy, r := float64(center.X), float64(center.Y), float64(radius)
	c.gc.SetFillColor(col)
	c.gc.ArcTo(cx, cy, r, r, 0, 2*math.Pi)
	c.gc.Close()
	c.gc.Fill()
}

func (c *polarCanvas) rect(r image.Rectangle, col color.Color) {
	c.gc.SetFillColor(col)
	c.gc.MoveTo(float64(r.Min.X), float64(r.Min.Y))
	c.gc.LineTo(float64(r.Max.X), float64(r.Min.Y))
	c.gc.LineTo(float64(r.Max.X), float64(r.Max.Y))
	c.gc.LineTo(float64(r.Min.X), float64(r.Max.Y))
	c.gc.Close()
	c.gc.Fill()
}
