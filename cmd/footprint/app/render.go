package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/vector"
)

const (
	dpi            = 120.0
	fontSize       = 9.0
	tickMarkHeight = 5
	pixelsPerLabel = 150.0
	extentPadding  = 0.05
	legendWidth    = 160
	legendHeight   = 10
	markerRadius   = 2
	earthRadius    = 6_371_000.0 // meters

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 100
	defaultBottomBorder = 60
	defaultRightBorder  = 40

	defaultDatetimeFormat = time.DateTime
)

var (
	specularColor = color.RGBA{A: 255}
	trackColor    = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 255}
)

// BorderConfig defines the sizes of white space around the footprint
type BorderConfig struct {
	Top    int // Space for longitude scale
	Left   int // Space for latitude scale
	Bottom int // Space for information bar and legend
	Right  int // Right padding
}

// RenderConfig holds all configuration options for footprint rendering
type RenderConfig struct {
	DatetimeFormat string
	Location       *time.Location

	Width         int        // footprint area width in pixels
	FontSize      float64    // Font size in points
	ColorTheme    ColorTheme // Color scheme for C/N0 values
	Bounds        *CN0Bounds // manual C/N0 range, nil derives it from the data
	NoAnnotations bool

	BorderConfig BorderConfig
}

// FootprintRenderer draws Fresnel zones on an equirectangular projection
type FootprintRenderer struct {
	colorMap *ColorMapper
	config   RenderConfig
}

func NewFootprintRenderer(config RenderConfig) (*FootprintRenderer, error) {
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if _, ok := themes[config.ColorTheme]; !ok && config.ColorTheme != "" {
		return nil, fmt.Errorf("unknown color theme: %s", config.ColorTheme)
	}
	if config.NoAnnotations {
		config.BorderConfig = BorderConfig{Top: 10, Left: 10, Bottom: 10, Right: 10}
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &FootprintRenderer{config: config}, nil
}

// projection maps geographic coordinates onto the footprint area
type projection struct {
	area           image.Rectangle
	latMin, latMax float64
	lonMin, lonMax float64
}

func newProjection(fp *FootprintData, width int) projection {
	padLat := max((fp.LatMax-fp.LatMin)*extentPadding, 1e-5)
	padLon := max((fp.LonMax-fp.LonMin)*extentPadding, 1e-5)

	p := projection{
		latMin: fp.LatMin - padLat,
		latMax: fp.LatMax + padLat,
		lonMin: fp.LonMin - padLon,
		lonMax: fp.LonMax + padLon,
	}

	dLon := (p.lonMax - p.lonMin) * math.Cos((p.latMin+p.latMax)/2*math.Pi/180)
	height := int(float64(width) * (p.latMax - p.latMin) / dLon)
	height = min(max(height, 100), 4*width)
	p.area = image.Rect(0, 0, width, height)
	return p
}

// point returns the position relative to the area origin.
func (p projection) point(lat, lon float64) (float32, float32) {
	x := (lon - p.lonMin) / (p.lonMax - p.lonMin) * float64(p.area.Dx())
	y := (p.latMax - lat) / (p.latMax - p.latMin) * float64(p.area.Dy())
	return float32(x), float32(y)
}

// metersPerPixel returns the horizontal ground resolution at the centre.
func (p projection) metersPerPixel() float64 {
	lat := (p.latMin + p.latMax) / 2 * math.Pi / 180
	dLon := (p.lonMax - p.lonMin) * math.Pi / 180
	return earthRadius * math.Cos(lat) * dLon / float64(p.area.Dx())
}

// Render creates an image of the footprint with annotations
func (r *FootprintRenderer) Render(fp *FootprintData) (*image.RGBA, error) {
	if fp.Empty() {
		return nil, fmt.Errorf("nothing to render")
	}

	proj := newProjection(fp, r.config.Width)
	b := r.config.BorderConfig

	fullWidth := proj.area.Dx() + b.Left + b.Right
	fullHeight := proj.area.Dy() + b.Top + b.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	proj.area = proj.area.Add(image.Pt(b.Left, b.Top))

	bounds := fp.Histogram.Bounds()
	if r.config.Bounds != nil {
		bounds = *r.config.Bounds
	}
	if r.colorMap == nil {
		r.colorMap = NewColorMapper(r.config.ColorTheme, bounds)
	} else {
		r.colorMap.UpdateBounds(bounds)
	}

	r.renderZones(img, proj, fp)
	r.renderMarkers(img, proj, fp)

	if r.config.NoAnnotations {
		return img, nil
	}

	ann, err := newAnnotator(annotatorConfig{
		DatetimeFormat: r.config.DatetimeFormat,
		Location:       r.config.Location,
		FontSize:       r.config.FontSize,
		Borders:        b,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, proj, fp, bounds, r.colorMap); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}
	return img, nil
}

// renderZones fills every Fresnel ring with the color of its C/N0.
func (r *FootprintRenderer) renderZones(img *image.RGBA, proj projection, fp *FootprintData) {
	z := vector.NewRasterizer(proj.area.Dx(), proj.area.Dy())
	z.DrawOp = draw.Over

	for _, zone := range fp.Zones {
		ring := zone.Zone.Ring
		if len(ring) < 3 {
			continue
		}

		z.Reset(proj.area.Dx(), proj.area.Dy())
		z.MoveTo(proj.point(ring[0].Latitude, ring[0].Longitude))
		for _, p := range ring[1:] {
			z.LineTo(proj.point(p.Latitude, p.Longitude))
		}
		z.ClosePath()

		z.Draw(img, proj.area, image.NewUniform(r.colorMap.GetColor(zone.Observation.CN0)), image.Point{})
	}
}

func (r *FootprintRenderer) renderMarkers(img *image.RGBA, proj projection, fp *FootprintData) {
	mark := func(lat, lon float64, c color.Color) {
		x, y := proj.point(lat, lon)
		cx, cy := proj.area.Min.X+int(x), proj.area.Min.Y+int(y)
		for dy := -markerRadius; dy <= markerRadius; dy++ {
			for dx := -markerRadius; dx <= markerRadius; dx++ {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}

	for _, zone := range fp.Zones {
		mark(zone.Track.Latitude, zone.Track.Longitude, trackColor)
	}
	for _, zone := range fp.Zones {
		if zone.Specular != nil {
			mark(zone.Specular.Latitude, zone.Specular.Longitude, specularColor)
		}
	}
}

type annotatorConfig struct {
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, proj projection, fp *FootprintData, bounds CN0Bounds, cm *ColorMapper) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing longitude scale", func() error { return a.drawLongitudeScale(img, proj) }},
		{"drawing latitude scale", func() error { return a.drawLatitudeScale(img, proj) }},
		{"drawing info bar", func() error { return a.drawInfoBar(img, proj, fp, bounds) }},
		{"drawing legend", func() error { return a.drawLegend(img, bounds, cm) }},
	}
	for _, op := range ops {
		if err := op.fn(); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (a *annotator) fontHeight() (height, descent int) {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round(), metrics.Descent.Round()
}

func (a *annotator) drawLongitudeScale(img *image.RGBA, proj projection) error {
	step := calculateNiceDegreeStep(proj.lonMax-proj.lonMin, proj.area.Dx())
	fontHeight, _ := a.fontHeight()
	textY := a.config.Borders.Top - fontHeight/2

	for lon := math.Ceil(proj.lonMin/step) * step; lon <= proj.lonMax; lon += step {
		x, _ := proj.point(proj.latMax, lon)
		imgX := proj.area.Min.X + int(x)

		for y := proj.area.Min.Y - tickMarkHeight; y < proj.area.Min.Y; y++ {
			img.Set(imgX, y, color.Black)
		}

		label := formatDegrees(lon, step)
		width := font.MeasureString(a.fontFace, label)
		if _, err := a.context.DrawString(label, freetype.Pt(imgX-width.Round()/2, textY)); err != nil {
			return fmt.Errorf("drawing longitude label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawLatitudeScale(img *image.RGBA, proj projection) error {
	step := calculateNiceDegreeStep(proj.latMax-proj.latMin, proj.area.Dy())
	fontHeight, descent := a.fontHeight()

	for lat := math.Ceil(proj.latMin/step) * step; lat <= proj.latMax; lat += step {
		_, y := proj.point(lat, proj.lonMin)
		imgY := proj.area.Min.Y + int(y)

		for x := proj.area.Min.X - tickMarkHeight; x < proj.area.Min.X; x++ {
			img.Set(x, imgY, color.Black)
		}

		label := formatDegrees(lat, step)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(proj.area.Min.X-tickMarkHeight-4-width.Round(), imgY+fontHeight/2-descent)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing latitude label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, proj projection, fp *FootprintData, bounds CN0Bounds) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s zones, %d satellites", humanize.Comma(int64(len(fp.Zones))), len(fp.Satellites)))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Time: %s - %s",
		fp.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
		fp.TimestampEnd.In(a.config.Location).Format(a.config.DatetimeFormat)))

	line2 := fmt.Sprintf("Range: max %s, mean %s; 1px = %s; C/N0 %.0f - %.0f dB-Hz",
		humanize.SIWithDigits(fp.MaxRange, 1, "m"),
		humanize.SIWithDigits(fp.MeanRange(), 1, "m"),
		humanize.SIWithDigits(proj.metersPerPixel(), 2, "m"),
		bounds.Min, bounds.Max)

	fontHeight, descent := a.fontHeight()
	textY := proj.area.Max.Y + fontHeight + 4 - descent

	if _, err := a.context.DrawString(sb.String(), freetype.Pt(proj.area.Min.X, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	if _, err := a.context.DrawString(line2, freetype.Pt(proj.area.Min.X, textY+fontHeight+2)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// drawLegend draws the C/N0 color strip in the bottom right corner.
func (a *annotator) drawLegend(img *image.RGBA, bounds CN0Bounds, cm *ColorMapper) error {
	b := img.Bounds()
	x0 := b.Max.X - a.config.Borders.Right - legendWidth
	y0 := b.Max.Y - a.config.Borders.Bottom/2 - legendHeight/2
	if x0 < 0 {
		return nil
	}

	for x := 0; x < legendWidth; x++ {
		cn0 := int64(math.Round(bounds.Min + (bounds.Max-bounds.Min)*float64(x)/float64(legendWidth-1)))
		c := cm.GetColor(&cn0)
		c.A = 255
		for y := 0; y < legendHeight; y++ {
			img.Set(x0+x, y0+y, c)
		}
	}
	return nil
}

func calculateNiceDegreeStep(span float64, pixels int) float64 {
	steps := []float64{
		0.00001, 0.00002, 0.00005,
		0.0001, 0.0002, 0.0005,
		0.001, 0.002, 0.005,
		0.01, 0.02, 0.05,
		0.1, 0.2, 0.5,
		1,
	}

	desiredSteps := max(float64(pixels)/pixelsPerLabel, 1)
	targetStep := span / desiredSteps

	for _, step := range steps {
		if step >= targetStep {
			return step
		}
	}
	return steps[len(steps)-1]
}

func formatDegrees(v, step float64) string {
	decimals := max(0, int(math.Ceil(-math.Log10(step))))
	return fmt.Sprintf("%.*f°", decimals, v)
}
