package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme is a predefined color scheme for signal strength.
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white

	DefaultColorMapSize = 256

	zoneAlpha = 0xa0
)

type gradientStop struct {
	color colorful.Color
	pos   float64
}

// gradient blends between stops in HCL space.
type gradient []gradientStop

func (g gradient) at(t float64) colorful.Color {
	for i := 0; i < len(g)-1; i++ {
		c1, c2 := g[i], g[i+1]
		if c1.pos <= t && t <= c2.pos {
			return c1.color.BlendHcl(c2.color, (t-c1.pos)/(c2.pos-c1.pos)).Clamped()
		}
	}
	return g[len(g)-1].color
}

var themes = map[ColorTheme]func(float64) colorful.Color{
	ClassicTheme: func(v float64) colorful.Color {
		return colorful.Hsv(240-(v*240), 0.9+(v*0.1), 0.35+0.65*math.Pow(v, 0.7))
	},
	GrayscaleTheme: func(v float64) colorful.Color {
		g := math.Pow(v, 0.7)
		return colorful.Color{R: g, G: g, B: g}
	},
	JungleTheme: func(v float64) colorful.Color {
		return colorful.Hsv(120-(v*60), 1, 0.3+(math.Pow(v, 0.6)*0.7))
	},
	ThermalTheme: gradient{
		{colorful.Color{}, 0},
		{colorful.Color{R: 1}, 0.33},
		{colorful.Color{R: 1, G: 1}, 0.66},
		{colorful.Color{R: 1, G: 1, B: 1}, 1},
	}.at,
	MarineTheme: gradient{
		{colorful.Color{B: 0.3}, 0},
		{colorful.Color{G: 0.6, B: 0.9}, 0.5},
		{colorful.Color{R: 0.9, G: 1, B: 1}, 1},
	}.at,
}

// ColorMapper maps C/N0 values to colors using a pre-computed table
type ColorMapper struct {
	colorMap    []color.NRGBA
	theme       func(float64) colorful.Color
	themeName   ColorTheme
	size        int
	perIndex    float64
	boundsMin   float64
	boundsRange float64
}

func NewColorMapper(theme ColorTheme, bounds CN0Bounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

func NewColorMapperWithSize(theme ColorTheme, bounds CN0Bounds, size int) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}
	fn, ok := themes[theme]
	if !ok {
		theme, fn = ClassicTheme, themes[ClassicTheme]
	}

	cm := &ColorMapper{
		colorMap:  make([]color.NRGBA, size),
		theme:     fn,
		themeName: theme,
		size:      size,
	}
	for i := 0; i < size; i++ {
		r, g, b := fn(float64(i) / float64(size-1)).RGB255()
		cm.colorMap[i] = color.NRGBA{R: r, G: g, B: b, A: zoneAlpha}
	}
	cm.UpdateBounds(bounds)
	return cm
}

func (cm *ColorMapper) UpdateBounds(bounds CN0Bounds) {
	cm.boundsMin = bounds.Min
	cm.boundsRange = bounds.Max - bounds.Min
	cm.perIndex = cm.boundsRange / float64(cm.size-1)
}

// GetColor returns the color for cn0. Missing readings use the lowest color.
func (cm *ColorMapper) GetColor(cn0 *int64) color.NRGBA {
	if cn0 == nil || cm.perIndex <= 0 {
		return cm.colorMap[0]
	}

	index := int((float64(*cn0) - cm.boundsMin) / cm.perIndex)
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

func (cm *ColorMapper) Size() int {
	return cm.size
}
