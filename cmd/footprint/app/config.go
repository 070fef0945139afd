package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/roman-kulish/gnss-reflect/internal/reflection"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"

	defaultWidth = 1200
)

type ImageFormat string

type Config struct {
	DBPath        string
	PRN           *int64
	Band          string
	OutputFile    string
	Format        ImageFormat
	Theme         ColorTheme
	Width         int
	MinCN0        *float64
	MaxCN0        *float64
	Geometry      reflection.Geometry
	Verbose       bool
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:   ImagePNG,
		Theme:    ClassicTheme,
		Width:    defaultWidth,
		Geometry: reflection.DefaultGeometry(),
	}
}

func NewConfigFromCLI() (*Config, error) {
	c, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, theme string
	var prn int64
	var minCN0, maxCN0 float64
	fs.StringVar(&c.DBPath, "db", "", "Path to the specular artifact (<base>_SP.sqlite)")
	fs.Int64Var(&prn, "prn", 0, "Render a single satellite PRN")
	fs.StringVar(&c.Band, "band", "", "Render a single band, compared on its first two characters")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(ClassicTheme), "Color theme. [classic, grayscale, jungle, thermal, marine]")
	fs.IntVar(&c.Width, "width", defaultWidth, "Width of the footprint area in pixels")
	fs.Float64Var(&minCN0, "min-cn0", 0, "Define a manual minimum C/N0 (dB-Hz)")
	fs.Float64Var(&maxCN0, "max-cn0", 0, "Define a manual maximum C/N0 (dB-Hz)")
	fs.Float64Var(&c.Geometry.GroundClearance, "clearance", c.Geometry.GroundClearance, "Ground clearance in meters")
	fs.Float64Var(&c.Geometry.Frequency, "freq", c.Geometry.Frequency, "Carrier frequency in Hz")
	fs.IntVar(&c.Geometry.Order, "order", c.Geometry.Order, "Fresnel zone number")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as scales and the info bar")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "prn":
			c.PRN = &prn
		case "min-cn0":
			c.MinCN0 = &minCN0
		case "max-cn0":
			c.MaxCN0 = &maxCN0
		}
	})

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok = themes[ColorTheme(theme)]; !ok {
		err = fmt.Errorf("invalid color theme: %s", theme)
	} else if c.Width < 100 {
		err = fmt.Errorf("width must be at least 100 pixels, got %d", c.Width)
	} else if c.MinCN0 != nil && c.MaxCN0 != nil && *c.MinCN0 >= *c.MaxCN0 {
		err = fmt.Errorf("min C/N0 %.1f must be below max C/N0 %.1f", *c.MinCN0, *c.MaxCN0)
	}
	if err != nil {
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.Theme = ColorTheme(theme)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
