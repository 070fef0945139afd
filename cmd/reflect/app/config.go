package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/nmea"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"gopkg.in/yaml.v3"
)

const (
	defaultLogLevel        = "info"
	defaultOutputDirectory = "out"
	defaultMaxBatchSize    = 500
)

// Config represents the main application configuration
type Config struct {
	Settings Settings       `yaml:"settings"`
	Parser   ParserConfig   `yaml:"parser"`
	Geometry GeometryConfig `yaml:"geometry"`
	Storage  StorageConfig  `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
	Workers  int    `yaml:"workers"` // 0 uses GOMAXPROCS
}

// ParserConfig controls receiver log decoding.
type ParserConfig struct {
	DefaultDate     string `yaml:"defaultDate"` // YYYY-MM-DD, used when neither RMC nor the path carries a date
	Coordinates     string `yaml:"coordinates"` // standard or legacy
	RequireValidFix bool   `yaml:"requireValidFix"`
}

// GeometryConfig holds the reflection model parameters.
type GeometryConfig struct {
	GroundClearance float64 `yaml:"groundClearance"`
	FresnelOrder    int     `yaml:"fresnelOrder"`
	Frequency       float64 `yaml:"frequency"`
	RingSamples     int     `yaml:"ringSamples"`
	Precision       int     `yaml:"precision"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	OutputDirectory string `yaml:"outputDirectory"`
	MaxBatchSize    int    `yaml:"maxBatchSize"`
}

// NewConfig returns a configuration with every default applied.
func NewConfig() *Config {
	g := reflection.DefaultGeometry()
	return &Config{
		Settings: Settings{LogLevel: defaultLogLevel},
		Parser:   ParserConfig{Coordinates: nmea.CoordinatesStandard.String()},
		Geometry: GeometryConfig{
			GroundClearance: g.GroundClearance,
			FresnelOrder:    g.Order,
			Frequency:       g.Frequency,
			RingSamples:     g.RingSamples,
			Precision:       g.Precision,
		},
		Storage: StorageConfig{
			OutputDirectory: defaultOutputDirectory,
			MaxBatchSize:    defaultMaxBatchSize,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults and validates
// the result.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := NewConfig()
	if err = yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every setting and returns all problems found.
func (c *Config) Validate() error {
	var errs []error

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("settings.logLevel: %w", err))
	}
	if c.Settings.Workers < 0 {
		errs = append(errs, errors.New("settings.workers must be >= 0"))
	}

	if c.Parser.DefaultDate != "" {
		if _, err := time.Parse(time.DateOnly, c.Parser.DefaultDate); err != nil {
			errs = append(errs, fmt.Errorf("parser.defaultDate must be YYYY-MM-DD: %w", err))
		}
	}
	if _, err := nmea.ParseCoordinateMode(c.Parser.Coordinates); err != nil {
		errs = append(errs, fmt.Errorf("parser.coordinates: %w", err))
	}

	if c.Geometry.GroundClearance < 0 {
		errs = append(errs, errors.New("geometry.groundClearance must be >= 0"))
	}
	if c.Geometry.FresnelOrder < 1 {
		errs = append(errs, errors.New("geometry.fresnelOrder must be >= 1"))
	}
	if c.Geometry.Frequency <= 0 {
		errs = append(errs, errors.New("geometry.frequency must be > 0"))
	}
	if c.Geometry.RingSamples < 3 {
		errs = append(errs, errors.New("geometry.ringSamples must be >= 3"))
	}

	if c.Storage.OutputDirectory == "" {
		errs = append(errs, errors.New("storage.outputDirectory is required"))
	}
	if c.Storage.MaxBatchSize <= 0 {
		errs = append(errs, errors.New("storage.maxBatchSize must be > 0"))
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured slog level. Validate must have passed.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Settings.LogLevel))
	return level
}

// Model returns the reflection geometry described by the configuration.
func (g GeometryConfig) Model() reflection.Geometry {
	return reflection.Geometry{
		GroundClearance: g.GroundClearance,
		Frequency:       g.Frequency,
		Order:           g.FresnelOrder,
		RingSamples:     g.RingSamples,
		Precision:       g.Precision,
	}
}

// Date returns the configured fallback date, if any.
func (p ParserConfig) Date() (time.Time, bool) {
	if p.DefaultDate == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(time.DateOnly, p.DefaultDate, time.UTC)
	return t, err == nil
}
