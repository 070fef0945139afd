package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/roman-kulish/gnss-reflect/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	if _, err = os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	fp, err := readFootprint(ctx, store, config, logger)
	if err != nil {
		return err
	}
	return render(fp, config, logger)
}

func readFootprint(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*FootprintData, error) {
	table := storage.BaseName(config.DBPath)

	var opts []storage.ReaderOption
	filters := []any{slog.String("table", table)}
	if config.PRN != nil {
		opts = append(opts, storage.WithPRN(*config.PRN))
		filters = append(filters, slog.Int64("prn", *config.PRN))
	}
	if config.Band != "" {
		opts = append(opts, storage.WithBand(config.Band))
		filters = append(filters, slog.String("band", config.Band))
	}

	logger.Info("iterator configuration", filters...)

	iter, err := store.ReadSamples(ctx, table, opts...)
	if err != nil {
		return nil, err
	}
	samples, err := storage.Collect(ctx, iter)
	if err != nil {
		return nil, err
	}

	zones, err := reflection.Zones(ctx, samples, config.Geometry, 0)
	if err != nil {
		return nil, fmt.Errorf("computing Fresnel zones: %w", err)
	}

	fp := NewFootprintData()
	for _, z := range zones {
		fp.Update(z)
	}
	if fp.Empty() {
		return nil, fmt.Errorf("no Fresnel zones in %s: %w", table, storage.ErrNoData)
	}

	bounds := fp.Histogram.Bounds()
	logger.Info("finished reading samples",
		slog.Group("stats",
			slog.String("samples", humanize.Comma(int64(len(samples)))),
			slog.String("zones", humanize.Comma(int64(len(zones)))),
			slog.Int("satellites", len(fp.Satellites)),
			slog.String("minTimestamp", fp.TimestampStart.Local().Format(time.DateTime)),
			slog.String("maxTimestamp", fp.TimestampEnd.Local().Format(time.DateTime)),
			slog.String("minCN0", fmt.Sprintf("%0.1fdB-Hz", bounds.Min)),
			slog.String("maxCN0", fmt.Sprintf("%0.1fdB-Hz", bounds.Max)),
		))
	return fp, nil
}

func render(fp *FootprintData, config *Config, logger *slog.Logger) (err error) {
	var bounds *CN0Bounds
	if config.MinCN0 != nil || config.MaxCN0 != nil {
		b := fp.Histogram.Bounds()
		if config.MinCN0 != nil {
			b.Min = *config.MinCN0
		}
		if config.MaxCN0 != nil {
			b.Max = *config.MaxCN0
		}
		if b.Min >= b.Max {
			return fmt.Errorf("min C/N0 %.1f must be below max C/N0 %.1f", b.Min, b.Max)
		}
		b.Mean = (b.Min + b.Max) / 2
		bounds = &b
	}

	renderer, err := NewFootprintRenderer(RenderConfig{
		Width:         config.Width,
		ColorTheme:    config.Theme,
		Bounds:        bounds,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating footprint renderer: %w", err)
	}

	img, err := renderer.Render(fp)
	if err != nil {
		return fmt.Errorf("rendering footprint: %w", err)
	}

	logger.Info("rendering footprint",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	default:
		err = fmt.Errorf("unsupported image format: %s", config.Format)
	}
	return err
}
