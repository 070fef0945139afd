package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/roman-kulish/gnss-reflect/internal/export"
	"github.com/roman-kulish/gnss-reflect/internal/kml"
	"github.com/roman-kulish/gnss-reflect/internal/nmea"
	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/roman-kulish/gnss-reflect/internal/storage"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	dbExt = ".sqlite"
)

// Orchestrator runs the processing stages. Every stage reads its inputs
// from files and writes one artifact into the output directory.
type Orchestrator struct {
	config *Config
	logger *slog.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(config *Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{config: config, logger: logger}
}

func (o *Orchestrator) outputPath(name string) (string, error) {
	dir := o.config.Storage.OutputDirectory
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory '%s': %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}

func (o *Orchestrator) newStore(path string) *storage.SqliteStore {
	return storage.NewSqliteStore(path, storage.WithMaxBatchSize(o.config.Storage.MaxBatchSize))
}

// openStore opens an existing artifact; the table name is the file base name.
func (o *Orchestrator) openStore(path string) (*storage.SqliteStore, string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening '%s': %w", path, err)
	}
	if stat.IsDir() {
		return nil, "", fmt.Errorf("'%s' is a directory", path)
	}
	return o.newStore(path), storage.BaseName(path), nil
}

func closeStore(s *storage.SqliteStore, err *error) {
	if cErr := s.Close(); cErr != nil {
		*err = errors.Join(*err, fmt.Errorf("closing store: %w", cErr))
	}
}

func fileSize(path string) string {
	stat, err := os.Stat(path)
	if err != nil {
		return "n/a"
	}
	return humanize.Bytes(uint64(stat.Size()))
}

// forEachFile runs fn for every path on up to Settings.Workers goroutines.
// A failing file does not stop the others: the outputs of the files that
// succeeded are returned in input order together with the joined errors.
func (o *Orchestrator) forEachFile(ctx context.Context, paths []string, fn func(context.Context, string) (string, error)) ([]string, error) {
	results := make([]string, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	if o.config.Settings.Workers > 0 {
		g.SetLimit(o.config.Settings.Workers)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := fn(ctx, path)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(paths))
	for _, res := range results {
		if res != "" {
			out = append(out, res)
		}
	}
	return out, errors.Join(errs...)
}

// ProcessReceiverLogs parses receiver logs into <out>/<base>_ublox.sqlite
// artifacts and returns the paths of those written.
func (o *Orchestrator) ProcessReceiverLogs(ctx context.Context, paths []string) ([]string, error) {
	var mu sync.Mutex
	var total observation.Stats

	out, err := o.forEachFile(ctx, paths, func(ctx context.Context, path string) (string, error) {
		dbPath, stats, err := o.processReceiverLog(ctx, path)
		if err != nil {
			return "", err
		}
		mu.Lock()
		total.Add(stats)
		mu.Unlock()
		return dbPath, nil
	})

	o.logger.Info("receiver logs batch finished",
		slog.Int("files", len(paths)),
		slog.Int("failed", len(paths)-len(out)),
		slog.String("lines", humanize.Comma(int64(total.Lines))),
		slog.String("observations", humanize.Comma(int64(total.Observations))),
		slog.String("skipped", humanize.Comma(int64(total.Skipped()))),
	)
	return out, err
}

func (o *Orchestrator) receiverOptions(path string) ([]observation.Option, error) {
	mode, err := nmea.ParseCoordinateMode(o.config.Parser.Coordinates)
	if err != nil {
		return nil, err
	}

	opts := []observation.Option{
		observation.WithLogger(o.logger.With(slog.String("file", filepath.Base(path)))),
		observation.WithDecoder(nmea.NewDecoder(nmea.WithCoordinateMode(mode))),
		observation.WithRequireValidFix(o.config.Parser.RequireValidFix),
	}
	if date, ok := observation.DateFromPath(path); ok {
		opts = append(opts, observation.WithDefaultDate(date))
	} else if date, ok = o.config.Parser.Date(); ok {
		opts = append(opts, observation.WithDefaultDate(date))
	}
	return opts, nil
}

func (o *Orchestrator) processReceiverLog(ctx context.Context, path string) (dbPath string, stats observation.Stats, err error) {
	start := time.Now()

	opts, err := o.receiverOptions(path)
	if err != nil {
		return "", stats, err
	}
	obs, stats, err := observation.ReadFile(ctx, path, opts...)
	if err != nil {
		return "", stats, err
	}

	table := storage.TableName(storage.BaseName(path), storage.KindObservations)
	if dbPath, err = o.outputPath(table + dbExt); err != nil {
		return "", stats, err
	}

	store := o.newStore(dbPath)
	defer closeStore(store, &err)

	if err = store.StoreObservations(ctx, table, path, obs, o.config.Parser); err != nil {
		return "", stats, fmt.Errorf("storing observations: %w", err)
	}

	o.logger.Info("receiver log processed",
		slog.String("file", path),
		slog.String("size", fileSize(path)),
		slog.String("lines", humanize.Comma(int64(stats.Lines))),
		slog.String("fixes", humanize.Comma(int64(stats.Fixes))),
		slog.String("observations", humanize.Comma(int64(stats.Observations))),
		slog.String("skipped", humanize.Comma(int64(stats.Skipped()))),
		slog.Int("checksumMismatch", stats.ChecksumMismatch),
		slog.Int("unparseable", stats.Unparseable),
		slog.Int("droppedBeforeFix", stats.DroppedBeforeFix),
		slog.String("table", table),
		slog.Duration("took", time.Since(start)),
	)
	return dbPath, stats, nil
}

// ProcessFlightLogs converts GPX flight logs into <out>/<base>_gpx.sqlite
// artifacts and returns their paths.
func (o *Orchestrator) ProcessFlightLogs(ctx context.Context, paths []string) ([]string, error) {
	return o.forEachFile(ctx, paths, o.processFlightLog)
}

func (o *Orchestrator) processFlightLog(ctx context.Context, path string) (dbPath string, err error) {
	start := time.Now()

	track, stats, err := telemetry.ReadGPXFile(ctx, path,
		telemetry.WithLogger(o.logger.With(slog.String("file", filepath.Base(path)))))
	if err != nil {
		return "", err
	}

	table := storage.TableName(storage.BaseName(path), storage.KindTrack)
	if dbPath, err = o.outputPath(table + dbExt); err != nil {
		return "", err
	}

	store := o.newStore(dbPath)
	defer closeStore(store, &err)

	if err = store.StoreTrack(ctx, table, path, track, nil); err != nil {
		return "", fmt.Errorf("storing track: %w", err)
	}

	o.logger.Info("flight log processed",
		slog.String("file", path),
		slog.String("size", fileSize(path)),
		slog.String("points", humanize.Comma(int64(stats.Points))),
		slog.String("skipped", humanize.Comma(int64(stats.Skipped))),
		slog.String("table", table),
		slog.Duration("took", time.Since(start)),
	)
	return dbPath, nil
}

// Specular joins a flight track with receiver observations, solves the
// specular point of every joined sample and writes <out>/<base>_SP.sqlite.
func (o *Orchestrator) Specular(ctx context.Context, trackDB, observationsDB string) (dbPath string, err error) {
	start := time.Now()

	track, trackTable, err := readAll(ctx, o, trackDB, func(s *storage.SqliteStore, table string) (*storage.SqliteReader[telemetry.TrackPoint], error) {
		return s.ReadTrack(ctx, table)
	})
	if err != nil {
		return "", fmt.Errorf("reading track: %w", err)
	}
	obs, _, err := readAll(ctx, o, observationsDB, func(s *storage.SqliteStore, table string) (*storage.SqliteReader[observation.Observation], error) {
		return s.ReadObservations(ctx, table)
	})
	if err != nil {
		return "", fmt.Errorf("reading observations: %w", err)
	}

	samples, solved, err := reflection.Solve(ctx, reflection.Join(track, obs), o.config.Geometry.Model(), o.config.Settings.Workers)
	if err != nil {
		return "", fmt.Errorf("solving specular points: %w", err)
	}

	table := storage.SpecularTableName(trackTable)
	if dbPath, err = o.outputPath(table + dbExt); err != nil {
		return "", err
	}

	store := o.newStore(dbPath)
	defer closeStore(store, &err)

	if err = store.StoreSamples(ctx, table, trackTable, samples, o.config.Geometry); err != nil {
		return "", fmt.Errorf("storing samples: %w", err)
	}

	sum := reflection.Summarize(samples)
	o.logger.Info("specular points computed",
		slog.String("track", trackDB),
		slog.String("observations", observationsDB),
		slog.String("samples", humanize.Comma(int64(sum.Samples))),
		slog.String("solved", humanize.Comma(int64(solved))),
		slog.Int("satellites", sum.Satellites),
		slog.String("maxRange", humanize.FtoaWithDigits(sum.MaxRange, 1)+" m"),
		slog.String("meanRange", humanize.FtoaWithDigits(sum.MeanRange, 1)+" m"),
		slog.String("table", table),
		slog.Duration("took", time.Since(start)),
	)
	return dbPath, nil
}

// Fresnel writes the Fresnel zones of one satellite band to
// <out>/<base>_FZ.kml.
func (o *Orchestrator) Fresnel(ctx context.Context, specularDB string, prn int64, band string) (string, error) {
	samples, table, err := readAll(ctx, o, specularDB, func(s *storage.SqliteStore, table string) (*storage.SqliteReader[reflection.Sample], error) {
		return s.ReadSamples(ctx, table, storage.WithPRN(prn), storage.WithBand(band))
	})
	if err != nil {
		return "", fmt.Errorf("reading samples: %w", err)
	}

	zones, err := reflection.Zones(ctx, samples, o.config.Geometry.Model(), o.config.Settings.Workers)
	if err != nil {
		return "", fmt.Errorf("computing Fresnel zones: %w", err)
	}

	name := strings.TrimSuffix(table, "_"+string(storage.KindSpecular)) + "_FZ"
	path, err := o.outputPath(name + ".kml")
	if err != nil {
		return "", err
	}
	if err = kml.WriteFile(path, name, zones); err != nil {
		return "", err
	}

	o.logger.Info("Fresnel zones written",
		slog.String("file", path),
		slog.Int64("prn", prn),
		slog.String("band", band),
		slog.String("samples", humanize.Comma(int64(len(samples)))),
		slog.String("zones", humanize.Comma(int64(len(zones)))),
		slog.String("size", fileSize(path)),
	)
	return path, nil
}

// Export writes a specular table as CSV or XLSX next to the other artifacts.
func (o *Orchestrator) Export(ctx context.Context, specularDB, format string) (path string, err error) {
	if format != FormatCSV && format != FormatXLSX {
		return "", fmt.Errorf("invalid export format: %s", format)
	}

	samples, table, err := readAll(ctx, o, specularDB, func(s *storage.SqliteStore, table string) (*storage.SqliteReader[reflection.Sample], error) {
		return s.ReadSamples(ctx, table)
	})
	if err != nil {
		return "", fmt.Errorf("reading samples: %w", err)
	}

	if path, err = o.outputPath(table + "." + format); err != nil {
		return "", err
	}

	switch format {
	case FormatXLSX:
		err = export.WriteXLSX(path, table, samples)

	default:
		err = writeCSVFile(path, samples)
	}
	if err != nil {
		return "", err
	}

	o.logger.Info("table exported",
		slog.String("file", path),
		slog.String("rows", humanize.Comma(int64(len(samples)))),
		slog.String("size", fileSize(path)),
	)
	return path, nil
}

// Datasets returns the metadata of the tables stored in an artifact.
func (o *Orchestrator) Datasets(ctx context.Context, dbPath string) (datasets []*storage.Dataset, err error) {
	store, _, err := o.openStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer closeStore(store, &err)

	return store.Datasets(ctx)
}

func writeCSVFile(path string, samples []reflection.Sample) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return export.WriteCSV(f, samples)
}

func readAll[T any](ctx context.Context, o *Orchestrator, dbPath string,
	open func(*storage.SqliteStore, string) (*storage.SqliteReader[T], error),
) (out []T, table string, err error) {
	store, table, err := o.openStore(dbPath)
	if err != nil {
		return nil, "", err
	}
	defer closeStore(store, &err)

	r, err := open(store, table)
	if err != nil {
		return nil, "", err
	}
	if out, err = storage.Collect(ctx, r); err != nil {
		return nil, "", err
	}
	return out, table, nil
}
