package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
)

// Store manages the tables derived from receiver logs and flight logs.
// Every Store* call replaces the named table atomically.
type Store interface {
	// StoreObservations writes receiver observations into table.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - table: Destination table, e.g. "2021-04-27_10-15_ublox"
	//   - source: Input file the observations were parsed from
	//   - obs: Observations in log order
	//   - config: Optional processing parameters. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	StoreObservations(ctx context.Context, table, source string, obs []observation.Observation, config any) error

	// StoreTrack writes flight recorder samples into table.
	StoreTrack(ctx context.Context, table, source string, track []telemetry.TrackPoint, config any) error

	// StoreSamples writes merged samples into table. Samples without a
	// specular point are stored with NULL specular coordinates.
	StoreSamples(ctx context.Context, table, source string, samples []reflection.Sample, config any) error

	// Dataset retrieves the metadata of a single table. It returns an error
	// wrapping ErrNoData when the table is unknown.
	Dataset(ctx context.Context, name string) (*Dataset, error)

	// Datasets returns the metadata of every table, ordered by creation time.
	Datasets(ctx context.Context) ([]*Dataset, error)

	// ReadObservations, ReadTrack and ReadSamples return time ordered
	// readers over a table. The caller must close the reader.
	ReadObservations(ctx context.Context, table string, opts ...ReaderOption) (*SqliteReader[observation.Observation], error)
	ReadTrack(ctx context.Context, table string, opts ...ReaderOption) (*SqliteReader[telemetry.TrackPoint], error)
	ReadSamples(ctx context.Context, table string, opts ...ReaderOption) (*SqliteReader[reflection.Sample], error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
