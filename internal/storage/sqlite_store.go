package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
)

const defaultMaxBatchSize = 500

// StoreOption configures a SqliteStore.
type StoreOption func(*SqliteStore)

// WithMaxBatchSize sets the maximum number of rows written by a single
// INSERT statement.
func WithMaxBatchSize(size int) StoreOption {
	return func(s *SqliteStore) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath       string
	maxBatchSize int

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	mu      sync.Mutex
	written []string

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// Connections are opened lazily.
func NewSqliteStore(dbPath string, opts ...StoreOption) *SqliteStore {
	s := &SqliteStore{dbPath: dbPath, maxBatchSize: defaultMaxBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func configString(config any) (cfg sql.NullString, err error) {
	if config == nil {
		return
	}

	switch v := config.(type) {
	case string:
		cfg.String = v

	case []byte:
		cfg.String = string(v)

	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			return cfg, fmt.Errorf("marshaling config: %w", err)
		}
		cfg.String = string(p)
	}

	cfg.Valid = true
	return
}

// tableWrite describes a full replacement of one dataset table.
type tableWrite struct {
	dataset   Dataset
	createSQL string
	rows      int
	values    func(i int) []any
	config    any
}

func (s *SqliteStore) replaceTable(ctx context.Context, w tableWrite) (err error) {
	cfg, err := configString(w.config)
	if err != nil {
		return err
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	table := quoteIdent(w.dataset.Name)
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(dropTableSQL, table)); err != nil {
		return fmt.Errorf("dropping table %s: %w", w.dataset.Name, err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(w.createSQL, table)); err != nil {
		return fmt.Errorf("creating table %s: %w", w.dataset.Name, err)
	}

	prefix := insertPrefix(w.dataset.Name, w.dataset.Columns)
	placeholder := valuesPlaceholder(len(w.dataset.Columns))

	for lo := 0; lo < w.rows; lo += s.maxBatchSize {
		hi := min(lo+s.maxBatchSize, w.rows)

		var sb strings.Builder
		sb.WriteString(prefix)

		values := make([]any, 0, (hi-lo)*len(w.dataset.Columns))
		for i := lo; i < hi; i++ {
			if i > lo {
				sb.WriteString(", ")
			}
			sb.WriteString(placeholder)
			values = append(values, w.values(i)...)
		}

		if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
			return fmt.Errorf("batch inserting into %s: %w", w.dataset.Name, err)
		}
	}

	columns, err := json.Marshal(w.dataset.Columns)
	if err != nil {
		return fmt.Errorf("marshaling columns: %w", err)
	}
	if _, err = tx.ExecContext(ctx, upsertDatasetSQL,
		w.dataset.Name, string(w.dataset.Kind), w.dataset.Source, w.rows, string(columns), cfg); err != nil {
		return fmt.Errorf("registering dataset %s: %w", w.dataset.Name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.mu.Lock()
	s.written = append(s.written, w.dataset.Name)
	s.mu.Unlock()
	return nil
}

// StoreObservations replaces table with the given receiver observations.
func (s *SqliteStore) StoreObservations(ctx context.Context, table, source string, obs []observation.Observation, config any) error {
	return s.replaceTable(ctx, tableWrite{
		dataset:   Dataset{Name: table, Kind: KindObservations, Source: source, Columns: observationColumns},
		createSQL: createObservationsSQL,
		rows:      len(obs),
		values: func(i int) []any {
			d := toObservationData(&obs[i])
			return d.values()
		},
		config: config,
	})
}

// StoreTrack replaces table with the given flight recorder samples.
func (s *SqliteStore) StoreTrack(ctx context.Context, table, source string, track []telemetry.TrackPoint, config any) error {
	return s.replaceTable(ctx, tableWrite{
		dataset:   Dataset{Name: table, Kind: KindTrack, Source: source, Columns: trackColumns},
		createSQL: createTrackSQL,
		rows:      len(track),
		values: func(i int) []any {
			d := toTrackData(&track[i])
			return d.values()
		},
		config: config,
	})
}

// StoreSamples replaces table with merged samples and their specular points.
func (s *SqliteStore) StoreSamples(ctx context.Context, table, source string, samples []reflection.Sample, config any) error {
	return s.replaceTable(ctx, tableWrite{
		dataset:   Dataset{Name: table, Kind: KindSpecular, Source: source, Columns: specularColumns},
		createSQL: createSpecularSQL,
		rows:      len(samples),
		values: func(i int) []any {
			d := toSpecularData(&samples[i])
			return d.values()
		},
		config: config,
	})
}

func scanDataset(sc interface{ Scan(...any) error }) (*Dataset, error) {
	var ds Dataset
	var kind, columns string
	var config sql.NullString
	if err := sc.Scan(&ds.Name, &kind, &ds.Source, &ds.CreatedAt, &ds.Rows, &columns, &config); err != nil {
		return nil, fmt.Errorf("scanning dataset: %w", err)
	}
	ds.Kind = Kind(kind)
	if err := json.Unmarshal([]byte(columns), &ds.Columns); err != nil {
		return nil, fmt.Errorf("unmarshaling columns: %w", err)
	}
	if config.Valid {
		ds.Config = &config.String
	}
	return &ds, nil
}

// Dataset returns the metadata of the named table.
func (s *SqliteStore) Dataset(ctx context.Context, name string) (ds *Dataset, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, selectDatasetSQL)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	ds, err = scanDataset(stmt.QueryRowContext(ctx, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", name, ErrNoData)
	}
	return ds, err
}

// Datasets returns the metadata of every stored table.
func (s *SqliteStore) Datasets(ctx context.Context) (datasets []*Dataset, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectDatasetsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying datasets: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var ds *Dataset
		if ds, err = scanDataset(rows); err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, rows.Err()
}

// ReadObservations opens a reader over an observation table.
func (s *SqliteStore) ReadObservations(ctx context.Context, table string, opts ...ReaderOption) (*SqliteReader[observation.Observation], error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteReader(ctx, db, table, observationColumns, func(rows *sql.Rows) (observation.Observation, error) {
		var d observationData
		if err := rows.Scan(d.targets()...); err != nil {
			return observation.Observation{}, err
		}
		return d.observation(), nil
	}, opts...)
}

// ReadTrack opens a reader over a flight track table.
func (s *SqliteStore) ReadTrack(ctx context.Context, table string, opts ...ReaderOption) (*SqliteReader[telemetry.TrackPoint], error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteReader(ctx, db, table, trackColumns, func(rows *sql.Rows) (telemetry.TrackPoint, error) {
		var d trackData
		if err := rows.Scan(d.targets()...); err != nil {
			return telemetry.TrackPoint{}, err
		}
		return d.trackPoint(), nil
	}, opts...)
}

// ReadSamples opens a reader over a specular table.
func (s *SqliteStore) ReadSamples(ctx context.Context, table string, opts ...ReaderOption) (*SqliteReader[reflection.Sample], error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteReader(ctx, db, table, specularColumns, func(rows *sql.Rows) (reflection.Sample, error) {
		var d specularData
		if err := rows.Scan(d.targets()...); err != nil {
			return reflection.Sample{}, err
		}
		return d.sample(), nil
	}, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var indexErrs []error
		var writeErr, readErr error

		if s.writeDB != nil {
			for _, table := range s.written {
				stmt := fmt.Sprintf(createIndexSQL, quoteIdent(table+"_time_idx"), quoteIdent(table))
				if err := runSQLCommand(s.writeDB, stmt); err != nil {
					indexErrs = append(indexErrs, fmt.Errorf("indexing %s: %w", table, err))
				}
			}

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(append(indexErrs, writeErr, readErr)...)
	})

	return s.closeErr
}
