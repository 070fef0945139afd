package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoData indicates either that the requested table does not exist,
// or that all available rows have been read from the reader.
var ErrNoData = fmt.Errorf("no data available")

// ReaderOption configures a SqliteReader with specific filtering criteria.
type ReaderOption func(*filters)

type filters struct {
	prn           *int64
	band          *string
	constellation *string
	startTime     *time.Time
	endTime       *time.Time
}

// WithPRN keeps rows of a single satellite.
func WithPRN(prn int64) ReaderOption {
	return func(f *filters) {
		f.prn = &prn
	}
}

// WithBand keeps rows of a single frequency band, e.g. "L1C" or "E5a".
// Bands are compared on their stored two-character prefix.
func WithBand(band string) ReaderOption {
	return func(f *filters) {
		b := code(band)
		f.band = &b
	}
}

// WithConstellation keeps rows of a single constellation, e.g. "GP" or "GA".
func WithConstellation(constellation string) ReaderOption {
	return func(f *filters) {
		c := code(constellation)
		f.constellation = &c
	}
}

// WithTimeRange keeps rows with start <= time <= end.
func WithTimeRange(start, end time.Time) ReaderOption {
	return func(f *filters) {
		f.startTime = &start
		f.endTime = &end
	}
}

type scanFunc[T any] func(*sql.Rows) (T, error)

// SqliteReader iterates over the rows of a dataset table in time order.
type SqliteReader[T any] struct {
	db      *sql.DB
	table   string
	columns []string
	scan    scanFunc[T]
	filters filters

	current T
	rows    *sql.Rows
	err     error
}

// newSqliteReader creates a reader over table, applying optional filters.
func newSqliteReader[T any](ctx context.Context, db *sql.DB, table string, columns []string, scan scanFunc[T], opts ...ReaderOption,
) (*SqliteReader[T], error) {
	r := &SqliteReader[T]{
		db:      db,
		table:   table,
		columns: columns,
		scan:    scan,
	}
	for _, opt := range opts {
		opt(&r.filters)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *SqliteReader[T]) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.table == "" {
		return errors.New("table name required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "checking filters", fn: r.checkFilters},
		{msg: "checking table", fn: r.checkTable},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *SqliteReader[T]) checkFilters(context.Context) error {
	f := r.filters
	if f.startTime != nil && f.endTime != nil && f.startTime.After(*f.endTime) {
		return fmt.Errorf("start time %s is after end time %s", f.startTime, f.endTime)
	}

	need := map[string]bool{
		"prn":   f.prn != nil,
		"band":  f.band != nil,
		"const": f.constellation != nil,
	}
	for column, set := range need {
		if set && !slices.Contains(r.columns, column) {
			return fmt.Errorf("table %s has no %q column", r.table, column)
		}
	}
	return nil
}

func (r *SqliteReader[T]) checkTable(ctx context.Context) (err error) {
	stmt, err := r.db.PrepareContext(ctx, tableExistsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var n int
	if err = stmt.QueryRowContext(ctx, r.table).Scan(&n); err != nil {
		return fmt.Errorf("querying table: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("table %s: %w", r.table, ErrNoData)
	}
	return nil
}

func (r *SqliteReader[T]) initQuery(ctx context.Context) (err error) {
	var where []string
	var args []any

	f := r.filters
	if f.prn != nil {
		where = append(where, `"prn" = ?`)
		args = append(args, *f.prn)
	}
	if f.band != nil {
		where = append(where, `"band" = ?`)
		args = append(args, *f.band)
	}
	if f.constellation != nil {
		where = append(where, `"const" = ?`)
		args = append(args, *f.constellation)
	}
	if f.startTime != nil {
		where = append(where, `"time" >= ?`)
		args = append(args, f.startTime.Unix())
	}
	if f.endTime != nil {
		where = append(where, `"time" <= ?`)
		args = append(args, f.endTime.Unix())
	}

	var sb strings.Builder
	sb.WriteString(selectAll(r.table, r.columns))
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(` ORDER BY "time", rowid`)

	stmt, err := r.db.PrepareContext(ctx, sb.String())
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if r.rows, err = stmt.QueryContext(ctx, args...); err != nil {
		return err
	}
	return nil
}

// Next advances the reader and returns true if there is another row to
// read, false when the iteration is complete or an error occurred.
func (r *SqliteReader[T]) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		r.err = ctx.Err()
		return false
	default:
	}

	if !r.rows.Next() {
		r.err = ErrNoData
		return false
	}

	var err error
	if r.current, err = r.scan(r.rows); err != nil {
		r.err = fmt.Errorf("scanning row: %w", err)
		return false
	}
	return true
}

// Current returns the row read by the last call to Next.
func (r *SqliteReader[T]) Current() T {
	return r.current
}

// Error returns any error that occurred during iteration.
func (r *SqliteReader[T]) Error() error {
	if r.err != nil && !errors.Is(r.err, ErrNoData) {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

func (r *SqliteReader[T]) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.rows = nil
		return err
	}
	return nil
}

// Collect drains the reader into a slice and closes it.
func Collect[T any](ctx context.Context, r *SqliteReader[T]) (out []T, err error) {
	defer closeWithError(r, &err)

	for r.Next(ctx) {
		out = append(out, r.Current())
	}
	return out, r.Error()
}
