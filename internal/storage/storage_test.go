package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/geodesy"
	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
)

func ptr[T any](v T) *T { return &v }

func at(sec int64) time.Time {
	return time.Unix(1619518500+sec, 0).UTC()
}

func newTestStore(t *testing.T, opts ...StoreOption) *SqliteStore {
	t.Helper()
	s := NewSqliteStore(filepath.Join(t.TempDir(), "reflect.sqlite"), opts...)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s
}

func testObservations() []observation.Observation {
	return []observation.Observation{
		{Time: at(1), ReceiverLat: 59.3, ReceiverLon: 18.1, Constellation: "GP", PRN: 5, Band: "L1C", Elevation: ptr(30.5), Azimuth: ptr(120.0), CN0: ptr(int64(41))},
		{Time: at(1), ReceiverLat: 59.3, ReceiverLon: 18.1, Constellation: "GA", PRN: 11, Band: "E5b", Elevation: ptr(12.0)},
		{Time: at(2), ReceiverLat: 59.4, ReceiverLon: 18.2, Constellation: "GP", PRN: 5, Band: "L2 CL"},
		{Time: at(3), ReceiverLat: 59.5, ReceiverLon: 18.3, Constellation: "GP", PRN: 7, Band: "L1C", CN0: ptr(int64(30))},
	}
}

func TestNames(t *testing.T) {
	if got := BaseName("/data/2021-04-27_10-15.ubx.txt"); got != "2021-04-27_10-15" {
		t.Fatalf("unexpected base name %q", got)
	}
	if got := TableName("flight", KindTrack); got != "flight_gpx" {
		t.Fatalf("unexpected table name %q", got)
	}
	if got := SpecularTableName("flight_gpx"); got != "flight_SP" {
		t.Fatalf("unexpected specular table name %q", got)
	}
	if got := SpecularTableName("flight"); got != "flight_SP" {
		t.Fatalf("unexpected specular table name %q", got)
	}
}

func TestStoreObservations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithMaxBatchSize(3))

	obs := testObservations()
	if err := s.StoreObservations(ctx, "log_ublox", "log.txt", obs, map[string]string{"coordinates": "standard"}); err != nil {
		t.Fatalf("storing observations: %v", err)
	}

	r, err := s.ReadObservations(ctx, "log_ublox")
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	got, err := Collect(ctx, r)
	if err != nil {
		t.Fatalf("reading observations: %v", err)
	}
	if len(got) != len(obs) {
		t.Fatalf("expected %d rows, got %d", len(obs), len(got))
	}

	first := got[0]
	if !first.Time.Equal(at(1)) || first.PRN != 5 || first.Band != "L1" || first.Constellation != "GP" {
		t.Fatalf("unexpected first row %+v", first)
	}
	if first.Elevation == nil || *first.Elevation != 30.5 || first.CN0 == nil || *first.CN0 != 41 {
		t.Fatalf("unexpected first row values %+v", first)
	}
	if got[1].Azimuth != nil || got[1].CN0 != nil || got[1].Band != "E5" {
		t.Fatalf("expected NULL columns to round trip, got %+v", got[1])
	}

	ds, err := s.Dataset(ctx, "log_ublox")
	if err != nil {
		t.Fatalf("reading dataset: %v", err)
	}
	if ds.Kind != KindObservations || ds.Rows != int64(len(obs)) || ds.Source != "log.txt" {
		t.Fatalf("unexpected dataset %+v", ds)
	}
	if ds.Config == nil || *ds.Config != `{"coordinates":"standard"}` {
		t.Fatalf("unexpected dataset config %v", ds.Config)
	}
	if len(ds.Columns) != len(observationColumns) {
		t.Fatalf("unexpected dataset columns %v", ds.Columns)
	}
}

func TestStoreObservations_Replaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	obs := testObservations()
	if err := s.StoreObservations(ctx, "log_ublox", "a.txt", obs, nil); err != nil {
		t.Fatalf("storing observations: %v", err)
	}
	if err := s.StoreObservations(ctx, "log_ublox", "b.txt", obs[:1], nil); err != nil {
		t.Fatalf("replacing observations: %v", err)
	}

	r, err := s.ReadObservations(ctx, "log_ublox")
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	got, err := Collect(ctx, r)
	if err != nil {
		t.Fatalf("reading observations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected table to be replaced, got %d rows", len(got))
	}

	datasets, err := s.Datasets(ctx)
	if err != nil {
		t.Fatalf("listing datasets: %v", err)
	}
	if len(datasets) != 1 || datasets[0].Source != "b.txt" || datasets[0].Config != nil {
		t.Fatalf("unexpected datasets %+v", datasets)
	}
}

func TestReaderFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.StoreObservations(ctx, "log_ublox", "log.txt", testObservations(), nil); err != nil {
		t.Fatalf("storing observations: %v", err)
	}

	tests := []struct {
		name string
		opts []ReaderOption
		want int
	}{
		{name: "prn", opts: []ReaderOption{WithPRN(5)}, want: 2},
		{name: "band prefix", opts: []ReaderOption{WithBand("L1C")}, want: 2},
		{name: "constellation", opts: []ReaderOption{WithConstellation("GA")}, want: 1},
		{name: "time range", opts: []ReaderOption{WithTimeRange(at(2), at(3))}, want: 2},
		{name: "combined", opts: []ReaderOption{WithPRN(5), WithBand("L2")}, want: 1},
		{name: "no match", opts: []ReaderOption{WithPRN(99)}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.ReadObservations(ctx, "log_ublox", tt.opts...)
			if err != nil {
				t.Fatalf("opening reader: %v", err)
			}
			got, err := Collect(ctx, r)
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d rows, got %d", tt.want, len(got))
			}
		})
	}
}

func TestReader_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.StoreTrack(ctx, "flight_gpx", "flight.gpx", []telemetry.TrackPoint{{Time: at(1)}}, nil); err != nil {
		t.Fatalf("storing track: %v", err)
	}

	if _, err := s.ReadObservations(ctx, "missing_ublox"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for a missing table, got %v", err)
	}
	if _, err := s.ReadTrack(ctx, "flight_gpx", WithPRN(1)); err == nil {
		t.Fatalf("expected an error filtering a track by PRN")
	}
	if _, err := s.ReadTrack(ctx, "flight_gpx", WithTimeRange(at(5), at(1))); err == nil {
		t.Fatalf("expected an error for an inverted time range")
	}
	if _, err := s.Dataset(ctx, "missing_ublox"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for a missing dataset, got %v", err)
	}
}

func TestStoreTrack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	track := []telemetry.TrackPoint{
		{Time: at(2), Latitude: 59.4, Longitude: 18.2, Altitude: 181, Course: 90, Roll: 1.5, Pitch: -2},
		{Time: at(1), Latitude: 59.3, Longitude: 18.1, Altitude: 180, Course: 85, Roll: 1, Pitch: -1},
	}
	if err := s.StoreTrack(ctx, "flight_gpx", "flight.gpx", track, nil); err != nil {
		t.Fatalf("storing track: %v", err)
	}

	r, err := s.ReadTrack(ctx, "flight_gpx")
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	got, err := Collect(ctx, r)
	if err != nil {
		t.Fatalf("reading track: %v", err)
	}
	if len(got) != 2 || got[0] != track[1] || got[1] != track[0] {
		t.Fatalf("expected time ordered track, got %+v", got)
	}
}

func TestStoreSamples(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	obs := testObservations()
	samples := []reflection.Sample{
		{
			Track:       telemetry.TrackPoint{Time: at(1), Latitude: 59.3, Longitude: 18.1, Altitude: 180, Course: 10},
			Observation: obs[0],
			Specular:    &geodesy.LLA{Latitude: 59.301, Longitude: 18.102},
		},
		{
			Track:       telemetry.TrackPoint{Time: at(2), Latitude: 59.4, Longitude: 18.2, Altitude: 181},
			Observation: obs[2],
		},
	}
	table := SpecularTableName("flight_gpx")
	if err := s.StoreSamples(ctx, table, "flight_gpx", samples, nil); err != nil {
		t.Fatalf("storing samples: %v", err)
	}

	r, err := s.ReadSamples(ctx, table)
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	got, err := Collect(ctx, r)
	if err != nil {
		t.Fatalf("reading samples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0].Specular == nil || got[0].Specular.Latitude != 59.301 || got[0].Specular.Longitude != 18.102 {
		t.Fatalf("unexpected specular point %+v", got[0].Specular)
	}
	if got[0].Track.Course != 10 || got[0].Observation.PRN != 5 || !got[0].Observation.Time.Equal(at(1)) {
		t.Fatalf("unexpected first sample %+v", got[0])
	}
	if got[1].Specular != nil {
		t.Fatalf("expected no specular point, got %+v", got[1].Specular)
	}

	ds, err := s.Dataset(ctx, table)
	if err != nil {
		t.Fatalf("reading dataset: %v", err)
	}
	if ds.Kind != KindSpecular || ds.Rows != 2 {
		t.Fatalf("unexpected dataset %+v", ds)
	}
}

func TestReader_Cancelled(t *testing.T) {
	s := newTestStore(t)
	if err := s.StoreObservations(context.Background(), "log_ublox", "log.txt", testObservations(), nil); err != nil {
		t.Fatalf("storing observations: %v", err)
	}

	r, err := s.ReadObservations(context.Background(), "log_ublox")
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r.Next(ctx) {
		t.Fatalf("expected Next to stop on a cancelled context")
	}
	if !errors.Is(r.Error(), context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", r.Error())
	}
}

func TestClose_ReportsIndexErrors(t *testing.T) {
	ctx := context.Background()
	s := NewSqliteStore(filepath.Join(t.TempDir(), "log_ublox.sqlite"))

	if err := s.StoreObservations(ctx, "log_ublox", "log.txt", testObservations(), nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := s.writeDB.ExecContext(ctx, fmt.Sprintf(dropTableSQL, quoteIdent("log_ublox"))); err != nil {
		t.Fatalf("dropping table: %v", err)
	}

	err := s.Close()
	if err == nil || !strings.Contains(err.Error(), "indexing log_ublox") {
		t.Fatalf("expected an indexing error, got %v", err)
	}
	if again := s.Close(); again == nil || again.Error() != err.Error() {
		t.Fatalf("expected repeated Close to report the same error, got %v", again)
	}
}
