package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/geodesy"
	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
)

// Constellation and band codes are persisted as two-byte prefixes.
const codeLen = 2

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && !errors.Is(cErr, sql.ErrTxDone) {
		*err = cErr
	}
}

func code(s string) string {
	if len(s) > codeLen {
		return s[:codeLen]
	}
	return s
}

func toSQLNullFloat(f *float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: toSQLNullType[float64](f), Valid: f != nil}
}

func toSQLNullInt(i *int64) sql.NullInt64 {
	return sql.NullInt64{Int64: toSQLNullType[int64](i), Valid: i != nil}
}

func toSQLNullType[T float64 | int64, Y float64 | int | int64](f *Y) T {
	if f == nil {
		return 0
	}
	return T(*f)
}

func fromSQLNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func fromSQLNullInt(i sql.NullInt64) *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Int64
	return &v
}

func toObservationData(o *observation.Observation) observationData {
	return observationData{
		Time:          o.Time.Unix(),
		Latitude:      o.ReceiverLat,
		Longitude:     o.ReceiverLon,
		Constellation: code(o.Constellation),
		PRN:           o.PRN,
		Band:          code(o.Band),
		Elevation:     toSQLNullFloat(o.Elevation),
		Azimuth:       toSQLNullFloat(o.Azimuth),
		CN0:           toSQLNullInt(o.CN0),
	}
}

func (d *observationData) values() []any {
	return []any{d.Time, d.Latitude, d.Longitude, d.Constellation, d.PRN, d.Band, d.Elevation, d.Azimuth, d.CN0}
}

func (d *observationData) targets() []any {
	return []any{&d.Time, &d.Latitude, &d.Longitude, &d.Constellation, &d.PRN, &d.Band, &d.Elevation, &d.Azimuth, &d.CN0}
}

func (d *observationData) observation() observation.Observation {
	return observation.Observation{
		Time:          time.Unix(d.Time, 0).UTC(),
		ReceiverLat:   d.Latitude,
		ReceiverLon:   d.Longitude,
		Constellation: d.Constellation,
		PRN:           d.PRN,
		Band:          d.Band,
		Elevation:     fromSQLNullFloat(d.Elevation),
		Azimuth:       fromSQLNullFloat(d.Azimuth),
		CN0:           fromSQLNullInt(d.CN0),
	}
}

func toTrackData(p *telemetry.TrackPoint) trackData {
	return trackData{
		Time:      p.Time.Unix(),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Altitude:  p.Altitude,
		Course:    p.Course,
		Roll:      p.Roll,
		Pitch:     p.Pitch,
	}
}

func (d *trackData) values() []any {
	return []any{d.Time, d.Latitude, d.Longitude, d.Altitude, d.Course, d.Roll, d.Pitch}
}

func (d *trackData) targets() []any {
	return []any{&d.Time, &d.Latitude, &d.Longitude, &d.Altitude, &d.Course, &d.Roll, &d.Pitch}
}

func (d *trackData) trackPoint() telemetry.TrackPoint {
	return telemetry.TrackPoint{
		Time:      time.Unix(d.Time, 0).UTC(),
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Altitude:  d.Altitude,
		Course:    d.Course,
		Roll:      d.Roll,
		Pitch:     d.Pitch,
	}
}

func toSpecularData(s *reflection.Sample) specularData {
	d := specularData{
		trackData:       toTrackData(&s.Track),
		observationData: toObservationData(&s.Observation),
	}
	if s.Specular != nil {
		d.SpecularLat = sql.NullFloat64{Float64: s.Specular.Latitude, Valid: true}
		d.SpecularLon = sql.NullFloat64{Float64: s.Specular.Longitude, Valid: true}
	}
	return d
}

// values follows specularColumns: the shared time column appears once.
func (d *specularData) values() []any {
	t, o := d.trackData.values(), d.observationData.values()
	return append(append(t, o[1:]...), d.SpecularLat, d.SpecularLon)
}

func (d *specularData) targets() []any {
	t, o := d.trackData.targets(), d.observationData.targets()
	return append(append(t, o[1:]...), &d.SpecularLat, &d.SpecularLon)
}

func (d *specularData) sample() reflection.Sample {
	d.observationData.Time = d.trackData.Time

	s := reflection.Sample{
		Track:       d.trackPoint(),
		Observation: d.observation(),
	}
	if d.SpecularLat.Valid && d.SpecularLon.Valid {
		s.Specular = &geodesy.LLA{Latitude: d.SpecularLat.Float64, Longitude: d.SpecularLon.Float64}
	}
	return s
}
