package storage

import (
	"database/sql"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies what a dataset table holds. It is also the table name suffix.
type Kind string

const (
	KindObservations Kind = "ublox"
	KindTrack        Kind = "gpx"
	KindSpecular     Kind = "SP"
)

// Dataset describes a stored table.
type Dataset struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Source    string    `json:"source"` // input file the table was derived from
	CreatedAt time.Time `json:"createdAt"`
	Rows      int64     `json:"rows"`
	Columns   []string  `json:"columns"`
	Config    *string   `json:"config,omitempty"` // processing parameters in JSON format
}

// BaseName returns the file name of path up to its first dot.
func BaseName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

// TableName returns the table name for a dataset derived from base.
func TableName(base string, kind Kind) string {
	return base + "_" + string(kind)
}

// SpecularTableName derives the specular table name from a track table name,
// e.g. "flight_gpx" becomes "flight_SP".
func SpecularTableName(trackTable string) string {
	return TableName(strings.TrimSuffix(trackTable, "_"+string(KindTrack)), KindSpecular)
}

type observationData struct {
	Time          int64
	Latitude      float64
	Longitude     float64
	Constellation string
	PRN           int64
	Band          string
	Elevation     sql.NullFloat64
	Azimuth       sql.NullFloat64
	CN0           sql.NullInt64
}

type trackData struct {
	Time      int64
	Latitude  float64
	Longitude float64
	Altitude  float64
	Course    float64
	Roll      float64
	Pitch     float64
}

type specularData struct {
	trackData
	observationData
	SpecularLat sql.NullFloat64
	SpecularLon sql.NullFloat64
}
