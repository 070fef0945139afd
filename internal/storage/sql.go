package storage

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	upsertDatasetSQL = `
INSERT OR REPLACE INTO datasets (name,
                                 kind,
                                 source,
                                 created_at,
                                 row_count,
                                 columns,
                                 config)
VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?, ?, ?)`

	selectDatasetsSQL = `
SELECT
    name,
    kind,
    source,
    created_at,
    row_count,
    columns,
    config
FROM datasets
ORDER BY created_at, name`

	selectDatasetSQL = `
SELECT
    name,
    kind,
    source,
    created_at,
    row_count,
    columns,
    config
FROM datasets
WHERE
    name = ?`

	createObservationsSQL = `
CREATE TABLE %s
(
    "time"  INTEGER NOT NULL,
    "lat"   REAL    NOT NULL,
    "long"  REAL    NOT NULL,
    "const" TEXT    NOT NULL,
    "prn"   INTEGER NOT NULL,
    "band"  TEXT    NOT NULL,
    "ele"   REAL,
    "az"    REAL,
    "C_N0"  INTEGER
)`

	createTrackSQL = `
CREATE TABLE %s
(
    "time"   INTEGER NOT NULL,
    "lat"    REAL    NOT NULL,
    "lon"    REAL    NOT NULL,
    "ele"    REAL    NOT NULL,
    "course" REAL    NOT NULL,
    "roll"   REAL    NOT NULL,
    "pitch"  REAL    NOT NULL
)`

	createSpecularSQL = `
CREATE TABLE %s
(
    "time"   INTEGER NOT NULL,
    "fl_lat" REAL    NOT NULL,
    "fl_lon" REAL    NOT NULL,
    "fl_alt" REAL    NOT NULL,
    "course" REAL    NOT NULL,
    "roll"   REAL    NOT NULL,
    "pitch"  REAL    NOT NULL,
    "lat"    REAL    NOT NULL,
    "lon"    REAL    NOT NULL,
    "const"  TEXT    NOT NULL,
    "prn"    INTEGER NOT NULL,
    "band"   TEXT    NOT NULL,
    "ele"    REAL,
    "az"     REAL,
    "C_N0"   INTEGER,
    "SP_lat" REAL,
    "SP_lon" REAL
)`

	dropTableSQL   = `DROP TABLE IF EXISTS %s`
	createIndexSQL = `CREATE INDEX IF NOT EXISTS %s ON %s ("time")`
	tableExistsSQL = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
)

var (
	observationColumns = []string{"time", "lat", "long", "const", "prn", "band", "ele", "az", "C_N0"}
	trackColumns       = []string{"time", "lat", "lon", "ele", "course", "roll", "pitch"}
	specularColumns    = []string{
		"time", "fl_lat", "fl_lon", "fl_alt", "course", "roll", "pitch",
		"lat", "lon", "const", "prn", "band", "ele", "az", "C_N0", "SP_lat", "SP_lon",
	}
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func insertPrefix(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoted, ", "))
}

func valuesPlaceholder(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

func selectAll(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(table))
}
