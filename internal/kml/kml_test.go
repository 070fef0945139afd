package kml

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/geodesy"
	"github.com/roman-kulish/gnss-reflect/internal/observation"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/roman-kulish/gnss-reflect/internal/telemetry"
)

func testZones() []reflection.Zone {
	ts := time.Date(2021, 4, 27, 10, 15, 59, 0, time.UTC)
	ring := []geodesy.LLA{
		{Latitude: 59.1, Longitude: 18.1},
		{Latitude: 59.2, Longitude: 18.2},
		{Latitude: 59.1, Longitude: 18.3},
		{Latitude: 59.1, Longitude: 18.1},
	}
	return []reflection.Zone{
		{
			Sample: reflection.Sample{
				Track:       telemetry.TrackPoint{Time: ts},
				Observation: observation.Observation{Time: ts, Constellation: "GP", PRN: 5},
				Specular:    &geodesy.LLA{Latitude: 59.15, Longitude: 18.2},
			},
			Zone: reflection.FresnelZone{Ring: ring},
		},
		{
			Sample: reflection.Sample{
				Track:       telemetry.TrackPoint{Time: ts.Add(time.Second)},
				Observation: observation.Observation{Constellation: "GP", PRN: 5},
			},
			Zone: reflection.FresnelZone{Ring: ring},
		},
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, "flight_FZ", testZones()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var doc document
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if doc.Name != "flight_FZ" {
		t.Fatalf("unexpected document name %q", doc.Name)
	}
	if len(doc.Placemarks) != 3 {
		t.Fatalf("expected 3 placemarks, got %d", len(doc.Placemarks))
	}

	poly, point := doc.Placemarks[0], doc.Placemarks[1]
	if poly.Polygon == nil || point.Point == nil {
		t.Fatalf("expected a polygon followed by a point, got %+v", doc.Placemarks[:2])
	}
	if poly.TimeSpan.Begin != "2021-04-27T10:15:59" || poly.TimeSpan.End != "2021-04-27T10:16:00" {
		t.Fatalf("unexpected time span %+v", poly.TimeSpan)
	}
	if point.TimeSpan != poly.TimeSpan {
		t.Fatalf("expected point to share the polygon time span, got %+v", point.TimeSpan)
	}
	if got := strings.Fields(poly.Polygon.Coordinates); len(got) != 4 || got[0] != "18.1,59.1,0" || got[0] != got[3] {
		t.Fatalf("unexpected polygon coordinates %q", poly.Polygon.Coordinates)
	}
	if point.Point.Coordinates != "18.2,59.15,0" {
		t.Fatalf("unexpected point coordinates %q", point.Point.Coordinates)
	}
	if poly.Name != "GP05" {
		t.Fatalf("unexpected placemark name %q", poly.Name)
	}
	if doc.Placemarks[2].Polygon == nil || doc.Placemarks[2].Point != nil {
		t.Fatalf("expected no point for a sample without a specular point")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_FZ.kml")
	if err := WriteFile(path, "flight_FZ", testZones()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	p, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.HasPrefix(p, []byte(xml.Header)) || !bytes.Contains(p, []byte(namespace)) {
		t.Fatalf("unexpected file contents %s", p)
	}
}

func TestWriteFile_BadPath(t *testing.T) {
	if err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.kml"), "x", nil); err == nil {
		t.Fatalf("expected an error")
	}
}
