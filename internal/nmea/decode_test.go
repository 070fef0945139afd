package nmea

import (
	"errors"
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func mustParse(t *testing.T, payload string) Sentence {
	t.Helper()
	s, err := Parse(nmeaLine(payload))
	if err != nil {
		t.Fatalf("parse %q: %v", payload, err)
	}
	return s
}

func TestDecodePosition_Legacy(t *testing.T) {
	d := NewDecoder(WithCoordinateMode(CoordinatesLegacy))

	tests := []struct {
		payload  string
		lat, lon float64
	}{
		{"GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W", 48.07038, 1.131},
		{"GNRMC,123519,A,4807.038,S,01131.000,W,022.4,084.4,230394,003.1,W", -48.07038, -11.31},
	}
	for _, tt := range tests {
		fix, err := d.DecodePosition(mustParse(t, tt.payload))
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", tt.payload, err)
		}
		if math.Abs(fix.Latitude-tt.lat) > epsilon {
			t.Errorf("%s: expected lat %v, got %v", tt.payload, tt.lat, fix.Latitude)
		}
		if math.Abs(fix.Longitude-tt.lon) > epsilon {
			t.Errorf("%s: expected lon %v, got %v", tt.payload, tt.lon, fix.Longitude)
		}
	}
}

func TestDecodePosition_Standard(t *testing.T) {
	d := NewDecoder()
	fix, err := d.DecodePosition(mustParse(t, "GNRMC,123519,A,4807.038,N,01131.000,W,022.4,084.4,230394,003.1,W"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if math.Abs(fix.Latitude-(48+7.038/60)) > epsilon {
		t.Fatalf("unexpected lat %v", fix.Latitude)
	}
	if math.Abs(fix.Longitude+(11+31.0/60)) > epsilon {
		t.Fatalf("unexpected lon %v", fix.Longitude)
	}

	want := time.Date(1994, 3, 23, 12, 35, 19, 0, time.UTC)
	if !fix.Time.Equal(want) {
		t.Fatalf("expected time %s, got %s", want, fix.Time)
	}
	if !fix.HasDate || !fix.Valid {
		t.Fatalf("expected dated valid fix, got %+v", fix)
	}
}

func TestDecodePosition_FractionalSeconds(t *testing.T) {
	fix, err := NewDecoder().DecodePosition(mustParse(t, "GNRMC,083559.00,V,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := fix.Time.Format(time.DateTime); got != "2002-12-09 08:35:59" {
		t.Fatalf("unexpected time %s", got)
	}
	if fix.Valid {
		t.Fatalf("expected void fix")
	}
}

func TestDecodePosition_Unparseable(t *testing.T) {
	tests := []string{
		"GNRMC,123519,A,,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"GNRMC,123519,A,4807.038,N,,E,022.4,084.4,230394,003.1,W",
		"GNRMC,123519,A,4807.038,,01131.000,E,022.4,084.4,230394,003.1,W",
		"GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,,003.1,W",
		"GNRMC,12,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
		"GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,320394,003.1,W",
	}
	d := NewDecoder()
	for _, payload := range tests {
		if _, err := d.DecodePosition(mustParse(t, payload)); !errors.Is(err, ErrUnparseable) {
			t.Errorf("%s: expected ErrUnparseable, got %v", payload, err)
		}
	}
}

func TestDecodeAltitude(t *testing.T) {
	d := NewDecoder(WithCoordinateMode(CoordinatesLegacy))
	fix, err := d.DecodeAltitude(mustParse(t, "GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fix.HasDate {
		t.Fatalf("expected time of day only")
	}
	if fix.Time.Hour() != 12 || fix.Time.Minute() != 35 || fix.Time.Second() != 19 {
		t.Fatalf("unexpected time of day %s", fix.Time)
	}
	if fix.Altitude == nil || *fix.Altitude != 545.4 {
		t.Fatalf("expected altitude 545.4, got %v", fix.Altitude)
	}
	if math.Abs(fix.Latitude-48.07038) > epsilon || math.Abs(fix.Longitude-1.131) > epsilon {
		t.Fatalf("unexpected position %v,%v", fix.Latitude, fix.Longitude)
	}

	dated := fix.WithDate(time.Date(2021, 4, 27, 0, 0, 0, 0, time.UTC))
	want := time.Date(2021, 4, 27, 12, 35, 19, 0, time.UTC)
	if !dated.Time.Equal(want) || !dated.HasDate {
		t.Fatalf("expected %s, got %s", want, dated.Time)
	}
}

func TestDecodeAltitude_MissingAltitude(t *testing.T) {
	fix, err := NewDecoder().DecodeAltitude(mustParse(t, "GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,,M,,M,,"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fix.Altitude != nil {
		t.Fatalf("expected missing altitude, got %v", *fix.Altitude)
	}
}

func TestDecodeVisibility_FourSatellites(t *testing.T) {
	vis, err := NewDecoder().DecodeVisibility(mustParse(t, "GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00,1"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(vis.Satellites) != 4 {
		t.Fatalf("expected 4 satellites, got %d", len(vis.Satellites))
	}
	if vis.Band != "L1C/A" || vis.Constellation != "GP" {
		t.Fatalf("unexpected band/constellation %q/%q", vis.Band, vis.Constellation)
	}
	if vis.MessageCount != 3 || vis.MessageIndex != 1 || vis.TotalVisible != 11 {
		t.Fatalf("unexpected cycle metadata %+v", vis)
	}

	wantPRN := []int64{3, 4, 6, 13}
	for i, sat := range vis.Satellites {
		if sat.PRN != wantPRN[i] {
			t.Errorf("slot %d: expected prn %d, got %d", i, wantPRN[i], sat.PRN)
		}
		if sat.CN0 == nil || *sat.CN0 != 0 {
			t.Errorf("slot %d: expected cn0 0, got %v", i, sat.CN0)
		}
	}
	last := vis.Satellites[3]
	if *last.Elevation != 6 || *last.Azimuth != 292 {
		t.Fatalf("unexpected last slot angles %v/%v", *last.Elevation, *last.Azimuth)
	}
}

func TestDecodeVisibility_TrailingEmptySlot(t *testing.T) {
	vis, err := NewDecoder().DecodeVisibility(mustParse(t, "GPGSV,3,3,11,22,42,067,42,24,14,311,43,27,05,244,00,,,,,1"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(vis.Satellites) != 3 {
		t.Fatalf("expected 3 satellites, got %d", len(vis.Satellites))
	}
}

func TestDecodeVisibility_StopsAtEmptyCN0(t *testing.T) {
	vis, err := NewDecoder().DecodeVisibility(mustParse(t, "GLGSV,1,1,02,65,30,120,,66,45,200,40,3"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(vis.Satellites) != 0 {
		t.Fatalf("expected no satellites, got %d", len(vis.Satellites))
	}
	if vis.Band != "L2C/A" {
		t.Fatalf("expected L2C/A, got %q", vis.Band)
	}
}

func TestDecodeVisibility_NonNumericAngles(t *testing.T) {
	vis, err := NewDecoder().DecodeVisibility(mustParse(t, "GAGSV,1,1,01,05,xx,120,33,7"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(vis.Satellites) != 1 {
		t.Fatalf("expected 1 satellite, got %d", len(vis.Satellites))
	}
	sat := vis.Satellites[0]
	if sat.Elevation != nil {
		t.Fatalf("expected missing elevation, got %v", *sat.Elevation)
	}
	if sat.Azimuth == nil || *sat.Azimuth != 120 {
		t.Fatalf("expected azimuth 120, got %v", sat.Azimuth)
	}
	if vis.Band != "L1-BC" {
		t.Fatalf("expected L1-BC, got %q", vis.Band)
	}
}

func TestDecodeVisibility_NoSignalID(t *testing.T) {
	vis, err := NewDecoder().DecodeVisibility(mustParse(t, "GBGSV,1,1,01,05,40,120,33"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(vis.Satellites) != 1 || vis.Band != BandUnknown {
		t.Fatalf("expected one satellite with unknown band, got %d/%q", len(vis.Satellites), vis.Band)
	}
}

func TestDecode_Unsupported(t *testing.T) {
	if _, err := NewDecoder().Decode(mustParse(t, "GPVTG,054.7,T,034.4,M,005.5,N,010.2,K")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecode_Dispatch(t *testing.T) {
	d := NewDecoder()
	tests := []struct {
		payload string
		kind    Kind
	}{
		{"GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W", KindPosition},
		{"GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,", KindAltitude},
		{"GAGSV,1,1,01,05,40,120,33,7", KindVisibility},
	}
	for _, tt := range tests {
		msg, err := d.Decode(mustParse(t, tt.payload))
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", tt.payload, err)
		}
		if msg.Kind != tt.kind {
			t.Errorf("%s: expected %s, got %s", tt.payload, tt.kind, msg.Kind)
		}
		if (msg.Fix == nil) == (msg.Visibility == nil) {
			t.Errorf("%s: expected exactly one payload", tt.payload)
		}
	}
}

func TestParseCoordinateMode(t *testing.T) {
	if m, err := ParseCoordinateMode("Legacy"); err != nil || m != CoordinatesLegacy {
		t.Fatalf("expected legacy, got %v %v", m, err)
	}
	if m, err := ParseCoordinateMode(""); err != nil || m != CoordinatesStandard {
		t.Fatalf("expected standard, got %v %v", m, err)
	}
	if _, err := ParseCoordinateMode("metric"); err == nil {
		t.Fatalf("expected error")
	}
}
