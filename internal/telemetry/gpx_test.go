package telemetry

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"
)

const flightLog = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="recorder">
  <trk>
    <trkseg>
      <trkpt lat="59.3293" lon="18.0686">
        <ele>120.5</ele>
        <time>2021-04-27T10:15:00.400Z</time>
        <course>90</course>
        <roll>1.5</roll>
        <pitch>-2</pitch>
      </trkpt>
      <trkpt lat="59.3295" lon="18.0690">
        <ele>121.5</ele>
        <time>2021-04-27T12:15:00.200+02:00</time>
        <course>92</course>
        <roll>0.5</roll>
        <pitch>-1</pitch>
      </trkpt>
      <trkpt lat="59.3297" lon="18.0694">
        <ele>122</ele>
        <time>2021-04-27T10:15:01Z</time>
        <extensions>
          <course>95</course>
          <roll>0</roll>
          <pitch>0</pitch>
        </extensions>
      </trkpt>
      <trkpt lat="59.3299" lon="18.0698">
        <time>2021-04-27T10:15:02Z</time>
        <course>95</course>
        <roll>0</roll>
        <pitch>0</pitch>
      </trkpt>
      <trkpt lat="north" lon="18.0698">
        <ele>122</ele>
        <time>2021-04-27T10:15:03Z</time>
        <course>95</course>
        <roll>0</roll>
        <pitch>0</pitch>
      </trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestReadGPX(t *testing.T) {
	points, stats, err := ReadGPX(context.Background(), strings.NewReader(flightLog))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if stats.Points != 5 || stats.Skipped != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	want := time.Date(2021, 4, 27, 10, 15, 0, 0, time.UTC)
	if !points[0].Time.Equal(want) || !points[1].Time.Equal(want) {
		t.Fatalf("expected both first points at %s, got %s and %s", want, points[0].Time, points[1].Time)
	}
	if points[0].Altitude != 120.5 || points[0].Course != 90 || points[0].Roll != 1.5 || points[0].Pitch != -2 {
		t.Fatalf("unexpected first point %+v", points[0])
	}
	if points[2].Course != 95 {
		t.Fatalf("expected course from extensions, got %v", points[2].Course)
	}
}

func TestReadGPX_Malformed(t *testing.T) {
	if _, _, err := ReadGPX(context.Background(), strings.NewReader("<gpx><trk><trkpt lat=")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAverageByEpoch(t *testing.T) {
	base := time.Date(2021, 4, 27, 10, 15, 0, 0, time.UTC)
	points := []TrackPoint{
		{Time: base.Add(time.Second), Latitude: 10, Longitude: 20, Altitude: 100},
		{Time: base, Latitude: 1, Longitude: 2, Altitude: 30, Course: 90},
		{Time: base, Latitude: 3, Longitude: 4, Altitude: 50, Course: 100},
	}

	got := AverageByEpoch(points)
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if !got[0].Time.Equal(base) || !got[1].Time.Equal(base.Add(time.Second)) {
		t.Fatalf("expected time order, got %s, %s", got[0].Time, got[1].Time)
	}
	if math.Abs(got[0].Latitude-2) > 1e-12 || math.Abs(got[0].Altitude-40) > 1e-12 || math.Abs(got[0].Course-95) > 1e-12 {
		t.Fatalf("unexpected average %+v", got[0])
	}
	if got[1].Latitude != 10 {
		t.Fatalf("expected single point unchanged, got %+v", got[1])
	}
}
