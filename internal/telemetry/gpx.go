package telemetry

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReadStats counts track points seen and dropped while reading a flight log.
type ReadStats struct {
	Points  int
	Skipped int
}

// ReadOption configures a flight log read.
type ReadOption func(*gpxReader)

// WithLogger sets the logger used for skipped-point diagnostics.
func WithLogger(logger *slog.Logger) ReadOption {
	return func(r *gpxReader) {
		r.logger = logger
	}
}

type gpxValues struct {
	Ele    *string `xml:"ele"`
	Time   *string `xml:"time"`
	Course *string `xml:"course"`
	Roll   *string `xml:"roll"`
	Pitch  *string `xml:"pitch"`
}

type gpxPoint struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
	gpxValues
	Extensions gpxValues `xml:"extensions"`
}

type gpxReader struct {
	logger *slog.Logger
	stats  ReadStats
}

// ReadGPX walks every trkpt element of a GPX document. Points with a missing
// or malformed value are skipped. Times are converted to UTC and rounded to
// the nearest second. Course, roll and pitch are read from the point itself
// or from its extensions element.
func ReadGPX(ctx context.Context, r io.Reader, opts ...ReadOption) ([]TrackPoint, ReadStats, error) {
	gr := &gpxReader{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(gr)
	}

	dec := xml.NewDecoder(r)

	var points []TrackPoint
	for {
		if err := ctx.Err(); err != nil {
			return nil, gr.stats, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, gr.stats, fmt.Errorf("reading gpx: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "trkpt" {
			continue
		}

		var raw gpxPoint
		if err = dec.DecodeElement(&raw, &se); err != nil {
			return nil, gr.stats, fmt.Errorf("decoding trkpt: %w", err)
		}
		gr.stats.Points++

		p, err := raw.trackPoint()
		if err != nil {
			gr.stats.Skipped++
			gr.logger.Debug("skipping track point", slog.Int("point", gr.stats.Points), slog.String("reason", err.Error()))
			continue
		}
		points = append(points, p)
	}

	return points, gr.stats, nil
}

// ReadGPXFile reads the GPX flight log at path.
func ReadGPXFile(ctx context.Context, path string, opts ...ReadOption) ([]TrackPoint, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("opening flight log: %w", err)
	}
	defer f.Close()

	return ReadGPX(ctx, f, opts...)
}

func (g gpxPoint) trackPoint() (p TrackPoint, err error) {
	pick := func(v, ext *string) *string {
		if v != nil {
			return v
		}
		return ext
	}

	ts := pick(g.Time, g.Extensions.Time)
	if ts == nil {
		return p, errors.New("missing time")
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*ts))
	if err != nil {
		return p, fmt.Errorf("parsing time: %w", err)
	}
	p.Time = t.UTC().Round(time.Second)

	fields := []struct {
		name string
		v    *string
		dst  *float64
	}{
		{"lat", &g.Lat, &p.Latitude},
		{"lon", &g.Lon, &p.Longitude},
		{"ele", pick(g.Ele, g.Extensions.Ele), &p.Altitude},
		{"course", pick(g.Course, g.Extensions.Course), &p.Course},
		{"roll", pick(g.Roll, g.Extensions.Roll), &p.Roll},
		{"pitch", pick(g.Pitch, g.Extensions.Pitch), &p.Pitch},
	}
	for _, f := range fields {
		if f.v == nil || strings.TrimSpace(*f.v) == "" {
			return p, fmt.Errorf("missing %s", f.name)
		}
		if *f.dst, err = strconv.ParseFloat(strings.TrimSpace(*f.v), 64); err != nil {
			return p, fmt.Errorf("parsing %s: %w", f.name, err)
		}
	}

	return p, nil
}
