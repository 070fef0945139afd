// Package kml writes Fresnel zones and specular points as time-tagged KML
// placemarks.
package kml

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/geodesy"
	"github.com/roman-kulish/gnss-reflect/internal/reflection"
)

const (
	namespace  = "http://www.opengis.net/kml/2.2"
	timeLayout = "2006-01-02T15:04:05"
)

type document struct {
	XMLName    xml.Name    `xml:"kml"`
	Namespace  string      `xml:"xmlns,attr"`
	Name       string      `xml:"Document>name,omitempty"`
	Placemarks []placemark `xml:"Document>Placemark"`
}

type placemark struct {
	Name     string    `xml:"name,omitempty"`
	TimeSpan timeSpan  `xml:"TimeSpan"`
	Polygon  *polygon  `xml:"Polygon,omitempty"`
	Point    *position `xml:"Point,omitempty"`
}

type timeSpan struct {
	Begin string `xml:"begin"`
	End   string `xml:"end"`
}

type polygon struct {
	Coordinates string `xml:"outerBoundaryIs>LinearRing>coordinates"`
}

type position struct {
	Coordinates string `xml:"coordinates"`
}

// Encode writes one polygon per Fresnel zone and one point per specular
// point. Each placemark spans one second starting at the sample time.
func Encode(w io.Writer, name string, zones []reflection.Zone) error {
	doc := document{Namespace: namespace, Name: name}
	for _, z := range zones {
		span := spanOf(z.Time())
		label := fmt.Sprintf("%s%02d", z.Observation.Constellation, z.Observation.PRN)

		doc.Placemarks = append(doc.Placemarks, placemark{
			Name:     label,
			TimeSpan: span,
			Polygon:  &polygon{Coordinates: coordinates(z.Zone.Ring)},
		})
		if z.Specular != nil {
			doc.Placemarks = append(doc.Placemarks, placemark{
				Name:     label,
				TimeSpan: span,
				Point:    &position{Coordinates: coordinates([]geodesy.LLA{*z.Specular})},
			})
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding kml: %w", err)
	}
	return enc.Close()
}

// WriteFile encodes zones into the file at path, replacing it.
func WriteFile(path, name string, zones []reflection.Zone) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	w := bufio.NewWriter(f)
	if err = Encode(w, name, zones); err != nil {
		return err
	}
	return w.Flush()
}

func spanOf(t time.Time) timeSpan {
	t = t.UTC()
	return timeSpan{
		Begin: t.Format(timeLayout),
		End:   t.Add(time.Second).Format(timeLayout),
	}
}

// coordinates renders points as "lon,lat,alt" tuples separated by spaces.
func coordinates(points []geodesy.LLA) string {
	var sb strings.Builder
	for i, p := range points {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(p.Longitude, 'f', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(p.Latitude, 'f', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(p.Altitude, 'f', -1, 64))
	}
	return sb.String()
}
