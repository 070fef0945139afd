// Package export renders specular tables as CSV and XLSX.
package export

import (
	"strconv"

	"github.com/roman-kulish/gnss-reflect/internal/reflection"
)

const timeLayout = "2006-01-02 15:04:05"

// Header lists the exported columns in table order.
var Header = []string{
	"time", "fl_lat", "fl_lon", "fl_alt", "course", "roll", "pitch",
	"lat", "lon", "const", "prn", "band", "ele", "az", "C_N0", "SP_lat", "SP_lon",
}

// values returns one row of typed cells. Missing values are nil.
func values(s *reflection.Sample) []any {
	o := s.Observation
	row := []any{
		s.Time().UTC().Format(timeLayout),
		s.Track.Latitude, s.Track.Longitude, s.Track.Altitude,
		s.Track.Course, s.Track.Roll, s.Track.Pitch,
		o.ReceiverLat, o.ReceiverLon, o.Constellation, o.PRN, o.Band,
		nil, nil, nil, nil, nil,
	}
	if o.Elevation != nil {
		row[12] = *o.Elevation
	}
	if o.Azimuth != nil {
		row[13] = *o.Azimuth
	}
	if o.CN0 != nil {
		row[14] = *o.CN0
	}
	if s.Specular != nil {
		row[15] = s.Specular.Latitude
		row[16] = s.Specular.Longitude
	}
	return row
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}
