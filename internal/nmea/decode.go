package nmea

import (
	"fmt"
	"strconv"
	"time"
)

const (
	timeOfDayLayout = "150405"
	dateTimeLayout  = "020106150405" // ddmmyy followed by hhmmss

	satellitesPerSentence = 4
	satelliteFields       = 4
	firstSatelliteField   = 3
)

// Fix is a receiver position report.
type Fix struct {
	Time      time.Time // UTC; only the time of day is meaningful when HasDate is false
	HasDate   bool
	Latitude  float64
	Longitude float64
	Altitude  *float64 // meters, altitude sentences only
	Valid     bool     // receiver reported an active fix
}

// WithDate returns a copy of the fix with its time of day placed on the
// calendar day of date.
func (f Fix) WithDate(date time.Time) Fix {
	t := f.Time
	f.Time = time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	f.HasDate = true
	return f
}

// Satellite is one satellite slot of a visibility sentence.
type Satellite struct {
	PRN       int64
	Elevation *float64 // degrees
	Azimuth   *float64 // degrees from true north
	CN0       *int64   // dB-Hz
}

// Visibility is a decoded satellites-in-view sentence. All satellites share
// the band resolved from the trailing signal id.
type Visibility struct {
	Constellation string
	SignalID      string
	Band          string
	MessageCount  int
	MessageIndex  int
	TotalVisible  int
	Satellites    []Satellite
}

// Message is the result of decoding a sentence. Exactly one of Fix and
// Visibility is set.
type Message struct {
	Kind       Kind
	Fix        *Fix
	Visibility *Visibility
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithCoordinateMode sets how packed coordinates are converted.
func WithCoordinateMode(m CoordinateMode) DecoderOption {
	return func(d *Decoder) {
		d.coords = m
	}
}

// Decoder extracts typed records from validated sentences. It holds no
// per-stream state and is safe for concurrent use.
type Decoder struct {
	coords CoordinateMode
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode dispatches on the sentence talker.
func (d *Decoder) Decode(s Sentence) (Message, error) {
	switch kind := s.Kind(); kind {
	case KindPosition:
		fix, err := d.DecodePosition(s)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: kind, Fix: &fix}, nil

	case KindAltitude:
		fix, err := d.DecodeAltitude(s)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: kind, Fix: &fix}, nil

	case KindVisibility:
		vis, err := d.DecodeVisibility(s)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: kind, Visibility: &vis}, nil

	default:
		return Message{}, fmt.Errorf("%w: %s", ErrUnsupported, s.Talker)
	}
}

// DecodePosition decodes a recommended-minimum sentence:
//
//	time, status, lat, N/S, lon, E/W, speed, course, ddmmyy, ...
func (d *Decoder) DecodePosition(s Sentence) (Fix, error) {
	lat, lon, err := d.position(s, 2)
	if err != nil {
		return Fix{}, err
	}

	tod := s.field(0)
	date := s.field(8)
	if len(tod) < 6 {
		return Fix{}, fmt.Errorf("%w: time '%s'", ErrUnparseable, tod)
	}
	t, err := time.ParseInLocation(dateTimeLayout, date+tod[:6], time.UTC)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: date '%s' time '%s': %v", ErrUnparseable, date, tod, err)
	}

	return Fix{
		Time:      t,
		HasDate:   true,
		Latitude:  lat,
		Longitude: lon,
		Valid:     s.field(1) == "A",
	}, nil
}

// DecodeAltitude decodes a fix-data sentence:
//
//	time, lat, N/S, lon, E/W, quality, satellites, hdop, altitude, M, ...
//
// The returned fix carries the time of day only.
func (d *Decoder) DecodeAltitude(s Sentence) (Fix, error) {
	lat, lon, err := d.position(s, 1)
	if err != nil {
		return Fix{}, err
	}

	tod := s.field(0)
	if len(tod) < 6 {
		return Fix{}, fmt.Errorf("%w: time '%s'", ErrUnparseable, tod)
	}
	t, err := time.ParseInLocation(timeOfDayLayout, tod[:6], time.UTC)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: time '%s': %v", ErrUnparseable, tod, err)
	}

	quality, _ := strconv.Atoi(s.field(5))
	return Fix{
		Time:      t,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  parseOptionalFloat(s.field(8)),
		Valid:     quality > 0,
	}, nil
}

func (d *Decoder) position(s Sentence, offset int) (lat, lon float64, err error) {
	latValue, latHemi := s.field(offset), s.field(offset+1)
	lonValue, lonHemi := s.field(offset+2), s.field(offset+3)
	if latValue == "" || lonValue == "" {
		return 0, 0, fmt.Errorf("%w: empty position", ErrUnparseable)
	}
	if lat, err = d.coords.Latitude(latValue, latHemi); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if lon, err = d.coords.Longitude(lonValue, lonHemi); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return lat, lon, nil
}

// DecodeVisibility decodes a satellites-in-view sentence:
//
//	count, index, visible, (prn, elevation, azimuth, cn0) x 1..4, [signal id]
//
// Decoding stops at the first slot with an empty PRN or C/N0 field; slots
// after it are omitted.
func (d *Decoder) DecodeVisibility(s Sentence) (Visibility, error) {
	if len(s.Fields) < firstSatelliteField {
		return Visibility{}, fmt.Errorf("%w: %d fields", ErrUnparseable, len(s.Fields))
	}

	slots := s.Fields[firstSatelliteField:]
	var signalID string
	if len(slots)%satelliteFields == 1 {
		signalID = slots[len(slots)-1]
		slots = slots[:len(slots)-1]
	}

	vis := Visibility{
		Constellation: s.Constellation(),
		SignalID:      signalID,
		Band:          ResolveBand(s.Constellation(), signalID),
		MessageCount:  atoiOrZero(s.field(0)),
		MessageIndex:  atoiOrZero(s.field(1)),
		TotalVisible:  atoiOrZero(s.field(2)),
	}

	for i := 0; i < satellitesPerSentence; i++ {
		base := i * satelliteFields
		if base+satelliteFields > len(slots) {
			break
		}
		prn, cn0 := slots[base], slots[base+3]
		if prn == "" || cn0 == "" {
			break
		}

		id, err := strconv.ParseInt(prn, 10, 64)
		if err != nil {
			return Visibility{}, fmt.Errorf("%w: prn '%s'", ErrUnparseable, prn)
		}

		vis.Satellites = append(vis.Satellites, Satellite{
			PRN:       id,
			Elevation: parseOptionalFloat(slots[base+1]),
			Azimuth:   parseOptionalFloat(slots[base+2]),
			CN0:       parseOptionalInt(cn0),
		})
	}

	return vis, nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseOptionalInt(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func atoiOrZero(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
