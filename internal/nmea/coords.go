package nmea

import (
	"fmt"
	"strconv"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

// CoordinateMode selects how packed ddmm.mmmm coordinates are turned into
// decimal degrees.
type CoordinateMode int

const (
	// CoordinatesStandard converts ddmm.mmmm into degrees + minutes/60.
	CoordinatesStandard CoordinateMode = iota

	// CoordinatesLegacy applies the fixed scale factors used by older
	// datasets: 0.01 for latitude, 0.001 for east and -0.01 for west
	// longitude. Kept so previously produced tables can be regenerated.
	CoordinatesLegacy
)

func (m CoordinateMode) String() string {
	if m == CoordinatesLegacy {
		return "legacy"
	}
	return "standard"
}

// ParseCoordinateMode parses "standard" or "legacy". An empty string selects
// the standard mode.
func ParseCoordinateMode(s string) (CoordinateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return CoordinatesStandard, nil
	case "legacy":
		return CoordinatesLegacy, nil
	default:
		return CoordinatesStandard, fmt.Errorf("unknown coordinate mode '%s'", s)
	}
}

// Latitude converts a packed latitude and its N/S hemisphere.
func (m CoordinateMode) Latitude(value, hemi string) (float64, error) {
	if hemi != gonmea.North && hemi != gonmea.South {
		return 0, fmt.Errorf("invalid latitude hemisphere '%s'", hemi)
	}
	if m == CoordinatesLegacy {
		v, err := parsePacked(value)
		if err != nil {
			return 0, err
		}
		if hemi == gonmea.South {
			return -0.01 * v, nil
		}
		return 0.01 * v, nil
	}
	return parseStandard(value, hemi)
}

// Longitude converts a packed longitude and its E/W hemisphere.
func (m CoordinateMode) Longitude(value, hemi string) (float64, error) {
	if hemi != gonmea.East && hemi != gonmea.West {
		return 0, fmt.Errorf("invalid longitude hemisphere '%s'", hemi)
	}
	if m == CoordinatesLegacy {
		v, err := parsePacked(value)
		if err != nil {
			return 0, err
		}
		if hemi == gonmea.West {
			return -0.01 * v, nil
		}
		return 0.001 * v, nil
	}
	return parseStandard(value, hemi)
}

func parsePacked(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing coordinate '%s': %w", value, err)
	}
	return v, nil
}

func parseStandard(value, hemi string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	v, err := gonmea.ParseGPS(value + " " + hemi)
	if err != nil {
		return 0, fmt.Errorf("parsing coordinate '%s %s': %w", value, hemi, err)
	}
	return v, nil
}
