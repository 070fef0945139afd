package nmea

import "errors"

var (
	// ErrNoSentence is returned when a line carries no "$...*hh" frame.
	ErrNoSentence = errors.New("no sentence")

	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnsupported is returned for talkers the decoder does not handle.
	ErrUnsupported = errors.New("unsupported sentence")

	// ErrUnparseable is returned when a recognised sentence has malformed
	// mandatory fields.
	ErrUnparseable = errors.New("unparseable sentence")
)

// Kind classifies a sentence by the information it carries.
type Kind int

const (
	KindUnknown    Kind = iota
	KindPosition        // position and date
	KindAltitude        // position, time of day and altitude
	KindVisibility      // satellites in view
)

func (k Kind) String() string {
	switch k {
	case KindPosition:
		return "position"
	case KindAltitude:
		return "altitude"
	case KindVisibility:
		return "visibility"
	default:
		return "unknown"
	}
}

var talkerKinds = map[string]Kind{
	"GNRMC": KindPosition,
	"GNGGA": KindAltitude,
	"GPGSV": KindVisibility,
	"GLGSV": KindVisibility,
	"GAGSV": KindVisibility,
	"GBGSV": KindVisibility,
}

// KindOf returns the kind of the given talker+type code, e.g. "GPGSV".
func KindOf(talker string) Kind {
	return talkerKinds[talker]
}

// Sentence is a checksum-verified sentence split into fields.
type Sentence struct {
	Talker   string   // talker and type code, e.g. GNRMC
	Fields   []string // fields following the talker, checksum excluded
	Checksum string   // two uppercase hex digits
}

// Kind returns the kind of the sentence talker.
func (s Sentence) Kind() Kind {
	return KindOf(s.Talker)
}

// Constellation returns the two-letter constellation prefix of the talker.
func (s Sentence) Constellation() string {
	if len(s.Talker) < 2 {
		return ""
	}
	return s.Talker[:2]
}

func (s Sentence) field(i int) string {
	if i < 0 || i >= len(s.Fields) {
		return ""
	}
	return s.Fields[i]
}
