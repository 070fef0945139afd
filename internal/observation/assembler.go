package observation

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/gnss-reflect/internal/nmea"
)

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used for per-line diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithDecoder replaces the default sentence decoder.
func WithDecoder(d *nmea.Decoder) Option {
	return func(a *Assembler) {
		a.decoder = d
	}
}

// WithDefaultDate sets the calendar day given to altitude fixes, which only
// report the time of day.
func WithDefaultDate(date time.Time) Option {
	return func(a *Assembler) {
		a.date = date.UTC()
	}
}

// WithRequireValidFix makes the assembler ignore fixes the receiver flagged
// as void.
func WithRequireValidFix(require bool) Option {
	return func(a *Assembler) {
		a.requireValid = require
	}
}

// Assembler folds a stream of receiver lines into observations. The most
// recent fix wins: every satellite of a visibility sentence is stamped with
// the time and position of the last fix seen before it. An Assembler
// belongs to a single stream and is not safe for concurrent use.
type Assembler struct {
	decoder      *nmea.Decoder
	logger       *slog.Logger
	date         time.Time
	requireValid bool

	fix   *nmea.Fix
	stats Stats
}

func New(opts ...Option) *Assembler {
	a := &Assembler{
		decoder: nmea.NewDecoder(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed processes a single line and returns the observations it produced.
// Lines that cannot be used are skipped and leave the held fix unchanged.
func (a *Assembler) Feed(line string) []Observation {
	a.stats.Lines++

	sentence, err := nmea.Parse(line)
	if err != nil {
		if errors.Is(err, nmea.ErrChecksumMismatch) {
			a.stats.ChecksumMismatch++
		} else {
			a.stats.NoSentence++
		}
		a.skip(err)
		return nil
	}

	msg, err := a.decoder.Decode(sentence)
	if err != nil {
		if errors.Is(err, nmea.ErrUnsupported) {
			a.stats.Unsupported++
		} else {
			a.stats.Unparseable++
		}
		a.skip(err)
		return nil
	}

	switch msg.Kind {
	case nmea.KindPosition:
		a.update(*msg.Fix)

	case nmea.KindAltitude:
		if a.date.IsZero() {
			a.stats.Undated++
			a.skip(errors.New("altitude fix without a default date"))
			return nil
		}
		a.update(msg.Fix.WithDate(a.date))

	case nmea.KindVisibility:
		a.stats.VisibilityRecords++
		if a.fix == nil {
			a.stats.DroppedBeforeFix++
			a.skip(errors.New("visibility before first fix"))
			return nil
		}
		return a.observations(msg.Visibility)
	}

	return nil
}

func (a *Assembler) update(fix nmea.Fix) {
	if a.requireValid && !fix.Valid {
		a.stats.VoidFixes++
		a.skip(errors.New("void fix"))
		return
	}
	a.fix = &fix
	a.stats.Fixes++
}

func (a *Assembler) observations(vis *nmea.Visibility) []Observation {
	if len(vis.Satellites) == 0 {
		return nil
	}

	out := make([]Observation, 0, len(vis.Satellites))
	for _, sat := range vis.Satellites {
		out = append(out, Observation{
			Time:          a.fix.Time,
			ReceiverLat:   a.fix.Latitude,
			ReceiverLon:   a.fix.Longitude,
			Constellation: vis.Constellation,
			PRN:           sat.PRN,
			Band:          vis.Band,
			Elevation:     sat.Elevation,
			Azimuth:       sat.Azimuth,
			CN0:           sat.CN0,
		})
	}
	a.stats.Observations += len(out)
	return out
}

// skipOversized records a line too long to buffer. It is counted as a line
// without a sentence.
func (a *Assembler) skipOversized() {
	a.stats.Lines++
	a.stats.NoSentence++
	a.skip(errors.New("line too long"))
}

func (a *Assembler) skip(reason error) {
	a.logger.Debug("skipping line", slog.Int("line", a.stats.Lines), slog.String("reason", reason.Error()))
}

// Fix returns the currently held fix, if any.
func (a *Assembler) Fix() (nmea.Fix, bool) {
	if a.fix == nil {
		return nmea.Fix{}, false
	}
	return *a.fix, true
}

func (a *Assembler) Stats() Stats {
	return a.stats
}
