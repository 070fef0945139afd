package observation

import "time"

// Observation is one satellite seen from the receiver position held at the
// moment its visibility sentence was read.
type Observation struct {
	Time          time.Time `json:"time"`
	ReceiverLat   float64   `json:"lat"`
	ReceiverLon   float64   `json:"long"`
	Constellation string    `json:"const"`
	PRN           int64     `json:"prn"`
	Band          string    `json:"band"`
	Elevation     *float64  `json:"ele,omitempty"` // degrees
	Azimuth       *float64  `json:"az,omitempty"`  // degrees
	CN0           *int64    `json:"C_N0,omitempty"`
}

// Stats counts what happened to each line of an input stream.
type Stats struct {
	Lines             int
	NoSentence        int
	ChecksumMismatch  int
	Unsupported       int
	Unparseable       int
	Undated           int // altitude fixes seen without a default date
	VoidFixes         int
	Fixes             int
	DroppedBeforeFix  int
	VisibilityRecords int
	Observations      int
}

// Skipped returns the number of lines that produced nothing.
func (s Stats) Skipped() int {
	return s.NoSentence + s.ChecksumMismatch + s.Unsupported + s.Unparseable +
		s.Undated + s.VoidFixes + s.DroppedBeforeFix
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Lines += o.Lines
	s.NoSentence += o.NoSentence
	s.ChecksumMismatch += o.ChecksumMismatch
	s.Unsupported += o.Unsupported
	s.Unparseable += o.Unparseable
	s.Undated += o.Undated
	s.VoidFixes += o.VoidFixes
	s.Fixes += o.Fixes
	s.DroppedBeforeFix += o.DroppedBeforeFix
	s.VisibilityRecords += o.VisibilityRecords
	s.Observations += o.Observations
}
