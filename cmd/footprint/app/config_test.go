package app

import (
	"flag"
	"io"
	"testing"
)

func parseArgs(args ...string) (*Config, error) {
	fs := flag.NewFlagSet("footprint", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return parseConfig(fs, args)
}

func TestParseConfig(t *testing.T) {
	c, err := parseArgs("-db", "out/flight_SP.sqlite", "-o", "out/footprint", "-f", "JPEG",
		"-prn", "5", "-band", "E5", "-theme", "marine", "-min-cn0", "25", "-order", "2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if c.OutputFile != "out/footprint.jpeg" || c.Format != ImageJPEG {
		t.Fatalf("unexpected output %s (%s)", c.OutputFile, c.Format)
	}
	if c.PRN == nil || *c.PRN != 5 || c.Band != "E5" {
		t.Fatalf("unexpected satellite filter %v %q", c.PRN, c.Band)
	}
	if c.MinCN0 == nil || *c.MinCN0 != 25 || c.MaxCN0 != nil {
		t.Fatalf("unexpected C/N0 bounds %v %v", c.MinCN0, c.MaxCN0)
	}
	if c.Theme != MarineTheme || c.Geometry.Order != 2 || c.Width != defaultWidth {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	c, err := parseArgs("-db", "flight_SP.sqlite", "-o", "footprint")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.PRN != nil || c.MinCN0 != nil || c.MaxCN0 != nil {
		t.Fatalf("expected unset optional flags, got %+v", c)
	}
	if c.OutputFile != "footprint.png" || c.Theme != ClassicTheme {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing db", []string{"-o", "footprint"}},
		{"missing output", []string{"-db", "flight_SP.sqlite"}},
		{"bad format", []string{"-db", "flight_SP.sqlite", "-o", "fp", "-f", "gif"}},
		{"bad theme", []string{"-db", "flight_SP.sqlite", "-o", "fp", "-theme", "sepia"}},
		{"narrow", []string{"-db", "flight_SP.sqlite", "-o", "fp", "-width", "50"}},
		{"inverted C/N0", []string{"-db", "flight_SP.sqlite", "-o", "fp", "-min-cn0", "40", "-max-cn0", "30"}},
		{"unknown flag", []string{"-db", "flight_SP.sqlite", "-o", "fp", "-x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseArgs(tt.args...); err == nil {
				t.Errorf("expected an error for %v", tt.args)
			}
		})
	}
}
