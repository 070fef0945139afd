package nmea

import "testing"

func TestResolveBand(t *testing.T) {
	tests := []struct {
		constellation string
		ids           string
		bands         []string
	}{
		{"GP", "012345678", []string{"All", "L1C/A", "L1P(Y)", "L1M", "L2P(Y)", "L2C-M", "L2C-L", "L5-I", "L5-Q"}},
		{"GL", "01234", []string{"All", "L1C/A", "L1P", "L2C/A", "L2P"}},
		{"GA", "01234567", []string{"All", "E5a", "E5b", "E5a+b", "E6-A", "E6-BC", "L1-A", "L1-BC"}},
		{"GB", "0123456789ABC", []string{"All", "B1l", "B1Q", "B1C", "B1A", "B2-a", "B2-b", "B2a+b", "B3l", "B3Q", "B3A", "B2l", "B2Q"}},
	}
	for _, tt := range tests {
		if len(tt.ids) != len(tt.bands) {
			t.Fatalf("%s: bad fixture", tt.constellation)
		}
		for i, id := range tt.ids {
			if got := ResolveBand(tt.constellation, string(id)); got != tt.bands[i] {
				t.Errorf("%s/%c: expected %q, got %q", tt.constellation, id, tt.bands[i], got)
			}
		}
	}
}

func TestResolveBand_Unknown(t *testing.T) {
	tests := []struct {
		constellation, id string
	}{
		{"GP", "9"},
		{"GL", "5"},
		{"GA", "8"},
		{"GB", "D"},
		{"GQ", "1"},
		{"GP", ""},
		{"GP", "10"},
		{"GP", "x"},
	}
	for _, tt := range tests {
		if got := ResolveBand(tt.constellation, tt.id); got != BandUnknown {
			t.Errorf("%s/%q: expected unknown, got %q", tt.constellation, tt.id, got)
		}
	}
}

func TestResolveBand_LowercaseHex(t *testing.T) {
	if got := ResolveBand("GB", "a"); got != "B3A" {
		t.Fatalf("expected B3A, got %q", got)
	}
}
