package app

import "testing"

func TestColorMapper_GetColor(t *testing.T) {
	cm := NewColorMapperWithSize(ThermalTheme, CN0Bounds{Min: 20, Max: 30}, 11)

	tests := []struct {
		name string
		cn0  *int64
		want int
	}{
		{"missing", nil, 0},
		{"below range", ptr[int64](5), 0},
		{"lower bound", ptr[int64](20), 0},
		{"middle", ptr[int64](25), 5},
		{"upper bound", ptr[int64](30), 10},
		{"above range", ptr[int64](99), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cm.GetColor(tt.cn0); got != cm.colorMap[tt.want] {
				t.Errorf("expected color %d %v, got %v", tt.want, cm.colorMap[tt.want], got)
			}
		})
	}
}

func TestColorMapper_Themes(t *testing.T) {
	for theme := range themes {
		cm := NewColorMapper(theme, defaultCN0Bounds())
		if cm.ThemeName() != theme || cm.Size() != DefaultColorMapSize {
			t.Errorf("unexpected mapper %s of size %d", cm.ThemeName(), cm.Size())
		}
		if lo, hi := cm.colorMap[0], cm.colorMap[cm.Size()-1]; lo == hi {
			t.Errorf("%s: expected distinct colors at both ends, got %v", theme, lo)
		}
		if cm.colorMap[0].A != zoneAlpha {
			t.Errorf("%s: unexpected alpha %d", theme, cm.colorMap[0].A)
		}
	}

	if cm := NewColorMapper("sepia", defaultCN0Bounds()); cm.ThemeName() != ClassicTheme {
		t.Errorf("expected unknown theme to fall back to classic, got %s", cm.ThemeName())
	}
}

func TestColorMapper_UpdateBounds(t *testing.T) {
	cm := NewColorMapperWithSize(ClassicTheme, CN0Bounds{Min: 20, Max: 30}, 11)
	cm.UpdateBounds(CN0Bounds{Min: 40, Max: 50})

	if got := cm.GetColor(ptr[int64](30)); got != cm.colorMap[0] {
		t.Errorf("expected 30 dB-Hz to map to the lowest color after update, got %v", got)
	}
}
