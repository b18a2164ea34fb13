package backend

import "testing"

func TestParseX11Window(t *testing.T) {
	tests := map[string]uint32{
		"0x3a00007": 0x3a00007,
		"60817415":  60817415,
		" 0x10 ":    0x10,
	}
	for in, want := range tests {
		got, err := ParseX11Window(in)
		if err != nil {
			t.Fatalf("ParseX11Window(%q): unexpected error: %v", in, err)
		}
		if uint32(got) != want {
			t.Errorf("ParseX11Window(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"", "0", "xyz", "0x1ffffffff"} {
		if _, err := ParseX11Window(in); err == nil {
			t.Errorf("ParseX11Window(%q): expected error", in)
		}
	}
}

func TestScaleFromScreen(t *testing.T) {
	tests := []struct {
		px, mm uint16
		want   float64
	}{
		{1920, 508, 1},
		{3840, 508, 2},
		{2880, 508, 1.5},
		{1024, 0, 1},
		{800, 500, 1},
	}
	for _, tt := range tests {
		if got := ScaleFromScreen(tt.px, tt.mm); got != tt.want {
			t.Errorf("ScaleFromScreen(%d, %d) = %v, want %v", tt.px, tt.mm, got, tt.want)
		}
	}
}
