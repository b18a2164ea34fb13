package window

import (
	"fmt"
	"strings"
)

// ModeKind enumerates the ways a window can be displayed.
type ModeKind uint8

const (
	ModeWindowed ModeKind = iota
	ModeBorderlessFullscreen
	ModeFullscreen
)

// Mode defines the way a window is displayed.
//
// UseSize only matters for ModeFullscreen: when true the backend picks the
// video mode that best fits the window size, otherwise it picks the best
// video mode available and ignores the size.
type Mode struct {
	Kind    ModeKind
	UseSize bool
}

// Windowed returns the windowed mode.
func Windowed() Mode { return Mode{Kind: ModeWindowed} }

// BorderlessFullscreen returns the borderless fullscreen mode.
func BorderlessFullscreen() Mode { return Mode{Kind: ModeBorderlessFullscreen} }

// Fullscreen returns the exclusive fullscreen mode.
func Fullscreen(useSize bool) Mode { return Mode{Kind: ModeFullscreen, UseSize: useSize} }

// IsFullscreen reports whether the mode covers the whole monitor.
func (m Mode) IsFullscreen() bool {
	return m.Kind == ModeBorderlessFullscreen || m.Kind == ModeFullscreen
}

func (m Mode) String() string {
	switch m.Kind {
	case ModeBorderlessFullscreen:
		return "borderless_fullscreen"
	case ModeFullscreen:
		if m.UseSize {
			return "fullscreen_use_size"
		}
		return "fullscreen"
	default:
		return "windowed"
	}
}

// ParseMode parses the text form produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "windowed":
		return Windowed(), nil
	case "borderless_fullscreen", "borderless":
		return BorderlessFullscreen(), nil
	case "fullscreen":
		return Fullscreen(false), nil
	case "fullscreen_use_size":
		return Fullscreen(true), nil
	default:
		return Mode{}, fmt.Errorf("unknown window mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
