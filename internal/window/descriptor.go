package window

// DefaultTitle is the title used when a descriptor does not name one.
const DefaultTitle = "winstate"

// Descriptor holds the initial values of a window. It is only read when the
// window state is created.
type Descriptor struct {
	Width         float32 `json:"width" yaml:"width"`
	Height        float32 `json:"height" yaml:"height"`
	Title         string  `json:"title" yaml:"title"`
	Vsync         bool    `json:"vsync" yaml:"vsync"`
	Resizable     bool    `json:"resizable" yaml:"resizable"`
	Decorations   bool    `json:"decorations" yaml:"decorations"`
	CursorVisible bool    `json:"cursor_visible" yaml:"cursor_visible"`
	CursorLocked  bool    `json:"cursor_locked" yaml:"cursor_locked"`
	Mode          Mode    `json:"mode" yaml:"mode"`
}

// DefaultDescriptor returns a 1280x720 windowed, resizable, decorated window
// with vsync on and a visible, unlocked cursor.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Width:         1280,
		Height:        720,
		Title:         DefaultTitle,
		Vsync:         true,
		Resizable:     true,
		Decorations:   true,
		CursorVisible: true,
		CursorLocked:  false,
		Mode:          Windowed(),
	}
}
