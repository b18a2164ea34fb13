package window

// View is a point-in-time copy of a window's readable properties.
type View struct {
	ID              Identity `json:"id"`
	Width           float32  `json:"width"`
	Height          float32  `json:"height"`
	RequestedWidth  float32  `json:"requested_width"`
	RequestedHeight float32  `json:"requested_height"`
	PhysicalWidth   uint32   `json:"physical_width"`
	PhysicalHeight  uint32   `json:"physical_height"`
	ScaleFactor     float64  `json:"scale_factor"`
	Title           string   `json:"title"`
	Vsync           bool     `json:"vsync"`
	Resizable       bool     `json:"resizable"`
	Decorations     bool     `json:"decorations"`
	CursorVisible   bool     `json:"cursor_visible"`
	CursorLocked    bool     `json:"cursor_locked"`
	CursorPosition  *Vec2    `json:"cursor_position"`
	Mode            Mode     `json:"mode"`
	Pending         int      `json:"pending_commands"`
}

// Snapshot copies the current properties of s. The command queue is left
// untouched.
func (s *State) Snapshot() View {
	v := View{
		ID:              s.id,
		Width:           s.Width(),
		Height:          s.Height(),
		RequestedWidth:  s.requestedWidth,
		RequestedHeight: s.requestedHeight,
		PhysicalWidth:   s.physicalWidth,
		PhysicalHeight:  s.physicalHeight,
		ScaleFactor:     s.scaleFactor,
		Title:           s.title,
		Vsync:           s.vsync,
		Resizable:       s.resizable,
		Decorations:     s.decorations,
		CursorVisible:   s.cursorVisible,
		CursorLocked:    s.cursorLocked,
		Mode:            s.mode,
		Pending:         len(s.commands),
	}
	if s.cursorPosition != nil {
		p := *s.cursorPosition
		v.CursorPosition = &p
	}
	return v
}

// Dispatch runs cmd through the mutator that queues it, so a command built
// elsewhere (for example decoded from JSON) updates s the same way a direct
// call would. The resolution carried by SetWindowMode is recomputed from the
// current physical size.
func Dispatch(s *State, cmd Command) {
	switch c := cmd.(type) {
	case SetWindowMode:
		s.SetMode(c.Mode)
	case SetTitle:
		s.SetTitle(c.Title)
	case SetResolution:
		s.SetResolution(c.Width, c.Height)
	case SetVsync:
		s.SetVsync(c.Vsync)
	case SetResizable:
		s.SetResizable(c.Resizable)
	case SetDecorations:
		s.SetDecorations(c.Decorations)
	case SetCursorLockMode:
		s.SetCursorLockMode(c.Locked)
	case SetCursorVisibility:
		s.SetCursorVisibility(c.Visible)
	case SetCursorPosition:
		s.SetCursorPosition(c.Position)
	case SetMaximized:
		s.SetMaximized(c.Maximized)
	}
}

// ApplyDescriptor queues one mutator call for every property where next
// differs from prev and returns how many were queued.
func ApplyDescriptor(s *State, prev, next Descriptor) int {
	n := 0
	if prev.Width != next.Width || prev.Height != next.Height {
		s.SetResolution(next.Width, next.Height)
		n++
	}
	if prev.Title != next.Title {
		s.SetTitle(next.Title)
		n++
	}
	if prev.Vsync != next.Vsync {
		s.SetVsync(next.Vsync)
		n++
	}
	if prev.Resizable != next.Resizable {
		s.SetResizable(next.Resizable)
		n++
	}
	if prev.Decorations != next.Decorations {
		s.SetDecorations(next.Decorations)
		n++
	}
	if prev.CursorVisible != next.CursorVisible {
		s.SetCursorVisibility(next.CursorVisible)
		n++
	}
	if prev.CursorLocked != next.CursorLocked {
		s.SetCursorLockMode(next.CursorLocked)
		n++
	}
	if prev.Mode != next.Mode {
		s.SetMode(next.Mode)
		n++
	}
	return n
}
