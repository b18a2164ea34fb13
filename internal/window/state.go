package window

// State is an operating system window that can present content and receive
// user input, as seen by the application.
//
// A window has three sizes. The physical size is the width and height in
// physical pixels on the monitor. The logical size is the physical size
// divided by the OS scale factor. The requested size, in logical pixels, is
// what was asked for at creation or by the last SetResolution; the actual
// logical size may differ because of OS size limits or the quantization of
// physical pixels.
//
// Application mutators update State immediately and queue a Command for the
// backend. Backend reports (the *FromBackend methods) write observed values
// back and never queue anything. State does no locking: callers serialize
// access to one State.
type State struct {
	id              Identity
	requestedWidth  float32
	requestedHeight float32
	physicalWidth   uint32
	physicalHeight  uint32
	scaleFactor     float64
	title           string
	vsync           bool
	resizable       bool
	decorations     bool
	cursorVisible   bool
	cursorLocked    bool
	cursorPosition  *Vec2
	mode            Mode
	commands        []Command
}

// New creates the state of a window the backend has just opened with the
// given physical size and scale factor.
func New(id Identity, desc Descriptor, physicalWidth, physicalHeight uint32, scaleFactor float64) *State {
	return &State{
		id:              id,
		requestedWidth:  desc.Width,
		requestedHeight: desc.Height,
		physicalWidth:   physicalWidth,
		physicalHeight:  physicalHeight,
		scaleFactor:     scaleFactor,
		title:           desc.Title,
		vsync:           desc.Vsync,
		resizable:       desc.Resizable,
		decorations:     desc.Decorations,
		cursorVisible:   desc.CursorVisible,
		cursorLocked:    desc.CursorLocked,
		mode:            desc.Mode,
	}
}

func (s *State) ID() Identity { return s.id }

// Width is the current logical width of the client area.
func (s *State) Width() float32 {
	return float32(float64(s.physicalWidth) / s.scaleFactor)
}

// Height is the current logical height of the client area.
func (s *State) Height() float32 {
	return float32(float64(s.physicalHeight) / s.scaleFactor)
}

// RequestedWidth is the client area width in logical pixels from creation
// or the last SetResolution.
func (s *State) RequestedWidth() float32 { return s.requestedWidth }

// RequestedHeight is the client area height in logical pixels from creation
// or the last SetResolution.
func (s *State) RequestedHeight() float32 { return s.requestedHeight }

// PhysicalWidth is the client area width in physical pixels.
func (s *State) PhysicalWidth() uint32 { return s.physicalWidth }

// PhysicalHeight is the client area height in physical pixels.
func (s *State) PhysicalHeight() uint32 { return s.physicalHeight }

// ScaleFactor is the ratio of physical to logical pixels:
// physical = logical * scale factor.
func (s *State) ScaleFactor() float64 { return s.scaleFactor }

func (s *State) Title() string       { return s.title }
func (s *State) Vsync() bool         { return s.vsync }
func (s *State) Resizable() bool     { return s.resizable }
func (s *State) Decorations() bool   { return s.decorations }
func (s *State) CursorVisible() bool { return s.cursorVisible }
func (s *State) CursorLocked() bool  { return s.cursorLocked }
func (s *State) Mode() Mode          { return s.mode }

// CursorPosition returns the last position reported by the backend. ok is
// false until one is reported or while the cursor is outside the window.
func (s *State) CursorPosition() (pos Vec2, ok bool) {
	if s.cursorPosition == nil {
		return Vec2{}, false
	}
	return *s.cursorPosition, true
}

// Application mutators.

// SetResolution asks the backend to resize the client area to the given
// logical size.
func (s *State) SetResolution(width, height float32) {
	s.requestedWidth = width
	s.requestedHeight = height
	s.push(SetResolution{Width: width, Height: height})
}

func (s *State) SetTitle(title string) {
	s.title = title
	s.push(SetTitle{Title: title})
}

func (s *State) SetVsync(vsync bool) {
	s.vsync = vsync
	s.push(SetVsync{Vsync: vsync})
}

func (s *State) SetResizable(resizable bool) {
	s.resizable = resizable
	s.push(SetResizable{Resizable: resizable})
}

func (s *State) SetDecorations(decorations bool) {
	s.decorations = decorations
	s.push(SetDecorations{Decorations: decorations})
}

func (s *State) SetCursorLockMode(locked bool) {
	s.cursorLocked = locked
	s.push(SetCursorLockMode{Locked: locked})
}

func (s *State) SetCursorVisibility(visible bool) {
	s.cursorVisible = visible
	s.push(SetCursorVisibility{Visible: visible})
}

// SetCursorPosition asks the backend to move the cursor. CursorPosition only
// changes once the backend reports where the cursor actually ended up.
func (s *State) SetCursorPosition(pos Vec2) {
	s.push(SetCursorPosition{Position: pos})
}

// SetMode switches the display mode. The command carries the current
// physical size, since mode switches happen in physical pixels.
func (s *State) SetMode(mode Mode) {
	s.mode = mode
	s.push(SetWindowMode{
		Mode:       mode,
		Resolution: [2]uint32{s.physicalWidth, s.physicalHeight},
	})
}

// SetMaximized asks the backend to maximize or restore the window. Whether
// the window is maximized is not tracked.
func (s *State) SetMaximized(maximized bool) {
	s.push(SetMaximized{Maximized: maximized})
}

func (s *State) push(cmd Command) {
	s.commands = append(s.commands, cmd)
}

// Backend reports.

func (s *State) UpdateScaleFactorFromBackend(scaleFactor float64) {
	s.scaleFactor = scaleFactor
}

func (s *State) UpdateActualSizeFromBackend(physicalWidth, physicalHeight uint32) {
	s.physicalWidth = physicalWidth
	s.physicalHeight = physicalHeight
}

// UpdateCursorPositionFromBackend records the observed cursor position; nil
// means the cursor is not over the window.
func (s *State) UpdateCursorPositionFromBackend(pos *Vec2) {
	if pos == nil {
		s.cursorPosition = nil
		return
	}
	p := *pos
	s.cursorPosition = &p
}

// DrainCommands removes and returns every queued command in the order they
// were queued.
func (s *State) DrainCommands() []Command {
	if len(s.commands) == 0 {
		return nil
	}
	drained := s.commands
	s.commands = nil
	return drained
}

// PendingCommands returns how many commands are waiting to be drained.
func (s *State) PendingCommands() int {
	return len(s.commands)
}
