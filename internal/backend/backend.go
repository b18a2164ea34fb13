package backend

import "github.com/bryanchriswhite/winstate/internal/window"

// Report is what a backend observed about the OS window.
type Report struct {
	PhysicalWidth  uint32
	PhysicalHeight uint32
	ScaleFactor    float64
	// Cursor is nil when the pointer is not over the window.
	Cursor *window.Vec2
}

// Backend applies window commands to a real (or simulated) OS window.
type Backend interface {
	// Name returns the backend name (e.g., "x11", "recorder")
	Name() string

	// Open prepares the OS window described by desc and reports its
	// initial physical size and scale factor.
	Open(desc window.Descriptor) (Report, error)

	// Apply performs one queued command. Commands are delivered once, in
	// queue order; a failed command is not retried.
	Apply(cmd window.Command) error

	// Poll reports the current state of the OS window.
	Poll() (Report, error)

	// Close releases the connection to the display server
	Close() error
}

// writeBack pushes a report into the state through the backend-report path.
func writeBack(s *window.State, r Report) {
	if r.ScaleFactor > 0 {
		s.UpdateScaleFactorFromBackend(r.ScaleFactor)
	}
	s.UpdateActualSizeFromBackend(r.PhysicalWidth, r.PhysicalHeight)
	s.UpdateCursorPositionFromBackend(r.Cursor)
}
