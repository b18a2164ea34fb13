package backend

import (
	"fmt"
	"math"
	"sync"

	"github.com/bryanchriswhite/winstate/internal/window"
)

// Recorder is an in-memory backend. It keeps every applied command and
// simulates how a window manager would react to it on a single monitor.
type Recorder struct {
	mu sync.Mutex

	monitorWidth  uint32
	monitorHeight uint32
	scaleFactor   float64

	physicalWidth  uint32
	physicalHeight uint32
	// restore is the windowed size to return to after fullscreen or maximize.
	restore   [2]uint32
	mode      window.Mode
	maximized bool
	cursor    *window.Vec2

	applied []window.Command
	failOn  map[string]error
}

var _ Backend = (*Recorder)(nil)

// NewRecorder creates a recorder simulating a monitor of the given physical
// size and scale factor.
func NewRecorder(monitorWidth, monitorHeight uint32, scaleFactor float64) *Recorder {
	if scaleFactor <= 0 {
		scaleFactor = 1
	}
	return &Recorder{
		monitorWidth:  monitorWidth,
		monitorHeight: monitorHeight,
		scaleFactor:   scaleFactor,
		failOn:        make(map[string]error),
	}
}

// Name returns the backend name
func (r *Recorder) Name() string {
	return "recorder"
}

// Open sizes the simulated window from the descriptor.
func (r *Recorder) Open(desc window.Descriptor) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.physicalWidth, r.physicalHeight = r.fit(desc.Width, desc.Height)
	r.restore = [2]uint32{r.physicalWidth, r.physicalHeight}
	r.mode = window.Windowed()
	if desc.Mode.IsFullscreen() {
		r.enterMode(desc.Mode, r.restore)
	}
	return r.reportLocked(), nil
}

// Apply records cmd and simulates its effect.
func (r *Recorder) Apply(cmd window.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.failOn[cmd.Kind()]; ok {
		return err
	}
	r.applied = append(r.applied, cmd)

	switch c := cmd.(type) {
	case window.SetResolution:
		w, h := r.fit(c.Width, c.Height)
		r.restore = [2]uint32{w, h}
		if !r.mode.IsFullscreen() && !r.maximized {
			r.physicalWidth, r.physicalHeight = w, h
		}
	case window.SetWindowMode:
		r.enterMode(c.Mode, c.Resolution)
	case window.SetMaximized:
		if r.mode.IsFullscreen() || c.Maximized == r.maximized {
			break
		}
		r.maximized = c.Maximized
		if c.Maximized {
			r.restore = [2]uint32{r.physicalWidth, r.physicalHeight}
			r.physicalWidth, r.physicalHeight = r.monitorWidth, r.monitorHeight
		} else {
			r.physicalWidth, r.physicalHeight = r.restore[0], r.restore[1]
		}
	case window.SetCursorPosition:
		p := r.clampCursor(c.Position)
		r.cursor = &p
	}
	return nil
}

// Poll reports the simulated window.
func (r *Recorder) Poll() (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reportLocked(), nil
}

// Close is a no-op
func (r *Recorder) Close() error {
	return nil
}

// Applied returns a copy of every command applied so far
func (r *Recorder) Applied() []window.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]window.Command, len(r.applied))
	copy(out, r.applied)
	return out
}

// FailOn makes Apply return err for every command of the given kind.
func (r *Recorder) FailOn(kind string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failOn, kind)
		return
	}
	r.failOn[kind] = err
}

// SimulateResize behaves like the user dragging the window edge.
func (r *Recorder) SimulateResize(physicalWidth, physicalHeight uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.physicalWidth, r.physicalHeight = physicalWidth, physicalHeight
}

// SimulateScaleFactor behaves like moving the window to another monitor.
func (r *Recorder) SimulateScaleFactor(scaleFactor float64) error {
	if scaleFactor <= 0 {
		return fmt.Errorf("scale factor must be positive, got %v", scaleFactor)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scaleFactor = scaleFactor
	return nil
}

// SimulateCursor moves the pointer; nil moves it off the window.
func (r *Recorder) SimulateCursor(pos *window.Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pos == nil {
		r.cursor = nil
		return
	}
	p := *pos
	r.cursor = &p
}

func (r *Recorder) enterMode(mode window.Mode, resolution [2]uint32) {
	switch {
	case !mode.IsFullscreen():
		if r.mode.IsFullscreen() {
			r.physicalWidth, r.physicalHeight = r.restore[0], r.restore[1]
		}
	case mode.Kind == window.ModeFullscreen && mode.UseSize:
		if !r.mode.IsFullscreen() {
			r.restore = [2]uint32{r.physicalWidth, r.physicalHeight}
		}
		r.physicalWidth = min(resolution[0], r.monitorWidth)
		r.physicalHeight = min(resolution[1], r.monitorHeight)
	default:
		if !r.mode.IsFullscreen() {
			r.restore = [2]uint32{r.physicalWidth, r.physicalHeight}
		}
		r.physicalWidth, r.physicalHeight = r.monitorWidth, r.monitorHeight
	}
	r.mode = mode
	r.maximized = false
}

// fit converts a logical size to physical pixels clamped to the monitor.
func (r *Recorder) fit(width, height float32) (uint32, uint32) {
	return toPhysical(width, r.scaleFactor, r.monitorWidth), toPhysical(height, r.scaleFactor, r.monitorHeight)
}

func (r *Recorder) clampCursor(p window.Vec2) window.Vec2 {
	maxX := float32(float64(r.physicalWidth) / r.scaleFactor)
	maxY := float32(float64(r.physicalHeight) / r.scaleFactor)
	return window.Vec2{
		X: max(0, min(p.X, maxX)),
		Y: max(0, min(p.Y, maxY)),
	}
}

func (r *Recorder) reportLocked() Report {
	rep := Report{
		PhysicalWidth:  r.physicalWidth,
		PhysicalHeight: r.physicalHeight,
		ScaleFactor:    r.scaleFactor,
	}
	if r.cursor != nil {
		p := *r.cursor
		rep.Cursor = &p
	}
	return rep
}

// toPhysical scales a logical length and clamps it to [1, limit].
func toPhysical(logical float32, scaleFactor float64, limit uint32) uint32 {
	v := math.Round(float64(logical) * scaleFactor)
	if v < 1 || math.IsNaN(v) {
		return 1
	}
	if limit > 0 && v > float64(limit) {
		return limit
	}
	return uint32(v)
}
