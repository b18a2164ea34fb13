package window

import (
	"math"
	"reflect"
	"testing"
)

func newTestState(physW, physH uint32, scale float64) *State {
	return New(NewIdentity(), DefaultDescriptor(), physW, physH, scale)
}

func TestNewCopiesDescriptor(t *testing.T) {
	desc := Descriptor{
		Width:         1280,
		Height:        720,
		Title:         "bevy",
		Vsync:         true,
		Resizable:     false,
		Decorations:   true,
		CursorVisible: false,
		CursorLocked:  true,
		Mode:          Windowed(),
	}
	id := NewIdentity()
	s := New(id, desc, 1280, 720, 1.0)

	if s.ID() != id {
		t.Errorf("expected id %s, got %s", id, s.ID())
	}
	if s.Width() != 1280 || s.Height() != 720 {
		t.Errorf("expected logical 1280x720, got %vx%v", s.Width(), s.Height())
	}
	if s.RequestedWidth() != 1280 || s.RequestedHeight() != 720 {
		t.Errorf("expected requested 1280x720, got %vx%v", s.RequestedWidth(), s.RequestedHeight())
	}
	if s.Title() != "bevy" || !s.Vsync() || s.Resizable() || !s.Decorations() {
		t.Errorf("unexpected properties: title=%q vsync=%v resizable=%v decorations=%v",
			s.Title(), s.Vsync(), s.Resizable(), s.Decorations())
	}
	if s.CursorVisible() || !s.CursorLocked() {
		t.Errorf("unexpected cursor flags: visible=%v locked=%v", s.CursorVisible(), s.CursorLocked())
	}
	if s.Mode() != Windowed() {
		t.Errorf("expected windowed, got %v", s.Mode())
	}
	if _, ok := s.CursorPosition(); ok {
		t.Error("expected no cursor position before a backend report")
	}
	if s.PendingCommands() != 0 {
		t.Errorf("expected empty queue, got %d", s.PendingCommands())
	}
}

func TestLogicalSizeFollowsScaleFactor(t *testing.T) {
	tests := []struct {
		physW, physH uint32
		scale        float64
	}{
		{1280, 720, 1.0},
		{2560, 1440, 2.0},
		{1920, 1080, 1.5},
		{3000, 2000, 1.25},
		{4294967295, 4294967295, 3.0},
		{7, 3, 0.3},
	}
	for _, tt := range tests {
		s := newTestState(tt.physW, tt.physH, tt.scale)
		wantW := float64(tt.physW) / tt.scale
		wantH := float64(tt.physH) / tt.scale
		if !closeTo(float64(s.Width()), wantW) || !closeTo(float64(s.Height()), wantH) {
			t.Errorf("physical %dx%d scale %v: expected %vx%v, got %vx%v",
				tt.physW, tt.physH, tt.scale, wantW, wantH, s.Width(), s.Height())
		}
	}
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) <= math.Abs(want)*1e-6
}

func TestBackendReportsUpdateWithoutQueueing(t *testing.T) {
	s := newTestState(1280, 720, 1.0)

	s.UpdateScaleFactorFromBackend(2.0)
	s.UpdateActualSizeFromBackend(2560, 1440)
	s.UpdateCursorPositionFromBackend(&Vec2{X: 10, Y: 20})

	if s.ScaleFactor() != 2.0 {
		t.Errorf("expected scale 2, got %v", s.ScaleFactor())
	}
	if s.PhysicalWidth() != 2560 || s.PhysicalHeight() != 1440 {
		t.Errorf("expected physical 2560x1440, got %dx%d", s.PhysicalWidth(), s.PhysicalHeight())
	}
	if s.Width() != 1280 || s.Height() != 720 {
		t.Errorf("expected logical 1280x720, got %vx%v", s.Width(), s.Height())
	}
	pos, ok := s.CursorPosition()
	if !ok || pos != (Vec2{X: 10, Y: 20}) {
		t.Errorf("expected cursor (10,20), got %v ok=%v", pos, ok)
	}
	if s.PendingCommands() != 0 {
		t.Errorf("backend reports must not queue commands, got %d", s.PendingCommands())
	}

	s.UpdateCursorPositionFromBackend(nil)
	if _, ok := s.CursorPosition(); ok {
		t.Error("expected cursor position cleared")
	}
}

func TestCursorPositionReportIsCopied(t *testing.T) {
	s := newTestState(100, 100, 1.0)
	p := Vec2{X: 1, Y: 2}
	s.UpdateCursorPositionFromBackend(&p)
	p.X = 99

	got, _ := s.CursorPosition()
	if got.X != 1 {
		t.Errorf("expected stored position to be independent of caller, got %v", got)
	}
}

func TestMutatorsQueueCommandsInOrder(t *testing.T) {
	s := newTestState(1920, 1080, 1.0)

	s.SetResolution(800, 600)
	s.SetTitle("Game")
	s.SetVsync(false)
	s.SetResizable(false)
	s.SetDecorations(false)
	s.SetCursorLockMode(true)
	s.SetCursorVisibility(false)
	s.SetCursorPosition(Vec2{X: 5, Y: 6})
	s.SetMode(BorderlessFullscreen())
	s.SetMaximized(true)
	s.SetTitle("Game")

	want := []Command{
		SetResolution{Width: 800, Height: 600},
		SetTitle{Title: "Game"},
		SetVsync{Vsync: false},
		SetResizable{Resizable: false},
		SetDecorations{Decorations: false},
		SetCursorLockMode{Locked: true},
		SetCursorVisibility{Visible: false},
		SetCursorPosition{Position: Vec2{X: 5, Y: 6}},
		SetWindowMode{Mode: BorderlessFullscreen(), Resolution: [2]uint32{1920, 1080}},
		SetMaximized{Maximized: true},
		SetTitle{Title: "Game"},
	}

	if s.PendingCommands() != len(want) {
		t.Fatalf("expected %d pending, got %d", len(want), s.PendingCommands())
	}
	got := s.DrainCommands()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected commands:\n got  %#v\n want %#v", got, want)
	}
}

func TestMutatorsUpdateStateImmediately(t *testing.T) {
	s := newTestState(1280, 720, 1.0)

	s.SetResolution(640, 480)
	s.SetTitle("Game")
	s.SetVsync(false)
	s.SetResizable(false)
	s.SetDecorations(false)
	s.SetCursorLockMode(true)
	s.SetCursorVisibility(false)
	s.SetMode(Fullscreen(false))

	if s.RequestedWidth() != 640 || s.RequestedHeight() != 480 {
		t.Errorf("expected requested 640x480, got %vx%v", s.RequestedWidth(), s.RequestedHeight())
	}
	if s.Width() != 1280 {
		t.Errorf("logical size must only change on backend report, got %v", s.Width())
	}
	if s.Title() != "Game" || s.Vsync() || s.Resizable() || s.Decorations() {
		t.Errorf("unexpected properties after mutation")
	}
	if !s.CursorLocked() || s.CursorVisible() {
		t.Errorf("unexpected cursor flags after mutation")
	}
	if s.Mode() != Fullscreen(false) {
		t.Errorf("expected fullscreen, got %v", s.Mode())
	}
}

func TestTitleAndVsyncScenario(t *testing.T) {
	s := newTestState(1280, 720, 1.0)
	s.SetTitle("Game")
	s.SetVsync(false)

	got := s.DrainCommands()
	want := []Command{SetTitle{Title: "Game"}, SetVsync{Vsync: false}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
	if s.Title() != "Game" || s.Vsync() {
		t.Errorf("expected title Game and vsync off, got %q %v", s.Title(), s.Vsync())
	}
}

func TestSetModeUsesPhysicalSize(t *testing.T) {
	s := New(NewIdentity(), DefaultDescriptor(), 1920, 1080, 2.0)
	s.SetMode(Fullscreen(true))

	got := s.DrainCommands()
	want := []Command{SetWindowMode{Mode: Fullscreen(true), Resolution: [2]uint32{1920, 1080}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestSetCursorPositionWaitsForBackend(t *testing.T) {
	s := newTestState(800, 600, 1.0)
	s.SetCursorPosition(Vec2{X: 100, Y: 200})

	if _, ok := s.CursorPosition(); ok {
		t.Fatal("cursor position must not change before the backend reports it")
	}
	cmds := s.DrainCommands()
	if len(cmds) != 1 || cmds[0] != (SetCursorPosition{Position: Vec2{X: 100, Y: 200}}) {
		t.Fatalf("unexpected commands %#v", cmds)
	}

	s.UpdateCursorPositionFromBackend(&Vec2{X: 100, Y: 200})
	if pos, ok := s.CursorPosition(); !ok || pos != (Vec2{X: 100, Y: 200}) {
		t.Errorf("expected reported position, got %v ok=%v", pos, ok)
	}
}

func TestSetMaximizedOnlyQueues(t *testing.T) {
	s := newTestState(800, 600, 1.0)
	before := s.Snapshot()
	s.SetMaximized(true)
	after := s.Snapshot()

	before.Pending, after.Pending = 0, 0
	if before != after {
		t.Errorf("SetMaximized must not change stored properties")
	}
	if cmds := s.DrainCommands(); len(cmds) != 1 || cmds[0] != (SetMaximized{Maximized: true}) {
		t.Fatalf("unexpected commands %#v", cmds)
	}
}

func TestDrainCommandsEmptiesQueue(t *testing.T) {
	s := newTestState(800, 600, 1.0)
	if cmds := s.DrainCommands(); len(cmds) != 0 {
		t.Fatalf("expected empty drain on new state, got %d", len(cmds))
	}

	s.SetVsync(false)
	if cmds := s.DrainCommands(); len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds := s.DrainCommands(); len(cmds) != 0 {
		t.Fatalf("expected empty second drain, got %d", len(cmds))
	}

	s.SetVsync(true)
	cmds := s.DrainCommands()
	if len(cmds) != 1 || cmds[0] != (SetVsync{Vsync: true}) {
		t.Fatalf("expected only the new command, got %#v", cmds)
	}
}

func TestDrainedSliceIsNotReused(t *testing.T) {
	s := newTestState(800, 600, 1.0)
	s.SetTitle("a")
	first := s.DrainCommands()
	s.SetTitle("b")

	if first[0] != (SetTitle{Title: "a"}) {
		t.Errorf("drained commands changed after new mutation: %#v", first)
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestState(2560, 1440, 2.0)
	s.SetTitle("snap")
	s.UpdateCursorPositionFromBackend(&Vec2{X: 3, Y: 4})

	v := s.Snapshot()
	if v.ID != s.ID() || v.Title != "snap" || v.Width != 1280 || v.PhysicalWidth != 2560 {
		t.Errorf("unexpected snapshot %+v", v)
	}
	if v.CursorPosition == nil || *v.CursorPosition != (Vec2{X: 3, Y: 4}) {
		t.Errorf("unexpected cursor position %v", v.CursorPosition)
	}
	if v.Pending != 1 {
		t.Errorf("expected 1 pending, got %d", v.Pending)
	}
	if s.PendingCommands() != 1 {
		t.Errorf("Snapshot must not drain the queue")
	}
}

func TestDispatchMatchesDirectCalls(t *testing.T) {
	cmds := []Command{
		SetResolution{Width: 1, Height: 2},
		SetTitle{Title: "x"},
		SetVsync{Vsync: false},
		SetResizable{Resizable: false},
		SetDecorations{Decorations: false},
		SetCursorLockMode{Locked: true},
		SetCursorVisibility{Visible: false},
		SetCursorPosition{Position: Vec2{X: 1, Y: 1}},
		SetMaximized{Maximized: true},
		SetWindowMode{Mode: Fullscreen(true), Resolution: [2]uint32{1, 1}},
	}

	s := newTestState(640, 480, 1.0)
	for _, c := range cmds {
		Dispatch(s, c)
	}
	got := s.DrainCommands()
	if len(got) != len(cmds) {
		t.Fatalf("expected %d commands, got %d", len(cmds), len(got))
	}
	// The mode resolution hint comes from the state, not the input.
	last := got[len(got)-1].(SetWindowMode)
	if last.Resolution != [2]uint32{640, 480} {
		t.Errorf("expected resolution from physical size, got %v", last.Resolution)
	}
	if !reflect.DeepEqual(got[:len(got)-1], cmds[:len(cmds)-1]) {
		t.Errorf("unexpected commands %#v", got)
	}
	if s.Title() != "x" || s.Mode() != Fullscreen(true) {
		t.Errorf("dispatch did not update state")
	}
}

func TestApplyDescriptorQueuesOnlyDifferences(t *testing.T) {
	s := newTestState(1280, 720, 1.0)
	prev := DefaultDescriptor()
	next := prev
	next.Title = "reloaded"
	next.Mode = BorderlessFullscreen()

	if n := ApplyDescriptor(s, prev, next); n != 2 {
		t.Fatalf("expected 2 mutations, got %d", n)
	}
	want := []Command{
		SetTitle{Title: "reloaded"},
		SetWindowMode{Mode: BorderlessFullscreen(), Resolution: [2]uint32{1280, 720}},
	}
	if got := s.DrainCommands(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}

	if n := ApplyDescriptor(s, next, next); n != 0 {
		t.Errorf("expected no mutations for identical descriptors, got %d", n)
	}
}
