package backend

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/bryanchriswhite/winstate/internal/logger"
	"github.com/bryanchriswhite/winstate/internal/window"
	"github.com/rs/zerolog"
)

// _NET_WM_STATE client message actions
const (
	netWmStateRemove = 0
	netWmStateAdd    = 1
)

// X11 drives an existing X11 window through EWMH/ICCCM requests.
type X11 struct {
	xu  *xgbutil.XUtil
	win xproto.Window
	log *zerolog.Logger

	mu          sync.Mutex
	scaleFactor float64
	resizable   bool
	xfixesReady bool
}

var _ Backend = (*X11)(nil)

// NewX11 connects to $DISPLAY and targets the window with the given id
// (decimal or 0x-prefixed hex, as printed by xwininfo).
func NewX11(windowID string) (*X11, error) {
	win, err := ParseX11Window(windowID)
	if err != nil {
		return nil, err
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	if _, err := xproto.GetGeometry(xu.Conn(), xproto.Drawable(win)).Reply(); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("window 0x%x not found: %w", uint32(win), err)
	}

	return &X11{
		xu:          xu,
		win:         win,
		log:         logger.WithComponent("x11-backend"),
		scaleFactor: 1,
		resizable:   true,
	}, nil
}

// ParseX11Window parses an X11 window id.
func ParseX11Window(s string) (xproto.Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("x11 window id is empty")
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid x11 window id %q: %w", s, err)
	}
	if id == 0 {
		return 0, errors.New("x11 window id must not be zero")
	}
	return xproto.Window(id), nil
}

// Name returns the backend name
func (b *X11) Name() string {
	return "x11"
}

func (b *X11) conn() *xgb.Conn {
	return b.xu.Conn()
}

// Open brings the existing window in line with desc and reports its size.
func (b *X11) Open(desc window.Descriptor) (Report, error) {
	b.mu.Lock()
	b.scaleFactor = ScaleFromScreen(b.xu.Screen().WidthInPixels, b.xu.Screen().WidthInMillimeters)
	b.mu.Unlock()

	initial := []window.Command{
		window.SetTitle{Title: desc.Title},
		window.SetResolution{Width: desc.Width, Height: desc.Height},
		window.SetResizable{Resizable: desc.Resizable},
		window.SetDecorations{Decorations: desc.Decorations},
		window.SetCursorVisibility{Visible: desc.CursorVisible},
		window.SetCursorLockMode{Locked: desc.CursorLocked},
	}
	if desc.Mode.IsFullscreen() {
		initial = append(initial, window.SetWindowMode{Mode: desc.Mode})
	}
	for _, cmd := range initial {
		if err := b.Apply(cmd); err != nil {
			b.log.Warn().Err(err).Str("command", cmd.Kind()).Msg("Failed to apply initial property")
		}
	}

	return b.Poll()
}

// Apply sends the X11 requests for one command.
func (b *X11) Apply(cmd window.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch c := cmd.(type) {
	case window.SetTitle:
		if err := ewmh.WmNameSet(b.xu, b.win, c.Title); err != nil {
			return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
		}
		return icccm.WmNameSet(b.xu, b.win, c.Title)
	case window.SetResolution:
		w := toPhysical(c.Width, b.scaleFactor, 0)
		h := toPhysical(c.Height, b.scaleFactor, 0)
		if !b.resizable {
			if err := b.pinSize(w, h); err != nil {
				return err
			}
		}
		return b.resize(w, h)
	case window.SetResizable:
		b.resizable = c.Resizable
		geom, err := xproto.GetGeometry(b.conn(), xproto.Drawable(b.win)).Reply()
		if err != nil {
			return fmt.Errorf("failed to get geometry: %w", err)
		}
		if c.Resizable {
			return b.unpinSize()
		}
		return b.pinSize(uint32(geom.Width), uint32(geom.Height))
	case window.SetDecorations:
		hints := &motif.Hints{Flags: motif.HintDecorations, Decoration: motif.DecorationNone}
		if c.Decorations {
			hints.Decoration = motif.DecorationAll
		}
		return motif.WmHintsSet(b.xu, b.win, hints)
	case window.SetWindowMode:
		return b.setMode(c)
	case window.SetMaximized:
		action := netWmStateRemove
		if c.Maximized {
			action = netWmStateAdd
		}
		if err := ewmh.WmStateReq(b.xu, b.win, action, "_NET_WM_STATE_MAXIMIZED_VERT"); err != nil {
			return err
		}
		return ewmh.WmStateReq(b.xu, b.win, action, "_NET_WM_STATE_MAXIMIZED_HORZ")
	case window.SetCursorPosition:
		x := int16(math.Round(float64(c.Position.X) * b.scaleFactor))
		y := int16(math.Round(float64(c.Position.Y) * b.scaleFactor))
		return xproto.WarpPointerChecked(b.conn(), xproto.WindowNone, b.win, 0, 0, 0, 0, x, y).Check()
	case window.SetCursorLockMode:
		return b.setCursorLock(c.Locked)
	case window.SetCursorVisibility:
		return b.setCursorVisible(c.Visible)
	case window.SetVsync:
		// Swap interval belongs to the GL context, not the X11 window.
		b.log.Debug().Bool("vsync", c.Vsync).Msg("Vsync has no X11 window effect")
		return nil
	}
	return fmt.Errorf("unsupported command %s", cmd.Kind())
}

func (b *X11) resize(w, h uint32) error {
	return xproto.ConfigureWindowChecked(
		b.conn(),
		b.win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{w, h},
	).Check()
}

// pinSize sets min and max size hints to w x h so the WM refuses resizing.
func (b *X11) pinSize(w, h uint32) error {
	hints, err := icccm.WmNormalHintsGet(b.xu, b.win)
	if err != nil {
		hints = &icccm.NormalHints{}
	}
	hints.Flags |= icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize
	hints.MinWidth, hints.MaxWidth = uint(w), uint(w)
	hints.MinHeight, hints.MaxHeight = uint(h), uint(h)
	return icccm.WmNormalHintsSet(b.xu, b.win, hints)
}

func (b *X11) unpinSize() error {
	hints, err := icccm.WmNormalHintsGet(b.xu, b.win)
	if err != nil {
		return nil
	}
	hints.Flags &^= icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize
	return icccm.WmNormalHintsSet(b.xu, b.win, hints)
}

func (b *X11) setMode(c window.SetWindowMode) error {
	if !c.Mode.IsFullscreen() {
		return ewmh.WmStateReq(b.xu, b.win, netWmStateRemove, "_NET_WM_STATE_FULLSCREEN")
	}
	if c.Mode.Kind == window.ModeFullscreen && c.Mode.UseSize && c.Resolution[0] > 0 && c.Resolution[1] > 0 {
		// Without a video mode switch the closest match is keeping the
		// window size and letting the WM center it.
		if err := b.resize(c.Resolution[0], c.Resolution[1]); err != nil {
			return err
		}
	}
	return ewmh.WmStateReq(b.xu, b.win, netWmStateAdd, "_NET_WM_STATE_FULLSCREEN")
}

func (b *X11) setCursorLock(locked bool) error {
	if !locked {
		return xproto.UngrabPointerChecked(b.conn(), xproto.TimeCurrentTime).Check()
	}
	reply, err := xproto.GrabPointer(
		b.conn(),
		true,
		b.win,
		0,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		b.win,
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return fmt.Errorf("failed to grab pointer: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("pointer grab refused (status %d)", reply.Status)
	}
	return nil
}

func (b *X11) setCursorVisible(visible bool) error {
	if !b.xfixesReady {
		if err := xfixes.Init(b.conn()); err != nil {
			return fmt.Errorf("XFIXES extension unavailable: %w", err)
		}
		if _, err := xfixes.QueryVersion(b.conn(), 4, 0).Reply(); err != nil {
			return fmt.Errorf("failed to negotiate XFIXES version: %w", err)
		}
		b.xfixesReady = true
	}
	if visible {
		return xfixes.ShowCursorChecked(b.conn(), b.win).Check()
	}
	return xfixes.HideCursorChecked(b.conn(), b.win).Check()
}

// Poll reads the window geometry, the pointer and the screen DPI.
func (b *X11) Poll() (Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	geom, err := xproto.GetGeometry(b.conn(), xproto.Drawable(b.win)).Reply()
	if err != nil {
		return Report{}, fmt.Errorf("failed to get geometry: %w", err)
	}

	screen := b.xu.Screen()
	b.scaleFactor = ScaleFromScreen(screen.WidthInPixels, screen.WidthInMillimeters)

	rep := Report{
		PhysicalWidth:  uint32(geom.Width),
		PhysicalHeight: uint32(geom.Height),
		ScaleFactor:    b.scaleFactor,
	}

	ptr, err := xproto.QueryPointer(b.conn(), b.win).Reply()
	if err != nil {
		b.log.Debug().Err(err).Msg("QueryPointer failed")
		return rep, nil
	}
	if ptr.SameScreen && ptr.WinX >= 0 && ptr.WinY >= 0 &&
		int(ptr.WinX) < int(geom.Width) && int(ptr.WinY) < int(geom.Height) {
		rep.Cursor = &window.Vec2{
			X: float32(float64(ptr.WinX) / b.scaleFactor),
			Y: float32(float64(ptr.WinY) / b.scaleFactor),
		}
	}
	return rep, nil
}

// Close releases a pointer grab and closes the X11 connection
func (b *X11) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	xproto.UngrabPointer(b.conn(), xproto.TimeCurrentTime)
	b.conn().Close()
	return nil
}

// ScaleFromScreen derives a scale factor from the screen's physical size,
// relative to 96 DPI and rounded to quarter steps. Servers that report no
// physical size get 1.
func ScaleFromScreen(widthPixels, widthMillimeters uint16) float64 {
	if widthPixels == 0 || widthMillimeters == 0 {
		return 1
	}
	dpi := float64(widthPixels) * 25.4 / float64(widthMillimeters)
	scale := math.Round(dpi/96*4) / 4
	if scale < 1 {
		return 1
	}
	return scale
}
