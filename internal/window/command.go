package window

import (
	"encoding/json"
	"fmt"
)

// Command is a pending change for the backend to apply to the OS window.
// Every application mutator on State queues exactly one Command.
type Command interface {
	// Kind names the command variant, e.g. "set_title".
	Kind() string
	command()
}

// Vec2 is a 2D coordinate in logical pixels.
type Vec2 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// SetWindowMode switches the display mode.
type SetWindowMode struct {
	Mode Mode `json:"mode"`
	// Resolution is the physical size at the time the mode was requested.
	Resolution [2]uint32 `json:"resolution"`
}

// SetTitle changes the title bar text.
type SetTitle struct {
	Title string `json:"title"`
}

// SetResolution requests a new logical size.
type SetResolution struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// SetVsync turns vertical sync on or off.
type SetVsync struct {
	Vsync bool `json:"vsync"`
}

// SetResizable controls whether the user can resize the window.
type SetResizable struct {
	Resizable bool `json:"resizable"`
}

// SetDecorations shows or hides the window frame.
type SetDecorations struct {
	Decorations bool `json:"decorations"`
}

// SetCursorLockMode grabs or releases the cursor.
type SetCursorLockMode struct {
	Locked bool `json:"locked"`
}

// SetCursorVisibility shows or hides the cursor over the window.
type SetCursorVisibility struct {
	Visible bool `json:"visible"`
}

// SetCursorPosition moves the cursor within the window.
type SetCursorPosition struct {
	Position Vec2 `json:"position"`
}

// SetMaximized maximizes or restores the window.
type SetMaximized struct {
	Maximized bool `json:"maximized"`
}

const (
	KindSetWindowMode       = "set_window_mode"
	KindSetTitle            = "set_title"
	KindSetResolution       = "set_resolution"
	KindSetVsync            = "set_vsync"
	KindSetResizable        = "set_resizable"
	KindSetDecorations      = "set_decorations"
	KindSetCursorLockMode   = "set_cursor_lock_mode"
	KindSetCursorVisibility = "set_cursor_visibility"
	KindSetCursorPosition   = "set_cursor_position"
	KindSetMaximized        = "set_maximized"
)

func (SetWindowMode) Kind() string       { return KindSetWindowMode }
func (SetTitle) Kind() string            { return KindSetTitle }
func (SetResolution) Kind() string       { return KindSetResolution }
func (SetVsync) Kind() string            { return KindSetVsync }
func (SetResizable) Kind() string        { return KindSetResizable }
func (SetDecorations) Kind() string      { return KindSetDecorations }
func (SetCursorLockMode) Kind() string   { return KindSetCursorLockMode }
func (SetCursorVisibility) Kind() string { return KindSetCursorVisibility }
func (SetCursorPosition) Kind() string   { return KindSetCursorPosition }
func (SetMaximized) Kind() string        { return KindSetMaximized }

func (SetWindowMode) command()       {}
func (SetTitle) command()            {}
func (SetResolution) command()       {}
func (SetVsync) command()            {}
func (SetResizable) command()        {}
func (SetDecorations) command()      {}
func (SetCursorLockMode) command()   {}
func (SetCursorVisibility) command() {}
func (SetCursorPosition) command()   {}
func (SetMaximized) command()        {}

// envelope is the JSON form of a command.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalCommand encodes cmd as {"kind": ..., "payload": {...}}.
func MarshalCommand(cmd Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", cmd.Kind(), err)
	}
	return json.Marshal(envelope{Kind: cmd.Kind(), Payload: payload})
}

// UnmarshalCommand decodes a command encoded by MarshalCommand.
func UnmarshalCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}

	var (
		cmd Command
		err error
	)
	switch env.Kind {
	case KindSetWindowMode:
		cmd, err = decodePayload[SetWindowMode](env.Payload)
	case KindSetTitle:
		cmd, err = decodePayload[SetTitle](env.Payload)
	case KindSetResolution:
		cmd, err = decodePayload[SetResolution](env.Payload)
	case KindSetVsync:
		cmd, err = decodePayload[SetVsync](env.Payload)
	case KindSetResizable:
		cmd, err = decodePayload[SetResizable](env.Payload)
	case KindSetDecorations:
		cmd, err = decodePayload[SetDecorations](env.Payload)
	case KindSetCursorLockMode:
		cmd, err = decodePayload[SetCursorLockMode](env.Payload)
	case KindSetCursorVisibility:
		cmd, err = decodePayload[SetCursorVisibility](env.Payload)
	case KindSetCursorPosition:
		cmd, err = decodePayload[SetCursorPosition](env.Payload)
	case KindSetMaximized:
		cmd, err = decodePayload[SetMaximized](env.Payload)
	default:
		return nil, fmt.Errorf("unknown command kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", env.Kind, err)
	}
	return cmd, nil
}

func decodePayload[T Command](raw json.RawMessage) (Command, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
