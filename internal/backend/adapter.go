package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bryanchriswhite/winstate/internal/logger"
	"github.com/bryanchriswhite/winstate/internal/window"
	"github.com/rs/zerolog"
)

// DefaultInterval is roughly one frame at 60Hz.
const DefaultInterval = 16 * time.Millisecond

// Adapter owns one window state and its backend. Application code mutates
// the state through Update; Tick hands queued commands to the backend and
// writes the backend's report back. The adapter's mutex is what serializes
// the two sides.
type Adapter struct {
	backend  Backend
	state    *window.State
	interval time.Duration
	id       window.Identity
	log      *zerolog.Logger

	mu      sync.Mutex
	applied uint64
	failed  uint64

	lmu       sync.RWMutex
	listeners []chan window.Command
	closed    bool
	stop      chan struct{}
	running   sync.WaitGroup
}

// Option configures an Adapter
type Option func(*Adapter)

// WithInterval sets how often Run ticks
func WithInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithIdentity names the window; the default is the primary window
func WithIdentity(id window.Identity) Option {
	return func(a *Adapter) {
		a.id = id
	}
}

// NewAdapter opens the backend and creates the window state from desc and
// the size the backend reports.
func NewAdapter(b Backend, desc window.Descriptor, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		backend:  b,
		interval: DefaultInterval,
		id:       window.Primary(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logger.WithWindow("adapter", a.id)

	report, err := b.Open(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", b.Name(), err)
	}

	a.state = window.New(a.id, desc, report.PhysicalWidth, report.PhysicalHeight, report.ScaleFactor)
	a.state.UpdateCursorPositionFromBackend(report.Cursor)

	a.log.Info().
		Str("backend", b.Name()).
		Uint32("physical_width", report.PhysicalWidth).
		Uint32("physical_height", report.PhysicalHeight).
		Float64("scale_factor", report.ScaleFactor).
		Msg("Window opened")

	return a, nil
}

// ID returns the identity of the managed window
func (a *Adapter) ID() window.Identity {
	return a.id
}

// Update runs fn with exclusive access to the window state.
func (a *Adapter) Update(fn func(s *window.State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.state)
}

// Snapshot returns a copy of the window's readable properties
func (a *Adapter) Snapshot() window.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Snapshot()
}

// Stats returns how many commands were applied and how many failed
func (a *Adapter) Stats() (applied, failed uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applied, a.failed
}

// Tick drains the command queue into the backend, then polls the backend
// and writes the report back into the state.
func (a *Adapter) Tick() error {
	a.mu.Lock()

	cmds := a.state.DrainCommands()
	delivered := make([]window.Command, 0, len(cmds))
	for _, cmd := range cmds {
		if err := a.backend.Apply(cmd); err != nil {
			a.failed++
			a.log.Warn().Err(err).Str("command", cmd.Kind()).Msg("Backend failed to apply command")
			continue
		}
		a.applied++
		delivered = append(delivered, cmd)
		a.log.Debug().Str("command", cmd.Kind()).Msg("Applied command")
	}

	report, err := a.backend.Poll()
	if err == nil {
		writeBack(a.state, report)
	}

	a.mu.Unlock()

	for _, cmd := range delivered {
		a.notifyListeners(cmd)
	}

	if err != nil {
		return fmt.Errorf("failed to poll %s backend: %w", a.backend.Name(), err)
	}
	return nil
}

// Run ticks until ctx is done or the adapter is closed. Tick errors are
// logged and do not stop the loop.
func (a *Adapter) Run(ctx context.Context) {
	a.lmu.Lock()
	if a.closed {
		a.lmu.Unlock()
		return
	}
	a.running.Add(1)
	a.lmu.Unlock()
	defer a.running.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stop:
			return
		case <-ticker.C:
			if err := a.Tick(); err != nil {
				a.log.Error().Err(err).Msg("Tick failed")
			}
		}
	}
}

// Close stops Run, waits for an in-flight tick, then closes every
// subscriber channel and the backend. Later calls are no-ops.
func (a *Adapter) Close() error {
	a.lmu.Lock()
	if a.closed {
		a.lmu.Unlock()
		return nil
	}
	a.closed = true
	close(a.stop)
	for _, ch := range a.listeners {
		close(ch)
	}
	a.listeners = nil
	a.lmu.Unlock()

	a.running.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.backend.Close()
}

// Subscribe adds a listener for applied commands. After Close the
// returned channel is already closed.
func (a *Adapter) Subscribe() chan window.Command {
	ch := make(chan window.Command, 64)
	a.lmu.Lock()
	defer a.lmu.Unlock()

	if a.closed {
		close(ch)
		return ch
	}
	a.listeners = append(a.listeners, ch)
	return ch
}

// Unsubscribe removes a listener
func (a *Adapter) Unsubscribe(ch chan window.Command) {
	a.lmu.Lock()
	defer a.lmu.Unlock()

	for i, listener := range a.listeners {
		if listener == ch {
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// notifyListeners sends cmd to every listener, skipping full channels
func (a *Adapter) notifyListeners(cmd window.Command) {
	a.lmu.RLock()
	defer a.lmu.RUnlock()

	for _, listener := range a.listeners {
		select {
		case listener <- cmd:
		default:
		}
	}
}
