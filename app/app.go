// SPDX-License-Identifier: Unlicense OR MIT

// Package app is the embedder surface of the Wawona core: the platform
// shell creates a Compositor, pumps ProcessEvents from its run loop,
// feeds input in, and pops window events and buffers out. The call
// shapes mirror the C API so a thin FFI shim stays mechanical.
package app

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/bus"
	"github.com/ojehle/wawona/internal/comp"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/io/event"
	"github.com/ojehle/wawona/io/input"
)

// DefaultSocket is the socket name used when the embedder passes none.
const DefaultSocket = "wayland-0"

// Config carries startup parameters from the embedder.
type Config struct {
	SocketName string

	OutputWidth  uint32
	OutputHeight uint32
	RefreshMHz   uint32
	Scale        float64

	Features comp.Features
}

// Compositor is one core instance. All protocol work happens inside
// ProcessEvents on the calling thread; the Inject and Pop families are
// safe from any thread via the event bus.
type Compositor struct {
	mu      sync.Mutex
	cfg     Config
	running bool

	display *wl.Display
	state   *comp.State
	bus     *bus.Bus

	socketPath string

	buffers []BufferData
}

// New creates a stopped compositor.
func New(cfg Config) *Compositor {
	if cfg.SocketName == "" {
		cfg.SocketName = DefaultSocket
	}
	if cfg.OutputWidth == 0 {
		cfg.OutputWidth = 1280
	}
	if cfg.OutputHeight == 0 {
		cfg.OutputHeight = 720
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	if cfg.RefreshMHz == 0 {
		cfg.RefreshMHz = 60000
	}
	return &Compositor{cfg: cfg, bus: bus.New()}
}

// Start binds the socket and advertises the globals. Startup failures
// go back to the embedder; they are never client-visible.
func (c *Compositor) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	dir, err := wl.RuntimeDir()
	if err != nil {
		return errors.Wrap(err, "app: runtime dir")
	}
	display := wl.NewDisplay(dir)
	path, err := display.Listen(c.cfg.SocketName)
	if err != nil {
		return errors.Wrap(err, "app: bind socket")
	}

	state := comp.New(display, c.cfg.Features)
	state.AddOutput(&comp.Output{
		ID:         1,
		Width:      int32(c.cfg.OutputWidth),
		Height:     int32(c.cfg.OutputHeight),
		RefreshMHz: int32(c.cfg.RefreshMHz),
		Scale:      c.cfg.Scale,
	})
	state.RegisterGlobals(display)
	display.OnDisconnect = func(cl *wl.Client) {
		state.ClientDisconnected(cl.ID())
	}

	c.display = display
	c.state = state
	c.socketPath = path
	c.running = true
	log.Info().Str("socket", path).Msg("compositor started")
	return nil
}

// Stop tears the display down and removes the socket files.
func (c *Compositor) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.display.Close()
	c.running = false
	log.Info().Msg("compositor stopped")
}

// IsRunning reports lifecycle state.
func (c *Compositor) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SocketPath is the bound primary socket path.
func (c *Compositor) SocketPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketPath
}

// AddSocket binds an additional unix socket for nested clients.
func (c *Compositor) AddSocket(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errors.New("app: not running")
	}
	_, err := c.display.Listen(name)
	return err
}

// State exposes the core state to in-process embedders and tests.
func (c *Compositor) State() *comp.State { return c.state }

// Bus exposes the event queues to in-process embedders and tests.
func (c *Compositor) Bus() *bus.Bus { return c.bus }

// PopWindowEvent takes the next compositor-to-platform event.
func (c *Compositor) PopWindowEvent() (event.Event, bool) {
	return c.bus.PopEvent()
}

// NotifyFramePresented tells the core a frame hit the screen; queued
// buffer releases flush on the next tick.
func (c *Compositor) NotifyFramePresented(surface uint32, buffer uint64, timestampNS, refreshNS, sequence uint64) {
	c.bus.Inject(input.FramePresented{
		Surface:     surface,
		Buffer:      buffer,
		TimestampNS: timestampNS,
		RefreshNS:   refreshNS,
		Sequence:    sequence,
	})
}

// SetOutputSize reconfigures the primary output.
func (c *Compositor) SetOutputSize(width, height uint32, scale float64) {
	c.bus.Inject(input.OutputConfigured{
		Width:      width,
		Height:     height,
		RefreshMHz: c.cfg.RefreshMHz,
		Scale:      scale,
	})
}

// InjectPointerMotion queues absolute pointer motion.
func (c *Compositor) InjectPointerMotion(x, y float64, timeMS uint32) {
	c.bus.Inject(input.PointerMotion{X: x, Y: y, Time: timeMS})
}

// InjectPointerButton queues a button event; codes follow evdev.
func (c *Compositor) InjectPointerButton(button uint32, pressed bool, timeMS uint32) {
	s := input.Released
	if pressed {
		s = input.Pressed
	}
	c.bus.Inject(input.PointerButton{Button: button, State: s, Time: timeMS})
}

// InjectPointerAxis queues scroll deltas.
func (c *Compositor) InjectPointerAxis(horizontal, vertical float64, timeMS uint32) {
	c.bus.Inject(input.PointerAxis{Horizontal: horizontal, Vertical: vertical, Time: timeMS})
}

// InjectKey queues a key event.
func (c *Compositor) InjectKey(code uint32, pressed bool, timeMS uint32) {
	s := input.Released
	if pressed {
		s = input.Pressed
	}
	c.bus.Inject(input.KeyboardKey{Code: code, State: s, Time: timeMS})
}

// InjectModifiers queues a modifier sync.
func (c *Compositor) InjectModifiers(depressed, latched, locked, group uint32) {
	c.bus.Inject(input.KeyboardModifiers{Depressed: depressed, Latched: latched, Locked: locked, Group: group})
}

// InjectTouchDown queues a touch contact.
func (c *Compositor) InjectTouchDown(id int32, x, y float64, timeMS uint32) {
	c.bus.Inject(input.TouchDown{ID: id, X: x, Y: y, Time: timeMS})
}

// InjectTouchUp queues a contact end.
func (c *Compositor) InjectTouchUp(id int32, timeMS uint32) {
	c.bus.Inject(input.TouchUp{ID: id, Time: timeMS})
}

// InjectTouchMotion queues contact motion.
func (c *Compositor) InjectTouchMotion(id int32, x, y float64, timeMS uint32) {
	c.bus.Inject(input.TouchMotion{ID: id, X: x, Y: y, Time: timeMS})
}

// InjectTouchFrame closes the touch event group.
func (c *Compositor) InjectTouchFrame() {
	c.bus.Inject(input.TouchFrame{})
}

// InjectTouchCancel aborts all contacts.
func (c *Compositor) InjectTouchCancel() {
	c.bus.Inject(input.TouchCancel{})
}
