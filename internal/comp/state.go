// SPDX-License-Identifier: Unlicense OR MIT

// Package comp implements the compositor core: the single authoritative
// state record, the surface/window/scene machinery, input routing, and
// a dispatcher per supported Wayland interface.
//
// All mutation happens on the tick goroutine; the platform talks to the
// core exclusively through the event bus.
package comp

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/scene"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/internal/xkb"
	"github.com/ojehle/wawona/io/event"
)

// Features gates globals that only make sense on desktop-class
// platforms or behind explicit user opt-in.
type Features struct {
	// Desktop enables screen capture, gamma and output management
	// globals; sandboxed platforms hide them.
	Desktop bool
	// FullscreenShell advertises zwp_fullscreen_shell_v1.
	FullscreenShell bool
}

type bufferKey struct {
	client uint64
	id     uint32
}

type xdgKey struct {
	client uint64
	id     uint32
}

type popupGrab struct {
	client uint64
	popup  uint32 // xdg_popup protocol id
}

// Focus tracks window-level focus plus an LRU history used to pick the
// next focus when a window dies.
type Focus struct {
	Keyboard uint32 // window id, 0 = none
	Pointer  uint32
	History  []uint32
	// Grabbed pins pointer focus to the surface of first press while
	// any button is down.
	Grabbed uint32 // surface id
}

const focusHistoryCap = 10

// SetKeyboard moves keyboard focus, pushing the old focus onto the
// history.
func (f *Focus) SetKeyboard(window uint32) {
	if prev := f.Keyboard; prev != 0 && prev != window {
		hist := make([]uint32, 0, len(f.History)+1)
		hist = append(hist, prev)
		for _, id := range f.History {
			if id != prev {
				hist = append(hist, id)
			}
		}
		if len(hist) > focusHistoryCap {
			hist = hist[:focusHistoryCap]
		}
		f.History = hist
	}
	f.Keyboard = window
}

func (f *Focus) forget(window uint32) {
	out := f.History[:0]
	for _, id := range f.History {
		if id != window {
			out = append(out, id)
		}
	}
	f.History = out
}

// State is the single authoritative compositor state. It is mutated
// only from the tick goroutine; see the concurrency notes on Package
// comp.
type State struct {
	Display  *wl.Display // nil when driven state-only in tests
	Features Features

	now func() time.Time

	serial        uint32
	nextSurfaceID uint32
	nextWindowID  uint32
	nextBufferID  uint32
	nextNodeID    uint32

	surfaces map[uint32]*Surface
	buffers  map[bufferKey]*Buffer

	windows         map[uint32]*Window
	stacking        []uint32 // back to front
	surfaceToWindow map[uint32]uint32
	focus           Focus

	subsurfaces        map[uint32]*Subsurface
	subsurfaceChildren map[uint32][]uint32

	outputs       []*Output
	primaryOutput int

	layerSurfaces map[uint32]*LayerSurface // keyed by surface id

	xdg xdgState

	seat       Seat
	popupGrabs []popupGrab

	selection    *SelectionSource
	devices      []*DataDevice
	drag         *Drag
	dropPending  *Drag
	toplevelDrag *toplevelDragAttachment

	dataControls []*DataDevice

	pendingReleases []bufferKey
	pendingEvents   []event.Event

	scene      *scene.Scene
	sceneDirty bool

	presentation presentationState
	idle         idleState

	// Per-surface extension state.
	alpha           map[uint32]float64
	viewports       map[uint32]*Viewport
	fractionalScale map[uint32]*wl.Resource
	constraints     map[uint32]*PointerConstraint
	contentTypes    map[uint32]uint32
	tearingHints    map[uint32]uint32

	relativePointers []*wl.Resource

	foreignLists   []*wl.Resource            // ext_foreign_toplevel_list_v1
	wlrManagers    []*wl.Resource            // zwlr_foreign_toplevel_manager_v1
	foreignHandles map[uint32][]*wl.Resource // window id -> handle resources

	decorations map[xdgKey]*wl.Resource // toplevel key -> zxdg_toplevel_decoration

	activationTokens map[string]activationToken

	fullscreenShell fullscreenShellState

	keymap *xkb.Keymap
}

// New builds an empty state. display may be nil for state-only use.
func New(display *wl.Display, features Features) *State {
	st := &State{
		Display:  display,
		Features: features,
		now:      time.Now,

		nextSurfaceID: 1,
		nextWindowID:  1,
		nextBufferID:  1,
		nextNodeID:    1,

		surfaces:           make(map[uint32]*Surface),
		buffers:            make(map[bufferKey]*Buffer),
		windows:            make(map[uint32]*Window),
		surfaceToWindow:    make(map[uint32]uint32),
		subsurfaces:        make(map[uint32]*Subsurface),
		subsurfaceChildren: make(map[uint32][]uint32),
		layerSurfaces:      make(map[uint32]*LayerSurface),

		alpha:           make(map[uint32]float64),
		viewports:       make(map[uint32]*Viewport),
		fractionalScale: make(map[uint32]*wl.Resource),
		constraints:     make(map[uint32]*PointerConstraint),
		contentTypes:    make(map[uint32]uint32),
		tearingHints:    make(map[uint32]uint32),

		foreignHandles:   make(map[uint32][]*wl.Resource),
		decorations:      make(map[xdgKey]*wl.Resource),
		activationTokens: make(map[string]activationToken),

		scene: scene.New(),
	}
	st.xdg.init()
	st.seat.init()
	st.idle.lastActivity = st.now()
	if km, err := xkb.NewKeymap(xkb.MinimalKeymap); err == nil {
		st.keymap = km
	} else {
		log.Warn().Err(err).Msg("keymap unavailable; keyboards bind without one")
	}
	return st
}

// SetClock overrides the monotonic clock, for tests.
func (st *State) SetClock(now func() time.Time) { st.now = now }

// NextSerial bumps the global 32-bit serial; it wraps.
func (st *State) NextSerial() uint32 {
	st.serial++
	return st.serial
}

// Serial returns the last minted serial.
func (st *State) Serial() uint32 { return st.serial }

func (st *State) nextSurface() uint32 {
	id := st.nextSurfaceID
	st.nextSurfaceID++
	return id
}

func (st *State) nextWindow() uint32 {
	id := st.nextWindowID
	st.nextWindowID++
	return id
}

func (st *State) nextBuffer() uint32 {
	id := st.nextBufferID
	st.nextBufferID++
	return id
}

func (st *State) nextNode() uint32 {
	id := st.nextNodeID
	st.nextNodeID++
	return id
}

// Emit queues a compositor event for the platform.
func (st *State) Emit(e event.Event) {
	st.pendingEvents = append(st.pendingEvents, e)
}

// DrainEvents hands the queued events to the caller and resets the
// queue.
func (st *State) DrainEvents() []event.Event {
	out := st.pendingEvents
	st.pendingEvents = nil
	return out
}

// MarkSceneDirty requests a rebuild on the next tick.
func (st *State) MarkSceneDirty() { st.sceneDirty = true }

// SceneDirty reports and clears the dirty flag.
func (st *State) SceneDirty() bool {
	d := st.sceneDirty
	st.sceneDirty = false
	return d
}

// Scene is the most recently built scene.
func (st *State) Scene() *scene.Scene { return st.scene }

// AddSurface registers a surface.
func (st *State) AddSurface(s *Surface) uint32 {
	st.surfaces[s.ID] = s
	log.Debug().Uint32("surface", s.ID).Msg("surface added")
	return s.ID
}

// RemoveSurface drops a surface and every reference the router holds.
func (st *State) RemoveSurface(id uint32) {
	s, ok := st.surfaces[id]
	if !ok {
		return
	}
	if s.Current.BufferID != 0 {
		st.QueueBufferRelease(s.Client, s.Current.BufferID)
	}
	delete(st.surfaces, id)
	st.removeSubsurface(id)
	delete(st.layerSurfaces, id)
	delete(st.alpha, id)
	delete(st.viewports, id)
	delete(st.fractionalScale, id)
	delete(st.constraints, id)
	delete(st.contentTypes, id)
	delete(st.tearingHints, id)
	if st.seat.Pointer.Focus == id {
		st.seat.Pointer.Focus = 0
	}
	if st.seat.Keyboard.Focus == id {
		st.seat.Keyboard.Focus = 0
	}
	if st.focus.Grabbed == id {
		st.focus.Grabbed = 0
		st.seat.Pointer.ButtonCount = 0
	}
	if st.seat.Pointer.CursorSurface == id {
		st.seat.Pointer.CursorSurface = 0
	}
	st.seat.Touch.dropSurface(id)
	st.MarkSceneDirty()
	log.Debug().Uint32("surface", id).Msg("surface removed")
}

// Surface looks a surface up; nil when unknown.
func (st *State) Surface(id uint32) *Surface { return st.surfaces[id] }

// SurfaceCount is used by tests and the debug dump.
func (st *State) SurfaceCount() int { return len(st.surfaces) }

// AddBuffer registers client pixel storage.
func (st *State) AddBuffer(b *Buffer) {
	st.buffers[bufferKey{b.Client, b.ID}] = b
	log.Debug().Uint32("buffer", b.ID).Uint64("client", b.Client).Msg("buffer added")
}

// Buffer looks a buffer up.
func (st *State) Buffer(client uint64, id uint32) *Buffer {
	return st.buffers[bufferKey{client, id}]
}

// RemoveBuffer forgets a buffer; any queued release for it is dropped.
func (st *State) RemoveBuffer(client uint64, id uint32) {
	delete(st.buffers, bufferKey{client, id})
}

// QueueBufferRelease defers a wl_buffer.release until after the next
// frame-present notification, never during commit.
func (st *State) QueueBufferRelease(client uint64, id uint32) {
	if id == 0 {
		return
	}
	k := bufferKey{client, id}
	for _, q := range st.pendingReleases {
		if q == k {
			return
		}
	}
	st.pendingReleases = append(st.pendingReleases, k)
}

// FlushBufferReleases sends every queued release. Called on the
// frame-present signal.
func (st *State) FlushBufferReleases() {
	if len(st.pendingReleases) == 0 {
		return
	}
	log.Debug().Int("count", len(st.pendingReleases)).Msg("flushing buffer releases")
	for _, k := range st.pendingReleases {
		if b := st.buffers[k]; b != nil {
			b.Release()
		}
	}
	st.pendingReleases = st.pendingReleases[:0]
}

// PendingReleaseCount is exposed for tests.
func (st *State) PendingReleaseCount() int { return len(st.pendingReleases) }

// Keymap is the keymap served to newly bound keyboards.
func (st *State) Keymap() *xkb.Keymap { return st.keymap }

// ClientDisconnected sweeps all state owned by a dead client. Resource
// destroy hooks have already run; this catches the cross-component
// references they cannot see.
func (st *State) ClientDisconnected(client uint64) {
	for id, s := range st.surfaces {
		if s.Client == client {
			if wid, ok := st.surfaceToWindow[id]; ok {
				st.DestroyWindow(wid)
			}
			st.RemoveSurface(id)
		}
	}
	for k := range st.buffers {
		if k.client == client {
			delete(st.buffers, k)
		}
	}
	st.xdg.dropClient(client)
	grabs := st.popupGrabs[:0]
	for _, g := range st.popupGrabs {
		if g.client != client {
			grabs = append(grabs, g)
		}
	}
	st.popupGrabs = grabs
	devices := st.devices[:0]
	for _, d := range st.devices {
		if d.Client != client {
			devices = append(devices, d)
		}
	}
	st.devices = devices
	if st.selection != nil && st.selection.Client == client {
		st.selection = nil
	}
	if st.drag != nil && st.drag.Client == client {
		st.EndDrag(false)
	}
	st.seat.dropClient(client)
	st.MarkSceneDirty()
}
