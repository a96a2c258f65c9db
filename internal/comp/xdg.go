// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/io/event"
)

// xdg_toplevel state codes.
const (
	toplevelStateMaximized  uint32 = 1
	toplevelStateFullscreen uint32 = 2
	toplevelStateResizing   uint32 = 3
	toplevelStateActivated  uint32 = 4
)

// XdgSurfaceData is the per-(client, xdg_surface) record.
type XdgSurfaceData struct {
	Surface uint32 // internal wl_surface id
	Window  uint32 // 0 until a role object exists
	Res     *wl.Resource

	Geometry    *Rect
	HasGeometry bool
}

// ToplevelData is the per-(client, xdg_toplevel) record. Pending state
// is finalized when the client acks the matching configure serial.
type ToplevelData struct {
	Window     uint32
	Surface    uint32
	XdgSurface uint32 // protocol id of the owning xdg_surface
	Res        *wl.Resource

	Title string
	AppID string

	MinW, MinH int32
	MaxW, MaxH int32

	Maximized  bool
	Fullscreen bool
	Activated  bool

	PendingMaximized  bool
	PendingFullscreen bool
	PendingSerial     uint32

	// SavedGeometry restores position and size when leaving
	// maximize/fullscreen.
	SavedGeometry    Rect
	HasSavedGeometry bool

	Width, Height int32
}

// clampSize applies the client min/max constraints; zero bounds are
// unconstrained.
func (t *ToplevelData) clampSize(w, h int32) (int32, int32) {
	if t.MinW > 0 && w < t.MinW {
		w = t.MinW
	}
	if t.MinH > 0 && h < t.MinH {
		h = t.MinH
	}
	if t.MaxW > 0 && w > t.MaxW {
		w = t.MaxW
	}
	if t.MaxH > 0 && h > t.MaxH {
		h = t.MaxH
	}
	return w, h
}

// PopupData is the per-(client, xdg_popup) record.
type PopupData struct {
	Window     uint32
	Surface    uint32
	XdgSurface uint32
	Res        *wl.Resource

	Parent   uint32 // parent window id, 0 when unknown
	Geometry Rect
	Grabbed  bool

	RepositionToken uint32
}

// Positioner accumulates xdg_positioner state until get_popup consumes
// it.
type Positioner struct {
	Width, Height int32
	AnchorRect    Rect
	Anchor        uint32
	Gravity       uint32
	Adjustment    uint32
	OffsetX       int32
	OffsetY       int32
	Reactive      bool
}

// Anchor codes from xdg_positioner.
const (
	anchorNone        uint32 = 0
	anchorEdgeTop     uint32 = 1
	anchorEdgeBottom  uint32 = 2
	anchorEdgeLeft    uint32 = 3
	anchorEdgeRight   uint32 = 4
	anchorTopLeft     uint32 = 5
	anchorBottomLeft  uint32 = 6
	anchorTopRight    uint32 = 7
	anchorBottomRight uint32 = 8
)

// Position resolves the popup rect origin against the anchor rect and
// gravity, clamped into the bounding rect.
func (p *Positioner) Position(bounds Rect) (int32, int32) {
	ar := p.AnchorRect
	var ax, ay int32
	switch p.Anchor {
	case anchorEdgeTop:
		ax, ay = ar.X+ar.Width/2, ar.Y
	case anchorEdgeBottom:
		ax, ay = ar.X+ar.Width/2, ar.Y+ar.Height
	case anchorEdgeLeft:
		ax, ay = ar.X, ar.Y+ar.Height/2
	case anchorEdgeRight:
		ax, ay = ar.X+ar.Width, ar.Y+ar.Height/2
	case anchorTopLeft:
		ax, ay = ar.X, ar.Y
	case anchorBottomLeft:
		ax, ay = ar.X, ar.Y+ar.Height
	case anchorTopRight:
		ax, ay = ar.X+ar.Width, ar.Y
	case anchorBottomRight:
		ax, ay = ar.X+ar.Width, ar.Y+ar.Height
	default:
		ax, ay = ar.X+ar.Width/2, ar.Y+ar.Height/2
	}

	x, y := ax, ay
	switch p.Gravity {
	case anchorEdgeTop, anchorTopLeft, anchorTopRight:
		y -= p.Height
	case anchorEdgeBottom, anchorBottomLeft, anchorBottomRight:
		// grows down from the anchor
	default:
		y -= p.Height / 2
	}
	switch p.Gravity {
	case anchorEdgeLeft, anchorTopLeft, anchorBottomLeft:
		x -= p.Width
	case anchorEdgeRight, anchorTopRight, anchorBottomRight:
		// grows right
	default:
		x -= p.Width / 2
	}

	x += p.OffsetX
	y += p.OffsetY

	if !bounds.Empty() {
		if x+p.Width > bounds.X+bounds.Width {
			x = bounds.X + bounds.Width - p.Width
		}
		if y+p.Height > bounds.Y+bounds.Height {
			y = bounds.Y + bounds.Height - p.Height
		}
		x = max32(x, bounds.X)
		y = max32(y, bounds.Y)
	}
	return x, y
}

type xdgState struct {
	surfaces    map[xdgKey]*XdgSurfaceData
	toplevels   map[xdgKey]*ToplevelData
	popups      map[xdgKey]*PopupData
	positioners map[xdgKey]*Positioner
}

func (x *xdgState) init() {
	x.surfaces = make(map[xdgKey]*XdgSurfaceData)
	x.toplevels = make(map[xdgKey]*ToplevelData)
	x.popups = make(map[xdgKey]*PopupData)
	x.positioners = make(map[xdgKey]*Positioner)
}

func (x *xdgState) dropClient(client uint64) {
	for k := range x.surfaces {
		if k.client == client {
			delete(x.surfaces, k)
		}
	}
	for k := range x.toplevels {
		if k.client == client {
			delete(x.toplevels, k)
		}
	}
	for k := range x.popups {
		if k.client == client {
			delete(x.popups, k)
		}
	}
	for k := range x.positioners {
		if k.client == client {
			delete(x.positioners, k)
		}
	}
}

// geometryFor returns the xdg geometry set for a wl_surface, if any.
func (x *xdgState) geometryFor(surface uint32) (Rect, bool) {
	for _, s := range x.surfaces {
		if s.Surface == surface && s.HasGeometry {
			return *s.Geometry, true
		}
	}
	return Rect{}, false
}

func (x *xdgState) toplevelForWindow(window uint32) (xdgKey, *ToplevelData) {
	for k, t := range x.toplevels {
		if t.Window == window {
			return k, t
		}
	}
	return xdgKey{}, nil
}

// SendToplevelConfigure sends xdg_toplevel.configure with the state
// array followed by xdg_surface.configure carrying a fresh serial.
// Size is clamped to min/max except when fullscreen or when both are
// zero. Returns the serial.
func (st *State) SendToplevelConfigure(client uint64, toplevelID uint32, width, height int32) uint32 {
	serial := st.NextSerial()
	t := st.xdg.toplevels[xdgKey{client, toplevelID}]
	if t == nil {
		log.Debug().Uint32("toplevel", toplevelID).Msg("configure for unknown toplevel")
		return serial
	}
	t.PendingSerial = serial

	w, h := width, height
	if !t.PendingFullscreen && !(width == 0 && height == 0) {
		w, h = t.clampSize(width, height)
	}
	t.Width, t.Height = w, h

	var states []byte
	put := func(v uint32) {
		states = append(states, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	if t.Activated {
		put(toplevelStateActivated)
	}
	if t.PendingMaximized {
		put(toplevelStateMaximized)
	}
	if t.PendingFullscreen {
		put(toplevelStateFullscreen)
	}
	if w := st.windows[t.Window]; w != nil && w.Resizing {
		put(toplevelStateResizing)
	}

	if t.Res.Alive() {
		t.Res.Send(t.Res.NewEvent(toplevelEvtConfigure).
			PutInt32(w).
			PutInt32(h).
			PutArray(states))
	}
	if xs := st.xdg.surfaces[xdgKey{client, t.XdgSurface}]; xs != nil && xs.Res.Alive() {
		xs.Res.Send(xs.Res.NewEvent(xdgSurfaceEvtConfigure).PutUint32(serial))
	}
	log.Debug().
		Uint32("toplevel", toplevelID).
		Int32("w", w).
		Int32("h", h).
		Uint32("serial", serial).
		Msg("toplevel configure")
	return serial
}

// AckConfigure finalizes pending toplevel state for the acked serial.
// Stale serials are ignored without error.
func (st *State) AckConfigure(client uint64, xdgSurfaceID uint32, serial uint32) {
	xs := st.xdg.surfaces[xdgKey{client, xdgSurfaceID}]
	if xs == nil || xs.Window == 0 {
		return
	}
	for k, t := range st.xdg.toplevels {
		if k.client != client || t.XdgSurface != xdgSurfaceID || t.PendingSerial != serial {
			continue
		}
		wasMax, wasFull := t.Maximized, t.Fullscreen
		t.Maximized = t.PendingMaximized
		t.Fullscreen = t.PendingFullscreen
		if w := st.windows[t.Window]; w != nil {
			w.Maximized = t.Maximized
			w.Fullscreen = t.Fullscreen
		}
		if wasMax != t.Maximized {
			st.Emit(event.WindowMaximized{Window: t.Window, Maximized: t.Maximized})
		}
		if wasFull != t.Fullscreen {
			st.foreignStateChanged(t.Window)
		}
		log.Info().
			Uint32("window", t.Window).
			Bool("maximized", t.Maximized).
			Bool("fullscreen", t.Fullscreen).
			Msg("toplevel state finalized")
		return
	}
}

// SetMaximized proposes the maximized state: saved geometry is kept
// for restore and the configure targets the output's usable area.
func (st *State) SetMaximized(client uint64, toplevelID uint32, maximized bool) {
	t := st.xdg.toplevels[xdgKey{client, toplevelID}]
	if t == nil {
		return
	}
	w := st.windows[t.Window]
	if w == nil {
		return
	}
	if maximized {
		if !t.HasSavedGeometry {
			t.SavedGeometry = w.Geometry()
			t.HasSavedGeometry = true
		}
		t.PendingMaximized = true
		target := Rect{}
		if o := st.PrimaryOutput(); o != nil {
			target, _ = st.UsableArea(o.ID)
		}
		if target.Empty() {
			// A fully reserved output maximizes to 0x0; the client
			// acks and sizes itself.
			target.Width, target.Height = 0, 0
		}
		st.SendToplevelConfigure(client, toplevelID, target.Width, target.Height)
	} else {
		t.PendingMaximized = false
		restored := t.SavedGeometry
		t.HasSavedGeometry = false
		st.SendToplevelConfigure(client, toplevelID, restored.Width, restored.Height)
	}
}

// SetFullscreen proposes fullscreen: the full output geometry, min/max
// ignored.
func (st *State) SetFullscreen(client uint64, toplevelID uint32, fullscreen bool) {
	t := st.xdg.toplevels[xdgKey{client, toplevelID}]
	if t == nil {
		return
	}
	w := st.windows[t.Window]
	if w == nil {
		return
	}
	if fullscreen {
		if !t.HasSavedGeometry {
			t.SavedGeometry = w.Geometry()
			t.HasSavedGeometry = true
		}
		t.PendingFullscreen = true
		var tw, th int32
		if o := st.PrimaryOutput(); o != nil {
			tw, th = o.Width, o.Height
		}
		st.SendToplevelConfigure(client, toplevelID, tw, th)
	} else {
		t.PendingFullscreen = false
		restored := t.SavedGeometry
		t.HasSavedGeometry = false
		st.SendToplevelConfigure(client, toplevelID, restored.Width, restored.Height)
	}
}
