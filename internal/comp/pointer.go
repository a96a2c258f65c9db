// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/io/input"
)

// Button states from wl_pointer.
const (
	buttonStateReleased uint32 = 0
	buttonStatePressed  uint32 = 1
)

// Axis codes from wl_pointer.
const (
	axisVertical   uint32 = 0
	axisHorizontal uint32 = 1
)

// SurfaceAt performs the pointer pick: flatten the scene, walk the
// list back to front, and return the first surface whose box contains
// the point and whose input region (nil = infinite) accepts it.
// The returned coordinates are surface local.
func (st *State) SurfaceAt(x, y float64) (uint32, float64, float64, bool) {
	st.BuildScene()
	flat := st.scene.Flatten()
	for i := len(flat) - 1; i >= 0; i-- {
		fs := flat[i]
		sx, sy := float64(fs.X), float64(fs.Y)
		sw, sh := float64(fs.Width), float64(fs.Height)
		if x < sx || x >= sx+sw || y < sy || y >= sy+sh {
			continue
		}
		scale := float64(fs.Scale)
		if scale == 0 {
			scale = 1
		}
		lx := (x - sx) / scale
		ly := (y - sy) / scale
		if s := st.surfaces[fs.SurfaceID]; s != nil {
			if !regionContains(s.Current.InputRegion, int32(lx), int32(ly)) {
				continue
			}
		}
		return fs.SurfaceID, lx, ly, true
	}
	return 0, 0, 0, false
}

// InjectPointerMotion handles absolute motion: drag routing when a
// drag is active, otherwise pick, enter/leave on focus change, then
// motion unless a lock constraint suppresses it.
func (st *State) InjectPointerMotion(x, y float64, timeMS uint32) {
	st.idle.recordActivity(st.now())
	st.seat.cleanup()

	dx := x - st.seat.Pointer.X
	dy := y - st.seat.Pointer.Y
	st.seat.Pointer.X = x
	st.seat.Pointer.Y = y

	st.broadcastRelativeMotion(timeMS, dx, dy)

	if st.drag != nil {
		st.dragMotion(x, y, timeMS)
		return
	}

	surface, lx, ly, ok := st.SurfaceAt(x, y)

	// The implicit grab pins focus while a button is held.
	if st.seat.Pointer.ButtonCount > 0 && st.focus.Grabbed != 0 {
		grabbed := st.focus.Grabbed
		if s := st.surfaces[grabbed]; s != nil {
			glx, gly := st.surfaceLocal(grabbed, x, y)
			if !st.pointerLocked(grabbed) {
				st.pointerMotion(timeMS, grabbed, glx, gly)
				st.pointerFrame(grabbed)
			}
		}
		return
	}

	old := st.seat.Pointer.Focus
	if !ok {
		if old != 0 {
			st.pointerLeave(st.NextSerial(), old)
			st.pointerFrame(old)
			st.seat.Pointer.Focus = 0
		}
		return
	}

	if surface != old {
		if old != 0 {
			st.pointerLeave(st.NextSerial(), old)
		}
		st.pointerEnter(st.NextSerial(), surface, lx, ly)
		st.seat.Pointer.Focus = surface
	}
	if !st.pointerLocked(surface) {
		st.pointerMotion(timeMS, surface, lx, ly)
	}
	st.pointerFrame(surface)
}

// InjectPointerMotionRelative applies a delta; relative-pointer
// resources always hear it, absolute delivery obeys lock constraints.
func (st *State) InjectPointerMotionRelative(dx, dy float64, timeMS uint32) {
	st.InjectPointerMotion(st.seat.Pointer.X+dx, st.seat.Pointer.Y+dy, timeMS)
}

// surfaceLocal converts compositor coordinates to surface-local ones
// using the built scene.
func (st *State) surfaceLocal(surface uint32, x, y float64) (float64, float64) {
	for _, fs := range st.scene.Flatten() {
		if fs.SurfaceID != surface {
			continue
		}
		scale := float64(fs.Scale)
		if scale == 0 {
			scale = 1
		}
		return (x - float64(fs.X)) / scale, (y - float64(fs.Y)) / scale
	}
	return x, y
}

// InjectPointerButton routes a button event. A press raises and
// focuses the window under the pointer and may dismiss popup grabs; a
// final release ends an active drag.
func (st *State) InjectPointerButton(button uint32, state uint32, timeMS uint32) {
	st.idle.recordActivity(st.now())
	st.seat.cleanup()
	serial := st.NextSerial()

	if state == buttonStatePressed {
		st.seat.Pointer.ButtonCount++
		if st.seat.Pointer.ButtonCount == 1 {
			st.focus.Grabbed = st.seat.Pointer.Focus
		}

		if len(st.popupGrabs) > 0 && !st.pressOnGrabChain() {
			st.DismissPopupGrabs()
			// The press is re-evaluated against the scene without the
			// dismissed popups.
			if surface, lx, ly, ok := st.SurfaceAt(st.seat.Pointer.X, st.seat.Pointer.Y); ok {
				if surface != st.seat.Pointer.Focus {
					if old := st.seat.Pointer.Focus; old != 0 {
						st.pointerLeave(st.NextSerial(), old)
					}
					st.pointerEnter(st.NextSerial(), surface, lx, ly)
					st.seat.Pointer.Focus = surface
				}
			}
		}

		if wid := st.WindowUnder(st.seat.Pointer.X, st.seat.Pointer.Y); wid != 0 {
			st.SetFocusedWindow(wid)
			st.BringToFront(wid)
		}
	} else {
		if st.seat.Pointer.ButtonCount > 0 {
			st.seat.Pointer.ButtonCount--
		}
		if st.seat.Pointer.ButtonCount == 0 {
			st.focus.Grabbed = 0
			if st.drag != nil {
				st.EndDrag(st.drag.Focus != 0)
				return
			}
		}
	}

	if st.drag != nil {
		return
	}

	if focus := st.seat.Pointer.Focus; focus != 0 {
		st.pointerButton(serial, timeMS, button, state, focus)
		st.pointerFrame(focus)
	}
}

// InjectPointerAxis broadcasts scroll on both axes followed by a
// frame.
func (st *State) InjectPointerAxis(horizontal, vertical float64, timeMS uint32) {
	st.idle.recordActivity(st.now())
	st.seat.cleanup()
	focus := st.seat.Pointer.Focus
	if focus == 0 {
		return
	}
	if vertical != 0 {
		st.pointerAxis(timeMS, axisVertical, vertical, focus)
	}
	if horizontal != 0 {
		st.pointerAxis(timeMS, axisHorizontal, horizontal, focus)
	}
	st.pointerFrame(focus)
}

// pressOnGrabChain checks whether the pointer focus belongs to the
// grab chain: any stacked popup's surface or its window.
func (st *State) pressOnGrabChain() bool {
	focus := st.seat.Pointer.Focus
	if focus == 0 {
		return false
	}
	for _, g := range st.popupGrabs {
		p := st.xdg.popups[xdgKey{g.client, g.popup}]
		if p == nil {
			continue
		}
		if p.Surface == focus {
			return true
		}
		if wid, ok := st.surfaceToWindow[focus]; ok && wid == p.Window {
			return true
		}
	}
	return false
}

// DismissPopupGrabs pops the grab stack top-down, sending popup_done
// to each grabbed popup.
func (st *State) DismissPopupGrabs() {
	for len(st.popupGrabs) > 0 {
		g := st.popupGrabs[len(st.popupGrabs)-1]
		st.popupGrabs = st.popupGrabs[:len(st.popupGrabs)-1]
		p := st.xdg.popups[xdgKey{g.client, g.popup}]
		if p == nil {
			continue
		}
		log.Debug().Uint32("popup", g.popup).Uint64("client", g.client).Msg("dismissing popup grab")
		if p.Res.Alive() {
			p.Res.Send(p.Res.NewEvent(popupEvtPopupDone))
		}
	}
}

// PopupGrabDepth is exposed for tests.
func (st *State) PopupGrabDepth() int { return len(st.popupGrabs) }

// ProcessInput dispatches one platform input event.
func (st *State) ProcessInput(e input.Event) {
	switch ev := e.(type) {
	case input.PointerMotion:
		st.InjectPointerMotion(ev.X, ev.Y, ev.Time)
	case input.PointerMotionRelative:
		st.InjectPointerMotionRelative(ev.DX, ev.DY, ev.Time)
	case input.PointerButton:
		st.InjectPointerButton(ev.Button, uint32(ev.State), ev.Time)
	case input.PointerAxis:
		st.InjectPointerAxis(ev.Horizontal, ev.Vertical, ev.Time)
	case input.KeyboardKey:
		st.InjectKey(ev.Code, uint32(ev.State), ev.Time)
	case input.KeyboardModifiers:
		st.InjectModifiers(ev.Depressed, ev.Latched, ev.Locked, ev.Group)
	case input.TouchDown:
		st.InjectTouchDown(ev.ID, ev.X, ev.Y, ev.Time)
	case input.TouchUp:
		st.InjectTouchUp(ev.ID, ev.Time)
	case input.TouchMotion:
		st.InjectTouchMotion(ev.ID, ev.X, ev.Y, ev.Time)
	case input.TouchFrame:
		st.InjectTouchFrame()
	case input.TouchCancel:
		st.InjectTouchCancel()
	case input.OutputConfigured:
		if o := st.PrimaryOutput(); o != nil {
			st.UpdateOutput(o.ID, int32(ev.Width), int32(ev.Height), int32(ev.RefreshMHz), ev.Scale, ev.X, ev.Y, ev.Insets)
		}
	case input.FramePresented:
		st.HandleFramePresented(ev)
	}
}

// HandleFramePresented fires frame callbacks, presentation feedback
// and then the queued buffer releases, in that order.
func (st *State) HandleFramePresented(ev input.FramePresented) {
	timeMS := uint32(ev.TimestampNS / 1e6)
	st.FireFrameCallbacks(timeMS)
	st.presentation.sendPresented(ev.TimestampNS, ev.RefreshNS, ev.Sequence)
	st.FlushBufferReleases()
	st.fullscreenShell.flushDeferred()
}

func (st *State) broadcastRelativeMotion(timeMS uint32, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	focus := st.seat.Pointer.Focus
	res := st.surfaceRes(focus)
	if !res.Alive() {
		return
	}
	for _, rp := range st.relativePointers {
		if !rp.Alive() || rp.Client() != res.Client() {
			continue
		}
		rp.Send(rp.NewEvent(relativePointerEvtMotion).
			PutUint32(0).
			PutUint32(timeMS * 1000).
			PutFixed(wire.FixedFromFloat64(dx)).
			PutFixed(wire.FixedFromFloat64(dy)).
			PutFixed(wire.FixedFromFloat64(dx)).
			PutFixed(wire.FixedFromFloat64(dy)))
	}
}
