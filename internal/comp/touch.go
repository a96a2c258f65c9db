// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
)

// InjectTouchDown routes a new contact to the surface under it; the
// contact stays bound to that surface until up or cancel.
func (st *State) InjectTouchDown(id int32, x, y float64, timeMS uint32) {
	st.idle.recordActivity(st.now())
	st.seat.cleanup()
	surface, lx, ly, ok := st.SurfaceAt(x, y)
	if !ok {
		return
	}
	st.seat.Touch.points[id] = surface
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	serial := st.NextSerial()
	for _, t := range st.seat.Touch.resources {
		if t.Client() == res.Client() {
			t.Send(t.NewEvent(touchEvtDown).
				PutUint32(serial).
				PutUint32(timeMS).
				PutUint32(res.ID()).
				PutInt32(id).
				PutFixed(wire.FixedFromFloat64(lx)).
				PutFixed(wire.FixedFromFloat64(ly)))
		}
	}
}

// InjectTouchUp ends a contact.
func (st *State) InjectTouchUp(id int32, timeMS uint32) {
	st.seat.cleanup()
	surface, ok := st.seat.Touch.points[id]
	if !ok {
		return
	}
	delete(st.seat.Touch.points, id)
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	serial := st.NextSerial()
	for _, t := range st.seat.Touch.resources {
		if t.Client() == res.Client() {
			t.Send(t.NewEvent(touchEvtUp).
				PutUint32(serial).
				PutUint32(timeMS).
				PutInt32(id))
		}
	}
}

// InjectTouchMotion moves a contact on its bound surface.
func (st *State) InjectTouchMotion(id int32, x, y float64, timeMS uint32) {
	st.seat.cleanup()
	surface, ok := st.seat.Touch.points[id]
	if !ok {
		return
	}
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	lx, ly := st.surfaceLocal(surface, x, y)
	for _, t := range st.seat.Touch.resources {
		if t.Client() == res.Client() {
			t.Send(t.NewEvent(touchEvtMotion).
				PutUint32(timeMS).
				PutInt32(id).
				PutFixed(wire.FixedFromFloat64(lx)).
				PutFixed(wire.FixedFromFloat64(ly)))
		}
	}
}

// InjectTouchFrame ends the current event group on every touch with an
// active contact.
func (st *State) InjectTouchFrame() {
	st.seat.cleanup()
	st.broadcastTouch(touchEvtFrame)
}

// InjectTouchCancel aborts all contacts.
func (st *State) InjectTouchCancel() {
	st.seat.cleanup()
	st.broadcastTouch(touchEvtCancel)
	st.seat.Touch.points = make(map[int32]uint32)
}

func (st *State) broadcastTouch(evt uint16) {
	seen := make(map[uint64]bool)
	for _, surface := range st.seat.Touch.points {
		res := st.surfaceRes(surface)
		if !res.Alive() {
			continue
		}
		cid := res.Client().ID()
		if seen[cid] {
			continue
		}
		seen[cid] = true
		for _, t := range st.seat.Touch.resources {
			if t.Client() == res.Client() {
				t.Send(t.NewEvent(evt))
			}
		}
	}
}
