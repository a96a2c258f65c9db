// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"time"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/internal/xkb"
)

// Key repeat defaults sent via wl_keyboard.repeat_info.
const (
	defaultRepeatRate  = 33  // per second
	defaultRepeatDelay = 500 // ms
)

// PointerState is the seat's pointer: position, focus, implicit grab
// and cursor surface.
type PointerState struct {
	X, Y  float64
	Focus uint32 // surface id, 0 = none

	// ButtonCount implements the implicit grab: while nonzero, focus
	// is pinned to the surface of first press.
	ButtonCount int

	CursorSurface uint32
	CursorShape   uint32
	HotspotX      int32
	HotspotY      int32

	resources []*wl.Resource
}

// KeyboardState is the seat's keyboard: focus, modifiers and repeat.
type KeyboardState struct {
	Focus uint32 // surface id

	Mods    xkb.State
	Pressed []uint32

	RepeatRate  int32
	RepeatDelay int32

	repeatKey     uint32
	repeatStarted time.Time
	lastRepeat    time.Time

	resources []*wl.Resource
}

// TouchState routes each touch point to the surface under its initial
// contact.
type TouchState struct {
	points    map[int32]uint32 // touch id -> surface id
	resources []*wl.Resource
}

func (t *TouchState) dropSurface(surface uint32) {
	for id, sid := range t.points {
		if sid == surface {
			delete(t.points, id)
		}
	}
}

// Seat is the single seat of the compositor.
type Seat struct {
	Name string

	Pointer  PointerState
	Keyboard KeyboardState
	Touch    TouchState

	seatResources []*wl.Resource
}

func (s *Seat) init() {
	s.Name = "seat0"
	s.Keyboard.RepeatRate = defaultRepeatRate
	s.Keyboard.RepeatDelay = defaultRepeatDelay
	s.Touch.points = make(map[int32]uint32)
}

func (s *Seat) dropClient(client uint64) {
	s.Pointer.resources = dropClientResources(s.Pointer.resources, client)
	s.Keyboard.resources = dropClientResources(s.Keyboard.resources, client)
	s.Touch.resources = dropClientResources(s.Touch.resources, client)
	s.seatResources = dropClientResources(s.seatResources, client)
}

func dropClientResources(in []*wl.Resource, client uint64) []*wl.Resource {
	out := in[:0]
	for _, r := range in {
		if r.Client().ID() != client {
			out = append(out, r)
		}
	}
	return out
}

func dropResource(in []*wl.Resource, res *wl.Resource) []*wl.Resource {
	out := in[:0]
	for _, r := range in {
		if r != res {
			out = append(out, r)
		}
	}
	return out
}

// cleanup drops dead resources from every broadcast list.
func (s *Seat) cleanup() {
	s.Pointer.resources = dropDead(s.Pointer.resources)
	s.Keyboard.resources = dropDead(s.Keyboard.resources)
	s.Touch.resources = dropDead(s.Touch.resources)
	s.seatResources = dropDead(s.seatResources)
}

func dropDead(in []*wl.Resource) []*wl.Resource {
	out := in[:0]
	for _, r := range in {
		if r.Alive() {
			out = append(out, r)
		}
	}
	return out
}

// Broadcast helpers. Events go to every resource bound by the client
// owning the target surface; versions gate optional events.

func (st *State) surfaceRes(surface uint32) *wl.Resource {
	if s := st.surfaces[surface]; s != nil {
		return s.Res
	}
	return nil
}

func (st *State) pointerEnter(serial uint32, surface uint32, x, y float64) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, p := range st.seat.Pointer.resources {
		if p.Client() == res.Client() {
			p.Send(p.NewEvent(pointerEvtEnter).
				PutUint32(serial).
				PutUint32(res.ID()).
				PutFixed(wire.FixedFromFloat64(x)).
				PutFixed(wire.FixedFromFloat64(y)))
		}
	}
}

func (st *State) pointerLeave(serial uint32, surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, p := range st.seat.Pointer.resources {
		if p.Client() == res.Client() {
			p.Send(p.NewEvent(pointerEvtLeave).
				PutUint32(serial).
				PutUint32(res.ID()))
		}
	}
}

func (st *State) pointerMotion(timeMS uint32, surface uint32, x, y float64) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, p := range st.seat.Pointer.resources {
		if p.Client() == res.Client() {
			p.Send(p.NewEvent(pointerEvtMotion).
				PutUint32(timeMS).
				PutFixed(wire.FixedFromFloat64(x)).
				PutFixed(wire.FixedFromFloat64(y)))
		}
	}
}

func (st *State) pointerButton(serial, timeMS, button, state uint32, surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, p := range st.seat.Pointer.resources {
		if p.Client() == res.Client() {
			p.Send(p.NewEvent(pointerEvtButton).
				PutUint32(serial).
				PutUint32(timeMS).
				PutUint32(button).
				PutUint32(state))
		}
	}
}

func (st *State) pointerAxis(timeMS uint32, axis uint32, value float64, surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, p := range st.seat.Pointer.resources {
		if p.Client() == res.Client() {
			p.Send(p.NewEvent(pointerEvtAxis).
				PutUint32(timeMS).
				PutUint32(axis).
				PutFixed(wire.FixedFromFloat64(value)))
		}
	}
}

// pointerFrame closes each atomic event group on v5+ pointers.
func (st *State) pointerFrame(surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, p := range st.seat.Pointer.resources {
		if p.Client() == res.Client() && p.Version() >= 5 {
			p.Send(p.NewEvent(pointerEvtFrame))
		}
	}
}

func (st *State) keyboardEnter(serial uint32, surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	var keyBytes []byte
	for _, k := range st.seat.Keyboard.Pressed {
		keyBytes = append(keyBytes, byte(k), byte(k>>8), byte(k>>16), byte(k>>24))
	}
	dep, lat, lock, grp := st.seat.Keyboard.Mods.Serialize()
	for _, kb := range st.seat.Keyboard.resources {
		if kb.Client() != res.Client() {
			continue
		}
		kb.Send(kb.NewEvent(keyboardEvtEnter).
			PutUint32(serial).
			PutUint32(res.ID()).
			PutArray(keyBytes))
		kb.Send(kb.NewEvent(keyboardEvtModifiers).
			PutUint32(serial).
			PutUint32(dep).
			PutUint32(lat).
			PutUint32(lock).
			PutUint32(grp))
		if kb.Version() >= 4 {
			kb.Send(kb.NewEvent(keyboardEvtRepeatInfo).
				PutInt32(st.seat.Keyboard.RepeatRate).
				PutInt32(st.seat.Keyboard.RepeatDelay))
		}
	}
}

func (st *State) keyboardLeave(serial uint32, surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, kb := range st.seat.Keyboard.resources {
		if kb.Client() == res.Client() {
			kb.Send(kb.NewEvent(keyboardEvtLeave).
				PutUint32(serial).
				PutUint32(res.ID()))
		}
	}
}

func (st *State) keyboardKey(serial, timeMS, key, state uint32, surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	for _, kb := range st.seat.Keyboard.resources {
		if kb.Client() == res.Client() {
			kb.Send(kb.NewEvent(keyboardEvtKey).
				PutUint32(serial).
				PutUint32(timeMS).
				PutUint32(key).
				PutUint32(state))
		}
	}
}

func (st *State) keyboardModifiers(serial uint32, surface uint32) {
	res := st.surfaceRes(surface)
	if !res.Alive() {
		return
	}
	dep, lat, lock, grp := st.seat.Keyboard.Mods.Serialize()
	for _, kb := range st.seat.Keyboard.resources {
		if kb.Client() == res.Client() {
			kb.Send(kb.NewEvent(keyboardEvtModifiers).
				PutUint32(serial).
				PutUint32(dep).
				PutUint32(lat).
				PutUint32(lock).
				PutUint32(grp))
		}
	}
}
