// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/internal/xkb"
)

// wl_seat requests, events and capability bits.
const (
	seatReqGetPointer  = 0
	seatReqGetKeyboard = 1
	seatReqGetTouch    = 2
	seatReqRelease     = 3

	seatEvtCapabilities = 0
	seatEvtName         = 1

	seatCapPointer  = 1
	seatCapKeyboard = 2
	seatCapTouch    = 4
)

// wl_pointer requests and events.
const (
	pointerReqSetCursor = 0
	pointerReqRelease   = 1

	pointerEvtEnter  = 0
	pointerEvtLeave  = 1
	pointerEvtMotion = 2
	pointerEvtButton = 3
	pointerEvtAxis   = 4
	pointerEvtFrame  = 5
)

// wl_keyboard requests and events.
const (
	keyboardReqRelease = 0

	keyboardEvtKeymap     = 0
	keyboardEvtEnter      = 1
	keyboardEvtLeave      = 2
	keyboardEvtKey        = 3
	keyboardEvtModifiers  = 4
	keyboardEvtRepeatInfo = 5
)

// wl_touch requests and events.
const (
	touchReqRelease = 0

	touchEvtDown   = 0
	touchEvtUp     = 1
	touchEvtMotion = 2
	touchEvtFrame  = 3
	touchEvtCancel = 4
)

func (st *State) bindSeat(c *wl.Client, res *wl.Resource) {
	st.seat.seatResources = append(st.seat.seatResources, res)
	res.Send(res.NewEvent(seatEvtCapabilities).
		PutUint32(seatCapPointer | seatCapKeyboard | seatCapTouch))
	if res.Version() >= 2 {
		res.Send(res.NewEvent(seatEvtName).PutString(st.seat.Name))
	}
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case seatReqGetPointer:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			p := c.NewResource(id, "wl_pointer", res.Version())
			st.seat.Pointer.resources = append(st.seat.Pointer.resources, p)
			p.Dispatch = st.dispatchPointer(p)
			p.OnDestroy = func() {
				st.seat.Pointer.resources = dropResource(st.seat.Pointer.resources, p)
			}
		case seatReqGetKeyboard:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			kb := c.NewResource(id, "wl_keyboard", res.Version())
			st.seat.Keyboard.resources = append(st.seat.Keyboard.resources, kb)
			st.sendKeymap(kb)
			if kb.Version() >= 4 {
				kb.Send(kb.NewEvent(keyboardEvtRepeatInfo).
					PutInt32(st.seat.Keyboard.RepeatRate).
					PutInt32(st.seat.Keyboard.RepeatDelay))
			}
			kb.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == keyboardReqRelease {
					kb.Destroy()
				}
				return nil
			}
			kb.OnDestroy = func() {
				st.seat.Keyboard.resources = dropResource(st.seat.Keyboard.resources, kb)
			}
		case seatReqGetTouch:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			t := c.NewResource(id, "wl_touch", res.Version())
			st.seat.Touch.resources = append(st.seat.Touch.resources, t)
			t.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == touchReqRelease {
					t.Destroy()
				}
				return nil
			}
			t.OnDestroy = func() {
				st.seat.Touch.resources = dropResource(st.seat.Touch.resources, t)
			}
		case seatReqRelease:
			res.Destroy()
		}
		return nil
	}
	res.OnDestroy = func() {
		st.seat.seatResources = dropResource(st.seat.seatResources, res)
	}
}

func (st *State) sendKeymap(kb *wl.Resource) {
	km := st.keymap
	if km == nil {
		return
	}
	kb.Send(kb.NewEvent(keyboardEvtKeymap).
		PutUint32(xkb.FormatXkbV1).
		PutFd(km.Fd()).
		PutUint32(km.Size()))
}

func (st *State) dispatchPointer(res *wl.Resource) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case pointerReqSetCursor:
			serial := r.Uint32()
			surfID := r.Object()
			hx := r.Int32()
			hy := r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			_ = serial // freshness beyond ack correlation is not enforced
			if surfID == 0 {
				st.seat.Pointer.CursorSurface = 0
				return nil
			}
			sres := c.Get(surfID)
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			s := st.surfaces[surface]
			if s == nil {
				return nil
			}
			if err := s.SetRole(RoleCursor); err != nil {
				c.PostError(res, 0, err.Error())
				return nil
			}
			st.seat.Pointer.CursorSurface = surface
			st.seat.Pointer.HotspotX = hx
			st.seat.Pointer.HotspotY = hy
		case pointerReqRelease:
			res.Destroy()
		}
		return nil
	}
}
