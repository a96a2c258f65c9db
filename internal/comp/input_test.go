// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/io/input"
)

func TestKeyRepeatTiming(t *testing.T) {
	h := newHarness(t)
	st := h.st

	st.InjectKey(30, keyStatePressed, 0) // KEY_A

	// Nothing repeats before the delay.
	_, ok := st.CheckKeyRepeat()
	assert.False(t, ok)

	h.clock = h.clock.Add(time.Duration(defaultRepeatDelay) * time.Millisecond)
	key, ok := st.CheckKeyRepeat()
	require.True(t, ok)
	assert.Equal(t, uint32(30), key)

	// The next repeat waits a full 1000/rate interval.
	_, ok = st.CheckKeyRepeat()
	assert.False(t, ok)
	h.clock = h.clock.Add(time.Second / time.Duration(defaultRepeatRate))
	_, ok = st.CheckKeyRepeat()
	assert.True(t, ok)

	// Release stops the repeat.
	st.InjectKey(30, keyStateReleased, 1)
	h.clock = h.clock.Add(time.Second)
	_, ok = st.CheckKeyRepeat()
	assert.False(t, ok)
}

func TestKeyRepeatReplacedByNewerKey(t *testing.T) {
	h := newHarness(t)
	st := h.st

	st.InjectKey(30, keyStatePressed, 0)
	st.InjectKey(31, keyStatePressed, 1)
	h.clock = h.clock.Add(time.Second)

	key, ok := st.CheckKeyRepeat()
	require.True(t, ok)
	assert.Equal(t, uint32(31), key)

	// Releasing the superseded key does not cancel the newer one.
	st.InjectKey(30, keyStateReleased, 2)
	h.clock = h.clock.Add(time.Second)
	_, ok = st.CheckKeyRepeat()
	assert.True(t, ok)
}

func TestKeyRepeatDisabledWithZeroRate(t *testing.T) {
	h := newHarness(t)
	h.st.seat.Keyboard.RepeatRate = 0
	h.st.InjectKey(30, keyStatePressed, 0)
	h.clock = h.clock.Add(time.Hour)
	_, ok := h.st.CheckKeyRepeat()
	assert.False(t, ok)
}

func TestImplicitGrabPinsFocus(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	seat := h.bind("wl_seat")

	pointer := h.id()
	h.request(seat, seatReqGetPointer, func(m *wire.Message) { m.PutUint32(pointer) })

	a := h.createToplevel(compositor, wmBase)
	h.attachCommit(a.surface, h.createShmBuffer(shm, 100, 100))
	b := h.createToplevel(compositor, wmBase)
	h.attachCommit(b.surface, h.createShmBuffer(shm, 100, 100))
	h.st.Window(b.window).X = 200
	h.events()

	h.st.InjectPointerMotion(50, 50, 1)
	require.Equal(t, a.internal, h.st.seat.Pointer.Focus)

	h.st.InjectPointerButton(input.BtnLeft, buttonStatePressed, 2)

	// While the button is down, motion over the other window stays
	// pinned to the grab surface.
	h.st.InjectPointerMotion(250, 50, 3)
	assert.Equal(t, a.internal, h.st.seat.Pointer.Focus)

	h.st.InjectPointerButton(input.BtnLeft, buttonStateReleased, 4)
	h.st.InjectPointerMotion(250, 50, 5)
	assert.Equal(t, b.internal, h.st.seat.Pointer.Focus)
}

func TestPointerEnterLeaveOnFocusChange(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	seat := h.bind("wl_seat")

	pointer := h.id()
	h.request(seat, seatReqGetPointer, func(m *wire.Message) { m.PutUint32(pointer) })

	a := h.createToplevel(compositor, wmBase)
	h.attachCommit(a.surface, h.createShmBuffer(shm, 100, 100))
	b := h.createToplevel(compositor, wmBase)
	h.attachCommit(b.surface, h.createShmBuffer(shm, 100, 100))
	h.st.Window(b.window).X = 200
	h.events()

	h.st.InjectPointerMotion(50, 50, 1)
	var ops []uint16
	for _, ev := range filterEvents(h.events(), pointer) {
		ops = append(ops, ev.Opcode)
	}
	require.Equal(t, []uint16{pointerEvtEnter, pointerEvtMotion, pointerEvtFrame}, ops)

	h.st.InjectPointerMotion(250, 50, 2)
	ops = nil
	for _, ev := range filterEvents(h.events(), pointer) {
		ops = append(ops, ev.Opcode)
	}
	require.Equal(t, []uint16{pointerEvtLeave, pointerEvtEnter, pointerEvtMotion, pointerEvtFrame}, ops)
}

func TestInputRegionLimitsPick(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")

	a := h.createToplevel(compositor, wmBase)
	// Input region covers only the left half.
	region := h.id()
	h.request(compositor, compositorReqCreateRegion, func(m *wire.Message) { m.PutUint32(region) })
	h.request(region, regionReqAdd, func(m *wire.Message) {
		m.PutInt32(0)
		m.PutInt32(0)
		m.PutInt32(50)
		m.PutInt32(100)
	})
	h.request(a.surface, surfaceReqSetInputRegion, func(m *wire.Message) { m.PutUint32(region) })
	h.attachCommit(a.surface, h.createShmBuffer(shm, 100, 100))

	sid, _, _, ok := h.st.SurfaceAt(25, 50)
	require.True(t, ok)
	assert.Equal(t, a.internal, sid)

	_, _, _, ok = h.st.SurfaceAt(75, 50)
	assert.False(t, ok)
}

func TestPointerLockSuppressesAbsoluteMotion(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	seat := h.bind("wl_seat")
	constraints := h.bind("zwp_pointer_constraints_v1")

	pointer := h.id()
	h.request(seat, seatReqGetPointer, func(m *wire.Message) { m.PutUint32(pointer) })

	a := h.createToplevel(compositor, wmBase)
	h.attachCommit(a.surface, h.createShmBuffer(shm, 100, 100))
	h.events()

	h.st.InjectPointerMotion(50, 50, 1)
	h.events()

	lock := h.id()
	h.request(constraints, constraintsReqLockPointer, func(m *wire.Message) {
		m.PutUint32(lock)
		m.PutUint32(a.surface)
		m.PutUint32(pointer)
		m.PutUint32(0) // region: none
		m.PutUint32(1) // lifetime: persistent
	})
	evs := filterEvents(h.events(), lock)
	require.NotEmpty(t, evs)
	assert.Equal(t, uint16(lockedPointerEvtLocked), evs[0].Opcode)

	h.st.InjectPointerMotion(60, 60, 2)
	for _, ev := range filterEvents(h.events(), pointer) {
		assert.NotEqual(t, uint16(pointerEvtMotion), ev.Opcode)
	}
}

func TestTouchRoutesToInitialSurface(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	seat := h.bind("wl_seat")

	touch := h.id()
	h.request(seat, seatReqGetTouch, func(m *wire.Message) { m.PutUint32(touch) })

	a := h.createToplevel(compositor, wmBase)
	h.attachCommit(a.surface, h.createShmBuffer(shm, 100, 100))
	h.events()

	h.st.InjectTouchDown(1, 50, 50, 1)
	h.st.InjectTouchMotion(1, 60, 60, 2)
	h.st.InjectTouchFrame()
	h.st.InjectTouchUp(1, 3)

	var ops []uint16
	for _, ev := range filterEvents(h.events(), touch) {
		ops = append(ops, ev.Opcode)
	}
	require.Equal(t, []uint16{touchEvtDown, touchEvtMotion, touchEvtFrame, touchEvtUp}, ops)
	assert.Empty(t, h.st.seat.Touch.points)
}
