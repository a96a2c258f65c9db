// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojehle/wawona/internal/wire"
)

func TestSetSelectionCancelsDisplacedSourceOnce(t *testing.T) {
	h := newHarness(t)
	ddm := h.bind("wl_data_device_manager")
	seat := h.bind("wl_seat")

	device := h.id()
	h.request(ddm, dataManagerReqGetDevice, func(m *wire.Message) {
		m.PutUint32(device)
		m.PutUint32(seat)
	})

	src1 := h.id()
	h.request(ddm, dataManagerReqCreateSource, func(m *wire.Message) { m.PutUint32(src1) })
	h.request(src1, dataSourceReqOffer, func(m *wire.Message) { m.PutString("text/plain") })
	h.request(device, dataDeviceReqSetSelection, func(m *wire.Message) {
		m.PutUint32(src1)
		m.PutUint32(1)
	})

	// The device hears data_offer, the offered MIME, then selection.
	evs := h.events()
	var sawOffer, sawSelection, sawMime bool
	for _, ev := range evs {
		if ev.Object == device && ev.Opcode == dataDeviceEvtDataOffer {
			sawOffer = true
		}
		if ev.Object == device && ev.Opcode == dataDeviceEvtSelection {
			sawSelection = true
		}
		if ev.Object >= 0xff000000 && ev.Opcode == dataOfferEvtOffer {
			r := wire.NewReader(ev.Data, nil)
			if r.String() == "text/plain" {
				sawMime = true
			}
		}
	}
	require.True(t, sawOffer)
	require.True(t, sawSelection)
	require.True(t, sawMime)

	// Replacing the selection cancels the displaced source exactly
	// once.
	src2 := h.id()
	h.request(ddm, dataManagerReqCreateSource, func(m *wire.Message) { m.PutUint32(src2) })
	h.request(device, dataDeviceReqSetSelection, func(m *wire.Message) {
		m.PutUint32(src2)
		m.PutUint32(2)
	})

	cancelled := 0
	for _, ev := range h.events() {
		if ev.Object == src1 && ev.Opcode == dataSourceEvtCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 1, cancelled)

	// Clearing does not cancel src1 again.
	h.request(device, dataDeviceReqSetSelection, func(m *wire.Message) {
		m.PutUint32(0)
		m.PutUint32(3)
	})
	for _, ev := range h.events() {
		if ev.Object == src1 {
			assert.NotEqual(t, uint16(dataSourceEvtCancelled), ev.Opcode)
		}
	}
}

func TestSelectionSourceTerminalEventsLatch(t *testing.T) {
	src := &SelectionSource{}
	src.SendCancelled()
	src.SendCancelled()
	assert.True(t, src.Cancelled())

	drop := &SelectionSource{}
	drop.SendDropPerformed()
	drop.SendDropPerformed()
	assert.True(t, drop.DropPerformed())
}

func TestFrameCallbackDeferredUntilBufferPresents(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")

	ids := h.createToplevel(compositor, wmBase)
	cb := h.id()
	h.request(ids.surface, surfaceReqFrame, func(m *wire.Message) { m.PutUint32(cb) })
	h.request(ids.surface, surfaceReqCommit, nil)
	h.events()

	// No buffer committed yet: the callback stays queued across
	// presents.
	h.present()
	for _, ev := range h.events() {
		assert.NotEqual(t, cb, ev.Object)
	}

	h.attachCommit(ids.surface, h.createShmBuffer(shm, 8, 8))
	h.events()
	h.present()

	var done bool
	for _, ev := range h.events() {
		if ev.Object == cb && ev.Opcode == 0 {
			done = true
		}
	}
	assert.True(t, done)
}
