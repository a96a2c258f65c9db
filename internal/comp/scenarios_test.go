// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/io/event"
	"github.com/ojehle/wawona/io/input"
)

func decodeToplevelConfigure(t *testing.T, ev serverEvent) (int32, int32, []uint32) {
	t.Helper()
	r := wire.NewReader(ev.Data, nil)
	w := r.Int32()
	h := r.Int32()
	arr := r.Array()
	require.NoError(t, r.Err())
	var states []uint32
	for i := 0; i+4 <= len(arr); i += 4 {
		states = append(states, uint32(arr[i])|uint32(arr[i+1])<<8|uint32(arr[i+2])<<16|uint32(arr[i+3])<<24)
	}
	return w, h, states
}

func TestToplevelLifecycle(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	h.st.DrainEvents()

	ids := h.createToplevel(compositor, wmBase)
	evs := h.events()

	var sawToplevelConfigure, sawSurfaceConfigure bool
	var serial uint32
	for _, ev := range filterEvents(evs, ids.toplevel) {
		if ev.Opcode == toplevelEvtConfigure {
			sawToplevelConfigure = true
			_, _, states := decodeToplevelConfigure(t, ev)
			assert.Contains(t, states, toplevelStateActivated)
		}
	}
	for _, ev := range filterEvents(evs, ids.xdgSurface) {
		if ev.Opcode == xdgSurfaceEvtConfigure {
			sawSurfaceConfigure = true
			r := wire.NewReader(ev.Data, nil)
			serial = r.Uint32()
		}
	}
	require.True(t, sawToplevelConfigure)
	require.True(t, sawSurfaceConfigure)
	require.NotZero(t, serial)

	buf := h.createShmBuffer(shm, 640, 480)
	h.attachCommit(ids.surface, buf)

	drained := h.st.DrainEvents()
	var created *event.WindowCreated
	var committed *event.SurfaceCommitted
	for _, ev := range drained {
		switch e := ev.(type) {
		case event.WindowCreated:
			created = &e
		case event.SurfaceCommitted:
			committed = &e
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, ids.internal, created.Surface)
	assert.Equal(t, event.DecorationClientSide, created.Decoration)
	require.NotNil(t, committed)
	assert.Equal(t, ids.internal, committed.Surface)
	assert.NotZero(t, committed.Buffer)

	// The committed surface size becomes the window size.
	w := h.st.Window(ids.window)
	require.NotNil(t, w)
	assert.Equal(t, int32(640), w.Width)
	assert.Equal(t, int32(480), w.Height)

	// Acking the configure produces no further platform events.
	h.request(ids.xdgSurface, xdgSurfaceReqAckConfigure, func(m *wire.Message) { m.PutUint32(serial) })
	assert.Empty(t, h.st.DrainEvents())
}

func TestMaximizeRestore(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")

	ids := h.createToplevel(compositor, wmBase)
	buf := h.createShmBuffer(shm, 640, 480)
	h.attachCommit(ids.surface, buf)
	h.st.Window(ids.window).X = 100
	h.st.Window(ids.window).Y = 100
	h.events()
	h.st.DrainEvents()

	before := h.st.Serial()
	h.request(ids.toplevel, toplevelReqSetMaximized, nil)

	evs := filterEvents(h.events(), ids.toplevel)
	require.NotEmpty(t, evs)
	w, hh, states := decodeToplevelConfigure(t, evs[len(evs)-1])
	assert.Equal(t, int32(1920), w)
	assert.Equal(t, int32(1080), hh)
	assert.Contains(t, states, toplevelStateMaximized)
	assert.Contains(t, states, toplevelStateActivated)
	serial := h.st.Serial()
	assert.Equal(t, before+1, serial)

	h.request(ids.xdgSurface, xdgSurfaceReqAckConfigure, func(m *wire.Message) { m.PutUint32(serial) })
	big := h.createShmBuffer(shm, 1920, 1080)
	h.attachCommit(ids.surface, big)

	var maximized *event.WindowMaximized
	for _, ev := range h.st.DrainEvents() {
		if e, ok := ev.(event.WindowMaximized); ok {
			maximized = &e
		}
	}
	require.NotNil(t, maximized)
	assert.True(t, maximized.Maximized)
	assert.Equal(t, ids.window, maximized.Window)

	// Restore proposes the saved geometry.
	h.request(ids.toplevel, toplevelReqUnsetMaximized, nil)
	evs = filterEvents(h.events(), ids.toplevel)
	require.NotEmpty(t, evs)
	w, hh, states = decodeToplevelConfigure(t, evs[len(evs)-1])
	assert.Equal(t, int32(640), w)
	assert.Equal(t, int32(480), hh)
	assert.Contains(t, states, toplevelStateActivated)
	assert.NotContains(t, states, toplevelStateMaximized)
}

func TestFullscreenIgnoresMinMax(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	ids := h.createToplevel(compositor, wmBase)

	h.request(ids.toplevel, toplevelReqSetMaxSize, func(m *wire.Message) {
		m.PutInt32(800)
		m.PutInt32(600)
	})
	h.events()
	h.request(ids.toplevel, toplevelReqSetFullscreen, func(m *wire.Message) { m.PutUint32(0) })

	evs := filterEvents(h.events(), ids.toplevel)
	require.NotEmpty(t, evs)
	w, hh, states := decodeToplevelConfigure(t, evs[len(evs)-1])
	assert.Equal(t, int32(1920), w)
	assert.Equal(t, int32(1080), hh)
	assert.Contains(t, states, toplevelStateFullscreen)
}

func TestDragAndDrop(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	ddm := h.bind("wl_data_device_manager")
	seat := h.bind("wl_seat")

	device := h.id()
	h.request(ddm, dataManagerReqGetDevice, func(m *wire.Message) {
		m.PutUint32(device)
		m.PutUint32(seat)
	})

	origin := h.createToplevel(compositor, wmBase)
	h.attachCommit(origin.surface, h.createShmBuffer(shm, 100, 100))
	dest := h.createToplevel(compositor, wmBase)
	h.attachCommit(dest.surface, h.createShmBuffer(shm, 100, 100))
	h.st.Window(dest.window).X = 200

	source := h.id()
	h.request(ddm, dataManagerReqCreateSource, func(m *wire.Message) { m.PutUint32(source) })
	h.request(source, dataSourceReqOffer, func(m *wire.Message) { m.PutString("text/plain") })

	// Press on the origin establishes the implicit grab start_drag
	// requires; the drag passes the press serial.
	h.st.InjectPointerMotion(50, 50, 1)
	h.st.InjectPointerButton(input.BtnLeft, buttonStatePressed, 2)
	serial := h.st.Serial()
	h.events()

	h.request(device, dataDeviceReqStartDrag, func(m *wire.Message) {
		m.PutUint32(source)
		m.PutUint32(origin.surface)
		m.PutUint32(0)
		m.PutUint32(serial)
	})
	require.True(t, h.st.Dragging())

	// Motion onto the destination: enter with a fresh offer, then
	// motion.
	h.st.InjectPointerMotion(250, 50, 3)
	h.st.InjectPointerMotion(251, 51, 4)
	evs := filterEvents(h.events(), device)
	var sawOffer, sawEnter, sawMotion bool
	for _, ev := range evs {
		switch ev.Opcode {
		case dataDeviceEvtDataOffer:
			sawOffer = true
		case dataDeviceEvtEnter:
			sawEnter = true
		case dataDeviceEvtMotion:
			sawMotion = true
		}
	}
	require.True(t, sawOffer)
	require.True(t, sawEnter)
	require.True(t, sawMotion)

	// Release performs the drop.
	h.st.InjectPointerButton(input.BtnLeft, buttonStateReleased, 5)
	require.False(t, h.st.Dragging())

	var sawDrop, sawDropPerformed bool
	for _, ev := range h.events() {
		if ev.Object == device && ev.Opcode == dataDeviceEvtDrop {
			sawDrop = true
		}
		if ev.Object == source && ev.Opcode == dataSourceEvtDndDropPerformed {
			sawDropPerformed = true
		}
	}
	assert.True(t, sawDrop)
	assert.True(t, sawDropPerformed)
}

func TestPopupGrabDismissOrder(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	seat := h.bind("wl_seat")

	parent := h.createToplevel(compositor, wmBase)
	h.attachCommit(parent.surface, h.createShmBuffer(shm, 1000, 1000))

	makePopup := func(parentXdg uint32, x int32) (uint32, uint32) {
		pos := h.id()
		h.request(wmBase, wmBaseReqCreatePositioner, func(m *wire.Message) { m.PutUint32(pos) })
		h.request(pos, positionerReqSetSize, func(m *wire.Message) {
			m.PutInt32(50)
			m.PutInt32(50)
		})
		h.request(pos, positionerReqSetAnchorRect, func(m *wire.Message) {
			m.PutInt32(x)
			m.PutInt32(500)
			m.PutInt32(1)
			m.PutInt32(1)
		})
		sid, internal := h.createSurface(compositor)
		xs := h.id()
		h.request(wmBase, wmBaseReqGetXdgSurface, func(m *wire.Message) {
			m.PutUint32(xs)
			m.PutUint32(sid)
		})
		popup := h.id()
		h.request(xs, xdgSurfaceReqGetPopup, func(m *wire.Message) {
			m.PutUint32(popup)
			m.PutUint32(parentXdg)
			m.PutUint32(pos)
		})
		h.attachCommit(sid, h.createShmBuffer(shm, 50, 50))
		_ = internal
		h.request(popup, popupReqGrab, func(m *wire.Message) {
			m.PutUint32(seat)
			m.PutUint32(h.st.Serial())
		})
		return popup, xs
	}

	p1, p1xs := makePopup(parent.xdgSurface, 500)
	p2, _ := makePopup(p1xs, 600)
	require.Equal(t, 2, h.st.PopupGrabDepth())
	h.events()

	// Press over the parent window but outside both popups.
	h.st.InjectPointerMotion(10, 10, 1)
	h.st.InjectPointerButton(input.BtnLeft, buttonStatePressed, 2)
	require.Zero(t, h.st.PopupGrabDepth())

	// popup_done arrives top-down: P2 first, then P1.
	var doneOrder []uint32
	for _, ev := range h.events() {
		if ev.Opcode == popupEvtPopupDone && (ev.Object == p1 || ev.Object == p2) {
			doneOrder = append(doneOrder, ev.Object)
		}
	}
	require.Equal(t, []uint32{p2, p1}, doneOrder)
}

func TestPopupSceneKeepsAbsolutePosition(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")

	parent := h.createToplevel(compositor, wmBase)
	h.attachCommit(parent.surface, h.createShmBuffer(shm, 400, 400))
	// A parent away from the origin must not displace its popups:
	// popup geometry is absolute, node positions parent-relative.
	h.st.Window(parent.window).X = 300
	h.st.Window(parent.window).Y = 200

	makePopup := func(parentXdg uint32, ax, ay int32) (uint32, uint32) {
		pos := h.id()
		h.request(wmBase, wmBaseReqCreatePositioner, func(m *wire.Message) { m.PutUint32(pos) })
		h.request(pos, positionerReqSetSize, func(m *wire.Message) {
			m.PutInt32(50)
			m.PutInt32(50)
		})
		h.request(pos, positionerReqSetAnchorRect, func(m *wire.Message) {
			m.PutInt32(ax)
			m.PutInt32(ay)
			m.PutInt32(1)
			m.PutInt32(1)
		})
		sid, internal := h.createSurface(compositor)
		xs := h.id()
		h.request(wmBase, wmBaseReqGetXdgSurface, func(m *wire.Message) {
			m.PutUint32(xs)
			m.PutUint32(sid)
		})
		popup := h.id()
		h.request(xs, xdgSurfaceReqGetPopup, func(m *wire.Message) {
			m.PutUint32(popup)
			m.PutUint32(parentXdg)
			m.PutUint32(pos)
		})
		h.attachCommit(sid, h.createShmBuffer(shm, 50, 50))
		return internal, xs
	}

	p1, p1xs := makePopup(parent.xdgSurface, 500, 500)
	p2, _ := makePopup(p1xs, 600, 500)

	geometryOf := func(surface uint32) Rect {
		for _, p := range h.st.xdg.popups {
			if p.Surface == surface {
				return p.Geometry
			}
		}
		t.Fatalf("no popup for surface %d", surface)
		return Rect{}
	}

	h.st.BuildScene()
	flat := h.st.Scene().Flatten()
	found := 0
	for _, fs := range flat {
		switch fs.SurfaceID {
		case p1, p2:
			g := geometryOf(fs.SurfaceID)
			assert.Equal(t, g.X, fs.X)
			assert.Equal(t, g.Y, fs.Y)
			found++
		}
	}
	// Both popups are in the scene, the chained one included.
	require.Equal(t, 2, found)
}

func TestSubsurfaceSyncCommit(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	sub := h.bind("wl_subcompositor")

	parent := h.createToplevel(compositor, wmBase)
	childSID, childInternal := h.createSurface(compositor)
	subres := h.id()
	h.request(sub, subcompositorReqGetSubsurface, func(m *wire.Message) {
		m.PutUint32(subres)
		m.PutUint32(childSID)
		m.PutUint32(parent.surface)
	})
	require.True(t, h.st.EffectivelySync(childInternal))

	// Committing the synced child caches its state; nothing visible
	// changes.
	childBuf := h.createShmBuffer(shm, 32, 32)
	h.attachCommit(childSID, childBuf)
	require.Zero(t, h.st.Surface(childInternal).Current.BufferID)
	require.NotNil(t, h.st.Surface(childInternal).Cached)

	// The parent commit applies the cached child state transitively.
	parentBuf := h.createShmBuffer(shm, 200, 200)
	h.attachCommit(parent.surface, parentBuf)
	require.NotZero(t, h.st.Surface(parent.internal).Current.BufferID)
	require.NotZero(t, h.st.Surface(childInternal).Current.BufferID)
	require.Nil(t, h.st.Surface(childInternal).Cached)

	// Replacing the child's buffer releases the displaced one only
	// after the present signal.
	childBuf2 := h.createShmBuffer(shm, 32, 32)
	h.attachCommit(childSID, childBuf2)
	h.request(parent.surface, surfaceReqCommit, nil)
	require.Equal(t, 1, h.st.PendingReleaseCount())
	h.events()

	h.present()
	var released []uint32
	for _, ev := range h.events() {
		if ev.Object == childBuf && ev.Opcode == 0 {
			released = append(released, ev.Object)
		}
	}
	require.Len(t, released, 1)
}

func TestLayerShellUsableArea(t *testing.T) {
	h := newHarness(t)
	h.st.UpdateOutput(1, 1000, 800, 60000, 1, 0, 0, [4]int32{})
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	layerShell := h.bind("zwlr_layer_shell_v1")

	sid, internal := h.createSurface(compositor)
	ls := h.id()
	h.request(layerShell, layerShellReqGetLayerSurface, func(m *wire.Message) {
		m.PutUint32(ls)
		m.PutUint32(sid)
		m.PutUint32(0) // output: compositor picks
		m.PutUint32(LayerTop)
		m.PutString("panel")
	})
	h.request(ls, layerSurfaceReqSetAnchor, func(m *wire.Message) { m.PutUint32(anchorTop) })
	h.request(ls, layerSurfaceReqSetExclusiveZone, func(m *wire.Message) { m.PutInt32(30) })
	h.request(sid, surfaceReqCommit, nil)
	require.Equal(t, RoleLayer, h.st.Surface(internal).Role)

	usable, ok := h.st.UsableArea(1)
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 30, Width: 1000, Height: 770}, usable)

	// A maximized toplevel targets the reduced area.
	ids := h.createToplevel(compositor, wmBase)
	h.events()
	h.request(ids.toplevel, toplevelReqSetMaximized, nil)
	evs := filterEvents(h.events(), ids.toplevel)
	require.NotEmpty(t, evs)
	w, hh, _ := decodeToplevelConfigure(t, evs[len(evs)-1])
	assert.Equal(t, int32(1000), w)
	assert.Equal(t, int32(770), hh)
}

func TestMaximizeZeroUsableArea(t *testing.T) {
	h := newHarness(t)
	h.st.UpdateOutput(1, 100, 100, 60000, 1, 0, 0, [4]int32{})
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	layerShell := h.bind("zwlr_layer_shell_v1")

	sid, _ := h.createSurface(compositor)
	ls := h.id()
	h.request(layerShell, layerShellReqGetLayerSurface, func(m *wire.Message) {
		m.PutUint32(ls)
		m.PutUint32(sid)
		m.PutUint32(0)
		m.PutUint32(LayerOverlay)
		m.PutString("cover")
	})
	h.request(ls, layerSurfaceReqSetAnchor, func(m *wire.Message) { m.PutUint32(anchorTop) })
	h.request(ls, layerSurfaceReqSetExclusiveZone, func(m *wire.Message) { m.PutInt32(100) })
	h.request(sid, surfaceReqCommit, nil)

	ids := h.createToplevel(compositor, wmBase)
	h.events()
	h.request(ids.toplevel, toplevelReqSetMaximized, nil)
	evs := filterEvents(h.events(), ids.toplevel)
	require.NotEmpty(t, evs)
	w, hh, _ := decodeToplevelConfigure(t, evs[len(evs)-1])
	assert.Zero(t, w)
	assert.Zero(t, hh)

	// Ack at 0x0 finalizes without crashing.
	serial := h.st.Serial()
	h.request(ids.xdgSurface, xdgSurfaceReqAckConfigure, func(m *wire.Message) { m.PutUint32(serial) })
	assert.True(t, h.st.Window(ids.window).Maximized)
}
