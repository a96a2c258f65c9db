// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/io/input"
)

func framePresentedAt(t time.Time) input.FramePresented {
	return input.FramePresented{
		TimestampNS: uint64(t.UnixNano()),
		RefreshNS:   16_666_666,
		Sequence:    1,
	}
}

// harness drives the full dispatch stack over a real socketpair: the
// test plays the client side of the wire, the server side runs the
// same path production traffic takes.
type harness struct {
	t       *testing.T
	st      *State
	display *wl.Display
	client  *wl.Client
	peer    *wire.Conn

	globals map[string]struct {
		name    uint32
		version uint32
	}
	nextID uint32

	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	display := wl.NewDisplay(t.TempDir())
	st := New(display, Features{Desktop: true, FullscreenShell: true})
	st.AddOutput(&Output{ID: 1, Width: 1920, Height: 1080, RefreshMHz: 60000, Scale: 1})
	st.RegisterGlobals(display)
	display.OnDisconnect = func(c *wl.Client) { st.ClientDisconnected(c.ID()) }

	server, peer, err := wire.NewPair()
	require.NoError(t, err)
	client := display.AddClientConn(server)

	h := &harness{
		t:       t,
		st:      st,
		display: display,
		client:  client,
		peer:    peer,
		globals: make(map[string]struct {
			name    uint32
			version uint32
		}),
		nextID: 2,
		clock:  time.Unix(1000, 0),
	}
	st.SetClock(func() time.Time { return h.clock })
	t.Cleanup(func() { peer.Close(); display.Close() })

	// wl_display.get_registry(id=2), then learn the global list.
	h.request(1, 1, func(m *wire.Message) { m.PutUint32(2) })
	for _, ev := range h.events() {
		if ev.Object == 2 && ev.Opcode == 0 {
			r := wire.NewReader(ev.Data, nil)
			name := r.Uint32()
			iface := r.String()
			version := r.Uint32()
			require.NoError(t, r.Err())
			h.globals[iface] = struct {
				name    uint32
				version uint32
			}{name, version}
		}
	}
	return h
}

func (h *harness) id() uint32 {
	h.nextID++
	return h.nextID
}

// request sends one client request and pumps the server side.
func (h *harness) request(object uint32, opcode uint16, build func(*wire.Message)) {
	h.t.Helper()
	m := wire.NewMessage(object, opcode)
	if build != nil {
		build(m)
	}
	h.peer.Queue(m)
	require.NoError(h.t, h.peer.Flush())
	h.pump()
}

// pump reads and dispatches everything the server socket holds, then
// flushes events back to the peer.
func (h *harness) pump() {
	h.t.Helper()
	conn := h.client.Conn()
	alive, err := conn.Read()
	require.NoError(h.t, err)
	require.True(h.t, alive)
	for {
		msg, ok := conn.Next()
		if !ok {
			break
		}
		require.NoError(h.t, h.client.DispatchRaw(msg))
	}
	require.NoError(h.t, h.client.Flush())
}

type serverEvent struct {
	Object uint32
	Opcode uint16
	Data   []byte
}

// events drains everything the server has sent to the client side.
func (h *harness) events() []serverEvent {
	h.t.Helper()
	require.NoError(h.t, h.client.Flush())
	_, err := h.peer.Read()
	require.NoError(h.t, err)
	var out []serverEvent
	for {
		msg, ok := h.peer.Next()
		if !ok {
			return out
		}
		out = append(out, serverEvent{Object: msg.Object, Opcode: msg.Opcode, Data: msg.Data})
	}
}

// filterEvents keeps the events addressed to one object.
func filterEvents(evs []serverEvent, object uint32) []serverEvent {
	var out []serverEvent
	for _, ev := range evs {
		if ev.Object == object {
			out = append(out, ev)
		}
	}
	return out
}

// bind binds a named global at its advertised version.
func (h *harness) bind(iface string) uint32 {
	h.t.Helper()
	g, ok := h.globals[iface]
	require.True(h.t, ok, "global %s not advertised", iface)
	id := h.id()
	h.request(2, 0, func(m *wire.Message) {
		m.PutUint32(g.name)
		m.PutString(iface)
		m.PutUint32(g.version)
		m.PutUint32(id)
	})
	return id
}

// createSurface makes a wl_surface and returns (protocol id, internal
// id).
func (h *harness) createSurface(compositor uint32) (uint32, uint32) {
	h.t.Helper()
	id := h.id()
	h.request(compositor, compositorReqCreateSurface, func(m *wire.Message) { m.PutUint32(id) })
	res := h.client.Get(id)
	require.NotNil(h.t, res)
	internal, ok := res.Data.(uint32)
	require.True(h.t, ok)
	return id, internal
}

// createShmBuffer builds a memfd-backed pool and carves one buffer.
func (h *harness) createShmBuffer(shm uint32, width, height int32) uint32 {
	h.t.Helper()
	size := width * height * 4
	fd, err := unix.MemfdCreate("test-pool", unix.MFD_CLOEXEC)
	require.NoError(h.t, err)
	require.NoError(h.t, unix.Ftruncate(fd, int64(size)))

	pool := h.id()
	h.request(shm, shmReqCreatePool, func(m *wire.Message) {
		m.PutUint32(pool)
		m.PutFd(fd)
		m.PutInt32(size)
	})
	buf := h.id()
	h.request(pool, shmPoolReqCreateBuffer, func(m *wire.Message) {
		m.PutUint32(buf)
		m.PutInt32(0)
		m.PutInt32(width)
		m.PutInt32(height)
		m.PutInt32(width * 4)
		m.PutUint32(FormatARGB8888)
	})
	return buf
}

// toplevelIDs is what createToplevel returns after running the full
// surface → xdg_surface → xdg_toplevel chain: the protocol ids, the
// internal surface id and the window id.
type toplevelIDs struct {
	surface    uint32
	internal   uint32
	xdgSurface uint32
	toplevel   uint32
	window     uint32
}

func (h *harness) createToplevel(compositor, wmBase uint32) toplevelIDs {
	h.t.Helper()
	sid, internal := h.createSurface(compositor)
	xs := h.id()
	h.request(wmBase, wmBaseReqGetXdgSurface, func(m *wire.Message) {
		m.PutUint32(xs)
		m.PutUint32(sid)
	})
	tl := h.id()
	h.request(xs, xdgSurfaceReqGetToplevel, func(m *wire.Message) { m.PutUint32(tl) })
	w := h.st.WindowForSurface(internal)
	require.NotNil(h.t, w)
	return toplevelIDs{surface: sid, internal: internal, xdgSurface: xs, toplevel: tl, window: w.ID}
}

// attachCommit attaches a buffer and commits.
func (h *harness) attachCommit(surface, buffer uint32) {
	h.t.Helper()
	h.request(surface, surfaceReqAttach, func(m *wire.Message) {
		m.PutUint32(buffer)
		m.PutInt32(0)
		m.PutInt32(0)
	})
	h.request(surface, surfaceReqCommit, nil)
}

// present simulates a frame-present notification.
func (h *harness) present() {
	h.st.HandleFramePresented(framePresentedAt(h.clock))
}
