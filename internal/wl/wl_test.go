// SPDX-License-Identifier: Unlicense OR MIT

package wl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojehle/wawona/internal/wire"
)

func pipeClient(t *testing.T, d *Display) (*Client, *wire.Conn) {
	t.Helper()
	server, peer, err := wire.NewPair()
	require.NoError(t, err)
	c := d.AddClientConn(server)
	t.Cleanup(func() { peer.Close() })
	return c, peer
}

func pump(t *testing.T, c *Client) {
	t.Helper()
	alive, err := c.Conn().Read()
	require.NoError(t, err)
	require.True(t, alive)
	for {
		msg, ok := c.Conn().Next()
		if !ok {
			break
		}
		require.NoError(t, c.DispatchRaw(msg))
	}
	require.NoError(t, c.Flush())
}

func drain(t *testing.T, peer *wire.Conn) []wire.RawMessage {
	t.Helper()
	_, err := peer.Read()
	require.NoError(t, err)
	var out []wire.RawMessage
	for {
		msg, ok := peer.Next()
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

func TestRegistryAdvertisesGlobals(t *testing.T) {
	d := NewDisplay(t.TempDir())
	d.AddGlobal("wl_compositor", 6, nil)
	d.AddGlobal("wl_shm", 1, nil)
	c, peer := pipeClient(t, d)

	peer.Queue(wire.NewMessage(1, 1).PutUint32(2)) // get_registry
	require.NoError(t, peer.Flush())
	pump(t, c)

	var ifaces []string
	for _, msg := range drain(t, peer) {
		if msg.Object == 2 && msg.Opcode == 0 {
			r := wire.NewReader(msg.Data, nil)
			r.Uint32()
			ifaces = append(ifaces, r.String())
		}
	}
	assert.Equal(t, []string{"wl_compositor", "wl_shm"}, ifaces)
}

func TestBindNegotiatesVersionDown(t *testing.T) {
	d := NewDisplay(t.TempDir())
	var bound *Resource
	g := d.AddGlobal("wl_seat", 5, func(c *Client, res *Resource) { bound = res })
	c, peer := pipeClient(t, d)

	peer.Queue(wire.NewMessage(1, 1).PutUint32(2))
	// Ask for v9 of a v5 global: the bind clamps.
	peer.Queue(wire.NewMessage(2, 0).
		PutUint32(g.Name).
		PutString("wl_seat").
		PutUint32(9).
		PutUint32(3))
	require.NoError(t, peer.Flush())
	pump(t, c)

	require.NotNil(t, bound)
	assert.Equal(t, uint32(5), bound.Version())
	assert.Equal(t, uint32(3), bound.ID())
}

func TestSyncCallbackFiresAndDies(t *testing.T) {
	d := NewDisplay(t.TempDir())
	c, peer := pipeClient(t, d)

	peer.Queue(wire.NewMessage(1, 0).PutUint32(5)) // sync
	require.NoError(t, peer.Flush())
	pump(t, c)

	var sawDone, sawDelete bool
	for _, msg := range drain(t, peer) {
		if msg.Object == 5 && msg.Opcode == 0 {
			sawDone = true
		}
		if msg.Object == 1 && msg.Opcode == 1 {
			sawDelete = true
		}
	}
	assert.True(t, sawDone)
	assert.True(t, sawDelete)
	assert.Nil(t, c.Get(5))
}

func TestDoubleDestroyIsNoOp(t *testing.T) {
	d := NewDisplay(t.TempDir())
	c, _ := pipeClient(t, d)

	res := c.NewResource(10, "wl_region", 1)
	fired := 0
	res.OnDestroy = func() { fired++ }
	res.Destroy()
	res.Destroy()
	assert.Equal(t, 1, fired)
	assert.Nil(t, c.Get(10))

	// A request for the destroyed object is tolerated.
	require.NoError(t, c.DispatchRaw(wire.RawMessage{Object: 10, Opcode: 1}))
}

func TestProtocolErrorMarksClientFatal(t *testing.T) {
	d := NewDisplay(t.TempDir())
	c, peer := pipeClient(t, d)

	res := c.NewResource(4, "wl_surface", 6)
	c.PostError(res, 2, "bad role")
	require.True(t, c.Fatal())
	require.NoError(t, c.Flush())

	msgs := drain(t, peer)
	require.NotEmpty(t, msgs)
	assert.Equal(t, uint32(1), msgs[0].Object)
	assert.Equal(t, uint16(0), msgs[0].Opcode)
	r := wire.NewReader(msgs[0].Data, nil)
	assert.Equal(t, uint32(4), r.Uint32())
	assert.Equal(t, uint32(2), r.Uint32())
	assert.Equal(t, "bad role", r.String())
}

func TestSweepRunsDestructorsNewestFirst(t *testing.T) {
	d := NewDisplay(t.TempDir())
	c, _ := pipeClient(t, d)

	var order []uint32
	for _, id := range []uint32{10, 11, 12} {
		id := id
		c.NewResource(id, "wl_surface", 6).OnDestroy = func() {
			order = append(order, id)
		}
	}
	d.DisconnectClient(c)
	assert.Equal(t, []uint32{12, 11, 10}, order)
}

func TestServerResourceIDRange(t *testing.T) {
	d := NewDisplay(t.TempDir())
	c, _ := pipeClient(t, d)

	a := c.NewServerResource("wl_data_offer", 3)
	b := c.NewServerResource("wl_data_offer", 3)
	assert.GreaterOrEqual(t, a.ID(), uint32(ServerIDBase))
	assert.Equal(t, a.ID()+1, b.ID())
}

func TestRuntimeDirFallback(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/custom/run")
	dir, err := RuntimeDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/run", dir)
}

func TestListenCreatesAndRemovesSocket(t *testing.T) {
	d := NewDisplay(t.TempDir())
	path, err := d.Listen("wayland-test-0")
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.Error(t, d.ListenVsock(1234))

	d.Close()
	assert.NoFileExists(t, path)
}
