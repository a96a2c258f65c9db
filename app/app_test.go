// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/io/event"
)

func newRunning(t *testing.T) *Compositor {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	c := New(Config{SocketName: "wayland-test", OutputWidth: 1920, OutputHeight: 1080})
	require.NoError(t, c.Start())
	t.Cleanup(c.Stop)
	return c
}

func TestStartStopLifecycle(t *testing.T) {
	c := newRunning(t)
	assert.True(t, c.IsRunning())
	assert.FileExists(t, c.SocketPath())

	require.NoError(t, c.AddSocket("wayland-nested"))

	path := c.SocketPath()
	c.Stop()
	assert.False(t, c.IsRunning())
	assert.NoFileExists(t, path)

	// Stopping twice is harmless.
	c.Stop()
}

func TestClientConnectAndRoundTrip(t *testing.T) {
	c := newRunning(t)

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fd)
	require.NoError(t, unix.Connect(fd, &unix.SockaddrUnix{Name: c.SocketPath()}))

	// wl_display.sync(id=2): the done callback proves a full
	// request/event round trip through the tick loop.
	sync := []byte{
		1, 0, 0, 0, // object 1
		0, 0, 12, 0, // opcode 0, size 12
		2, 0, 0, 0, // new id 2
	}
	n, err := unix.Write(fd, sync)
	require.NoError(t, err)
	require.Equal(t, len(sync), n)

	require.True(t, c.ProcessEvents())

	buf := make([]byte, 256)
	n, err = unix.Read(fd, buf)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 12)
	// First event is wl_callback.done on object 2.
	assert.Equal(t, byte(2), buf[0])
}

func TestInputQueueDrainsOnTick(t *testing.T) {
	c := newRunning(t)
	c.InjectPointerMotion(10, 20, 1)
	c.InjectKey(30, true, 2)
	c.InjectTouchFrame()
	require.True(t, c.ProcessEvents())

	// No events for an empty scene, and the queues are drained.
	_, ok := c.PopWindowEvent()
	assert.False(t, ok)
	_, ok = c.PopPendingBuffer()
	assert.False(t, ok)
}

func TestSetOutputSizePropagates(t *testing.T) {
	c := newRunning(t)
	c.SetOutputSize(2560, 1440, 2)
	require.True(t, c.ProcessEvents())

	o := c.State().PrimaryOutput()
	require.NotNil(t, o)
	assert.Equal(t, int32(2560), o.Width)
	assert.Equal(t, int32(1440), o.Height)
	assert.Equal(t, 2.0, o.Scale)
}

func TestPopWindowEventOrder(t *testing.T) {
	c := newRunning(t)
	c.State().Emit(event.WindowCreated{Window: 7})
	c.State().Emit(event.WindowTitleChanged{Window: 7, Title: "x"})
	require.True(t, c.ProcessEvents())

	ev, ok := c.PopWindowEvent()
	require.True(t, ok)
	assert.IsType(t, event.WindowCreated{}, ev)
	ev, ok = c.PopWindowEvent()
	require.True(t, ok)
	assert.IsType(t, event.WindowTitleChanged{}, ev)
}
