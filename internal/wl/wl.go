// SPDX-License-Identifier: Unlicense OR MIT

// Package wl implements the server side of the Wayland object model:
// listening sockets, per-client resource maps, global advertisement and
// version negotiation, and fatal protocol-error posting.
package wl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wire"
)

// Well-known object and opcode numbers of the wl_display and
// wl_registry protocol, which every client speaks before binding
// anything else.
const (
	displayObjectID = 1

	displayReqSync        = 0
	displayReqGetRegistry = 1

	displayEvtError    = 0
	displayEvtDeleteID = 1

	registryReqBind = 0

	registryEvtGlobal       = 0
	registryEvtGlobalRemove = 1

	callbackEvtDone = 0
)

// DisplayError codes defined by wl_display.
const (
	ErrInvalidObject  = 0
	ErrInvalidMethod  = 1
	ErrNoMemory       = 2
	ErrImplementation = 3
)

// Global is one advertised global interface. Bind is invoked with the
// freshly minted resource when a client binds it.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
	Bind      func(c *Client, res *Resource)
}

// Display owns the sockets, the clients and the global list.
type Display struct {
	runtimeDir string
	listeners  []*listener
	clients    map[uint64]*Client
	globals    []*Global

	nextGlobalName uint32
	nextClientID   uint64

	// OnDisconnect runs after a client's resources were swept.
	OnDisconnect func(c *Client)
}

type listener struct {
	fd   int
	path string
}

// RuntimeDir resolves $XDG_RUNTIME_DIR with the /tmp/<uid>-runtime
// fallback, creating the fallback with mode 0700.
func RuntimeDir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("%d-runtime", os.Getuid()))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "wl: create runtime dir")
	}
	return dir, nil
}

func NewDisplay(runtimeDir string) *Display {
	return &Display{
		runtimeDir:     runtimeDir,
		clients:        make(map[uint64]*Client),
		nextGlobalName: 1,
		nextClientID:   1,
	}
}

// AddGlobal registers and advertises a global to all current clients.
func (d *Display) AddGlobal(iface string, version uint32, bind func(c *Client, res *Resource)) *Global {
	g := &Global{
		Name:      d.nextGlobalName,
		Interface: iface,
		Version:   version,
		Bind:      bind,
	}
	d.nextGlobalName++
	d.globals = append(d.globals, g)
	for _, c := range d.clients {
		for _, reg := range c.registries {
			c.sendGlobal(reg, g)
		}
	}
	return g
}

// RemoveGlobal withdraws a global; bound resources stay alive.
func (d *Display) RemoveGlobal(g *Global) {
	for i, o := range d.globals {
		if o == g {
			d.globals = append(d.globals[:i], d.globals[i+1:]...)
			break
		}
	}
	for _, c := range d.clients {
		for _, reg := range c.registries {
			c.Queue(wire.NewMessage(reg, registryEvtGlobalRemove).PutUint32(g.Name))
		}
	}
}

// Listen binds a unix socket under the runtime directory. A stale
// socket file is removed first.
func (d *Display) Listen(name string) (string, error) {
	path := filepath.Join(d.runtimeDir, name)
	_ = os.Remove(path)
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return "", errors.Wrap(err, "wl: socket")
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return "", errors.Wrapf(err, "wl: bind %s", path)
	}
	if err := unix.Listen(fd, 16); err != nil {
		unix.Close(fd)
		os.Remove(path)
		return "", errors.Wrapf(err, "wl: listen %s", path)
	}
	d.listeners = append(d.listeners, &listener{fd: fd, path: path})
	log.Info().Str("socket", path).Msg("listening")
	return path, nil
}

// ListenVsock is reserved for VM transports; the wiring does not exist
// yet and the call always fails.
func (d *Display) ListenVsock(port uint32) error {
	return errors.Errorf("wl: vsock transport not implemented (port %d)", port)
}

// Accept drains pending connections from every listener.
func (d *Display) Accept() []*Client {
	var accepted []*Client
	for _, l := range d.listeners {
		for {
			fd, _, err := unix.Accept(l.fd)
			if err != nil {
				break
			}
			conn, err := wire.NewConn(fd)
			if err != nil {
				unix.Close(fd)
				continue
			}
			accepted = append(accepted, d.addClient(conn))
		}
	}
	return accepted
}

// AddClientConn attaches an already-connected socket, e.g. one end of a
// socketpair handed to a nested client.
func (d *Display) AddClientConn(conn *wire.Conn) *Client {
	return d.addClient(conn)
}

func (d *Display) addClient(conn *wire.Conn) *Client {
	c := &Client{
		id:        d.nextClientID,
		display:   d,
		conn:      conn,
		resources: make(map[uint32]*Resource),
	}
	d.nextClientID++
	d.clients[c.id] = c
	log.Debug().Uint64("client", c.id).Msg("client connected")
	return c
}

// Clients returns the live client set in no particular order.
func (d *Display) Clients() []*Client {
	out := make([]*Client, 0, len(d.clients))
	for _, c := range d.clients {
		out = append(out, c)
	}
	return out
}

// DisconnectClient sweeps a client's resources (newest first, so
// children go before the parents that minted them) and closes its
// socket.
func (d *Display) DisconnectClient(c *Client) {
	if _, ok := d.clients[c.id]; !ok {
		return
	}
	delete(d.clients, c.id)
	c.sweep()
	if c.conn != nil {
		c.conn.Close()
	}
	if d.OnDisconnect != nil {
		d.OnDisconnect(c)
	}
	log.Debug().Uint64("client", c.id).Msg("client disconnected")
}

// PollFds lists every descriptor the tick loop should poll: listeners
// first, then client sockets.
func (d *Display) PollFds() []int {
	fds := make([]int, 0, len(d.listeners)+len(d.clients))
	for _, l := range d.listeners {
		fds = append(fds, l.fd)
	}
	for _, c := range d.clients {
		if c.conn != nil {
			fds = append(fds, c.conn.Fd())
		}
	}
	return fds
}

// Close shuts every client down and removes the socket files.
func (d *Display) Close() {
	for _, c := range d.Clients() {
		d.DisconnectClient(c)
	}
	for _, l := range d.listeners {
		unix.Close(l.fd)
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("socket", l.path).Msg("remove socket file")
		}
	}
	d.listeners = nil
}
