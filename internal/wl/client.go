// SPDX-License-Identifier: Unlicense OR MIT

package wl

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wire"
)

// Resource is one protocol object owned by a client. Data carries the
// typed user data the owning component attached at creation: usually an
// internal entity id, sometimes a small per-resource record.
type Resource struct {
	client  *Client
	id      uint32
	iface   string
	version uint32

	// Data is the per-resource user data.
	Data any
	// Dispatch routes a request to the owning component.
	Dispatch func(op uint16, r *wire.Reader) error
	// OnDestroy runs once when the resource dies, whether by
	// destructor request, sweep or disconnect.
	OnDestroy func()

	dead bool
}

func (r *Resource) Client() *Client   { return r.client }
func (r *Resource) ID() uint32        { return r.id }
func (r *Resource) Interface() string { return r.iface }
func (r *Resource) Version() uint32   { return r.version }
func (r *Resource) Alive() bool       { return r != nil && !r.dead }

// Send queues an event on this resource. A nil or dead resource drops
// the event, which keeps callers tolerant of teardown races.
func (r *Resource) Send(m *wire.Message) {
	if !r.Alive() {
		return
	}
	r.client.Queue(m)
}

// NewEvent starts an event message addressed to this resource.
func (r *Resource) NewEvent(opcode uint16) *wire.Message {
	return wire.NewMessage(r.id, opcode)
}

// Destroy removes the resource from its client and confirms the id back
// so the client may reuse it.
func (r *Resource) Destroy() {
	if !r.Alive() {
		return
	}
	r.dead = true
	delete(r.client.resources, r.id)
	if r.OnDestroy != nil {
		r.OnDestroy()
	}
	r.client.Queue(wire.NewMessage(displayObjectID, displayEvtDeleteID).PutUint32(r.id))
}

// Client is one connected Wayland client.
type Client struct {
	id      uint64
	display *Display
	conn    *wire.Conn

	resources    map[uint32]*Resource
	creation     []uint32 // ids in creation order, for sweep ordering
	registries   []uint32
	nextServerID uint32

	// fatal is set after a protocol error was posted; the client is
	// disconnected once the error has been flushed.
	fatal bool
}

func (c *Client) ID() uint64        { return c.id }
func (c *Client) Display() *Display { return c.display }
func (c *Client) Fatal() bool       { return c.fatal }

// NewResource mints a resource in this client's id space.
func (c *Client) NewResource(id uint32, iface string, version uint32) *Resource {
	res := &Resource{client: c, id: id, iface: iface, version: version}
	c.resources[id] = res
	c.creation = append(c.creation, id)
	return res
}

// ServerIDBase is the floor of the server-allocated object id range.
const ServerIDBase = 0xff000000

// NewServerResource mints a resource with a server-allocated id, used
// for objects the compositor creates on the client's behalf (data
// offers, foreign toplevel handles).
func (c *Client) NewServerResource(iface string, version uint32) *Resource {
	if c.nextServerID < ServerIDBase {
		c.nextServerID = ServerIDBase
	}
	id := c.nextServerID
	c.nextServerID++
	return c.NewResource(id, iface, version)
}

// Get looks a resource up; nil means the object is unknown, usually
// because the client already destroyed it.
func (c *Client) Get(id uint32) *Resource {
	return c.resources[id]
}

// Resources returns the live resources of one interface.
func (c *Client) Resources(iface string) []*Resource {
	var out []*Resource
	for _, id := range c.creation {
		if res, ok := c.resources[id]; ok && res.iface == iface {
			out = append(out, res)
		}
	}
	return out
}

// Queue appends an event message to the outbound buffer.
func (c *Client) Queue(m *wire.Message) {
	if c.conn == nil {
		return
	}
	c.conn.Queue(m)
}

// Flush pushes buffered events to the socket.
func (c *Client) Flush() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Flush()
}

// Conn exposes the underlying connection to the tick loop.
func (c *Client) Conn() *wire.Conn { return c.conn }

// PostError sends the fatal wl_display.error event for a resource and
// schedules the disconnect. Per-client faults never terminate the
// compositor.
func (c *Client) PostError(res *Resource, code uint32, msg string) {
	objID := uint32(displayObjectID)
	if res != nil {
		objID = res.id
	}
	log.Warn().
		Uint64("client", c.id).
		Uint32("object", objID).
		Uint32("code", code).
		Str("error", msg).
		Msg("protocol error")
	c.Queue(wire.NewMessage(displayObjectID, displayEvtError).
		PutUint32(objID).
		PutUint32(code).
		PutString(msg))
	c.fatal = true
}

// DispatchRaw routes one inbound message. Unknown objects are a
// debug-level no-op: the client may legitimately have destroyed the
// object while requests were in flight.
func (c *Client) DispatchRaw(m wire.RawMessage) error {
	r := wire.NewReader(m.Data, c.conn.Fds())
	if m.Object == displayObjectID {
		return c.dispatchDisplay(m.Opcode, r)
	}
	res := c.Get(m.Object)
	if res == nil {
		log.Debug().Uint64("client", c.id).Uint32("object", m.Object).Msg("request for unknown object")
		return nil
	}
	if res.Dispatch == nil {
		return nil
	}
	return res.Dispatch(m.Opcode, r)
}

func (c *Client) dispatchDisplay(op uint16, r *wire.Reader) error {
	switch op {
	case displayReqSync:
		id := r.NewID()
		if err := r.Err(); err != nil {
			return err
		}
		cb := c.NewResource(id, "wl_callback", 1)
		cb.Send(cb.NewEvent(callbackEvtDone).PutUint32(0))
		cb.Destroy()
	case displayReqGetRegistry:
		id := r.NewID()
		if err := r.Err(); err != nil {
			return err
		}
		c.NewResource(id, "wl_registry", 1).Dispatch = func(op uint16, r *wire.Reader) error {
			return c.dispatchRegistry(op, r)
		}
		c.registries = append(c.registries, id)
		for _, g := range c.display.globals {
			c.sendGlobal(id, g)
		}
	default:
		c.PostError(nil, ErrInvalidMethod, "unknown wl_display request")
	}
	return nil
}

func (c *Client) sendGlobal(registry uint32, g *Global) {
	c.Queue(wire.NewMessage(registry, registryEvtGlobal).
		PutUint32(g.Name).
		PutString(g.Interface).
		PutUint32(g.Version))
}

func (c *Client) dispatchRegistry(op uint16, r *wire.Reader) error {
	if op != registryReqBind {
		c.PostError(nil, ErrInvalidMethod, "unknown wl_registry request")
		return nil
	}
	name := r.Uint32()
	iface := r.String()
	version := r.Uint32()
	id := r.NewID()
	if err := r.Err(); err != nil {
		return err
	}
	for _, g := range c.display.globals {
		if g.Name != name {
			continue
		}
		if iface != g.Interface {
			c.PostError(nil, ErrInvalidObject, "bind interface mismatch")
			return nil
		}
		if version > g.Version {
			version = g.Version
		}
		res := c.NewResource(id, iface, version)
		if g.Bind != nil {
			g.Bind(c, res)
		}
		return nil
	}
	c.PostError(nil, ErrInvalidObject, "bind to unknown global")
	return nil
}

// sweep destroys every remaining resource, newest first, firing
// destroy hooks so dependent components can drop their references.
func (c *Client) sweep() {
	for i := len(c.creation) - 1; i >= 0; i-- {
		id := c.creation[i]
		res, ok := c.resources[id]
		if !ok {
			continue
		}
		res.dead = true
		delete(c.resources, id)
		if res.OnDestroy != nil {
			res.OnDestroy()
		}
	}
	c.creation = nil
}
