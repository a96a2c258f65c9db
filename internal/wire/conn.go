// SPDX-License-Identifier: Unlicense OR MIT

package wire

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Conn is a non-blocking Wayland connection over a SOCK_STREAM unix
// socket. Incoming bytes accumulate in a buffer until a full message is
// available; outgoing messages are queued and pushed by Flush. File
// descriptors ride in SCM_RIGHTS ancillary data.
type Conn struct {
	fd     int
	closed bool

	rbuf []byte
	rfds []int

	wbuf []byte
	wfds []int
}

const readChunk = 4096

// NewConn takes ownership of fd and switches it to non-blocking mode.
func NewConn(fd int) (*Conn, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, errors.Wrap(err, "wire: set nonblock")
	}
	return &Conn{fd: fd}, nil
}

// NewPair returns two connected Conns, used by tests and the smoke
// clients.
func NewPair() (*Conn, *Conn, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, errors.Wrap(err, "wire: socketpair")
	}
	a, err := NewConn(fds[0])
	if err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, nil, err
	}
	b, err := NewConn(fds[1])
	if err != nil {
		a.Close()
		unix.Close(fds[1])
		return nil, nil, err
	}
	return a, b, nil
}

func (c *Conn) Fd() int { return c.fd }

// Read pulls whatever is ready from the socket into the buffer.
// It reports false when the peer has hung up.
func (c *Conn) Read() (bool, error) {
	if c.closed {
		return false, nil
	}
	buf := make([]byte, readChunk)
	oob := make([]byte, unix.CmsgSpace(16*4))
	for {
		n, oobn, _, _, err := unix.Recvmsg(c.fd, buf, oob, unix.MSG_DONTWAIT|unix.MSG_CMSG_CLOEXEC)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return true, nil
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, errors.Wrap(err, "wire: recvmsg")
		}
		if n == 0 {
			return false, nil
		}
		c.rbuf = append(c.rbuf, buf[:n]...)
		if oobn > 0 {
			cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
			if err == nil {
				for _, cmsg := range cmsgs {
					fds, err := unix.ParseUnixRights(&cmsg)
					if err != nil {
						continue
					}
					c.rfds = append(c.rfds, fds...)
				}
			}
		}
		if n < len(buf) {
			return true, nil
		}
	}
}

// RawMessage is one decoded-but-unparsed inbound message.
type RawMessage struct {
	Object uint32
	Opcode uint16
	Data   []byte
}

// Next returns the next complete message in the buffer, or ok=false.
func (c *Conn) Next() (RawMessage, bool) {
	if len(c.rbuf) < HeaderSize {
		return RawMessage{}, false
	}
	h := ParseHeader(c.rbuf)
	if int(h.Size) < HeaderSize || len(c.rbuf) < int(h.Size) {
		return RawMessage{}, false
	}
	data := make([]byte, int(h.Size)-HeaderSize)
	copy(data, c.rbuf[HeaderSize:h.Size])
	c.rbuf = c.rbuf[h.Size:]
	return RawMessage{Object: h.Object, Opcode: h.Opcode, Data: data}, true
}

// Fds exposes the inbound descriptor queue. Readers pop from it in
// argument order.
func (c *Conn) Fds() *[]int { return &c.rfds }

// Queue appends an outgoing message; nothing hits the socket until
// Flush.
func (c *Conn) Queue(m *Message) {
	c.wbuf = append(c.wbuf, m.Bytes()...)
	c.wfds = append(c.wfds, m.fds...)
}

// Flush writes as much of the queued data as the socket accepts.
func (c *Conn) Flush() error {
	if c.closed || len(c.wbuf) == 0 {
		return nil
	}
	var oob []byte
	if len(c.wfds) > 0 {
		oob = unix.UnixRights(c.wfds...)
	}
	for len(c.wbuf) > 0 {
		n, err := unix.SendmsgN(c.fd, c.wbuf, oob, nil, unix.MSG_DONTWAIT|unix.MSG_NOSIGNAL)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil
		}
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "wire: sendmsg")
		}
		c.wbuf = c.wbuf[n:]
		c.wfds = c.wfds[:0]
		oob = nil
	}
	return nil
}

func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for _, fd := range c.rfds {
		unix.Close(fd)
	}
	c.rfds = nil
	return unix.Close(c.fd)
}
