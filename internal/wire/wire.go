// SPDX-License-Identifier: Unlicense OR MIT

// Package wire implements the Wayland wire format: 8-byte message
// headers, 32-bit aligned arguments and out-of-band file descriptors.
package wire

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed size of a message header: object id followed
// by size<<16|opcode, both little endian.
const HeaderSize = 8

// MaxMessageSize bounds a single message as encoded on the wire.
const MaxMessageSize = 1 << 16

var order = binary.LittleEndian

// Fixed is a signed 24.8 fixed-point number.
type Fixed int32

func FixedFromFloat64(f float64) Fixed {
	return Fixed(math.Round(f * 256))
}

func FixedFromInt(i int32) Fixed {
	return Fixed(i << 8)
}

func (f Fixed) Float64() float64 {
	return float64(f) / 256
}

func (f Fixed) Int() int32 {
	return int32(f) >> 8
}

// Header is the decoded message header.
type Header struct {
	Object uint32
	Opcode uint16
	Size   uint16
}

func ParseHeader(b []byte) Header {
	word := order.Uint32(b[4:])
	return Header{
		Object: order.Uint32(b),
		Opcode: uint16(word & 0xffff),
		Size:   uint16(word >> 16),
	}
}

// Reader decodes the argument block of one message. Errors are sticky:
// after the first short read every argument-block accessor returns a
// zero value. Fd reads the separate fd queue and does not consult the
// sticky error.
type Reader struct {
	data []byte
	fds  *[]int
	off  int
	err  error
}

func NewReader(data []byte, fds *[]int) *Reader {
	return &Reader{data: data, fds: fds}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) fail() {
	if r.err == nil {
		r.err = errors.New("wire: message truncated")
	}
}

func (r *Reader) Uint32() uint32 {
	if r.err != nil || r.off+4 > len(r.data) {
		r.fail()
		return 0
	}
	v := order.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *Reader) Int32() int32 { return int32(r.Uint32()) }

func (r *Reader) Fixed() Fixed { return Fixed(r.Uint32()) }

// Object reads an object id argument; 0 encodes a nil object.
func (r *Reader) Object() uint32 { return r.Uint32() }

// NewID reads the id of an object the client is creating.
func (r *Reader) NewID() uint32 { return r.Uint32() }

// String reads a length-prefixed NUL-terminated string padded to 32 bits.
func (r *Reader) String() string {
	n := r.Uint32()
	if r.err != nil {
		return ""
	}
	if n == 0 {
		return ""
	}
	pad := (int(n) + 3) &^ 3
	if r.off+pad > len(r.data) {
		r.fail()
		return ""
	}
	s := string(r.data[r.off : r.off+int(n)-1])
	r.off += pad
	return s
}

// Array reads a length-prefixed byte array padded to 32 bits.
func (r *Reader) Array() []byte {
	n := r.Uint32()
	if r.err != nil {
		return nil
	}
	pad := (int(n) + 3) &^ 3
	if r.off+pad > len(r.data) {
		r.fail()
		return nil
	}
	a := make([]byte, n)
	copy(a, r.data[r.off:])
	r.off += pad
	return a
}

// Fd pops the next queued file descriptor for this connection. File
// descriptors travel in ancillary data, not the argument block, so the
// queue is shared by all messages read in one batch.
func (r *Reader) Fd() int {
	if r.fds == nil || len(*r.fds) == 0 {
		r.fail()
		return -1
	}
	fd := (*r.fds)[0]
	*r.fds = (*r.fds)[1:]
	return fd
}

// Message builds one outgoing message. The size field is filled in by
// Bytes.
type Message struct {
	buf []byte
	fds []int
}

func NewMessage(object uint32, opcode uint16) *Message {
	m := &Message{buf: make([]byte, HeaderSize, 32)}
	order.PutUint32(m.buf, object)
	order.PutUint32(m.buf[4:], uint32(opcode))
	return m
}

func (m *Message) PutUint32(v uint32) *Message {
	var b [4]byte
	order.PutUint32(b[:], v)
	m.buf = append(m.buf, b[:]...)
	return m
}

func (m *Message) PutInt32(v int32) *Message { return m.PutUint32(uint32(v)) }

func (m *Message) PutFixed(f Fixed) *Message { return m.PutUint32(uint32(f)) }

func (m *Message) PutString(s string) *Message {
	m.PutUint32(uint32(len(s) + 1))
	m.buf = append(m.buf, s...)
	m.buf = append(m.buf, 0)
	for len(m.buf)%4 != 0 {
		m.buf = append(m.buf, 0)
	}
	return m
}

func (m *Message) PutArray(a []byte) *Message {
	m.PutUint32(uint32(len(a)))
	m.buf = append(m.buf, a...)
	for len(m.buf)%4 != 0 {
		m.buf = append(m.buf, 0)
	}
	return m
}

func (m *Message) PutFd(fd int) *Message {
	m.fds = append(m.fds, fd)
	return m
}

// Bytes finalizes the message, writing the size into the header word.
func (m *Message) Bytes() []byte {
	word := order.Uint32(m.buf[4:])
	order.PutUint32(m.buf[4:], uint32(len(m.buf))<<16|word&0xffff)
	return m.buf
}

func (m *Message) Fds() []int { return m.fds }
