// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"github.com/ojehle/wawona/internal/comp"
	"github.com/ojehle/wawona/io/event"
)

// BufferKind mirrors the tagged buffer variant across the embedder
// boundary.
type BufferKind uint32

const (
	BufferNone BufferKind = iota
	BufferShm
	BufferNative
	BufferSinglePixel
)

// BufferData is the embedder-facing description of a committed buffer.
// The layout matches the C struct field for field, padding included,
// so the FFI shim can copy it verbatim.
type BufferData struct {
	Surface uint32
	Buffer  uint32
	Kind    BufferKind
	Width   int32
	Height  int32
	Stride  int32
	Format  uint32
	_       uint32 // explicit padding before the 8-byte fields

	NativeHandle uint64

	// Pixels aliases the client's shm mapping for shm buffers; valid
	// until the buffer is released.
	Pixels []byte

	// RGBA for single-pixel buffers.
	R, G, B, A uint32
}

// collectBuffer turns committed-surface events into pop-able buffer
// records for renderers that pull pixels instead of watching events.
func (c *Compositor) collectBuffer(ev event.Event) {
	var surface uint32
	switch e := ev.(type) {
	case event.SurfaceCommitted:
		surface = e.Surface
	case event.LayerSurfaceCommitted:
		surface = e.Surface
	case event.CursorCommitted:
		surface = e.Surface
	default:
		return
	}
	s := c.state.Surface(surface)
	if s == nil || s.Current.BufferID == 0 {
		return
	}
	ref := s.Current.Buffer
	bd := BufferData{
		Surface: surface,
		Buffer:  s.Current.BufferID,
	}
	switch ref.Kind {
	case comp.BufferShm:
		bd.Kind = BufferShm
		bd.Width = ref.Shm.Width
		bd.Height = ref.Shm.Height
		bd.Stride = ref.Shm.Stride
		bd.Format = ref.Shm.Format
		if pool := ref.Shm.Pool; pool != nil && pool.Data != nil {
			end := int(ref.Shm.Offset) + int(ref.Shm.Stride)*int(ref.Shm.Height)
			if end <= len(pool.Data) {
				bd.Pixels = pool.Data[ref.Shm.Offset:end]
			}
		}
	case comp.BufferNative:
		bd.Kind = BufferNative
		bd.Width = ref.Native.Width
		bd.Height = ref.Native.Height
		bd.Format = ref.Native.Format
		bd.NativeHandle = ref.Native.Handle
	case comp.BufferSinglePixel:
		bd.Kind = BufferSinglePixel
		bd.Width = 1
		bd.Height = 1
		bd.R, bd.G, bd.B, bd.A = ref.Pixel.R, ref.Pixel.G, ref.Pixel.B, ref.Pixel.A
	default:
		return
	}
	c.buffers = append(c.buffers, bd)
}

// PopPendingBuffer takes the next committed buffer description.
func (c *Compositor) PopPendingBuffer() (BufferData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buffers) == 0 {
		return BufferData{}, false
	}
	bd := c.buffers[0]
	c.buffers = c.buffers[1:]
	return bd, true
}
