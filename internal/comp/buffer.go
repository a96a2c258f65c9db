// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wl"
)

// Shm format codes advertised by wl_shm.
const (
	FormatARGB8888 uint32 = 0
	FormatXRGB8888 uint32 = 1
)

// NativeModifierBit tags a linux-dmabuf modifier as carrying an opaque
// platform surface id in its low bits rather than a DRM modifier.
const NativeModifierBit uint64 = 0x8000_0000_0000_0000

// BufferKind discriminates BufferRef.
type BufferKind uint8

const (
	BufferNone BufferKind = iota
	BufferShm
	BufferNative
	BufferSinglePixel
)

// ShmData locates pixels inside a client shm pool.
type ShmData struct {
	Pool   *ShmPool
	Offset int32
	Width  int32
	Height int32
	Stride int32
	Format uint32
}

// NativeData references a platform GPU surface by opaque id, carried
// through the linux-dmabuf path via the high-bit modifier encoding.
type NativeData struct {
	Handle uint64
	Width  int32
	Height int32
	Format uint32
}

// PixelData is a wp_single_pixel_buffer color.
type PixelData struct {
	R, G, B, A uint32
}

// BufferRef is the tagged buffer variant a surface state references.
type BufferRef struct {
	Kind   BufferKind
	Shm    ShmData
	Native NativeData
	Pixel  PixelData
}

// Buffer is client-provided pixel storage. Released tracks the
// exactly-once wl_buffer.release contract.
type Buffer struct {
	ID       uint32
	Client   uint64
	Ref      BufferRef
	Res      *wl.Resource
	Released bool
}

const bufferEvtRelease = 0

// Release notifies the client exactly once that the compositor no
// longer reads the buffer.
func (b *Buffer) Release() {
	if b.Released {
		return
	}
	b.Released = true
	if b.Res.Alive() {
		b.Res.Send(b.Res.NewEvent(bufferEvtRelease))
	}
}

// ShmPool is a mapped client shm pool. Buffers reference the pool, so
// the mapping stays alive until the pool resource dies and no buffer
// uses it.
type ShmPool struct {
	ID   uint32
	Fd   int
	Size int32
	Data []byte

	refs int32
}

// MapShmPool mmaps fd read-only-shared for size bytes.
func MapShmPool(id uint32, fd int, size int32) (*ShmPool, error) {
	if size <= 0 {
		return nil, stateErr("shm pool size %d", size)
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, platformErr("mmap shm pool: %v", err)
	}
	return &ShmPool{ID: id, Fd: fd, Size: size, Data: data}, nil
}

// Resize grows the mapping; shrinking is a client error handled by the
// dispatcher.
func (p *ShmPool) Resize(size int32) error {
	if size < p.Size {
		return stateErr("shm pool shrink from %d to %d", p.Size, size)
	}
	if p.Data != nil {
		if err := unix.Munmap(p.Data); err != nil {
			log.Warn().Err(err).Msg("munmap shm pool")
		}
	}
	data, err := unix.Mmap(p.Fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		p.Data = nil
		return platformErr("mmap shm pool: %v", err)
	}
	p.Data = data
	p.Size = size
	return nil
}

func (p *ShmPool) Ref() { p.refs++ }
func (p *ShmPool) Unref() {
	p.refs--
	if p.refs <= 0 {
		p.unmap()
	}
}

func (p *ShmPool) unmap() {
	if p.Data != nil {
		if err := unix.Munmap(p.Data); err != nil {
			log.Warn().Err(err).Msg("munmap shm pool")
		}
		p.Data = nil
	}
	if p.Fd >= 0 {
		unix.Close(p.Fd)
		p.Fd = -1
	}
}
