// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// wl_shm requests, events and errors.
const (
	shmReqCreatePool = 0

	shmEvtFormat = 0

	shmErrInvalidFormat = 0
	shmErrInvalidStride = 1
	shmErrInvalidFd     = 2
)

// wl_shm_pool requests.
const (
	shmPoolReqCreateBuffer = 0
	shmPoolReqDestroy      = 1
	shmPoolReqResize       = 2
)

const bufferReqDestroy = 0

func (st *State) bindShm(c *wl.Client, res *wl.Resource) {
	res.Send(res.NewEvent(shmEvtFormat).PutUint32(FormatARGB8888))
	res.Send(res.NewEvent(shmEvtFormat).PutUint32(FormatXRGB8888))
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		if op != shmReqCreatePool {
			return nil
		}
		id := r.NewID()
		fd := r.Fd()
		size := r.Int32()
		if err := r.Err(); err != nil {
			return err
		}
		pres := c.NewResource(id, "wl_shm_pool", res.Version())
		pool, err := MapShmPool(id, fd, size)
		if err != nil {
			// A pool we cannot map still answers requests; buffers
			// carved from it degrade to the absent variant.
			log.Warn().Err(err).Msg("shm pool mapping failed")
			pool = &ShmPool{ID: id, Fd: fd, Size: size}
		}
		pool.Ref()
		pres.Data = pool
		pres.Dispatch = st.dispatchShmPool(pres, pool)
		pres.OnDestroy = func() { pool.Unref() }
		return nil
	}
}

func (st *State) dispatchShmPool(res *wl.Resource, pool *ShmPool) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case shmPoolReqCreateBuffer:
			id := r.NewID()
			offset := r.Int32()
			width := r.Int32()
			height := r.Int32()
			stride := r.Int32()
			format := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			if format != FormatARGB8888 && format != FormatXRGB8888 {
				c.PostError(res, shmErrInvalidFormat, "unsupported shm format")
				return nil
			}
			if stride < width*4 || offset < 0 || height <= 0 ||
				offset+stride*height > pool.Size {
				c.PostError(res, shmErrInvalidStride, "buffer does not fit in pool")
				return nil
			}
			bres := c.NewResource(id, "wl_buffer", 1)
			internal := st.nextBuffer()
			bres.Data = internal
			pool.Ref()
			b := &Buffer{
				ID:     internal,
				Client: c.ID(),
				Res:    bres,
				Ref: BufferRef{
					Kind: BufferShm,
					Shm: ShmData{
						Pool:   pool,
						Offset: offset,
						Width:  width,
						Height: height,
						Stride: stride,
						Format: format,
					},
				},
			}
			st.AddBuffer(b)
			bres.Dispatch = func(op uint16, r *wire.Reader) error {
				if op == bufferReqDestroy {
					bres.Destroy()
				}
				return nil
			}
			bres.OnDestroy = func() {
				st.RemoveBuffer(c.ID(), internal)
				pool.Unref()
			}
		case shmPoolReqDestroy:
			res.Destroy()
		case shmPoolReqResize:
			size := r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			if err := pool.Resize(size); err != nil {
				c.PostError(res, shmErrInvalidFd, err.Error())
			}
		}
		return nil
	}
}

// registerBufferResource wires a non-shm buffer resource (dmabuf,
// single-pixel) into the buffer map.
func (st *State) registerBufferResource(bres *wl.Resource, ref BufferRef) *Buffer {
	c := bres.Client()
	internal := st.nextBuffer()
	bres.Data = internal
	b := &Buffer{ID: internal, Client: c.ID(), Res: bres, Ref: ref}
	st.AddBuffer(b)
	bres.Dispatch = func(op uint16, r *wire.Reader) error {
		if op == bufferReqDestroy {
			bres.Destroy()
		}
		return nil
	}
	bres.OnDestroy = func() { st.RemoveBuffer(c.ID(), internal) }
	return b
}
