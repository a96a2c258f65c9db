// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// zwp_linux_dmabuf_v1.
const (
	dmabufReqDestroy            = 0
	dmabufReqCreateParams       = 1
	dmabufReqGetDefaultFeedback = 2
	dmabufReqGetSurfaceFeedback = 3

	dmabufEvtFormat   = 0
	dmabufEvtModifier = 1
)

// zwp_linux_buffer_params_v1.
const (
	paramsReqDestroy     = 0
	paramsReqAdd         = 1
	paramsReqCreate      = 2
	paramsReqCreateImmed = 3

	paramsEvtCreated = 0
	paramsEvtFailed  = 1

	paramsErrInvalidFormat = 4
)

// zwp_linux_dmabuf_feedback_v1 events.
const (
	dmabufFeedbackEvtDone        = 0
	dmabufFeedbackEvtFormatTable = 1
	dmabufFeedbackEvtMainDevice  = 2
	dmabufFeedbackEvtTrancheDone = 3
)

// DRM fourcc codes the compositor accepts through dmabuf.
var dmabufFormats = []uint32{
	0x34325241, // ARGB8888
	0x34325258, // XRGB8888
	0x34324142, // BGRA8888
	0x34324258, // XBGR8888
}

type dmabufPlane struct {
	fd       int
	offset   uint32
	stride   uint32
	modifier uint64
}

type dmabufParams struct {
	planes []dmabufPlane
	used   bool
}

func (st *State) bindDmabuf(c *wl.Client, res *wl.Resource) {
	if res.Version() < 4 {
		for _, f := range dmabufFormats {
			res.Send(res.NewEvent(dmabufEvtFormat).PutUint32(f))
			if res.Version() >= 3 {
				res.Send(res.NewEvent(dmabufEvtModifier).
					PutUint32(f).
					PutUint32(0).
					PutUint32(0))
			}
		}
	}
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case dmabufReqDestroy:
			res.Destroy()
		case dmabufReqCreateParams:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			pres := c.NewResource(id, "zwp_linux_buffer_params_v1", res.Version())
			params := &dmabufParams{}
			pres.Data = params
			pres.Dispatch = st.dispatchDmabufParams(pres, params)
			pres.OnDestroy = func() {
				for _, p := range params.planes {
					if p.fd >= 0 {
						unix.Close(p.fd)
					}
				}
			}
		case dmabufReqGetDefaultFeedback:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			st.sendDmabufFeedback(c.NewResource(id, "zwp_linux_dmabuf_feedback_v1", res.Version()))
		case dmabufReqGetSurfaceFeedback:
			id := r.NewID()
			_ = r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			st.sendDmabufFeedback(c.NewResource(id, "zwp_linux_dmabuf_feedback_v1", res.Version()))
		}
		return nil
	}
}

// sendDmabufFeedback sends a minimal v4 feedback: a bare tranche_done
// followed by done. No format table, main device or tranche formats
// are sent.
func (st *State) sendDmabufFeedback(res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		if op == 0 { // destroy
			res.Destroy()
		}
		return nil
	}
	res.Send(res.NewEvent(dmabufFeedbackEvtTrancheDone))
	res.Send(res.NewEvent(dmabufFeedbackEvtDone))
}

func (st *State) dispatchDmabufParams(res *wl.Resource, params *dmabufParams) func(uint16, *wire.Reader) error {
	c := res.Client()
	create := func(bufferID uint32, width, height int32, format uint32, immediate bool) {
		if !supportedDmabufFormat(format) {
			if immediate {
				c.PostError(res, paramsErrInvalidFormat, "unsupported dmabuf format")
			} else {
				res.Send(res.NewEvent(paramsEvtFailed))
			}
			return
		}
		// The high modifier bit smuggles an opaque platform surface
		// id through the standard dmabuf path.
		var handle uint64
		for _, p := range params.planes {
			if p.modifier&NativeModifierBit != 0 {
				handle = p.modifier &^ NativeModifierBit
				break
			}
		}
		ref := BufferRef{
			Kind: BufferNative,
			Native: NativeData{
				Handle: handle,
				Width:  width,
				Height: height,
				Format: format,
			},
		}
		var bres *wl.Resource
		if immediate {
			bres = c.NewResource(bufferID, "wl_buffer", 1)
		} else {
			bres = c.NewServerResource("wl_buffer", 1)
		}
		st.registerBufferResource(bres, ref)
		params.used = true
		for _, p := range params.planes {
			if p.fd >= 0 {
				unix.Close(p.fd)
			}
		}
		params.planes = nil
		if !immediate {
			res.Send(res.NewEvent(paramsEvtCreated).PutUint32(bres.ID()))
		}
		log.Debug().
			Uint64("handle", handle).
			Int32("w", width).
			Int32("h", height).
			Msg("dmabuf buffer imported")
	}
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case paramsReqDestroy:
			res.Destroy()
		case paramsReqAdd:
			fd := r.Fd()
			_ = r.Uint32() // plane index
			offset := r.Uint32()
			stride := r.Uint32()
			modHi := r.Uint32()
			modLo := r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			params.planes = append(params.planes, dmabufPlane{
				fd:       fd,
				offset:   offset,
				stride:   stride,
				modifier: uint64(modHi)<<32 | uint64(modLo),
			})
		case paramsReqCreate:
			width := r.Int32()
			height := r.Int32()
			format := r.Uint32()
			_ = r.Uint32() // flags
			if err := r.Err(); err != nil {
				return err
			}
			create(0, width, height, format, false)
		case paramsReqCreateImmed:
			id := r.NewID()
			width := r.Int32()
			height := r.Int32()
			format := r.Uint32()
			_ = r.Uint32()
			if err := r.Err(); err != nil {
				return err
			}
			create(id, width, height, format, true)
		}
		return nil
	}
}

func supportedDmabufFormat(format uint32) bool {
	for _, f := range dmabufFormats {
		if f == format {
			return true
		}
	}
	return false
}
