// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// wl_compositor requests.
const (
	compositorReqCreateSurface = 0
	compositorReqCreateRegion  = 1
)

// wl_surface requests.
const (
	surfaceReqDestroy            = 0
	surfaceReqAttach             = 1
	surfaceReqDamage             = 2
	surfaceReqFrame              = 3
	surfaceReqSetOpaqueRegion    = 4
	surfaceReqSetInputRegion     = 5
	surfaceReqCommit             = 6
	surfaceReqSetBufferTransform = 7
	surfaceReqSetBufferScale     = 8
	surfaceReqDamageBuffer       = 9
	surfaceReqOffset             = 10
)

// wl_surface error codes and events.
const (
	surfaceErrInvalidScale     = 0
	surfaceErrInvalidTransform = 1

	surfaceEvtEnter = 0
	surfaceEvtLeave = 1
)

// wl_region requests.
const (
	regionReqDestroy  = 0
	regionReqAdd      = 1
	regionReqSubtract = 2
)

// wl_subcompositor requests and errors.
const (
	subcompositorReqDestroy       = 0
	subcompositorReqGetSubsurface = 1

	subcompositorErrBadSurface = 0
)

// wl_subsurface requests.
const (
	subsurfaceReqDestroy     = 0
	subsurfaceReqSetPosition = 1
	subsurfaceReqPlaceAbove  = 2
	subsurfaceReqPlaceBelow  = 3
	subsurfaceReqSetSync     = 4
	subsurfaceReqSetDesync   = 5
)

func (st *State) bindCompositor(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case compositorReqCreateSurface:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			sres := c.NewResource(id, "wl_surface", res.Version())
			internal := st.nextSurface()
			sres.Data = internal
			surface := NewSurface(internal, c.ID(), sres)
			st.AddSurface(surface)
			sres.Dispatch = st.dispatchSurface(sres, internal)
			sres.OnDestroy = func() {
				if wid, ok := st.surfaceToWindow[internal]; ok {
					st.DestroyWindow(wid)
				}
				st.RemoveSurface(internal)
			}
		case compositorReqCreateRegion:
			id := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			rres := c.NewResource(id, "wl_region", res.Version())
			rres.Data = &Region{}
			rres.Dispatch = dispatchRegion(rres)
		}
		return nil
	}
}

func (st *State) dispatchSurface(res *wl.Resource, id uint32) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		s := st.surfaces[id]
		if s == nil {
			log.Debug().Uint32("surface", id).Msg("request on destroyed surface")
			return nil
		}
		switch op {
		case surfaceReqDestroy:
			res.Destroy()
		case surfaceReqAttach:
			bufID := r.Object()
			dx := r.Int32()
			dy := r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			st.attachBuffer(s, c, bufID, dx, dy)
		case surfaceReqDamage, surfaceReqDamageBuffer:
			// Buffer-local and surface-local damage accumulate into
			// one advisory list.
			x := r.Int32()
			y := r.Int32()
			w := r.Int32()
			h := r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			s.Pending.Damage = append(s.Pending.Damage, Rect{X: x, Y: y, Width: w, Height: h})
		case surfaceReqFrame:
			cbID := r.NewID()
			if err := r.Err(); err != nil {
				return err
			}
			cb := c.NewResource(cbID, "wl_callback", 1)
			s.FrameCallbacks = append(s.FrameCallbacks, cb)
		case surfaceReqSetOpaqueRegion:
			regID := r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			if regID == 0 {
				s.Pending.OpaqueRegion = nil // none = empty
			} else if reg := regionFor(c, regID); reg != nil {
				s.Pending.OpaqueRegion = reg.Copy()
			}
		case surfaceReqSetInputRegion:
			regID := r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			if regID == 0 {
				s.Pending.InputRegion = nil // none = infinite
			} else if reg := regionFor(c, regID); reg != nil {
				s.Pending.InputRegion = reg.Copy()
			}
		case surfaceReqCommit:
			st.HandleCommit(id)
		case surfaceReqSetBufferTransform:
			t := r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			if t < 0 || t > int32(TransformFlipped270) {
				c.PostError(res, surfaceErrInvalidTransform, "invalid buffer transform")
				return nil
			}
			s.Pending.Transform = Transform(t)
		case surfaceReqSetBufferScale:
			scale := r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			if scale < 1 {
				c.PostError(res, surfaceErrInvalidScale, "buffer scale must be at least 1")
				return nil
			}
			s.Pending.Scale = scale
		case surfaceReqOffset:
			s.Pending.OffsetX = r.Int32()
			s.Pending.OffsetY = r.Int32()
			return r.Err()
		}
		return nil
	}
}

// attachBuffer stores the pending buffer reference; unknown buffers
// degrade to the absent variant so one bad attach cannot take the
// session down.
func (st *State) attachBuffer(s *Surface, c *wl.Client, protocolBufID uint32, dx, dy int32) {
	if protocolBufID == 0 {
		s.Pending.Buffer = BufferRef{}
		s.Pending.BufferID = 0
		s.Pending.Width = 0
		s.Pending.Height = 0
		return
	}
	bres := c.Get(protocolBufID)
	if bres == nil {
		log.Debug().Uint32("buffer", protocolBufID).Msg("attach of unknown buffer")
		s.Pending.Buffer = BufferRef{}
		s.Pending.BufferID = 0
		return
	}
	internal, _ := bres.Data.(uint32)
	b := st.Buffer(c.ID(), internal)
	if b == nil {
		s.Pending.Buffer = BufferRef{}
		s.Pending.BufferID = 0
		return
	}
	b.Released = false
	s.Pending.Buffer = b.Ref
	s.Pending.BufferID = b.ID
	s.Pending.OffsetX += dx
	s.Pending.OffsetY += dy
	switch b.Ref.Kind {
	case BufferShm:
		s.Pending.Width = b.Ref.Shm.Width
		s.Pending.Height = b.Ref.Shm.Height
	case BufferNative:
		s.Pending.Width = b.Ref.Native.Width
		s.Pending.Height = b.Ref.Native.Height
	case BufferSinglePixel:
		s.Pending.Width = 1
		s.Pending.Height = 1
	}
}

func regionFor(c *wl.Client, id uint32) *Region {
	res := c.Get(id)
	if res == nil {
		return nil
	}
	reg, _ := res.Data.(*Region)
	return reg
}

func dispatchRegion(res *wl.Resource) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		reg, _ := res.Data.(*Region)
		if reg == nil {
			return nil
		}
		switch op {
		case regionReqDestroy:
			res.Destroy()
		case regionReqAdd:
			x, y := r.Int32(), r.Int32()
			w, h := r.Int32(), r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			reg.Add(Rect{X: x, Y: y, Width: w, Height: h})
		case regionReqSubtract:
			x, y := r.Int32(), r.Int32()
			w, h := r.Int32(), r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			reg.Subtract(Rect{X: x, Y: y, Width: w, Height: h})
		}
		return nil
	}
}

func (st *State) bindSubcompositor(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case subcompositorReqDestroy:
			res.Destroy()
		case subcompositorReqGetSubsurface:
			id := r.NewID()
			surfID := r.Object()
			parentID := r.Object()
			if err := r.Err(); err != nil {
				return err
			}
			sres, pres := c.Get(surfID), c.Get(parentID)
			if sres == nil || pres == nil {
				c.PostError(res, subcompositorErrBadSurface, "get_subsurface on dead surface")
				return nil
			}
			surface, _ := sres.Data.(uint32)
			parent, _ := pres.Data.(uint32)
			s := st.surfaces[surface]
			if s == nil || st.surfaces[parent] == nil {
				c.PostError(res, subcompositorErrBadSurface, "get_subsurface on unknown surface")
				return nil
			}
			if err := s.SetRole(RoleSubsurface); err != nil {
				c.PostError(res, subcompositorErrBadSurface, err.Error())
				return nil
			}
			sub := c.NewResource(id, "wl_subsurface", res.Version())
			sub.Data = surface
			st.AddSubsurface(surface, parent)
			sub.Dispatch = st.dispatchSubsurface(sub, surface)
			sub.OnDestroy = func() { st.RemoveSubsurface(surface) }
		}
		return nil
	}
}

func (st *State) dispatchSubsurface(res *wl.Resource, surface uint32) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case subsurfaceReqDestroy:
			res.Destroy()
		case subsurfaceReqSetPosition:
			x, y := r.Int32(), r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			st.SetSubsurfacePosition(surface, x, y)
		case subsurfaceReqPlaceAbove, subsurfaceReqPlaceBelow:
			sibRes := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if sibRes == nil {
				return nil
			}
			sibling, _ := sibRes.Data.(uint32)
			if op == subsurfaceReqPlaceAbove {
				st.PlaceSubsurfaceAbove(surface, sibling)
			} else {
				st.PlaceSubsurfaceBelow(surface, sibling)
			}
		case subsurfaceReqSetSync:
			st.SetSubsurfaceSync(surface, true)
		case subsurfaceReqSetDesync:
			st.SetSubsurfaceSync(surface, false)
		}
		return nil
	}
}
