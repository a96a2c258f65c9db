// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// wp_viewporter / wp_viewport.
const (
	viewporterReqDestroy     = 0
	viewporterReqGetViewport = 1

	viewportReqDestroy        = 0
	viewportReqSetSource      = 1
	viewportReqSetDestination = 2

	viewportErrBadValue = 1
)

// Viewport is a per-surface crop and scale from wp_viewport.
type Viewport struct {
	HasSource              bool
	SrcX, SrcY, SrcW, SrcH float64
	DstW, DstH             int32
}

func (st *State) bindViewporter(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case viewporterReqDestroy:
			res.Destroy()
		case viewporterReqGetViewport:
			id := r.NewID()
			sres := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if sres == nil {
				return nil
			}
			surface, _ := sres.Data.(uint32)
			vres := c.NewResource(id, "wp_viewport", res.Version())
			vp := &Viewport{}
			st.viewports[surface] = vp
			vres.Dispatch = st.dispatchViewport(vres, surface, vp)
			vres.OnDestroy = func() {
				if st.viewports[surface] == vp {
					delete(st.viewports, surface)
				}
			}
		}
		return nil
	}
}

func (st *State) dispatchViewport(res *wl.Resource, surface uint32, vp *Viewport) func(uint16, *wire.Reader) error {
	c := res.Client()
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case viewportReqDestroy:
			res.Destroy()
		case viewportReqSetSource:
			x := r.Fixed()
			y := r.Fixed()
			w := r.Fixed()
			h := r.Fixed()
			if err := r.Err(); err != nil {
				return err
			}
			if x == -256 && y == -256 && w == -256 && h == -256 {
				vp.HasSource = false
				return nil
			}
			if w.Float64() <= 0 || h.Float64() <= 0 {
				c.PostError(res, viewportErrBadValue, "viewport source size must be positive")
				return nil
			}
			vp.HasSource = true
			vp.SrcX, vp.SrcY = x.Float64(), y.Float64()
			vp.SrcW, vp.SrcH = w.Float64(), h.Float64()
		case viewportReqSetDestination:
			w := r.Int32()
			h := r.Int32()
			if err := r.Err(); err != nil {
				return err
			}
			if (w <= 0 || h <= 0) && !(w == -1 && h == -1) {
				c.PostError(res, viewportErrBadValue, "viewport destination size must be positive")
				return nil
			}
			if w == -1 && h == -1 {
				vp.DstW, vp.DstH = 0, 0
			} else {
				vp.DstW, vp.DstH = w, h
			}
		}
		st.MarkSceneDirty()
		return nil
	}
}
