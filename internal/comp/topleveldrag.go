// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// xdg_toplevel_drag_manager_v1 / xdg_toplevel_drag_v1.
const (
	toplevelDragManagerReqDestroy = 0
	toplevelDragManagerReqGetDrag = 1

	toplevelDragReqDestroy = 0
	toplevelDragReqAttach  = 1
)

// bindToplevelDragManager lets a client attach a toplevel to an active
// drag; the window then follows the pointer by the attach offset.
func (st *State) bindToplevelDragManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case toplevelDragManagerReqDestroy:
			res.Destroy()
		case toplevelDragManagerReqGetDrag:
			id := r.NewID()
			_ = r.Object() // data source
			if err := r.Err(); err != nil {
				return err
			}
			dres := c.NewResource(id, "xdg_toplevel_drag_v1", res.Version())
			dres.Dispatch = func(op uint16, r *wire.Reader) error {
				switch op {
				case toplevelDragReqDestroy:
					dres.Destroy()
				case toplevelDragReqAttach:
					tlRes := c.Get(r.Object())
					xOff := r.Int32()
					yOff := r.Int32()
					if err := r.Err(); err != nil {
						return err
					}
					if tlRes == nil {
						return nil
					}
					for _, t := range st.xdg.toplevels {
						if t.Res == tlRes {
							st.toplevelDrag = &toplevelDragAttachment{
								Window:  t.Window,
								XOffset: -xOff,
								YOffset: -yOff,
							}
							break
						}
					}
				}
				return nil
			}
			dres.OnDestroy = func() { st.toplevelDrag = nil }
		}
		return nil
	}
}
