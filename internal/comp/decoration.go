// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
	"github.com/ojehle/wawona/io/event"
)

// zxdg_decoration_manager_v1 / zxdg_toplevel_decoration_v1.
const (
	decorationManagerReqDestroy               = 0
	decorationManagerReqGetToplevelDecoration = 1

	decorationReqDestroy   = 0
	decorationReqSetMode   = 1
	decorationReqUnsetMode = 2

	decorationEvtConfigure = 0

	decorationModeClientSide uint32 = 1
	decorationModeServerSide uint32 = 2
)

// defaultDecoration is what new windows get before any negotiation.
func (st *State) defaultDecoration() event.DecorationMode {
	return event.DecorationClientSide
}

func (st *State) bindDecorationManager(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case decorationManagerReqDestroy:
			res.Destroy()
		case decorationManagerReqGetToplevelDecoration:
			id := r.NewID()
			tlRes := c.Get(r.Object())
			if err := r.Err(); err != nil {
				return err
			}
			if tlRes == nil {
				return nil
			}
			var tkey xdgKey
			for k, t := range st.xdg.toplevels {
				if t.Res == tlRes {
					tkey = k
				}
			}
			dres := c.NewResource(id, "zxdg_toplevel_decoration_v1", res.Version())
			st.decorations[tkey] = dres
			dres.Dispatch = st.dispatchDecoration(dres, tkey)
			dres.OnDestroy = func() { delete(st.decorations, tkey) }
		}
		return nil
	}
}

func (st *State) dispatchDecoration(res *wl.Resource, tkey xdgKey) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case decorationReqDestroy:
			res.Destroy()
		case decorationReqSetMode, decorationReqUnsetMode:
			mode := decorationModeClientSide
			if op == decorationReqSetMode {
				if m := r.Uint32(); r.Err() == nil && m == decorationModeServerSide {
					mode = decorationModeServerSide
				}
			}
			res.Send(res.NewEvent(decorationEvtConfigure).PutUint32(mode))
			if t := st.xdg.toplevels[tkey]; t != nil {
				if w := st.windows[t.Window]; w != nil {
					if mode == decorationModeServerSide {
						w.Decoration = event.DecorationServerSide
					} else {
						w.Decoration = event.DecorationClientSide
					}
				}
				// A full configure sequence makes the client apply
				// the decoration change.
				st.SendToplevelConfigure(tkey.client, tkey.id, t.Width, t.Height)
			}
		}
		return nil
	}
}
