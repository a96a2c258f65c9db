// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/wire"
	"github.com/ojehle/wawona/internal/wl"
)

// zwlr_layer_shell_v1 / zwlr_layer_surface_v1.
const (
	layerShellReqGetLayerSurface = 0
	layerShellReqDestroy         = 1

	layerShellErrRole         = 0
	layerShellErrInvalidLayer = 1

	layerSurfaceReqSetSize                = 0
	layerSurfaceReqSetAnchor              = 1
	layerSurfaceReqSetExclusiveZone       = 2
	layerSurfaceReqSetMargin              = 3
	layerSurfaceReqSetKeyboardInteractive = 4
	layerSurfaceReqGetPopup               = 5
	layerSurfaceReqAckConfigure           = 6
	layerSurfaceReqDestroy                = 7
	layerSurfaceReqSetLayer               = 8

	layerSurfaceEvtConfigure = 0
	layerSurfaceEvtClosed    = 1
)

func (st *State) bindLayerShell(c *wl.Client, res *wl.Resource) {
	res.Dispatch = func(op uint16, r *wire.Reader) error {
		switch op {
		case layerShellReqGetLayerSurface:
			id := r.NewID()
			sres := c.Get(r.Object())
			outputID := r.Object()
			layer := r.Uint32()
			namespace := r.String()
			if err := r.Err(); err != nil {
				return err
			}
			if sres == nil {
				return nil
			}
			if layer >= layerCount {
				c.PostError(res, layerShellErrInvalidLayer, "invalid layer")
				return nil
			}
			surface, _ := sres.Data.(uint32)
			s := st.surfaces[surface]
			if s == nil {
				return nil
			}
			if err := s.SetRole(RoleLayer); err != nil {
				c.PostError(res, layerShellErrRole, err.Error())
				return nil
			}
			output := uint32(0)
			if ores := c.Get(outputID); ores != nil {
				output, _ = ores.Data.(uint32)
			}
			if output == 0 {
				if o := st.PrimaryOutput(); o != nil {
					output = o.ID
				}
			}
			lres := c.NewResource(id, "zwlr_layer_surface_v1", res.Version())
			ls := &LayerSurface{
				Surface:   surface,
				Client:    c.ID(),
				Output:    output,
				Layer:     layer,
				Namespace: namespace,
				Res:       lres,
			}
			st.AddLayerSurface(ls)
			lres.Dispatch = st.dispatchLayerSurface(lres, ls)
			lres.OnDestroy = func() { st.RemoveLayerSurface(surface) }
		case layerShellReqDestroy:
			res.Destroy()
		}
		return nil
	}
}

// sendLayerConfigure proposes the computed size with a fresh serial.
func (st *State) sendLayerConfigure(ls *LayerSurface) {
	if !ls.Res.Alive() {
		return
	}
	ls.configureSent = true
	ls.Res.Send(ls.Res.NewEvent(layerSurfaceEvtConfigure).
		PutUint32(st.NextSerial()).
		PutUint32(ls.Width).
		PutUint32(ls.Height))
}

func (st *State) dispatchLayerSurface(res *wl.Resource, ls *LayerSurface) func(uint16, *wire.Reader) error {
	return func(op uint16, r *wire.Reader) error {
		switch op {
		case layerSurfaceReqSetSize:
			ls.DesiredWidth = r.Uint32()
			ls.DesiredHeight = r.Uint32()
		case layerSurfaceReqSetAnchor:
			ls.Anchor = r.Uint32()
		case layerSurfaceReqSetExclusiveZone:
			ls.ExclusiveZone = r.Int32()
		case layerSurfaceReqSetMargin:
			ls.Margin[0] = r.Int32()
			ls.Margin[1] = r.Int32()
			ls.Margin[2] = r.Int32()
			ls.Margin[3] = r.Int32()
		case layerSurfaceReqSetKeyboardInteractive:
			ls.KeyboardInteractivity = r.Uint32()
		case layerSurfaceReqGetPopup:
			_ = r.Object()
		case layerSurfaceReqAckConfigure:
			_ = r.Uint32()
		case layerSurfaceReqDestroy:
			res.Destroy()
			return nil
		case layerSurfaceReqSetLayer:
			layer := r.Uint32()
			if r.Err() == nil && layer < layerCount {
				ls.Layer = layer
			}
		}
		if err := r.Err(); err != nil {
			return err
		}
		st.repositionLayerSurfaces()
		st.MarkSceneDirty()
		return nil
	}
}
