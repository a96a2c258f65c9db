// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wl"
)

// Layer-shell layers, bottom to top.
const (
	LayerBackground uint32 = iota
	LayerBottom
	LayerTop
	LayerOverlay

	layerCount = 4
)

// Anchor bits from zwlr_layer_surface_v1.
const (
	anchorTop    uint32 = 1
	anchorBottom uint32 = 2
	anchorLeft   uint32 = 4
	anchorRight  uint32 = 8
)

// LayerSurface binds a surface to an output edge at one of the four
// layers. Margin order is top, right, bottom, left.
type LayerSurface struct {
	Surface   uint32
	Client    uint64
	Output    uint32
	Layer     uint32
	Namespace string

	Anchor                uint32
	ExclusiveZone         int32
	Margin                [4]int32
	KeyboardInteractivity uint32

	// Desired size from set_size; 0 stretches along anchored axes.
	DesiredWidth  uint32
	DesiredHeight uint32

	// Position and size the scene builder computed.
	X, Y          int32
	Width, Height uint32

	Res           *wl.Resource
	Mapped        bool
	configureSent bool
}

// AddLayerSurface registers a layer surface on an output.
func (st *State) AddLayerSurface(ls *LayerSurface) {
	st.layerSurfaces[ls.Surface] = ls
	st.repositionLayerSurfaces()
	st.MarkSceneDirty()
	log.Debug().
		Uint32("surface", ls.Surface).
		Uint32("layer", ls.Layer).
		Str("namespace", ls.Namespace).
		Msg("layer surface added")
}

// RemoveLayerSurface drops a layer surface; exclusive zones are
// recomputed.
func (st *State) RemoveLayerSurface(surface uint32) {
	if _, ok := st.layerSurfaces[surface]; !ok {
		return
	}
	delete(st.layerSurfaces, surface)
	st.repositionLayerSurfaces()
	st.MarkSceneDirty()
}

// LayerSurface returns the record for a surface id, or nil.
func (st *State) LayerSurface(surface uint32) *LayerSurface {
	return st.layerSurfaces[surface]
}

func (st *State) layerSurfacesOn(output uint32, layer uint32) []*LayerSurface {
	var out []*LayerSurface
	for _, ls := range st.layerSurfaces {
		if ls.Output == output && ls.Layer == layer {
			out = append(out, ls)
		}
	}
	return out
}

// layerSurfaceCommitted marks a committed layer surface mapped and
// sends its initial configure when the roles protocol requires one.
func (st *State) layerSurfaceCommitted(surface uint32) {
	ls := st.layerSurfaces[surface]
	if ls == nil {
		return
	}
	ls.Mapped = true
	st.repositionLayerSurfaces()
	if !ls.configureSent && ls.Res.Alive() {
		st.sendLayerConfigure(ls)
	}
}

// repositionLayerSurfaces recomputes every output's usable area and
// reanchors each layer surface: anchored edges position it, margins
// offset it, anchoring both edges of an axis stretches it.
func (st *State) repositionLayerSurfaces() {
	for _, o := range st.outputs {
		usable, _ := st.UsableArea(o.ID)
		o.UsableArea = usable

		ow, oh := o.Width, o.Height
		for _, ls := range st.layerSurfaces {
			if ls.Output != o.ID {
				continue
			}
			w := int32(ls.DesiredWidth)
			h := int32(ls.DesiredHeight)
			var x, y int32
			m := ls.Margin

			switch {
			case ls.Anchor&anchorLeft != 0 && ls.Anchor&anchorRight != 0:
				w = max32(ow-m[1]-m[3], 0)
				x = o.X + m[3]
			case ls.Anchor&anchorRight != 0:
				x = o.X + ow - w - m[1]
			case ls.Anchor&anchorLeft != 0:
				x = o.X + m[3]
			default:
				x = o.X + (ow-w)/2
			}

			switch {
			case ls.Anchor&anchorTop != 0 && ls.Anchor&anchorBottom != 0:
				h = max32(oh-m[0]-m[2], 0)
				y = o.Y + m[0]
			case ls.Anchor&anchorBottom != 0:
				y = o.Y + oh - h - m[2]
			case ls.Anchor&anchorTop != 0:
				y = o.Y + m[0]
			default:
				y = o.Y + (oh-h)/2
			}

			ls.X, ls.Y = x, y
			ls.Width, ls.Height = uint32(w), uint32(h)
		}
	}
}
