// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/internal/wl"
)

// Mode is one advertised output mode.
type Mode struct {
	Width, Height int32
	RefreshMHz    int32
	Preferred     bool
}

// Output is a virtual display. UsableArea excludes platform safe-area
// insets and layer-shell exclusive zones.
type Output struct {
	ID     uint32
	X, Y   int32
	Width  int32
	Height int32
	// RefreshMHz in millihertz.
	RefreshMHz int32
	Scale      float64
	Transform  Transform
	Modes      []Mode

	// SafeAreaInsets: top, right, bottom, left, from the platform.
	SafeAreaInsets [4]int32

	UsableArea Rect

	bindings    []*wl.Resource // wl_output
	xdgBindings []*wl.Resource // zxdg_output_v1
}

// AddOutput registers an output; the first one is primary.
func (st *State) AddOutput(o *Output) {
	if o.UsableArea.Empty() {
		o.UsableArea = Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
	}
	if len(o.Modes) == 0 {
		o.Modes = []Mode{{Width: o.Width, Height: o.Height, RefreshMHz: o.RefreshMHz, Preferred: true}}
	}
	st.outputs = append(st.outputs, o)
	st.MarkSceneDirty()
	log.Info().
		Uint32("output", o.ID).
		Int32("w", o.Width).
		Int32("h", o.Height).
		Float64("scale", o.Scale).
		Msg("output added")
}

// Output looks an output up by id.
func (st *State) Output(id uint32) *Output {
	for _, o := range st.outputs {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// PrimaryOutput is the output new windows land on.
func (st *State) PrimaryOutput() *Output {
	if st.primaryOutput < len(st.outputs) {
		return st.outputs[st.primaryOutput]
	}
	return nil
}

// Outputs lists all outputs.
func (st *State) Outputs() []*Output { return st.outputs }

// UpdateOutput applies a platform reconfiguration and notifies every
// bound wl_output/zxdg_output resource with atomic done events.
func (st *State) UpdateOutput(id uint32, width, height int32, refreshMHz int32, scale float64, x, y int32, insets [4]int32) bool {
	o := st.Output(id)
	if o == nil {
		return false
	}
	changed := o.Width != width || o.Height != height || o.RefreshMHz != refreshMHz ||
		o.Scale != scale || o.X != x || o.Y != y || o.SafeAreaInsets != insets
	if !changed {
		return true
	}
	o.Width, o.Height = width, height
	o.RefreshMHz = refreshMHz
	o.Scale = scale
	o.X, o.Y = x, y
	o.SafeAreaInsets = insets
	for i := range o.Modes {
		if o.Modes[i].Preferred {
			o.Modes[i].Width = width
			o.Modes[i].Height = height
			o.Modes[i].RefreshMHz = refreshMHz
		}
	}
	st.repositionLayerSurfaces()
	st.MarkSceneDirty()
	st.notifyOutputChanged(o)
	log.Info().
		Uint32("output", id).
		Int32("w", width).
		Int32("h", height).
		Int32("refresh", refreshMHz).
		Msg("output updated")
	return true
}

// UsableArea recomputes the output rect minus safe-area insets and the
// exclusive zones of the output's layer surfaces; a zone counts from
// set_exclusive_zone on, whether or not the surface is mapped.
func (st *State) UsableArea(outputID uint32) (Rect, bool) {
	o := st.Output(outputID)
	if o == nil {
		return Rect{}, false
	}
	usable := Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
	usable = insetRect(usable, o.SafeAreaInsets)
	for layer := 0; layer < layerCount; layer++ {
		for _, ls := range st.layerSurfacesOn(outputID, uint32(layer)) {
			if ls.ExclusiveZone <= 0 {
				continue
			}
			usable = subtractExclusive(usable, ls.Anchor, ls.ExclusiveZone)
		}
	}
	return usable, true
}

func insetRect(r Rect, insets [4]int32) Rect {
	top, right, bottom, left := insets[0], insets[1], insets[2], insets[3]
	if top > 0 {
		r.Y += top
		r.Height = max32(r.Height-top, 0)
	}
	if bottom > 0 {
		r.Height = max32(r.Height-bottom, 0)
	}
	if left > 0 {
		r.X += left
		r.Width = max32(r.Width-left, 0)
	}
	if right > 0 {
		r.Width = max32(r.Width-right, 0)
	}
	return r
}

// subtractExclusive removes zone pixels from the edge the anchor bits
// select. A surface anchored to one edge (alone or with both
// perpendicular edges) reserves that edge.
func subtractExclusive(r Rect, anchor uint32, zone int32) Rect {
	switch {
	case anchoredToEdge(anchor, anchorTop, anchorBottom):
		r.Y += zone
		r.Height = max32(r.Height-zone, 0)
	case anchoredToEdge(anchor, anchorBottom, anchorTop):
		r.Height = max32(r.Height-zone, 0)
	case anchoredToEdge(anchor, anchorLeft, anchorRight):
		r.X += zone
		r.Width = max32(r.Width-zone, 0)
	case anchoredToEdge(anchor, anchorRight, anchorLeft):
		r.Width = max32(r.Width-zone, 0)
	}
	return r
}

func anchoredToEdge(anchor, edge, opposite uint32) bool {
	return anchor&edge != 0 && anchor&opposite == 0
}
