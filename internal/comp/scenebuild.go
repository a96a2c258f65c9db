// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/ojehle/wawona/internal/scene"
)

// BuildScene rebuilds the node tree from authoritative state:
// background and bottom layers, toplevels in stacking order with their
// subsurfaces and popups, then top and overlay layers. The tree is
// purely descriptive; the platform decides how to draw it.
func (st *State) BuildScene() {
	st.repositionLayerSurfaces()

	sc := scene.New()
	root := scene.NewNode(st.nextNode())
	if o := st.PrimaryOutput(); o != nil {
		root.Width = uint32(max32(o.Width, 0))
		root.Height = uint32(max32(o.Height, 0))
	}
	sc.Add(root)
	sc.SetRoot(root.ID)

	st.addLayerNodes(sc, root.ID, LayerBackground)
	st.addLayerNodes(sc, root.ID, LayerBottom)

	surfaceNodes := make(map[uint32]uint32) // surface id -> node id
	nodeOrigin := make(map[uint32][2]int32) // surface id -> node frame origin, absolute

	for _, wid := range st.stacking {
		w := st.windows[wid]
		if w == nil || w.Minimized {
			continue
		}
		n := scene.NewNode(st.nextNode())
		n.Surface = w.Surface
		n.X, n.Y = w.X, w.Y
		n.Width = uint32(max32(w.Width, 0))
		n.Height = uint32(max32(w.Height, 0))
		n.Opacity = st.surfaceAlpha(w.Surface)
		st.applyContentRect(n, w.Surface)
		st.applyViewport(n, w.Surface)
		sc.Add(n)
		sc.AddChild(root.ID, n.ID)
		surfaceNodes[w.Surface] = n.ID
		nodeOrigin[w.Surface] = [2]int32{w.X, w.Y}

		offX, offY := int32(0), int32(0)
		if geom, ok := st.xdg.geometryFor(w.Surface); ok {
			offX, offY = geom.X, geom.Y
		}
		st.addSubsurfaceNodes(sc, n.ID, w.Surface, offX, offY)
	}

	// Popup geometry is absolute, node positions are parent-relative,
	// so each popup subtracts its parent node's frame origin. Chained
	// popups wait until the parent popup's node exists.
	pending := make([]*PopupData, 0, len(st.xdg.popups))
	for _, p := range st.xdg.popups {
		if st.surfaces[p.Surface] != nil {
			pending = append(pending, p)
		}
	}
	for len(pending) > 0 {
		var deferred []*PopupData
		progress := false
		for _, p := range pending {
			parent, origin, ok := st.popupParentNode(p, root.ID, surfaceNodes, nodeOrigin)
			if !ok {
				deferred = append(deferred, p)
				continue
			}
			n := scene.NewNode(st.nextNode())
			n.Surface = p.Surface
			n.X = p.Geometry.X - origin[0]
			n.Y = p.Geometry.Y - origin[1]
			n.Width = uint32(max32(p.Geometry.Width, 0))
			n.Height = uint32(max32(p.Geometry.Height, 0))
			n.Opacity = st.surfaceAlpha(p.Surface)
			sc.Add(n)
			sc.AddChild(parent, n.ID)
			surfaceNodes[p.Surface] = n.ID
			nodeOrigin[p.Surface] = [2]int32{p.Geometry.X, p.Geometry.Y}
			st.addSubsurfaceNodes(sc, n.ID, p.Surface, 0, 0)
			progress = true
		}
		if !progress {
			// A cycle or dead parent cannot resolve; place the rest
			// at root with absolute positions.
			for _, p := range deferred {
				n := scene.NewNode(st.nextNode())
				n.Surface = p.Surface
				n.X, n.Y = p.Geometry.X, p.Geometry.Y
				n.Width = uint32(max32(p.Geometry.Width, 0))
				n.Height = uint32(max32(p.Geometry.Height, 0))
				n.Opacity = st.surfaceAlpha(p.Surface)
				sc.Add(n)
				sc.AddChild(root.ID, n.ID)
				surfaceNodes[p.Surface] = n.ID
				nodeOrigin[p.Surface] = [2]int32{p.Geometry.X, p.Geometry.Y}
				st.addSubsurfaceNodes(sc, n.ID, p.Surface, 0, 0)
			}
			break
		}
		pending = deferred
	}

	st.addLayerNodes(sc, root.ID, LayerTop)
	st.addLayerNodes(sc, root.ID, LayerOverlay)

	st.scene = sc
}

// popupParentNode resolves the scene node a popup nests under and that
// node's absolute frame origin. ok=false defers the popup until its
// parent popup's node has been built.
func (st *State) popupParentNode(p *PopupData, root uint32, surfaceNodes map[uint32]uint32, nodeOrigin map[uint32][2]int32) (uint32, [2]int32, bool) {
	if p.Parent == 0 {
		return root, [2]int32{}, true
	}
	if pw := st.windows[p.Parent]; pw != nil {
		if nid, ok := surfaceNodes[pw.Surface]; ok {
			return nid, nodeOrigin[pw.Surface], true
		}
		// Parent window exists but is not in the scene (minimized):
		// keep the popup visible at its absolute position.
		return root, [2]int32{}, true
	}
	for _, pp := range st.xdg.popups {
		if pp.Window != p.Parent {
			continue
		}
		if nid, ok := surfaceNodes[pp.Surface]; ok {
			return nid, nodeOrigin[pp.Surface], true
		}
		return 0, [2]int32{}, false
	}
	return root, [2]int32{}, true
}

func (st *State) addLayerNodes(sc *scene.Scene, root uint32, layer uint32) {
	for _, ls := range st.layerSurfaces {
		if ls.Layer != layer || !ls.Mapped {
			continue
		}
		n := scene.NewNode(st.nextNode())
		n.Surface = ls.Surface
		n.X, n.Y = ls.X, ls.Y
		n.Width, n.Height = ls.Width, ls.Height
		n.Opacity = st.surfaceAlpha(ls.Surface)
		sc.Add(n)
		sc.AddChild(root, n.ID)
		st.addSubsurfaceNodes(sc, n.ID, ls.Surface, 0, 0)
	}
}

// addSubsurfaceNodes recurses into the subsurface children of parent.
// The geometry offset shifts direct children only: their positions are
// surface local, while the parent node origin is the cropped content
// area. Descendants recurse with zero offset.
func (st *State) addSubsurfaceNodes(sc *scene.Scene, parentNode uint32, parentSurface uint32, offX, offY int32) {
	for _, child := range st.subsurfaceChildren[parentSurface] {
		sub := st.subsurfaces[child]
		s := st.surfaces[child]
		if sub == nil || s == nil {
			continue
		}
		n := scene.NewNode(st.nextNode())
		n.Surface = child
		n.X = sub.X - offX
		n.Y = sub.Y - offY
		n.Width = uint32(max32(s.Current.Width, 0))
		n.Height = uint32(max32(s.Current.Height, 0))
		n.Opacity = st.surfaceAlpha(child)
		sc.Add(n)
		sc.AddChild(parentNode, n.ID)
		st.addSubsurfaceNodes(sc, n.ID, child, 0, 0)
	}
}

func (st *State) surfaceAlpha(surface uint32) float32 {
	if a, ok := st.alpha[surface]; ok {
		return float32(a)
	}
	return 1
}

// applyContentRect derives the normalized crop from xdg geometry so
// the renderer excludes the client-drawn shadow.
func (st *State) applyContentRect(n *scene.Node, surface uint32) {
	geom, ok := st.xdg.geometryFor(surface)
	if !ok {
		return
	}
	s := st.surfaces[surface]
	if s == nil {
		return
	}
	bw := float32(s.Current.Width)
	bh := float32(s.Current.Height)
	if bw <= 0 || bh <= 0 || geom.Width <= 0 || geom.Height <= 0 {
		return
	}
	n.Content = scene.ContentRect{
		X: float32(geom.X) / bw,
		Y: float32(geom.Y) / bh,
		W: float32(geom.Width) / bw,
		H: float32(geom.Height) / bh,
	}
}

// applyViewport folds wp_viewport source crops into the content rect
// and destination sizes into the node size.
func (st *State) applyViewport(n *scene.Node, surface uint32) {
	vp := st.viewports[surface]
	if vp == nil {
		return
	}
	s := st.surfaces[surface]
	if s == nil {
		return
	}
	if vp.HasSource {
		bw := float64(s.Current.Width)
		bh := float64(s.Current.Height)
		if bw > 0 && bh > 0 {
			n.Content = scene.ContentRect{
				X: float32(vp.SrcX / bw),
				Y: float32(vp.SrcY / bh),
				W: float32(vp.SrcW / bw),
				H: float32(vp.SrcH / bh),
			}
		}
	}
	if vp.DstW > 0 && vp.DstH > 0 {
		n.Width = uint32(vp.DstW)
		n.Height = uint32(vp.DstH)
	}
}
