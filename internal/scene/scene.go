// SPDX-License-Identifier: Unlicense OR MIT

// Package scene holds the ephemeral node tree the core rebuilds before
// each frame and flattens into the z-ordered surface list handed to the
// platform renderer.
package scene

import (
	"github.com/davecgh/go-spew/spew"
)

// ContentRect is a normalized crop into a surface's buffer, derived
// from xdg_surface geometry. The zero value is not replaced
// automatically; NewNode starts every node at Full.
type ContentRect struct {
	X, Y, W, H float32
}

// Full covers the whole buffer.
var Full = ContentRect{0, 0, 1, 1}

// Node is one scene-graph node. Children are drawn after (above) the
// node itself, in declared order.
type Node struct {
	ID      uint32
	Surface uint32 // 0 for pure containers
	X, Y    int32
	Width   uint32
	Height  uint32
	Scale   float32
	Opacity float32
	Visible bool
	Content ContentRect

	Children []uint32
}

func NewNode(id uint32) *Node {
	return &Node{
		ID:      id,
		Scale:   1,
		Opacity: 1,
		Visible: true,
		Content: Full,
	}
}

// Surface is one entry of the flattened draw list: absolute position,
// final scale and opacity, normalized content crop.
type Surface struct {
	SurfaceID uint32
	X, Y      int32
	Width     uint32
	Height    uint32
	Scale     float32
	Opacity   float32
	Content   ContentRect
}

// Scene is the node tree for one frame.
type Scene struct {
	Nodes map[uint32]*Node
	Root  uint32
}

func New() *Scene {
	return &Scene{Nodes: make(map[uint32]*Node)}
}

func (s *Scene) Add(n *Node) {
	s.Nodes[n.ID] = n
}

func (s *Scene) SetRoot(id uint32) {
	s.Root = id
}

// AddChild appends child to parent's child list, once.
func (s *Scene) AddChild(parent, child uint32) {
	p, ok := s.Nodes[parent]
	if !ok {
		return
	}
	for _, c := range p.Children {
		if c == child {
			return
		}
	}
	p.Children = append(p.Children, child)
}

// Flatten walks the tree depth first and emits every visible node that
// carries a surface. Later entries draw above earlier ones.
func (s *Scene) Flatten() []Surface {
	var out []Surface
	if s.Root != 0 {
		s.flatten(s.Root, 0, 0, 1, 1, &out)
	}
	return out
}

func (s *Scene) flatten(id uint32, x, y int32, scale, opacity float32, out *[]Surface) {
	n, ok := s.Nodes[id]
	if !ok || !n.Visible || opacity <= 0 {
		return
	}
	ax := x + n.X
	ay := y + n.Y
	ascale := scale * n.Scale
	aopacity := opacity * n.Opacity
	if n.Surface != 0 {
		*out = append(*out, Surface{
			SurfaceID: n.Surface,
			X:         ax,
			Y:         ay,
			Width:     n.Width,
			Height:    n.Height,
			Scale:     ascale,
			Opacity:   aopacity,
			Content:   n.Content,
		})
	}
	for _, c := range n.Children {
		s.flatten(c, ax, ay, ascale, aopacity, out)
	}
}

// Dump renders the tree for debugging.
func (s *Scene) Dump() string {
	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, SortKeys: true}
	return cfg.Sdump(s.Nodes)
}
