// SPDX-License-Identifier: Unlicense OR MIT

package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenDepthFirst(t *testing.T) {
	s := New()
	root := NewNode(1)
	s.Add(root)
	s.SetRoot(1)

	bg := NewNode(2)
	bg.Surface = 10
	s.Add(bg)
	s.AddChild(1, 2)

	win := NewNode(3)
	win.Surface = 11
	win.X, win.Y = 100, 50
	s.Add(win)
	s.AddChild(1, 3)

	sub := NewNode(4)
	sub.Surface = 12
	sub.X, sub.Y = 10, 10
	s.Add(sub)
	s.AddChild(3, 4)

	flat := s.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, uint32(10), flat[0].SurfaceID)
	assert.Equal(t, uint32(11), flat[1].SurfaceID)
	// Subsurface positions compose with ancestors.
	assert.Equal(t, uint32(12), flat[2].SurfaceID)
	assert.Equal(t, int32(110), flat[2].X)
	assert.Equal(t, int32(60), flat[2].Y)
}

func TestFlattenSkipsInvisible(t *testing.T) {
	s := New()
	root := NewNode(1)
	s.Add(root)
	s.SetRoot(1)

	hidden := NewNode(2)
	hidden.Surface = 10
	hidden.Visible = false
	s.Add(hidden)
	s.AddChild(1, 2)

	child := NewNode(3)
	child.Surface = 11
	s.Add(child)
	s.AddChild(2, 3)

	assert.Empty(t, s.Flatten())
}

func TestOpacityComposes(t *testing.T) {
	s := New()
	root := NewNode(1)
	root.Opacity = 0.5
	s.Add(root)
	s.SetRoot(1)

	n := NewNode(2)
	n.Surface = 10
	n.Opacity = 0.5
	s.Add(n)
	s.AddChild(1, 2)

	flat := s.Flatten()
	require.Len(t, flat, 1)
	assert.InDelta(t, 0.25, flat[0].Opacity, 1e-6)
}

func TestAddChildIdempotent(t *testing.T) {
	s := New()
	s.Add(NewNode(1))
	s.Add(NewNode(2))
	s.AddChild(1, 2)
	s.AddChild(1, 2)
	assert.Len(t, s.Nodes[1].Children, 1)
}
