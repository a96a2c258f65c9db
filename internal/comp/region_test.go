// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionAddSubtractRoundTrip(t *testing.T) {
	var reg Region
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}
	reg.Add(r)
	require.Equal(t, int64(5000), reg.Area())

	// add(R); subtract(R) leaves zero covered area.
	reg.Subtract(r)
	assert.Zero(t, reg.Area())
	for _, rect := range reg.Rects {
		assert.True(t, rect.Empty() || rect.Area() == 0)
	}
}

func TestRegionSubtractSplitsIntoResiduals(t *testing.T) {
	var reg Region
	reg.Add(Rect{X: 0, Y: 0, Width: 100, Height: 100})
	reg.Subtract(Rect{X: 25, Y: 25, Width: 50, Height: 50})

	// Up to four residuals: top and bottom strips full width, left
	// and right strips between them.
	require.Len(t, reg.Rects, 4)
	assert.Equal(t, int64(100*100-50*50), reg.Area())

	assert.True(t, reg.Contains(0, 0))
	assert.True(t, reg.Contains(99, 99))
	assert.True(t, reg.Contains(10, 50))
	assert.True(t, reg.Contains(90, 50))
	assert.False(t, reg.Contains(50, 50))
	assert.False(t, reg.Contains(25, 25))
	assert.False(t, reg.Contains(74, 74))
}

func TestRegionSubtractAcrossMultipleRects(t *testing.T) {
	var reg Region
	reg.Add(Rect{X: 0, Y: 0, Width: 100, Height: 100})
	reg.Add(Rect{X: 200, Y: 0, Width: 100, Height: 100})

	// The hole only touches the first rect; the second must survive
	// the split untouched.
	reg.Subtract(Rect{X: 25, Y: 25, Width: 50, Height: 50})

	assert.Equal(t, int64(100*100-50*50+100*100), reg.Area())
	assert.True(t, reg.Contains(250, 50))
	assert.True(t, reg.Contains(10, 50))
	assert.False(t, reg.Contains(50, 50))

	// A hole spanning both rects splits each.
	reg2 := Region{}
	reg2.Add(Rect{X: 0, Y: 0, Width: 100, Height: 100})
	reg2.Add(Rect{X: 200, Y: 0, Width: 100, Height: 100})
	reg2.Subtract(Rect{X: 50, Y: 25, Width: 200, Height: 50})
	assert.Equal(t, int64(2*100*100-2*50*50), reg2.Area())
	assert.False(t, reg2.Contains(75, 50))
	assert.False(t, reg2.Contains(225, 50))
	assert.True(t, reg2.Contains(75, 10))
	assert.True(t, reg2.Contains(225, 90))
	assert.True(t, reg2.Contains(25, 50))
	assert.True(t, reg2.Contains(275, 50))
}

func TestRegionSubtractDisjoint(t *testing.T) {
	var reg Region
	reg.Add(Rect{X: 0, Y: 0, Width: 10, Height: 10})
	reg.Subtract(Rect{X: 50, Y: 50, Width: 10, Height: 10})
	require.Len(t, reg.Rects, 1)
	assert.Equal(t, int64(100), reg.Area())
}

func TestRegionContainsNilIsInfinite(t *testing.T) {
	assert.True(t, regionContains(nil, 12345, -9))
	assert.False(t, regionContains([]Rect{}, 0, 0))
	assert.True(t, regionContains([]Rect{{Width: 5, Height: 5}}, 4, 4))
	assert.False(t, regionContains([]Rect{{Width: 5, Height: 5}}, 5, 5))
}
