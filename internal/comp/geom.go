// SPDX-License-Identifier: Unlicense OR MIT

package comp

// Rect is an axis-aligned rectangle in compositor coordinates.
type Rect struct {
	X, Y          int32
	Width, Height int32
}

func (r Rect) Contains(x, y int32) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) Area() int64 {
	if r.Empty() {
		return 0
	}
	return int64(r.Width) * int64(r.Height)
}

// Intersects reports overlap of non-empty rects.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

// Intersect clips r to o; the result may be empty.
func (r Rect) Intersect(o Rect) Rect {
	x0 := max32(r.X, o.X)
	y0 := max32(r.Y, o.Y)
	x1 := min32(r.X+r.Width, o.X+o.Width)
	y1 := min32(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
