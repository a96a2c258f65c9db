// SPDX-License-Identifier: Unlicense OR MIT

package comp

// Region is a list of rectangles built by wl_region add/subtract
// requests; rectangles stored by Add may overlap.
type Region struct {
	Rects []Rect
}

// Add appends a rectangle. Overlap between stored rects is tolerated;
// only subtract maintains the non-overlapping decomposition.
func (r *Region) Add(rect Rect) {
	if rect.Empty() {
		return
	}
	r.Rects = append(r.Rects, rect)
}

// Subtract removes sub from every stored rectangle, splitting each
// affected rect into up to four axis-aligned residuals: full-width top
// and bottom strips, and left/right strips between them. The result
// goes into a fresh slice: a split emits more rects than it consumes,
// so writing back into the slice being ranged would clobber unread
// entries.
func (r *Region) Subtract(sub Rect) {
	if sub.Empty() {
		return
	}
	out := make([]Rect, 0, len(r.Rects))
	for _, rect := range r.Rects {
		if !rect.Intersects(sub) {
			out = append(out, rect)
			continue
		}
		clip := rect.Intersect(sub)
		// Top strip.
		if clip.Y > rect.Y {
			out = append(out, Rect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: clip.Y - rect.Y})
		}
		// Bottom strip.
		if clip.Y+clip.Height < rect.Y+rect.Height {
			out = append(out, Rect{
				X: rect.X, Y: clip.Y + clip.Height,
				Width: rect.Width, Height: rect.Y + rect.Height - clip.Y - clip.Height,
			})
		}
		// Left strip, between the horizontal strips.
		if clip.X > rect.X {
			out = append(out, Rect{X: rect.X, Y: clip.Y, Width: clip.X - rect.X, Height: clip.Height})
		}
		// Right strip.
		if clip.X+clip.Width < rect.X+rect.Width {
			out = append(out, Rect{
				X: clip.X + clip.Width, Y: clip.Y,
				Width: rect.X + rect.Width - clip.X - clip.Width, Height: clip.Height,
			})
		}
	}
	r.Rects = out
}

// Contains reports whether any stored rect covers the point.
func (r *Region) Contains(x, y int32) bool {
	for _, rect := range r.Rects {
		if rect.Contains(x, y) {
			return true
		}
	}
	return false
}

// Area sums the rect areas. Valid only while the decomposition is
// non-overlapping.
func (r *Region) Area() int64 {
	var a int64
	for _, rect := range r.Rects {
		a += rect.Area()
	}
	return a
}

// Copy snapshots the rect list for storing into surface state.
func (r *Region) Copy() []Rect {
	if len(r.Rects) == 0 {
		return []Rect{}
	}
	out := make([]Rect, len(r.Rects))
	copy(out, r.Rects)
	return out
}

// regionContains implements the input-region test: a nil region is
// infinite.
func regionContains(rects []Rect, x, y int32) bool {
	if rects == nil {
		return true
	}
	for _, rect := range rects {
		if rect.Contains(x, y) {
			return true
		}
	}
	return false
}
