// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/io/event"
)

// Subsurface reparents a surface beneath another. Parent and child are
// linked through two id-keyed maps, never owning pointers.
type Subsurface struct {
	Surface uint32
	Parent  uint32

	X, Y               int32
	PendingX, PendingY int32

	// Sync defers commits into the cached state until an ancestor
	// commits.
	Sync   bool
	ZOrder int
}

// AddSubsurface links child under parent, last in sibling order.
func (st *State) AddSubsurface(surface, parent uint32) *Subsurface {
	sub := &Subsurface{
		Surface: surface,
		Parent:  parent,
		Sync:    true,
		ZOrder:  len(st.subsurfaceChildren[parent]),
	}
	st.subsurfaces[surface] = sub
	st.subsurfaceChildren[parent] = append(st.subsurfaceChildren[parent], surface)
	log.Debug().
		Uint32("surface", surface).
		Uint32("parent", parent).
		Int("z", sub.ZOrder).
		Msg("subsurface added")
	return sub
}

func (st *State) removeSubsurface(surface uint32) {
	sub, ok := st.subsurfaces[surface]
	if !ok {
		return
	}
	delete(st.subsurfaces, surface)
	children := st.subsurfaceChildren[sub.Parent]
	out := children[:0]
	for _, id := range children {
		if id != surface {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		delete(st.subsurfaceChildren, sub.Parent)
	} else {
		st.subsurfaceChildren[sub.Parent] = out
	}
}

// RemoveSubsurface unlinks a subsurface from its parent.
func (st *State) RemoveSubsurface(surface uint32) {
	st.removeSubsurface(surface)
	st.MarkSceneDirty()
}

// Subsurface returns the subsurface record, or nil.
func (st *State) Subsurface(surface uint32) *Subsurface { return st.subsurfaces[surface] }

// SubsurfaceChildren lists child surfaces in sibling z-order.
func (st *State) SubsurfaceChildren(parent uint32) []uint32 {
	return st.subsurfaceChildren[parent]
}

// SetSubsurfacePosition stores the pending position; it applies when
// the parent's state applies.
func (st *State) SetSubsurfacePosition(surface uint32, x, y int32) {
	if sub := st.subsurfaces[surface]; sub != nil {
		sub.PendingX, sub.PendingY = x, y
	}
}

// SetSubsurfaceSync flips the sync flag.
func (st *State) SetSubsurfaceSync(surface uint32, sync bool) {
	if sub := st.subsurfaces[surface]; sub != nil {
		sub.Sync = sync
	}
}

// PlaceSubsurfaceAbove moves surface directly above sibling in the
// parent's child list.
func (st *State) PlaceSubsurfaceAbove(surface, sibling uint32) {
	st.placeSubsurface(surface, sibling, true)
}

// PlaceSubsurfaceBelow moves surface directly below sibling.
func (st *State) PlaceSubsurfaceBelow(surface, sibling uint32) {
	st.placeSubsurface(surface, sibling, false)
}

func (st *State) placeSubsurface(surface, sibling uint32, above bool) {
	sub, ok := st.subsurfaces[surface]
	if !ok {
		return
	}
	children := st.subsurfaceChildren[sub.Parent]
	pos := -1
	for i, id := range children {
		if id == sibling {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	out := make([]uint32, 0, len(children))
	for _, id := range children {
		if id != surface {
			out = append(out, id)
		}
	}
	insert := 0
	for i, id := range out {
		if id == sibling {
			if above {
				insert = i + 1
			} else {
				insert = i
			}
			break
		}
	}
	out = append(out[:insert], append([]uint32{surface}, out[insert:]...)...)
	st.subsurfaceChildren[sub.Parent] = out
	for i, id := range out {
		if s := st.subsurfaces[id]; s != nil {
			s.ZOrder = i
		}
	}
	st.MarkSceneDirty()
}

// EffectivelySync walks ancestors: a subsurface is synchronized when
// it or any ancestor subsurface has the sync flag.
func (st *State) EffectivelySync(surface uint32) bool {
	id := surface
	for {
		sub, ok := st.subsurfaces[id]
		if !ok {
			return false
		}
		if sub.Sync {
			return true
		}
		id = sub.Parent
	}
}

// HandleCommit is the commit entry point: it applies (or caches) the
// surface's pending state, transitively applies cached state of sync
// descendants, queues displaced buffers for release, and emits the
// committed event the platform keys redraws on.
func (st *State) HandleCommit(id uint32) {
	s := st.surfaces[id]
	if s == nil {
		log.Debug().Uint32("surface", id).Msg("commit for unknown surface")
		return
	}
	sync := st.EffectivelySync(id)
	var released uint32
	if sync {
		released = s.CommitSync()
	} else {
		released = s.Commit()
	}
	if released != 0 {
		st.QueueBufferRelease(s.Client, released)
	}
	if !sync {
		st.applyCachedDescendants(id)
		for _, child := range st.subsurfaceChildren[id] {
			if sub := st.subsurfaces[child]; sub != nil {
				sub.X, sub.Y = sub.PendingX, sub.PendingY
			}
		}
	}
	st.presentation.markCommitted(id)
	st.MarkSceneDirty()
	if !sync {
		st.finalizeCommit(s)
	}
}

func (st *State) applyCachedDescendants(id uint32) {
	for _, child := range st.subsurfaceChildren[id] {
		sub := st.subsurfaces[child]
		if sub == nil || !sub.Sync {
			continue
		}
		if s := st.surfaces[child]; s != nil {
			if released := s.ApplyCached(); released != 0 {
				st.QueueBufferRelease(s.Client, released)
			}
		}
		sub.X, sub.Y = sub.PendingX, sub.PendingY
		st.applyCachedDescendants(child)
	}
}

// finalizeCommit classifies the surface (window, layer, cursor, or
// subsurface of a window) and emits the matching event. Subsurfaces of
// layer or cursor surfaces are not resolved to their root.
func (st *State) finalizeCommit(s *Surface) {
	id := s.ID
	windowID, hasWindow := st.surfaceToWindow[id]
	_, isLayer := st.layerSurfaces[id]

	if !hasWindow && !isLayer {
		// A subsurface commit redraws its root window.
		parent := id
		for depth := 0; depth < 10; depth++ {
			sub, ok := st.subsurfaces[parent]
			if !ok {
				break
			}
			parent = sub.Parent
			if wid, ok := st.surfaceToWindow[parent]; ok {
				windowID, hasWindow = wid, true
				break
			}
		}
	}

	switch {
	case hasWindow:
		st.syncWindowSize(windowID, s)
		st.Emit(event.SurfaceCommitted{
			Client:  s.Client,
			Surface: id,
			Buffer:  uint64(s.Current.BufferID),
		})
	case isLayer:
		st.layerSurfaceCommitted(id)
		st.Emit(event.LayerSurfaceCommitted{
			Client:  s.Client,
			Surface: id,
			Buffer:  uint64(s.Current.BufferID),
		})
	case st.seat.Pointer.CursorSurface == id:
		st.Emit(event.CursorCommitted{
			Client:   s.Client,
			Surface:  id,
			Buffer:   uint64(s.Current.BufferID),
			HotspotX: st.seat.Pointer.HotspotX,
			HotspotY: st.seat.Pointer.HotspotY,
		})
	}

}

// syncWindowSize mirrors the committed surface size (or the xdg
// geometry, when set) into the window, emitting WindowSizeChanged when
// it moved. Fullscreen-shell windows are excluded: the output dictates
// their size.
func (st *State) syncWindowSize(windowID uint32, s *Surface) {
	w := st.windows[windowID]
	if w == nil {
		return
	}
	oldW, oldH := w.Width, w.Height
	if geom, ok := st.xdg.geometryFor(s.ID); ok {
		w.Width, w.Height = geom.Width, geom.Height
		w.GeometryX, w.GeometryY = geom.X, geom.Y
	} else {
		w.Width, w.Height = s.Current.Width, s.Current.Height
		w.GeometryX, w.GeometryY = 0, 0
	}
	if (w.Width != oldW || w.Height != oldH) &&
		st.fullscreenShell.presentedWindow != windowID &&
		w.Width > 0 && w.Height > 0 {
		st.Emit(event.WindowSizeChanged{
			Window: windowID,
			Width:  uint32(w.Width),
			Height: uint32(w.Height),
		})
	}
}

// FireFrameCallbacks sends wl_callback.done to every surface presented
// in this frame. A surface with no committed buffer keeps its queue
// until a buffer arrives and presents.
func (st *State) FireFrameCallbacks(timeMS uint32) {
	for _, s := range st.surfaces {
		if len(s.FrameCallbacks) == 0 || s.Current.BufferID == 0 {
			continue
		}
		for _, cb := range s.FrameCallbacks {
			if cb.Alive() {
				cb.Send(cb.NewEvent(0).PutUint32(timeMS))
				cb.Destroy()
			}
		}
		s.FrameCallbacks = s.FrameCallbacks[:0]
	}
}
