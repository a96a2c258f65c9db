// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"github.com/rs/zerolog/log"

	"github.com/ojehle/wawona/io/event"
)

// Window is a logical top-level rectangle in compositor coordinates.
// Toplevels and synthetic fullscreen-shell windows get one. A popup gets
// a window id that its surface maps to, but no Window record; its
// rectangle is kept in its PopupData.
type Window struct {
	ID      uint32
	Surface uint32
	Title   string
	AppID   string

	X, Y          int32
	Width, Height int32

	Decoration event.DecorationMode

	Maximized  bool
	Fullscreen bool
	Minimized  bool
	Activated  bool
	Resizing   bool
	Modal      bool

	// GeometryX/Y is the content-area origin within the buffer when
	// xdg geometry crops away the CSD shadow; pointer coordinates are
	// shifted by it.
	GeometryX, GeometryY int32

	// Outputs the window currently overlaps.
	Outputs []uint32
}

func (w *Window) Geometry() Rect {
	return Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
}

// RegisterWindow inserts the window on top of the stack and grants it
// focus.
func (st *State) RegisterWindow(w *Window) uint32 {
	st.windows[w.ID] = w
	st.surfaceToWindow[w.Surface] = w.ID
	st.stacking = append(st.stacking, w.ID)

	st.focus.SetKeyboard(w.ID)
	if old := st.focus.Pointer; old != 0 && old != w.ID {
		if ow := st.windows[old]; ow != nil {
			st.deactivateConstraint(ow.Surface)
		}
	}
	st.focus.Pointer = w.ID
	st.seat.Keyboard.Focus = w.Surface
	st.activateConstraint(w.Surface)
	st.BringToFront(w.ID)
	st.MarkSceneDirty()

	log.Info().Uint32("window", w.ID).Uint32("surface", w.Surface).Msg("window registered")
	return w.ID
}

// DestroyWindow removes a window, clears any focus it held and picks
// the next focus from the history.
func (st *State) DestroyWindow(id uint32) {
	w, ok := st.windows[id]
	if !ok {
		return
	}
	delete(st.windows, id)
	delete(st.surfaceToWindow, w.Surface)
	st.removeFromStack(id)
	st.focus.forget(id)

	if st.focus.Keyboard == id {
		next := uint32(0)
		if len(st.focus.History) > 0 {
			next = st.focus.History[0]
		}
		st.focus.SetKeyboard(next)
		st.focus.forget(id)
		if nw := st.windows[next]; nw != nil {
			st.seat.Keyboard.Focus = nw.Surface
		} else {
			st.seat.Keyboard.Focus = 0
		}
	}
	if st.focus.Pointer == id {
		st.deactivateConstraint(w.Surface)
		st.focus.Pointer = 0
	}
	for _, h := range st.foreignHandles[id] {
		st.closeForeignHandle(h)
	}
	delete(st.foreignHandles, id)
	st.MarkSceneDirty()

	log.Info().Uint32("window", id).Msg("window destroyed")
	st.Emit(event.WindowDestroyed{Window: id})
}

// Window looks a window up, nil when unknown.
func (st *State) Window(id uint32) *Window { return st.windows[id] }

// WindowForSurface resolves the window owning a surface.
func (st *State) WindowForSurface(surface uint32) *Window {
	if id, ok := st.surfaceToWindow[surface]; ok {
		return st.windows[id]
	}
	return nil
}

// Stacking returns window ids back to front.
func (st *State) Stacking() []uint32 { return st.stacking }

func (st *State) removeFromStack(id uint32) {
	out := st.stacking[:0]
	for _, w := range st.stacking {
		if w != id {
			out = append(out, w)
		}
	}
	st.stacking = out
}

// BringToFront raises a window to the top of the stack.
func (st *State) BringToFront(id uint32) {
	if _, ok := st.windows[id]; !ok {
		return
	}
	st.removeFromStack(id)
	st.stacking = append(st.stacking, id)
	st.MarkSceneDirty()
}

// WindowUnder finds the topmost window whose geometry contains the
// point.
func (st *State) WindowUnder(x, y float64) uint32 {
	for i := len(st.stacking) - 1; i >= 0; i-- {
		id := st.stacking[i]
		w := st.windows[id]
		if w == nil || w.Minimized {
			continue
		}
		if w.Geometry().Contains(int32(x), int32(y)) {
			return id
		}
	}
	return 0
}

// FocusedWindow is the keyboard-focused window id, 0 when none.
func (st *State) FocusedWindow() uint32 { return st.focus.Keyboard }

// FocusHistory is exposed for tests.
func (st *State) FocusHistory() []uint32 { return st.focus.History }

// SetFocusedWindow moves keyboard focus to a window (or clears it) and
// mirrors the focus to the seat's surface-level keyboard focus.
func (st *State) SetFocusedWindow(id uint32) {
	old := st.seat.Keyboard.Focus
	st.focus.SetKeyboard(id)
	if w := st.windows[id]; w != nil {
		st.seat.Keyboard.Focus = w.Surface
	} else {
		st.seat.Keyboard.Focus = 0
	}
	if old != st.seat.Keyboard.Focus {
		st.keyboardFocusChanged(old, st.seat.Keyboard.Focus)
	}
	log.Debug().Uint32("window", id).Msg("keyboard focus changed")
}

// SetWindowTitle updates the title and notifies platform and foreign
// toplevel watchers.
func (st *State) SetWindowTitle(id uint32, title string) {
	w := st.windows[id]
	if w == nil || w.Title == title {
		return
	}
	w.Title = title
	st.Emit(event.WindowTitleChanged{Window: id, Title: title})
	st.foreignTitleChanged(id, title)
}

// SetWindowMinimized flips the minimized flag and tells the platform.
func (st *State) SetWindowMinimized(id uint32, minimized bool) {
	w := st.windows[id]
	if w == nil || w.Minimized == minimized {
		return
	}
	w.Minimized = minimized
	st.MarkSceneDirty()
	st.Emit(event.WindowMinimized{Window: id, Minimized: minimized})
}
