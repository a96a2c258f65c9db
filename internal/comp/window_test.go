// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojehle/wawona/io/event"
)

func stateOnly() *State {
	return New(nil, Features{})
}

func addWindow(st *State, surface uint32, r Rect) *Window {
	s := NewSurface(surface, 1, nil)
	st.AddSurface(s)
	w := &Window{
		ID:      st.nextWindow(),
		Surface: surface,
		X:       r.X, Y: r.Y,
		Width: r.Width, Height: r.Height,
	}
	st.RegisterWindow(w)
	return w
}

func TestRegisterWindowTakesFocusAndTop(t *testing.T) {
	st := stateOnly()
	st.AddOutput(&Output{ID: 1, Width: 800, Height: 600, Scale: 1})

	a := addWindow(st, 1, Rect{Width: 100, Height: 100})
	b := addWindow(st, 2, Rect{Width: 100, Height: 100})

	assert.Equal(t, b.ID, st.FocusedWindow())
	require.Equal(t, []uint32{a.ID, b.ID}, st.Stacking())

	st.BringToFront(a.ID)
	require.Equal(t, []uint32{b.ID, a.ID}, st.Stacking())
}

func TestDestroyWindowFocusFallsBack(t *testing.T) {
	st := stateOnly()
	a := addWindow(st, 1, Rect{Width: 10, Height: 10})
	b := addWindow(st, 2, Rect{Width: 10, Height: 10})

	st.DestroyWindow(b.ID)
	// Focus falls back to the most recently focused live window.
	assert.Equal(t, a.ID, st.FocusedWindow())

	var destroyed bool
	for _, ev := range st.DrainEvents() {
		if e, ok := ev.(event.WindowDestroyed); ok && e.Window == b.ID {
			destroyed = true
		}
	}
	assert.True(t, destroyed)
}

func TestFocusHistoryBounded(t *testing.T) {
	st := stateOnly()
	for i := 0; i < 15; i++ {
		addWindow(st, uint32(i+1), Rect{Width: 10, Height: 10})
	}
	assert.LessOrEqual(t, len(st.FocusHistory()), focusHistoryCap)
}

func TestWindowUnderUsesStackingOrder(t *testing.T) {
	st := stateOnly()
	a := addWindow(st, 1, Rect{X: 0, Y: 0, Width: 100, Height: 100})
	b := addWindow(st, 2, Rect{X: 50, Y: 50, Width: 100, Height: 100})

	// Overlap resolves to the topmost window.
	assert.Equal(t, b.ID, st.WindowUnder(75, 75))
	assert.Equal(t, a.ID, st.WindowUnder(10, 10))
	assert.Zero(t, st.WindowUnder(300, 300))

	st.BringToFront(a.ID)
	assert.Equal(t, a.ID, st.WindowUnder(75, 75))

	// Minimized windows are skipped.
	st.SetWindowMinimized(a.ID, true)
	assert.Equal(t, b.ID, st.WindowUnder(75, 75))
}

func TestConfigureSerialBumpsWithoutSizeChange(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")
	ids := h.createToplevel(compositor, wmBase)
	h.attachCommit(ids.surface, h.createShmBuffer(shm, 64, 64))
	h.st.DrainEvents()

	before := h.st.Serial()
	h.st.SendToplevelConfigure(h.client.ID(), ids.toplevel, 64, 64)
	assert.Equal(t, before+1, h.st.Serial())
	// Identical size produces no size-change event.
	for _, ev := range h.st.DrainEvents() {
		_, isSize := ev.(event.WindowSizeChanged)
		assert.False(t, isSize)
	}
}
