// SPDX-License-Identifier: Unlicense OR MIT

package comp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceCommitMovesPendingToCurrent(t *testing.T) {
	s := NewSurface(1, 0, nil)
	assert.Zero(t, s.Current.Width)

	s.Pending.Width = 100
	s.Pending.Height = 200
	s.Commit()

	assert.Equal(t, int32(100), s.Current.Width)
	assert.Equal(t, int32(200), s.Current.Height)
	// Only damage drains; other pending values persist until changed.
	assert.Equal(t, int32(100), s.Pending.Width)
}

func TestSurfaceDamageAccumulates(t *testing.T) {
	s := NewSurface(2, 0, nil)
	first := Rect{Width: 10, Height: 10}
	s.Pending.Damage = append(s.Pending.Damage, first)
	s.Commit()

	require.Len(t, s.Current.Damage, 1)
	assert.Equal(t, first, s.Current.Damage[0])
	assert.Empty(t, s.Pending.Damage)

	second := Rect{X: 10, Y: 10, Width: 20, Height: 20}
	s.Pending.Damage = append(s.Pending.Damage, second)
	s.Commit()

	require.Len(t, s.Current.Damage, 2)
	assert.Equal(t, second, s.Current.Damage[1])
}

func TestSurfaceRoleSetOnce(t *testing.T) {
	s := NewSurface(3, 0, nil)
	require.NoError(t, s.SetRole(RoleToplevel))
	assert.Equal(t, RoleToplevel, s.Role)

	// The same role again is fine; a different one is refused and
	// leaves state untouched.
	require.NoError(t, s.SetRole(RoleToplevel))
	require.Error(t, s.SetRole(RoleCursor))
	assert.Equal(t, RoleToplevel, s.Role)
}

func TestCommitReturnsDisplacedBuffer(t *testing.T) {
	s := NewSurface(4, 0, nil)
	s.Pending.BufferID = 7
	assert.Zero(t, s.Commit())

	s.Pending.BufferID = 8
	assert.Equal(t, uint32(7), s.Commit())

	// Committing the same buffer again displaces nothing.
	assert.Zero(t, s.Commit())

	s.Pending.BufferID = 0
	assert.Equal(t, uint32(8), s.Commit())
}

func TestCommitSyncCachesAndApplies(t *testing.T) {
	s := NewSurface(5, 0, nil)
	s.Pending.BufferID = 1
	s.Pending.Width = 32

	assert.Zero(t, s.CommitSync())
	require.NotNil(t, s.Cached)
	assert.Zero(t, s.Current.BufferID)

	// Replacing the cached state yields the displaced cached buffer.
	s.Pending.BufferID = 2
	assert.Equal(t, uint32(1), s.CommitSync())

	assert.Zero(t, s.ApplyCached())
	assert.Equal(t, uint32(2), s.Current.BufferID)
	assert.Equal(t, int32(32), s.Current.Width)
	assert.Nil(t, s.Cached)

	// Nothing cached, nothing applied.
	assert.Zero(t, s.ApplyCached())
}

func TestAttachNoneReleasesExactlyOnce(t *testing.T) {
	h := newHarness(t)
	compositor := h.bind("wl_compositor")
	wmBase := h.bind("xdg_wm_base")
	shm := h.bind("wl_shm")

	ids := h.createToplevel(compositor, wmBase)
	buf := h.createShmBuffer(shm, 16, 16)
	h.attachCommit(ids.surface, buf)
	h.events()

	// attach(nil); commit displaces B, whose release arrives only
	// after the present signal, exactly once.
	h.attachCommit(ids.surface, 0)
	require.Equal(t, 1, h.st.PendingReleaseCount())

	countReleases := func() int {
		n := 0
		for _, ev := range h.events() {
			if ev.Object == buf && ev.Opcode == 0 {
				n++
			}
		}
		return n
	}
	require.Zero(t, countReleases())

	h.present()
	require.Equal(t, 1, countReleases())

	h.present()
	require.Zero(t, countReleases())
}
