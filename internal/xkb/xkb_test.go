// SPDX-License-Identifier: Unlicense OR MIT

package xkb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestKeymapServedFromMemfd(t *testing.T) {
	km, err := NewKeymap(MinimalKeymap)
	require.NoError(t, err)
	defer km.Close()

	assert.Equal(t, uint32(len(MinimalKeymap)), km.Size())

	data, err := unix.Mmap(km.Fd(), 0, int(km.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	require.NoError(t, err)
	defer unix.Munmap(data)
	assert.Equal(t, MinimalKeymap, string(data))
}

func TestModifierTracking(t *testing.T) {
	var s State

	changed := s.UpdateKey(42, true) // left shift
	assert.True(t, changed)
	dep, _, _, _ := s.Serialize()
	assert.Equal(t, ModShift, dep)

	// A second shift keeps the mask; releasing one clears it.
	changed = s.UpdateKey(54, true)
	assert.False(t, changed)
	assert.True(t, s.UpdateKey(42, false))
	// The second shift's release is a no-op once the bit is clear.
	assert.False(t, s.UpdateKey(54, false))

	// Caps lock toggles the locked mask on press only.
	assert.True(t, s.UpdateKey(58, true))
	assert.Equal(t, ModCaps, s.Locked)
	assert.False(t, s.UpdateKey(58, false))
	assert.True(t, s.UpdateKey(58, true))
	assert.Zero(t, s.Locked)

	// Non-modifier keys change nothing.
	assert.False(t, s.UpdateKey(30, true))
}

func TestUpdateMaskOverwrites(t *testing.T) {
	var s State
	s.UpdateMask(1, 2, 3, 4)
	dep, lat, lock, grp := s.Serialize()
	assert.Equal(t, []uint32{1, 2, 3, 4}, []uint32{dep, lat, lock, grp})
}
