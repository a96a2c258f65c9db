// SPDX-License-Identifier: Unlicense OR MIT

package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojehle/wawona/io/event"
	"github.com/ojehle/wawona/io/input"
)

func TestBusFIFOPerDirection(t *testing.T) {
	b := New()

	b.Post(event.WindowCreated{Window: 1})
	b.Post(event.WindowDestroyed{Window: 1})

	ev, ok := b.PopEvent()
	require.True(t, ok)
	assert.IsType(t, event.WindowCreated{}, ev)
	ev, ok = b.PopEvent()
	require.True(t, ok)
	assert.IsType(t, event.WindowDestroyed{}, ev)
	_, ok = b.PopEvent()
	assert.False(t, ok)

	b.Inject(input.PointerMotion{X: 1, Y: 2})
	in, ok := b.PopInput()
	require.True(t, ok)
	assert.Equal(t, input.PointerMotion{X: 1, Y: 2}, in)
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	b := New()
	for i := 0; i < queueCap+10; i++ {
		b.Post(event.WindowSizeChanged{Window: uint32(i)})
	}
	assert.Equal(t, int64(10), b.Dropped())

	ev, ok := b.PopEvent()
	require.True(t, ok)
	assert.Equal(t, uint32(10), ev.(event.WindowSizeChanged).Window)
}
