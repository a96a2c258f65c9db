// SPDX-License-Identifier: Unlicense OR MIT

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedConversions(t *testing.T) {
	assert.Equal(t, 1.5, FixedFromFloat64(1.5).Float64())
	assert.Equal(t, -2.25, FixedFromFloat64(-2.25).Float64())
	assert.Equal(t, int32(7), FixedFromInt(7).Int())
	assert.Equal(t, Fixed(256), FixedFromFloat64(1.0))
}

func TestMessageRoundTrip(t *testing.T) {
	m := NewMessage(3, 7).
		PutUint32(42).
		PutInt32(-5).
		PutFixed(FixedFromFloat64(1.25)).
		PutString("hello").
		PutArray([]byte{1, 2, 3})
	b := m.Bytes()

	h := ParseHeader(b)
	assert.Equal(t, uint32(3), h.Object)
	assert.Equal(t, uint16(7), h.Opcode)
	assert.Equal(t, int(h.Size), len(b))

	r := NewReader(b[HeaderSize:], nil)
	assert.Equal(t, uint32(42), r.Uint32())
	assert.Equal(t, int32(-5), r.Int32())
	assert.Equal(t, 1.25, r.Fixed().Float64())
	assert.Equal(t, "hello", r.String())
	assert.Equal(t, []byte{1, 2, 3}, r.Array())
	require.NoError(t, r.Err())
}

func TestStringPadding(t *testing.T) {
	// "abc" plus NUL is exactly one word; no extra padding.
	m := NewMessage(1, 0).PutString("abc")
	assert.Equal(t, HeaderSize+4+4, len(m.Bytes()))

	// "abcd" plus NUL spills into a second, padded word.
	m = NewMessage(1, 0).PutString("abcd")
	assert.Equal(t, HeaderSize+4+8, len(m.Bytes()))
}

func TestReaderTruncationIsSticky(t *testing.T) {
	r := NewReader([]byte{1, 0, 0, 0}, nil)
	assert.Equal(t, uint32(1), r.Uint32())
	assert.Zero(t, r.Uint32())
	require.Error(t, r.Err())
	assert.Zero(t, r.Uint32())
}

func TestConnPairCarriesMessages(t *testing.T) {
	a, b, err := NewPair()
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	a.Queue(NewMessage(9, 2).PutUint32(77))
	require.NoError(t, a.Flush())

	alive, err := b.Read()
	require.NoError(t, err)
	require.True(t, alive)

	msg, ok := b.Next()
	require.True(t, ok)
	assert.Equal(t, uint32(9), msg.Object)
	assert.Equal(t, uint16(2), msg.Opcode)
	r := NewReader(msg.Data, b.Fds())
	assert.Equal(t, uint32(77), r.Uint32())

	_, ok = b.Next()
	assert.False(t, ok)
}

func TestConnDetectsHangup(t *testing.T) {
	a, b, err := NewPair()
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, a.Close())

	alive, err := b.Read()
	require.NoError(t, err)
	assert.False(t, alive)
}
