package rw

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(int32(-7))
	w.WriteInt16s([]uint16{1, 0xffff})
	w.WriteInt8s([]uint8{9, 8})
	w.WriteFloat32(float32(1.5))
	w.PadZero(2)
	w.WriteInt32s([]int{3, 4})
	require.NoError(t, w.Err())
	require.Equal(t, 4+4+2+4+2+8, w.Size())

	r := NewReader(w.GetWriteBytes())
	assert.Equal(t, int32(-7), r.ReadInt32())
	u16 := make([]uint16, 2)
	r.ReadUInt16s(u16)
	assert.Equal(t, []uint16{1, 0xffff}, u16)
	u8 := make([]uint8, 2)
	r.ReadUInt8s(u8)
	assert.Equal(t, []uint8{9, 8}, u8)
	assert.Equal(t, float32(1.5), r.ReadFloat32())
	r.Skip(2)
	assert.Equal(t, int32(3), r.ReadInt32())
	assert.Equal(t, int32(4), r.ReadInt32())
	assert.NoError(t, r.Err())
	assert.Equal(t, 0, r.Size())
}

func TestWriteInt16sHasNoTrailingBytes(t *testing.T) {
	w := NewWriter()
	w.WriteInt16s([]int16{1, 2, 3})
	assert.Equal(t, 6, w.Size())
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(uint32(0x01020304))
	assert.Equal(t, []byte{4, 3, 2, 1}, w.GetWriteBytes())

	w = NewWriter()
	w.WriteInt16(uint16(0x0102))
	assert.Equal(t, []byte{2, 1}, w.GetWriteBytes())
}

func TestShortReadIsSticky(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	assert.Equal(t, uint32(0), r.ReadUInt32())
	require.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)

	// Enough bytes remain for a uint16, but the reader has already failed.
	assert.Equal(t, uint16(0), r.ReadUInt16())
	assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

func TestUnsupportedType(t *testing.T) {
	w := NewWriter()
	w.WriteInt32("nope")
	assert.Error(t, w.Err())
	assert.Equal(t, 0, w.Size())
}
