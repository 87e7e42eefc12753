package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeDecode(t *testing.T) {
	in := TileRecord{
		ID:           12,
		ParentMeshID: 3,
		TileX:        -2,
		TileY:        0,
		TileZ:        7,
		NavData:      []byte{1, 2, 3},
		PolyData:     []byte{4},
	}
	var out TileRecord
	require.NoError(t, Decode(Encode(&in), &out))
	assert.Equal(t, in, out)
}

func TestEncodeEmpty(t *testing.T) {
	assert.Empty(t, Encode(&TileRecord{}))

	var out TileRecord
	require.NoError(t, Decode(nil, &out))
	assert.Equal(t, TileRecord{}, out)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	data := Encode(&TileRecord{TileX: 5})
	data = protowire.AppendTag(data, 99, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("extra"))

	var out TileRecord
	require.NoError(t, Decode(data, &out))
	assert.Equal(t, int32(5), out.TileX)
}

func TestDecodeTruncated(t *testing.T) {
	data := Encode(&TileRecord{NavData: []byte{1, 2, 3, 4}})
	var out TileRecord
	assert.ErrorIs(t, Decode(data[:len(data)-2], &out), ErrMalformed)
}
