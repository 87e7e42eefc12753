package message

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("message: malformed tile record")

// TileRecord is the persisted form of one navigation tile.
type TileRecord struct {
	ID           uint32
	ParentMeshID uint32
	TileX        int32
	TileY        int32
	TileZ        int32
	NavData      []byte
	PolyData     []byte
}

const (
	fieldID protowire.Number = iota + 1
	fieldParentMeshID
	fieldTileX
	fieldTileY
	fieldTileZ
	fieldNavData
	fieldPolyData
)

// Encode writes rec in protobuf wire format. Zero fields are omitted.
func Encode(rec *TileRecord) (data []byte) {
	appendVarint := func(num protowire.Number, v uint64) {
		if v == 0 {
			return
		}
		data = protowire.AppendTag(data, num, protowire.VarintType)
		data = protowire.AppendVarint(data, v)
	}
	appendBytes := func(num protowire.Number, b []byte) {
		if len(b) == 0 {
			return
		}
		data = protowire.AppendTag(data, num, protowire.BytesType)
		data = protowire.AppendBytes(data, b)
	}
	appendVarint(fieldID, uint64(rec.ID))
	appendVarint(fieldParentMeshID, uint64(rec.ParentMeshID))
	appendVarint(fieldTileX, protowire.EncodeZigZag(int64(rec.TileX)))
	appendVarint(fieldTileY, protowire.EncodeZigZag(int64(rec.TileY)))
	appendVarint(fieldTileZ, protowire.EncodeZigZag(int64(rec.TileZ)))
	appendBytes(fieldNavData, rec.NavData)
	appendBytes(fieldPolyData, rec.PolyData)
	return data
}

// Decode parses data produced by Encode. Unknown fields are skipped.
func Decode(data []byte, rec *TileRecord) error {
	*rec = TileRecord{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case typ == protowire.VarintType && num >= fieldID && num <= fieldTileZ:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			data = data[m:]
			switch num {
			case fieldID:
				rec.ID = uint32(v)
			case fieldParentMeshID:
				rec.ParentMeshID = uint32(v)
			case fieldTileX:
				rec.TileX = int32(protowire.DecodeZigZag(v))
			case fieldTileY:
				rec.TileY = int32(protowire.DecodeZigZag(v))
			case fieldTileZ:
				rec.TileZ = int32(protowire.DecodeZigZag(v))
			}
		case typ == protowire.BytesType && (num == fieldNavData || num == fieldPolyData):
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			data = data[m:]
			if num == fieldNavData {
				rec.NavData = append([]byte(nil), v...)
			} else {
				rec.PolyData = append([]byte(nil), v...)
			}
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return nil
}
