package rw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReaderWriter packs and unpacks fixed width little-endian values.
// The first failure is kept and returned by Err; later calls become no-ops
// and reads return zero values.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	d.rw.Write(data)
	return d
}

// Err returns the first error met while reading or writing.
func (w *ReaderWriter) Err() error {
	return w.err
}

func (w *ReaderWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return nil
	}
	if w.rw.Len() < n {
		w.fail(fmt.Errorf("rw: need %d bytes, have %d: %w", n, w.rw.Len(), io.ErrUnexpectedEOF))
		return nil
	}
	_, _ = w.rw.Read(w.dataBuf[:n])
	return w.dataBuf[:n]
}

func (w *ReaderWriter) ReadUInt16s(value []uint16) {
	for i := range value {
		value[i] = w.ReadUInt16()
	}
}

func (w *ReaderWriter) ReadUInt16() uint16 {
	b := w.read(2)
	if b == nil {
		return 0
	}
	return w.order.Uint16(b)
}

func (w *ReaderWriter) ReadUInt8s(value []uint8) {
	for i := range value {
		value[i] = w.ReadUInt8()
	}
}

func (w *ReaderWriter) ReadUInt8() uint8 {
	b := w.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (w *ReaderWriter) ReadInt32() int32 {
	return int32(w.ReadUInt32())
}

func (w *ReaderWriter) ReadUInt32() uint32 {
	b := w.read(4)
	if b == nil {
		return 0
	}
	return w.order.Uint32(b)
}

func (w *ReaderWriter) ReadFloat32s(value []float32) {
	for i := range value {
		value[i] = w.ReadFloat32()
	}
}

func (w *ReaderWriter) ReadFloat32() float32 {
	return math.Float32frombits(w.ReadUInt32())
}

// WriteInt16 accepts int16, uint16 or int.
func (w *ReaderWriter) WriteInt16(v interface{}) {
	switch value := v.(type) {
	case int16:
		w.order.PutUint16(w.dataBuf, uint16(value))
	case uint16:
		w.order.PutUint16(w.dataBuf, value)
	case int:
		w.order.PutUint16(w.dataBuf, uint16(value))
	default:
		w.fail(fmt.Errorf("rw: WriteInt16 of %T", v))
		return
	}
	w.rw.Write(w.dataBuf[:2])
}

func (w *ReaderWriter) WriteInt16s(v interface{}) {
	switch value := v.(type) {
	case []int16:
		for _, tmp := range value {
			w.WriteInt16(tmp)
		}
	case []uint16:
		for _, tmp := range value {
			w.WriteInt16(tmp)
		}
	case []int:
		for _, tmp := range value {
			w.WriteInt16(tmp)
		}
	default:
		w.fail(fmt.Errorf("rw: WriteInt16s of %T", v))
	}
}

func (w *ReaderWriter) WriteInt8(v interface{}) {
	switch value := v.(type) {
	case int8:
		w.rw.WriteByte(byte(value))
	case uint8:
		w.rw.WriteByte(value)
	case int:
		w.rw.WriteByte(byte(value))
	default:
		w.fail(fmt.Errorf("rw: WriteInt8 of %T", v))
	}
}

func (w *ReaderWriter) WriteInt8s(v interface{}) {
	switch value := v.(type) {
	case []int8:
		for _, tmp := range value {
			w.WriteInt8(tmp)
		}
	case []uint8:
		w.rw.Write(value)
	default:
		w.fail(fmt.Errorf("rw: WriteInt8s of %T", v))
	}
}

func (w *ReaderWriter) WriteInt32(v interface{}) {
	switch value := v.(type) {
	case int32:
		w.order.PutUint32(w.dataBuf, uint32(value))
	case int:
		w.order.PutUint32(w.dataBuf, uint32(value))
	case uint32:
		w.order.PutUint32(w.dataBuf, value)
	default:
		w.fail(fmt.Errorf("rw: WriteInt32 of %T", v))
		return
	}
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32s(v interface{}) {
	switch value := v.(type) {
	case []int32:
		for _, tmp := range value {
			w.WriteInt32(tmp)
		}
	case []int:
		for _, tmp := range value {
			w.WriteInt32(tmp)
		}
	case []uint32:
		for _, tmp := range value {
			w.WriteInt32(tmp)
		}
	default:
		w.fail(fmt.Errorf("rw: WriteInt32s of %T", v))
	}
}

func (w *ReaderWriter) WriteFloat32(v interface{}) {
	switch value := v.(type) {
	case float32:
		w.order.PutUint32(w.dataBuf, math.Float32bits(value))
	case float64:
		w.order.PutUint32(w.dataBuf, math.Float32bits(float32(value)))
	default:
		w.fail(fmt.Errorf("rw: WriteFloat32 of %T", v))
		return
	}
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteFloat32s(v interface{}) {
	switch value := v.(type) {
	case []float32:
		for _, tmp := range value {
			w.WriteFloat32(tmp)
		}
	case []float64:
		for _, tmp := range value {
			w.WriteFloat32(float32(tmp))
		}
	default:
		w.fail(fmt.Errorf("rw: WriteFloat32s of %T", v))
	}
}

// Skip discards n unread bytes.
func (w *ReaderWriter) Skip(n int) {
	w.skip(n)
}

func (w *ReaderWriter) skip(n int) {
	if w.err != nil || n <= 0 {
		return
	}
	if w.rw.Len() < n {
		w.fail(fmt.Errorf("rw: skip %d bytes, have %d: %w", n, w.rw.Len(), io.ErrUnexpectedEOF))
		return
	}
	w.rw.Next(n)
}

func (w *ReaderWriter) GetWriteBytes() []byte {
	return w.rw.Bytes()
}

func (w *ReaderWriter) PadZero(n int) {
	for i := 0; i < n; i++ {
		w.rw.WriteByte(0)
	}
}

// Size is the number of bytes written, or still unread when reading.
func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}
