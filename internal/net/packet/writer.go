package packet

import (
	"encoding/binary"
	"math"
)

// Writer builds a frame. All multi-byte writes are big-endian and nothing is
// padded: the frame length is exactly the sum of what was written.
type Writer struct {
	buf []byte
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteI8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteI16(v int16) {
	w.WriteU16(uint16(v))
}

func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

func (w *Writer) WriteU64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteI64(v int64) {
	w.WriteU64(uint64(v))
}

func (w *Writer) WriteF32(v float32) {
	w.WriteU32(math.Float32bits(v))
}

func (w *Writer) WriteF64(v float64) {
	w.WriteU64(math.Float64bits(v))
}

// WriteBits writes the low size bytes of bits.
func (w *Writer) WriteBits(bits uint64, size int) {
	switch size {
	case 1:
		w.WriteU8(uint8(bits))
	case 2:
		w.WriteU16(uint16(bits))
	case 4:
		w.WriteU32(uint32(bits))
	case 8:
		w.WriteU64(bits)
	}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}
