package packet

import (
	"encoding/binary"
	"math"
)

// Reader reads big-endian fields from a frame. The first short read sets a
// sticky ErrShortFrame; every later read returns zero, and Err reports the
// failure so callers never act on partial values.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = ErrShortFrame
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadU8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadI8() int8 {
	return int8(r.ReadU8())
}

func (r *Reader) ReadU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) ReadI16() int16 {
	return int16(r.ReadU16())
}

func (r *Reader) ReadU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) ReadI32() int32 {
	return int32(r.ReadU32())
}

func (r *Reader) ReadU64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *Reader) ReadI64() int64 {
	return int64(r.ReadU64())
}

func (r *Reader) ReadF32() float32 {
	return math.Float32frombits(r.ReadU32())
}

func (r *Reader) ReadF64() float64 {
	return math.Float64frombits(r.ReadU64())
}

// ReadBits reads size bytes into the low bits of the result.
func (r *Reader) ReadBits(size int) uint64 {
	switch size {
	case 1:
		return uint64(r.ReadU8())
	case 2:
		return uint64(r.ReadU16())
	case 4:
		return uint64(r.ReadU32())
	case 8:
		return r.ReadU64()
	}
	return 0
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) Err() error {
	return r.err
}
