package packet

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrShortFrame     = errors.New("packet: frame shorter than layout")
	ErrFrameLength    = errors.New("packet: frame length does not match layout")
	ErrUnknownType    = errors.New("packet: unknown frame type")
	ErrTypeMismatch   = errors.New("packet: frame type does not match")
	ErrInvalidPrim    = errors.New("packet: invalid primitive")
	ErrTypeOutOfRange = errors.New("packet: type id does not fit the header")
)

// Prim is a fixed-width wire primitive.
type Prim uint8

const (
	Int8 Prim = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

// Size returns the encoded width in bytes, or 0 for an invalid primitive.
func (p Prim) Size() int {
	switch p {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

func (p Prim) String() string {
	switch p {
	case Int8:
		return "i8"
	case Uint8:
		return "u8"
	case Int16:
		return "i16"
	case Uint16:
		return "u16"
	case Int32:
		return "i32"
	case Uint32:
		return "u32"
	case Int64:
		return "i64"
	case Uint64:
		return "u64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	}
	return fmt.Sprintf("prim(%d)", uint8(p))
}

// Layout is the ordered list of segments following the type header.
type Layout []Prim

// Size returns the summed width of all segments.
func (l Layout) Size() int {
	n := 0
	for _, p := range l {
		n += p.Size()
	}
	return n
}

// Value is one segment: its primitive and its wire bits, zero-extended.
type Value struct {
	Prim Prim
	bits uint64
}

func I8(v int8) Value { return Value{Int8, uint64(uint8(v))} }
func U8(v uint8) Value { return Value{Uint8, uint64(v)} }
func I16(v int16) Value { return Value{Int16, uint64(uint16(v))} }
func U16(v uint16) Value { return Value{Uint16, uint64(v)} }
func I32(v int32) Value { return Value{Int32, uint64(uint32(v))} }
func U32(v uint32) Value { return Value{Uint32, uint64(v)} }
func I64(v int64) Value { return Value{Int64, uint64(v)} }
func U64(v uint64) Value { return Value{Uint64, v} }
func F32(v float32) Value { return Value{Float32, uint64(math.Float32bits(v))} }
func F64(v float64) Value { return Value{Float64, math.Float64bits(v)} }

func (v Value) Uint() uint64 { return v.bits }

// Int sign-extends the value according to its primitive.
func (v Value) Int() int64 {
	switch v.Prim {
	case Int8:
		return int64(int8(v.bits))
	case Int16:
		return int64(int16(v.bits))
	case Int32:
		return int64(int32(v.bits))
	}
	return int64(v.bits)
}

func (v Value) Float() float64 {
	switch v.Prim {
	case Float32:
		return float64(math.Float32frombits(uint32(v.bits)))
	case Float64:
		return math.Float64frombits(v.bits)
	}
	return float64(v.Int())
}

// Codec encodes and decodes frames for one type space. The header is one byte
// when every type id fits in 8 bits, two bytes otherwise.
type Codec struct {
	header int
}

func NewCodec(maxType uint16) Codec {
	if maxType <= math.MaxUint8 {
		return Codec{header: 1}
	}
	return Codec{header: 2}
}

// Default is the codec for this protocol's type space.
var Default = NewCodec(MaxType)

func (c Codec) HeaderSize() int { return c.header }

// FrameSize returns the total frame length for layout.
func (c Codec) FrameSize(layout Layout) int {
	return c.header + layout.Size()
}

// Encode writes the type header followed by segs in order.
func (c Codec) Encode(typeID uint16, segs ...Value) ([]byte, error) {
	if c.header == 1 && typeID > math.MaxUint8 {
		return nil, fmt.Errorf("%w: %d", ErrTypeOutOfRange, typeID)
	}
	size := c.header
	for _, s := range segs {
		n := s.Prim.Size()
		if n == 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrim, s.Prim)
		}
		size += n
	}

	w := NewWriter(size)
	c.writeHeader(w, typeID)
	for _, s := range segs {
		w.WriteBits(s.bits, s.Prim.Size())
	}
	return w.Bytes(), nil
}

// Decode reads the type header and then one value per layout entry. It fails
// with ErrShortFrame when buf cannot hold the whole layout; trailing bytes are
// ignored here and rejected by the typed messages.
func (c Codec) Decode(buf []byte, layout Layout) (uint16, []Value, error) {
	for _, p := range layout {
		if p.Size() == 0 {
			return 0, nil, fmt.Errorf("%w: %s", ErrInvalidPrim, p)
		}
	}
	if len(buf) < c.FrameSize(layout) {
		return 0, nil, fmt.Errorf("%w: got %d bytes, want %d", ErrShortFrame, len(buf), c.FrameSize(layout))
	}

	r := NewReader(buf)
	typeID := c.readHeader(r)
	out := make([]Value, len(layout))
	for i, p := range layout {
		out[i] = Value{Prim: p, bits: r.ReadBits(p.Size())}
	}
	if err := r.Err(); err != nil {
		return 0, nil, err
	}
	return typeID, out, nil
}

// PeekType returns the type id of buf without decoding the body.
func (c Codec) PeekType(buf []byte) (uint16, error) {
	if len(buf) < c.header {
		return 0, ErrShortFrame
	}
	return c.readHeader(NewReader(buf)), nil
}

func (c Codec) writeHeader(w *Writer, typeID uint16) {
	if c.header == 1 {
		w.WriteU8(uint8(typeID))
		return
	}
	w.WriteU16(typeID)
}

func (c Codec) readHeader(r *Reader) uint16 {
	if c.header == 1 {
		return uint16(r.ReadU8())
	}
	return r.ReadU16()
}

// Float32 returns the value as a float32 without a round trip through float64.
func (v Value) Float32() float32 {
	if v.Prim == Float32 {
		return math.Float32frombits(uint32(v.bits))
	}
	return float32(v.Float())
}
