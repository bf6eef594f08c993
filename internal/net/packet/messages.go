package packet

import (
	"encoding"
	"fmt"
)

// Frame type ids. Client and server use separate id spaces, so the same
// number may mean different things per direction.
const (
	// C stands for client → server.
	CMove   byte = 1
	CAttack byte = 3

	// S stands for server → client.
	SSnapshot byte = 1
	SDeath    byte = 2
	SHit      byte = 3
	SRespawn  byte = 4

	MaxType uint16 = 4
)

// MaxSnapshotPlayers is bounded by the 8-bit player count.
const MaxSnapshotPlayers = 255

var (
	MoveIntentLayout   = Layout{Float32, Float32}
	AttackIntentLayout = Layout{Uint32, Uint8}
	PlayerStateLayout  = Layout{Uint32, Float32, Float32}
	HitLayout          = Layout{Uint32, Uint32, Int16}
	NoticeLayout       = Layout{Uint32}
)

// Message is one transport message as queued between the session goroutines
// and the game loop.
type Message struct {
	Binary bool
	Data   []byte
	// Close asks the writer to close the connection once Data is written.
	Close bool
}

// decodeExact decodes a fixed-layout frame and insists on the exact length.
func decodeExact(data []byte, typeID byte, layout Layout) ([]Value, error) {
	want := Default.FrameSize(layout)
	if len(data) < want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrShortFrame, len(data), want)
	}
	if len(data) > want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(data), want)
	}
	t, vals, err := Default.Decode(data, layout)
	if err != nil {
		return nil, err
	}
	if t != uint16(typeID) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrTypeMismatch, t, typeID)
	}
	return vals, nil
}

// MoveIntent asks the server to face the player toward a target point.
type MoveIntent struct {
	X float32
	Y float32
}

var (
	_ encoding.BinaryMarshaler   = (*MoveIntent)(nil)
	_ encoding.BinaryUnmarshaler = (*MoveIntent)(nil)
)

func (m *MoveIntent) MarshalBinary() ([]byte, error) {
	return Default.Encode(uint16(CMove), F32(m.X), F32(m.Y))
}

func (m *MoveIntent) UnmarshalBinary(data []byte) error {
	vals, err := decodeExact(data, CMove, MoveIntentLayout)
	if err != nil {
		return err
	}
	m.X = vals[0].Float32()
	m.Y = vals[1].Float32()
	return nil
}

// AttackIntent asks the server to use attack Code against TargetID.
type AttackIntent struct {
	TargetID uint32
	Code     uint8
}

var (
	_ encoding.BinaryMarshaler   = (*AttackIntent)(nil)
	_ encoding.BinaryUnmarshaler = (*AttackIntent)(nil)
)

func (m *AttackIntent) MarshalBinary() ([]byte, error) {
	return Default.Encode(uint16(CAttack), U32(m.TargetID), U8(m.Code))
}

func (m *AttackIntent) UnmarshalBinary(data []byte) error {
	vals, err := decodeExact(data, CAttack, AttackIntentLayout)
	if err != nil {
		return err
	}
	m.TargetID = uint32(vals[0].Uint())
	m.Code = uint8(vals[1].Uint())
	return nil
}

type PlayerState struct {
	ID uint32
	X  float32
	Y  float32
}

// Snapshot is the full world state sent every network tick:
// u8 count, then count × (u32 id, f32 x, f32 y).
type Snapshot struct {
	Players []PlayerState
}

var (
	_ encoding.BinaryMarshaler   = (*Snapshot)(nil)
	_ encoding.BinaryUnmarshaler = (*Snapshot)(nil)
)

// SnapshotSize returns the frame length for n players.
func SnapshotSize(n int) int {
	return Default.snapshotSize(n)
}

func (s *Snapshot) MarshalBinary() ([]byte, error) {
	return Default.encodeSnapshot(s)
}

func (s *Snapshot) UnmarshalBinary(data []byte) error {
	return Default.decodeSnapshot(data, s)
}

func (c Codec) snapshotSize(n int) int {
	return c.header + 1 + n*PlayerStateLayout.Size()
}

func (c Codec) encodeSnapshot(s *Snapshot) ([]byte, error) {
	if len(s.Players) > MaxSnapshotPlayers {
		return nil, fmt.Errorf("snapshot of %d players exceeds %d", len(s.Players), MaxSnapshotPlayers)
	}
	w := NewWriter(c.snapshotSize(len(s.Players)))
	c.writeHeader(w, uint16(SSnapshot))
	w.WriteU8(uint8(len(s.Players)))
	for _, p := range s.Players {
		w.WriteU32(p.ID)
		w.WriteF32(p.X)
		w.WriteF32(p.Y)
	}
	return w.Bytes(), nil
}

func (c Codec) decodeSnapshot(data []byte, s *Snapshot) error {
	r := NewReader(data)
	typeID := c.readHeader(r)
	count := int(r.ReadU8())
	if err := r.Err(); err != nil {
		return err
	}
	if typeID != uint16(SSnapshot) {
		return fmt.Errorf("%w: got %d, want %d", ErrTypeMismatch, typeID, SSnapshot)
	}
	want := c.snapshotSize(count)
	switch body := count * PlayerStateLayout.Size(); {
	case r.Remaining() < body:
		return fmt.Errorf("%w: got %d bytes, want %d", ErrShortFrame, len(data), want)
	case r.Remaining() > body:
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(data), want)
	}

	players := make([]PlayerState, count)
	for i := range players {
		players[i].ID = r.ReadU32()
		players[i].X = r.ReadF32()
		players[i].Y = r.ReadF32()
	}
	if err := r.Err(); err != nil {
		return err
	}
	s.Players = players
	return nil
}

// Hit reports a landed attack and the target's remaining health.
type Hit struct {
	AttackerID uint32
	TargetID   uint32
	HP         int16
}

var (
	_ encoding.BinaryMarshaler   = (*Hit)(nil)
	_ encoding.BinaryUnmarshaler = (*Hit)(nil)
)

func (m *Hit) MarshalBinary() ([]byte, error) {
	return Default.Encode(uint16(SHit), U32(m.AttackerID), U32(m.TargetID), I16(m.HP))
}

func (m *Hit) UnmarshalBinary(data []byte) error {
	vals, err := decodeExact(data, SHit, HitLayout)
	if err != nil {
		return err
	}
	m.AttackerID = uint32(vals[0].Uint())
	m.TargetID = uint32(vals[1].Uint())
	m.HP = int16(vals[2].Int())
	return nil
}

// Notice is a single-id frame: death (SDeath) or respawn (SRespawn).
type Notice struct {
	Type     byte
	PlayerID uint32
}

var (
	_ encoding.BinaryMarshaler   = (*Notice)(nil)
	_ encoding.BinaryUnmarshaler = (*Notice)(nil)
)

func (m *Notice) MarshalBinary() ([]byte, error) {
	if m.Type != SDeath && m.Type != SRespawn {
		return nil, fmt.Errorf("%w: notice %d", ErrUnknownType, m.Type)
	}
	return Default.Encode(uint16(m.Type), U32(m.PlayerID))
}

func (m *Notice) UnmarshalBinary(data []byte) error {
	t, err := Default.PeekType(data)
	if err != nil {
		return err
	}
	if byte(t) != SDeath && byte(t) != SRespawn {
		return fmt.Errorf("%w: notice %d", ErrUnknownType, t)
	}
	vals, err := decodeExact(data, byte(t), NoticeLayout)
	if err != nil {
		return err
	}
	m.Type = byte(t)
	m.PlayerID = uint32(vals[0].Uint())
	return nil
}
