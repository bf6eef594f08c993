// Package client is a Go client for the arena: it joins over WebSocket,
// sends intents and feeds snapshots into a reconcile.Tracker. Bots and
// end-to-end tests use it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tickarena/server/internal/net/packet"
	"github.com/tickarena/server/internal/reconcile"
	"go.uber.org/zap"
)

// ErrRefused is returned by Join when the server answers with an error
// control message.
var ErrRefused = errors.New("join refused")

// Client is one player connection. Read methods (Join, Next) must be called
// from a single goroutine; Send methods are safe for concurrent use.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	log     *zap.Logger

	ID      uint32
	Tracker *reconcile.Tracker
	// Now stamps snapshots for the tracker. Tests replace it.
	Now func() time.Time
}

// Dial connects to a ws:// URL such as ws://host:3000/ws.
func Dial(ctx context.Context, url string, window time.Duration, log *zap.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{
		conn:    conn,
		log:     log,
		Tracker: reconcile.NewTracker(window),
		Now:     time.Now,
	}, nil
}

// Join sends the join request and waits for the welcome. Players listed in
// the welcome are seeded into the tracker.
func (c *Client) Join() (packet.Welcome, error) {
	if err := c.writeText(packet.Join{Type: packet.CtlJoin}); err != nil {
		return packet.Welcome{}, err
	}
	for {
		msg, err := c.Next()
		if err != nil {
			return packet.Welcome{}, err
		}
		switch m := msg.(type) {
		case packet.Welcome:
			c.ID = m.ID
			seed := packet.Snapshot{}
			for _, p := range m.PlayerList {
				seed.Players = append(seed.Players, packet.PlayerState{ID: p.ID, X: float32(p.X), Y: float32(p.Y)})
			}
			c.Tracker.Apply(c.Now(), seed)
			return m, nil
		case packet.ControlError:
			return packet.Welcome{}, fmt.Errorf("%w: %s", ErrRefused, m.Reason)
		}
	}
}

// SendMove asks to head toward (x, y).
func (c *Client) SendMove(x, y float32) error {
	return c.writeFrame(&packet.MoveIntent{X: x, Y: y})
}

// SendAttack queues an attack on target with the given attack code.
func (c *Client) SendAttack(target uint32, code uint8) error {
	return c.writeFrame(&packet.AttackIntent{TargetID: target, Code: code})
}

// Next reads one message and returns it decoded: packet.Snapshot, packet.Hit,
// packet.Notice, packet.Welcome, packet.NewPlayer, packet.PlayerDisconnect or
// packet.ControlError. Snapshots are also applied to the tracker.
func (c *Client) Next() (any, error) {
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if mt == websocket.BinaryMessage {
		return c.decodeFrame(data)
	}
	return decodeControl(data)
}

func (c *Client) decodeFrame(data []byte) (any, error) {
	t, err := packet.Default.PeekType(data)
	if err != nil {
		return nil, err
	}
	switch byte(t) {
	case packet.SSnapshot:
		var s packet.Snapshot
		if err := s.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		c.Tracker.Apply(c.Now(), s)
		return s, nil
	case packet.SHit:
		var h packet.Hit
		if err := h.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return h, nil
	case packet.SDeath, packet.SRespawn:
		var n packet.Notice
		if err := n.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: frame %d", packet.ErrUnknownType, t)
}

func decodeControl(data []byte) (any, error) {
	typ, err := packet.PeekControlType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case packet.CtlWelcome:
		return decodeAs[packet.Welcome](typ, data)
	case packet.CtlNewPlayer:
		return decodeAs[packet.NewPlayer](typ, data)
	case packet.CtlPlayerDisconnect:
		return decodeAs[packet.PlayerDisconnect](typ, data)
	case packet.CtlError:
		return decodeAs[packet.ControlError](typ, data)
	}
	return nil, fmt.Errorf("%w: control %q", packet.ErrUnknownType, typ)
}

func decodeAs[T any](typ string, data []byte) (any, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typ, err)
	}
	return m, nil
}

func (c *Client) writeText(v any) error {
	data, err := packet.EncodeControl(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) writeFrame(m interface{ MarshalBinary() ([]byte, error) }) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		c.log.Debug("close frame", zap.Error(err))
	}
	c.writeMu.Unlock()
	return c.conn.Close()
}
