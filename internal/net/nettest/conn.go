// Package nettest provides an in-memory WebSocket connection for tests.
package nettest

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("nettest: connection closed")

// Frame is one message written to or read from a Conn.
type Frame struct {
	Type int
	Data []byte
}

type addr string

func (a addr) Network() string { return "nettest" }
func (a addr) String() string  { return string(a) }

// Conn is a fake *websocket.Conn. Messages pushed with Push are returned by
// ReadMessage; everything written is recorded.
type Conn struct {
	mu      sync.Mutex
	in      chan Frame
	written []Frame
	pings   int
	pong    func(string) error
	closeCh chan struct{}
	once    sync.Once
	// FailWrites makes every WriteMessage call fail.
	FailWrites bool
}

func NewConn() *Conn {
	return &Conn{
		in:      make(chan Frame, 64),
		closeCh: make(chan struct{}),
	}
}

// Push queues a frame for ReadMessage.
func (c *Conn) Push(mt int, data []byte) {
	c.in <- Frame{Type: mt, Data: data}
}

// Pong invokes the installed pong handler, as if the peer answered a ping.
func (c *Conn) Pong() {
	c.mu.Lock()
	h := c.pong
	c.mu.Unlock()
	if h != nil {
		h("")
	}
}

// Written returns a copy of every frame written so far.
func (c *Conn) Written() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.written...)
}

func (c *Conn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *Conn) Closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *Conn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.in:
		return f.Type, f.Data, nil
	case <-c.closeCh:
		return 0, nil, ErrClosed
	}
}

func (c *Conn) WriteMessage(mt int, data []byte) error {
	if c.Closed() {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWrites {
		return ErrClosed
	}
	c.written = append(c.written, Frame{Type: mt, Data: append([]byte(nil), data...)})
	return nil
}

func (c *Conn) WriteControl(mt int, data []byte, _ time.Time) error {
	if c.Closed() {
		return ErrClosed
	}
	if mt == websocket.PingMessage {
		c.mu.Lock()
		c.pings++
		c.mu.Unlock()
	}
	return nil
}

func (c *Conn) SetPongHandler(h func(string) error) {
	c.mu.Lock()
	c.pong = h
	c.mu.Unlock()
}

func (c *Conn) SetReadLimit(int64)               {}
func (c *Conn) SetWriteDeadline(time.Time) error { return nil }
func (c *Conn) RemoteAddr() net.Addr             { return addr("127.0.0.1:0") }

func (c *Conn) Close() error {
	c.once.Do(func() { close(c.closeCh) })
	return nil
}
