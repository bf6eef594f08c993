package net

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tickarena/server/internal/net/packet"
	"go.uber.org/zap"
)

var ErrSessionClosed = errors.New("session closed")

// Conn is the subset of *websocket.Conn a Session needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// SessionOptions sizes the per-session queues.
type SessionOptions struct {
	InQueueSize  int
	OutQueueSize int
	WriteTimeout time.Duration
	ReadLimit    int64
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn Conn

	state atomic.Int32 // packet.SessionState stored as int32
	live  atomic.Bool  // liveness flag, owned by SessionStore

	InQueue  chan packet.Message // game loop reads messages from here
	OutQueue chan packet.Message // writer goroutine reads from here

	IP string

	// PlayerID is assigned on join. Game loop only.
	PlayerID uint32

	outBuf  []packet.Message // buffered messages, flushed by OutputSystem (game loop only)
	dropped int              // messages dropped on a full OutQueue since the last flush

	writeTimeout time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn Conn, id uint64, opts SessionOptions, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan packet.Message, opts.InQueueSize),
		OutQueue:     make(chan packet.Message, opts.OutQueueSize),
		IP:           conn.RemoteAddr().String(),
		writeTimeout: opts.WriteTimeout,
		closeCh:      make(chan struct{}),
		log:          log.With(zap.Uint64("session", id)),
	}
	if opts.ReadLimit > 0 {
		conn.SetReadLimit(opts.ReadLimit)
	}
	s.state.Store(int32(packet.StateConnected))
	s.live.Store(true)
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start installs the pong handler and launches the reader and writer
// goroutines.
func (s *Session) Start() {
	s.conn.SetPongHandler(func(string) error {
		s.live.Store(true)
		return nil
	})
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a message. It is not written until FlushOutput is called by
// OutputSystem. Called only from the game loop goroutine.
func (s *Session) Send(msg packet.Message) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, msg)
}

func (s *Session) SendBinary(data []byte) {
	s.Send(packet.Message{Binary: true, Data: data})
}

func (s *Session) SendText(data []byte) {
	s.Send(packet.Message{Data: data})
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop
// goroutine. Non-blocking: when OutQueue is full the remaining messages are
// dropped. Delivery is best-effort and nothing is retried. Returns the number
// of dropped messages.
func (s *Session) FlushOutput() int {
	dropped := 0
	for i, msg := range s.outBuf {
		select {
		case s.OutQueue <- msg:
		default:
			dropped = len(s.outBuf) - i
			s.log.Debug("output queue full, dropping messages", zap.Int("dropped", dropped))
			s.outBuf = s.outBuf[:0]
			return dropped
		}
	}
	s.outBuf = s.outBuf[:0]
	return dropped
}

// Kick queues a final message and closes the connection once it has been
// written. Further inbound frames are ignored.
func (s *Session) Kick(msg packet.Message) {
	if s.closed.Load() {
		return
	}
	s.SetState(packet.StateDisconnecting)
	msg.Close = true
	s.Send(msg)
	if s.FlushOutput() > 0 {
		s.Close()
	}
}

// Ping sends a WebSocket ping control frame. Errors are swallowed; a peer that
// cannot be pinged will simply fail the next liveness sweep.
func (s *Session) Ping() {
	if s.closed.Load() {
		return
	}
	if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout)); err != nil {
		s.log.Debug("ping failed", zap.Error(err))
	}
}

// Close shuts down the session. Safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop runs in its own goroutine. It reads messages from the WebSocket and
// pushes them onto InQueue for the game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		// Block until InQueue has space or the session closes. Dropping
		// intents would desync the client; blocking only stalls this peer.
		select {
		case s.InQueue <- packet.Message{Binary: mt == websocket.BinaryMessage, Data: data}:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop runs in its own goroutine and writes queued messages.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case msg := <-s.OutQueue:
			if !s.writeOne(msg) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOne(msg packet.Message) bool {
	mt := websocket.TextMessage
	if msg.Binary {
		mt = websocket.BinaryMessage
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.conn.WriteMessage(mt, msg.Data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return !msg.Close
}
