package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSPath is the route clients upgrade on.
const WSPath = "/ws"

// Server accepts WebSocket upgrades over HTTP and creates Sessions.
// New sessions are handed to the game loop via a channel.
type Server struct {
	listener net.Listener
	http     *http.Server
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newConns chan *Session
	opts     SessionOptions
	log      *zap.Logger
}

func NewServer(bindAddr string, opts SessionOptions, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		newConns: make(chan *Session, 64),
		opts:     opts,
		log:      log,
	}
	s.mux.HandleFunc(WSPath, s.handleUpgrade)
	s.http = &http.Server{Handler: s.mux}
	return s, nil
}

// Handle mounts an extra HTTP handler (static files, metrics) next to the
// WebSocket route.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Serve blocks serving HTTP until Shutdown is called.
func (s *Server) Serve() error {
	err := s.http.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.opts, s.log)
	sess.Start()

	s.log.Debug("connection opened", zap.Uint64("session", id), zap.String("ip", sess.IP))

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("connection queue full, rejecting connection", zap.Uint64("session", id))
		sess.Close()
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
