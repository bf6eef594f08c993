package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateConnected SessionState = iota // transport open, not joined yet
	StateInWorld                       // joined, owns a player entity
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateInWorld:
		return "InWorld"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for message handlers. The session is
// passed as an opaque value to avoid an import cycle with package net.
type HandlerFunc func(sess any, data []byte) error

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps frame types and control types to handlers with state-based
// access control.
type Registry struct {
	binary  map[byte]*handlerEntry
	control map[string]*handlerEntry
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		binary:  make(map[byte]*handlerEntry),
		control: make(map[string]*handlerEntry),
		log:     log,
	}
}

func newEntry(states []SessionState, fn HandlerFunc) *handlerEntry {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	return &handlerEntry{fn: fn, allowedStates: allowed}
}

// Register maps a binary frame type to a handler, restricted to the given
// session states.
func (reg *Registry) Register(typeID byte, states []SessionState, fn HandlerFunc) {
	reg.binary[typeID] = newEntry(states, fn)
}

// RegisterControl maps a control message type to a handler.
func (reg *Registry) RegisterControl(typ string, states []SessionState, fn HandlerFunc) {
	reg.control[typ] = newEntry(states, fn)
}

// Dispatch finds the handler for msg, validates the session state and calls
// it. Unknown types are rejected with ErrUnknownType; a frame sent in the
// wrong state is dropped without error.
func (reg *Registry) Dispatch(sess any, state SessionState, msg Message) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%w: empty message", ErrShortFrame)
	}

	var (
		entry *handlerEntry
		key   string
	)
	if msg.Binary {
		typeID := msg.Data[0]
		key = fmt.Sprintf("frame:%d", typeID)
		entry = reg.binary[typeID]
	} else {
		typ, err := PeekControlType(msg.Data)
		if err != nil {
			return err
		}
		key = "control:" + typ
		entry = reg.control[typ]
	}

	reg.log.Debug("recv",
		zap.String("type", key),
		zap.Int("size", len(msg.Data)),
		zap.String("state", state.String()),
	)

	if entry == nil {
		return fmt.Errorf("%w: %s", ErrUnknownType, key)
	}
	if !entry.allowedStates[state] {
		reg.log.Debug("message not allowed in state",
			zap.String("type", key),
			zap.String("state", state.String()),
		)
		return nil
	}

	return reg.safeCall(entry.fn, sess, msg.Data, key)
}

// safeCall executes a handler with panic recovery so a single bad frame cannot
// crash the game loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, data []byte, key string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("type", key),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", key, rec)
		}
	}()
	return fn(sess, data)
}
