package packet

import (
	"encoding/json"
	"fmt"
)

// Control message types (text frames).
const (
	CtlJoin             = "join"
	CtlWelcome          = "welcome"
	CtlNewPlayer        = "new_player"
	CtlPlayerDisconnect = "player_disconnect"
	CtlError            = "error"
)

type controlHeader struct {
	Type string `json:"type"`
}

type Join struct {
	Type string `json:"type"`
}

type PlayerEntry struct {
	ID uint32  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type Welcome struct {
	Type       string        `json:"type"`
	ID         uint32        `json:"id"`
	PlayerList []PlayerEntry `json:"player_list"`
}

type NewPlayer struct {
	Type string  `json:"type"`
	ID   uint32  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type PlayerDisconnect struct {
	Type string `json:"type"`
	ID   uint32 `json:"id"`
}

type ControlError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// PeekControlType returns the "type" field of a text frame.
func PeekControlType(data []byte) (string, error) {
	var h controlHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return "", fmt.Errorf("decode control header: %w", err)
	}
	if h.Type == "" {
		return "", fmt.Errorf("control message without type")
	}
	return h.Type, nil
}

// EncodeControl marshals a control message.
func EncodeControl(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode control: %w", err)
	}
	return data, nil
}
