package types

import (
	"encoding/json"
)

// Command is a remote-control instruction coming from a browser or the
// hardware controller
type Command string

const (
	CommandNext      Command = "next"
	CommandPrev      Command = "prev"
	CommandPlayPause Command = "play_pause"

	// CommandUnknown stands in for any wire value outside the set above.
	CommandUnknown Command = ""
)

// ParseCommand maps a wire string onto the closed command set.
// Unrecognized values yield CommandUnknown rather than an error.
func ParseCommand(s string) Command {
	switch c := Command(s); c {
	case CommandNext, CommandPrev, CommandPlayPause:
		return c
	default:
		return CommandUnknown
	}
}

// Valid reports whether c is one of the recognized commands
func (c Command) Valid() bool {
	return c != CommandUnknown
}

// Message type tags used in the "type" field of outbound messages
const (
	MessageTypePlayerState    = "player_state"
	MessageTypeLibraryChanged = "library_changed"
)

// CommandMessage is the inbound shape sent by clients: {"command": "next"}
type CommandMessage struct {
	Command string `json:"command"`
}

// ActionMessage is broadcast to every client when a command was received
type ActionMessage struct {
	Action Command `json:"action"`
}

// StateMessage carries the latest player state to every client
type StateMessage struct {
	Type string      `json:"type"`
	Data PlayerState `json:"data"`
}

// EventMessage is a bare typed notification without payload
type EventMessage struct {
	Type string `json:"type"`
}

// Envelope is the superset of every outbound shape, used by consumers that
// need to tell the shapes apart (the serial bridge)
type Envelope struct {
	Type   string          `json:"type,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Action json.RawMessage `json:"action,omitempty"`
}

// ButtonEvent is a line received from the hardware controller
type ButtonEvent struct {
	Button string `json:"button"`
}
