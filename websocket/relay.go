package websocket

import (
	"encoding/json"

	"musicbox/types"

	"github.com/rs/zerolog/log"
)

// Relay handles one inbound message from client. A recognized command is
// echoed to every connection, the sender included, as {"action": command}.
// Malformed payloads and unknown commands are logged and dropped; nothing is
// reported back to the sender.
func Relay(h Hub, client *Client, data []byte) {
	var msg types.CommandMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("client", client.ID()).Msg("Ignoring malformed message")
		return
	}

	cmd := types.ParseCommand(msg.Command)
	if !cmd.Valid() {
		log.Info().Str("client", client.ID()).Str("command", msg.Command).Msg("Ignoring unknown command")
		return
	}

	log.Debug().Str("client", client.ID()).Str("command", string(cmd)).Msg("Relaying command")
	h.Broadcast(types.ActionMessage{Action: cmd})
}
