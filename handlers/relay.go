package handlers

import (
	"musicbox/services"
	"musicbox/types"
	"musicbox/websocket"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RelayHandler serves the websocket endpoint shared by browsers and the
// hardware bridge
type RelayHandler struct {
	hub   websocket.Hub
	store services.PlayerStore
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(hub websocket.Hub, store services.PlayerStore) *RelayHandler {
	return &RelayHandler{
		hub:   hub,
		store: store,
	}
}

// HandleWebSocket upgrades the connection and joins it to the hub. A client
// joining mid-song gets the current player state straight away.
func (h *RelayHandler) HandleWebSocket(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", c.ClientIP()).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)

	// the snapshot is queued ahead of any broadcast the client can receive
	h.store.WithSnapshot(func(state types.PlayerState) {
		if len(state) > 0 {
			client.SendJSON(types.StateMessage{
				Type: types.MessageTypePlayerState,
				Data: state,
			})
		}
		h.hub.RegisterClient(client)
	})

	client.StartPumps()
}
