package websocket

import "time"

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 54 * time.Second

	// Maximum inbound message size; clients only ever send short commands
	maxMessageSize = 1024

	// Outbound queue length per client
	sendQueueSize = 256
)
