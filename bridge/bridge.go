package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPollInterval is how long the device pump sleeps when the port is idle
	DefaultPollInterval = 10 * time.Millisecond

	// serialReadTimeout bounds each read so the device pump notices cancellation
	serialReadTimeout = 100 * time.Millisecond

	// maxTextRunes is the widest title or artist the controller display takes
	maxTextRunes = 32

	// maxLineBytes caps a controller line; longer ones are discarded
	maxLineBytes = 4096
)

// Conn is the websocket side of the bridge. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Bridge relays between one hardware controller on a serial line and the
// server's websocket hub. The port is only read by the device pump and only
// written by the hub pump; the websocket is written by the device pump and
// read by the hub pump.
type Bridge struct {
	port io.ReadWriteCloser
	conn Conn
	poll time.Duration
}

// New creates a bridge over an already open port and websocket connection.
// The bridge owns both and closes them when Run returns.
func New(port io.ReadWriteCloser, conn Conn, poll time.Duration) *Bridge {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Bridge{
		port: port,
		conn: conn,
		poll: poll,
	}
}

// OpenSerial opens the controller's serial device
func OpenSerial(name string, baudRate int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return port, nil
}

// Dial connects to the server's websocket endpoint
func Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	return conn, nil
}

// Run pumps in both directions until ctx is cancelled or one pump fails.
// A failing pump stops the other one and its error is returned. Cancelling
// ctx is a clean stop and returns nil.
func (b *Bridge) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// closing the websocket is the only way to unblock ReadMessage
	stop := context.AfterFunc(gctx, func() {
		b.conn.Close()
	})
	defer stop()

	g.Go(func() error {
		return b.devicePump(gctx)
	})
	g.Go(func() error {
		return b.hubPump(gctx)
	})

	err := g.Wait()

	// both pumps are done, no write to the port can be in flight
	if cerr := b.port.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("Failed to close serial port")
	}
	b.conn.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
