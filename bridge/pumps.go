package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"musicbox/types"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// DisplayState is the line written to the controller for every player update
type DisplayState struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Progress    int    `json:"progress"`
	Duration    int    `json:"duration"`
	CurrentTime int    `json:"current_time"`
}

// devicePump turns button lines from the controller into websocket commands
func (b *Bridge) devicePump(ctx context.Context) error {
	buf := make([]byte, 256)
	lines := lineSplitter{limit: maxLineBytes}

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := b.port.Read(buf)
		if n > 0 {
			complete, dropped := lines.feed(buf[:n])
			if dropped {
				log.Warn().Int("limit", maxLineBytes).Msg("Dropping oversized line from controller")
			}
			for _, line := range complete {
				if err := b.handleDeviceLine(line); err != nil {
					return err
				}
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("serial port closed: %w", err)
			}
			return fmt.Errorf("read serial: %w", err)
		}

		if n == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.poll):
			}
		}
	}
}

// lineSplitter collects serial bytes into newline terminated lines. A line
// growing past limit is discarded up to and including its newline.
type lineSplitter struct {
	limit      int
	pending    []byte
	discarding bool
}

// feed consumes p and returns the lines it completed. dropped reports that
// an oversized line was thrown away.
func (s *lineSplitter) feed(p []byte) (lines [][]byte, dropped bool) {
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			if !s.discarding {
				s.pending = append(s.pending, p...)
				if len(s.pending) > s.limit {
					s.pending = nil
					s.discarding = true
					dropped = true
				}
			}
			return lines, dropped
		}

		if s.discarding {
			s.discarding = false
		} else {
			line := append(s.pending, p[:i]...)
			if len(line) > s.limit {
				dropped = true
			} else {
				lines = append(lines, line)
			}
		}
		s.pending = nil
		p = p[i+1:]
	}
	return lines, dropped
}

// handleDeviceLine forwards one line. Only a failed websocket write is an
// error; bad lines are logged and dropped.
func (b *Bridge) handleDeviceLine(raw []byte) error {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return nil
	}

	if !utf8.Valid(line) {
		log.Warn().Bytes("raw", line).Msg("Dropping non UTF-8 line from controller")
		return nil
	}

	var event types.ButtonEvent
	if err := json.Unmarshal(line, &event); err != nil {
		log.Warn().Err(err).Str("raw", string(line)).Msg("Dropping malformed line from controller")
		return nil
	}

	cmd := types.ParseCommand(event.Button)
	if !cmd.Valid() {
		log.Debug().Str("button", event.Button).Msg("Ignoring unknown button")
		return nil
	}

	data, err := json.Marshal(types.CommandMessage{Command: string(cmd)})
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	log.Info().Str("command", string(cmd)).Msg("Controller -> server")
	return nil
}

// hubPump writes display updates and action echoes to the controller in the
// order the server sent them
func (b *Bridge) hubPump(ctx context.Context) error {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read websocket: %w", err)
		}

		line, ok := DeviceLine(data)
		if !ok {
			continue
		}

		if _, err := b.port.Write(line); err != nil {
			return fmt.Errorf("write serial: %w", err)
		}
		log.Debug().Str("line", string(bytes.TrimSpace(line))).Msg("Server -> controller")
	}
}

// DeviceLine converts a hub message into the newline-terminated line the
// controller understands. It reports false for messages the controller does
// not care about.
func DeviceLine(message []byte) ([]byte, bool) {
	var env types.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed server message")
		return nil, false
	}

	var out interface{}
	switch {
	case env.Type == types.MessageTypePlayerState:
		var state types.PlayerState
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &state); err != nil {
				log.Warn().Err(err).Msg("Ignoring malformed player state")
				return nil, false
			}
		}
		out = DisplayState{
			Title:       truncateRunes(state.Text(types.StateTitle), maxTextRunes),
			Artist:      truncateRunes(state.Text(types.StateArtist), maxTextRunes),
			Progress:    state.Int(types.StateProgress),
			Duration:    state.Int(types.StateDuration),
			CurrentTime: state.Int(types.StateCurrentTime),
		}

	case hasAction(env.Action):
		out = struct {
			Action json.RawMessage `json:"action"`
		}{Action: env.Action}

	default:
		return nil, false
	}

	line, err := json.Marshal(out)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode controller line")
		return nil, false
	}
	return append(line, '\n'), true
}

// hasAction reports whether the raw action value is present and truthy
func hasAction(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`, "false", "0", "[]", "{}":
		return false
	}
	return true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
