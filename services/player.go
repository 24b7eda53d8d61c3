package services

import (
	"math"
	"math/big"
	"sync"

	"musicbox/types"
	"musicbox/websocket"
)

// PlayerStore interface defines access to the shared player state
type PlayerStore interface {
	Update(raw map[string]interface{}) types.PlayerState
	Snapshot() types.PlayerState
	WithSnapshot(fn func(state types.PlayerState))
}

// playerStore holds the single authoritative copy of the player state
type playerStore struct {
	mu    sync.Mutex
	state types.PlayerState
	hub   websocket.Hub
}

// NewPlayerStore creates a store that announces every update on hub
func NewPlayerStore(hub websocket.Hub) PlayerStore {
	return &playerStore{
		state: types.PlayerState{},
		hub:   hub,
	}
}

// Update replaces the stored state with a normalized copy of raw and
// broadcasts it. Fields from earlier updates are not carried over. Updates
// are broadcast in the order they are stored.
func (ps *playerStore) Update(raw map[string]interface{}) types.PlayerState {
	state := NormalizeState(raw)

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.state = state

	if ps.hub != nil {
		ps.hub.Broadcast(types.StateMessage{
			Type: types.MessageTypePlayerState,
			Data: state,
		})
	}

	return state.Clone()
}

// Snapshot returns a copy of the current state
func (ps *playerStore) Snapshot() types.PlayerState {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.state.Clone()
}

// WithSnapshot calls fn with a copy of the current state while holding off
// updates, so nothing is broadcast between the snapshot and fn returning
func (ps *playerStore) WithSnapshot(fn func(state types.PlayerState)) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	fn(ps.state.Clone())
}

// NormalizeState copies raw, coerces duration and current_time to whole
// seconds and derives progress as floor(current_time*100 / max(duration, 1)).
func NormalizeState(raw map[string]interface{}) types.PlayerState {
	state := make(types.PlayerState, len(raw)+3)
	for k, v := range raw {
		state[k] = v
	}

	duration := types.ToInt(raw[types.StateDuration])
	currentTime := types.ToInt(raw[types.StateCurrentTime])

	state[types.StateDuration] = duration
	state[types.StateCurrentTime] = currentTime
	state[types.StateProgress] = progress(currentTime, duration)

	return state
}

// progress is floor(currentTime*100 / max(duration, 1)), computed without
// overflow and saturated to the int range
func progress(currentTime, duration int) int {
	n := new(big.Int).Mul(big.NewInt(int64(currentTime)), big.NewInt(100))
	// Euclidean division floors for a positive divisor
	q := n.Div(n, big.NewInt(int64(max(duration, 1))))

	switch {
	case q.IsInt64() && q.Int64() >= math.MinInt && q.Int64() <= math.MaxInt:
		return int(q.Int64())
	case q.Sign() > 0:
		return math.MaxInt
	default:
		return math.MinInt
	}
}
