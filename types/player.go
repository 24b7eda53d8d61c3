package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PlayerState is the last known playback state. Besides the well-known keys
// below it carries any extra fields the player sent.
type PlayerState map[string]interface{}

// Well-known PlayerState keys
const (
	StateTitle       = "title"
	StateArtist      = "artist"
	StateAlbum       = "album"
	StateDuration    = "duration"
	StateCurrentTime = "current_time"
	StateIsPlaying   = "is_playing"
	StateProgress    = "progress"
)

// Clone returns a shallow copy of the state
func (s PlayerState) Clone() PlayerState {
	if s == nil {
		return PlayerState{}
	}
	out := make(PlayerState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Int reads key as a whole number, see ToInt
func (s PlayerState) Int(key string) int {
	return ToInt(s[key])
}

// Text reads key as text. Missing and null values are empty.
func (s PlayerState) Text(key string) string {
	switch v := s[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ToInt truncates numbers toward zero, saturating at the int range. Missing,
// false, null and non-numeric values become 0; true becomes 1.
func ToInt(v interface{}) int {
	switch n := v.(type) {
	case nil:
		return 0
	case bool:
		if n {
			return 1
		}
		return 0
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return truncate(n)
	case float32:
		return truncate(float64(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return truncate(f)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return truncate(f)
	default:
		return 0
	}
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(f)
}
