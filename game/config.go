package game

import "time"

// Game-wide limits and defaults. Round time and round count are the only two
// knobs a room creator can override, each clamped to its bounded range.
const (
	MaxPlayers          = 36
	MinPlayers          = 3
	MaxPoints           = 1000
	WordChoiceCount     = 3
	MaxGuessesPerSecond = 3

	DefaultRoundTime = 80 * time.Second
	MinRoundTime     = 30 * time.Second
	MaxRoundTime     = 180 * time.Second

	DefaultTotalRounds = 8
	MinTotalRounds     = 1
	MaxTotalRounds     = 20

	IntermissionTime = 7 * time.Second

	// Drawing history is trimmed in bulk: once it crosses the ceiling the
	// oldest half is discarded so very long sessions stay bounded without
	// paying a per-entry cost.
	drawingHistoryCeiling = 10000
	drawingHistoryKeep    = 5000
)

// State is the lifecycle phase of a room.
type State string

const (
	StateWaiting      State = "waiting"
	StateChoosingWord State = "choosing_word"
	StateDrawing      State = "drawing"
	StateIntermission State = "intermission"
	StateEnded        State = "ended"
)

// RoomConfig carries the per-room overrides accepted at creation time.
// Zero values fall back to the defaults; out-of-range values are clamped
// back to the defaults as well, never rejected.
type RoomConfig struct {
	RoundTime   time.Duration
	TotalRounds int
}

func (c RoomConfig) roundTime() time.Duration {
	if c.RoundTime >= MinRoundTime && c.RoundTime <= MaxRoundTime {
		return c.RoundTime
	}
	return DefaultRoundTime
}

func (c RoomConfig) totalRounds() int {
	if c.TotalRounds >= MinTotalRounds && c.TotalRounds <= MaxTotalRounds {
		return c.TotalRounds
	}
	return DefaultTotalRounds
}
