package game

import (
	"time"

	"github.com/google/uuid"
)

// Player is one seat in a room. ConnID is the connection identity the player
// joined with and the key under which the room tracks them; ID is the stable
// player identity exposed to clients.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ConnID     string `json:"-"`
	Score      int    `json:"score"`
	HasGuessed bool   `json:"hasGuessed"`
	JoinedAt   time.Time
}

func NewPlayer(name, connID string) *Player {
	return &Player{
		ID:       "player_" + uuid.NewString(),
		Name:     name,
		ConnID:   connID,
		JoinedAt: time.Now(),
	}
}

// PlayerBrief is the public projection broadcast alongside guess results.
type PlayerBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func (p *Player) brief() PlayerBrief {
	return PlayerBrief{ID: p.ID, Name: p.Name, Score: p.Score}
}

// ScoreEntry is one row of a score list or leaderboard. Rank is only set on
// the appended own-position row of a personalized leaderboard.
type ScoreEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank,omitempty"`
}
