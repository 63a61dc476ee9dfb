package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/vonjunge/skribbl-clone/shared/logger"
)

const (
	roomIDLength   = 6
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// SweepInterval is how often the registry evicts empty rooms.
	SweepInterval = 5 * time.Minute
)

// Registry owns every live room, keyed by its shareable code. The map is
// touched only at create/lookup/remove boundaries; room-internal state is the
// room's own business.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	words WordSource
	rng   *rand.Rand
}

func NewRegistry(words WordSource) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		words: words,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom allocates a fresh collision-free code and a room configured with
// the given overrides.
func (g *Registry) CreateRoom(cfg RoomConfig) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	var id string
	for {
		id = g.randomIDLocked()
		if _, taken := g.rooms[id]; !taken {
			break
		}
	}

	room := NewRoom(id, cfg, g.words, rand.New(rand.NewSource(g.rng.Int63())))
	g.rooms[id] = room
	logger.Infof("registry: created room %s", id)
	return room
}

func (g *Registry) randomIDLocked() string {
	code := make([]byte, roomIDLength)
	for i := range code {
		code[i] = roomIDAlphabet[g.rng.Intn(len(roomIDAlphabet))]
	}
	return string(code)
}

func (g *Registry) Room(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	return room, ok
}

// RemoveRoom evicts a room and cancels all of its scheduled tasks.
func (g *Registry) RemoveRoom(id string) {
	g.mu.Lock()
	room, ok := g.rooms[id]
	delete(g.rooms, id)
	g.mu.Unlock()

	if ok {
		room.Destroy()
		logger.Infof("registry: removed room %s", id)
	}
}

func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// SweepEmpty evicts every room with zero players.
func (g *Registry) SweepEmpty() {
	g.mu.RLock()
	ids := make([]string, 0, len(g.rooms))
	for id, room := range g.rooms {
		if room.PlayerCount() == 0 {
			ids = append(ids, id)
		}
	}
	g.mu.RUnlock()

	for _, id := range ids {
		g.RemoveRoom(id)
	}
}

// StartSweeper runs SweepEmpty on a fixed interval until stop closes.
func (g *Registry) StartSweeper(stop <-chan struct{}, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				g.SweepEmpty()
			}
		}
	}()
}
