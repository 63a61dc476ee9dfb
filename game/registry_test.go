package game

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateRoom(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(testWords())
	codeFormat := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		room := registry.CreateRoom(RoomConfig{})
		assert.Regexp(t, codeFormat, room.ID())
		assert.False(t, seen[room.ID()], "room code %s issued twice", room.ID())
		seen[room.ID()] = true
	}
	assert.Equal(t, 100, registry.Count())
}

func TestRegistryLookupAndRemove(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(testWords())
	room := registry.CreateRoom(RoomConfig{})

	found, ok := registry.Room(room.ID())
	require.True(t, ok)
	assert.Same(t, room, found)

	_, ok = registry.Room("NOSUCH")
	assert.False(t, ok)

	registry.RemoveRoom(room.ID())
	_, ok = registry.Room(room.ID())
	assert.False(t, ok)
	assert.Zero(t, registry.Count())

	// Removing twice is harmless.
	registry.RemoveRoom(room.ID())
}

func TestRegistrySweepEmpty(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(testWords())
	empty := registry.CreateRoom(RoomConfig{})
	occupied := registry.CreateRoom(RoomConfig{})
	_, _, err := occupied.AddPlayer("c1", "Alice")
	require.NoError(t, err)

	registry.SweepEmpty()

	_, ok := registry.Room(empty.ID())
	assert.False(t, ok)
	_, ok = registry.Room(occupied.ID())
	assert.True(t, ok)
	assert.Equal(t, 1, registry.Count())
}

func TestRegistrySweeperRuns(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(testWords())
	registry.CreateRoom(RoomConfig{})

	stop := make(chan struct{})
	defer close(stop)
	registry.StartSweeper(stop, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return registry.Count() == 0
	}, time.Second, 10*time.Millisecond)
}
