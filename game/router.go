package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Router is the boundary between connections and rooms. It binds each client
// to at most one (room, player) pair through an explicit session table,
// authorizes every inbound action against room state before delegating, and
// fans resulting events out to the right audience: one connection, the whole
// room, or the room minus the sender.
type Router struct {
	registry *Registry

	mu       sync.RWMutex
	sessions map[string]string             // connection id -> room id
	members  map[string]map[string]*Client // room id -> connection id -> client
}

func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		sessions: make(map[string]string),
		members:  make(map[string]map[string]*Client),
	}
}

// inboundHandlers is the closed dispatch table for client actions. Unknown
// message kinds fall through silently.
var inboundHandlers = map[MessageType]func(*Router, *Client, json.RawMessage){
	MsgCreateRoom:  (*Router).handleCreateRoom,
	MsgJoinRoom:    (*Router).handleJoinRoom,
	MsgStartGame:   (*Router).handleStartGame,
	MsgWordChosen:  (*Router).handleWordChosen,
	MsgDraw:        (*Router).handleDraw,
	MsgClearCanvas: (*Router).handleClearCanvas,
	MsgUndo:        (*Router).handleUndo,
	MsgSendGuess:   (*Router).handleSendGuess,
}

func (rt *Router) Dispatch(c *Client, env Envelope) {
	if handler, ok := inboundHandlers[env.Type]; ok {
		handler(rt, c, env.Data)
	}
}

func (rt *Router) bind(c *Client, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.sessions[c.id] = roomID
	if rt.members[roomID] == nil {
		rt.members[roomID] = make(map[string]*Client)
	}
	rt.members[roomID][c.id] = c
}

func (rt *Router) unbind(connID string) (string, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	roomID, ok := rt.sessions[connID]
	if !ok {
		return "", false
	}
	delete(rt.sessions, connID)
	delete(rt.members[roomID], connID)
	if len(rt.members[roomID]) == 0 {
		delete(rt.members, roomID)
	}
	return roomID, true
}

// clientRoom resolves the sender's session; actions from unbound connections
// are no-ops.
func (rt *Router) clientRoom(c *Client) (*Room, string, bool) {
	rt.mu.RLock()
	roomID, ok := rt.sessions[c.id]
	rt.mu.RUnlock()
	if !ok {
		return nil, "", false
	}
	room, ok := rt.registry.Room(roomID)
	return room, roomID, ok
}

func (rt *Router) audience(roomID, except string) []*Client {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]*Client, 0, len(rt.members[roomID]))
	for connID, client := range rt.members[roomID] {
		if connID != except {
			out = append(out, client)
		}
	}
	return out
}

func (rt *Router) broadcast(roomID string, msgType MessageType, payload any) {
	for _, client := range rt.audience(roomID, "") {
		client.Send(msgType, payload)
	}
}

func (rt *Router) broadcastExcept(roomID, except string, msgType MessageType, payload any) {
	for _, client := range rt.audience(roomID, except) {
		client.Send(msgType, payload)
	}
}

func (rt *Router) sendTo(roomID, connID string, msgType MessageType, payload any) {
	rt.mu.RLock()
	client, ok := rt.members[roomID][connID]
	rt.mu.RUnlock()
	if ok {
		client.Send(msgType, payload)
	}
}

func (rt *Router) sendError(c *Client, message string) {
	c.Send(MsgRoomError, ErrorPayload{Error: message})
}

func (rt *Router) handleCreateRoom(c *Client, data json.RawMessage) {
	var req CreateRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	name := trimName(req.PlayerName)
	if name == "" {
		rt.sendError(c, "Player name is required")
		return
	}
	if _, _, bound := rt.clientRoom(c); bound {
		return
	}

	room := rt.registry.CreateRoom(RoomConfig{
		RoundTime:   time.Duration(req.RoundTime) * time.Second,
		TotalRounds: req.TotalRounds,
	})
	player, isHost, err := room.AddPlayer(c.id, name)
	if err != nil {
		rt.sendError(c, err.Error())
		return
	}
	rt.bind(c, room.ID())

	c.Send(MsgRoomCreated, RoomCreatedPayload{
		RoomID:    room.ID(),
		Player:    player,
		IsHost:    isHost,
		GameState: room.Snapshot(),
	})
}

func (rt *Router) handleJoinRoom(c *Client, data json.RawMessage) {
	var req JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	name := trimName(req.PlayerName)
	if name == "" {
		rt.sendError(c, "Player name is required")
		return
	}

	room, ok := rt.registry.Room(req.RoomID)
	if !ok {
		rt.sendError(c, "Room not found")
		return
	}

	player, isHost, err := room.AddPlayer(c.id, name)
	if errors.Is(err, ErrRoomFull) {
		rt.sendError(c, "Room is full")
		return
	}
	if err != nil {
		rt.sendError(c, err.Error())
		return
	}
	rt.bind(c, room.ID())

	c.Send(MsgRoomJoined, RoomJoinedPayload{
		RoomID:         room.ID(),
		Player:         player,
		IsHost:         isHost,
		GameState:      room.Snapshot(),
		DrawingHistory: room.DrawingHistory(),
		ChatHistory:    room.ChatHistory(),
	})

	rt.broadcastExcept(room.ID(), c.id, MsgPlayerJoined, PlayerJoinedPayload{
		Player:    player.brief(),
		GameState: room.Snapshot(),
	})

	rt.systemMessage(room, fmt.Sprintf("%s joined the game", player.Name))
}

func (rt *Router) handleStartGame(c *Client, _ json.RawMessage) {
	room, roomID, ok := rt.clientRoom(c)
	if !ok {
		return
	}
	if !room.IsHost(c.id) {
		rt.sendError(c, "Only the room host can start the game")
		return
	}
	if !room.CanStartGame() {
		rt.sendError(c, fmt.Sprintf("Need at least %d players to start", MinPlayers))
		return
	}
	if !room.StartGame() {
		return
	}

	rt.broadcast(roomID, MsgGameStarted, GameStartedPayload{GameState: room.Snapshot()})
	rt.announceTurn(room, roomID)
}

// announceTurn delivers the word choices privately to the new drawer and
// tells the room whose turn began.
func (rt *Router) announceTurn(room *Room, roomID string) {
	drawerConn := room.DrawerConnID()
	drawer, ok := room.PlayerBrief(drawerConn)
	if !ok {
		return
	}

	rt.sendTo(roomID, drawerConn, MsgChooseWord, ChooseWordPayload{Words: room.WordChoices()})

	snapshot := room.Snapshot()
	rt.broadcast(roomID, MsgRoundStart, RoundStartPayload{
		Round:     snapshot.CurrentRound,
		Drawer:    drawer.Name,
		GameState: snapshot,
	})
}

func (rt *Router) handleWordChosen(c *Client, data json.RawMessage) {
	var req WordChosenRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	room, roomID, ok := rt.clientRoom(c)
	if !ok || !room.IsDrawer(c.id) {
		return
	}
	if !room.ChooseWord(req.Word) {
		rt.sendError(c, "Invalid word choice")
		return
	}

	// The word itself goes only to the drawer.
	c.Send(MsgWordChosen, WordChosenPayload{Word: req.Word})
	rt.broadcast(roomID, MsgGameStateUpdate, GameStateUpdatePayload{GameState: room.Snapshot()})

	room.StartRoundTimer(
		func(seconds int) {
			rt.broadcast(roomID, MsgTimerUpdate, TimerUpdatePayload{TimeRemaining: seconds})
		},
		func() {
			rt.endRound(room, roomID)
		},
	)
}

func (rt *Router) handleDraw(c *Client, data json.RawMessage) {
	var action DrawAction
	if err := json.Unmarshal(data, &action); err != nil {
		return
	}
	room, roomID, ok := rt.clientRoom(c)
	if !ok || !room.IsDrawer(c.id) {
		return
	}

	room.ApplyDrawAction(action)
	rt.broadcastExcept(roomID, c.id, MsgDraw, action)
}

func (rt *Router) handleClearCanvas(c *Client, _ json.RawMessage) {
	room, roomID, ok := rt.clientRoom(c)
	if !ok || !room.IsDrawer(c.id) {
		return
	}
	room.ClearCanvas()
	rt.broadcast(roomID, MsgClearCanvas, nil)
}

func (rt *Router) handleUndo(c *Client, _ json.RawMessage) {
	room, roomID, ok := rt.clientRoom(c)
	if !ok || !room.IsDrawer(c.id) {
		return
	}
	if room.UndoDrawAction() {
		rt.broadcast(roomID, MsgUndo, nil)
	}
}

func (rt *Router) handleSendGuess(c *Client, data json.RawMessage) {
	var req GuessRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	room, roomID, ok := rt.clientRoom(c)
	if !ok {
		return
	}

	result := room.ProcessGuess(c.id, req.Message)
	switch result.Verdict {
	case VerdictCorrect:
		rt.broadcast(roomID, MsgCorrectGuess, CorrectGuessPayload{
			Player: result.Player,
			Points: result.Points,
		})

		chat := systemChat(fmt.Sprintf("%s guessed the word! (+%d points)", result.Player.Name, result.Points))
		chat.PlayerID = result.Player.ID
		chat.PlayerName = result.Player.Name
		chat.IsCorrect = true
		room.AppendChat(chat)
		rt.broadcast(roomID, MsgChatMessage, chat)

		rt.broadcast(roomID, MsgGameStateUpdate, GameStateUpdatePayload{GameState: room.Snapshot()})

		if result.ShouldEndRound {
			rt.endRound(room, roomID)
		}

	case VerdictClose:
		// Only the guesser learns they are close; the room sees an
		// ordinary chat message.
		c.Send(MsgCloseGuess, CloseGuessPayload{Message: "You're close!"})
		rt.echoGuess(room, roomID, result.Player, req.Message)

	case VerdictIncorrect:
		rt.echoGuess(room, roomID, result.Player, req.Message)

	case VerdictRateLimited:
		c.Send(MsgChatMessage, systemChat("Too many guesses, slow down"))

	case VerdictRejected:
		// Unknown player, drawer guessing, already solved: drop.
	}
}

func (rt *Router) echoGuess(room *Room, roomID string, from PlayerBrief, text string) {
	chat := playerChat(from, text)
	room.AppendChat(chat)
	rt.broadcast(roomID, MsgChatMessage, chat)
}

// HandleDisconnect tears down the session and applies the room's advisory
// removal signals: force-end the round when the drawer left mid-turn, reset
// the game when the table got too small, destroy the room when it emptied.
func (rt *Router) HandleDisconnect(c *Client) {
	roomID, ok := rt.unbind(c.id)
	if !ok {
		return
	}
	room, ok := rt.registry.Room(roomID)
	if !ok {
		return
	}

	res := room.RemovePlayer(c.id)
	if !res.Removed {
		return
	}

	if res.Empty {
		rt.registry.RemoveRoom(roomID)
		return
	}

	rt.broadcast(roomID, MsgPlayerLeft, PlayerLeftPayload{
		PlayerID:   res.Player.ID,
		PlayerName: res.Player.Name,
		GameState:  room.Snapshot(),
	})

	if res.NewHostID != "" && res.NewHostName != "" {
		rt.systemMessage(room, fmt.Sprintf("%s is now the host", res.NewHostName))
	}
	rt.systemMessage(room, fmt.Sprintf("%s left the game", res.Player.Name))

	if res.ShouldEndRound {
		rt.endRound(room, roomID)
	} else if res.ShouldResetGame {
		room.ResetGame()
		rt.broadcast(roomID, MsgGameStateUpdate, GameStateUpdatePayload{GameState: room.Snapshot()})
	}
}

func (rt *Router) systemMessage(room *Room, text string) {
	chat := systemChat(text)
	room.AppendChat(chat)
	rt.broadcast(room.ID(), MsgChatMessage, chat)
}

// endRound reveals the word, then schedules the cancel-safe intermission that
// either starts the next turn or finishes the game with per-player
// leaderboards.
func (rt *Router) endRound(room *Room, roomID string) {
	results, ok := room.EndRound()
	if !ok {
		return
	}

	rt.broadcast(roomID, MsgRoundEnd, RoundEndPayload{
		Word:      results.Word,
		Scores:    results.Scores,
		GameState: room.Snapshot(),
	})

	room.ScheduleAdvance(IntermissionTime, func() {
		rt.advanceRound(room, roomID)
	})
}

func (rt *Router) advanceRound(room *Room, roomID string) {
	if room.AdvanceToNextRound() {
		snapshot := room.Snapshot()
		for connID, brief := range room.Briefs() {
			rt.sendTo(roomID, connID, MsgGameEnd, GameEndPayload{
				FinalScores: room.PersonalizedLeaderboard(brief.ID),
				GameState:   snapshot,
			})
		}
		return
	}

	rt.broadcast(roomID, MsgClearCanvas, nil)
	rt.announceTurn(room, roomID)
	rt.broadcast(roomID, MsgGameStateUpdate, GameStateUpdatePayload{GameState: room.Snapshot()})
}

func trimName(name string) string {
	const maxNameLength = 32
	trimmed := []rune(name)
	if len(trimmed) > maxNameLength {
		trimmed = trimmed[:maxNameLength]
	}
	return strings.TrimSpace(string(trimmed))
}
