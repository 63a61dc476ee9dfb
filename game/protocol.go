package game

import (
	"encoding/json"
	"time"
)

// MessageType enumerates the closed set of wire message kinds. Inbound kinds
// are dispatched through the router table; everything else is outbound only.
type MessageType string

const (
	// Inbound
	MsgCreateRoom  MessageType = "create_room"
	MsgJoinRoom    MessageType = "join_room"
	MsgStartGame   MessageType = "start_game"
	MsgWordChosen  MessageType = "word_chosen"
	MsgDraw        MessageType = "draw"
	MsgClearCanvas MessageType = "clear_canvas"
	MsgUndo        MessageType = "undo"
	MsgSendGuess   MessageType = "send_guess"

	// Outbound
	MsgRoomCreated     MessageType = "room_created"
	MsgRoomJoined      MessageType = "room_joined"
	MsgRoomError       MessageType = "room_error"
	MsgPlayerJoined    MessageType = "player_joined"
	MsgPlayerLeft      MessageType = "player_left"
	MsgGameStarted     MessageType = "game_started"
	MsgRoundStart      MessageType = "round_start"
	MsgRoundEnd        MessageType = "round_end"
	MsgGameEnd         MessageType = "game_end"
	MsgChooseWord      MessageType = "choose_word"
	MsgChatMessage     MessageType = "chat_message"
	MsgCorrectGuess    MessageType = "correct_guess"
	MsgCloseGuess      MessageType = "close_guess"
	MsgGameStateUpdate MessageType = "game_state_update"
	MsgTimerUpdate     MessageType = "timer_update"
)

// Envelope is the wire frame: a type tag plus the kind-specific payload.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ChatMessage is one entry of a room's chat feed, player or system.
type ChatMessage struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	IsCorrect  bool   `json:"isCorrect"`
	IsSystem   bool   `json:"isSystem"`
	Timestamp  int64  `json:"timestamp"`
}

func systemChat(message string) ChatMessage {
	return ChatMessage{
		PlayerID:   "system",
		PlayerName: "System",
		Message:    message,
		IsSystem:   true,
		Timestamp:  time.Now().UnixMilli(),
	}
}

func playerChat(p PlayerBrief, message string) ChatMessage {
	return ChatMessage{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Message:    message,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// PlayerState is one player row of a GameState snapshot.
type PlayerState struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	HasGuessed bool   `json:"hasGuessed"`
	IsDrawer   bool   `json:"isDrawer"`
	IsHost     bool   `json:"isHost"`
}

// GameState is the full derived room snapshot broadcast on every state
// change. The secret word itself never appears; guessers only see its
// length and the hint mask.
type GameState struct {
	RoomID          string        `json:"roomId"`
	State           State         `json:"state"`
	CurrentRound    int           `json:"currentRound"`
	TotalRounds     int           `json:"totalRounds"`
	CurrentDrawer   string        `json:"currentDrawer"`
	CurrentDrawerID string        `json:"currentDrawerId"`
	HostID          string        `json:"hostId"`
	Players         []PlayerState `json:"players"`
	TimeRemaining   int64         `json:"timeRemaining"`
	WordLength      int           `json:"wordLength"`
	WordHint        string        `json:"wordHint"`
}

// Inbound payloads.

type CreateRoomRequest struct {
	PlayerName  string `json:"playerName"`
	RoundTime   int    `json:"roundTime,omitempty"`
	TotalRounds int    `json:"totalRounds,omitempty"`
}

type JoinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type WordChosenRequest struct {
	Word string `json:"word"`
}

type GuessRequest struct {
	Message string `json:"message"`
}

// Outbound payloads.

type ErrorPayload struct {
	Error string `json:"error"`
}

type RoomCreatedPayload struct {
	RoomID    string    `json:"roomId"`
	Player    *Player   `json:"player"`
	IsHost    bool      `json:"isHost"`
	GameState GameState `json:"gameState"`
}

type RoomJoinedPayload struct {
	RoomID         string        `json:"roomId"`
	Player         *Player       `json:"player"`
	IsHost         bool          `json:"isHost"`
	GameState      GameState     `json:"gameState"`
	DrawingHistory []DrawAction  `json:"drawingHistory"`
	ChatHistory    []ChatMessage `json:"chatHistory"`
}

type PlayerJoinedPayload struct {
	Player    PlayerBrief `json:"player"`
	GameState GameState   `json:"gameState"`
}

type PlayerLeftPayload struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	GameState  GameState `json:"gameState"`
}

type GameStartedPayload struct {
	GameState GameState `json:"gameState"`
}

type RoundStartPayload struct {
	Round     int       `json:"round"`
	Drawer    string    `json:"drawer"`
	GameState GameState `json:"gameState"`
}

type RoundEndPayload struct {
	Word      string       `json:"word"`
	Scores    []ScoreEntry `json:"scores"`
	GameState GameState    `json:"gameState"`
}

type GameEndPayload struct {
	FinalScores []ScoreEntry `json:"finalScores"`
	GameState   GameState    `json:"gameState"`
}

type ChooseWordPayload struct {
	Words []string `json:"words"`
}

type WordChosenPayload struct {
	Word string `json:"word"`
}

type CorrectGuessPayload struct {
	Player PlayerBrief `json:"player"`
	Points int         `json:"points"`
}

type CloseGuessPayload struct {
	Message string `json:"message"`
}

type GameStateUpdatePayload struct {
	GameState GameState `json:"gameState"`
}

type TimerUpdatePayload struct {
	TimeRemaining int `json:"timeRemaining"`
}
