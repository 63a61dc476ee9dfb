package game

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a connection-less client whose outbound queue can be
// drained directly; the pumps never run.
func newTestClient() *Client {
	return &Client{
		id:     uuid.NewString(),
		send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
	}
}

func dispatch(t *testing.T, rt *Router, c *Client, msgType MessageType, payload any) {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		data = raw
	}
	rt.Dispatch(c, Envelope{Type: msgType, Data: data})
}

func drainClient(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case raw := <-c.send:
			var env Envelope
			if err := json.Unmarshal(raw, &env); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

func findEnvelope(envs []Envelope, msgType MessageType) (Envelope, bool) {
	for _, env := range envs {
		if env.Type == msgType {
			return env, true
		}
	}
	return Envelope{}, false
}

func requirePayload(t *testing.T, envs []Envelope, msgType MessageType, target any) {
	t.Helper()
	env, ok := findEnvelope(envs, msgType)
	require.True(t, ok, "expected a %s message, got %v", msgType, envs)
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func requireError(t *testing.T, c *Client, message string) {
	t.Helper()
	var payload ErrorPayload
	requirePayload(t, drainClient(c), MsgRoomError, &payload)
	assert.Equal(t, message, payload.Error)
}

type testTable struct {
	rt       *Router
	registry *Registry
	roomID   string
	host     *Client
	guests   []*Client
}

// newTestTable creates a room through the router with a host and the given
// number of guests, then drains all the join traffic.
func newTestTable(t *testing.T, guests int) *testTable {
	t.Helper()

	tbl := &testTable{
		registry: NewRegistry(testWords()),
		host:     newTestClient(),
	}
	tbl.rt = NewRouter(tbl.registry)

	dispatch(t, tbl.rt, tbl.host, MsgCreateRoom, CreateRoomRequest{PlayerName: "Host"})
	var created RoomCreatedPayload
	requirePayload(t, drainClient(tbl.host), MsgRoomCreated, &created)
	require.True(t, created.IsHost)
	tbl.roomID = created.RoomID

	for i := 0; i < guests; i++ {
		guest := newTestClient()
		dispatch(t, tbl.rt, guest, MsgJoinRoom, JoinRoomRequest{RoomID: tbl.roomID, PlayerName: names[i]})
		tbl.guests = append(tbl.guests, guest)
	}

	tbl.drainAll()
	return tbl
}

var names = []string{"Alice", "Bob", "Carol", "Dave", "Erin"}

func (tbl *testTable) room(t *testing.T) *Room {
	t.Helper()
	room, ok := tbl.registry.Room(tbl.roomID)
	require.True(t, ok)
	return room
}

func (tbl *testTable) drainAll() {
	drainClient(tbl.host)
	for _, guest := range tbl.guests {
		drainClient(guest)
	}
}

func (tbl *testTable) clientFor(t *testing.T, connID string) *Client {
	t.Helper()
	if tbl.host.id == connID {
		return tbl.host
	}
	for _, guest := range tbl.guests {
		if guest.id == connID {
			return guest
		}
	}
	t.Fatalf("no client for connection %s", connID)
	return nil
}

// startedTable brings a table of a host and three guests into the drawing
// phase and returns the chosen word plus the drawer's client.
func startedTable(t *testing.T) (*testTable, *Client, string) {
	t.Helper()

	tbl := newTestTable(t, 3)
	dispatch(t, tbl.rt, tbl.host, MsgStartGame, nil)

	room := tbl.room(t)
	drawer := tbl.clientFor(t, room.DrawerConnID())

	var choose ChooseWordPayload
	requirePayload(t, drainClient(drawer), MsgChooseWord, &choose)
	require.Len(t, choose.Words, WordChoiceCount)
	tbl.drainAll()

	word := choose.Words[0]
	dispatch(t, tbl.rt, drawer, MsgWordChosen, WordChosenRequest{Word: word})
	require.Equal(t, StateDrawing, room.State())

	var chosen WordChosenPayload
	requirePayload(t, drainClient(drawer), MsgWordChosen, &chosen)
	require.Equal(t, word, chosen.Word)
	tbl.drainAll()

	return tbl, drawer, word
}

func TestCreateRoomValidation(t *testing.T) {
	t.Parallel()

	rt := NewRouter(NewRegistry(testWords()))
	c := newTestClient()

	dispatch(t, rt, c, MsgCreateRoom, CreateRoomRequest{PlayerName: "   "})
	requireError(t, c, "Player name is required")
}

func TestJoinRoomValidation(t *testing.T) {
	t.Parallel()

	rt := NewRouter(NewRegistry(testWords()))

	t.Run("unknown room", func(t *testing.T) {
		c := newTestClient()
		dispatch(t, rt, c, MsgJoinRoom, JoinRoomRequest{RoomID: "NOSUCH", PlayerName: "Alice"})
		requireError(t, c, "Room not found")
	})

	t.Run("missing name", func(t *testing.T) {
		c := newTestClient()
		dispatch(t, rt, c, MsgJoinRoom, JoinRoomRequest{RoomID: "NOSUCH", PlayerName: ""})
		requireError(t, c, "Player name is required")
	})
}

func TestJoinRoomFlow(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 0)
	guest := newTestClient()

	dispatch(t, tbl.rt, guest, MsgJoinRoom, JoinRoomRequest{RoomID: tbl.roomID, PlayerName: "Alice"})

	var joined RoomJoinedPayload
	guestEnvs := drainClient(guest)
	requirePayload(t, guestEnvs, MsgRoomJoined, &joined)
	assert.Equal(t, tbl.roomID, joined.RoomID)
	assert.False(t, joined.IsHost)
	assert.Len(t, joined.GameState.Players, 2)
	assert.Empty(t, joined.DrawingHistory)

	// The whole room, joiner included, sees the arrival in chat.
	var chat ChatMessage
	requirePayload(t, guestEnvs, MsgChatMessage, &chat)
	assert.Equal(t, "Alice joined the game", chat.Message)
	assert.True(t, chat.IsSystem)

	hostEnvs := drainClient(tbl.host)
	var arrival PlayerJoinedPayload
	requirePayload(t, hostEnvs, MsgPlayerJoined, &arrival)
	assert.Equal(t, "Alice", arrival.Player.Name)
}

func TestLateJoinerReceivesHistory(t *testing.T) {
	t.Parallel()

	tbl, drawer, word := startedTable(t)
	dispatch(t, tbl.rt, drawer, MsgDraw, strokeAction(Point{X: 1, Y: 1}))
	tbl.drainAll()

	late := newTestClient()
	dispatch(t, tbl.rt, late, MsgJoinRoom, JoinRoomRequest{RoomID: tbl.roomID, PlayerName: "Late"})

	var joined RoomJoinedPayload
	requirePayload(t, drainClient(late), MsgRoomJoined, &joined)
	assert.Len(t, joined.DrawingHistory, 1)
	assert.NotEmpty(t, joined.ChatHistory)
	assert.Equal(t, StateDrawing, joined.GameState.State)
	assert.Equal(t, len(word), joined.GameState.WordLength)
	assert.Equal(t, wordHint(word), joined.GameState.WordHint)
}

func TestStartGameAuthorization(t *testing.T) {
	t.Parallel()

	t.Run("only the host can start", func(t *testing.T) {
		tbl := newTestTable(t, 3)
		dispatch(t, tbl.rt, tbl.guests[0], MsgStartGame, nil)
		requireError(t, tbl.guests[0], "Only the room host can start the game")
	})

	t.Run("too few players", func(t *testing.T) {
		tbl := newTestTable(t, 2)
		dispatch(t, tbl.rt, tbl.host, MsgStartGame, nil)
		requireError(t, tbl.host, "Need at least 3 players to start")
	})

	t.Run("start broadcasts and offers words to the drawer", func(t *testing.T) {
		tbl := newTestTable(t, 3)
		dispatch(t, tbl.rt, tbl.host, MsgStartGame, nil)

		room := tbl.room(t)
		require.Equal(t, StateChoosingWord, room.State())
		drawer := tbl.clientFor(t, room.DrawerConnID())

		drawerEnvs := drainClient(drawer)
		_, sawChoices := findEnvelope(drawerEnvs, MsgChooseWord)
		assert.True(t, sawChoices)

		var start RoundStartPayload
		requirePayload(t, drainClient(tbl.host), MsgRoundStart, &start)
		assert.Equal(t, 1, start.Round)
		assert.NotEmpty(t, start.Drawer)
	})
}

func TestWordChosenAuthorization(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t, 3)
	dispatch(t, tbl.rt, tbl.host, MsgStartGame, nil)
	tbl.drainAll()

	room := tbl.room(t)
	var bystander *Client
	for _, guest := range tbl.guests {
		if guest.id != room.DrawerConnID() {
			bystander = guest
			break
		}
	}

	dispatch(t, tbl.rt, bystander, MsgWordChosen, WordChosenRequest{Word: "cat"})
	assert.Equal(t, StateChoosingWord, room.State())
	assert.Empty(t, drainClient(bystander))

	drawer := tbl.clientFor(t, room.DrawerConnID())
	dispatch(t, tbl.rt, drawer, MsgWordChosen, WordChosenRequest{Word: "not-offered"})
	requireError(t, drawer, "Invalid word choice")
	assert.Equal(t, StateChoosingWord, room.State())
}

func TestDrawForwarding(t *testing.T) {
	t.Parallel()

	tbl, drawer, _ := startedTable(t)
	room := tbl.room(t)

	var viewer *Client
	for _, guest := range tbl.guests {
		if guest != drawer {
			viewer = guest
			break
		}
	}

	t.Run("strokes reach viewers and the replay log", func(t *testing.T) {
		dispatch(t, tbl.rt, drawer, MsgDraw, strokeAction(Point{X: 1, Y: 1}))

		_, echoed := findEnvelope(drainClient(drawer), MsgDraw)
		assert.False(t, echoed, "the drawer does not receive their own action back")
		_, forwarded := findEnvelope(drainClient(viewer), MsgDraw)
		assert.True(t, forwarded)
		assert.Len(t, room.DrawingHistory(), 1)
	})

	t.Run("segments are forwarded but not persisted", func(t *testing.T) {
		segment := DrawAction{Type: ActionSegment, Segment: &Segment{X1: 5, Y1: 5}}
		dispatch(t, tbl.rt, drawer, MsgDraw, segment)

		_, forwarded := findEnvelope(drainClient(viewer), MsgDraw)
		assert.True(t, forwarded)
		assert.Len(t, room.DrawingHistory(), 1)
	})

	t.Run("non-drawers cannot draw", func(t *testing.T) {
		dispatch(t, tbl.rt, viewer, MsgDraw, strokeAction(Point{X: 9, Y: 9}))
		assert.Len(t, room.DrawingHistory(), 1)
		assert.Empty(t, drainClient(drawer))
	})

	t.Run("undo pops the log and tells the room", func(t *testing.T) {
		dispatch(t, tbl.rt, drawer, MsgUndo, nil)
		_, forwarded := findEnvelope(drainClient(viewer), MsgUndo)
		assert.True(t, forwarded)
		_, echoed := findEnvelope(drainClient(drawer), MsgUndo)
		assert.True(t, echoed)
		assert.Empty(t, room.DrawingHistory())

		// Nothing left to undo, nothing to announce.
		dispatch(t, tbl.rt, drawer, MsgUndo, nil)
		assert.Empty(t, drainClient(viewer))
	})

	t.Run("clear wipes the canvas for everyone", func(t *testing.T) {
		dispatch(t, tbl.rt, drawer, MsgDraw, strokeAction(Point{X: 2, Y: 2}))
		tbl.drainAll()

		dispatch(t, tbl.rt, drawer, MsgClearCanvas, nil)
		_, cleared := findEnvelope(drainClient(viewer), MsgClearCanvas)
		assert.True(t, cleared)
		_, clearedSelf := findEnvelope(drainClient(drawer), MsgClearCanvas)
		assert.True(t, clearedSelf)
		assert.Empty(t, room.DrawingHistory())
	})
}

func TestGuessFlow(t *testing.T) {
	t.Parallel()

	tbl, drawer, word := startedTable(t)
	room := tbl.room(t)

	var solvers []*Client
	for _, guest := range tbl.guests {
		if guest != drawer {
			solvers = append(solvers, guest)
		}
	}
	require.Len(t, solvers, 2)

	t.Run("wrong guess echoes as chat", func(t *testing.T) {
		dispatch(t, tbl.rt, solvers[0], MsgSendGuess, GuessRequest{Message: "zzzzzz"})

		var chat ChatMessage
		requirePayload(t, drainClient(tbl.host), MsgChatMessage, &chat)
		assert.Equal(t, "zzzzzz", chat.Message)
		assert.False(t, chat.IsSystem)
		tbl.drainAll()
	})

	t.Run("close guess notifies only the guesser", func(t *testing.T) {
		dispatch(t, tbl.rt, solvers[0], MsgSendGuess, GuessRequest{Message: word + "x"})

		var hint CloseGuessPayload
		requirePayload(t, drainClient(solvers[0]), MsgCloseGuess, &hint)
		assert.Equal(t, "You're close!", hint.Message)

		hostEnvs := drainClient(tbl.host)
		_, leaked := findEnvelope(hostEnvs, MsgCloseGuess)
		assert.False(t, leaked, "close-guess hints are private")
		_, echoed := findEnvelope(hostEnvs, MsgChatMessage)
		assert.True(t, echoed)
		tbl.drainAll()
	})

	t.Run("correct guess broadcasts and ends the round when all solved", func(t *testing.T) {
		dispatch(t, tbl.rt, solvers[0], MsgSendGuess, GuessRequest{Message: word})

		hostEnvs := drainClient(tbl.host)
		var correct CorrectGuessPayload
		requirePayload(t, hostEnvs, MsgCorrectGuess, &correct)
		assert.Greater(t, correct.Points, 0)

		var chat ChatMessage
		requirePayload(t, hostEnvs, MsgChatMessage, &chat)
		assert.Contains(t, chat.Message, "guessed the word!")
		assert.True(t, chat.IsCorrect)
		assert.True(t, chat.IsSystem)

		_, ended := findEnvelope(hostEnvs, MsgRoundEnd)
		assert.False(t, ended, "one of two eligible solvers is not enough")
		tbl.drainAll()

		// Two eligible guessers at this table; the second solve ends it.
		dispatch(t, tbl.rt, solvers[1], MsgSendGuess, GuessRequest{Message: word})

		var roundEnd RoundEndPayload
		requirePayload(t, drainClient(tbl.host), MsgRoundEnd, &roundEnd)
		assert.Equal(t, word, roundEnd.Word)
		assert.Equal(t, StateIntermission, room.State())
	})
}

func TestGameEndDeliversPersonalizedLeaderboards(t *testing.T) {
	t.Parallel()

	tbl, drawer, word := startedTable(t)
	room := tbl.room(t)

	// Shrink the game to a single round so this turn is the last.
	room.mu.Lock()
	room.totalRounds = 1
	room.mu.Unlock()

	for _, guest := range tbl.guests {
		if guest != drawer {
			dispatch(t, tbl.rt, guest, MsgSendGuess, GuessRequest{Message: word})
		}
	}
	require.Equal(t, StateIntermission, room.State())
	tbl.drainAll()

	// Stand in for the intermission delay elapsing.
	tbl.rt.advanceRound(room, tbl.roomID)
	require.Equal(t, StateEnded, room.State())

	var hostEnd GameEndPayload
	requirePayload(t, drainClient(tbl.host), MsgGameEnd, &hostEnd)
	assert.LessOrEqual(t, len(hostEnd.FinalScores), 4)
	assert.Equal(t, StateEnded, hostEnd.GameState.State)

	for _, guest := range tbl.guests {
		var end GameEndPayload
		requirePayload(t, drainClient(guest), MsgGameEnd, &end)
		assert.NotEmpty(t, end.FinalScores)
	}
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	t.Run("host leaving promotes and announces", func(t *testing.T) {
		tbl := newTestTable(t, 2)
		tbl.rt.HandleDisconnect(tbl.host)

		envs := drainClient(tbl.guests[0])
		var left PlayerLeftPayload
		requirePayload(t, envs, MsgPlayerLeft, &left)
		assert.Equal(t, "Host", left.PlayerName)

		messages := make([]string, 0, 2)
		for _, env := range envs {
			if env.Type == MsgChatMessage {
				var chat ChatMessage
				require.NoError(t, json.Unmarshal(env.Data, &chat))
				messages = append(messages, chat.Message)
			}
		}
		assert.Contains(t, messages, "Alice is now the host")
		assert.Contains(t, messages, "Host left the game")
	})

	t.Run("drawer leaving mid-turn ends the round", func(t *testing.T) {
		tbl, drawer, word := startedTable(t)
		tbl.rt.HandleDisconnect(drawer)

		var roundEnd RoundEndPayload
		requirePayload(t, drainClient(tbl.host), MsgRoundEnd, &roundEnd)
		assert.Equal(t, word, roundEnd.Word)
	})

	t.Run("last player out destroys the room", func(t *testing.T) {
		tbl := newTestTable(t, 1)
		tbl.rt.HandleDisconnect(tbl.guests[0])
		tbl.rt.HandleDisconnect(tbl.host)
		assert.Zero(t, tbl.registry.Count())
	})

	t.Run("unbound clients are ignored", func(t *testing.T) {
		tbl := newTestTable(t, 1)
		tbl.rt.HandleDisconnect(newTestClient())
		assert.Equal(t, 1, tbl.registry.Count())
	})
}
