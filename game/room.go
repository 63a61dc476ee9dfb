package game

import (
	"math/rand"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vonjunge/skribbl-clone/shared/logger"
)

// Room is one isolated game session: players, turn state, drawing log, chat
// and timers. Every exported method takes the room lock, so operations on a
// room are serialized with respect to one another; distinct rooms never share
// state. Methods return advisory results (end round, reset game, new host)
// instead of emitting events themselves; the router acts on them.
type Room struct {
	mu sync.Mutex

	id    string
	state State

	players     map[string]*Player // connection identity -> player
	playerOrder []string           // join order, drives host transfer
	hostID      string

	currentRound int
	totalRounds  int
	roundTime    time.Duration

	currentDrawer    string
	currentWord      string
	wordChoices      []string
	availableDrawers []string

	playersWhoGuessed map[string]struct{}
	roundStartTime    time.Time
	roundEndTime      time.Time

	drawing *DrawingLog
	chat    []ChatMessage
	guesses *guessWindow

	timer      *RoundTimer
	advance    *time.Timer
	generation uint64

	words WordSource
	rng   *rand.Rand
}

func NewRoom(id string, cfg RoomConfig, words WordSource, rng *rand.Rand) *Room {
	return &Room{
		id:                id,
		state:             StateWaiting,
		players:           make(map[string]*Player),
		playerOrder:       make([]string, 0),
		totalRounds:       cfg.totalRounds(),
		roundTime:         cfg.roundTime(),
		playersWhoGuessed: make(map[string]struct{}),
		drawing:           NewDrawingLog(),
		guesses:           newGuessWindow(MaxGuessesPerSecond),
		words:             words,
		rng:               rng,
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// AddPlayer seats a new player. The first joiner becomes host; joiners during
// a running game enter the drawer pool for future turns (unless host).
func (r *Room) AddPlayer(connID, name string) (*Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= MaxPlayers {
		return nil, false, ErrRoomFull
	}

	player := NewPlayer(name, connID)
	r.players[connID] = player
	r.playerOrder = append(r.playerOrder, connID)

	if r.state != StateWaiting && connID != r.hostID {
		r.availableDrawers = append(r.availableDrawers, connID)
	}

	if len(r.players) == 1 {
		r.hostID = connID
	}

	logger.Infof("room %s: %s joined (%d players)", r.id, name, len(r.players))
	return player, connID == r.hostID, nil
}

// RemoveResult reports what a removal requires of the caller. ShouldEndRound
// and ShouldResetGame are advisory; the room does not self-drive either
// transition because both require events sent to other players.
type RemoveResult struct {
	Removed         bool
	Player          PlayerBrief
	ShouldEndRound  bool
	ShouldResetGame bool
	NewHostID       string
	NewHostName     string
	Empty           bool
}

func (r *Room) RemovePlayer(connID string) RemoveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[connID]
	if !ok {
		return RemoveResult{}
	}

	wasHost := connID == r.hostID
	wasDrawer := connID == r.currentDrawer

	delete(r.players, connID)
	r.playerOrder = slices.DeleteFunc(r.playerOrder, func(id string) bool { return id == connID })
	r.availableDrawers = slices.DeleteFunc(r.availableDrawers, func(id string) bool { return id == connID })
	delete(r.playersWhoGuessed, connID)
	r.guesses.forget(connID)

	res := RemoveResult{
		Removed: true,
		Player:  player.brief(),
		Empty:   len(r.players) == 0,
	}

	if wasHost && len(r.playerOrder) > 0 {
		r.hostID = r.playerOrder[0]
		res.NewHostID = r.hostID
		if host, ok := r.players[r.hostID]; ok {
			res.NewHostName = host.Name
		}
	}

	logger.Infof("room %s: %s left (%d players)", r.id, player.Name, len(r.players))

	if wasDrawer && (r.state == StateDrawing || r.state == StateChoosingWord) {
		res.ShouldEndRound = true
		return res
	}

	if len(r.players) < MinPlayers && r.state != StateWaiting {
		res.ShouldResetGame = true
	}
	return res
}

// CanStartGame needs one seat more than the player minimum because the host
// only moderates: they never draw and never guess.
func (r *Room) CanStartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canStartLocked()
}

func (r *Room) canStartLocked() bool {
	return len(r.players) >= MinPlayers+1 && r.state == StateWaiting
}

func (r *Room) StartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.canStartLocked() {
		return false
	}

	r.currentRound = 1
	r.resetScoresLocked()
	r.availableDrawers = r.nonHostPlayersLocked()
	r.startNewTurnLocked()
	logger.Infof("room %s: game started, %d rounds", r.id, r.totalRounds)
	return true
}

// startNewTurnLocked clears per-turn state, refills the drawer pool when
// drained, and picks the next drawer uniformly at random without replacement.
func (r *Room) startNewTurnLocked() {
	r.playersWhoGuessed = make(map[string]struct{})
	r.drawing.Clear()
	r.currentWord = ""
	for _, p := range r.players {
		p.HasGuessed = false
	}

	if len(r.availableDrawers) == 0 {
		r.availableDrawers = r.nonHostPlayersLocked()
	}
	if len(r.availableDrawers) == 0 {
		logger.Warningf("room %s: no eligible drawers, staying in %s", r.id, r.state)
		return
	}

	i := r.rng.Intn(len(r.availableDrawers))
	r.currentDrawer = r.availableDrawers[i]
	r.availableDrawers = append(r.availableDrawers[:i], r.availableDrawers[i+1:]...)

	r.wordChoices = r.words.Sample(WordChoiceCount)
	r.state = StateChoosingWord
}

func (r *Room) nonHostPlayersLocked() []string {
	pool := make([]string, 0, len(r.playerOrder))
	for _, id := range r.playerOrder {
		if id != r.hostID {
			pool = append(pool, id)
		}
	}
	return pool
}

// ChooseWord accepts only one of the currently offered choices and opens the
// drawing phase, stamping its wall-clock bounds.
func (r *Room) ChooseWord(word string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.Contains(r.wordChoices, word) {
		return false
	}

	r.currentWord = word
	r.state = StateDrawing
	r.roundStartTime = time.Now()
	r.roundEndTime = r.roundStartTime.Add(r.roundTime)
	return true
}

// RoundResult is the reveal broadcast at the end of a turn.
type RoundResult struct {
	Word            string
	Scores          []ScoreEntry
	CorrectGuessers []string
}

// EndRound enters intermission, cancels any live countdown, and pays the
// drawer a fixed bonus per correct guesser. It reports false when no turn is
// in progress, which absorbs races between the countdown expiring and the
// round ending early.
func (r *Room) EndRound() (RoundResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateDrawing && r.state != StateChoosingWord {
		return RoundResult{}, false
	}

	r.stopTimerLocked()
	r.state = StateIntermission

	if drawer, ok := r.players[r.currentDrawer]; ok {
		drawer.Score += len(r.playersWhoGuessed) * 50
	}

	guessers := make([]string, 0, len(r.playersWhoGuessed))
	for id := range r.playersWhoGuessed {
		if p, ok := r.players[id]; ok {
			guessers = append(guessers, p.Name)
		} else {
			guessers = append(guessers, "Unknown")
		}
	}
	sort.Strings(guessers)

	return RoundResult{
		Word:            r.currentWord,
		Scores:          r.scoresLocked(),
		CorrectGuessers: guessers,
	}, true
}

// AdvanceToNextRound moves past the intermission. Returns true once the round
// counter passes the configured total, in which case the room is ENDED and
// its countdown cancelled.
func (r *Room) AdvanceToNextRound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentRound++
	if r.currentRound > r.totalRounds {
		r.state = StateEnded
		r.stopTimerLocked()
		logger.Infof("room %s: game over after %d rounds", r.id, r.totalRounds)
		return true
	}

	r.startNewTurnLocked()
	return false
}

// ResetGame returns the room to the lobby, wiping scores and every per-turn
// and per-game transient, and cancelling all scheduled work.
func (r *Room) ResetGame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = StateWaiting
	r.currentRound = 0
	r.currentDrawer = ""
	r.currentWord = ""
	r.wordChoices = nil
	r.availableDrawers = nil
	r.playersWhoGuessed = make(map[string]struct{})
	r.roundStartTime = time.Time{}
	r.roundEndTime = time.Time{}
	r.drawing.Clear()
	r.chat = nil
	r.resetScoresLocked()
	r.stopTimerLocked()
	r.cancelAdvanceLocked()
	r.generation++
	logger.Infof("room %s: reset to lobby", r.id)
}

func (r *Room) resetScoresLocked() {
	for _, p := range r.players {
		p.Score = 0
		p.HasGuessed = false
	}
}

// GuessResult is the outcome of one submitted guess.
type GuessResult struct {
	Verdict        Verdict
	Points         int
	Player         PlayerBrief
	ShouldEndRound bool
}

// ProcessGuess validates, rate-limits and evaluates one guess. Correct
// guesses score on a time-decay curve from the drawing phase start; the round
// should end once every eligible guesser (everyone but drawer and host) has
// solved the word.
func (r *Room) ProcessGuess(connID, text string) GuessResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[connID]
	if !ok || r.state != StateDrawing {
		return GuessResult{Verdict: VerdictRejected}
	}
	if connID == r.currentDrawer {
		return GuessResult{Verdict: VerdictRejected}
	}
	if _, guessed := r.playersWhoGuessed[connID]; guessed {
		return GuessResult{Verdict: VerdictRejected}
	}
	if !r.guesses.allow(connID, time.Now()) {
		return GuessResult{Verdict: VerdictRateLimited, Player: player.brief()}
	}

	verdict := EvaluateGuess(text, r.currentWord)
	if verdict != VerdictCorrect {
		return GuessResult{Verdict: verdict, Player: player.brief()}
	}

	r.playersWhoGuessed[connID] = struct{}{}
	player.HasGuessed = true

	remaining := r.roundTime - time.Since(r.roundStartTime)
	ratio := max(0, remaining.Seconds()/r.roundTime.Seconds())
	points := int(float64(MaxPoints) * ratio)
	player.Score += points

	eligible := len(r.players) - 2 // drawer and host never guess
	return GuessResult{
		Verdict:        VerdictCorrect,
		Points:         points,
		Player:         player.brief(),
		ShouldEndRound: len(r.playersWhoGuessed) >= eligible,
	}
}

// ApplyDrawAction records a committed action in the replay log. Segments are
// live-forwarded only, so they report false and leave the log untouched.
func (r *Room) ApplyDrawAction(action DrawAction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !action.persisted() {
		return false
	}
	r.drawing.Append(action)
	return true
}

func (r *Room) ClearCanvas() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawing.Clear()
}

func (r *Room) UndoDrawAction() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawing.Undo()
}

func (r *Room) DrawingHistory() []DrawAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawing.Replay()
}

func (r *Room) AppendChat(msg ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat = append(r.chat, msg)
}

func (r *Room) ChatHistory() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChatMessage, len(r.chat))
	copy(out, r.chat)
	return out
}

func (r *Room) IsHost(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return connID == r.hostID && connID != ""
}

func (r *Room) IsDrawer(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return connID == r.currentDrawer && connID != ""
}

// DrawerConnID returns the connection identity of the active drawer, empty
// between turns.
func (r *Room) DrawerConnID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentDrawer
}

func (r *Room) WordChoices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.wordChoices))
	copy(out, r.wordChoices)
	return out
}

func (r *Room) PlayerBrief(connID string) (PlayerBrief, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[connID]
	if !ok {
		return PlayerBrief{}, false
	}
	return p.brief(), true
}

// Briefs returns every player's public projection keyed by connection
// identity, for targeted per-player sends.
func (r *Room) Briefs() map[string]PlayerBrief {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]PlayerBrief, len(r.players))
	for connID, p := range r.players {
		out[connID] = p.brief()
	}
	return out
}

func (r *Room) TimeRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeRemainingLocked()
}

func (r *Room) timeRemainingLocked() time.Duration {
	if r.roundEndTime.IsZero() {
		return 0
	}
	return max(0, time.Until(r.roundEndTime))
}

// Snapshot derives the full public game state. The secret word is exposed
// only as its length and underscore mask.
func (r *Room) Snapshot() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	drawerName := ""
	if drawer, ok := r.players[r.currentDrawer]; ok {
		drawerName = drawer.Name
	}

	players := make([]PlayerState, 0, len(r.playerOrder))
	for _, connID := range r.playerOrder {
		p, ok := r.players[connID]
		if !ok {
			continue
		}
		players = append(players, PlayerState{
			ID:         p.ID,
			Name:       p.Name,
			Score:      p.Score,
			HasGuessed: p.HasGuessed,
			IsDrawer:   connID == r.currentDrawer,
			IsHost:     connID == r.hostID,
		})
	}

	return GameState{
		RoomID:          r.id,
		State:           r.state,
		CurrentRound:    r.currentRound,
		TotalRounds:     r.totalRounds,
		CurrentDrawer:   drawerName,
		CurrentDrawerID: r.currentDrawer,
		HostID:          r.hostID,
		Players:         players,
		TimeRemaining:   r.timeRemainingLocked().Milliseconds(),
		WordLength:      len(r.currentWord),
		WordHint:        wordHint(r.currentWord),
	}
}

// wordHint masks each letter as an underscore, keeping word boundaries
// visible: "ice cream" -> "_ _ _  |  _ _ _ _ _".
func wordHint(word string) string {
	if word == "" {
		return ""
	}
	parts := strings.Split(word, " ")
	masked := make([]string, len(parts))
	for i, part := range parts {
		underscores := make([]string, len([]rune(part)))
		for j := range underscores {
			underscores[j] = "_"
		}
		masked[i] = strings.Join(underscores, " ")
	}
	return strings.Join(masked, "  |  ")
}

func (r *Room) Scores() []ScoreEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scoresLocked()
}

func (r *Room) scoresLocked() []ScoreEntry {
	scores := make([]ScoreEntry, 0, len(r.players))
	for _, p := range r.players {
		scores = append(scores, ScoreEntry{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// PersonalizedLeaderboard returns the top three plus, for a recipient ranked
// below them, their own row annotated with its 1-based rank.
func (r *Room) PersonalizedLeaderboard(playerID string) []ScoreEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.scoresLocked()
	top := all
	if len(top) > 3 {
		top = all[:3]
	}

	index := -1
	for i, entry := range all {
		if entry.ID == playerID {
			index = i
			break
		}
	}

	if index < 3 || len(all) <= 3 {
		return top
	}

	own := all[index]
	own.Rank = index + 1
	return append(append([]ScoreEntry{}, top...), own)
}
