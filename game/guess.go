package game

import (
	"strings"
	"time"
)

// Verdict classifies a submitted guess against the secret word.
type Verdict int

const (
	// VerdictRejected covers guesses that never reach evaluation: unknown
	// player, the drawer guessing, or a player who already solved the word.
	VerdictRejected Verdict = iota
	VerdictRateLimited
	VerdictIncorrect
	VerdictClose
	VerdictCorrect
)

// EvaluateGuess maps a raw guess and the secret word to a verdict. Both sides
// are trimmed and case-folded first. Pure; safe to call without any room.
func EvaluateGuess(guess, word string) Verdict {
	cleanGuess := normalizeGuess(guess)
	cleanWord := normalizeGuess(word)

	if cleanWord == "" {
		return VerdictIncorrect
	}
	if cleanGuess == cleanWord {
		return VerdictCorrect
	}
	if isCloseGuess(cleanGuess, cleanWord) {
		return VerdictClose
	}
	return VerdictIncorrect
}

func normalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isCloseGuess preserves the containment and edit-distance thresholds of the
// original engine exactly, short-word false positives included. Inputs are
// assumed normalized.
func isCloseGuess(guess, word string) bool {
	if len(guess) >= 3 && strings.Contains(word, guess) {
		return true
	}
	if len(word) >= 3 && strings.Contains(guess, word) {
		return true
	}

	distance := levenshtein(guess, word)
	return distance <= 2 && float64(distance) < float64(len(word))/2
}

// levenshtein computes the unit-cost edit distance (insert/delete/substitute)
// with the standard dynamic-programming recurrence, rolling a single row.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// guessWindow enforces the per-player sliding one-second guess cap. Not safe
// for concurrent use; callers hold the room lock.
type guessWindow struct {
	stamps map[string][]time.Time
	limit  int
	span   time.Duration
}

func newGuessWindow(limit int) *guessWindow {
	return &guessWindow{
		stamps: make(map[string][]time.Time),
		limit:  limit,
		span:   time.Second,
	}
}

// allow prunes timestamps older than the window, then admits the guess only
// if the player is still under the cap. Admitted guesses are recorded.
func (w *guessWindow) allow(id string, now time.Time) bool {
	recent := w.stamps[id][:0]
	for _, t := range w.stamps[id] {
		if now.Sub(t) < w.span {
			recent = append(recent, t)
		}
	}

	if len(recent) >= w.limit {
		w.stamps[id] = recent
		return false
	}

	w.stamps[id] = append(recent, now)
	return true
}

func (w *guessWindow) forget(id string) {
	delete(w.stamps, id)
}
