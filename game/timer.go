package game

import (
	"context"
	"time"
)

// RoundTimer is the handle of one live countdown. Stopping it is idempotent.
type RoundTimer struct {
	cancel context.CancelFunc
}

func (t *RoundTimer) Stop() {
	if t != nil && t.cancel != nil {
		t.cancel()
	}
}

// StartRoundTimer begins the drawing-phase countdown: onTick fires once per
// second with the whole seconds remaining, onExpire exactly once when the
// deadline passes. Starting a new timer cancels any previous one; every
// transition out of the drawing phase cancels it too, so a stale tick can
// never fire into a later turn.
func (r *Room) StartRoundTimer(onTick func(seconds int), onExpire func()) {
	r.startRoundTimer(time.Second, onTick, onExpire)
}

func (r *Room) startRoundTimer(interval time.Duration, onTick func(int), onExpire func()) {
	r.mu.Lock()
	r.stopTimerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	r.timer = &RoundTimer{cancel: cancel}
	deadline := r.roundEndTime
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				remaining := deadline.Sub(now)
				if remaining <= 0 {
					onTick(0)
					onExpire()
					return
				}
				seconds := int((remaining + interval - 1) / interval)
				onTick(seconds)
			}
		}
	}()
}

// StopRoundTimer cancels the live countdown, if any.
func (r *Room) StopRoundTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// ScheduleAdvance runs fn after the intermission delay, keyed to the room's
// current round and generation: a reset or destruction during the delay
// invalidates the callback instead of resurrecting a stale turn.
func (r *Room) ScheduleAdvance(delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelAdvanceLocked()
	round := r.currentRound
	generation := r.generation

	r.advance = time.AfterFunc(delay, func() {
		r.mu.Lock()
		stale := r.generation != generation || r.currentRound != round
		r.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

func (r *Room) cancelAdvanceLocked() {
	if r.advance != nil {
		r.advance.Stop()
		r.advance = nil
	}
}

// Destroy cancels every scheduled task the room owns. Called when the
// registry evicts the room; the room must not fire anything afterwards.
func (r *Room) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.cancelAdvanceLocked()
	r.generation++
}
