package game

import "time"

// ActionType tags the variants of a drawing action.
type ActionType string

const (
	// ActionSegment is a live point-to-point line piece. Segments are
	// forwarded to viewers for instant feedback but never persisted; the
	// committed stroke that follows carries the same pixels.
	ActionSegment ActionType = "segment"
	// ActionStroke is a committed multi-point path, the undoable unit.
	ActionStroke ActionType = "stroke"
	// ActionFill is a flood-fill seed point plus color.
	ActionFill ActionType = "fill"
	// ActionClear wipes the canvas.
	ActionClear ActionType = "clear"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Segment struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Tool  string  `json:"tool"`
}

type Stroke struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Size   float64 `json:"size"`
	Tool   string  `json:"tool"`
}

type Fill struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

// DrawAction is the tagged variant the engine consumes and replays. Exactly
// one of the payload pointers matching Type is set.
type DrawAction struct {
	Type      ActionType `json:"type"`
	Segment   *Segment   `json:"segment,omitempty"`
	Stroke    *Stroke    `json:"stroke,omitempty"`
	Fill      *Fill      `json:"fill,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

func (a DrawAction) persisted() bool {
	return a.Type == ActionStroke || a.Type == ActionFill
}

// DrawingLog is the append-only, capacity-bounded record of committed drawing
// actions for one room. Replaying it in order reconstructs the canvas for a
// late joiner. Not safe for concurrent use; the owning room serializes access.
type DrawingLog struct {
	actions []DrawAction
}

func NewDrawingLog() *DrawingLog {
	return &DrawingLog{actions: make([]DrawAction, 0)}
}

// Append records a committed action. Once the log crosses its ceiling the
// oldest half is dropped in one slice, which can silently discard undoable
// strokes; that trade is intentional backpressure, kept as-is.
func (l *DrawingLog) Append(action DrawAction) {
	if action.Timestamp == 0 {
		action.Timestamp = time.Now().UnixMilli()
	}
	l.actions = append(l.actions, action)

	if len(l.actions) > drawingHistoryCeiling {
		trimmed := make([]DrawAction, drawingHistoryKeep)
		copy(trimmed, l.actions[len(l.actions)-drawingHistoryKeep:])
		l.actions = trimmed
	}
}

// Undo pops the most recent entry. There is no redo.
func (l *DrawingLog) Undo() bool {
	if len(l.actions) == 0 {
		return false
	}
	l.actions = l.actions[:len(l.actions)-1]
	return true
}

func (l *DrawingLog) Clear() {
	l.actions = l.actions[:0]
}

func (l *DrawingLog) Len() int {
	return len(l.actions)
}

// Replay returns a copy of the log in append order.
func (l *DrawingLog) Replay() []DrawAction {
	out := make([]DrawAction, len(l.actions))
	copy(out, l.actions)
	return out
}
