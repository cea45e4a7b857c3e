package model

import "time"

// State is a position in the per-turn state machine of the chat loop.
type State int

const (
	StateAwaitInput State = iota
	StatePrompted
	StateResolved
	StateDispatched
	StateAlerted
	StateSummarized
	StateSessionEnded
)

func (s State) String() string {
	switch s {
	case StateAwaitInput:
		return "AWAIT_INPUT"
	case StatePrompted:
		return "PROMPTED"
	case StateResolved:
		return "RESOLVED"
	case StateDispatched:
		return "DISPATCHED"
	case StateAlerted:
		return "ALERTED"
	case StateSummarized:
		return "SUMMARIZED"
	case StateSessionEnded:
		return "SESSION_ENDED"
	default:
		return "UNKNOWN"
	}
}

// Source records which resolver stage produced a tool call.
type Source string

const (
	SourceNone       Source = ""
	SourceStructured Source = "structured"
	SourceHeuristic  Source = "heuristic"
)

// Turn is one user request cycle. The chat loop owns it exclusively and
// drops it once the turn ends.
type Turn struct {
	Number    int
	Input     string
	ModelText string

	// Call is nil when no tool was resolved.
	Call   *ToolCall
	Source Source

	Result ToolResponse

	AlertFired   bool
	Notification string

	Summary string

	// State is the last state the turn reached before returning to AWAIT_INPUT.
	State State

	// Err records why the turn stopped early: ErrNoToolCall when nothing was
	// resolved, or a recovered panic.
	Err error

	StartedAt time.Time
	Duration  time.Duration
}

// HasCall reports whether the turn resolved a tool call.
func (t *Turn) HasCall() bool {
	return t.Call != nil
}
