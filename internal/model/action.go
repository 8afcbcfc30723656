package model

import "fmt"

// ActionKind tags the variant carried by a ProposedAction.
type ActionKind string

const (
	ActionIRMove     ActionKind = "IR_MOVE"
	ActionLineupSwap ActionKind = "LINEUP_SWAP"
	ActionStream     ActionKind = "STREAM"
)

// IRDirection is the direction of an injured-reserve move.
type IRDirection string

const (
	IRIn  IRDirection = "IN"
	IROut IRDirection = "OUT"
)

// IRMove proposes moving a player into or out of an IR slot.
type IRMove struct {
	Player    *PlayerSnapshot `json:"player"`
	Direction IRDirection     `json:"direction"`
	FromSlot  string          `json:"from_slot"`
	ToSlot    string          `json:"to_slot,omitempty"`
}

// LineupSwap proposes promoting PlayerIn from FromSlot into starting slot ToSlot.
// PlayerOut is the displaced starter, nil when ToSlot was empty.
type LineupSwap struct {
	FromSlot  string          `json:"from_slot"`
	ToSlot    string          `json:"to_slot"`
	PlayerIn  *PlayerSnapshot `json:"player_in"`
	PlayerOut *PlayerSnapshot `json:"player_out,omitempty"`
	Pass      int             `json:"pass"`
}

// Stream proposes dropping a roster player for a free agent.
type Stream struct {
	DropPlayer    *PlayerSnapshot `json:"drop_player"`
	AddPlayer     *PlayerSnapshot `json:"add_player"`
	DropWeekValue float64         `json:"drop_week_value"`
	AddWeekValue  float64         `json:"add_week_value"`
}

// Gain is the week-value improvement of the stream.
func (s *Stream) Gain() float64 { return s.AddWeekValue - s.DropWeekValue }

// ProposedAction is a tagged variant; exactly one payload matches Kind.
type ProposedAction struct {
	Kind       ActionKind  `json:"kind"`
	IRMove     *IRMove     `json:"ir_move,omitempty"`
	LineupSwap *LineupSwap `json:"lineup_swap,omitempty"`
	Stream     *Stream     `json:"stream,omitempty"`
}

func NewIRMove(m IRMove) ProposedAction {
	return ProposedAction{Kind: ActionIRMove, IRMove: &m}
}

func NewLineupSwap(s LineupSwap) ProposedAction {
	return ProposedAction{Kind: ActionLineupSwap, LineupSwap: &s}
}

func NewStream(s Stream) ProposedAction {
	return ProposedAction{Kind: ActionStream, Stream: &s}
}

// Describe renders the action for display. It is never parsed back.
func (a ProposedAction) Describe() string {
	switch a.Kind {
	case ActionIRMove:
		m := a.IRMove
		if m.Direction == IRIn {
			return fmt.Sprintf("Move %s (%s) from %s to IR", m.Player.Name, m.Player.Status, m.FromSlot)
		}
		return fmt.Sprintf("Activate %s (%s) from IR", m.Player.Name, displayStatus(m.Player.Status))
	case ActionLineupSwap:
		s := a.LineupSwap
		if s.PlayerOut == nil {
			return fmt.Sprintf("Start %s at %s (slot was empty)", s.PlayerIn.Name, s.ToSlot)
		}
		return fmt.Sprintf("Start %s over %s at %s", s.PlayerIn.Name, s.PlayerOut.Name, s.ToSlot)
	case ActionStream:
		s := a.Stream
		return fmt.Sprintf("Drop %s (%.1f wk) for %s (%.1f wk), gain %+.1f",
			s.DropPlayer.Name, s.DropWeekValue, s.AddPlayer.Name, s.AddWeekValue, s.Gain())
	default:
		return string(a.Kind)
	}
}

func displayStatus(s HealthStatus) string {
	if s == StatusUnknown {
		return "UNKNOWN"
	}
	return string(s)
}
