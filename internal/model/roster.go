package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Position is a roster slot label.
type Position string

const (
	PosPG    Position = "PG"
	PosSG    Position = "SG"
	PosSF    Position = "SF"
	PosPF    Position = "PF"
	PosC     Position = "C"
	PosG     Position = "G"
	PosF     Position = "F"
	PosUTIL  Position = "UTIL"
	PosBench Position = "BE"
	PosIR    Position = "IR"
)

// StartingPositions is the fixed starting-position set, in lineup order.
var StartingPositions = []Position{PosPG, PosSG, PosSF, PosPF, PosC, PosG, PosF, PosUTIL}

// DefaultSlotCodes is the standard platform slot-identity table.
var DefaultSlotCodes = map[Position]int{
	PosPG:    0,
	PosSG:    1,
	PosSF:    2,
	PosPF:    3,
	PosC:     4,
	PosG:     5,
	PosF:     6,
	PosUTIL:  8,
	PosBench: 9,
	PosIR:    12,
}

// ParsePosition normalizes a slot label, accepting the BN and IL aliases.
func ParsePosition(raw string) (Position, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "BN":
		return PosBench, true
	case "IL":
		return PosIR, true
	}
	p := Position(s)
	if _, ok := DefaultSlotCodes[p]; ok {
		return p, true
	}
	return "", false
}

// IsStarting reports whether the position is one of the starting slots.
func (p Position) IsStarting() bool {
	for _, s := range StartingPositions {
		if s == p {
			return true
		}
	}
	return false
}

// SlotTable maps positions to platform slot codes. Overrides replace defaults per position.
type SlotTable map[Position]int

// NewSlotTable returns the default table with the given overrides applied.
func NewSlotTable(overrides map[string]int) (SlotTable, error) {
	t := make(SlotTable, len(DefaultSlotCodes))
	for p, c := range DefaultSlotCodes {
		t[p] = c
	}
	for raw, code := range overrides {
		p, ok := ParsePosition(raw)
		if !ok {
			return nil, fmt.Errorf("unknown slot position %q", raw)
		}
		t[p] = code
	}
	return t, nil
}

// Code returns the slot code for a position. Unknown positions fall back to the bench code.
func (t SlotTable) Code(p Position) int {
	if c, ok := t[p]; ok {
		return c
	}
	return t[PosBench]
}

// Position returns the position for a slot code.
func (t SlotTable) Position(code int) (Position, bool) {
	// iterate in a stable order so duplicate codes resolve deterministically
	keys := make([]string, 0, len(t))
	for p := range t {
		keys = append(keys, string(p))
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t[Position(k)] == code {
			return Position(k), true
		}
	}
	return "", false
}

// RosterSlot is one roster position holding at most one player.
type RosterSlot struct {
	ID       string          `json:"id"`
	Position Position        `json:"position"`
	Occupant *PlayerSnapshot `json:"occupant,omitempty"`
}

// Empty reports whether the slot holds no player.
func (s RosterSlot) Empty() bool { return s.Occupant == nil }

// Roster is the ordered set of a team's slots. Slot IDs are stable across cycles.
type Roster struct {
	Slots []RosterSlot `json:"slots"`
}

// SlotID builds the stable identity of the n-th slot (0-based) of a position.
func SlotID(p Position, n int) string {
	return fmt.Sprintf("%s-%d", p, n+1)
}

// NewRoster assigns stable slot IDs to the given position/occupant pairs in order.
func NewRoster(entries []RosterSlot) Roster {
	seen := make(map[Position]int)
	slots := make([]RosterSlot, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = SlotID(e.Position, seen[e.Position])
		}
		seen[e.Position]++
		slots[i] = e
	}
	return Roster{Slots: slots}
}

// Slot returns the slot with the given ID.
func (r Roster) Slot(id string) (RosterSlot, bool) {
	for _, s := range r.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return RosterSlot{}, false
}

// Clone returns a copy whose slot slice can be mutated independently.
// Player snapshots are shared since they are immutable.
func (r Roster) Clone() Roster {
	slots := make([]RosterSlot, len(r.Slots))
	copy(slots, r.Slots)
	return Roster{Slots: slots}
}

// Starters returns the starting slots in roster order.
func (r Roster) Starters() []RosterSlot {
	return r.filter(func(s RosterSlot) bool { return s.Position.IsStarting() })
}

// Bench returns the bench slots in roster order.
func (r Roster) Bench() []RosterSlot {
	return r.filter(func(s RosterSlot) bool { return s.Position == PosBench })
}

// IR returns the injured-reserve slots in roster order.
func (r Roster) IR() []RosterSlot {
	return r.filter(func(s RosterSlot) bool { return s.Position == PosIR })
}

// Players returns every occupant in roster order.
func (r Roster) Players() []*PlayerSnapshot {
	var out []*PlayerSnapshot
	for _, s := range r.Slots {
		if s.Occupant != nil {
			out = append(out, s.Occupant)
		}
	}
	return out
}

func (r Roster) filter(keep func(RosterSlot) bool) []RosterSlot {
	var out []RosterSlot
	for _, s := range r.Slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// TeamInfo is the display identity of the managed team.
type TeamInfo struct {
	Name   string `json:"name"`
	Record string `json:"record"`
}

// Snapshot is everything a cycle reads from the platform, fetched once at cycle start.
type Snapshot struct {
	Team            TeamInfo          `json:"team"`
	Roster          Roster            `json:"roster"`
	FreeAgents      []*PlayerSnapshot `json:"free_agents"`
	ScoringPeriodID int               `json:"scoring_period_id"`
	TakenAt         time.Time         `json:"taken_at"`
}
