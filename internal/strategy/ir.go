package strategy

import "github.com/AbdulsaboorS/fantasybasketballbot/internal/model"

// AnalyzeIR proposes IR moves; it never executes them. Slot legality is left to the platform.
//
// OUT players outside IR are proposed IN while an IR slot is free or holds a player
// who is itself proposed OUT. IR occupants no longer OUT or DOUBTFUL are proposed OUT.
func AnalyzeIR(r model.Roster) []model.ProposedAction {
	var open []model.RosterSlot
	for _, s := range r.IR() {
		if s.Empty() || returnable(s.Occupant) {
			open = append(open, s)
		}
	}

	var actions []model.ProposedAction
	for _, s := range r.Slots {
		if s.Position == model.PosIR || s.Empty() || s.Occupant.Status != model.StatusOut {
			continue
		}
		if len(open) == 0 {
			break
		}
		target := open[0]
		open = open[1:]
		actions = append(actions, model.NewIRMove(model.IRMove{
			Player:    s.Occupant,
			Direction: model.IRIn,
			FromSlot:  s.ID,
			ToSlot:    target.ID,
		}))
	}

	for _, s := range r.IR() {
		if s.Empty() || !returnable(s.Occupant) {
			continue
		}
		actions = append(actions, model.NewIRMove(model.IRMove{
			Player:    s.Occupant,
			Direction: model.IROut,
			FromSlot:  s.ID,
		}))
	}
	return actions
}

func returnable(p *model.PlayerSnapshot) bool {
	return p.Status != model.StatusOut && p.Status != model.StatusDoubtful
}
