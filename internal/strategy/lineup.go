package strategy

import "github.com/AbdulsaboorS/fantasybasketballbot/internal/model"

// OptimizeLineup proposes starter/bench swaps for the snapshot's scoring day.
//
// Pass 1 fills starting slots whose occupant has no game today with the bench player
// of highest projected average who plays today. Pass 2 runs on the roster with pass-1
// swaps applied and replaces a starter with any eligible bench player averaging more.
// A slot decided in pass 1 is not revisited in pass 2. Bench players are eligible for
// a slot when their position set covers it, they have a game today and they are not OUT.
func OptimizeLineup(r model.Roster) []model.ProposedAction {
	working := r.Clone()
	decided := make(map[string]bool)
	actions := availabilityPass(&working, decided)
	return append(actions, valuePass(&working, decided)...)
}

func availabilityPass(working *model.Roster, decided map[string]bool) []model.ProposedAction {
	var actions []model.ProposedAction
	for i, s := range working.Slots {
		if !s.Position.IsStarting() || decided[s.ID] || (s.Occupant != nil && s.Occupant.GamesToday > 0) {
			continue
		}
		b := bestBench(*working, s.Position, nil, byAvailability)
		if b < 0 {
			continue
		}
		actions = append(actions, swap(working, b, i, 1))
		decided[s.ID] = true
	}
	return actions
}

func valuePass(working *model.Roster, decided map[string]bool) []model.ProposedAction {
	var actions []model.ProposedAction
	for i, s := range working.Slots {
		if !s.Position.IsStarting() || decided[s.ID] || s.Occupant == nil {
			continue
		}
		starter := s.Occupant
		b := bestBench(*working, s.Position, func(p *model.PlayerSnapshot) bool {
			return p.AvgPoints > starter.AvgPoints
		}, byValue)
		if b < 0 {
			continue
		}
		actions = append(actions, swap(working, b, i, 2))
		decided[s.ID] = true
	}
	return actions
}

// swap records the move of bench slot b into starting slot s and applies it to working.
func swap(working *model.Roster, b, s, pass int) model.ProposedAction {
	bench, start := working.Slots[b], working.Slots[s]
	action := model.NewLineupSwap(model.LineupSwap{
		FromSlot:  bench.ID,
		ToSlot:    start.ID,
		PlayerIn:  bench.Occupant,
		PlayerOut: start.Occupant,
		Pass:      pass,
	})
	working.Slots[s].Occupant = bench.Occupant
	working.Slots[b].Occupant = start.Occupant
	return action
}

// bestBench returns the index in r.Slots of the best eligible bench occupant, or -1.
func bestBench(r model.Roster, pos model.Position, accept func(*model.PlayerSnapshot) bool, better func(a, b *model.PlayerSnapshot) bool) int {
	best := -1
	for i, s := range r.Slots {
		p := s.Occupant
		if s.Position != model.PosBench || p == nil || p.GamesToday < 1 || p.Status == model.StatusOut || !p.CanPlay(pos) {
			continue
		}
		if accept != nil && !accept(p) {
			continue
		}
		if best < 0 || better(p, r.Slots[best].Occupant) {
			best = i
		}
	}
	return best
}

// byAvailability orders by projected average, then average, then rank.
func byAvailability(a, b *model.PlayerSnapshot) bool {
	if a.ProjectedAvg != b.ProjectedAvg {
		return a.ProjectedAvg > b.ProjectedAvg
	}
	if a.AvgPoints != b.AvgPoints {
		return a.AvgPoints > b.AvgPoints
	}
	return betterRank(a, b)
}

// byValue orders by average, then projected average, then rank.
func byValue(a, b *model.PlayerSnapshot) bool {
	if a.AvgPoints != b.AvgPoints {
		return a.AvgPoints > b.AvgPoints
	}
	if a.ProjectedAvg != b.ProjectedAvg {
		return a.ProjectedAvg > b.ProjectedAvg
	}
	return betterRank(a, b)
}

// betterRank treats a missing rank as worse than any known rank.
func betterRank(a, b *model.PlayerSnapshot) bool {
	switch {
	case a.HasRank() && !b.HasRank():
		return true
	case !a.HasRank():
		return false
	default:
		return a.Rank < b.Rank
	}
}
