package strategy

import "github.com/AbdulsaboorS/fantasybasketballbot/internal/model"

// LineupStatus is the same-day availability report used for pre-game polling.
type LineupStatus struct {
	UrgentSwaps  []model.ProposedAction  `json:"urgent_swaps"`
	NoGameSwaps  []model.ProposedAction  `json:"no_game_swaps"`
	Questionable []*model.PlayerSnapshot `json:"questionable"`
}

// HasAlerts reports whether anything needs attention before tip-off.
func (s LineupStatus) HasAlerts() bool {
	return len(s.UrgentSwaps) > 0 || len(s.NoGameSwaps) > 0 || len(s.Questionable) > 0
}

// CheckLineup flags starters who play today but are OUT or DOUBTFUL and proposes a
// healthy bench replacement, then runs the availability pass over what remains.
// QUESTIONABLE and DAY_TO_DAY starters who play today are listed, not swapped.
func CheckLineup(r model.Roster) LineupStatus {
	working := r.Clone()
	decided := make(map[string]bool)

	var st LineupStatus
	for i, s := range working.Slots {
		p := s.Occupant
		if !s.Position.IsStarting() || p == nil || p.GamesToday < 1 {
			continue
		}
		switch p.Status {
		case model.StatusOut, model.StatusDoubtful:
			b := bestBench(working, s.Position, healthy, byAvailability)
			if b < 0 {
				continue
			}
			st.UrgentSwaps = append(st.UrgentSwaps, swap(&working, b, i, 0))
			decided[s.ID] = true
		case model.StatusQuestionable, model.StatusDayToDay:
			st.Questionable = append(st.Questionable, p)
		}
	}
	st.NoGameSwaps = availabilityPass(&working, decided)
	return st
}

func healthy(p *model.PlayerSnapshot) bool {
	return returnable(p) && p.Status != model.StatusUnknown
}
