package strategy

import "github.com/AbdulsaboorS/fantasybasketballbot/internal/model"

type pl struct {
	id       int
	name     string
	status   model.HealthStatus
	rank     int
	avg      float64
	proj     float64
	weekGms  int
	todayGms int
	slots    []model.Position
}

func (p pl) snap() *model.PlayerSnapshot {
	status := p.status
	if status == "" {
		status = model.StatusActive
	}
	slots := p.slots
	if slots == nil {
		slots = []model.Position{model.PosPG, model.PosSG, model.PosSF, model.PosPF, model.PosC, model.PosG, model.PosF}
	}
	return &model.PlayerSnapshot{
		ID:             p.id,
		Name:           p.name,
		Status:         status,
		Rank:           p.rank,
		AvgPoints:      p.avg,
		ProjectedAvg:   p.proj,
		GamesRemaining: p.weekGms,
		GamesToday:     p.todayGms,
		EligibleSlots:  slots,
	}
}

func slot(pos model.Position, p *pl) model.RosterSlot {
	s := model.RosterSlot{Position: pos}
	if p != nil {
		s.Occupant = p.snap()
	}
	return s
}

func roster(slots ...model.RosterSlot) model.Roster {
	return model.NewRoster(slots)
}
