package calculator

import "github.com/AbdulsaboorS/fantasybasketballbot/internal/model"

const (
	avgWeight       = 0.7
	projectedWeight = 0.3
)

// WeekValue is the per-game average multiplied by games remaining this scoring week.
// A player with no games left is worth zero regardless of average.
func WeekValue(p *model.PlayerSnapshot) float64 {
	if p == nil || p.GamesRemaining <= 0 {
		return 0
	}
	return p.AvgPoints * float64(p.GamesRemaining)
}

// PointsValue blends season average and projection, 70/30.
func PointsValue(p *model.PlayerSnapshot) float64 {
	if p == nil {
		return 0
	}
	return p.AvgPoints*avgWeight + p.ProjectedAvg*projectedWeight
}
