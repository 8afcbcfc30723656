package model

import "strings"

// HealthStatus is the platform injury designation of a player.
type HealthStatus string

const (
	StatusActive       HealthStatus = "ACTIVE"
	StatusQuestionable HealthStatus = "QUESTIONABLE"
	StatusDoubtful     HealthStatus = "DOUBTFUL"
	StatusOut          HealthStatus = "OUT"
	StatusDayToDay     HealthStatus = "DAY_TO_DAY"
	StatusUnknown      HealthStatus = ""
)

// seasonEndingFlags mark a long-term absence in either the status or the injury note.
var seasonEndingFlags = []string{"OUT FOR SEASON", "OUT FOR THE SEASON", "SEASON-ENDING", "SEASON ENDING", "INJURY_RESERVE"}

// ParseHealthStatus maps a platform injury string onto a HealthStatus.
// Unrecognized values map to StatusUnknown.
func ParseHealthStatus(raw string) HealthStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ACTIVE", "HEALTHY", "NORMAL":
		return StatusActive
	case "QUESTIONABLE":
		return StatusQuestionable
	case "DOUBTFUL":
		return StatusDoubtful
	case "OUT", "SUSPENSION", "INJURY_RESERVE":
		return StatusOut
	case "DAY_TO_DAY", "DTD":
		return StatusDayToDay
	default:
		return StatusUnknown
	}
}

// PlayerSnapshot is an immutable read of one player taken at cycle start.
type PlayerSnapshot struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Status         HealthStatus `json:"status"`
	InjuryNote     string       `json:"injury_note,omitempty"`
	Rank           int          `json:"rank"` // lower is better, 0 means unknown
	AvgPoints      float64      `json:"avg_points"`
	ProjectedAvg   float64      `json:"projected_avg"`
	GamesRemaining int          `json:"games_remaining"` // this scoring week, today included
	GamesToday     int          `json:"games_today"`
	EligibleSlots  []Position   `json:"eligible_slots,omitempty"`
	Locked         bool         `json:"locked,omitempty"`
	PercentOwned   float64      `json:"percent_owned,omitempty"`
	ProTeamID      int          `json:"pro_team_id,omitempty"`
}

// HasRank reports whether the platform supplied a rank.
func (p *PlayerSnapshot) HasRank() bool {
	return p != nil && p.Rank > 0
}

// SeasonEnding reports whether the player's status or note indicates a season-ending injury.
func (p *PlayerSnapshot) SeasonEnding() bool {
	if p == nil || p.Status != StatusOut {
		return false
	}
	note := strings.ToUpper(p.InjuryNote)
	for _, flag := range seasonEndingFlags {
		if strings.Contains(note, flag) {
			return true
		}
	}
	return false
}

// CanPlay reports whether the player is eligible to fill a lineup slot of the given position.
// UTIL and bench accept anyone.
func (p *PlayerSnapshot) CanPlay(pos Position) bool {
	if p == nil {
		return false
	}
	if pos == PosUTIL || pos == PosBench {
		return true
	}
	for _, s := range p.EligibleSlots {
		if s == pos {
			return true
		}
	}
	return false
}
