package guardrail

import (
	"strconv"
	"strings"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

// Verdict explains a MayDrop decision.
type Verdict struct {
	Droppable bool
	Rule      string
}

const (
	RuleUntouchable  = "untouchable"
	RuleMissingData  = "missing rank or status"
	RuleRankProtect  = "rank protected"
	RuleSeasonEnding = "season-ending injury override"
	RuleAllowed      = "allowed"
)

// MayDrop reports whether the player may be dropped under cfg.
func MayDrop(p *model.PlayerSnapshot, cfg model.GuardrailConfig) bool {
	return Check(p, cfg).Droppable
}

// Check applies the guardrail rules in order; the first match wins.
// Players without rank or status information are never droppable.
func Check(p *model.PlayerSnapshot, cfg model.GuardrailConfig) Verdict {
	if p == nil {
		return Verdict{Droppable: false, Rule: RuleMissingData}
	}
	if isUntouchable(p, cfg.Untouchables) {
		return Verdict{Droppable: false, Rule: RuleUntouchable}
	}
	if !p.HasRank() || p.Status == model.StatusUnknown {
		return Verdict{Droppable: false, Rule: RuleMissingData}
	}
	if p.Rank < cfg.RankThreshold {
		if cfg.AllowDropIfSeasonEndingInjury && p.SeasonEnding() {
			return Verdict{Droppable: true, Rule: RuleSeasonEnding}
		}
		return Verdict{Droppable: false, Rule: RuleRankProtect}
	}
	return Verdict{Droppable: true, Rule: RuleAllowed}
}

// isUntouchable matches by platform id or by case-insensitive display name.
func isUntouchable(p *model.PlayerSnapshot, untouchables []string) bool {
	id := strconv.Itoa(p.ID)
	name := strings.TrimSpace(p.Name)
	for _, u := range untouchables {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if u == id || strings.EqualFold(u, name) {
			return true
		}
	}
	return false
}
