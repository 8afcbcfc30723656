package strategy

import (
	"fmt"
	"strings"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/calculator"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/guardrail"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/quota"
)

// DefaultPoolSize is how many top free agents are compared.
const DefaultPoolSize = 50

// StreamOutcome is the result class of a streaming evaluation.
type StreamOutcome string

const (
	OutcomeProposed StreamOutcome = "PROPOSED"
	OutcomeNone     StreamOutcome = "NONE"
	OutcomeBlocked  StreamOutcome = "BLOCKED"
)

// StreamCode distinguishes why no stream was proposed.
type StreamCode string

const (
	CodeLimitReached     StreamCode = "LIMIT_REACHED"
	CodeProtected        StreamCode = "PROTECTED"
	CodeNoCandidates     StreamCode = "NO_CANDIDATES"
	CodeNoFreeAgents     StreamCode = "NO_FREE_AGENTS"
	CodeInsufficientGain StreamCode = "INSUFFICIENT_GAIN"
)

// StreamParams configures a streaming evaluation.
type StreamParams struct {
	Guardrails     model.GuardrailConfig
	MinGain        float64
	WeeklyLimit    int
	PoolSize       int
	TierCount      int
	LowestTierSize int
}

// StreamResult carries either a STREAM proposal or a human-readable reason for none.
type StreamResult struct {
	Outcome   StreamOutcome         `json:"outcome"`
	Code      StreamCode            `json:"code,omitempty"`
	Reason    string                `json:"reason"`
	Action    *model.ProposedAction `json:"action,omitempty"`
	Remaining int                   `json:"remaining"`
}

// EvaluateStreaming picks the single drop/add pairing with the largest week-value gain.
//
// The quota is checked first and blocks regardless of roster. Only lowest-tier players
// that pass the guardrails are drop candidates. A pairing is proposed when its gain is
// at least MinGain. The result is a proposal only; nothing is executed here.
func EvaluateStreaming(r model.Roster, freeAgents []*model.PlayerSnapshot, state model.QuotaState, p StreamParams) StreamResult {
	remaining := quota.Remaining(state, p.WeeklyLimit)
	if remaining <= 0 {
		return StreamResult{
			Outcome: OutcomeBlocked,
			Code:    CodeLimitReached,
			Reason:  fmt.Sprintf("limit reached: %d/%d transactions used this week", state.Count, p.WeeklyLimit),
		}
	}

	tiers := AssignTiers(r, p.TierCount, p.LowestTierSize)
	lowest := tiers.Lowest()
	if len(lowest) == 0 {
		return none(CodeNoCandidates, "no unlocked non-IR players to stream out", remaining)
	}

	var candidates []*model.PlayerSnapshot
	var protected []string
	for _, pl := range lowest {
		v := guardrail.Check(pl, p.Guardrails)
		if v.Droppable {
			candidates = append(candidates, pl)
			continue
		}
		protected = append(protected, fmt.Sprintf("%s (%s)", pl.Name, v.Rule))
	}
	if len(candidates) == 0 {
		return none(CodeProtected, "protected player: every lowest-tier player is guarded: "+strings.Join(protected, ", "), remaining)
	}

	pool := freeAgentPool(freeAgents, p.PoolSize)
	if len(pool) == 0 {
		return none(CodeNoFreeAgents, "no available free agents returned", remaining)
	}

	var drop, add *model.PlayerSnapshot
	var dropValue, addValue float64
	for _, c := range candidates {
		cv := calculator.WeekValue(c)
		for _, fa := range pool {
			fv := calculator.WeekValue(fa)
			if drop == nil || fv-cv > addValue-dropValue {
				drop, add, dropValue, addValue = c, fa, cv, fv
			}
		}
	}

	gain := addValue - dropValue
	if gain < p.MinGain {
		return none(CodeInsufficientGain, fmt.Sprintf(
			"best free agent %s (%.1f wk) over %s (%.1f wk) gains %+.1f, below min gain %.1f",
			add.Name, addValue, drop.Name, dropValue, gain, p.MinGain), remaining)
	}

	action := model.NewStream(model.Stream{
		DropPlayer:    drop,
		AddPlayer:     add,
		DropWeekValue: dropValue,
		AddWeekValue:  addValue,
	})
	return StreamResult{
		Outcome:   OutcomeProposed,
		Reason:    action.Describe(),
		Action:    &action,
		Remaining: remaining,
	}
}

// freeAgentPool keeps the first size entries, skipping players ruled OUT.
func freeAgentPool(all []*model.PlayerSnapshot, size int) []*model.PlayerSnapshot {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if len(all) > size {
		all = all[:size]
	}
	pool := make([]*model.PlayerSnapshot, 0, len(all))
	for _, fa := range all {
		if fa == nil || fa.Status == model.StatusOut {
			continue
		}
		pool = append(pool, fa)
	}
	return pool
}

func none(code StreamCode, reason string, remaining int) StreamResult {
	return StreamResult{Outcome: OutcomeNone, Code: code, Reason: reason, Remaining: remaining}
}
