package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/cycle"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/quota"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/strategy"
)

var day = time.Date(2026, 1, 13, 18, 0, 0, 0, time.UTC)

func streamAction() *model.ProposedAction {
	a := model.NewStream(model.Stream{
		DropPlayer:    &model.PlayerSnapshot{ID: 1, Name: "Bench Guy"},
		AddPlayer:     &model.PlayerSnapshot{ID: 2, Name: "Hot Pickup"},
		DropWeekValue: 22,
		AddWeekValue:  54,
	})
	return &a
}

func TestFormatSuggestions_Proposed(t *testing.T) {
	s := &cycle.Suggestions{
		Team: model.TeamInfo{Name: "Dunk & Dash", Record: "10-4"},
		IR: []model.ProposedAction{model.NewIRMove(model.IRMove{
			Player:    &model.PlayerSnapshot{Name: "Hurt Star", Status: model.StatusOut},
			Direction: model.IRIn, FromSlot: "BE-1", ToSlot: "IR-1",
		})},
		Streaming:   strategy.StreamResult{Outcome: strategy.OutcomeProposed, Action: streamAction()},
		Quota:       quota.View{Used: 2, Limit: 7, Remaining: 5, Week: "2026-W03"},
		GeneratedAt: day,
	}
	msg := FormatSuggestions(s)

	assert.Contains(t, msg, "<b>Dunk &amp; Dash</b> (10-4) | 2026-01-13")
	assert.Contains(t, msg, "Hurt Star")
	assert.Contains(t, msg, "Lineup:</b>\n  none")
	assert.Contains(t, msg, "Drop Bench Guy (22.0 wk) for Hot Pickup (54.0 wk), gain +32.0")
	assert.Contains(t, msg, "Quota 2026-W03:</b> 2/7 used, 5 left")
	assert.Contains(t, msg, "/confirm")
}

func TestFormatSuggestions_Skipped(t *testing.T) {
	s := &cycle.Suggestions{
		Streaming: strategy.StreamResult{
			Outcome: strategy.OutcomeBlocked,
			Reason:  "limit reached: 7/7 transactions used this week",
		},
		Quota:       quota.View{Used: 7, Limit: 7, Week: "2026-W03"},
		GeneratedAt: day,
	}
	msg := FormatSuggestions(s)

	assert.Contains(t, msg, "Fantasy team")
	assert.Contains(t, msg, "skipped: limit reached: 7/7 transactions used this week")
	assert.NotContains(t, msg, "/confirm")
}

func TestFormatResult(t *testing.T) {
	assert.Contains(t, FormatResult(&cycle.Result{Executed: true, Actions: []string{"Executed stream"}}), "✅ <b>Executed</b>\n  Executed stream")
	assert.Contains(t, FormatResult(&cycle.Result{Executed: true, DryRun: true, Actions: []string{"WOULD DROP A FOR B"}}), "Dry run")
	assert.Contains(t, FormatResult(&cycle.Result{Actions: []string{"Declined; no changes made."}}), "No changes")
}

func TestFormatLineupStatus(t *testing.T) {
	quiet := &cycle.LineupReport{ScoringPeriodID: 84}
	assert.Contains(t, FormatLineupStatus(quiet, nil), "All starters are healthy")

	swap := model.NewLineupSwap(model.LineupSwap{
		FromSlot: "BE-1", ToSlot: "PG-1",
		PlayerIn:  &model.PlayerSnapshot{Name: "Backup One"},
		PlayerOut: &model.PlayerSnapshot{Name: "Starter Out"},
	})
	report := &cycle.LineupReport{
		ScoringPeriodID: 84,
		Status: strategy.LineupStatus{
			UrgentSwaps:  []model.ProposedAction{swap},
			Questionable: []*model.PlayerSnapshot{{Name: "Maybe Man", Status: model.StatusQuestionable}},
		},
	}
	msg := FormatLineupStatus(report, []cycle.SwapOutcome{{Swap: swap, Executed: false, Message: "swap failed"}})

	assert.Contains(t, msg, "period 84")
	assert.Contains(t, msg, "Urgent")
	assert.Contains(t, msg, "Start Backup One over Starter Out at PG-1")
	assert.Contains(t, msg, "Maybe Man (QUESTIONABLE)")
	assert.Contains(t, msg, "❌ swap failed")
	assert.NotContains(t, msg, "No game today")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No transactions recorded yet.", FormatHistory(nil))
	msg := FormatHistory([]recorder.TransactionRecord{{
		Description: "Drop A for B", Status: recorder.StatusExecuted, Timestamp: day,
	}})
	assert.Contains(t, msg, "01-13 18:00 [EXECUTED] Drop A for B")
}
