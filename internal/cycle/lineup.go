package cycle

import (
	"context"
	"fmt"
	"log"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/strategy"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/transaction"
)

// LineupReport is a same-day availability check taken from its own snapshot.
type LineupReport struct {
	CycleID         string                `json:"cycle_id"`
	ScoringPeriodID int                   `json:"scoring_period_id"`
	Status          strategy.LineupStatus `json:"status"`

	roster model.Roster
}

// SwapOutcome is the result of submitting one lineup swap.
type SwapOutcome struct {
	Swap     model.ProposedAction `json:"swap"`
	Executed bool                 `json:"executed"`
	Message  string               `json:"message"`
}

// CheckLineupStatus reads a fresh snapshot and reports urgent swaps, no-game swaps
// and questionable starters. It writes nothing to the platform.
func (o *Orchestrator) CheckLineupStatus(ctx context.Context) (*LineupReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.checkLineup(ctx)
}

func (o *Orchestrator) checkLineup(ctx context.Context) (*LineupReport, error) {
	id := o.newID()
	snap, err := o.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("lineup check %s: %w", id, err)
	}
	st := strategy.CheckLineup(snap.Roster)
	if o.metrics != nil {
		o.metrics.LineupAlerts.WithLabelValues("urgent").Add(float64(len(st.UrgentSwaps)))
		o.metrics.LineupAlerts.WithLabelValues("no_game").Add(float64(len(st.NoGameSwaps)))
		o.metrics.LineupAlerts.WithLabelValues("questionable").Add(float64(len(st.Questionable)))
	}
	return &LineupReport{CycleID: id, ScoringPeriodID: snap.ScoringPeriodID, Status: st, roster: snap.Roster}, nil
}

// ExecuteLineupSwaps checks the lineup and submits its urgent swaps, plus the
// no-game swaps when includeNoGame is set. Swaps never consume the weekly quota.
// Each swap is submitted independently; a failure is reported and the rest proceed.
func (o *Orchestrator) ExecuteLineupSwaps(ctx context.Context, includeNoGame bool) (*LineupReport, []SwapOutcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	report, err := o.checkLineup(ctx)
	if err != nil {
		return nil, nil, err
	}
	swaps := append([]model.ProposedAction(nil), report.Status.UrgentSwaps...)
	if includeNoGame {
		swaps = append(swaps, report.Status.NoGameSwaps...)
	}

	outcomes := make([]SwapOutcome, 0, len(swaps))
	for _, a := range swaps {
		outcomes = append(outcomes, o.submitSwap(ctx, report, a))
	}
	o.recordLineupCheck(report, outcomes)
	return report, outcomes, nil
}

// RecordLineupCheck stores a check that executed nothing.
func (o *Orchestrator) RecordLineupCheck(report *LineupReport) {
	o.recordLineupCheck(report, nil)
}

func (o *Orchestrator) recordLineupCheck(report *LineupReport, outcomes []SwapOutcome) {
	swapped := 0
	for _, out := range outcomes {
		if out.Executed {
			swapped++
		}
	}
	if err := o.recorder.RecordLineupCheck(&recorder.LineupCheckRecord{
		CycleID:      report.CycleID,
		Urgent:       len(report.Status.UrgentSwaps),
		NoGame:       len(report.Status.NoGameSwaps),
		Questionable: len(report.Status.Questionable),
		AutoSwapped:  swapped,
	}); err != nil {
		log.Printf("[ERROR] record lineup check: %v", err)
	}
}

func (o *Orchestrator) submitSwap(ctx context.Context, report *LineupReport, a model.ProposedAction) SwapOutcome {
	sw := a.LineupSwap
	out := SwapOutcome{Swap: a}
	starterSlot, ok := report.roster.Slot(sw.ToSlot)
	if !ok {
		out.Message = fmt.Sprintf("slot %s not on roster", sw.ToSlot)
		return out
	}
	benchSlot, ok := report.roster.Slot(sw.FromSlot)
	if !ok {
		out.Message = fmt.Sprintf("slot %s not on roster", sw.FromSlot)
		return out
	}

	rec := &recorder.TransactionRecord{
		CycleID:     report.CycleID,
		Kind:        string(transaction.KindLineup),
		Description: a.Describe(),
		PlayerInID:  sw.PlayerIn.ID,
		Timestamp:   o.now(),
	}
	starterID := 0
	if sw.PlayerOut != nil {
		starterID = sw.PlayerOut.ID
		rec.PlayerOutID = starterID
	}

	tctx := transaction.NewContext(o.cfg.LeagueID, o.cfg.TeamID, o.cfg.Year, report.ScoringPeriodID).
		WithLineupSwap(starterID, sw.PlayerIn.ID, o.cfg.Slots.Code(starterSlot.Position), o.cfg.Slots.Code(benchSlot.Position)).
		WithMember(o.cfg.MemberID)
	req, err := o.builder.Build(transaction.KindLineup, tctx)
	if err != nil {
		o.recordTransaction(rec, recorder.StatusFailed, err)
		out.Message = err.Error()
		return out
	}

	if o.cfg.DryRun {
		o.recordTransaction(rec, recorder.StatusDryRun, nil)
		out.Message = "Dry run: " + a.Describe()
		return out
	}
	if _, err := o.submitter.Submit(ctx, req); err != nil {
		o.recordTransaction(rec, recorder.StatusFailed, err)
		log.Printf("[ERROR] lineup swap %s -> %s failed: %v", sw.FromSlot, sw.ToSlot, err)
		out.Message = err.Error()
		return out
	}
	o.recordTransaction(rec, recorder.StatusExecuted, nil)
	out.Executed = true
	out.Message = a.Describe()
	return out
}
