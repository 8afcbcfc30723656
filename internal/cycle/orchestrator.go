package cycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/collector"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/metrics"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/quota"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/strategy"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/transaction"
)

// Submitter sends a rendered transaction to the platform.
type Submitter interface {
	Submit(ctx context.Context, req *transaction.Request) ([]byte, error)
}

// Config carries the league identity and decision parameters of a cycle.
type Config struct {
	LeagueID int
	TeamID   int
	Year     int
	MemberID string
	Stream   strategy.StreamParams
	Slots    model.SlotTable
	DryRun   bool
}

// Orchestrator runs decision cycles. One cycle completes before the next begins.
type Orchestrator struct {
	cfg       Config
	collector *collector.Collector
	ledger    *quota.Ledger
	builder   *transaction.Builder
	submitter Submitter
	recorder  recorder.Recorder
	metrics   *metrics.Metrics

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// New creates an Orchestrator. A nil recorder records nothing and nil metrics are skipped.
func New(cfg Config, col *collector.Collector, ledger *quota.Ledger, b *transaction.Builder, sub Submitter, rec recorder.Recorder, m *metrics.Metrics) *Orchestrator {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if cfg.Slots == nil {
		cfg.Slots, _ = model.NewSlotTable(nil)
	}
	return &Orchestrator{
		cfg:       cfg,
		collector: col,
		ledger:    ledger,
		builder:   b,
		submitter: sub,
		recorder:  rec,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// DryRun reports whether confirmed executions only render their requests.
func (o *Orchestrator) DryRun() bool { return o.cfg.DryRun }

// Quota summarizes the weekly quota.
func (o *Orchestrator) Quota(ctx context.Context) (quota.View, error) {
	return o.ledger.View(ctx)
}

// Suggestions are the proposals of one cycle, all drawn from a single snapshot.
type Suggestions struct {
	CycleID         string                 `json:"cycle_id"`
	Team            model.TeamInfo         `json:"team"`
	ScoringPeriodID int                    `json:"scoring_period_id"`
	IR              []model.ProposedAction `json:"ir"`
	Lineup          []model.ProposedAction `json:"lineup"`
	Streaming       strategy.StreamResult  `json:"streaming"`
	Quota           quota.View             `json:"quota"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// Lines renders every suggestion for display; it is never parsed back.
func (s *Suggestions) Lines() []string {
	out := s.proposalLines()
	if s.Streaming.Outcome == strategy.OutcomeProposed {
		out = append(out, s.Streaming.Action.Describe())
	} else {
		out = append(out, "Streaming skipped: "+s.Streaming.Reason)
	}
	return out
}

// proposalLines describes the IR and lineup proposals, which are never executed by a cycle.
func (s *Suggestions) proposalLines() []string {
	var out []string
	for _, a := range s.IR {
		out = append(out, a.Describe())
	}
	for _, a := range s.Lineup {
		out = append(out, a.Describe())
	}
	return out
}

// withProposals puts the IR and lineup suggestions ahead of the streaming outcome.
func withProposals(s *Suggestions, res *Result) {
	if res != nil {
		res.Actions = append(s.proposalLines(), res.Actions...)
	}
}

// Result is the outcome of runCycle or of a confirmed session.
type Result struct {
	CycleID  string   `json:"cycle_id"`
	Executed bool     `json:"executed"`
	DryRun   bool     `json:"dry_run,omitempty"`
	Actions  []string `json:"actions"`
}

// GetSuggestions reads one snapshot and runs every analyzer over it.
func (o *Orchestrator) GetSuggestions(ctx context.Context) (*Suggestions, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suggest(ctx)
}

func (o *Orchestrator) suggest(ctx context.Context) (*Suggestions, error) {
	id := o.newID()
	start := time.Now()
	snap, err := o.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("cycle %s: %w", id, err)
	}
	o.metrics.ObserveCollect(start)

	state, err := o.ledger.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cycle %s: %w", id, err)
	}

	s := &Suggestions{
		CycleID:         id,
		Team:            snap.Team,
		ScoringPeriodID: snap.ScoringPeriodID,
		IR:              strategy.AnalyzeIR(snap.Roster),
		Lineup:          strategy.OptimizeLineup(snap.Roster),
		Streaming:       strategy.EvaluateStreaming(snap.Roster, snap.FreeAgents, state, o.cfg.Stream),
		GeneratedAt:     o.now(),
	}
	wk := quota.WeekOf(s.GeneratedAt, s.GeneratedAt.Location())
	s.Quota = quota.View{
		Used:      state.Count,
		Limit:     o.cfg.Stream.WeeklyLimit,
		Remaining: quota.Remaining(state, o.cfg.Stream.WeeklyLimit),
		Week:      fmt.Sprintf("%d-W%02d", wk.Year, wk.Week),
		LastRun:   state.LastRunTimestamp,
	}

	if o.metrics != nil {
		o.metrics.StreamOutcomes.WithLabelValues(string(s.Streaming.Outcome), string(s.Streaming.Code)).Inc()
		o.metrics.QuotaRemaining.Set(float64(s.Quota.Remaining))
	}
	log.Printf("[INFO] cycle %s: %d IR, %d lineup, streaming %s %s",
		id, len(s.IR), len(s.Lineup), s.Streaming.Outcome, s.Streaming.Code)
	return s, nil
}

// RunCycle returns suggestions only when not confirmed; when confirmed it executes
// exactly the streaming action, if any. IR and lineup proposals stay suggestions and
// are listed ahead of the streaming outcome.
func (o *Orchestrator) RunCycle(ctx context.Context, confirmed bool) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.suggest(ctx)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		res := &Result{CycleID: s.CycleID, Actions: s.Lines()}
		o.finish(s, false, res)
		return res, nil
	}
	res, err := o.execute(ctx, s)
	withProposals(s, res)
	o.finish(s, true, res)
	return res, err
}

// Execute runs the streaming decision of previously generated suggestions.
func (o *Orchestrator) Execute(ctx context.Context, s *Suggestions) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, err := o.execute(ctx, s)
	withProposals(s, res)
	o.finish(s, true, res)
	return res, err
}

func (o *Orchestrator) execute(ctx context.Context, s *Suggestions) (*Result, error) {
	res := &Result{CycleID: s.CycleID, DryRun: o.cfg.DryRun}
	if s.Streaming.Outcome != strategy.OutcomeProposed || s.Streaming.Action == nil || s.Streaming.Action.Stream == nil {
		res.Actions = []string{"No streaming move: " + s.Streaming.Reason}
		return res, nil
	}
	st := s.Streaming.Action.Stream

	// The quota is re-read under the cycle lock: a confirmation that waited across
	// another cycle or a week boundary sees the current count.
	state, err := o.ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if quota.Remaining(state, o.cfg.Stream.WeeklyLimit) <= 0 {
		res.Actions = []string{fmt.Sprintf("Streaming blocked: limit reached: %d/%d transactions used this week",
			state.Count, o.cfg.Stream.WeeklyLimit)}
		return res, nil
	}

	tctx := transaction.NewContext(o.cfg.LeagueID, o.cfg.TeamID, o.cfg.Year, s.ScoringPeriodID).
		WithAddDrop(st.AddPlayer.ID, st.DropPlayer.ID)
	rec := &recorder.TransactionRecord{
		CycleID:     s.CycleID,
		Kind:        string(transaction.KindFreeAgent),
		Description: s.Streaming.Action.Describe(),
		PlayerOutID: st.DropPlayer.ID,
		PlayerInID:  st.AddPlayer.ID,
		Gain:        st.Gain(),
		Timestamp:   o.now(),
	}

	req, err := o.builder.Build(transaction.KindFreeAgent, tctx)
	if err != nil {
		o.recordTransaction(rec, recorder.StatusFailed, err)
		return nil, fmt.Errorf("build stream transaction: %w", err)
	}

	if o.cfg.DryRun {
		res.Actions = []string{fmt.Sprintf("WOULD DROP %s FOR %s", st.DropPlayer.Name, st.AddPlayer.Name)}
		o.recordTransaction(rec, recorder.StatusDryRun, nil)
		log.Printf("[INFO] cycle %s: dry run, request to %s not sent", s.CycleID, req.URL)
		return res, nil
	}

	if _, err := o.submitter.Submit(ctx, req); err != nil {
		o.recordTransaction(rec, recorder.StatusFailed, err)
		log.Printf("[ERROR] cycle %s: stream failed: %v", s.CycleID, err)
		return nil, fmt.Errorf("execute stream drop %s add %s: %w", st.DropPlayer.Name, st.AddPlayer.Name, err)
	}
	o.recordTransaction(rec, recorder.StatusExecuted, nil)

	state, err = o.ledger.Commit(ctx)
	if err != nil {
		log.Printf("[ERROR] cycle %s: transaction accepted but quota not saved: %v", s.CycleID, err)
	} else if o.metrics != nil {
		o.metrics.QuotaRemaining.Set(float64(quota.Remaining(state, o.cfg.Stream.WeeklyLimit)))
	}

	res.Executed = true
	res.Actions = []string{fmt.Sprintf("Executed stream: dropped %s (%.1f wk) for %s (%.1f wk)",
		st.DropPlayer.Name, st.DropWeekValue, st.AddPlayer.Name, st.AddWeekValue)}
	log.Printf("[INFO] cycle %s: %s", s.CycleID, res.Actions[0])
	return res, nil
}

func (o *Orchestrator) finish(s *Suggestions, confirmed bool, res *Result) {
	if res != nil && len(res.Actions) == 0 {
		res.Actions = []string{"No actionable items today."}
	}
	if o.metrics != nil {
		o.metrics.CyclesTotal.WithLabelValues(strconv.FormatBool(confirmed)).Inc()
		o.metrics.LastCycle.Set(float64(o.now().Unix()))
	}
	if err := o.recorder.RecordCycle(&recorder.CycleRecord{
		CycleID:       s.CycleID,
		Confirmed:     confirmed,
		DryRun:        o.cfg.DryRun,
		IRCount:       len(s.IR),
		LineupCount:   len(s.Lineup),
		StreamOutcome: string(s.Streaming.Outcome),
		StreamCode:    string(s.Streaming.Code),
		StreamReason:  s.Streaming.Reason,
		QuotaUsed:     s.Quota.Used,
		QuotaLimit:    s.Quota.Limit,
	}); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
}

func (o *Orchestrator) recordTransaction(rec *recorder.TransactionRecord, status recorder.TransactionStatus, cause error) {
	rec.Status = status
	if cause != nil {
		rec.Error = cause.Error()
	}
	if o.metrics != nil {
		o.metrics.TransactionsTotal.WithLabelValues(rec.Kind, string(status)).Inc()
	}
	if err := o.recorder.RecordTransaction(rec); err != nil {
		log.Printf("[ERROR] record transaction: %v", err)
	}
}

// IsWriteFailure reports whether err came from the platform rejecting a write.
func IsWriteFailure(err error) bool {
	var we *transaction.WriteError
	return errors.As(err, &we)
}
