package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/cycle"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/notifier"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
)

const helpText = "Available commands:\n" +
	"• /suggest: collect fresh suggestions\n" +
	"• /confirm: execute the pending streaming move\n" +
	"• /decline: discard the pending suggestions\n" +
	"• /regenerate: collect the suggestions again\n" +
	"• /lineup: check today's starters\n" +
	"• /swap: apply urgent lineup swaps\n" +
	"• /quota: weekly transaction quota\n" +
	"• /history: recent transactions"

// Scheduler manages the cron tasks and the Telegram confirmation session.
type Scheduler struct {
	Cron         *cron.Cron
	Orchestrator *cycle.Orchestrator
	Notifier     notifier.Notifier
	Recorder     recorder.Recorder
	AutoSwap     bool
	Ctx          context.Context

	mu      sync.Mutex
	session *cycle.Session
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, o *cycle.Orchestrator, n notifier.Notifier, rec recorder.Recorder, autoSwap bool) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Orchestrator: o,
		Notifier:     n,
		Recorder:     rec,
		AutoSwap:     autoSwap,
		Ctx:          ctx,
	}
}

// RegisterAll registers the daily cycle and the pre-game lineup check.
func (s *Scheduler) RegisterAll(cycleCron, lineupCron string) error {
	if _, err := s.Cron.AddFunc(cycleCron, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle task: %w", err)
	}
	if _, err := s.Cron.AddFunc(lineupCron, s.lineupTask); err != nil {
		return fmt.Errorf("register lineup check: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunCycleNow collects suggestions immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunCycleNow() {
	s.cycleTask()
}

func (s *Scheduler) cycleTask() {
	log.Println("[INFO] running cycle task")
	s.trySend(s.suggest(s.Ctx))
}

// suggest replaces any pending session with a fresh one. An unanswered session
// is abandoned without a write.
func (s *Scheduler) suggest(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.Orchestrator.Start(ctx)
	if err != nil {
		log.Printf("[ERROR] cycle collect: %v", err)
		s.session = nil
		return failure("Cycle failed", err)
	}
	s.session = sess
	return notifier.FormatSuggestions(sess.Suggestions())
}

func (s *Scheduler) lineupTask() {
	log.Println("[INFO] running lineup check")
	report, outcomes, err := s.checkLineup(s.Ctx, s.AutoSwap)
	if err != nil {
		log.Printf("[ERROR] lineup check: %v", err)
		s.trySend(failure("Lineup check failed", err))
		return
	}
	if !report.Status.HasAlerts() {
		log.Println("[INFO] lineup check: no alerts")
		return
	}
	s.trySend(notifier.FormatLineupStatus(report, outcomes))
}

func (s *Scheduler) checkLineup(ctx context.Context, swap bool) (*cycle.LineupReport, []cycle.SwapOutcome, error) {
	if swap {
		return s.Orchestrator.ExecuteLineupSwaps(ctx, false)
	}
	report, err := s.Orchestrator.CheckLineupStatus(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.Orchestrator.RecordLineupCheck(report)
	return report, nil, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd := strings.ToLower(strings.TrimSpace(command))
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i] // "/quota@SomeBot" in group chats
	}
	switch cmd {
	case "/suggest":
		return s.suggest(ctx)
	case "/confirm":
		return s.decide(ctx, cycle.DecisionConfirm)
	case "/decline":
		return s.decide(ctx, cycle.DecisionDecline)
	case "/regenerate":
		return s.decide(ctx, cycle.DecisionRegenerate)
	case "/lineup", "/swap":
		report, outcomes, err := s.checkLineup(ctx, cmd == "/swap")
		if err != nil {
			return failure("Lineup check failed", err)
		}
		return notifier.FormatLineupStatus(report, outcomes)
	case "/quota":
		v, err := s.Orchestrator.Quota(ctx)
		if err != nil {
			return failure("Quota unavailable", err)
		}
		return notifier.FormatQuota(v)
	case "/history":
		recs, err := s.Recorder.RecentTransactions(10)
		if err != nil {
			return failure("History unavailable", err)
		}
		return notifier.FormatHistory(recs)
	default:
		return helpText
	}
}

func (s *Scheduler) decide(ctx context.Context, d cycle.Decision) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return "No pending suggestions. Send /suggest first."
	}
	err := s.session.Decide(ctx, d)
	if errors.Is(err, cycle.ErrInvalidTransition) {
		return "No pending suggestions. Send /suggest first."
	}
	if d == cycle.DecisionRegenerate {
		if err != nil {
			s.session = nil
			return failure("Cycle failed", err)
		}
		return notifier.FormatSuggestions(s.session.Suggestions())
	}

	res, _ := s.session.Result()
	s.session = nil
	if err != nil {
		msg := failure("Execution failed", err)
		if cycle.IsWriteFailure(err) {
			msg += "\nThe platform rejected the write; no quota was used."
		}
		return msg
	}
	return notifier.FormatResult(res)
}

// failure formats an error for an HTML-mode message. Read errors can carry an
// HTML response body.
func failure(what string, err error) string {
	return fmt.Sprintf("❌ %s: %s", what, html.EscapeString(err.Error()))
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
