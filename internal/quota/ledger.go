package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

// Ledger owns the weekly counter across cycles. It reads the store at cycle start
// and writes only after a successful streaming transaction.
type Ledger struct {
	mu    sync.Mutex
	store Store
	limit int
	now   func() time.Time
}

// View is a read-only summary of the weekly quota.
type View struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Week      string    `json:"week"`
	LastRun   time.Time `json:"last_run"`
}

// NewLedger creates a Ledger over store with the given weekly limit.
func NewLedger(store Store, limit int) *Ledger {
	return &Ledger{store: store, limit: limit, now: time.Now}
}

// WithClock replaces the time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Limit() int { return l.limit }

// Begin loads the state and applies the week rollover in memory.
func (l *Ledger) Begin(ctx context.Context) (model.QuotaState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Commit counts one accepted transaction against the current week and saves it.
func (l *Ledger) Commit(ctx context.Context) (model.QuotaState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.load(ctx)
	if err != nil {
		return model.QuotaState{}, err
	}
	state = RecordUse(state, l.now())
	if err := l.store.Save(ctx, state); err != nil {
		return state, fmt.Errorf("save quota state to %s: %w", l.store.Name(), err)
	}
	return state, nil
}

// View summarizes the current week without writing.
func (l *Ledger) View(ctx context.Context) (View, error) {
	state, err := l.Begin(ctx)
	if err != nil {
		return View{}, err
	}
	wk := WeekOf(l.now(), l.now().Location())
	return View{
		Used:      state.Count,
		Limit:     l.limit,
		Remaining: Remaining(state, l.limit),
		Week:      fmt.Sprintf("%d-W%02d", wk.Year, wk.Week),
		LastRun:   state.LastRunTimestamp,
	}, nil
}

func (l *Ledger) load(ctx context.Context) (model.QuotaState, error) {
	state, err := l.store.Load(ctx)
	if err != nil {
		return model.QuotaState{}, fmt.Errorf("load quota state from %s: %w", l.store.Name(), err)
	}
	return ResetIfNewWeek(state, l.now()), nil
}
