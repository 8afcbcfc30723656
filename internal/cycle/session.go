package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is a step of the confirmation loop.
type State string

const (
	StateCollecting           State = "COLLECTING"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateExecuting            State = "EXECUTING"
	StateDone                 State = "DONE"
)

// Decision is the caller's answer to a pending set of suggestions.
type Decision string

const (
	DecisionConfirm    Decision = "confirm"
	DecisionDecline    Decision = "decline"
	DecisionRegenerate Decision = "regenerate"
)

// ParseDecision accepts the decision names case-sensitively.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionConfirm, DecisionDecline, DecisionRegenerate:
		return d, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// ErrInvalidTransition is returned when a decision arrives outside AWAITING_CONFIRMATION.
var ErrInvalidTransition = errors.New("session is not awaiting confirmation")

// Session drives one confirm/decline/regenerate loop. A CLI prompt and an API
// request/response can both drive it; it never blocks waiting for input.
type Session struct {
	mu          sync.Mutex
	o           *Orchestrator
	state       State
	suggestions *Suggestions
	result      *Result
	err         error
}

// Start collects suggestions and leaves the session awaiting a decision. A read
// failure ends the session in DONE with the error kept.
func (o *Orchestrator) Start(ctx context.Context) (*Session, error) {
	s := &Session{o: o, state: StateCollecting}
	return s, s.collect(ctx)
}

func (s *Session) collect(ctx context.Context) error {
	sug, err := s.o.GetSuggestions(ctx)
	if err != nil {
		s.state, s.err = StateDone, err
		return err
	}
	s.suggestions = sug
	s.state = StateAwaitingConfirmation
	return nil
}

// Decide applies a decision. Confirm executes the streaming move and ends the
// session, decline ends it without a write, regenerate collects fresh suggestions.
func (s *Session) Decide(ctx context.Context, d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingConfirmation {
		return fmt.Errorf("%s in state %s: %w", d, s.state, ErrInvalidTransition)
	}
	switch d {
	case DecisionConfirm:
		s.state = StateExecuting
		s.result, s.err = s.o.Execute(ctx, s.suggestions)
		s.state = StateDone
		return s.err
	case DecisionDecline:
		s.result = &Result{CycleID: s.suggestions.CycleID, Actions: []string{"Declined; no changes made."}}
		s.state = StateDone
		return nil
	case DecisionRegenerate:
		s.state = StateCollecting
		return s.collect(ctx)
	default:
		return fmt.Errorf("unknown decision %q", d)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Suggestions returns the proposals awaiting a decision, or the last ones shown.
func (s *Session) Suggestions() *Suggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions
}

// Result returns the outcome once the session is DONE.
func (s *Session) Result() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}
