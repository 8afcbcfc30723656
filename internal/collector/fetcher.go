package collector

import (
	"context"
	"fmt"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

// Fetcher defines the read surface of the fantasy platform.
type Fetcher interface {
	FetchRoster(ctx context.Context) ([]model.RosterSlot, error)
	FetchFreeAgents(ctx context.Context, limit int) ([]*model.PlayerSnapshot, error)
	FetchTeamInfo(ctx context.Context) (model.TeamInfo, error)
	ScoringPeriod(ctx context.Context) (int, error)
	// FetchAll returns everything a cycle reads, taken from one platform state.
	FetchAll(ctx context.Context, freeAgentLimit int) (*Reads, error)
	Name() string
}

// Reads is the raw result of one FetchAll.
type Reads struct {
	ScoringPeriodID int
	Slots           []model.RosterSlot
	FreeAgents      []*model.PlayerSnapshot
	Team            model.TeamInfo
}

// ReadError wraps a failed platform read. It aborts the cycle.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Op, e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }
