package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Slots      []model.RosterSlot
	FreeAgents []*model.PlayerSnapshot
	Team       model.TeamInfo
	Period     int
	Err        error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchRoster(_ context.Context) ([]model.RosterSlot, error) {
	if m.Err != nil {
		return nil, &ReadError{Op: "roster", Err: m.Err}
	}
	if m.Slots != nil {
		return m.Slots, nil
	}
	return generateMockRoster(), nil
}

func (m *MockFetcher) FetchFreeAgents(_ context.Context, limit int) ([]*model.PlayerSnapshot, error) {
	if m.Err != nil {
		return nil, &ReadError{Op: "free agents", Err: m.Err}
	}
	fas := m.FreeAgents
	if fas == nil {
		fas = generateMockFreeAgents()
	}
	if limit > 0 && len(fas) > limit {
		fas = fas[:limit]
	}
	return fas, nil
}

func (m *MockFetcher) FetchTeamInfo(_ context.Context) (model.TeamInfo, error) {
	if m.Err != nil {
		return model.TeamInfo{}, &ReadError{Op: "team info", Err: m.Err}
	}
	if m.Team.Name == "" {
		return model.TeamInfo{Name: "Mock Team", Record: "0-0"}, nil
	}
	return m.Team, nil
}

func (m *MockFetcher) ScoringPeriod(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, &ReadError{Op: "scoring period", Err: m.Err}
	}
	return m.Period, nil
}

// FetchAll reads through the individual methods; the mock state never changes mid-read.
func (m *MockFetcher) FetchAll(ctx context.Context, freeAgentLimit int) (*Reads, error) {
	period, err := m.ScoringPeriod(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := m.FetchRoster(ctx)
	if err != nil {
		return nil, err
	}
	fas, err := m.FetchFreeAgents(ctx, freeAgentLimit)
	if err != nil {
		return nil, err
	}
	team, err := m.FetchTeamInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &Reads{ScoringPeriodID: period, Slots: slots, FreeAgents: fas, Team: team}, nil
}

func mockPlayer(id int, name string, rank int, avg float64, week, today int, pos ...model.Position) *model.PlayerSnapshot {
	return &model.PlayerSnapshot{
		ID:             id,
		Name:           name,
		Status:         model.StatusActive,
		Rank:           rank,
		AvgPoints:      avg,
		ProjectedAvg:   avg,
		GamesRemaining: week,
		GamesToday:     today,
		EligibleSlots:  pos,
	}
}

func generateMockRoster() []model.RosterSlot {
	g := []model.Position{model.PosPG, model.PosSG, model.PosG}
	w := []model.Position{model.PosSF, model.PosPF, model.PosF}
	c := []model.Position{model.PosC}
	return []model.RosterSlot{
		{Position: model.PosPG, Occupant: mockPlayer(1, "Mock Point", 12, 48.5, 3, 1, g...)},
		{Position: model.PosSG, Occupant: mockPlayer(2, "Mock Shooter", 40, 36.0, 3, 0, g...)},
		{Position: model.PosSF, Occupant: mockPlayer(3, "Mock Wing", 75, 28.2, 4, 1, w...)},
		{Position: model.PosPF, Occupant: mockPlayer(4, "Mock Forward", 90, 25.0, 2, 1, w...)},
		{Position: model.PosC, Occupant: mockPlayer(5, "Mock Center", 30, 38.1, 3, 1, c...)},
		{Position: model.PosG},
		{Position: model.PosF, Occupant: mockPlayer(6, "Mock Flex", 110, 22.4, 2, 1, w...)},
		{Position: model.PosUTIL, Occupant: mockPlayer(7, "Mock Util", 130, 20.0, 1, 0, c...)},
		{Position: model.PosBench, Occupant: mockPlayer(8, "Mock Bench Guard", 140, 19.5, 3, 1, g...)},
		{Position: model.PosBench, Occupant: mockPlayer(9, "Mock Bench Big", 160, 17.0, 2, 1, c...)},
		{Position: model.PosIR},
	}
}

func generateMockFreeAgents() []*model.PlayerSnapshot {
	return []*model.PlayerSnapshot{
		mockPlayer(101, "Mock Streamer", 150, 18.0, 4, 1, model.PosSF, model.PosPF),
		mockPlayer(102, "Mock Spot Starter", 170, 21.0, 1, 0, model.PosPG),
		mockPlayer(103, "Mock Rookie", 210, 14.5, 3, 1, model.PosC),
	}
}

// Collector gathers one immutable snapshot per cycle.
type Collector struct {
	Fetcher       Fetcher
	FreeAgentPool int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, freeAgentPool int) *Collector {
	return &Collector{Fetcher: fetcher, FreeAgentPool: freeAgentPool}
}

// Collect reads roster, free agents and team identity through a single FetchAll.
// Any read failure aborts the collection so no partial snapshot is returned.
func (c *Collector) Collect(ctx context.Context) (*model.Snapshot, error) {
	start := time.Now()

	r, err := c.Fetcher.FetchAll(ctx, c.FreeAgentPool)
	if err != nil {
		return nil, fmt.Errorf("collect from %s: %w", c.Fetcher.Name(), err)
	}
	period, fas := r.ScoringPeriodID, r.FreeAgents

	snap := &model.Snapshot{
		Team:            r.Team,
		Roster:          model.NewRoster(r.Slots),
		FreeAgents:      fas,
		ScoringPeriodID: period,
		TakenAt:         time.Now(),
	}
	log.Printf("[INFO] Collected snapshot from %s: %d slots, %d free agents, scoring period %d (%v)",
		c.Fetcher.Name(), len(snap.Roster.Slots), len(fas), period, time.Since(start).Round(time.Millisecond))
	return snap, nil
}
