package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

func streamParams() StreamParams {
	return StreamParams{
		Guardrails:     model.GuardrailConfig{RankThreshold: 50, AllowDropIfSeasonEndingInjury: true},
		MinGain:        3.0,
		WeeklyLimit:    7,
		PoolSize:       50,
		TierCount:      3,
		LowestTierSize: 3,
	}
}

func streamRoster() model.Roster {
	return roster(
		slot(model.PosPG, &pl{id: 1, name: "Star", rank: 3, avg: 50, weekGms: 3}),
		slot(model.PosSG, &pl{id: 2, name: "Starter", rank: 20, avg: 38, weekGms: 3}),
		slot(model.PosSF, &pl{id: 3, name: "Wing", rank: 45, avg: 33, weekGms: 2}),
		slot(model.PosBench, &pl{id: 4, name: "Streamable", rank: 140, avg: 22.0, weekGms: 1}),
		slot(model.PosIR, &pl{id: 5, name: "On IR", status: model.StatusOut, rank: 300, avg: 5, weekGms: 0}),
	)
}

func freeAgent(id int, name string, avg float64, games int) *model.PlayerSnapshot {
	return &model.PlayerSnapshot{ID: id, Name: name, Status: model.StatusActive, Rank: 200, AvgPoints: avg, GamesRemaining: games}
}

func TestEvaluateStreaming_SelectsBestWeekValue(t *testing.T) {
	fas := []*model.PlayerSnapshot{
		freeAgent(100, "Thin Week", 20.0, 1),
		freeAgent(101, "Full Week", 18.0, 3),
	}
	res := EvaluateStreaming(streamRoster(), fas, model.QuotaState{}, streamParams())

	require.Equal(t, OutcomeProposed, res.Outcome, res.Reason)
	require.NotNil(t, res.Action)
	s := res.Action.Stream
	assert.Equal(t, model.ActionStream, res.Action.Kind)
	assert.Equal(t, "Streamable", s.DropPlayer.Name)
	assert.Equal(t, "Full Week", s.AddPlayer.Name)
	assert.InDelta(t, 22.0, s.DropWeekValue, 1e-9)
	assert.InDelta(t, 54.0, s.AddWeekValue, 1e-9)
	assert.InDelta(t, 32.0, s.Gain(), 1e-9)
	assert.Equal(t, 7, res.Remaining)
}

func TestEvaluateStreaming_SuppressedBelowMinGain(t *testing.T) {
	fas := []*model.PlayerSnapshot{freeAgent(100, "Marginal", 24.0, 1)}
	res := EvaluateStreaming(streamRoster(), fas, model.QuotaState{}, streamParams())

	assert.Equal(t, OutcomeNone, res.Outcome)
	assert.Equal(t, CodeInsufficientGain, res.Code)
	assert.Nil(t, res.Action)
	assert.Contains(t, res.Reason, "Marginal")
	assert.Contains(t, res.Reason, "Streamable")
	assert.Contains(t, res.Reason, "+2.0")
}

func TestEvaluateStreaming_GainEqualToMinIsProposed(t *testing.T) {
	fas := []*model.PlayerSnapshot{freeAgent(100, "Exact", 25.0, 1)}
	res := EvaluateStreaming(streamRoster(), fas, model.QuotaState{}, streamParams())
	assert.Equal(t, OutcomeProposed, res.Outcome)
}

func TestEvaluateStreaming_BlockedWhenLimitReached(t *testing.T) {
	fas := []*model.PlayerSnapshot{freeAgent(100, "Great", 40.0, 4)}
	res := EvaluateStreaming(streamRoster(), fas, model.QuotaState{Count: 7}, streamParams())

	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Equal(t, CodeLimitReached, res.Code)
	assert.Contains(t, res.Reason, "limit reached")
	assert.Contains(t, res.Reason, "7/7")
}

func TestEvaluateStreaming_QuotaBoundaryAtLimitPlusOne(t *testing.T) {
	fas := []*model.PlayerSnapshot{freeAgent(100, "Great", 40.0, 4)}
	p := streamParams()
	p.WeeklyLimit = 2

	state := model.QuotaState{}
	for i := 0; i < p.WeeklyLimit; i++ {
		res := EvaluateStreaming(streamRoster(), fas, state, p)
		require.Equal(t, OutcomeProposed, res.Outcome, "evaluation %d", i+1)
		state.Count++
	}
	res := EvaluateStreaming(streamRoster(), fas, state, p)
	assert.Equal(t, OutcomeBlocked, res.Outcome)
}

func TestEvaluateStreaming_AllCandidatesProtected(t *testing.T) {
	r := roster(
		slot(model.PosPG, &pl{id: 1, name: "Keeper", rank: 200, avg: 10, weekGms: 1}),
		slot(model.PosSG, &pl{id: 2, name: "Elite", rank: 5, avg: 45, weekGms: 3}),
	)
	p := streamParams()
	p.Guardrails.Untouchables = []string{"Keeper"}

	res := EvaluateStreaming(r, []*model.PlayerSnapshot{freeAgent(100, "FA", 30, 4)}, model.QuotaState{}, p)
	assert.Equal(t, OutcomeNone, res.Outcome)
	assert.Equal(t, CodeProtected, res.Code)
	assert.Contains(t, res.Reason, "protected player")
	assert.Contains(t, res.Reason, "Keeper (untouchable)")
	assert.Contains(t, res.Reason, "Elite (rank protected)")
}

func TestEvaluateStreaming_OnlyLowestTierConsidered(t *testing.T) {
	// Mid-tier player has the worst week value but ranks too high to be streamed.
	r := roster(
		slot(model.PosPG, &pl{id: 1, name: "A", rank: 60, avg: 30, weekGms: 0}),
		slot(model.PosSG, &pl{id: 2, name: "B", rank: 70, avg: 30, weekGms: 3}),
		slot(model.PosSF, &pl{id: 3, name: "C", rank: 80, avg: 30, weekGms: 3}),
		slot(model.PosPF, &pl{id: 4, name: "D", rank: 90, avg: 20, weekGms: 3}),
		slot(model.PosC, &pl{id: 5, name: "E", rank: 100, avg: 20, weekGms: 3}),
		slot(model.PosBench, &pl{id: 6, name: "F", rank: 110, avg: 20, weekGms: 3}),
	)
	p := streamParams()
	p.LowestTierSize = 3
	res := EvaluateStreaming(r, []*model.PlayerSnapshot{freeAgent(100, "FA", 25, 4)}, model.QuotaState{}, p)

	require.Equal(t, OutcomeProposed, res.Outcome)
	assert.Contains(t, []string{"D", "E", "F"}, res.Action.Stream.DropPlayer.Name)
	assert.Equal(t, "D", res.Action.Stream.DropPlayer.Name, "first candidate wins ties")
}

func TestEvaluateStreaming_ZeroGamesIsZeroValue(t *testing.T) {
	fas := []*model.PlayerSnapshot{
		freeAgent(100, "Idle Star", 45.0, 0),
		freeAgent(101, "Role Player", 14.0, 2),
	}
	res := EvaluateStreaming(streamRoster(), fas, model.QuotaState{}, streamParams())
	require.Equal(t, OutcomeProposed, res.Outcome)
	assert.Equal(t, "Role Player", res.Action.Stream.AddPlayer.Name)
}

func TestEvaluateStreaming_PoolSizeAndOutFreeAgents(t *testing.T) {
	fas := []*model.PlayerSnapshot{
		{ID: 100, Name: "Hurt", Status: model.StatusOut, Rank: 90, AvgPoints: 40, GamesRemaining: 3},
		freeAgent(101, "Inside Pool", 15.0, 2),
		freeAgent(102, "Outside Pool", 40.0, 3),
	}
	p := streamParams()
	p.PoolSize = 2
	res := EvaluateStreaming(streamRoster(), fas, model.QuotaState{}, p)
	require.Equal(t, OutcomeProposed, res.Outcome)
	assert.Equal(t, "Inside Pool", res.Action.Stream.AddPlayer.Name)
}

func TestEvaluateStreaming_NoFreeAgents(t *testing.T) {
	res := EvaluateStreaming(streamRoster(), nil, model.QuotaState{}, streamParams())
	assert.Equal(t, OutcomeNone, res.Outcome)
	assert.Equal(t, CodeNoFreeAgents, res.Code)
}
