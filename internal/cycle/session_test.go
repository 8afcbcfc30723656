package cycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/collector"
)

func TestSession_Confirm(t *testing.T) {
	h := newHarness(t, streamingFetcher(), false, nil)
	ctx := context.Background()

	s, err := h.o.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingConfirmation, s.State())
	assert.Equal(t, "cycle-1", s.Suggestions().CycleID)

	require.NoError(t, s.Decide(ctx, DecisionConfirm))
	assert.Equal(t, StateDone, s.State())
	res, err := s.Result()
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.Equal(t, "cycle-1", res.CycleID)
	assert.Len(t, h.sub.reqs, 1)
	assert.Equal(t, 1, h.quotaCount(t))
}

func TestSession_Decline(t *testing.T) {
	h := newHarness(t, streamingFetcher(), false, nil)
	ctx := context.Background()

	s, err := h.o.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Decide(ctx, DecisionDecline))
	assert.Equal(t, StateDone, s.State())
	assert.Empty(t, h.sub.reqs)

	err = s.Decide(ctx, DecisionConfirm)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Empty(t, h.sub.reqs, "a finished session never executes")
}

func TestSession_Regenerate(t *testing.T) {
	h := newHarness(t, streamingFetcher(), false, nil)
	ctx := context.Background()

	s, err := h.o.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Decide(ctx, DecisionRegenerate))
	assert.Equal(t, StateAwaitingConfirmation, s.State())
	assert.Equal(t, "cycle-2", s.Suggestions().CycleID)
	assert.Empty(t, h.sub.reqs)
}

func TestSession_ReadFailureEndsSession(t *testing.T) {
	h := newHarness(t, &collector.MockFetcher{Err: errors.New("timeout")}, false, nil)
	s, err := h.o.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateDone, s.State())
	assert.ErrorIs(t, s.Decide(context.Background(), DecisionConfirm), ErrInvalidTransition)
}

func TestSession_StaleConfirmationRechecksQuota(t *testing.T) {
	h := newHarness(t, streamingFetcher(), false, nil)
	h.o.cfg.Stream.WeeklyLimit = 1
	ctx := context.Background()

	first, err := h.o.Start(ctx)
	require.NoError(t, err)
	second, err := h.o.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, first.Decide(ctx, DecisionConfirm))
	require.NoError(t, second.Decide(ctx, DecisionConfirm))

	res, _ := second.Result()
	assert.False(t, res.Executed)
	assert.Contains(t, res.Actions[0], "limit reached: 1/1")
	assert.Len(t, h.sub.reqs, 1)
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("regenerate")
	require.NoError(t, err)
	assert.Equal(t, DecisionRegenerate, d)

	_, err = ParseDecision("maybe")
	assert.Error(t, err)
}
