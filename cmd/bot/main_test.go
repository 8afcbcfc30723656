package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/collector"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/cycle"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/quota"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/strategy"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/transaction"
)

type noSubmit struct{ calls int }

func (n *noSubmit) Submit(context.Context, *transaction.Request) ([]byte, error) {
	n.calls++
	return nil, nil
}

func TestInteractive_DeclineAfterBadInput(t *testing.T) {
	sub := &noSubmit{}
	ledger := quota.NewLedger(quota.NewFileStore(filepath.Join(t.TempDir(), "q.json")), 7)
	o := cycle.New(cycle.Config{LeagueID: 1, TeamID: 2, Year: 2026, Stream: strategy.StreamParams{WeeklyLimit: 7}},
		collector.NewCollector(&collector.MockFetcher{Period: 1}, 50), ledger,
		transaction.NewBuilder(nil, nil), sub, nil, nil)

	err := interactive(context.Background(), o, strings.NewReader("maybe\nregenerate\ndecline\n"))
	require.NoError(t, err)
	assert.Zero(t, sub.calls)
}

func TestInteractive_EOFDeclines(t *testing.T) {
	sub := &noSubmit{}
	ledger := quota.NewLedger(quota.NewFileStore(filepath.Join(t.TempDir(), "q.json")), 7)
	o := cycle.New(cycle.Config{Stream: strategy.StreamParams{WeeklyLimit: 7}},
		collector.NewCollector(&collector.MockFetcher{Period: 1}, 50), ledger,
		transaction.NewBuilder(nil, nil), sub, nil, nil)

	require.NoError(t, interactive(context.Background(), o, strings.NewReader("")))
	assert.Zero(t, sub.calls)
}
