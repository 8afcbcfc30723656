package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/collector"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/cycle"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/metrics"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/quota"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/strategy"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/transaction"
)

type stubSubmitter struct {
	calls int
	err   error
}

func (s *stubSubmitter) Submit(context.Context, *transaction.Request) ([]byte, error) {
	s.calls++
	return []byte(`{}`), s.err
}

type historyRecorder struct {
	recorder.NoopRecorder
	recs []recorder.TransactionRecord
}

func (h *historyRecorder) RecordTransaction(r *recorder.TransactionRecord) error {
	h.recs = append([]recorder.TransactionRecord{*r}, h.recs...)
	return nil
}

func (h *historyRecorder) RecentTransactions(limit int) ([]recorder.TransactionRecord, error) {
	if len(h.recs) > limit {
		return h.recs[:limit], nil
	}
	return h.recs, nil
}

func player(id int, name string, rank int, avg float64, week, today int) *model.PlayerSnapshot {
	return &model.PlayerSnapshot{
		ID: id, Name: name, Status: model.StatusActive, Rank: rank,
		AvgPoints: avg, ProjectedAvg: avg, GamesRemaining: week, GamesToday: today,
		EligibleSlots: []model.Position{model.PosPG, model.PosSG, model.PosSF},
	}
}

func fetcher() *collector.MockFetcher {
	return &collector.MockFetcher{
		Period: 80,
		Team:   model.TeamInfo{Name: "Test Team", Record: "5-2"},
		Slots: []model.RosterSlot{
			{Position: model.PosPG, Occupant: player(1, "Star", 3, 50, 3, 1)},
			{Position: model.PosSG, Occupant: player(2, "Starter", 20, 38, 3, 1)},
			{Position: model.PosSF, Occupant: player(3, "Wing", 45, 33, 2, 1)},
			{Position: model.PosBench, Occupant: player(4, "Streamable", 140, 22, 1, 0)},
		},
		FreeAgents: []*model.PlayerSnapshot{player(101, "Full Week", 210, 18, 3, 1)},
	}
}

type testServer struct {
	srv *Server
	sub *stubSubmitter
	rec *historyRecorder
}

func newTestServer(t *testing.T, f collector.Fetcher) *testServer {
	t.Helper()
	params := strategy.StreamParams{
		Guardrails:     model.GuardrailConfig{RankThreshold: 50},
		MinGain:        3,
		WeeklyLimit:    7,
		TierCount:      3,
		LowestTierSize: 3,
	}
	ledger := quota.NewLedger(quota.NewFileStore(filepath.Join(t.TempDir(), "quota.json")), params.WeeklyLimit)
	ts := &testServer{sub: &stubSubmitter{}, rec: &historyRecorder{}}
	o := cycle.New(cycle.Config{LeagueID: 1, TeamID: 2, Year: 2026, Stream: params},
		collector.NewCollector(f, 50), ledger, transaction.NewBuilder(nil, nil), ts.sub, ts.rec, metrics.New())
	ts.srv = NewServer(o, ts.rec, metrics.New())
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, fetcher())
	w, out := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestAnalyzeThenConfirm(t *testing.T) {
	ts := newTestServer(t, fetcher())

	w, out := ts.do(t, http.MethodGet, "/analyze", "")
	require.Equal(t, http.StatusOK, w.Code)
	streaming := out["streaming"].(map[string]any)
	assert.Equal(t, "PROPOSED", streaming["outcome"])
	assert.Zero(t, ts.sub.calls, "analyze never writes")

	w, out = ts.do(t, http.MethodPost, "/execute", `{"confirm":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["executed"])
	assert.Equal(t, 1, ts.sub.calls)

	w, out = ts.do(t, http.MethodGet, "/quota", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, out["used"])
	assert.EqualValues(t, 6, out["remaining"])
}

func TestExecute_ConfirmWithoutAnalyzeRunsCycle(t *testing.T) {
	ts := newTestServer(t, fetcher())
	w, out := ts.do(t, http.MethodPost, "/execute", `{"confirm":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["executed"])
	assert.Equal(t, 1, ts.sub.calls)
}

func TestExecute_GenerateNewAndDecline(t *testing.T) {
	ts := newTestServer(t, fetcher())

	w, out := ts.do(t, http.MethodPost, "/execute", `{"generate_new":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, out["executed"])
	assert.NotNil(t, out["suggestions"])

	w, out = ts.do(t, http.MethodPost, "/execute", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Declined; no changes made."}, out["actions"])

	_, out = ts.do(t, http.MethodPost, "/execute", "")
	assert.Equal(t, []any{}, out["actions"])
	assert.Zero(t, ts.sub.calls)
}

func TestExecute_BadBody(t *testing.T) {
	ts := newTestServer(t, fetcher())
	w, _ := ts.do(t, http.MethodPost, "/execute", `{"confirm":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecute_WriteFailureIsBadGateway(t *testing.T) {
	ts := newTestServer(t, fetcher())
	ts.sub.err = &transaction.WriteError{Kind: transaction.KindFreeAgent, Status: 409, Message: "conflict"}

	w, out := ts.do(t, http.MethodPost, "/execute", `{"confirm":true}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, out["detail"], "conflict")
}

func TestAnalyze_ReadFailure(t *testing.T) {
	f := fetcher()
	f.Err = errors.New("espn down")
	ts := newTestServer(t, f)

	w, out := ts.do(t, http.MethodGet, "/analyze", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, out["detail"], "espn down")
}

func TestLineupEndpoints(t *testing.T) {
	out := player(1, "Hurt Starter", 10, 40, 3, 1)
	out.Status = model.StatusOut
	f := &collector.MockFetcher{
		Period: 80,
		Slots: []model.RosterSlot{
			{Position: model.PosPG, Occupant: out},
			{Position: model.PosBench, Occupant: player(2, "Backup", 90, 20, 3, 1)},
		},
		FreeAgents: []*model.PlayerSnapshot{},
	}
	ts := newTestServer(t, f)

	w, body := ts.do(t, http.MethodGet, "/lineup-status", "")
	require.Equal(t, http.StatusOK, w.Code)
	status := body["status"].(map[string]any)
	assert.Len(t, status["urgent_swaps"], 1)
	assert.Zero(t, ts.sub.calls)

	w, body = ts.do(t, http.MethodPost, "/lineup/execute", `{"include_no_game":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	swaps := body["swaps"].([]any)
	require.Len(t, swaps, 1)
	assert.Equal(t, true, swaps[0].(map[string]any)["executed"])
	assert.Equal(t, 1, ts.sub.calls)
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t, fetcher())
	ts.do(t, http.MethodPost, "/execute", `{"confirm":true}`)

	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var recs []recorder.TransactionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, recorder.StatusExecuted, recs[0].Status)

	bad, _ := ts.do(t, http.MethodGet, "/history?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestMetricsAndCORS(t *testing.T) {
	ts := newTestServer(t, fetcher())

	w, _ := ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodOptions, "/execute", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
