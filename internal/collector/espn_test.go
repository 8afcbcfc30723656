package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

const leagueJSON = `{
  "scoringPeriodId": 45,
  "status": {"currentMatchupPeriod": 7},
  "settings": {
    "scheduleSettings": {"matchupPeriods": {"6": [36, 37], "7": [43, 44, 45, 46, 47]}},
    "rosterSettings": {"lineupSlotCounts": {"0": 1, "9": 3, "12": 1}}
  },
  "teams": [
    {"id": 3, "name": "Someone Else", "roster": {"entries": []}},
    {
      "id": 5, "location": "Hoop", "nickname": "Dreams",
      "record": {"overall": {"wins": 10, "losses": 4, "ties": 0}},
      "roster": {"entries": [
        {"playerId": 1002, "lineupSlotId": 9, "playerPoolEntry": {
          "player": {"id": 1002, "fullName": "Beta Big", "injuryStatus": "INJURY_RESERVE", "proTeamId": 2,
            "eligibleSlots": [4, 6, 12], "draftRanksByRankType": {"STANDARD": {"rank": 88}}}
        }},
        {"playerId": 1001, "lineupSlotId": 0, "playerPoolEntry": {
          "lineupLocked": true,
          "ratings": {"0": {"totalRanking": 15}},
          "player": {"id": 1001, "fullName": "Alpha Guard", "injuryStatus": "ACTIVE", "proTeamId": 1,
            "eligibleSlots": [0, 1, 5, 11, 12],
            "ownership": {"percentOwned": 99.5},
            "stats": [
              {"seasonId": 2026, "statSourceId": 0, "statSplitTypeId": 0, "appliedAverage": 40.5},
              {"seasonId": 2026, "statSourceId": 1, "statSplitTypeId": 0, "appliedAverage": 42.0},
              {"seasonId": 2026, "statSourceId": 0, "statSplitTypeId": 1, "appliedAverage": 99.0},
              {"seasonId": 2025, "statSourceId": 0, "statSplitTypeId": 0, "appliedAverage": 12.0}
            ]}
        }}
      ]}
    }
  ]
}`

const scheduleJSON = `{"settings": {"proTeams": [
  {"id": 1, "proGamesByScoringPeriod": {"44": [{"id": 1}], "45": [{"id": 2}], "47": [{"id": 3}]}},
  {"id": 2, "proGamesByScoringPeriod": {"46": [{"id": 4}]}}
]}}`

const freeAgentsJSON = `{"players": [
  {"player": {"id": 2001, "fullName": "Free One", "injuryStatus": "ACTIVE", "proTeamId": 1, "eligibleSlots": [2]}},
  {"player": {"id": 2002, "fullName": "Free Two", "injuryStatus": "QUESTIONABLE", "proTeamId": 2, "eligibleSlots": [3]}},
  {"player": {"id": 2003, "fullName": "Free Three", "injuryStatus": "ACTIVE", "proTeamId": 2, "eligibleSlots": [4]}},
  {"player": {"id": 2004, "fullName": "Free Four", "injuryStatus": "OUT", "proTeamId": 1, "eligibleSlots": [0],
    "injuryDetails": {"type": "Knee"}, "seasonOutlook": "Out for the season after knee surgery."}}
]}`

type espnServer struct {
	*httptest.Server
	scheduleHits int32
	leagueHits   int32
	filter       atomic.Value
	faPeriod     atomic.Value
	// league overrides the league body per hit, 1-based.
	league func(hit int32) string
}

func newESPNServer(t *testing.T) *espnServer {
	s := &espnServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("espn_s2"); err != nil || c.Value != "s2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/2026":
			atomic.AddInt32(&s.scheduleHits, 1)
			w.Write([]byte(scheduleJSON))
		case r.URL.Path == "/2026/segments/0/leagues/123" && r.URL.Query().Get("view") == "kona_player_info":
			s.filter.Store(r.Header.Get("x-fantasy-filter"))
			s.faPeriod.Store(r.URL.Query().Get("scoringPeriodId"))
			w.Write([]byte(freeAgentsJSON))
		case r.URL.Path == "/2026/segments/0/leagues/123":
			hit := atomic.AddInt32(&s.leagueHits, 1)
			if s.league != nil {
				w.Write([]byte(s.league(hit)))
				return
			}
			w.Write([]byte(leagueJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestFetcher(t *testing.T, baseURL, s2 string) *ESPNFetcher {
	slots, err := model.NewSlotTable(nil)
	require.NoError(t, err)
	f := NewESPNFetcher(123, 5, 2026, "{swid}", s2, slots, "")
	f.BaseURL = baseURL
	f.Limiter = rate.NewLimiter(rate.Inf, 1)
	return f
}

func TestESPNFetcher_FetchRoster(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "s2")

	slots, err := f.FetchRoster(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 3)

	alpha := slots[0]
	assert.Equal(t, model.PosPG, alpha.Position)
	require.NotNil(t, alpha.Occupant)
	assert.Equal(t, "Alpha Guard", alpha.Occupant.Name)
	assert.Equal(t, model.StatusActive, alpha.Occupant.Status)
	assert.Equal(t, 15, alpha.Occupant.Rank)
	assert.InDelta(t, 40.5, alpha.Occupant.AvgPoints, 1e-9)
	assert.InDelta(t, 42.0, alpha.Occupant.ProjectedAvg, 1e-9)
	assert.Equal(t, 1, alpha.Occupant.GamesToday)
	assert.Equal(t, 2, alpha.Occupant.GamesRemaining)
	assert.True(t, alpha.Occupant.Locked)
	assert.Equal(t, []model.Position{model.PosPG, model.PosSG, model.PosG}, alpha.Occupant.EligibleSlots)

	beta := slots[1]
	assert.Equal(t, model.PosBench, beta.Position)
	assert.Equal(t, model.StatusOut, beta.Occupant.Status)
	assert.True(t, beta.Occupant.SeasonEnding())
	assert.Equal(t, 88, beta.Occupant.Rank)
	assert.Equal(t, 0, beta.Occupant.GamesToday)
	assert.Equal(t, 1, beta.Occupant.GamesRemaining)

	assert.Equal(t, model.PosIR, slots[2].Position)
	assert.True(t, slots[2].Empty())
}

func TestESPNFetcher_TeamInfoAndPeriod(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "s2")

	info, err := f.FetchTeamInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.TeamInfo{Name: "Hoop Dreams", Record: "10-4"}, info)

	period, err := f.ScoringPeriod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 45, period)
}

func TestESPNFetcher_FreeAgents(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "s2")

	fas, err := f.FetchFreeAgents(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, fas, 2)
	assert.Equal(t, "Free One", fas[0].Name)
	assert.Equal(t, model.StatusQuestionable, fas[1].Status)
	assert.Equal(t, 1, fas[1].GamesRemaining)

	filter, _ := srv.filter.Load().(string)
	assert.Contains(t, filter, `"limit":2`)
	assert.Contains(t, filter, "FREEAGENT")

	_, err = f.FetchFreeAgents(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&srv.scheduleHits), "pro schedule is cached")
}

func TestESPNFetcher_ReadError(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "expired")

	_, err := f.FetchRoster(context.Background())
	var re *ReadError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "league", re.Op)
	assert.True(t, strings.Contains(err.Error(), "status 401"))
}

func TestESPNFetcher_TeamMissing(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "s2")
	f.TeamID = 99

	_, err := f.FetchTeamInfo(context.Background())
	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), "team 99 not found")
}

func TestESPNFetcher_FreeAgentsNonPositiveLimit(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "s2")

	fas, err := f.FetchFreeAgents(context.Background(), -1)
	require.NoError(t, err)
	assert.Len(t, fas, 4)
	filter, _ := srv.filter.Load().(string)
	assert.Contains(t, filter, `"limit":50`)
}

func TestESPNFetcher_SeasonEndingFromOutlook(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "s2")

	fas, err := f.FetchFreeAgents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, fas, 4)

	four := fas[3]
	assert.Equal(t, model.StatusOut, four.Status)
	assert.Equal(t, "Knee; Out for the season after knee surgery.", four.InjuryNote)
	assert.True(t, four.SeasonEnding())

	assert.Empty(t, fas[1].InjuryNote)
	assert.False(t, fas[1].SeasonEnding())
}

func TestCollect_OneLeagueReadPerSnapshot(t *testing.T) {
	srv := newESPNServer(t)
	srv.league = func(hit int32) string {
		if hit == 1 {
			return leagueJSON
		}
		return strings.Replace(leagueJSON, `"scoringPeriodId": 45`, `"scoringPeriodId": 46`, 1)
	}
	f := newTestFetcher(t, srv.URL, "s2")

	snap, err := NewCollector(f, 50).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&srv.leagueHits))
	assert.Equal(t, 45, snap.ScoringPeriodID)
	assert.Equal(t, "45", srv.faPeriod.Load())
	assert.Equal(t, "Hoop Dreams", snap.Team.Name)

	alpha, ok := snap.Roster.Slot("PG-1")
	require.True(t, ok)
	assert.Equal(t, "Alpha Guard", alpha.Occupant.Name)
	assert.Equal(t, 1, alpha.Occupant.GamesToday, "games counted for period 45")
	assert.Len(t, snap.FreeAgents, 4)
}

func TestCollect_ESPNReadFailure(t *testing.T) {
	srv := newESPNServer(t)
	f := newTestFetcher(t, srv.URL, "expired")

	snap, err := NewCollector(f, 50).Collect(context.Background())
	assert.Nil(t, snap)
	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "league", re.Op)
}
