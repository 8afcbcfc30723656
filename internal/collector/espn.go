package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

const (
	espnReadBase          = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/fba/seasons"
	defaultFreeAgentLimit = 50
)

// ESPNFetcher implements Fetcher against the ESPN fantasy basketball read API.
type ESPNFetcher struct {
	BaseURL  string
	LeagueID int
	TeamID   int
	Year     int
	SWID     string
	ESPNS2   string
	Slots    model.SlotTable
	Client   *http.Client
	Limiter  *rate.Limiter

	mu       sync.Mutex
	schedule map[int]map[int]int // proTeamID -> scoringPeriodID -> games
}

// NewESPNFetcher creates a fetcher with optional proxy support. Reads are paced
// to two per second.
func NewESPNFetcher(leagueID, teamID, year int, swid, espnS2 string, slots model.SlotTable, proxyURL string) *ESPNFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &ESPNFetcher{
		BaseURL:  espnReadBase,
		LeagueID: leagueID,
		TeamID:   teamID,
		Year:     year,
		SWID:     swid,
		ESPNS2:   espnS2,
		Slots:    slots,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

func (f *ESPNFetcher) Name() string { return "espn" }

type espnStat struct {
	SeasonID        int     `json:"seasonId"`
	StatSourceID    int     `json:"statSourceId"`
	StatSplitTypeID int     `json:"statSplitTypeId"`
	AppliedAverage  float64 `json:"appliedAverage"`
}

type espnPlayer struct {
	ID            int        `json:"id"`
	FullName      string     `json:"fullName"`
	InjuryStatus  string     `json:"injuryStatus"`
	ProTeamID     int        `json:"proTeamId"`
	EligibleSlots []int      `json:"eligibleSlots"`
	Stats         []espnStat `json:"stats"`
	SeasonOutlook string     `json:"seasonOutlook"`
	InjuryDetails *struct {
		Type string `json:"type"`
	} `json:"injuryDetails"`
	Ownership     struct {
		PercentOwned float64 `json:"percentOwned"`
	} `json:"ownership"`
	DraftRanksByRankType map[string]struct {
		Rank int `json:"rank"`
	} `json:"draftRanksByRankType"`
}

type espnPoolEntry struct {
	Player       espnPlayer `json:"player"`
	LineupLocked bool       `json:"lineupLocked"`
	Ratings      map[string]struct {
		TotalRanking int `json:"totalRanking"`
	} `json:"ratings"`
}

type espnLeague struct {
	ScoringPeriodID int `json:"scoringPeriodId"`
	Status          struct {
		CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
	} `json:"status"`
	Settings struct {
		ScheduleSettings struct {
			MatchupPeriods map[string][]int `json:"matchupPeriods"`
		} `json:"scheduleSettings"`
		RosterSettings struct {
			LineupSlotCounts map[string]int `json:"lineupSlotCounts"`
		} `json:"rosterSettings"`
	} `json:"settings"`
	Teams []struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Location string `json:"location"`
		Nickname string `json:"nickname"`
		Record   struct {
			Overall struct {
				Wins   int `json:"wins"`
				Losses int `json:"losses"`
				Ties   int `json:"ties"`
			} `json:"overall"`
		} `json:"record"`
		Roster struct {
			Entries []struct {
				PlayerID        int           `json:"playerId"`
				LineupSlotID    int           `json:"lineupSlotId"`
				PlayerPoolEntry espnPoolEntry `json:"playerPoolEntry"`
			} `json:"entries"`
		} `json:"roster"`
	} `json:"teams"`
}

type espnProSchedule struct {
	Settings struct {
		ProTeams []struct {
			ID                      int                          `json:"id"`
			ProGamesByScoringPeriod map[string][]json.RawMessage `json:"proGamesByScoringPeriod"`
		} `json:"proTeams"`
	} `json:"settings"`
}

func (f *ESPNFetcher) leagueURL(views ...string) string {
	q := url.Values{}
	for _, v := range views {
		q.Add("view", v)
	}
	return fmt.Sprintf("%s/%d/segments/0/leagues/%d?%s", f.BaseURL, f.Year, f.LeagueID, q.Encode())
}

func (f *ESPNFetcher) get(ctx context.Context, op, u string, header http.Header, out any) error {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return &ReadError{Op: op, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &ReadError{Op: op, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.AddCookie(&http.Cookie{Name: "SWID", Value: f.SWID})
	req.AddCookie(&http.Cookie{Name: "espn_s2", Value: f.ESPNS2})

	resp, err := f.Client.Do(req)
	if err != nil {
		return &ReadError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ReadError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return &ReadError{Op: op, Err: fmt.Errorf("status %d, body: %.300s", resp.StatusCode, body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ReadError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (f *ESPNFetcher) league(ctx context.Context) (*espnLeague, error) {
	var l espnLeague
	if err := f.get(ctx, "league", f.leagueURL("mRoster", "mTeam", "mSettings"), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// proSchedule loads the season's pro schedule once.
func (f *ESPNFetcher) proSchedule(ctx context.Context) (map[int]map[int]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.schedule != nil {
		return f.schedule, nil
	}
	var s espnProSchedule
	u := fmt.Sprintf("%s/%d?view=proTeamSchedules_wl", f.BaseURL, f.Year)
	if err := f.get(ctx, "pro schedule", u, nil, &s); err != nil {
		return nil, err
	}
	sched := make(map[int]map[int]int, len(s.Settings.ProTeams))
	for _, t := range s.Settings.ProTeams {
		byPeriod := make(map[int]int, len(t.ProGamesByScoringPeriod))
		for k, games := range t.ProGamesByScoringPeriod {
			if sp, err := strconv.Atoi(k); err == nil {
				byPeriod[sp] = len(games)
			}
		}
		sched[t.ID] = byPeriod
	}
	f.schedule = sched
	return sched, nil
}

// weekContext gives the scoring periods remaining in the current matchup, today first.
type weekContext struct {
	today     int
	remaining []int
	schedule  map[int]map[int]int
}

func (f *ESPNFetcher) week(ctx context.Context, l *espnLeague) (weekContext, error) {
	sched, err := f.proSchedule(ctx)
	if err != nil {
		return weekContext{}, err
	}
	wc := weekContext{today: l.ScoringPeriodID, schedule: sched}
	periods := l.Settings.ScheduleSettings.MatchupPeriods[strconv.Itoa(l.Status.CurrentMatchupPeriod)]
	for _, sp := range periods {
		if sp >= wc.today {
			wc.remaining = append(wc.remaining, sp)
		}
	}
	if len(wc.remaining) == 0 {
		wc.remaining = []int{wc.today}
	}
	sort.Ints(wc.remaining)
	return wc, nil
}

func (wc weekContext) games(proTeamID int) (today, remaining int) {
	byPeriod := wc.schedule[proTeamID]
	for _, sp := range wc.remaining {
		remaining += byPeriod[sp]
	}
	return byPeriod[wc.today], remaining
}

func (f *ESPNFetcher) snapshot(e espnPoolEntry, wc weekContext) *model.PlayerSnapshot {
	p := e.Player
	snap := &model.PlayerSnapshot{
		ID:           p.ID,
		Name:         p.FullName,
		Status:       model.ParseHealthStatus(p.InjuryStatus),
		Locked:       e.LineupLocked,
		PercentOwned: p.Ownership.PercentOwned,
		ProTeamID:    p.ProTeamID,
		Rank:         rankOf(e),
	}
	snap.InjuryNote = injuryNote(p, snap.Status)
	for _, s := range p.Stats {
		if s.SeasonID != f.Year || s.StatSplitTypeID != 0 {
			continue
		}
		switch s.StatSourceID {
		case 0:
			snap.AvgPoints = s.AppliedAverage
		case 1:
			snap.ProjectedAvg = s.AppliedAverage
		}
	}
	for _, code := range p.EligibleSlots {
		pos, ok := f.Slots.Position(code)
		if !ok || !pos.IsStarting() || pos == model.PosUTIL {
			continue
		}
		snap.EligibleSlots = append(snap.EligibleSlots, pos)
	}
	snap.GamesToday, snap.GamesRemaining = wc.games(p.ProTeamID)
	return snap
}

// injuryNote collects the injury text that can mark a season-ending absence.
// The outlook is only read for players ruled OUT.
func injuryNote(p espnPlayer, status model.HealthStatus) string {
	var parts []string
	if strings.EqualFold(p.InjuryStatus, "INJURY_RESERVE") {
		parts = append(parts, "INJURY_RESERVE")
	}
	if p.InjuryDetails != nil && p.InjuryDetails.Type != "" {
		parts = append(parts, p.InjuryDetails.Type)
	}
	if status == model.StatusOut && p.SeasonOutlook != "" {
		parts = append(parts, strings.TrimSpace(p.SeasonOutlook))
	}
	return strings.Join(parts, "; ")
}

// rankOf prefers the season rating rank and falls back to the standard draft rank.
func rankOf(e espnPoolEntry) int {
	if r, ok := e.Ratings["0"]; ok && r.TotalRanking > 0 {
		return r.TotalRanking
	}
	if r, ok := e.Player.DraftRanksByRankType["STANDARD"]; ok {
		return r.Rank
	}
	return 0
}

// FetchAll reads the league once and derives every part of the cycle's view from it,
// so the scoring period, games and free agents all refer to the same day.
func (f *ESPNFetcher) FetchAll(ctx context.Context, freeAgentLimit int) (*Reads, error) {
	l, err := f.league(ctx)
	if err != nil {
		return nil, err
	}
	wc, err := f.week(ctx, l)
	if err != nil {
		return nil, err
	}
	slots, err := f.roster(l, wc)
	if err != nil {
		return nil, err
	}
	team, err := f.team(l)
	if err != nil {
		return nil, err
	}
	fas, err := f.freeAgents(ctx, l, wc, freeAgentLimit)
	if err != nil {
		return nil, err
	}
	return &Reads{ScoringPeriodID: l.ScoringPeriodID, Slots: slots, FreeAgents: fas, Team: team}, nil
}

func (f *ESPNFetcher) FetchRoster(ctx context.Context) ([]model.RosterSlot, error) {
	l, err := f.league(ctx)
	if err != nil {
		return nil, err
	}
	wc, err := f.week(ctx, l)
	if err != nil {
		return nil, err
	}
	return f.roster(l, wc)
}

func (f *ESPNFetcher) roster(l *espnLeague, wc weekContext) ([]model.RosterSlot, error) {
	for _, t := range l.Teams {
		if t.ID != f.TeamID {
			continue
		}
		entries := t.Roster.Entries
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].LineupSlotID != entries[j].LineupSlotID {
				return entries[i].LineupSlotID < entries[j].LineupSlotID
			}
			return entries[i].PlayerID < entries[j].PlayerID
		})
		occupied := make(map[model.Position]int)
		slots := make([]model.RosterSlot, 0, len(entries))
		for _, e := range entries {
			pos, ok := f.Slots.Position(e.LineupSlotID)
			if !ok {
				pos = model.PosBench
			}
			occupied[pos]++
			slots = append(slots, model.RosterSlot{Position: pos, Occupant: f.snapshot(e.PlayerPoolEntry, wc)})
		}
		return append(slots, f.emptySlots(l.Settings.RosterSettings.LineupSlotCounts, occupied)...), nil
	}
	return nil, &ReadError{Op: "roster", Err: fmt.Errorf("team %d not found in league %d", f.TeamID, f.LeagueID)}
}

// emptySlots lists the unfilled starting and IR slots the league settings allow.
func (f *ESPNFetcher) emptySlots(counts map[string]int, occupied map[model.Position]int) []model.RosterSlot {
	codes := make([]int, 0, len(counts))
	for k := range counts {
		if c, err := strconv.Atoi(k); err == nil {
			codes = append(codes, c)
		}
	}
	sort.Ints(codes)
	var out []model.RosterSlot
	for _, code := range codes {
		pos, ok := f.Slots.Position(code)
		if !ok || pos == model.PosBench {
			continue
		}
		for n := occupied[pos]; n < counts[strconv.Itoa(code)]; n++ {
			out = append(out, model.RosterSlot{Position: pos})
		}
	}
	return out
}

func (f *ESPNFetcher) FetchTeamInfo(ctx context.Context) (model.TeamInfo, error) {
	l, err := f.league(ctx)
	if err != nil {
		return model.TeamInfo{}, err
	}
	return f.team(l)
}

func (f *ESPNFetcher) team(l *espnLeague) (model.TeamInfo, error) {
	for _, t := range l.Teams {
		if t.ID != f.TeamID {
			continue
		}
		name := t.Name
		if name == "" {
			name = strings.TrimSpace(t.Location + " " + t.Nickname)
		}
		rec := t.Record.Overall
		record := fmt.Sprintf("%d-%d", rec.Wins, rec.Losses)
		if rec.Ties > 0 {
			record += fmt.Sprintf("-%d", rec.Ties)
		}
		return model.TeamInfo{Name: name, Record: record}, nil
	}
	return model.TeamInfo{}, &ReadError{Op: "team info", Err: fmt.Errorf("team %d not found in league %d", f.TeamID, f.LeagueID)}
}

func (f *ESPNFetcher) ScoringPeriod(ctx context.Context) (int, error) {
	l, err := f.league(ctx)
	if err != nil {
		return 0, err
	}
	return l.ScoringPeriodID, nil
}

// freeAgentFilter builds the x-fantasy-filter header: free agents and waivers
// sorted by ownership.
func freeAgentFilter(limit int) string {
	filter := map[string]any{
		"players": map[string]any{
			"filterStatus":   map[string]any{"value": []string{"FREEAGENT", "WAIVERS"}},
			"limit":          limit,
			"sortPercOwned":  map[string]any{"sortPriority": 1, "sortAsc": false},
			"sortDraftRanks": map[string]any{"sortPriority": 100, "sortAsc": true, "value": "STANDARD"},
		},
	}
	b, _ := json.Marshal(filter)
	return string(b)
}

func (f *ESPNFetcher) FetchFreeAgents(ctx context.Context, limit int) ([]*model.PlayerSnapshot, error) {
	l, err := f.league(ctx)
	if err != nil {
		return nil, err
	}
	wc, err := f.week(ctx, l)
	if err != nil {
		return nil, err
	}
	return f.freeAgents(ctx, l, wc, limit)
}

func (f *ESPNFetcher) freeAgents(ctx context.Context, l *espnLeague, wc weekContext, limit int) ([]*model.PlayerSnapshot, error) {
	if limit < 1 {
		limit = defaultFreeAgentLimit
	}
	var resp struct {
		Players []espnPoolEntry `json:"players"`
	}
	u := f.leagueURL("kona_player_info") + "&scoringPeriodId=" + strconv.Itoa(l.ScoringPeriodID)
	h := make(http.Header)
	h.Set("x-fantasy-filter", freeAgentFilter(limit))
	if err := f.get(ctx, "free agents", u, h, &resp); err != nil {
		return nil, err
	}
	out := make([]*model.PlayerSnapshot, 0, len(resp.Players))
	for _, e := range resp.Players {
		out = append(out, f.snapshot(e, wc))
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
