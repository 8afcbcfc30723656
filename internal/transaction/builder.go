package transaction

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind is the platform transaction type a request renders.
type Kind string

const (
	KindFreeAgent Kind = "FREEAGENT"
	KindLineup    Kind = "LINEUP"
)

const (
	DefaultURL = "https://lm-api-writes.fantasy.espn.com/apis/v3/games/fba/seasons/{year}/segments/0/leagues/{league_id}/transactions/"

	headerPlatform = "x-fantasy-platform"
	headerSource   = "x-fantasy-source"
)

// Context supplies the concrete identities a request is rendered from.
// The zero value supplies nothing.
type Context struct {
	values map[Placeholder]int
	// MemberID is carried into the default lineup body; it is not a template token.
	MemberID string
}

// NewContext starts a context with the league-level identities.
func NewContext(leagueID, teamID, year, scoringPeriodID int) Context {
	return Context{}.with(map[Placeholder]int{
		PhLeagueID:        leagueID,
		PhTeamID:          teamID,
		PhYear:            year,
		PhScoringPeriodID: scoringPeriodID,
	})
}

// WithAddDrop returns a copy carrying the add/drop player identities.
func (c Context) WithAddDrop(addPlayerID, dropPlayerID int) Context {
	return c.with(map[Placeholder]int{PhAddPlayerID: addPlayerID, PhDropPlayerID: dropPlayerID})
}

// WithLineupSwap returns a copy carrying the swap identities. The starter moves to
// the bench slot and the replacement moves into the starter slot.
func (c Context) WithLineupSwap(starterID, replacementID, starterSlot, benchSlot int) Context {
	return c.with(map[Placeholder]int{
		PhStarterPlayerID: starterID,
		PhReplacementID:   replacementID,
		PhStarterSlotID:   starterSlot,
		PhBenchSlotID:     benchSlot,
	})
}

// WithMember returns a copy carrying the member id.
func (c Context) WithMember(memberID string) Context {
	c.values = clone(c.values)
	c.MemberID = memberID
	return c
}

// Value reports the value supplied for p.
func (c Context) Value(p Placeholder) (int, bool) {
	v, ok := c.values[p]
	return v, ok
}

func (c Context) with(kv map[Placeholder]int) Context {
	c.values = clone(c.values)
	for k, v := range kv {
		c.values[k] = v
	}
	return c
}

func clone(m map[Placeholder]int) map[Placeholder]int {
	out := make(map[Placeholder]int, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Request is a fully rendered write, discarded after submission.
type Request struct {
	Kind   Kind
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Builder renders transactions from operator templates, falling back to the
// built-in ESPN schema per kind. It never validates the identities it renders.
type Builder struct {
	templates map[Kind]*Template
}

// NewBuilder takes optional templates per kind; nil entries use the defaults.
func NewBuilder(freeAgent, lineup *Template) *Builder {
	return &Builder{templates: map[Kind]*Template{
		KindFreeAgent: freeAgent,
		KindLineup:    lineup,
	}}
}

// Build renders one request. Any unresolved placeholder fails with a
// ResolutionError before a request value exists.
func (b *Builder) Build(kind Kind, ctx Context) (*Request, error) {
	if kind != KindFreeAgent && kind != KindLineup {
		return nil, fmt.Errorf("build: unsupported transaction kind %q", kind)
	}
	var tmpl Template
	if t := b.templates[kind]; t != nil {
		tmpl = *t
	}

	rawURL := tmpl.URL
	if rawURL == "" {
		rawURL = DefaultURL
	}
	u, err := render(rawURL, ctx)
	if err != nil {
		return nil, err
	}

	var body []byte
	if tmpl.Body != "" {
		body, err = renderBody(tmpl.Body, ctx)
	} else {
		body, err = defaultBody(kind, ctx)
	}
	if err != nil {
		return nil, err
	}

	return &Request{
		Kind:   kind,
		Method: http.MethodPost,
		URL:    u,
		Header: Headers(),
		Body:   body,
	}, nil
}

// Headers returns the platform identification headers every write carries.
func Headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set(headerPlatform, "espn-fantasy-web")
	h.Set(headerSource, "kona")
	return h
}

type transactionBody struct {
	IsLeagueManager bool   `json:"isLeagueManager"`
	TeamID          int    `json:"teamId"`
	Type            string `json:"type"`
	ScoringPeriodID int    `json:"scoringPeriodId"`
	ExecutionType   string `json:"executionType"`
	MemberID        string `json:"memberId,omitempty"`
	Items           any    `json:"items"`
}

type freeAgentItem struct {
	PlayerID   int    `json:"playerId"`
	Type       string `json:"type"`
	FromTeamID int    `json:"fromTeamId"`
	ToTeamID   int    `json:"toTeamId"`
}

type lineupItem struct {
	PlayerID         int    `json:"playerId"`
	Type             string `json:"type"`
	FromLineupSlotID int    `json:"fromLineupSlotId"`
	ToLineupSlotID   int    `json:"toLineupSlotId"`
	FromTeamID       int    `json:"fromTeamId"`
	ToTeamID         int    `json:"toTeamId"`
}

func defaultBody(kind Kind, ctx Context) ([]byte, error) {
	need := []Placeholder{PhTeamID, PhScoringPeriodID}
	if kind == KindFreeAgent {
		need = append(need, PhAddPlayerID, PhDropPlayerID)
	} else {
		need = append(need, PhStarterPlayerID, PhReplacementID, PhStarterSlotID, PhBenchSlotID)
	}
	v := make(map[Placeholder]int, len(need))
	for _, p := range need {
		val, ok := ctx.Value(p)
		if !ok {
			return nil, &ResolutionError{Placeholder: string(p), Reason: "no value supplied"}
		}
		v[p] = val
	}

	body := transactionBody{
		TeamID:          v[PhTeamID],
		ScoringPeriodID: v[PhScoringPeriodID],
		ExecutionType:   "EXECUTE",
	}
	switch kind {
	case KindFreeAgent:
		body.Type = "FREEAGENT"
		body.Items = []freeAgentItem{
			{PlayerID: v[PhAddPlayerID], Type: "ADD", ToTeamID: v[PhTeamID]},
			{PlayerID: v[PhDropPlayerID], Type: "DROP", FromTeamID: v[PhTeamID]},
		}
	case KindLineup:
		body.Type = "ROSTER"
		body.MemberID = ctx.MemberID
		body.Items = []lineupItem{
			{PlayerID: v[PhReplacementID], Type: "LINEUP", FromLineupSlotID: v[PhBenchSlotID], ToLineupSlotID: v[PhStarterSlotID]},
			{PlayerID: v[PhStarterPlayerID], Type: "LINEUP", FromLineupSlotID: v[PhStarterSlotID], ToLineupSlotID: v[PhBenchSlotID]},
		}
	}
	return json.Marshal(body)
}
