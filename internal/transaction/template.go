package transaction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Placeholder is a token name recognized inside a request template, written as {name}.
type Placeholder string

const (
	PhLeagueID        Placeholder = "league_id"
	PhTeamID          Placeholder = "team_id"
	PhYear            Placeholder = "year"
	PhScoringPeriodID Placeholder = "scoring_period_id"
	PhDropPlayerID    Placeholder = "drop_player_id"
	PhAddPlayerID     Placeholder = "add_player_id"
	PhStarterPlayerID Placeholder = "starter_player_id"
	PhReplacementID   Placeholder = "replacement_player_id"
	PhStarterSlotID   Placeholder = "starter_slot_id"
	PhBenchSlotID     Placeholder = "bench_slot_id"
)

// Placeholders is the closed set of tokens a template may reference.
var Placeholders = []Placeholder{
	PhLeagueID, PhTeamID, PhYear, PhScoringPeriodID,
	PhDropPlayerID, PhAddPlayerID,
	PhStarterPlayerID, PhReplacementID, PhStarterSlotID, PhBenchSlotID,
}

var known = func() map[Placeholder]bool {
	m := make(map[Placeholder]bool, len(Placeholders))
	for _, p := range Placeholders {
		m[p] = true
	}
	return m
}()

// tokenPattern matches {identifier}. JSON object braces never match since their
// contents always hold quotes, colons or whitespace.
var tokenPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is an operator-supplied URL and/or body with placeholder tokens.
// Either part may be empty, in which case the built-in default is used for it.
type Template struct {
	URL  string
	Body string
}

// ParseTemplate validates that every {token} in url and body belongs to the closed
// placeholder set. It returns nil when both parts are empty.
func ParseTemplate(url, body string) (*Template, error) {
	if url == "" && body == "" {
		return nil, nil
	}
	for _, part := range []struct{ name, text string }{{"url", url}, {"body", body}} {
		for _, m := range tokenPattern.FindAllStringSubmatch(part.text, -1) {
			if !known[Placeholder(m[1])] {
				return nil, fmt.Errorf("template %s: unknown placeholder {%s}", part.name, m[1])
			}
		}
	}
	return &Template{URL: url, Body: body}, nil
}

// Tokens lists the distinct placeholders referenced by s, sorted by name.
func Tokens(s string) []Placeholder {
	seen := make(map[Placeholder]bool)
	var out []Placeholder
	for _, m := range tokenPattern.FindAllStringSubmatch(s, -1) {
		p := Placeholder(m[1])
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// render substitutes every token in s from ctx. A token without a value in ctx
// yields a ResolutionError.
func render(s string, ctx Context) (string, error) {
	var resErr error
	out := tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		name := Placeholder(tok[1 : len(tok)-1])
		if !known[name] {
			if resErr == nil {
				resErr = &ResolutionError{Placeholder: string(name), Reason: "unknown placeholder"}
			}
			return tok
		}
		v, ok := ctx.Value(name)
		if !ok {
			if resErr == nil {
				resErr = &ResolutionError{Placeholder: string(name), Reason: "no value supplied"}
			}
			return tok
		}
		return strconv.Itoa(v)
	})
	if resErr != nil {
		return "", resErr
	}
	return out, nil
}

// renderBody renders a body template and requires the result to be valid JSON.
func renderBody(body string, ctx Context) ([]byte, error) {
	out, err := render(body, ctx)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(out)) {
		return nil, &ResolutionError{Reason: "rendered body is not valid JSON"}
	}
	return []byte(out), nil
}

// ResolutionError is raised before submission when a template cannot be rendered.
type ResolutionError struct {
	Placeholder string
	Reason      string
}

func (e *ResolutionError) Error() string {
	if e.Placeholder == "" {
		return "template resolution: " + e.Reason
	}
	return fmt.Sprintf("template resolution: {%s}: %s", e.Placeholder, e.Reason)
}
