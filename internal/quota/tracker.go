package quota

import (
	"time"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

// WeekKey identifies an ISO calendar week.
type WeekKey struct {
	Year int
	Week int
}

// WeekOf returns the ISO week of t in loc.
func WeekOf(t time.Time, loc *time.Location) WeekKey {
	y, w := t.In(loc).ISOWeek()
	return WeekKey{Year: y, Week: w}
}

// ResetIfNewWeek zeroes the count when now falls in a different ISO calendar week
// than the last recorded run. A zero LastRunTimestamp always starts a fresh week.
func ResetIfNewWeek(state model.QuotaState, now time.Time) model.QuotaState {
	loc := now.Location()
	if state.LastRunTimestamp.IsZero() || WeekOf(state.LastRunTimestamp, loc) != WeekOf(now, loc) {
		state.Count = 0
		state.LastRunTimestamp = now
	}
	return state
}

// Remaining is the number of transactions still permitted this week, never negative.
func Remaining(state model.QuotaState, limit int) int {
	r := limit - state.Count
	if r < 0 {
		return 0
	}
	return r
}

// RecordUse counts one successful mutation. Call only after the platform accepted it.
func RecordUse(state model.QuotaState, now time.Time) model.QuotaState {
	state.Count++
	state.LastRunTimestamp = now
	return state
}
