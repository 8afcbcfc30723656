package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/cycle"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/quota"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/strategy"
)

// FormatSuggestions formats a cycle's proposals into a Telegram message.
func FormatSuggestions(s *cycle.Suggestions) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🏀 <b>%s</b>", html.EscapeString(teamName(s.Team))))
	if s.Team.Record != "" {
		b.WriteString(fmt.Sprintf(" (%s)", html.EscapeString(s.Team.Record)))
	}
	b.WriteString(fmt.Sprintf(" | %s\n\n", s.GeneratedAt.Format("2006-01-02")))

	section(&b, "🩹 <b>IR moves:</b>", s.IR)
	section(&b, "🔁 <b>Lineup:</b>", s.Lineup)

	b.WriteString("📈 <b>Streaming:</b>\n")
	if s.Streaming.Outcome == strategy.OutcomeProposed && s.Streaming.Action != nil {
		b.WriteString(fmt.Sprintf("  %s\n", html.EscapeString(s.Streaming.Action.Describe())))
	} else {
		b.WriteString(fmt.Sprintf("  skipped: %s\n", html.EscapeString(s.Streaming.Reason)))
	}
	b.WriteString("\n")
	b.WriteString(FormatQuota(s.Quota))

	if s.Streaming.Outcome == strategy.OutcomeProposed {
		b.WriteString("\nReply /confirm to execute, /decline to skip, /regenerate to refresh.")
	}
	return b.String()
}

func section(b *strings.Builder, title string, actions []model.ProposedAction) {
	b.WriteString(title + "\n")
	if len(actions) == 0 {
		b.WriteString("  none\n\n")
		return
	}
	for _, a := range actions {
		b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(a.Describe())))
	}
	b.WriteString("\n")
}

// FormatResult formats the outcome of an executed or declined cycle.
func FormatResult(r *cycle.Result) string {
	var b strings.Builder
	switch {
	case r.DryRun:
		b.WriteString("🧪 <b>Dry run</b>\n")
	case r.Executed:
		b.WriteString("✅ <b>Executed</b>\n")
	default:
		b.WriteString("ℹ️ <b>No changes</b>\n")
	}
	for _, a := range r.Actions {
		b.WriteString(fmt.Sprintf("  %s\n", html.EscapeString(a)))
	}
	return b.String()
}

// FormatLineupStatus formats a pre-game availability check and any swaps made.
func FormatLineupStatus(r *cycle.LineupReport, outcomes []cycle.SwapOutcome) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏰ <b>Lineup check</b> | period %d\n\n", r.ScoringPeriodID))

	if !r.Status.HasAlerts() {
		b.WriteString("All starters are healthy and playing today ✅\n")
		return b.String()
	}
	if len(r.Status.UrgentSwaps) > 0 {
		section(&b, "🚨 <b>Urgent (starter out or doubtful):</b>", r.Status.UrgentSwaps)
	}
	if len(r.Status.NoGameSwaps) > 0 {
		section(&b, "📅 <b>No game today:</b>", r.Status.NoGameSwaps)
	}
	if len(r.Status.Questionable) > 0 {
		b.WriteString("❓ <b>Questionable starters:</b>\n")
		for _, p := range r.Status.Questionable {
			b.WriteString(fmt.Sprintf("  • %s (%s)\n", html.EscapeString(p.Name), p.Status))
		}
		b.WriteString("\n")
	}
	if len(outcomes) > 0 {
		b.WriteString("🔧 <b>Auto swaps:</b>\n")
		for _, o := range outcomes {
			mark := "❌"
			if o.Executed {
				mark = "✅"
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", mark, html.EscapeString(o.Message)))
		}
	}
	return b.String()
}

// FormatQuota formats the weekly transaction quota.
func FormatQuota(v quota.View) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Quota %s:</b> %d/%d used, %d left\n", v.Week, v.Used, v.Limit, v.Remaining))
	if !v.LastRun.IsZero() {
		b.WriteString(fmt.Sprintf("Last run: %s\n", v.LastRun.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatHistory formats recent transaction attempts, newest first.
func FormatHistory(recs []recorder.TransactionRecord) string {
	if len(recs) == 0 {
		return "No transactions recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent transactions:</b>\n")
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("  %s [%s] %s\n", r.Timestamp.Format("01-02 15:04"), r.Status, html.EscapeString(r.Description)))
	}
	return b.String()
}

func teamName(t model.TeamInfo) string {
	if t.Name == "" {
		return "Fantasy team"
	}
	return t.Name
}
