// Package report renders service results as Telegram Markdown messages.
package report

import (
	"fmt"
	"strings"

	"github.com/omarshaarawi/leaguedesk/internal/leaguesync"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/service"
)

func freshnessNote(sb *strings.Builder, f service.Freshness) {
	if !f.Degraded {
		return
	}
	fmt.Fprintf(sb, "\n⚠️ _Data may be out of date: %s_\n", f.Reason)
}

func Standings(res service.TeamsResult) string {
	var sb strings.Builder
	sb.WriteString("🏆 *Current Standings*\n\n")
	for _, s := range res.Standings {
		t := s.Team
		fmt.Fprintf(&sb, "%d. *%s*\n", s.Rank, t.Name)
		fmt.Fprintf(&sb, "   Record: %d-%d-%d\n", t.Wins, t.Losses, t.Ties)
		fmt.Fprintf(&sb, "   Points For: %.2f\n", t.PointsFor)
		fmt.Fprintf(&sb, "   Points Against: %.2f\n\n", t.PointsAgainst)
	}
	freshnessNote(&sb, res.Freshness)
	return sb.String()
}

func Matchups(res service.MatchupsResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏈 *Week %d Matchups*\n\n", res.Period)
	if len(res.Matchups) == 0 {
		sb.WriteString("No matchups found for this week.\n")
	}
	for _, m := range res.Matchups {
		if m.IsBye() {
			fmt.Fprintf(&sb, "*%s* is on bye\n\n", m.HomeTeam)
			continue
		}
		fmt.Fprintf(&sb, "*%s* vs *%s*\n", m.HomeTeam, m.AwayTeam)
		fmt.Fprintf(&sb, "Projected: %.2f - %.2f\n", m.HomeProjected, m.AwayProjected)
		if m.HomeScore > 0 || m.AwayScore > 0 {
			fmt.Fprintf(&sb, "Current: %.2f - %.2f", m.HomeScore, m.AwayScore)
			if m.Winner != models.WinnerUndecided {
				sb.WriteString(" (Final)")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	freshnessNote(&sb, res.Freshness)
	return sb.String()
}

var injuryAbbr = map[string]string{
	"QUESTIONABLE": "Q",
	"DOUBTFUL":     "D",
	"OUT":          "O",
}

func rosterLine(sb *strings.Builder, p service.RosterPlayer, period int) {
	injury := ""
	if abbr, ok := injuryAbbr[p.Player.InjuryStatus]; ok {
		injury = fmt.Sprintf(" (%s)", abbr)
	}

	points := fmt.Sprintf("%.2f value", p.Value.Value)
	switch {
	case p.Entry.Slot == models.SlotIR:
		points = "IR"
	case p.Player.ByeWeek == period:
		points = "BYE"
	}
	fmt.Fprintf(sb, "▫️ %s %s%s - %s\n", p.Player.Position, p.Player.FullName, injury, points)
}

func Roster(res service.RosterResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *%s's Roster*\n\n", res.Team.Name)

	sb.WriteString("*Starting Lineup:*\n")
	for _, p := range res.Starters {
		rosterLine(&sb, p, res.Period)
	}
	sb.WriteString("\n*Bench:*\n")
	for _, p := range res.Bench {
		rosterLine(&sb, p, res.Period)
	}
	freshnessNote(&sb, res.Freshness)
	return sb.String()
}

func FinalScores(r models.FinalScoreReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Week %d Final Scores:*\n\n", r.Period)
	if len(r.Games) == 0 {
		sb.WriteString("No games were played this week.\n")
		return sb.String()
	}
	for _, g := range r.Games {
		fmt.Fprintf(&sb, "%s %.2f - %.2f %s\n", g.HomeTeam, g.HomeScore, g.AwayScore, g.AwayTeam)
	}

	sb.WriteString("\n🏆 *Trophies:*\n")
	for _, t := range r.Trophies {
		switch t.Category {
		case service.TrophyHighScore:
			fmt.Fprintf(&sb, "Highest Score: %s (%.2f)\n", t.Team, t.Value)
		case service.TrophyLowScore:
			fmt.Fprintf(&sb, "Lowest Score: %s (%.2f)\n", t.Team, t.Value)
		case service.TrophyBiggestWin:
			fmt.Fprintf(&sb, "Biggest Win: %s (Margin: %.2f)\n", t.Team, t.Value)
		case service.TrophyClosestWin:
			fmt.Fprintf(&sb, "Closest Win: %s (Margin: %.2f)\n", t.Team, t.Value)
		}
	}
	return sb.String()
}

func CloseGames(games []service.CloseGame) string {
	var sb strings.Builder
	sb.WriteString("🏈 *Monday Night Watch List*\n\n")
	if len(games) == 0 {
		sb.WriteString("No close games this week. All outcomes are likely decided.")
		return sb.String()
	}
	for _, g := range games {
		fmt.Fprintf(&sb, "%s %.2f - %.2f %s (Margin: %.2f)\n", g.HomeTeam, g.HomeScore, g.AwayScore, g.AwayTeam, g.Margin)
	}
	return sb.String()
}

func PlayersToMonitor(players []service.InjuredStarter) string {
	var sb strings.Builder
	sb.WriteString("🚑 *Players to Monitor*\n\n")
	if len(players) == 0 {
		sb.WriteString("No players to monitor at this time.")
		return sb.String()
	}
	team := -1
	for _, p := range players {
		if p.TeamID != team {
			if team != -1 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "*%s:*\n", p.TeamName)
			team = p.TeamID
		}
		fmt.Fprintf(&sb, "  • %s %s - %s\n", p.Player.Position, p.Player.FullName, p.Player.InjuryStatus)
	}
	return sb.String()
}

func WhoHas(query string, hits []models.WhoHasResult) string {
	if len(hits) == 0 {
		return fmt.Sprintf("🔍 No player found matching '%s'.", query)
	}
	r := hits[0]

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s* (%s - %s)\n", r.Player.FullName, r.Player.Position, r.Player.ProTeam)
	sb.WriteString("━━━━━━━━━━━━━━━━\n")
	if r.TeamID != 0 {
		fmt.Fprintf(&sb, "*%s*\n", r.TeamName)
	} else {
		sb.WriteString("Free Agent\n")
	}

	points := "TBD"
	if r.Points > 0 {
		points = fmt.Sprintf("%.2f", r.Points)
	}
	fmt.Fprintf(&sb, "\n%s pts", points)
	if r.IsProjected {
		sb.WriteString(" (Projected)")
	}
	fmt.Fprintf(&sb, "\n%0.1f%% Rostered", r.Player.PercentOwned)

	if len(hits) > 1 {
		sb.WriteString("\n\nAlso matched: ")
		names := make([]string, 0, len(hits)-1)
		for _, h := range hits[1:] {
			names = append(names, h.Player.FullName)
		}
		sb.WriteString(strings.Join(names, ", "))
	}
	return sb.String()
}

func Budgets(res service.BudgetsResult) string {
	var sb strings.Builder
	sb.WriteString("💰 *FAAB Budgets*\n\n")
	for _, b := range res.Budgets {
		fmt.Fprintf(&sb, "*%s*: $%s of $%s left", b.TeamName, b.Remaining.StringFixed(0), b.Total.StringFixed(0))
		if b.PendingCount > 0 {
			fmt.Fprintf(&sb, " (%d pending, $%s bid)", b.PendingCount, b.PendingBids.StringFixed(0))
		}
		sb.WriteString("\n")
	}
	freshnessNote(&sb, res.Freshness)
	return sb.String()
}

func Evaluation(ev service.EvaluationResult) string {
	var sb strings.Builder
	sb.WriteString("⚖️ *Trade Evaluation*\n\n")
	if !ev.IsValid {
		sb.WriteString(ev.Summary)
		sb.WriteString("\n")
		return sb.String()
	}
	for _, p := range ev.Players {
		fmt.Fprintf(&sb, "▫️ %s %s (team %d) - %.2f\n", p.Player.Position, p.Player.FullName, p.TeamID, p.Value)
	}
	fmt.Fprintf(&sb, "\nGive: %.2f  Receive: %.2f\n", ev.GiveValue, ev.ReceiveValue)
	fmt.Fprintf(&sb, "Fairness: *%.2f*/100 (difference %+.2f)\n\n", ev.FairnessScore, ev.ValueDifference)
	sb.WriteString(ev.Summary)
	sb.WriteString("\n")
	for _, r := range ev.Recommendations {
		fmt.Fprintf(&sb, "  • %s\n", r)
	}
	freshnessNote(&sb, ev.Freshness)
	return sb.String()
}

func Suggestions(res service.SuggestionsResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💡 *Suggestions for %s (Week %d)*\n\n", res.Team.Name, res.Period)
	if len(res.Suggestions) == 0 {
		sb.WriteString("Nothing to change this week.\n")
	}
	for i, s := range res.Suggestions {
		fmt.Fprintf(&sb, "%d. [%s] *%s* (%.0f%%)\n   %s\n", i+1, s.Priority, s.Title, s.Confidence*100, s.Rationale)
	}
	freshnessNote(&sb, res.Freshness)
	return sb.String()
}

func Proposal(p models.TradeProposal) string {
	return fmt.Sprintf("🤝 Trade `%s`: team %d gives %s for %s from team %d. Fairness %.2f, %s, expires %s",
		p.ID, p.ProposingTeamID, ids(p.Give), ids(p.Receive), p.ReceivingTeamID,
		p.FairnessScore, p.Status, p.ExpiresAt.Format("Jan 2 15:04 MST"))
}

func Trades(proposals []models.TradeProposal) string {
	if len(proposals) == 0 {
		return "No trade proposals."
	}
	var sb strings.Builder
	sb.WriteString("🤝 *Trade Proposals*\n\n")
	for _, p := range proposals {
		sb.WriteString(Proposal(p))
		sb.WriteString("\n")
	}
	return sb.String()
}

func ids(players []int64) string {
	s := make([]string, len(players))
	for i, id := range players {
		s[i] = fmt.Sprint(id)
	}
	return strings.Join(s, ",")
}

func Leagues(leagues []service.LeagueSummary) string {
	if len(leagues) == 0 {
		return "No leagues connected."
	}
	var sb strings.Builder
	sb.WriteString("📚 *Leagues*\n\n")
	for _, l := range leagues {
		synced := "never"
		if !l.League.LastSyncedAt.IsZero() {
			synced = l.League.LastSyncedAt.Format("Jan 2 15:04 MST")
		}
		fmt.Fprintf(&sb, "*%s* (%s, %d) week %d, synced %s, %s\n",
			l.League.Name, l.League.ExternalID, l.League.SeasonYear, l.League.CurrentPeriod, synced, l.Status.State)
		freshnessNote(&sb, l.Freshness)
	}
	return sb.String()
}

func Sync(r leaguesync.SyncResult) string {
	if r.Changes() == 0 {
		return fmt.Sprintf("🔄 Synced week %d. Everything was already up to date.", r.Period)
	}
	return fmt.Sprintf("🔄 Synced week %d: %d teams, %d players, %d roster spots (%d retired), %d matchups, %d transactions updated.",
		r.Period, r.TeamsUpdated, r.PlayersUpdated, r.RostersUpdated, r.RostersRetired, r.MatchupsUpdated, r.TransactionsUpdated)
}
