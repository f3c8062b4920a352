// Package fantasy turns provider payloads into domain records. Every
// function here is total: codes it does not recognise map to an explicit
// unknown value and are reported as anomalies for the caller to log.
package fantasy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/api/espn"
	"github.com/omarshaarawi/leaguedesk/internal/models"
)

// Anomaly describes an upstream value that could not be mapped.
type Anomaly struct {
	Entity   string
	EntityID string
	Field    string
	Raw      string
	Count    int
}

func (a Anomaly) String() string {
	if a.Count > 1 {
		return fmt.Sprintf("%s %s: unmapped %s %q (x%d)", a.Entity, a.EntityID, a.Field, a.Raw, a.Count)
	}
	return fmt.Sprintf("%s %s: unmapped %s %q", a.Entity, a.EntityID, a.Field, a.Raw)
}

func anomaly(entity string, id any, field string, raw any) Anomaly {
	return Anomaly{Entity: entity, EntityID: fmt.Sprint(id), Field: field, Raw: fmt.Sprint(raw), Count: 1}
}

func MapPosition(code int) models.Position {
	if p, ok := positionCodes[code]; ok {
		return p
	}
	return models.PositionUnknown
}

func MapLineupSlot(code int) models.LineupSlot {
	if s, ok := slotCodes[code]; ok {
		return s
	}
	return models.SlotUnknown
}

// MapStat names a stat code. ok is false for codes outside the table; the
// returned stat still carries the raw code and value.
func MapStat(code int, value float64) (models.NamedStat, bool) {
	cat, ok := statCodes[code]
	if !ok {
		cat = models.StatUnknown
	}
	return models.NamedStat{Code: code, Category: cat, Value: value}, ok
}

// ProTeamAbbrev returns the abbreviation for a pro team id.
func ProTeamAbbrev(id int) (string, bool) {
	if id == 0 {
		return FreeAgentProTeam, true
	}
	abbr, ok := proTeams[id]
	return abbr, ok
}

// TeamDisplayName prefers the custom name, then location and nickname, then
// the abbreviation, then the id.
func TeamDisplayName(raw espn.Team) string {
	name := strings.TrimSpace(raw.Name)
	location := strings.TrimSpace(raw.Location)
	nickname := strings.TrimSpace(raw.Nickname)
	abbrev := strings.TrimSpace(raw.Abbreviation)

	switch {
	case name != "":
		return name
	case location != "" && nickname != "":
		return location + " " + nickname
	case location != "":
		return location
	case nickname != "":
		return nickname
	case abbrev != "":
		return "Team " + abbrev
	}
	return fmt.Sprintf("Team %d", raw.ID)
}

func MapTeam(raw espn.Team, leagueID string) models.Team {
	return models.Team{
		LeagueID:      leagueID,
		ExternalID:    raw.ID,
		Name:          TeamDisplayName(raw),
		Abbreviation:  strings.TrimSpace(raw.Abbreviation),
		Wins:          raw.Record.Overall.Wins,
		Losses:        raw.Record.Overall.Losses,
		Ties:          raw.Record.Overall.Ties,
		PointsFor:     round2(raw.Record.Overall.PointsFor),
		PointsAgainst: round2(raw.Record.Overall.PointsAgainst),
		PlayoffSeed:   raw.PlayoffSeed,
	}
}

// MapPlayer converts a provider player. byes maps pro team id to bye week.
func MapPlayer(raw espn.Player, byes map[int]int) (models.Player, []Anomaly) {
	var anomalies []Anomaly

	pos := MapPosition(raw.DefaultPositionID)
	if pos == models.PositionUnknown {
		anomalies = append(anomalies, anomaly("player", raw.ID, "position", raw.DefaultPositionID))
	}

	proTeam, ok := ProTeamAbbrev(raw.ProTeamID)
	if !ok {
		proTeam = FreeAgentProTeam
		anomalies = append(anomalies, anomaly("player", raw.ID, "pro_team", raw.ProTeamID))
	}

	injury := raw.InjuryStatus
	if injury == "" {
		injury = "ACTIVE"
	}

	p := models.Player{
		ID:           int64(raw.ID),
		FullName:     strings.TrimSpace(raw.FullName),
		Position:     pos,
		PositionCode: raw.DefaultPositionID,
		ProTeamID:    raw.ProTeamID,
		ProTeam:      proTeam,
		ByeWeek:      byes[raw.ProTeamID],
		Active:       raw.Active == nil || *raw.Active,
		InjuryStatus: injury,
		PercentOwned: raw.Ownership.PercentOwned,
	}
	if p.FullName == "" {
		p.FullName = strings.TrimSpace(raw.FirstName + " " + raw.LastName)
	}

	if raw.EligibleSlots != nil {
		p.EligibleSlots = make([]models.LineupSlot, 0, len(raw.EligibleSlots))
		for _, code := range raw.EligibleSlots {
			slot := MapLineupSlot(code)
			if slot == models.SlotUnknown {
				anomalies = append(anomalies, anomaly("player", raw.ID, "eligible_slot", code))
				continue
			}
			p.EligibleSlots = append(p.EligibleSlots, slot)
		}
	}

	for _, s := range raw.Stats {
		var source models.StatSource
		switch s.StatSourceID {
		case statSourceActual:
			source = models.StatSourceActual
		case statSourceProjected:
			source = models.StatSourceProjected
		default:
			anomalies = append(anomalies, anomaly("player", raw.ID, "stat_source", s.StatSourceID))
			continue
		}

		line := models.StatLine{
			Period: s.ScoringPeriodID,
			Source: source,
			Total:  s.AppliedTotal,
		}
		stats, statAnomalies := mapStatMap(raw.ID, s.Stats)
		line.Stats = stats
		anomalies = append(anomalies, statAnomalies...)
		p.Stats = upsertLine(p.Stats, line)
	}
	sortStatLines(p.Stats)

	return p, anomalies
}

// upsertLine keeps one line per (period, source). The provider sometimes
// repeats a line with different split types; the later one wins.
func upsertLine(lines []models.StatLine, line models.StatLine) []models.StatLine {
	for i := range lines {
		if lines[i].Period == line.Period && lines[i].Source == line.Source {
			lines[i] = line
			return lines
		}
	}
	return append(lines, line)
}

func mapStatMap(playerID int, raw map[string]float64) ([]models.NamedStat, []Anomaly) {
	if len(raw) == 0 {
		return nil, nil
	}
	var anomalies []Anomaly
	stats := make([]models.NamedStat, 0, len(raw))
	for key, value := range raw {
		code, err := strconv.Atoi(key)
		if err != nil {
			anomalies = append(anomalies, anomaly("player", playerID, "stat_code", key))
			continue
		}
		stat, ok := MapStat(code, value)
		if !ok {
			anomalies = append(anomalies, anomaly("player", playerID, "stat_code", code))
		}
		stats = append(stats, stat)
	}
	sortStats(stats)
	return stats, anomalies
}

// ScoringTypeOf derives the reception scoring from the league settings.
func ScoringTypeOf(s espn.ScoringSettings) models.ScoringType {
	for _, item := range s.ScoringItems {
		if item.StatID != receptionsStatID {
			continue
		}
		switch item.Points {
		case 1.0:
			return models.ScoringPPR
		case 0.5:
			return models.ScoringHalfPPR
		}
	}
	return models.ScoringStandard
}

// scoreAndProjected prefers live points when the provider reports them.
func scoreAndProjected(ts espn.TeamScore) (float64, float64) {
	score := ts.TotalPoints
	if ts.TotalPointsLive != nil {
		score = *ts.TotalPointsLive
	}
	var projected float64
	if ts.TotalProjectedPointsLive != nil {
		projected = *ts.TotalProjectedPointsLive
	}
	return round2(score), round2(projected)
}

func MapMatchup(raw espn.MatchupScore, leagueID string) (models.Matchup, []Anomaly) {
	var anomalies []Anomaly

	homeScore, homeProjected := scoreAndProjected(raw.Home)
	awayScore, awayProjected := scoreAndProjected(raw.Away)

	m := models.Matchup{
		LeagueID:      leagueID,
		ExternalID:    raw.ID,
		Period:        raw.MatchupPeriodID,
		HomeTeamID:    raw.Home.TeamID,
		AwayTeamID:    raw.Away.TeamID,
		HomeScore:     homeScore,
		AwayScore:     awayScore,
		HomeProjected: homeProjected,
		AwayProjected: awayProjected,
		IsPlayoff:     raw.PlayoffTierType != "" && raw.PlayoffTierType != "NONE",
	}

	switch w := models.Winner(raw.Winner); w {
	case models.WinnerHome, models.WinnerAway, models.WinnerTie, models.WinnerUndecided:
		m.Winner = w
	case "":
		m.Winner = models.WinnerUndecided
	default:
		m.Winner = models.WinnerUndecided
		anomalies = append(anomalies, anomaly("matchup", raw.ID, "winner", raw.Winner))
	}

	return m, anomalies
}

func mapTransactionStatus(raw string) (models.TransactionStatus, bool) {
	switch {
	case raw == "EXECUTED":
		return models.TransactionSuccessful, true
	case raw == "PENDING", raw == "PROPOSED":
		return models.TransactionPending, true
	case strings.HasPrefix(raw, "FAILED"), raw == "CANCELED", raw == "VETOED", raw == "REJECTED":
		return models.TransactionFailed, true
	}
	return models.TransactionFailed, false
}

// MapTransaction expands a provider transaction into one record per player
// movement. Lineup and draft items are not waiver activity and are skipped.
func MapTransaction(raw espn.Transaction, leagueID string) ([]models.WaiverTransaction, []Anomaly) {
	var anomalies []Anomaly

	status, ok := mapTransactionStatus(raw.Status)
	if !ok {
		anomalies = append(anomalies, anomaly("transaction", raw.ID, "status", raw.Status))
	}

	bid := decimal.NewFromFloat(raw.BidAmount)
	if bid.IsNegative() {
		anomalies = append(anomalies, anomaly("transaction", raw.ID, "bid_amount", raw.BidAmount))
		bid = decimal.Zero
	}

	var occurred time.Time
	switch {
	case raw.ProcessDate > 0:
		occurred = time.UnixMilli(raw.ProcessDate).UTC()
	case raw.ProposedDate > 0:
		occurred = time.UnixMilli(raw.ProposedDate).UTC()
	}

	isTrade := strings.HasPrefix(raw.Type, "TRADE")

	var out []models.WaiverTransaction
	for i, item := range raw.Items {
		tx := models.WaiverTransaction{
			ID:         fmt.Sprintf("%s:%d", raw.ID, i),
			LeagueID:   leagueID,
			PlayerID:   int64(item.PlayerID),
			BidAmount:  decimal.Zero,
			Status:     status,
			Period:     raw.ScoringPeriodID,
			OccurredAt: occurred,
		}

		switch {
		case isTrade || item.Type == "TRADE":
			tx.Type = models.TransactionTrade
			tx.TeamID = item.ToTeamID
		case item.Type == "ADD":
			tx.Type = models.TransactionAdd
			tx.TeamID = item.ToTeamID
			tx.BidAmount = bid
		case item.Type == "DROP":
			tx.Type = models.TransactionDrop
			tx.TeamID = item.FromTeamID
		case item.Type == "LINEUP", item.Type == "DRAFT":
			continue
		default:
			anomalies = append(anomalies, anomaly("transaction", raw.ID, "item_type", item.Type))
			continue
		}
		if tx.TeamID == 0 {
			tx.TeamID = raw.TeamID
		}
		out = append(out, tx)
	}

	return out, anomalies
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
