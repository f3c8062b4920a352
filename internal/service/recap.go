package service

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
)

const (
	// CloseGameMargin is the largest margin still reported as a close game.
	CloseGameMargin = 16.0

	playerMatchThreshold = 0.7
	teamMatchThreshold   = 0.6
	defaultSearchLimit   = 5
)

// Trophy categories.
const (
	TrophyHighScore  = "High Score"
	TrophyLowScore   = "Low Score"
	TrophyBiggestWin = "Biggest Win"
	TrophyClosestWin = "Closest Win"
)

// WeeklyRecap builds the final score report for period. Zero selects the
// current period.
func (s *FantasyService) WeeklyRecap(ctx context.Context, leagueID string, period int) (models.FinalScoreReport, error) {
	res, err := s.GetMatchups(ctx, leagueID, period)
	if err != nil {
		return models.FinalScoreReport{}, err
	}
	report := processScores(res.Matchups)
	report.Period = res.Period
	return report, nil
}

func processScores(matchups []MatchupView) models.FinalScoreReport {
	var report models.FinalScoreReport

	highScore, lowScore := -math.MaxFloat64, math.MaxFloat64
	biggestWin, closestWin := -math.MaxFloat64, math.MaxFloat64
	var highScoreTeam, lowScoreTeam, biggestWinTeam, closestWinTeam string

	for _, m := range matchups {
		if m.IsBye() {
			continue
		}
		report.Games = append(report.Games, models.RecapGame{
			HomeTeam:  m.HomeTeam,
			AwayTeam:  m.AwayTeam,
			HomeScore: m.HomeScore,
			AwayScore: m.AwayScore,
		})

		if m.HomeScore > highScore {
			highScore, highScoreTeam = m.HomeScore, m.HomeTeam
		}
		if m.AwayScore > highScore {
			highScore, highScoreTeam = m.AwayScore, m.AwayTeam
		}
		if m.HomeScore < lowScore {
			lowScore, lowScoreTeam = m.HomeScore, m.HomeTeam
		}
		if m.AwayScore < lowScore {
			lowScore, lowScoreTeam = m.AwayScore, m.AwayTeam
		}

		// Ties have no winner.
		if m.HomeScore == m.AwayScore {
			continue
		}
		winner := m.AwayTeam
		if m.HomeScore > m.AwayScore {
			winner = m.HomeTeam
		}
		diff := math.Round(math.Abs(m.HomeScore-m.AwayScore)*100) / 100
		if diff > biggestWin {
			biggestWin, biggestWinTeam = diff, winner
		}
		if diff < closestWin {
			closestWin, closestWinTeam = diff, winner
		}
	}

	slices.SortStableFunc(report.Games, func(a, b models.RecapGame) int {
		return cmp.Compare(b.HomeScore+b.AwayScore, a.HomeScore+a.AwayScore)
	})

	if len(report.Games) == 0 {
		return report
	}
	report.Trophies = []models.Trophy{
		{Category: TrophyHighScore, Team: highScoreTeam, Value: highScore},
		{Category: TrophyLowScore, Team: lowScoreTeam, Value: lowScore},
	}
	if biggestWinTeam != "" {
		report.Trophies = append(report.Trophies,
			models.Trophy{Category: TrophyBiggestWin, Team: biggestWinTeam, Value: biggestWin},
			models.Trophy{Category: TrophyClosestWin, Team: closestWinTeam, Value: closestWin},
		)
	}
	return report
}

// CloseGame is a matchup still within reach.
type CloseGame struct {
	MatchupView
	Margin float64
}

// CloseGames lists the current period's matchups decided by at most
// CloseGameMargin points, closest first.
func (s *FantasyService) CloseGames(ctx context.Context, leagueID string) ([]CloseGame, Freshness, error) {
	res, err := s.GetMatchups(ctx, leagueID, 0)
	if err != nil {
		return nil, Freshness{}, err
	}
	return findCloseGames(res.Matchups), res.Freshness, nil
}

func findCloseGames(matchups []MatchupView) []CloseGame {
	var out []CloseGame
	for _, m := range matchups {
		if m.IsBye() {
			continue
		}
		margin := math.Round(math.Abs(m.HomeScore-m.AwayScore)*100) / 100
		if margin <= CloseGameMargin {
			out = append(out, CloseGame{MatchupView: m, Margin: margin})
		}
	}
	slices.SortStableFunc(out, func(a, b CloseGame) int {
		return cmp.Compare(a.Margin, b.Margin)
	})
	return out
}

// InjuredStarter is a starting player whose availability is in doubt.
type InjuredStarter struct {
	TeamID   int
	TeamName string
	Player   models.Player
	Slot     models.LineupSlot
}

// PlayersToMonitor lists starters with an injury designation, grouped by
// team id.
func (s *FantasyService) PlayersToMonitor(ctx context.Context, leagueID string) ([]InjuredStarter, Freshness, error) {
	state, err := s.store.LeagueState(ctx, leagueID)
	if err != nil {
		return nil, Freshness{}, err
	}
	names := namesOf(state.Teams)

	var out []InjuredStarter
	for _, e := range state.Rosters {
		if !e.Slot.IsStarter() {
			continue
		}
		p, ok := state.Players[e.PlayerID]
		if !ok || !p.IsInjuryRisk() {
			continue
		}
		out = append(out, InjuredStarter{TeamID: e.TeamID, TeamName: names.of(e.TeamID), Player: p, Slot: e.Slot})
	}
	slices.SortFunc(out, func(a, b InjuredStarter) int {
		if c := cmp.Compare(a.TeamID, b.TeamID); c != 0 {
			return c
		}
		return cmp.Compare(a.Player.ID, b.Player.ID)
	})
	return out, s.freshness(state.League), nil
}

// similarity is one minus the normalized Levenshtein distance.
func similarity(query, name string) float64 {
	q, n := strings.ToLower(query), strings.ToLower(name)
	maxLen := max(len(q), len(n))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(fuzzy.LevenshteinDistance(q, n))/float64(maxLen)
}

type searchHit struct {
	player models.Player
	score  float64
}

// SearchPlayers finds players by name and reports who rosters them in the
// league. Names containing the query match outright; others must be close
// by edit distance.
func (s *FantasyService) SearchPlayers(ctx context.Context, leagueID, query string, limit int) ([]models.WhoHasResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validationf("search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	state, err := s.store.LeagueState(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	var hits []searchHit
	for _, p := range state.Players {
		score := similarity(query, p.FullName)
		if strings.Contains(strings.ToLower(p.FullName), strings.ToLower(query)) {
			score = max(score, playerMatchThreshold+0.01)
		}
		if score > playerMatchThreshold {
			hits = append(hits, searchHit{player: p, score: score})
		}
	}
	slices.SortFunc(hits, func(a, b searchHit) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.player.PercentOwned, a.player.PercentOwned); c != 0 {
			return c
		}
		return cmp.Compare(a.player.ID, b.player.ID)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	rostered := state.Rostered()
	names := namesOf(state.Teams)
	period := state.League.CurrentPeriod
	out := make([]models.WhoHasResult, len(hits))
	for i, h := range hits {
		r := models.WhoHasResult{Player: h.player, Found: true}
		if teamID, ok := rostered[h.player.ID]; ok {
			r.TeamID = teamID
			r.TeamName = names.of(teamID)
		}
		r.Points, r.IsProjected = playerPoints(h.player, period)
		out[i] = r
	}
	return out, nil
}

// playerPoints prefers the period's actual points over its projection.
func playerPoints(p models.Player, period int) (float64, bool) {
	if line, ok := p.Stat(period, models.StatSourceActual); ok {
		return line.Total, false
	}
	if line, ok := p.Stat(period, models.StatSourceProjected); ok {
		return line.Total, true
	}
	return 0, true
}

// FindTeam resolves a team by id or by a fuzzy match on its name.
func (s *FantasyService) FindTeam(ctx context.Context, leagueID, nameOrID string) (models.Team, error) {
	teams, err := s.store.ListTeams(ctx, leagueID)
	if err != nil {
		return models.Team{}, err
	}
	nameOrID = strings.TrimSpace(nameOrID)

	if id, err := strconv.Atoi(nameOrID); err == nil {
		for _, t := range teams {
			if t.ExternalID == id {
				return t, nil
			}
		}
	}

	best, bestScore := -1, teamMatchThreshold
	for i, t := range teams {
		score := max(similarity(nameOrID, t.Name), similarity(nameOrID, t.Abbreviation))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return models.Team{}, apperr.NotFoundf("team not found: %s", nameOrID)
	}
	return teams[best], nil
}
