package report

import (
	"strings"
	"testing"

	"github.com/omarshaarawi/leaguedesk/internal/leaguesync"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/service"
)

func TestStandingsIncludesFreshnessWarning(t *testing.T) {
	res := service.TeamsResult{
		Standings: []models.TeamStanding{
			{Rank: 1, Team: models.Team{Name: "Bench Warmers", Wins: 3, Losses: 1, PointsFor: 530}},
		},
		Freshness: service.Freshness{Degraded: true, Reason: "last sync was 2h0m0s ago"},
	}

	got := Standings(res)
	for _, want := range []string{"1. *Bench Warmers*", "Record: 3-1-0", "Points For: 530.00", "last sync was 2h0m0s ago"} {
		if !strings.Contains(got, want) {
			t.Errorf("Standings() missing %q in:\n%s", want, got)
		}
	}

	res.Freshness = service.Freshness{}
	if strings.Contains(Standings(res), "⚠️") {
		t.Error("Standings() warns about fresh data")
	}
}

func TestFinalScores(t *testing.T) {
	r := models.FinalScoreReport{
		Period: 5,
		Games:  []models.RecapGame{{HomeTeam: "A", AwayTeam: "B", HomeScore: 101.5, AwayScore: 88.25}},
		Trophies: []models.Trophy{
			{Category: service.TrophyHighScore, Team: "A", Value: 101.5},
			{Category: service.TrophyClosestWin, Team: "A", Value: 13.25},
		},
	}
	got := FinalScores(r)
	for _, want := range []string{"Week 5", "A 101.50 - 88.25 B", "Highest Score: A (101.50)", "Closest Win: A (Margin: 13.25)"} {
		if !strings.Contains(got, want) {
			t.Errorf("FinalScores() missing %q in:\n%s", want, got)
		}
	}

	if got := FinalScores(models.FinalScoreReport{Period: 1}); !strings.Contains(got, "No games") {
		t.Errorf("FinalScores(empty) = %q", got)
	}
}

func TestWhoHas(t *testing.T) {
	tests := []struct {
		name string
		hits []models.WhoHasResult
		want []string
	}{
		{
			name: "not found",
			want: []string{"No player found matching 'nobody'"},
		},
		{
			name: "rostered",
			hits: []models.WhoHasResult{{
				Player:   models.Player{FullName: "Josh Allen", Position: models.PositionQB, ProTeam: "BUF", PercentOwned: 99.9},
				TeamID:   1,
				TeamName: "Gridiron Gurus",
				Found:    true,
				Points:   24.5,
			}},
			want: []string{"*Josh Allen* (QB - BUF)", "*Gridiron Gurus*", "24.50 pts", "99.9% Rostered"},
		},
		{
			name: "free agent projected",
			hits: []models.WhoHasResult{
				{Player: models.Player{FullName: "Jalen McMillan"}, Found: true, IsProjected: true},
				{Player: models.Player{FullName: "Jalen Hurts"}, Found: true},
			},
			want: []string{"Free Agent", "TBD pts (Projected)", "Also matched: Jalen Hurts"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WhoHas("nobody", tt.hits)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("WhoHas() missing %q in:\n%s", want, got)
				}
			}
		})
	}
}

func TestCloseGamesEmpty(t *testing.T) {
	if got := CloseGames(nil); !strings.Contains(got, "No close games") {
		t.Errorf("CloseGames(nil) = %q", got)
	}
}

func TestSync(t *testing.T) {
	if got := Sync(leaguesync.SyncResult{Period: 5}); !strings.Contains(got, "already up to date") {
		t.Errorf("Sync(no changes) = %q", got)
	}
	got := Sync(leaguesync.SyncResult{Period: 5, TeamsUpdated: 2, RostersUpdated: 3, RostersRetired: 1})
	if !strings.Contains(got, "2 teams") || !strings.Contains(got, "(1 retired)") {
		t.Errorf("Sync() = %q", got)
	}
}
