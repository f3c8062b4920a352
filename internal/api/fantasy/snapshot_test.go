package fantasy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/api/espn"
	"github.com/omarshaarawi/leaguedesk/internal/models"
)

func rosterEntry(playerID, slot, position int) espn.RosterEntry {
	return espn.RosterEntry{
		PlayerID:     playerID,
		LineupSlotID: slot,
		PlayerPoolEntry: espn.PlayerPoolEntry{
			ID:     playerID,
			Player: espn.Player{ID: playerID, FullName: "Player", DefaultPositionID: position, ProTeamID: 2},
		},
	}
}

func TestMapSnapshot(t *testing.T) {
	up := Upstream{
		League: &espn.LeagueResponse{
			ID:              42,
			SeasonID:        2025,
			ScoringPeriodID: 5,
			Settings: espn.Settings{
				Name: "Dynasty",
				ScoringSettings: espn.ScoringSettings{
					ScoringItems: []espn.ScoringItem{{StatID: 53, Points: 1}},
				},
			},
			Teams: []espn.Team{
				{ID: 1, Name: "Alpha", Roster: espn.Roster{Entries: []espn.RosterEntry{
					rosterEntry(100, 0, 1),
					rosterEntry(101, 20, 999),
				}}},
				{ID: 2, Location: "Beta", Nickname: "Bears", Roster: espn.Roster{Entries: []espn.RosterEntry{
					rosterEntry(200, 2, 2),
					rosterEntry(201, 20, 999),
				}}},
			},
		},
		FreeAgents: []espn.PlayerPoolEntry{
			{ID: 300, Player: espn.Player{ID: 300, FullName: "Free", DefaultPositionID: 3}},
		},
		ProTeams: []espn.ProTeamInfo{{ID: 2, ByeWeek: 7}},
	}

	snap, anomalies := MapSnapshot("L", up)

	if snap.League.ExternalID != "42" || snap.League.CurrentPeriod != 5 || snap.League.TeamCount != 2 {
		t.Errorf("League = %+v", snap.League)
	}
	if snap.League.ScoringType != models.ScoringPPR {
		t.Errorf("ScoringType = %v, want ppr", snap.League.ScoringType)
	}
	if !snap.League.WaiverBudget.Equal(decimal.NewFromInt(100)) {
		t.Errorf("WaiverBudget = %v, want default 100", snap.League.WaiverBudget)
	}
	if snap.Teams[1].Name != "Beta Bears" {
		t.Errorf("Teams[1].Name = %q", snap.Teams[1].Name)
	}
	if len(snap.Players) != 5 {
		t.Fatalf("len(Players) = %d, want 5", len(snap.Players))
	}
	if snap.Players[1].ID != 101 || snap.Players[1].Position != models.PositionUnknown {
		t.Errorf("unknown position player = %+v", snap.Players[1])
	}
	if snap.Players[0].ByeWeek != 7 {
		t.Errorf("ByeWeek = %d, want 7", snap.Players[0].ByeWeek)
	}
	if len(snap.Rosters) != 4 {
		t.Fatalf("len(Rosters) = %d, want 4", len(snap.Rosters))
	}
	for _, r := range snap.Rosters {
		if !r.Current || r.Period != 5 {
			t.Errorf("roster entry = %+v, want current at period 5", r)
		}
	}

	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %v, want one folded position anomaly", anomalies)
	}
	if anomalies[0].Field != "position" || anomalies[0].Raw != "999" || anomalies[0].Count != 2 {
		t.Errorf("anomaly = %+v", anomalies[0])
	}
}

func TestMapSnapshotBudgetFromSettings(t *testing.T) {
	up := Upstream{League: &espn.LeagueResponse{
		ID:       1,
		Status:   espn.Status{CurrentMatchupPeriod: 2},
		Settings: espn.Settings{AcquisitionSettings: espn.AcquisitionSettings{AcquisitionBudget: 250}},
	}}
	snap, _ := MapSnapshot("L", up)
	if !snap.League.WaiverBudget.Equal(decimal.NewFromInt(250)) {
		t.Errorf("WaiverBudget = %v, want 250", snap.League.WaiverBudget)
	}
	if snap.League.CurrentPeriod != 2 {
		t.Errorf("CurrentPeriod = %d, want fallback 2", snap.League.CurrentPeriod)
	}
}

func TestMapSnapshotPeriods(t *testing.T) {
	tests := []struct {
		name        string
		raw         *espn.LeagueResponse
		wantScoring int
		wantMatchup int
	}{
		{
			name:        "matchup spans scoring periods",
			raw:         &espn.LeagueResponse{ID: 1, ScoringPeriodID: 16, Status: espn.Status{CurrentMatchupPeriod: 15}},
			wantScoring: 16,
			wantMatchup: 15,
		},
		{
			name:        "matchup period missing",
			raw:         &espn.LeagueResponse{ID: 1, ScoringPeriodID: 6},
			wantScoring: 6,
			wantMatchup: 6,
		},
		{
			name:        "scoring period missing",
			raw:         &espn.LeagueResponse{ID: 1, Status: espn.Status{CurrentMatchupPeriod: 3}},
			wantScoring: 3,
			wantMatchup: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, _ := MapSnapshot("L", Upstream{League: tt.raw})
			if snap.League.CurrentPeriod != tt.wantScoring {
				t.Errorf("CurrentPeriod = %d, want %d", snap.League.CurrentPeriod, tt.wantScoring)
			}
			if snap.League.CurrentMatchupPeriod != tt.wantMatchup {
				t.Errorf("CurrentMatchupPeriod = %d, want %d", snap.League.CurrentMatchupPeriod, tt.wantMatchup)
			}
		})
	}
}
