// Package repository defines the persistence gateway used by the sync and
// analytics layers. Adapters live in the memory and sqlstore subpackages.
package repository

import (
	"context"

	"github.com/omarshaarawi/leaguedesk/internal/models"
)

// RosterFilter narrows ListRoster. Zero values mean no restriction, except
// Period where zero selects the league's current period.
type RosterFilter struct {
	TeamID      int
	Period      int
	CurrentOnly bool
}

// TransactionFilter narrows ListTransactions. Results are newest first.
type TransactionFilter struct {
	TeamID int
	Limit  int
}

// SyncBatch is everything one sync run writes. It is applied atomically.
// Roster entries with Current false retire existing rows and are applied
// before current ones.
type SyncBatch struct {
	League       models.League
	Teams        []models.Team
	Players      []models.Player
	Rosters      []models.RosterEntry
	Matchups     []models.Matchup
	Transactions []models.WaiverTransaction
}

// LeagueState is a consistent read of one league at its current period.
type LeagueState struct {
	League       models.League
	Teams        []models.Team
	Rosters      []models.RosterEntry
	Players      map[int64]models.Player
	Matchups     []models.Matchup
	Transactions []models.WaiverTransaction
}

// Rostered reports the ids of players on any current roster.
func (s LeagueState) Rostered() map[int64]int {
	out := make(map[int64]int, len(s.Rosters))
	for _, r := range s.Rosters {
		out[r.PlayerID] = r.TeamID
	}
	return out
}

// TeamRoster returns the current entries for one team.
func (s LeagueState) TeamRoster(teamID int) []models.RosterEntry {
	var out []models.RosterEntry
	for _, r := range s.Rosters {
		if r.TeamID == teamID {
			out = append(out, r)
		}
	}
	return out
}

// Team returns the team with the given external id.
func (s LeagueState) Team(teamID int) (models.Team, bool) {
	for _, t := range s.Teams {
		if t.ExternalID == teamID {
			return t, true
		}
	}
	return models.Team{}, false
}

type Store interface {
	UpsertLeague(ctx context.Context, league models.League) error
	GetLeague(ctx context.Context, id string) (models.League, error)
	GetLeagueByExternalID(ctx context.Context, externalID string, season int) (models.League, error)
	ListLeagues(ctx context.Context) ([]models.League, error)

	ListTeams(ctx context.Context, leagueID string) ([]models.Team, error)
	GetTeam(ctx context.Context, leagueID string, teamID int) (models.Team, error)
	// ClaimTeam records userID as the owner of a team. A user owns at most
	// one team per league.
	ClaimTeam(ctx context.Context, leagueID string, teamID int, userID string) error

	ListRoster(ctx context.Context, leagueID string, filter RosterFilter) ([]models.RosterEntry, error)
	GetPlayers(ctx context.Context, ids []int64) (map[int64]models.Player, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
	ListMatchups(ctx context.Context, leagueID string, period int) ([]models.Matchup, error)

	ListTransactions(ctx context.Context, leagueID string, filter TransactionFilter) ([]models.WaiverTransaction, error)
	UpsertTransaction(ctx context.Context, tx models.WaiverTransaction) error

	SaveTradeProposal(ctx context.Context, p models.TradeProposal) error
	GetTradeProposal(ctx context.Context, id string) (models.TradeProposal, error)
	ListTradeProposals(ctx context.Context, leagueID string) ([]models.TradeProposal, error)
	// UpdateTradeStatus moves a proposal from one status to another and
	// fails if the stored status is not from.
	UpdateTradeStatus(ctx context.Context, id string, from, to models.TradeStatus) error

	CommitSync(ctx context.Context, batch SyncBatch) error
	LeagueState(ctx context.Context, leagueID string) (LeagueState, error)

	Close() error
}
