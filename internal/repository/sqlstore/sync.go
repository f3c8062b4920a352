package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

// CommitSync writes a batch in one transaction. Any failure, including
// cancellation of ctx, rolls the whole batch back.
func (s *Store) CommitSync(ctx context.Context, b repository.SyncBatch) error {
	if b.League.ID == "" {
		return apperr.Validationf("league id is required")
	}
	for _, t := range b.Transactions {
		if t.BidAmount.IsNegative() {
			return apperr.Validationf("transaction %s has a negative bid", t.ID)
		}
	}

	return s.withTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.upsertLeague(ctx, tx, b.League); err != nil {
			return err
		}
		for _, t := range b.Teams {
			if err := s.upsertTeam(ctx, tx, t); err != nil {
				return fmt.Errorf("upsert team %d: %w", t.ExternalID, err)
			}
		}
		for _, p := range b.Players {
			if err := s.upsertPlayer(ctx, tx, p); err != nil {
				return fmt.Errorf("upsert player %d: %w", p.ID, err)
			}
		}
		// Retirements first so a player moving teams never holds two
		// current rows.
		for _, pass := range []bool{false, true} {
			for _, e := range b.Rosters {
				if e.Current != pass {
					continue
				}
				if err := s.upsertRosterEntry(ctx, tx, e); err != nil {
					if apperr.KindOf(err) == apperr.KindValidation {
						return apperr.Validationf("player %d is already current on another team in period %d", e.PlayerID, e.Period)
					}
					return fmt.Errorf("upsert roster entry %d/%d: %w", e.TeamID, e.PlayerID, err)
				}
			}
		}
		for _, m := range b.Matchups {
			if err := s.upsertMatchup(ctx, tx, m); err != nil {
				return fmt.Errorf("upsert matchup %d: %w", m.ExternalID, err)
			}
		}
		for _, t := range b.Transactions {
			if err := s.upsertTransaction(ctx, tx, t); err != nil {
				return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// LeagueState reads the league inside one transaction so every part of the
// result comes from the same committed sync.
func (s *Store) LeagueState(ctx context.Context, leagueID string) (repository.LeagueState, error) {
	var state repository.LeagueState
	err := s.withTx(ctx, s.readTxOptions(), func(tx *sql.Tx) error {
		league, err := s.getLeague(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		state.League = league

		if state.Teams, err = s.listTeams(ctx, tx, leagueID); err != nil {
			return err
		}
		if state.Rosters, err = s.listRoster(ctx, tx, league, repository.RosterFilter{CurrentOnly: true}); err != nil {
			return err
		}
		if state.Matchups, err = s.listMatchups(ctx, tx, leagueID, league.MatchupPeriod()); err != nil {
			return err
		}
		if state.Transactions, err = s.listTransactions(ctx, tx, leagueID, repository.TransactionFilter{}); err != nil {
			return err
		}
		players, err := s.listPlayers(ctx, tx)
		if err != nil {
			return err
		}
		state.Players = make(map[int64]models.Player, len(players))
		for _, p := range players {
			state.Players[p.ID] = p
		}
		return nil
	})
	if err != nil {
		return repository.LeagueState{}, err
	}
	return state, nil
}
