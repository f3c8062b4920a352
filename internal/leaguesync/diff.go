package leaguesync

import (
	"context"
	"time"

	"github.com/omarshaarawi/leaguedesk/internal/api/fantasy"
	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

type plan struct {
	batch   repository.SyncBatch
	retired int
}

// validate rejects snapshots that would corrupt the mirror.
func validate(persisted models.League, snap fantasy.Snapshot) error {
	if snap.League.SeasonYear == persisted.SeasonYear && snap.League.CurrentPeriod < persisted.CurrentPeriod {
		return apperr.Validationf("upstream period %d is behind persisted period %d",
			snap.League.CurrentPeriod, persisted.CurrentPeriod)
	}

	owners := make(map[int64]int, len(snap.Rosters))
	for _, e := range snap.Rosters {
		if team, ok := owners[e.PlayerID]; ok && team != e.TeamID {
			return apperr.Validationf("player %d is rostered by teams %d and %d", e.PlayerID, team, e.TeamID)
		}
		owners[e.PlayerID] = e.TeamID
	}

	for _, tx := range snap.Transactions {
		if tx.BidAmount.IsNegative() {
			return apperr.Validationf("transaction %s has a negative bid", tx.ID)
		}
	}
	return nil
}

// diff keeps only the rows that differ from what is stored. Current roster
// rows at the synced period that upstream no longer reports are retired.
func (e *Engine) diff(ctx context.Context, persisted repository.LeagueState, snap fantasy.Snapshot, now time.Time) (plan, error) {
	var p plan
	leagueID := persisted.League.ID

	league := persisted.League
	league.Name = snap.League.Name
	league.SeasonYear = snap.League.SeasonYear
	league.TeamCount = snap.League.TeamCount
	league.ScoringType = snap.League.ScoringType
	league.CurrentPeriod = snap.League.CurrentPeriod
	league.CurrentMatchupPeriod = snap.League.CurrentMatchupPeriod
	league.FinalPeriod = snap.League.FinalPeriod
	league.WaiverBudget = snap.League.WaiverBudget
	league.LastSyncedAt = now
	p.batch.League = league

	teams := make(map[int]models.Team, len(persisted.Teams))
	for _, t := range persisted.Teams {
		teams[t.ExternalID] = t
	}
	for _, t := range snap.Teams {
		if old, ok := teams[t.ExternalID]; ok && old.SyncedEqual(t) {
			continue
		}
		p.batch.Teams = append(p.batch.Teams, t)
	}

	for _, pl := range snap.Players {
		if old, ok := persisted.Players[pl.ID]; ok && old.Equal(pl) {
			continue
		}
		p.batch.Players = append(p.batch.Players, pl)
	}

	period := snap.League.CurrentPeriod
	stored, err := e.store.ListRoster(ctx, leagueID, repository.RosterFilter{Period: period})
	if err != nil {
		return plan{}, err
	}
	storedByKey := make(map[models.RosterKey]models.RosterEntry, len(stored))
	for _, r := range stored {
		storedByKey[r.Key()] = r
	}
	seen := make(map[models.RosterKey]bool, len(snap.Rosters))
	for _, r := range snap.Rosters {
		seen[r.Key()] = true
		if old, ok := storedByKey[r.Key()]; ok && old == r {
			continue
		}
		p.batch.Rosters = append(p.batch.Rosters, r)
	}
	for _, r := range stored {
		if r.Current && !seen[r.Key()] {
			r.Current = false
			p.batch.Rosters = append(p.batch.Rosters, r)
			p.retired++
		}
	}

	type matchupKey struct{ period, id int }
	matchups := make(map[matchupKey]models.Matchup)
	loaded := make(map[int]bool)
	for _, m := range snap.Matchups {
		if loaded[m.Period] {
			continue
		}
		loaded[m.Period] = true
		storedMatchups, err := e.store.ListMatchups(ctx, leagueID, m.Period)
		if err != nil {
			return plan{}, err
		}
		for _, sm := range storedMatchups {
			matchups[matchupKey{sm.Period, sm.ExternalID}] = sm
		}
	}
	for _, m := range snap.Matchups {
		if old, ok := matchups[matchupKey{m.Period, m.ExternalID}]; ok && old == m {
			continue
		}
		p.batch.Matchups = append(p.batch.Matchups, m)
	}

	txs := make(map[string]models.WaiverTransaction, len(persisted.Transactions))
	for _, tx := range persisted.Transactions {
		txs[tx.ID] = tx
	}
	for _, tx := range snap.Transactions {
		if old, ok := txs[tx.ID]; ok && old.Equal(tx) {
			continue
		}
		p.batch.Transactions = append(p.batch.Transactions, tx)
	}

	return p, nil
}
