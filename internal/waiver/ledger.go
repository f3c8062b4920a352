// Package waiver derives free agent acquisition budgets from the synced
// transaction history. Budgets are never stored.
package waiver

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

// RecentLimit is the number of transactions listed with a budget.
const RecentLimit = 5

// Budget is one team's acquisition budget. Spent + Remaining == Total.
// Pending bids are reported but do not reduce Remaining.
type Budget struct {
	TeamID       int
	TeamName     string
	Total        decimal.Decimal
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
	PendingBids  decimal.Decimal
	PendingCount int
	Recent       []models.WaiverTransaction
}

// Fold computes a budget from one team's transactions.
func Fold(total decimal.Decimal, txs []models.WaiverTransaction) Budget {
	b := Budget{
		Total:       total,
		Spent:       decimal.Zero,
		PendingBids: decimal.Zero,
	}
	for _, tx := range txs {
		if tx.Type != models.TransactionAdd {
			continue
		}
		switch tx.Status {
		case models.TransactionSuccessful:
			b.Spent = b.Spent.Add(tx.BidAmount)
		case models.TransactionPending:
			b.PendingBids = b.PendingBids.Add(tx.BidAmount)
			b.PendingCount++
		}
	}
	b.Remaining = total.Sub(b.Spent)

	recent := slices.Clone(txs)
	slices.SortFunc(recent, func(a, c models.WaiverTransaction) int {
		if r := c.OccurredAt.Compare(a.OccurredAt); r != 0 {
			return r
		}
		return cmp.Compare(a.ID, c.ID)
	})
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	b.Recent = recent
	return b
}

type Ledger struct {
	store repository.Store
}

func NewLedger(store repository.Store) *Ledger {
	return &Ledger{store: store}
}

// CurrentBudget recomputes one team's budget from the store.
func (l *Ledger) CurrentBudget(ctx context.Context, leagueID string, teamID int) (Budget, error) {
	league, err := l.store.GetLeague(ctx, leagueID)
	if err != nil {
		return Budget{}, err
	}
	team, err := l.store.GetTeam(ctx, leagueID, teamID)
	if err != nil {
		return Budget{}, err
	}
	txs, err := l.store.ListTransactions(ctx, leagueID, repository.TransactionFilter{TeamID: teamID})
	if err != nil {
		return Budget{}, fmt.Errorf("listing transactions: %w", err)
	}
	b := Fold(budgetOf(league), txs)
	b.TeamID = team.ExternalID
	b.TeamName = team.Name
	return b, nil
}

// LeagueBudgets returns every team's budget from one consistent snapshot,
// ordered by team id.
func (l *Ledger) LeagueBudgets(ctx context.Context, leagueID string) ([]Budget, error) {
	state, err := l.store.LeagueState(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return Budgets(state), nil
}

// Budgets folds the transactions of every team in state.
func Budgets(state repository.LeagueState) []Budget {
	byTeam := make(map[int][]models.WaiverTransaction, len(state.Teams))
	for _, tx := range state.Transactions {
		byTeam[tx.TeamID] = append(byTeam[tx.TeamID], tx)
	}

	total := budgetOf(state.League)
	out := make([]Budget, 0, len(state.Teams))
	for _, t := range state.Teams {
		b := Fold(total, byTeam[t.ExternalID])
		b.TeamID = t.ExternalID
		b.TeamName = t.Name
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, c Budget) int { return cmp.Compare(a.TeamID, c.TeamID) })
	return out
}

func budgetOf(league models.League) decimal.Decimal {
	if league.WaiverBudget.IsZero() {
		return models.DefaultWaiverBudget
	}
	return league.WaiverBudget
}

// ErrOverspent is reported by Check when successful bids exceed the total.
var ErrOverspent = errors.New("waiver: spent exceeds total budget")

// Check verifies the ledger invariants for b.
func Check(b Budget) error {
	if !b.Spent.Add(b.Remaining).Equal(b.Total) {
		return fmt.Errorf("waiver: spent %s + remaining %s != total %s", b.Spent, b.Remaining, b.Total)
	}
	if b.Remaining.IsNegative() {
		return ErrOverspent
	}
	return nil
}
