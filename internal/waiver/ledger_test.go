package waiver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
	"github.com/omarshaarawi/leaguedesk/internal/repository/memory"
)

var base = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

func tx(id string, team int, kind models.TransactionType, status models.TransactionStatus, bid string, hoursAgo int) models.WaiverTransaction {
	return models.WaiverTransaction{
		ID:         id,
		LeagueID:   "lg",
		TeamID:     team,
		PlayerID:   1,
		Type:       kind,
		BidAmount:  decimal.RequireFromString(bid),
		Status:     status,
		OccurredAt: base.Add(-time.Duration(hoursAgo) * time.Hour),
	}
}

func TestFold(t *testing.T) {
	txs := []models.WaiverTransaction{
		tx("a", 1, models.TransactionAdd, models.TransactionSuccessful, "12.5", 10),
		tx("b", 1, models.TransactionAdd, models.TransactionSuccessful, "7.25", 9),
		tx("c", 1, models.TransactionAdd, models.TransactionPending, "30", 1),
		tx("d", 1, models.TransactionAdd, models.TransactionFailed, "40", 5),
		tx("e", 1, models.TransactionDrop, models.TransactionSuccessful, "0", 8),
	}
	b := Fold(decimal.NewFromInt(100), txs)

	if want := decimal.RequireFromString("19.75"); !b.Spent.Equal(want) {
		t.Errorf("Spent = %s, want %s", b.Spent, want)
	}
	if want := decimal.RequireFromString("80.25"); !b.Remaining.Equal(want) {
		t.Errorf("Remaining = %s, want %s", b.Remaining, want)
	}
	if want := decimal.NewFromInt(30); !b.PendingBids.Equal(want) || b.PendingCount != 1 {
		t.Errorf("Pending = %s x%d, want %s x1", b.PendingBids, b.PendingCount, want)
	}
	if len(b.Recent) != RecentLimit || b.Recent[0].ID != "c" {
		t.Errorf("Recent = %d starting %q, want %d starting c", len(b.Recent), b.Recent[0].ID, RecentLimit)
	}
	if err := Check(b); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestFoldInvariantHolds(t *testing.T) {
	var txs []models.WaiverTransaction
	for i := range 40 {
		status := models.TransactionSuccessful
		if i%3 == 0 {
			status = models.TransactionPending
		}
		txs = append(txs, tx(fmt.Sprintf("t%d", i), 1, models.TransactionAdd, status, fmt.Sprintf("%d.%02d", i%4, i), i))

		b := Fold(decimal.NewFromInt(100), txs)
		if !b.Spent.Add(b.Remaining).Equal(b.Total) {
			t.Fatalf("after %d transactions: spent %s + remaining %s != total %s", i+1, b.Spent, b.Remaining, b.Total)
		}
	}
}

func TestCheckReportsOverspend(t *testing.T) {
	b := Fold(decimal.NewFromInt(10), []models.WaiverTransaction{
		tx("a", 1, models.TransactionAdd, models.TransactionSuccessful, "11", 1),
	})
	if err := Check(b); !errors.Is(err, ErrOverspent) {
		t.Fatalf("Check() = %v, want ErrOverspent", err)
	}
}

func seededLedger(t *testing.T) *Ledger {
	t.Helper()
	store := memory.NewRepository()
	err := store.CommitSync(context.Background(), repository.SyncBatch{
		League: models.League{ID: "lg", ExternalID: "1", SeasonYear: 2025, CurrentPeriod: 4, WaiverBudget: decimal.NewFromInt(200)},
		Teams: []models.Team{
			{LeagueID: "lg", ExternalID: 2, Name: "Bravo"},
			{LeagueID: "lg", ExternalID: 1, Name: "Alpha"},
		},
		Transactions: []models.WaiverTransaction{
			tx("a", 1, models.TransactionAdd, models.TransactionSuccessful, "45", 3),
			tx("b", 2, models.TransactionAdd, models.TransactionPending, "15", 2),
		},
	})
	if err != nil {
		t.Fatalf("commit sync: %v", err)
	}
	return NewLedger(store)
}

func TestLedgerCurrentBudget(t *testing.T) {
	l := seededLedger(t)
	ctx := context.Background()

	b, err := l.CurrentBudget(ctx, "lg", 1)
	if err != nil {
		t.Fatalf("current budget: %v", err)
	}
	if b.TeamName != "Alpha" || !b.Remaining.Equal(decimal.NewFromInt(155)) {
		t.Fatalf("budget = %+v", b)
	}

	if _, err := l.CurrentBudget(ctx, "lg", 9); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing team = %v, want not found", err)
	}
}

func TestLedgerLeagueBudgets(t *testing.T) {
	l := seededLedger(t)
	budgets, err := l.LeagueBudgets(context.Background(), "lg")
	if err != nil {
		t.Fatalf("league budgets: %v", err)
	}
	if len(budgets) != 2 || budgets[0].TeamID != 1 || budgets[1].TeamID != 2 {
		t.Fatalf("budgets = %+v", budgets)
	}
	if !budgets[1].Remaining.Equal(decimal.NewFromInt(200)) || budgets[1].PendingCount != 1 {
		t.Fatalf("team 2 budget = %+v, want pending bid not deducted", budgets[1])
	}
}
