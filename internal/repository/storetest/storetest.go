// Package storetest holds behaviour tests shared by every repository.Store
// adapter.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

// Run exercises a store produced by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"LeagueRoundTrip", testLeagueRoundTrip},
		{"DuplicateExternalLeague", testDuplicateExternalLeague},
		{"NotFound", testNotFound},
		{"CommitSyncAndState", testCommitSyncAndState},
		{"StateUsesMatchupPeriod", testStateMatchupPeriod},
		{"RosterMoveRetiresOldEntry", testRosterMove},
		{"DuplicateCurrentRosterRejected", testDuplicateCurrentRoster},
		{"NegativeBidRejected", testNegativeBid},
		{"CanceledCommitLeavesStoreUnchanged", testCanceledCommit},
		{"ResyncPreservesClaimedOwner", testResyncPreservesOwner},
		{"ClaimTeamOnePerUser", testClaimTeam},
		{"TransactionsNewestFirst", testTransactionsOrder},
		{"TradeProposalLifecycle", testTradeLifecycle},
		{"PlayerFieldsRoundTrip", testPlayerRoundTrip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

var syncedAt = time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)

// Batch returns a small two-team league at period 5.
func Batch() repository.SyncBatch {
	league := models.League{
		ID:            "lg-1",
		ExternalID:    "123456",
		Name:          "Sunday Funday",
		SeasonYear:    2025,
		TeamCount:     2,
		ScoringType:   models.ScoringPPR,
		CurrentPeriod: 5,
		FinalPeriod:   17,
		Visibility:    models.VisibilityPrivate,
		WaiverBudget:  decimal.NewFromInt(100),
		LastSyncedAt:  syncedAt,
	}
	return repository.SyncBatch{
		League: league,
		Teams: []models.Team{
			{LeagueID: "lg-1", ExternalID: 1, Name: "Gridiron Gurus", Abbreviation: "GG", Wins: 3, Losses: 1, PointsFor: 512.4, PointsAgainst: 470.1},
			{LeagueID: "lg-1", ExternalID: 2, Name: "Bench Warmers", Abbreviation: "BW", Wins: 1, Losses: 3, PointsFor: 430.9, PointsAgainst: 501.2},
		},
		Players: []models.Player{
			{ID: 101, FullName: "Josh Allen", Position: models.PositionQB, PositionCode: 1, ProTeamID: 2, ProTeam: "BUF", ByeWeek: 7, Active: true, InjuryStatus: "ACTIVE",
				EligibleSlots: []models.LineupSlot{models.SlotQB, models.SlotOP, models.SlotBench, models.SlotIR}},
			{ID: 202, FullName: "Bijan Robinson", Position: models.PositionRB, PositionCode: 2, ProTeamID: 1, ProTeam: "ATL", ByeWeek: 5, Active: true, InjuryStatus: "ACTIVE"},
		},
		Rosters: []models.RosterEntry{
			{LeagueID: "lg-1", TeamID: 1, PlayerID: 101, Period: 5, Slot: models.SlotQB, SlotCode: 0, Current: true},
			{LeagueID: "lg-1", TeamID: 2, PlayerID: 202, Period: 5, Slot: models.SlotRB, SlotCode: 2, Current: true},
		},
		Matchups: []models.Matchup{
			{LeagueID: "lg-1", ExternalID: 9, Period: 5, HomeTeamID: 1, AwayTeamID: 2, HomeScore: 101.5, AwayScore: 88.25, Winner: models.WinnerHome},
		},
		Transactions: []models.WaiverTransaction{
			{ID: "tx-1:0", LeagueID: "lg-1", TeamID: 1, PlayerID: 101, Type: models.TransactionAdd, BidAmount: decimal.NewFromInt(12),
				Status: models.TransactionSuccessful, Period: 4, OccurredAt: syncedAt.Add(-48 * time.Hour)},
		},
	}
}

func mustCommit(t *testing.T, s repository.Store, b repository.SyncBatch) {
	t.Helper()
	if err := s.CommitSync(context.Background(), b); err != nil {
		t.Fatalf("commit sync: %v", err)
	}
}

func testLeagueRoundTrip(t *testing.T, s repository.Store) {
	ctx := context.Background()
	want := Batch().League
	want.WaiverBudget = decimal.RequireFromString("250.50")
	if err := s.UpsertLeague(ctx, want); err != nil {
		t.Fatalf("upsert league: %v", err)
	}

	got, err := s.GetLeague(ctx, want.ID)
	if err != nil {
		t.Fatalf("get league: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("league = %+v, want %+v", got, want)
	}
	if !got.LastSyncedAt.Equal(want.LastSyncedAt) {
		t.Fatalf("last synced = %v, want %v", got.LastSyncedAt, want.LastSyncedAt)
	}

	byExt, err := s.GetLeagueByExternalID(ctx, want.ExternalID, want.SeasonYear)
	if err != nil {
		t.Fatalf("get league by external id: %v", err)
	}
	if byExt.ID != want.ID {
		t.Fatalf("league id = %q, want %q", byExt.ID, want.ID)
	}

	leagues, err := s.ListLeagues(ctx)
	if err != nil {
		t.Fatalf("list leagues: %v", err)
	}
	if len(leagues) != 1 {
		t.Fatalf("leagues = %d, want 1", len(leagues))
	}
}

func testDuplicateExternalLeague(t *testing.T, s repository.Store) {
	ctx := context.Background()
	first := Batch().League
	if err := s.UpsertLeague(ctx, first); err != nil {
		t.Fatalf("upsert league: %v", err)
	}
	second := first
	second.ID = "lg-2"
	err := s.UpsertLeague(ctx, second)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("upsert duplicate = %v, want validation error", err)
	}

	nextSeason := second
	nextSeason.SeasonYear = 2026
	if err := s.UpsertLeague(ctx, nextSeason); err != nil {
		t.Fatalf("upsert next season: %v", err)
	}
}

func testNotFound(t *testing.T, s repository.Store) {
	ctx := context.Background()
	if _, err := s.GetLeague(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("get league = %v, want not found", err)
	}
	if _, err := s.LeagueState(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("league state = %v, want not found", err)
	}
	if _, err := s.GetTradeProposal(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("get trade = %v, want not found", err)
	}

	mustCommit(t, s, Batch())
	if _, err := s.GetTeam(ctx, "lg-1", 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("get team = %v, want not found", err)
	}
}

func testCommitSyncAndState(t *testing.T, s repository.Store) {
	ctx := context.Background()
	b := Batch()
	mustCommit(t, s, b)

	state, err := s.LeagueState(ctx, "lg-1")
	if err != nil {
		t.Fatalf("league state: %v", err)
	}
	if !state.League.Equal(b.League) {
		t.Fatalf("league = %+v, want %+v", state.League, b.League)
	}
	if len(state.Teams) != 2 || !state.Teams[0].SyncedEqual(b.Teams[0]) || !state.Teams[1].SyncedEqual(b.Teams[1]) {
		t.Fatalf("teams = %+v, want %+v", state.Teams, b.Teams)
	}
	if len(state.Rosters) != 2 {
		t.Fatalf("rosters = %d, want 2", len(state.Rosters))
	}
	if got := state.Rostered()[202]; got != 2 {
		t.Fatalf("player 202 team = %d, want 2", got)
	}
	if len(state.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(state.Players))
	}
	if len(state.Matchups) != 1 || state.Matchups[0] != b.Matchups[0] {
		t.Fatalf("matchups = %+v, want %+v", state.Matchups, b.Matchups)
	}
	if len(state.Transactions) != 1 || !state.Transactions[0].Equal(b.Transactions[0]) {
		t.Fatalf("transactions = %+v, want %+v", state.Transactions, b.Transactions)
	}

	// Replaying the same batch changes nothing.
	mustCommit(t, s, b)
	again, err := s.LeagueState(ctx, "lg-1")
	if err != nil {
		t.Fatalf("league state: %v", err)
	}
	if len(again.Rosters) != 2 || len(again.Transactions) != 1 || len(again.Matchups) != 1 {
		t.Fatalf("replay state = %d rosters, %d transactions, %d matchups", len(again.Rosters), len(again.Transactions), len(again.Matchups))
	}
}

func testStateMatchupPeriod(t *testing.T, s repository.Store) {
	ctx := context.Background()
	b := Batch()
	b.League.CurrentPeriod = 16
	b.League.CurrentMatchupPeriod = 15
	b.Matchups = []models.Matchup{
		{LeagueID: "lg-1", ExternalID: 9, Period: 15, HomeTeamID: 1, AwayTeamID: 2, HomeScore: 101.5, AwayScore: 88.25, Winner: models.WinnerHome},
		{LeagueID: "lg-1", ExternalID: 10, Period: 16, HomeTeamID: 2, AwayTeamID: 1, Winner: models.WinnerUndecided},
	}
	mustCommit(t, s, b)

	state, err := s.LeagueState(ctx, "lg-1")
	if err != nil {
		t.Fatalf("league state: %v", err)
	}
	if !state.League.Equal(b.League) {
		t.Fatalf("league = %+v, want %+v", state.League, b.League)
	}
	if len(state.Matchups) != 1 || state.Matchups[0] != b.Matchups[0] {
		t.Fatalf("matchups = %+v, want only the period 15 matchup", state.Matchups)
	}
}

func testRosterMove(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustCommit(t, s, Batch())

	move := Batch()
	move.Rosters = []models.RosterEntry{
		{LeagueID: "lg-1", TeamID: 2, PlayerID: 101, Period: 5, Slot: models.SlotBench, SlotCode: 20, Current: true},
		{LeagueID: "lg-1", TeamID: 1, PlayerID: 101, Period: 5, Slot: models.SlotQB, SlotCode: 0, Current: false},
	}
	mustCommit(t, s, move)

	current, err := s.ListRoster(ctx, "lg-1", repository.RosterFilter{CurrentOnly: true})
	if err != nil {
		t.Fatalf("list roster: %v", err)
	}
	owners := map[int64]int{}
	for _, e := range current {
		owners[e.PlayerID] = e.TeamID
	}
	if owners[101] != 2 {
		t.Fatalf("player 101 team = %d, want 2", owners[101])
	}

	all, err := s.ListRoster(ctx, "lg-1", repository.RosterFilter{TeamID: 1})
	if err != nil {
		t.Fatalf("list roster: %v", err)
	}
	if len(all) != 1 || all[0].Current {
		t.Fatalf("team 1 roster = %+v, want one retired entry", all)
	}
}

func testDuplicateCurrentRoster(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustCommit(t, s, Batch())

	bad := Batch()
	bad.League.Name = "Renamed"
	bad.Rosters = append(bad.Rosters, models.RosterEntry{
		LeagueID: "lg-1", TeamID: 2, PlayerID: 101, Period: 5, Slot: models.SlotBench, SlotCode: 20, Current: true,
	})
	err := s.CommitSync(ctx, bad)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("commit = %v, want validation error", err)
	}

	league, err := s.GetLeague(ctx, "lg-1")
	if err != nil {
		t.Fatalf("get league: %v", err)
	}
	if league.Name != "Sunday Funday" {
		t.Fatalf("league name = %q, want unchanged", league.Name)
	}
}

func testNegativeBid(t *testing.T, s repository.Store) {
	ctx := context.Background()
	b := Batch()
	b.Transactions[0].BidAmount = decimal.NewFromInt(-1)
	if err := s.CommitSync(ctx, b); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("commit = %v, want validation error", err)
	}
	if _, err := s.GetLeague(ctx, "lg-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("get league = %v, want not found", err)
	}
}

func testCanceledCommit(t *testing.T, s repository.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.CommitSync(ctx, Batch()); !errors.Is(err, context.Canceled) {
		t.Fatalf("commit = %v, want context.Canceled", err)
	}
	if _, err := s.GetLeague(context.Background(), "lg-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("get league = %v, want not found", err)
	}
}

func testResyncPreservesOwner(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustCommit(t, s, Batch())
	if err := s.ClaimTeam(ctx, "lg-1", 1, "user-a"); err != nil {
		t.Fatalf("claim team: %v", err)
	}
	mustCommit(t, s, Batch())

	team, err := s.GetTeam(ctx, "lg-1", 1)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if team.OwnerUserID != "user-a" {
		t.Fatalf("owner = %q, want %q", team.OwnerUserID, "user-a")
	}
}

func testClaimTeam(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustCommit(t, s, Batch())
	if err := s.ClaimTeam(ctx, "lg-1", 1, "user-a"); err != nil {
		t.Fatalf("claim team: %v", err)
	}
	if err := s.ClaimTeam(ctx, "lg-1", 1, "user-a"); err != nil {
		t.Fatalf("reclaim same team: %v", err)
	}
	if err := s.ClaimTeam(ctx, "lg-1", 2, "user-a"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("claim second team = %v, want validation error", err)
	}
	if err := s.ClaimTeam(ctx, "lg-1", 2, "user-b"); err != nil {
		t.Fatalf("claim by other user: %v", err)
	}
	if err := s.ClaimTeam(ctx, "lg-1", 3, "user-c"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("claim missing team = %v, want not found", err)
	}
}

func testTransactionsOrder(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustCommit(t, s, Batch())

	later := models.WaiverTransaction{
		ID: "tx-2:0", LeagueID: "lg-1", TeamID: 2, PlayerID: 202, Type: models.TransactionAdd,
		BidAmount: decimal.RequireFromString("7.5"), Status: models.TransactionPending, Period: 5, OccurredAt: syncedAt,
	}
	if err := s.UpsertTransaction(ctx, later); err != nil {
		t.Fatalf("upsert transaction: %v", err)
	}

	all, err := s.ListTransactions(ctx, "lg-1", repository.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(all) != 2 || all[0].ID != "tx-2:0" {
		t.Fatalf("transactions = %+v, want tx-2:0 first", all)
	}
	if !all[0].BidAmount.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("bid = %s, want 7.5", all[0].BidAmount)
	}

	limited, err := s.ListTransactions(ctx, "lg-1", repository.TransactionFilter{TeamID: 1, Limit: 5})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(limited) != 1 || limited[0].TeamID != 1 {
		t.Fatalf("team 1 transactions = %+v", limited)
	}
}

func testTradeLifecycle(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustCommit(t, s, Batch())

	p := models.TradeProposal{
		ID: "trade-1", LeagueID: "lg-1", ProposingTeamID: 1, ReceivingTeamID: 2,
		Give: []int64{101}, Receive: []int64{202}, FairnessScore: 60, ValueDifference: 40,
		Status: models.TradePending, CreatedAt: syncedAt, ExpiresAt: syncedAt.Add(models.TradeProposalTTL),
	}
	if err := s.SaveTradeProposal(ctx, p); err != nil {
		t.Fatalf("save trade: %v", err)
	}

	got, err := s.GetTradeProposal(ctx, "trade-1")
	if err != nil {
		t.Fatalf("get trade: %v", err)
	}
	if got.FairnessScore != 60 || len(got.Give) != 1 || got.Give[0] != 101 || !got.ExpiresAt.Equal(p.ExpiresAt) {
		t.Fatalf("trade = %+v, want %+v", got, p)
	}

	if err := s.UpdateTradeStatus(ctx, "trade-1", models.TradePending, models.TradeAccepted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := s.UpdateTradeStatus(ctx, "trade-1", models.TradePending, models.TradeRejected); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("stale update = %v, want validation error", err)
	}
	if err := s.UpdateTradeStatus(ctx, "missing", models.TradePending, models.TradeRejected); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing update = %v, want not found", err)
	}

	list, err := s.ListTradeProposals(ctx, "lg-1")
	if err != nil {
		t.Fatalf("list trades: %v", err)
	}
	if len(list) != 1 || list[0].Status != models.TradeAccepted {
		t.Fatalf("trades = %+v, want one accepted", list)
	}
}

func testPlayerRoundTrip(t *testing.T, s repository.Store) {
	ctx := context.Background()
	b := Batch()
	b.Players[0].Stats = []models.StatLine{
		{Period: 0, Source: models.StatSourceActual, Total: 101.36, Stats: []models.NamedStat{{Code: 3, Category: "passYards", Value: 1204}}},
		{Period: 5, Source: models.StatSourceProjected, Total: 22.4},
	}
	mustCommit(t, s, b)

	got, err := s.GetPlayers(ctx, []int64{101, 202, 999})
	if err != nil {
		t.Fatalf("get players: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("players = %d, want 2", len(got))
	}
	if !got[101].Equal(b.Players[0]) {
		t.Fatalf("player 101 = %+v, want %+v", got[101], b.Players[0])
	}
	if got[202].EligibleSlots != nil {
		t.Fatalf("player 202 eligible slots = %v, want nil", got[202].EligibleSlots)
	}

	all, err := s.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(all) != 2 || all[0].ID != 101 {
		t.Fatalf("list players = %+v", all)
	}
}
