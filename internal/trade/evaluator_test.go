package trade

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
	"github.com/omarshaarawi/leaguedesk/internal/repository/memory"
)

func TestFairness(t *testing.T) {
	tests := []struct {
		name      string
		give      float64
		receive   float64
		wantScore float64
		wantDiff  float64
	}{
		{name: "proposer gains", give: 30, receive: 70, wantScore: 60, wantDiff: 40},
		{name: "proposer loses", give: 70, receive: 30, wantScore: 60, wantDiff: -40},
		{name: "even", give: 50, receive: 50, wantScore: 100, wantDiff: 0},
		{name: "both worthless", give: 0, receive: 0, wantScore: 100, wantDiff: 0},
		{name: "nothing for something", give: 0, receive: 10, wantScore: 0, wantDiff: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, diff := Fairness(tt.give, tt.receive)
			if score != tt.wantScore || diff != tt.wantDiff {
				t.Errorf("Fairness(%v, %v) = (%v, %v), want (%v, %v)", tt.give, tt.receive, score, diff, tt.wantScore, tt.wantDiff)
			}
		})
	}
}

func TestFairnessIsSymmetric(t *testing.T) {
	pairs := [][2]float64{{1, 2}, {12.5, 7.25}, {100, 0.5}, {33.3, 33.4}, {0, 0}}
	for _, p := range pairs {
		s1, d1 := Fairness(p[0], p[1])
		s2, d2 := Fairness(p[1], p[0])
		if s1 != s2 || d1 != -d2 {
			t.Errorf("Fairness(%v) = (%v, %v), swapped = (%v, %v)", p, s1, d1, s2, d2)
		}
		if s1 < 0 || s1 > 100 {
			t.Errorf("Fairness(%v) score %v out of range", p, s1)
		}
	}
}

var now = time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)

func flatPlayer(id int64, name string, pos models.Position, pts float64) models.Player {
	return models.Player{
		ID: id, FullName: name, Position: pos, Active: true, InjuryStatus: "ACTIVE",
		Stats: []models.StatLine{
			{Period: 1, Source: models.StatSourceActual, Total: pts},
			{Period: 2, Source: models.StatSourceActual, Total: pts},
			{Period: 3, Source: models.StatSourceProjected, Total: pts},
		},
	}
}

// newEvaluator seeds a league at period 3. Team 1 has a 30 point WR and a
// 20 point RB; team 2 has a 70 point WR, a 50 point RB and a TE on injured
// reserve.
func newEvaluator(t *testing.T) (*Evaluator, clockwork.FakeClock) {
	t.Helper()
	store := memory.NewRepository()
	batch := repository.SyncBatch{
		League: models.League{ID: "lg", ExternalID: "1", SeasonYear: 2025, CurrentPeriod: 3, WaiverBudget: decimal.NewFromInt(100)},
		Teams: []models.Team{
			{LeagueID: "lg", ExternalID: 1, Name: "Alpha"},
			{LeagueID: "lg", ExternalID: 2, Name: "Bravo"},
		},
		Players: []models.Player{
			flatPlayer(1, "Alpha WR", models.PositionWR, 30),
			flatPlayer(2, "Alpha RB", models.PositionRB, 20),
			flatPlayer(3, "Bravo WR", models.PositionWR, 70),
			flatPlayer(4, "Bravo RB", models.PositionRB, 50),
			flatPlayer(5, "Bravo TE", models.PositionTE, 40),
		},
		Rosters: []models.RosterEntry{
			{LeagueID: "lg", TeamID: 1, PlayerID: 1, Period: 3, Slot: models.SlotWR, Current: true},
			{LeagueID: "lg", TeamID: 1, PlayerID: 2, Period: 3, Slot: models.SlotRB, Current: true},
			{LeagueID: "lg", TeamID: 2, PlayerID: 3, Period: 3, Slot: models.SlotWR, Current: true},
			{LeagueID: "lg", TeamID: 2, PlayerID: 4, Period: 3, Slot: models.SlotRB, Current: true},
			{LeagueID: "lg", TeamID: 2, PlayerID: 5, Period: 3, Slot: models.SlotIR, Current: true},
		},
	}
	if err := store.CommitSync(context.Background(), batch); err != nil {
		t.Fatalf("commit sync: %v", err)
	}

	policy := config.DefaultPolicy()
	policy.Valuation.ScarcityBonus = 0
	clock := clockwork.NewFakeClockAt(now)
	return NewEvaluator(store, policy, WithClock(clock), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), clock
}

func TestEvaluate(t *testing.T) {
	ev, _ := newEvaluator(t)
	ctx := context.Background()

	got, err := ev.Evaluate(ctx, Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{1}, Receive: []int64{3}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !got.IsValid {
		t.Fatalf("evaluation invalid: %v", got.Problems)
	}
	if got.FairnessScore != 60 || got.ValueDifference != 40 {
		t.Fatalf("fairness = %v, vd = %v, want 60, 40", got.FairnessScore, got.ValueDifference)
	}
	if got.GiveValue != 30 || got.ReceiveValue != 70 {
		t.Fatalf("values = %v/%v, want 30/70", got.GiveValue, got.ReceiveValue)
	}
	if len(got.Recommendations) == 0 || got.Summary == "" {
		t.Fatalf("evaluation has no explanation: %+v", got)
	}

	swapped, err := ev.Evaluate(ctx, Request{LeagueID: "lg", ProposingTeamID: 2, ReceivingTeamID: 1, Give: []int64{3}, Receive: []int64{1}})
	if err != nil {
		t.Fatalf("evaluate swapped: %v", err)
	}
	if swapped.FairnessScore != got.FairnessScore || swapped.ValueDifference != -got.ValueDifference {
		t.Fatalf("swapped = (%v, %v), want (%v, %v)", swapped.FairnessScore, swapped.ValueDifference, got.FairnessScore, -got.ValueDifference)
	}
}

func TestEvaluateInvalidTrades(t *testing.T) {
	ev, _ := newEvaluator(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty give", req: Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Receive: []int64{3}}},
		{name: "player not on team", req: Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{4}, Receive: []int64{3}}},
		{name: "overlap", req: Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{1}, Receive: []int64{1, 3}}},
		{name: "unknown player", req: Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{1}, Receive: []int64{999}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.Evaluate(ctx, tt.req)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got.IsValid || len(got.Problems) == 0 {
				t.Fatalf("evaluation = %+v, want invalid with problems", got)
			}
			if got.FairnessScore != 0 {
				t.Fatalf("fairness = %v, want no score", got.FairnessScore)
			}
		})
	}
}

func TestEvaluateRejectsInjuredReserve(t *testing.T) {
	ev, _ := newEvaluator(t)

	got, err := ev.Evaluate(context.Background(), Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{1}, Receive: []int64{5}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got.IsValid {
		t.Fatalf("evaluation valid, want injured reserve player rejected")
	}
	if len(got.Problems) != 1 || got.Problems[0] != "Bravo TE is on injured reserve" {
		t.Errorf("Problems = %v, want [Bravo TE is on injured reserve]", got.Problems)
	}
}

func TestEvaluateMalformedRequests(t *testing.T) {
	ev, _ := newEvaluator(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
	}{
		{name: "same team", req: Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 1, Give: []int64{1}, Receive: []int64{2}}},
		{name: "missing team", req: Request{LeagueID: "lg", ProposingTeamID: 1, Give: []int64{1}, Receive: []int64{3}}},
		{name: "team not in league", req: Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 9, Give: []int64{1}, Receive: []int64{3}}},
		{name: "unknown league", req: Request{LeagueID: "nope", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{1}, Receive: []int64{3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ev.Evaluate(ctx, tt.req); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("evaluate = %v, want validation error", err)
			}
		})
	}
}

func TestProposeAndUpdateStatus(t *testing.T) {
	ev, clock := newEvaluator(t)
	ctx := context.Background()
	req := Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{2}, Receive: []int64{4}}

	p, _, err := ev.Propose(ctx, req)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if p.Status != models.TradePending || !p.ExpiresAt.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("proposal = %+v", p)
	}

	accepted, err := ev.UpdateStatus(ctx, p.ID, models.TradeAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.TradeAccepted {
		t.Fatalf("status = %q, want accepted", accepted.Status)
	}
	if _, err := ev.UpdateStatus(ctx, p.ID, models.TradeRejected); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("reject accepted = %v, want validation error", err)
	}

	stale, _, err := ev.Propose(ctx, req)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	clock.Advance(8 * 24 * time.Hour)
	if _, err := ev.UpdateStatus(ctx, stale.ID, models.TradeAccepted); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("accept expired = %v, want validation error", err)
	}

	list, err := ev.List(ctx, "lg")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	statuses := map[string]models.TradeStatus{}
	for _, l := range list {
		statuses[l.ID] = l.Status
	}
	if statuses[p.ID] != models.TradeAccepted || statuses[stale.ID] != models.TradeExpired {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestProposeRejectsInvalidTrade(t *testing.T) {
	ev, _ := newEvaluator(t)
	_, got, err := ev.Propose(context.Background(), Request{LeagueID: "lg", ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{3}, Receive: []int64{1}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("propose = %v, want validation error", err)
	}
	if got.IsValid {
		t.Fatal("evaluation should be invalid")
	}
}

func TestUpdateStatusRejectsDerivedStatuses(t *testing.T) {
	ev, _ := newEvaluator(t)
	for _, s := range []models.TradeStatus{models.TradePending, models.TradeExpired, "bogus"} {
		if _, err := ev.UpdateStatus(context.Background(), "any", s); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("UpdateStatus(%q) = %v, want validation error", s, err)
		}
	}
}
