package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/omarshaarawi/leaguedesk/internal/api/espn"
	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/credentials"
	"github.com/omarshaarawi/leaguedesk/internal/leaguesync"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository/memory"
	"github.com/omarshaarawi/leaguedesk/internal/trade"
)

type fakeFetcher struct {
	mu        sync.Mutex
	league    *espn.LeagueResponse
	matchups  []espn.MatchupScore
	txs       []espn.Transaction
	free      []espn.PlayerPoolEntry
	leagueErr error
	lastCreds credentials.Credentials
}

func (f *fakeFetcher) League(ctx context.Context, ref espn.LeagueRef, creds credentials.Credentials) (*espn.LeagueResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCreds = creds
	if f.leagueErr != nil {
		return nil, f.leagueErr
	}
	return f.league, nil
}

func (f *fakeFetcher) Matchups(ctx context.Context, ref espn.LeagueRef, period int, creds credentials.Credentials) ([]espn.MatchupScore, error) {
	return f.matchups, nil
}

func (f *fakeFetcher) Transactions(ctx context.Context, ref espn.LeagueRef, period int, creds credentials.Credentials) ([]espn.Transaction, error) {
	return f.txs, nil
}

func (f *fakeFetcher) FreeAgents(ctx context.Context, ref espn.LeagueRef, period, limit int, creds credentials.Credentials) ([]espn.PlayerPoolEntry, error) {
	return f.free, nil
}

func (f *fakeFetcher) ProSchedule(ctx context.Context, season int, creds credentials.Credentials) ([]espn.ProTeamInfo, error) {
	return []espn.ProTeamInfo{{ID: 1, Abbrev: "ATL", ByeWeek: 5}, {ID: 2, Abbrev: "BUF", ByeWeek: 7}}, nil
}

func player(id, position int, name string, points float64) espn.Player {
	return espn.Player{
		ID:                id,
		FullName:          name,
		DefaultPositionID: position,
		ProTeamID:         2,
		Stats: []espn.Stat{
			{StatSourceID: 0, ScoringPeriodID: 4, AppliedTotal: points},
			{StatSourceID: 1, ScoringPeriodID: 5, AppliedTotal: points},
		},
	}
}

func entry(p espn.Player, slot int) espn.RosterEntry {
	return espn.RosterEntry{PlayerID: p.ID, LineupSlotID: slot, PlayerPoolEntry: espn.PlayerPoolEntry{ID: p.ID, Player: p}}
}

func team(id int, name string, wins, losses int, pointsFor float64, entries ...espn.RosterEntry) espn.Team {
	return espn.Team{
		ID:     id,
		Name:   name,
		Record: espn.Record{Overall: espn.RecordDetails{Wins: wins, Losses: losses, PointsFor: pointsFor}},
		Roster: espn.Roster{Entries: entries},
	}
}

func newFetcher() *fakeFetcher {
	allen := player(101, 1, "Josh Allen", 24)
	bijan := player(202, 2, "Bijan Robinson", 18)
	rice := player(303, 3, "Rashee Rice", 12)
	puka := player(304, 3, "Puka Nacua", 16)
	puka.InjuryStatus = "QUESTIONABLE"
	free := player(404, 3, "Jalen McMillan", 6)

	return &fakeFetcher{
		league: &espn.LeagueResponse{
			ID:              777,
			ScoringPeriodID: 5,
			SeasonID:        2025,
			Status:          espn.Status{CurrentMatchupPeriod: 5, FinalScoringPeriod: 17},
			Settings: espn.Settings{
				Name:                "Sunday Funday",
				Size:                3,
				AcquisitionSettings: espn.AcquisitionSettings{AcquisitionBudget: 200, IsUsingAcquisitionBudget: true},
			},
			Teams: []espn.Team{
				team(1, "Gridiron Gurus", 3, 1, 512.4, entry(allen, 0), entry(rice, 20)),
				team(2, "Bench Warmers", 3, 1, 530.0, entry(bijan, 2)),
				team(3, "Taco Corp", 1, 3, 480.2, entry(puka, 4)),
			},
		},
		matchups: []espn.MatchupScore{
			{ID: 1, MatchupPeriodID: 5, Home: espn.TeamScore{TeamID: 1, TotalPoints: 101.5}, Away: espn.TeamScore{TeamID: 2, TotalPoints: 88.25}, Winner: "HOME"},
			{ID: 2, MatchupPeriodID: 5, Home: espn.TeamScore{TeamID: 3, TotalPoints: 120}, Winner: "HOME"},
		},
		txs: []espn.Transaction{
			{ID: "abc", Type: "WAIVER", Status: "EXECUTED", TeamID: 1, BidAmount: 12, ScoringPeriodID: 5, ProcessDate: 1759800000000,
				Items: []espn.TransactionItem{{PlayerID: 303, Type: "ADD", ToTeamID: 1}}},
			{ID: "def", Type: "WAIVER", Status: "PENDING", TeamID: 2, BidAmount: 30, ScoringPeriodID: 5, ProposedDate: 1759810000000,
				Items: []espn.TransactionItem{{PlayerID: 404, Type: "ADD", ToTeamID: 2}}},
		},
		free: []espn.PlayerPoolEntry{{ID: 404, Player: free}},
	}
}

var now = time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc     *FantasyService
	fetcher *fakeFetcher
	creds   *credentials.Static
	clock   clockwork.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		fetcher: newFetcher(),
		creds:   credentials.NewStatic(),
		clock:   clockwork.NewFakeClockAt(now),
	}
	store := memory.NewRepository()
	engine := leaguesync.NewEngine(store, h.fetcher, h.creds,
		leaguesync.WithClock(h.clock),
		leaguesync.WithLogger(logger),
	)
	h.svc = NewFantasyService(store, engine, h.creds, config.DefaultPolicy(),
		WithClock(h.clock),
		WithLogger(logger),
	)
	return h
}

// connect registers the fixture league and returns its id.
func (h *harness) connect(t *testing.T) string {
	t.Helper()
	res, err := h.svc.ConnectLeague(context.Background(), ConnectRequest{ExternalID: "777", Season: 2025, UserID: "user-1"})
	if err != nil {
		t.Fatalf("ConnectLeague() error = %v", err)
	}
	return res.League.ID
}

func TestConnectLeagueRunsInitialSync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.ConnectLeague(ctx, ConnectRequest{ExternalID: "777", Season: 2025, UserID: "user-1"})
	if err != nil {
		t.Fatalf("ConnectLeague() error = %v", err)
	}
	if !res.Created {
		t.Error("Created = false, want true")
	}
	if res.League.Name != "Sunday Funday" || res.League.CurrentPeriod != 5 {
		t.Errorf("league = %q period %d, want Sunday Funday period 5", res.League.Name, res.League.CurrentPeriod)
	}
	if res.League.Visibility != models.VisibilityPublic {
		t.Errorf("Visibility = %s, want public", res.League.Visibility)
	}
	if res.Sync.TeamsUpdated != 3 {
		t.Errorf("TeamsUpdated = %d, want 3", res.Sync.TeamsUpdated)
	}
	if !res.League.LastSyncedAt.Equal(now) {
		t.Errorf("LastSyncedAt = %v, want %v", res.League.LastSyncedAt, now)
	}

	again, err := h.svc.ConnectLeague(ctx, ConnectRequest{ExternalID: "777", Season: 2025, UserID: "user-2"})
	if err != nil {
		t.Fatalf("second ConnectLeague() error = %v", err)
	}
	if again.Created || again.League.ID != res.League.ID {
		t.Errorf("second connect = (created %v, id %s), want existing %s", again.Created, again.League.ID, res.League.ID)
	}

	leagues, err := h.svc.ListLeagues(ctx)
	if err != nil {
		t.Fatalf("ListLeagues() error = %v", err)
	}
	if len(leagues) != 1 || leagues[0].Status.State != leaguesync.StateIdle {
		t.Errorf("ListLeagues() = %+v, want one idle league", leagues)
	}
}

func TestConnectLeaguePrivateWhenCredentialsKnown(t *testing.T) {
	h := newHarness(t)
	h.creds.Set("user-1", credentials.Credentials{SWID: "{swid}", ESPNS2: "s2"})

	res, err := h.svc.ConnectLeague(context.Background(), ConnectRequest{ExternalID: "777", Season: 2025, UserID: "user-1"})
	if err != nil {
		t.Fatalf("ConnectLeague() error = %v", err)
	}
	if res.League.Visibility != models.VisibilityPrivate {
		t.Errorf("Visibility = %s, want private", res.League.Visibility)
	}
	if h.fetcher.lastCreds.SWID != "{swid}" {
		t.Errorf("fetch used SWID %q, want {swid}", h.fetcher.lastCreds.SWID)
	}
}

func TestConnectLeagueRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		req  ConnectRequest
	}{
		{name: "missing id", req: ConnectRequest{Season: 2025}},
		{name: "missing season", req: ConnectRequest{ExternalID: "777"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.ConnectLeague(context.Background(), tt.req)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("ConnectLeague() error = %v, want validation", err)
			}
		})
	}
}

func TestGetTeamsRanksByWinPercentageThenPointsFor(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	res, err := h.svc.GetTeams(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTeams() error = %v", err)
	}
	want := []int{2, 1, 3}
	if len(res.Standings) != len(want) {
		t.Fatalf("len(Standings) = %d, want %d", len(res.Standings), len(want))
	}
	for i, s := range res.Standings {
		if s.Team.ExternalID != want[i] || s.Rank != i+1 {
			t.Errorf("Standings[%d] = team %d rank %d, want team %d rank %d", i, s.Team.ExternalID, s.Rank, want[i], i+1)
		}
	}
	if res.Freshness.Degraded {
		t.Errorf("Freshness.Degraded = true (%s), want false", res.Freshness.Reason)
	}
}

func TestGetRosterSplitsStartersAndBench(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	res, err := h.svc.GetRoster(context.Background(), id, 1)
	if err != nil {
		t.Fatalf("GetRoster() error = %v", err)
	}
	if len(res.Starters) != 1 || res.Starters[0].Player.FullName != "Josh Allen" {
		t.Errorf("Starters = %+v, want Josh Allen", res.Starters)
	}
	if len(res.Bench) != 1 || res.Bench[0].Player.ID != 303 {
		t.Errorf("Bench = %+v, want player 303", res.Bench)
	}
	if res.Starters[0].Value.Value <= 0 {
		t.Errorf("starter value = %v, want > 0", res.Starters[0].Value.Value)
	}

	if _, err := h.svc.GetRoster(context.Background(), id, 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetRoster(unknown team) error = %v, want not found", err)
	}
}

func TestWeeklyRecap(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	report, err := h.svc.WeeklyRecap(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("WeeklyRecap() error = %v", err)
	}
	if report.Period != 5 {
		t.Errorf("Period = %d, want 5", report.Period)
	}
	if len(report.Games) != 1 {
		t.Fatalf("len(Games) = %d, want 1 (bye skipped)", len(report.Games))
	}

	want := []models.Trophy{
		{Category: TrophyHighScore, Team: "Gridiron Gurus", Value: 101.5},
		{Category: TrophyLowScore, Team: "Bench Warmers", Value: 88.25},
		{Category: TrophyBiggestWin, Team: "Gridiron Gurus", Value: 13.25},
		{Category: TrophyClosestWin, Team: "Gridiron Gurus", Value: 13.25},
	}
	if len(report.Trophies) != len(want) {
		t.Fatalf("Trophies = %+v, want %+v", report.Trophies, want)
	}
	for i := range want {
		if report.Trophies[i] != want[i] {
			t.Errorf("Trophies[%d] = %+v, want %+v", i, report.Trophies[i], want[i])
		}
	}
}

func TestGetMatchupsDefaultsToMatchupPeriod(t *testing.T) {
	h := newHarness(t)
	h.fetcher.league.ScoringPeriodID = 16
	h.fetcher.league.Status.CurrentMatchupPeriod = 15
	for i := range h.fetcher.matchups {
		h.fetcher.matchups[i].MatchupPeriodID = 15
	}
	id := h.connect(t)

	res, err := h.svc.GetMatchups(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("GetMatchups() error = %v", err)
	}
	if res.Period != 15 {
		t.Errorf("Period = %d, want 15", res.Period)
	}
	if len(res.Matchups) != 2 {
		t.Errorf("len(Matchups) = %d, want 2", len(res.Matchups))
	}

	report, err := h.svc.WeeklyRecap(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("WeeklyRecap() error = %v", err)
	}
	if report.Period != 15 || len(report.Games) != 1 {
		t.Errorf("recap = period %d with %d games, want period 15 with 1 game", report.Period, len(report.Games))
	}
}

func TestProcessScoresTieHasNoWinner(t *testing.T) {
	report := processScores([]MatchupView{
		{Matchup: models.Matchup{HomeTeamID: 1, AwayTeamID: 2, HomeScore: 90, AwayScore: 90}, HomeTeam: "A", AwayTeam: "B"},
	})
	if len(report.Trophies) != 2 {
		t.Fatalf("Trophies = %+v, want only high and low score", report.Trophies)
	}
	if got := processScores(nil); len(got.Trophies) != 0 || len(got.Games) != 0 {
		t.Errorf("processScores(nil) = %+v, want empty", got)
	}
}

func TestFindCloseGames(t *testing.T) {
	games := findCloseGames([]MatchupView{
		{Matchup: models.Matchup{ExternalID: 1, HomeTeamID: 1, AwayTeamID: 2, HomeScore: 100, AwayScore: 60}},
		{Matchup: models.Matchup{ExternalID: 2, HomeTeamID: 3, AwayTeamID: 4, HomeScore: 80, AwayScore: 70}},
		{Matchup: models.Matchup{ExternalID: 3, HomeTeamID: 5, AwayTeamID: 6, HomeScore: 91, AwayScore: 88.5}},
		{Matchup: models.Matchup{ExternalID: 4, HomeTeamID: 7, HomeScore: 50}},
	})
	if len(games) != 2 {
		t.Fatalf("len(games) = %d, want 2", len(games))
	}
	if games[0].ExternalID != 3 || games[0].Margin != 2.5 || games[1].ExternalID != 2 {
		t.Errorf("games = %+v, want matchups 3 then 2", games)
	}
}

func TestFreshnessDegradesWhenUpstreamFails(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)
	ctx := context.Background()

	h.fetcher.mu.Lock()
	h.fetcher.leagueErr = &espn.UpstreamError{StatusCode: 503, LeagueID: "777", Attempts: 4, Err: apperr.New(apperr.KindUpstreamUnavailable, "server error")}
	h.fetcher.mu.Unlock()

	_, err := h.svc.SyncLeague(ctx, id)
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("SyncLeague() error = %v, want upstream unavailable", err)
	}

	res, err := h.svc.GetTeams(ctx, id)
	if err != nil {
		t.Fatalf("GetTeams() error = %v", err)
	}
	if len(res.Standings) != 3 {
		t.Errorf("len(Standings) = %d, want persisted 3", len(res.Standings))
	}
	if !res.Freshness.Degraded || !strings.Contains(res.Freshness.Reason, "upstream_unavailable") {
		t.Errorf("Freshness = %+v, want degraded by upstream failure", res.Freshness)
	}
	if !res.Freshness.LastSyncedAt.Equal(now) {
		t.Errorf("LastSyncedAt = %v, want %v", res.Freshness.LastSyncedAt, now)
	}
}

func TestFreshnessDegradesWhenStale(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	h.clock.Advance(2 * time.Hour)
	res, err := h.svc.GetMatchups(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("GetMatchups() error = %v", err)
	}
	if !res.Freshness.Degraded || !strings.Contains(res.Freshness.Reason, "2h0m0s ago") {
		t.Errorf("Freshness = %+v, want stale", res.Freshness)
	}
	if len(res.Matchups) != 2 || res.Matchups[0].HomeTeam != "Gridiron Gurus" || res.Matchups[1].AwayTeam != "BYE" {
		t.Errorf("Matchups = %+v", res.Matchups)
	}
}

func TestWaiverBudgets(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)
	ctx := context.Background()

	res, err := h.svc.GetWaiverBudgets(ctx, id, 0)
	if err != nil {
		t.Fatalf("GetWaiverBudgets() error = %v", err)
	}
	if len(res.Budgets) != 3 {
		t.Fatalf("len(Budgets) = %d, want 3", len(res.Budgets))
	}
	gurus, warmers := res.Budgets[0], res.Budgets[1]
	if !gurus.Spent.Equal(decimal.NewFromInt(12)) || !gurus.Remaining.Equal(decimal.NewFromInt(188)) {
		t.Errorf("team 1 spent/remaining = %s/%s, want 12/188", gurus.Spent, gurus.Remaining)
	}
	if !warmers.Spent.IsZero() || !warmers.PendingBids.Equal(decimal.NewFromInt(30)) || warmers.PendingCount != 1 {
		t.Errorf("team 2 = %+v, want nothing spent and one pending bid of 30", warmers)
	}

	budget, err := h.svc.RecordTransaction(ctx, models.WaiverTransaction{
		LeagueID:  id,
		TeamID:    2,
		PlayerID:  404,
		Type:      models.TransactionAdd,
		Status:    models.TransactionSuccessful,
		BidAmount: decimal.NewFromInt(20),
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	if !budget.Spent.Equal(decimal.NewFromInt(20)) || !budget.Remaining.Equal(decimal.NewFromInt(180)) {
		t.Errorf("budget after record = %s/%s, want 20/180", budget.Spent, budget.Remaining)
	}

	one, err := h.svc.GetWaiverBudgets(ctx, id, 2)
	if err != nil {
		t.Fatalf("GetWaiverBudgets(team 2) error = %v", err)
	}
	if len(one.Budgets) != 1 || one.Budgets[0].TeamName != "Bench Warmers" {
		t.Errorf("GetWaiverBudgets(team 2) = %+v", one.Budgets)
	}
}

func TestRecordTransactionValidates(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	tests := []struct {
		name string
		tx   models.WaiverTransaction
	}{
		{name: "type", tx: models.WaiverTransaction{LeagueID: id, TeamID: 1, PlayerID: 1, Type: "SWAP"}},
		{name: "negative bid", tx: models.WaiverTransaction{LeagueID: id, TeamID: 1, PlayerID: 1, Type: models.TransactionAdd, BidAmount: decimal.NewFromInt(-1)}},
		{name: "player", tx: models.WaiverTransaction{LeagueID: id, TeamID: 1, Type: models.TransactionAdd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.svc.RecordTransaction(context.Background(), tt.tx); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("RecordTransaction() error = %v, want validation", err)
			}
		})
	}
}

func TestSearchPlayers(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	tests := []struct {
		query    string
		wantID   int64
		wantTeam string
	}{
		{query: "josh alen", wantID: 101, wantTeam: "Gridiron Gurus"},
		{query: "Rice", wantID: 303, wantTeam: "Gridiron Gurus"},
		{query: "jalen mcmillan", wantID: 404, wantTeam: ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			hits, err := h.svc.SearchPlayers(context.Background(), id, tt.query, 0)
			if err != nil {
				t.Fatalf("SearchPlayers() error = %v", err)
			}
			if len(hits) == 0 {
				t.Fatal("SearchPlayers() returned no hits")
			}
			if hits[0].Player.ID != tt.wantID || hits[0].TeamName != tt.wantTeam {
				t.Errorf("first hit = %d on %q, want %d on %q", hits[0].Player.ID, hits[0].TeamName, tt.wantID, tt.wantTeam)
			}
		})
	}

	hits, err := h.svc.SearchPlayers(context.Background(), id, "zzzzzz", 0)
	if err != nil || len(hits) != 0 {
		t.Errorf("SearchPlayers(zzzzzz) = %v, %v, want no hits", hits, err)
	}
}

func TestFindTeam(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	tests := []struct {
		in   string
		want int
	}{
		{in: "bench warmer", want: 2},
		{in: "3", want: 3},
		{in: "Gridiron Guru", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := h.svc.FindTeam(context.Background(), id, tt.in)
			if err != nil {
				t.Fatalf("FindTeam() error = %v", err)
			}
			if got.ExternalID != tt.want {
				t.Errorf("FindTeam() = %d, want %d", got.ExternalID, tt.want)
			}
		})
	}
	if _, err := h.svc.FindTeam(context.Background(), id, "nobody at all"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("FindTeam(nobody) error = %v, want not found", err)
	}
}

func TestClaimTeamOnePerUser(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)
	ctx := context.Background()

	got, err := h.svc.ClaimTeam(ctx, id, 1, "user-1")
	if err != nil {
		t.Fatalf("ClaimTeam() error = %v", err)
	}
	if got.OwnerUserID != "user-1" {
		t.Errorf("OwnerUserID = %q, want user-1", got.OwnerUserID)
	}
	if _, err := h.svc.ClaimTeam(ctx, id, 2, "user-1"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("second claim error = %v, want validation", err)
	}
}

func TestTradeLifecycle(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)
	ctx := context.Background()
	req := trade.Request{LeagueID: id, ProposingTeamID: 1, ReceivingTeamID: 2, Give: []int64{101}, Receive: []int64{202}}

	ev, err := h.svc.EvaluateTrade(ctx, req)
	if err != nil {
		t.Fatalf("EvaluateTrade() error = %v", err)
	}
	if !ev.IsValid || ev.FairnessScore <= 0 || ev.FairnessScore > 100 {
		t.Errorf("evaluation = valid %v fairness %v", ev.IsValid, ev.FairnessScore)
	}

	p, _, err := h.svc.ProposeTrade(ctx, req)
	if err != nil {
		t.Fatalf("ProposeTrade() error = %v", err)
	}
	if _, err := h.svc.UpdateTradeStatus(ctx, p.ID, "bogus"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("UpdateTradeStatus(bogus) error = %v, want validation", err)
	}
	updated, err := h.svc.UpdateTradeStatus(ctx, p.ID, "Accepted")
	if err != nil {
		t.Fatalf("UpdateTradeStatus() error = %v", err)
	}
	if updated.Status != models.TradeAccepted {
		t.Errorf("Status = %s, want accepted", updated.Status)
	}

	list, err := h.svc.ListTradeProposals(ctx, id)
	if err != nil {
		t.Fatalf("ListTradeProposals() error = %v", err)
	}
	if len(list) != 1 || list[0].Status != models.TradeAccepted {
		t.Errorf("ListTradeProposals() = %+v", list)
	}
}

func TestGetSuggestions(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)
	ctx := context.Background()

	res, err := h.svc.GetSuggestions(ctx, id, 1)
	if err != nil {
		t.Fatalf("GetSuggestions() error = %v", err)
	}
	if res.Team.ExternalID != 1 || res.Period != 5 {
		t.Errorf("result = team %d period %d, want team 1 period 5", res.Team.ExternalID, res.Period)
	}

	if _, err := h.svc.GetSuggestions(ctx, id, 42); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("GetSuggestions(unknown team) error = %v, want validation", err)
	}
	if _, err := h.svc.GetSuggestions(ctx, "missing", 1); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("GetSuggestions(unknown league) error = %v, want validation", err)
	}
}

func TestPlayersToMonitor(t *testing.T) {
	h := newHarness(t)
	id := h.connect(t)

	got, _, err := h.svc.PlayersToMonitor(context.Background(), id)
	if err != nil {
		t.Fatalf("PlayersToMonitor() error = %v", err)
	}
	if len(got) != 1 || got[0].Player.ID != 304 || got[0].TeamName != "Taco Corp" {
		t.Errorf("PlayersToMonitor() = %+v, want Puka Nacua on Taco Corp", got)
	}
}
