package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"

	"github.com/omarshaarawi/leaguedesk/internal/api/espn"
	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/credentials"
	"github.com/omarshaarawi/leaguedesk/internal/leaguesync"
	"github.com/omarshaarawi/leaguedesk/internal/repository/memory"
	"github.com/omarshaarawi/leaguedesk/internal/service"
)

type stubFetcher struct {
	league *espn.LeagueResponse
	err    error
}

func (f *stubFetcher) League(context.Context, espn.LeagueRef, credentials.Credentials) (*espn.LeagueResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.league, nil
}

func (f *stubFetcher) Matchups(context.Context, espn.LeagueRef, int, credentials.Credentials) ([]espn.MatchupScore, error) {
	return []espn.MatchupScore{
		{ID: 1, MatchupPeriodID: 5, Home: espn.TeamScore{TeamID: 1, TotalPoints: 101.5}, Away: espn.TeamScore{TeamID: 2, TotalPoints: 92}, Winner: "HOME"},
	}, nil
}

func (f *stubFetcher) Transactions(context.Context, espn.LeagueRef, int, credentials.Credentials) ([]espn.Transaction, error) {
	return nil, nil
}

func (f *stubFetcher) FreeAgents(context.Context, espn.LeagueRef, int, int, credentials.Credentials) ([]espn.PlayerPoolEntry, error) {
	return nil, nil
}

func (f *stubFetcher) ProSchedule(context.Context, int, credentials.Credentials) ([]espn.ProTeamInfo, error) {
	return []espn.ProTeamInfo{{ID: 2, Abbrev: "BUF", ByeWeek: 7}}, nil
}

func rostered(id, position, slot int, name string, points float64) espn.RosterEntry {
	p := espn.Player{
		ID:                id,
		FullName:          name,
		DefaultPositionID: position,
		ProTeamID:         2,
		Stats: []espn.Stat{
			{StatSourceID: 0, ScoringPeriodID: 4, AppliedTotal: points},
			{StatSourceID: 1, ScoringPeriodID: 5, AppliedTotal: points},
		},
	}
	return espn.RosterEntry{PlayerID: id, LineupSlotID: slot, PlayerPoolEntry: espn.PlayerPoolEntry{ID: id, Player: p}}
}

func leagueFixture() *espn.LeagueResponse {
	return &espn.LeagueResponse{
		ID:              777,
		ScoringPeriodID: 5,
		SeasonID:        2025,
		Status:          espn.Status{CurrentMatchupPeriod: 5, FinalScoringPeriod: 17},
		Settings: espn.Settings{
			Name:                "Sunday Funday",
			Size:                2,
			AcquisitionSettings: espn.AcquisitionSettings{AcquisitionBudget: 100, IsUsingAcquisitionBudget: true},
		},
		Teams: []espn.Team{
			{
				ID:     1,
				Name:   "Gridiron Gurus",
				Record: espn.Record{Overall: espn.RecordDetails{Wins: 4, Losses: 1, PointsFor: 540}},
				Roster: espn.Roster{Entries: []espn.RosterEntry{rostered(101, 1, 0, "Josh Allen", 24)}},
			},
			{
				ID:     2,
				Name:   "Bench Warmers",
				Record: espn.Record{Overall: espn.RecordDetails{Wins: 1, Losses: 4, PointsFor: 470}},
				Roster: espn.Roster{Entries: []espn.RosterEntry{rostered(202, 2, 2, "Bijan Robinson", 18)}},
			},
		},
	}
}

type testBot struct {
	handler *Handler
	fetcher *stubFetcher
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC))
	fetcher := &stubFetcher{league: leagueFixture()}
	store := memory.NewRepository()
	creds := credentials.NewStatic()

	engine := leaguesync.NewEngine(store, fetcher, creds, leaguesync.WithClock(clock), leaguesync.WithLogger(logger))
	svc := service.NewFantasyService(store, engine, creds, config.DefaultPolicy(),
		service.WithClock(clock),
		service.WithLogger(logger),
	)
	res, err := svc.ConnectLeague(context.Background(), service.ConnectRequest{ExternalID: "777", Season: 2025, UserID: "default"})
	if err != nil {
		t.Fatalf("ConnectLeague() error = %v", err)
	}
	return &testBot{handler: NewHandler(svc, res.League.ID, logger), fetcher: fetcher}
}

func command(text string) tgbotapi.Update {
	length := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		length = i
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 99},
		From:     &tgbotapi.User{ID: 42},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}}
}

func (b *testBot) send(t *testing.T, text string) string {
	t.Helper()
	msg := b.handler.HandleCommand(context.Background(), command(text))
	if msg.ChatID != 99 {
		t.Errorf("ChatID = %d, want 99", msg.ChatID)
	}
	return msg.Text
}

func TestHandleCommand(t *testing.T) {
	b := newTestBot(t)

	tests := []struct {
		text string
		want []string
	}{
		{text: "/start", want: []string{"Welcome to LeagueDesk"}},
		{text: "/help", want: []string{"/whohas <player>", "/trade"}},
		{text: "/bogus", want: []string{"Unknown command"}},
		{text: "/standings", want: []string{"1. *Gridiron Gurus*", "2. *Bench Warmers*"}},
		{text: "/matchup", want: []string{"Week 5 Matchups", "*Gridiron Gurus* vs *Bench Warmers*"}},
		{text: "/scores 5", want: []string{"Week 5 Matchups"}},
		{text: "/matchup soon", want: []string{"week must be a positive number"}},
		{text: "/finalscore", want: []string{"Highest Score: Gridiron Gurus (101.50)"}},
		{text: "/finalscore -1", want: []string{"week must be a positive number"}},
		{text: "/mondaynight", want: []string{"Gridiron Gurus 101.50 - 92.00 Bench Warmers (Margin: 9.50)"}},
		{text: "/whohas", want: []string{"Usage: /whohas"}},
		{text: "/whohas josh allen", want: []string{"*Josh Allen*", "*Gridiron Gurus*"}},
		{text: "/team", want: []string{"Usage: /team"}},
		{text: "/team bench warmers", want: []string{"Bench Warmers's Roster", "Bijan Robinson"}},
		{text: "/team Nobody Home", want: []string{"🔍"}},
		{text: "/monitor", want: []string{"No players to monitor"}},
		{text: "/budgets", want: []string{"*Gridiron Gurus*: $100 of $100 left"}},
		{text: "/trade 1 2 give=101 receive=202", want: []string{"Trade Evaluation", "Fairness:"}},
		{text: "/trade 1 give=101", want: []string{"exactly two teams"}},
		{text: "/trades", want: []string{"No trade proposals."}},
		{text: "/accept", want: []string{"Usage: /accept"}},
		{text: "/reject missing", want: []string{"🔍"}},
		{text: "/suggest gridiron gurus", want: []string{"Suggestions for Gridiron Gurus (Week 5)"}},
		{text: "/sync", want: []string{"Synced week 5"}},
		{text: "/leagues", want: []string{"*Sunday Funday* (777, 2025) week 5"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := b.send(t, tt.text)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("%s reply missing %q:\n%s", tt.text, want, got)
				}
			}
		})
	}
}

func TestProposeAndAcceptTrade(t *testing.T) {
	b := newTestBot(t)

	got := b.send(t, "/propose 1 2 give=101 receive=202")
	if !strings.Contains(got, "team 1 gives 101 for 202 from team 2") || !strings.Contains(got, "pending") {
		t.Fatalf("/propose reply = %q", got)
	}

	proposals, err := b.handler.fantasyService.ListTradeProposals(context.Background(), b.handler.leagueID)
	if err != nil || len(proposals) != 1 {
		t.Fatalf("ListTradeProposals() = %d proposals, %v; want 1", len(proposals), err)
	}

	got = b.send(t, "/accept "+proposals[0].ID)
	if !strings.Contains(got, "accepted") {
		t.Errorf("/accept reply = %q, want accepted", got)
	}
	got = b.send(t, "/cancel "+proposals[0].ID)
	if !strings.Contains(got, "⚠️") {
		t.Errorf("/cancel after accept = %q, want validation error", got)
	}
}

func TestClaimUsesTelegramUser(t *testing.T) {
	b := newTestBot(t)

	got := b.send(t, "/claim Gridiron Gurus")
	if !strings.Contains(got, "*Gridiron Gurus* is now linked") {
		t.Fatalf("/claim reply = %q", got)
	}
	team, err := b.handler.fantasyService.FindTeam(context.Background(), b.handler.leagueID, "1")
	if err != nil {
		t.Fatalf("FindTeam() error = %v", err)
	}
	if team.OwnerUserID != "tg:42" {
		t.Errorf("OwnerUserID = %q, want tg:42", team.OwnerUserID)
	}
}

func TestSyncFailureKeepsStoredData(t *testing.T) {
	b := newTestBot(t)
	b.fetcher.err = apperr.New(apperr.KindUpstreamUnavailable, "espn returned 503")

	got := b.send(t, "/sync")
	if !strings.Contains(got, "ESPN is not responding") || !strings.Contains(got, "Stored data is still available") {
		t.Errorf("/sync reply = %q", got)
	}

	got = b.send(t, "/standings")
	if !strings.Contains(got, "1. *Gridiron Gurus*") || !strings.Contains(got, "Data may be out of date") {
		t.Errorf("/standings after failed sync = %q", got)
	}
}

func TestParseTradeArgs(t *testing.T) {
	tests := []struct {
		args         string
		wantProposer string
		wantReceiver string
		wantGive     []int64
		wantReceive  []int64
		wantErr      bool
	}{
		{args: "1 2 give=101,102 receive=202", wantProposer: "1", wantReceiver: "2", wantGive: []int64{101, 102}, wantReceive: []int64{202}},
		{args: "gurus warmers get=202 give=101", wantProposer: "gurus", wantReceiver: "warmers", wantGive: []int64{101}, wantReceive: []int64{202}},
		{args: "1 2 give=101,,", wantProposer: "1", wantReceiver: "2", wantGive: []int64{101}},
		{args: "1 give=101", wantErr: true},
		{args: "1 2 3", wantErr: true},
		{args: "1 2 give=abc", wantErr: true},
		{args: "1 2 swap=101", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			proposer, receiver, give, receive, err := parseTradeArgs(tt.args)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrValidation) {
					t.Errorf("parseTradeArgs() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTradeArgs() error = %v", err)
			}
			if proposer != tt.wantProposer || receiver != tt.wantReceiver {
				t.Errorf("teams = %q, %q, want %q, %q", proposer, receiver, tt.wantProposer, tt.wantReceiver)
			}
			if !reflect.DeepEqual(give, tt.wantGive) {
				t.Errorf("give = %v, want %v", give, tt.wantGive)
			}
			if !reflect.DeepEqual(receive, tt.wantReceive) {
				t.Errorf("receive = %v, want %v", receive, tt.wantReceive)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		args    string
		want    int
		wantErr bool
	}{
		{args: "", want: 0},
		{args: "7", want: 7},
		{args: "0", wantErr: true},
		{args: "week", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parsePeriod(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePeriod(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePeriod(%q) = %d, want %d", tt.args, got, tt.want)
		}
	}
}
