// Package service exposes the league operations used by the bot and the
// scheduler. Reads serve persisted state and report how fresh it is.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/credentials"
	"github.com/omarshaarawi/leaguedesk/internal/leaguesync"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
	"github.com/omarshaarawi/leaguedesk/internal/suggest"
	"github.com/omarshaarawi/leaguedesk/internal/trade"
	"github.com/omarshaarawi/leaguedesk/internal/valuation"
	"github.com/omarshaarawi/leaguedesk/internal/waiver"
)

// DefaultStaleAfter marks data as degraded when no sync succeeded within it.
const DefaultStaleAfter = time.Hour

// Freshness describes the persisted data behind a read.
type Freshness struct {
	LastSyncedAt time.Time
	Degraded     bool
	Reason       string
}

type FantasyService struct {
	store      repository.Store
	engine     *leaguesync.Engine
	creds      credentials.Provider
	evaluator  *trade.Evaluator
	ledger     *waiver.Ledger
	suggester  *suggest.Engine
	valuer     *valuation.Valuer
	clock      clockwork.Clock
	logger     *slog.Logger
	staleAfter time.Duration
}

type Option func(*FantasyService)

func WithClock(clock clockwork.Clock) Option {
	return func(s *FantasyService) {
		s.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *FantasyService) {
		s.logger = logger
	}
}

// WithStaleAfter sets how old the last sync may be before reads are marked
// degraded. Zero disables the age check.
func WithStaleAfter(d time.Duration) Option {
	return func(s *FantasyService) {
		s.staleAfter = d
	}
}

func NewFantasyService(store repository.Store, engine *leaguesync.Engine, creds credentials.Provider, policy config.Policy, opts ...Option) *FantasyService {
	s := &FantasyService{
		store:      store,
		engine:     engine,
		creds:      creds,
		ledger:     waiver.NewLedger(store),
		suggester:  suggest.NewEngine(policy.Suggestions),
		valuer:     valuation.New(policy.Valuation),
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.evaluator = trade.NewEvaluator(store, policy,
		trade.WithClock(s.clock),
		trade.WithLogger(s.logger),
	)
	return s
}

func (s *FantasyService) freshness(league models.League) Freshness {
	f := Freshness{LastSyncedAt: league.LastSyncedAt}

	st := s.engine.Status(league.ID)
	if st.State == leaguesync.StateFailed {
		switch st.LastErrorKind {
		case apperr.KindUpstreamUnavailable, apperr.KindRateLimited:
			f.Degraded = true
			f.Reason = fmt.Sprintf("last sync failed (%s): serving data from %s", strings.ToLower(string(st.LastErrorKind)), syncedLabel(league.LastSyncedAt))
			return f
		}
	}

	if s.staleAfter <= 0 {
		return f
	}
	if league.LastSyncedAt.IsZero() {
		f.Degraded = true
		f.Reason = "league has never been synced"
		return f
	}
	if age := s.clock.Now().Sub(league.LastSyncedAt); age > s.staleAfter {
		f.Degraded = true
		f.Reason = fmt.Sprintf("last sync was %s ago", age.Round(time.Minute))
	}
	return f
}

func syncedLabel(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

type ConnectRequest struct {
	ExternalID string
	Season     int
	UserID     string
}

type ConnectResult struct {
	League  models.League
	Created bool
	Sync    leaguesync.SyncResult
}

// ConnectLeague registers a provider league and runs its first sync. The
// league is private when the user has credentials on file. Connecting a
// league that already exists returns it unchanged.
func (s *FantasyService) ConnectLeague(ctx context.Context, req ConnectRequest) (ConnectResult, error) {
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.ExternalID == "" {
		return ConnectResult{}, apperr.Validationf("external league id is required")
	}
	if req.Season <= 0 {
		return ConnectResult{}, apperr.Validationf("season must be positive, got %d", req.Season)
	}

	existing, err := s.store.GetLeagueByExternalID(ctx, req.ExternalID, req.Season)
	switch {
	case err == nil:
		return ConnectResult{League: existing}, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return ConnectResult{}, fmt.Errorf("looking up league %s: %w", req.ExternalID, err)
	}

	visibility := models.VisibilityPublic
	if _, err := s.creds.Resolve(ctx, req.UserID); err == nil {
		visibility = models.VisibilityPrivate
	} else if !errors.Is(err, credentials.ErrUnauthenticated) {
		return ConnectResult{}, fmt.Errorf("resolving credentials: %w", err)
	}

	league := models.League{
		ID:           uuid.NewString(),
		ExternalID:   req.ExternalID,
		SeasonYear:   req.Season,
		ScoringType:  models.ScoringStandard,
		Visibility:   visibility,
		WaiverBudget: models.DefaultWaiverBudget,
		OwnerUserID:  req.UserID,
	}
	if err := s.store.UpsertLeague(ctx, league); err != nil {
		return ConnectResult{}, fmt.Errorf("saving league: %w", err)
	}
	s.logger.Info("league connected",
		"league_id", league.ID,
		"external_id", league.ExternalID,
		"season", league.SeasonYear,
		"visibility", league.Visibility,
	)

	result := ConnectResult{League: league, Created: true}
	result.Sync, err = s.engine.Sync(ctx, league.ID)
	if err != nil {
		return result, fmt.Errorf("initial sync of league %s: %w", league.ID, err)
	}
	if result.League, err = s.store.GetLeague(ctx, league.ID); err != nil {
		return result, fmt.Errorf("reloading league: %w", err)
	}
	return result, nil
}

func (s *FantasyService) SyncLeague(ctx context.Context, leagueID string) (leaguesync.SyncResult, error) {
	return s.engine.Sync(ctx, leagueID)
}

// SyncAll syncs every stored league.
func (s *FantasyService) SyncAll(ctx context.Context) ([]leaguesync.SyncResult, error) {
	leagues, err := s.store.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing leagues: %w", err)
	}
	ids := make([]string, len(leagues))
	for i, l := range leagues {
		ids[i] = l.ID
	}
	return s.engine.SyncAll(ctx, ids)
}

type LeagueSummary struct {
	League    models.League
	Status    leaguesync.RunStatus
	Freshness Freshness
}

func (s *FantasyService) ListLeagues(ctx context.Context) ([]LeagueSummary, error) {
	leagues, err := s.store.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing leagues: %w", err)
	}
	out := make([]LeagueSummary, len(leagues))
	for i, l := range leagues {
		out[i] = LeagueSummary{League: l, Status: s.engine.Status(l.ID), Freshness: s.freshness(l)}
	}
	return out, nil
}

type TeamsResult struct {
	League    models.League
	Standings []models.TeamStanding
	Freshness Freshness
}

// GetTeams returns the league's teams ranked by win percentage, then points
// for.
func (s *FantasyService) GetTeams(ctx context.Context, leagueID string) (TeamsResult, error) {
	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return TeamsResult{}, err
	}
	teams, err := s.store.ListTeams(ctx, leagueID)
	if err != nil {
		return TeamsResult{}, fmt.Errorf("error fetching standings: %w", err)
	}
	return TeamsResult{League: league, Standings: Standings(teams), Freshness: s.freshness(league)}, nil
}

func Standings(teams []models.Team) []models.TeamStanding {
	sorted := slices.Clone(teams)
	slices.SortStableFunc(sorted, func(a, b models.Team) int {
		if c := cmp.Compare(b.WinPercentage(), a.WinPercentage()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.PointsFor, a.PointsFor); c != 0 {
			return c
		}
		return cmp.Compare(a.ExternalID, b.ExternalID)
	})

	out := make([]models.TeamStanding, len(sorted))
	for i, t := range sorted {
		out[i] = models.TeamStanding{Rank: i + 1, Team: t, WinPercentage: valuation.Round2(t.WinPercentage())}
	}
	return out
}

type RosterPlayer struct {
	Entry  models.RosterEntry
	Player models.Player
	Value  valuation.Breakdown
}

type RosterResult struct {
	Team      models.Team
	Period    int
	Starters  []RosterPlayer
	Bench     []RosterPlayer
	Freshness Freshness
}

var slotOrder = map[models.LineupSlot]int{
	models.SlotQB:   0,
	models.SlotTQB:  1,
	models.SlotRB:   2,
	models.SlotRBWR: 3,
	models.SlotWR:   4,
	models.SlotWRTE: 5,
	models.SlotTE:   6,
	models.SlotFlex: 7,
	models.SlotOP:   8,
	models.SlotDST:  9,
	models.SlotK:    10,
	models.SlotIR:   12,
}

func slotRank(slot models.LineupSlot) int {
	if r, ok := slotOrder[slot]; ok {
		return r
	}
	return 11
}

// GetRoster returns a team's current roster with player values.
func (s *FantasyService) GetRoster(ctx context.Context, leagueID string, teamID int) (RosterResult, error) {
	state, err := s.store.LeagueState(ctx, leagueID)
	if err != nil {
		return RosterResult{}, err
	}
	team, ok := state.Team(teamID)
	if !ok {
		return RosterResult{}, apperr.NotFoundf("team %d not found in league %s", teamID, leagueID)
	}

	board := s.valuer.Board(state)
	entries := state.TeamRoster(teamID)
	slices.SortFunc(entries, func(a, b models.RosterEntry) int {
		if c := cmp.Compare(slotRank(a.Slot), slotRank(b.Slot)); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})

	result := RosterResult{Team: team, Period: state.League.CurrentPeriod, Freshness: s.freshness(state.League)}
	for _, e := range entries {
		rp := RosterPlayer{Entry: e, Player: state.Players[e.PlayerID], Value: board.Value(e.PlayerID)}
		if e.Slot.IsStarter() {
			result.Starters = append(result.Starters, rp)
		} else {
			result.Bench = append(result.Bench, rp)
		}
	}
	return result, nil
}

// MatchupView is a matchup with team names resolved.
type MatchupView struct {
	models.Matchup
	HomeTeam string
	AwayTeam string
}

type MatchupsResult struct {
	Period    int
	Matchups  []MatchupView
	Freshness Freshness
}

// GetMatchups returns the matchups of period. Zero selects the current
// matchup period.
func (s *FantasyService) GetMatchups(ctx context.Context, leagueID string, period int) (MatchupsResult, error) {
	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return MatchupsResult{}, err
	}
	if period < 0 {
		return MatchupsResult{}, apperr.Validationf("period must not be negative, got %d", period)
	}
	if period == 0 {
		period = league.MatchupPeriod()
	}

	matchups, err := s.store.ListMatchups(ctx, leagueID, period)
	if err != nil {
		return MatchupsResult{}, fmt.Errorf("error fetching matchups: %w", err)
	}
	names, err := s.teamNames(ctx, leagueID)
	if err != nil {
		return MatchupsResult{}, err
	}

	slices.SortFunc(matchups, func(a, b models.Matchup) int {
		return cmp.Compare(a.ExternalID, b.ExternalID)
	})
	out := MatchupsResult{Period: period, Matchups: make([]MatchupView, len(matchups)), Freshness: s.freshness(league)}
	for i, m := range matchups {
		out.Matchups[i] = MatchupView{Matchup: m, HomeTeam: names.of(m.HomeTeamID), AwayTeam: names.of(m.AwayTeamID)}
	}
	return out, nil
}

type teamNames map[int]string

func (n teamNames) of(teamID int) string {
	if teamID == 0 {
		return "BYE"
	}
	if name, ok := n[teamID]; ok {
		return name
	}
	return fmt.Sprintf("Team %d", teamID)
}

func (s *FantasyService) teamNames(ctx context.Context, leagueID string) (teamNames, error) {
	teams, err := s.store.ListTeams(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("error fetching teams: %w", err)
	}
	return namesOf(teams), nil
}

func namesOf(teams []models.Team) teamNames {
	names := make(teamNames, len(teams))
	for _, t := range teams {
		names[t.ExternalID] = t.Name
	}
	return names
}
