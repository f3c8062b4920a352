package espn

import (
	"context"
	"fmt"

	"github.com/omarshaarawi/leaguedesk/internal/credentials"
)

// View sets requested from the API. Settings, teams and rosters share one
// call; matchups share another.
var (
	LeagueViews      = []string{"mSettings", "mTeam", "mRoster"}
	MatchupViews     = []string{"mMatchupScore", "mScoreboard"}
	TransactionViews = []string{"mTransactions2"}
	PlayerViews      = []string{"kona_player_info"}
	ProScheduleViews = []string{"proTeamSchedules_wl"}
)

// DefaultFreeAgentLimit caps the free agent pool fetched per sync.
const DefaultFreeAgentLimit = 50

// LeagueRef addresses a league in a given season.
type LeagueRef struct {
	LeagueID string
	Season   int
}

type API struct {
	client *Client
}

func NewAPI(client *Client) *API {
	return &API{client: client}
}

func (a *API) get(ctx context.Context, req Request, creds credentials.Credentials, result any) error {
	return a.client.FetchInto(ctx, req, creds, result)
}

// League fetches settings, teams and rosters in a single call.
func (a *API) League(ctx context.Context, ref LeagueRef, creds credentials.Credentials) (*LeagueResponse, error) {
	var resp LeagueResponse
	req := Request{LeagueID: ref.LeagueID, Season: ref.Season, Views: LeagueViews}
	if err := a.get(ctx, req, creds, &resp); err != nil {
		return nil, fmt.Errorf("fetching league: %w", err)
	}
	return &resp, nil
}

// Matchups fetches the schedule entries for one matchup period.
func (a *API) Matchups(ctx context.Context, ref LeagueRef, period int, creds credentials.Credentials) ([]MatchupScore, error) {
	var resp ScoreboardResponse
	req := Request{
		LeagueID: ref.LeagueID,
		Season:   ref.Season,
		Views:    MatchupViews,
		Period:   period,
		Filter: map[string]any{
			"schedule": map[string]any{
				"filterMatchupPeriodIds": map[string]any{"value": []int{period}},
			},
		},
	}
	if err := a.get(ctx, req, creds, &resp); err != nil {
		return nil, fmt.Errorf("fetching matchups: %w", err)
	}
	return resp.Schedule, nil
}

// Transactions fetches the league transactions recorded for period.
func (a *API) Transactions(ctx context.Context, ref LeagueRef, period int, creds credentials.Credentials) ([]Transaction, error) {
	var resp LeagueResponse
	req := Request{LeagueID: ref.LeagueID, Season: ref.Season, Views: TransactionViews, Period: period}
	if err := a.get(ctx, req, creds, &resp); err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	return resp.Transactions, nil
}

// FreeAgents fetches the most owned unrostered players, free agents and
// players on waivers alike.
func (a *API) FreeAgents(ctx context.Context, ref LeagueRef, period, limit int, creds credentials.Credentials) ([]PlayerPoolEntry, error) {
	if limit <= 0 {
		limit = DefaultFreeAgentLimit
	}
	var resp LeagueResponse
	req := Request{
		LeagueID: ref.LeagueID,
		Season:   ref.Season,
		Views:    PlayerViews,
		Period:   period,
		Filter: map[string]any{
			"players": map[string]any{
				"filterStatus":  map[string]any{"value": []string{"FREEAGENT", "WAIVERS"}},
				"limit":         limit,
				"sortPercOwned": map[string]any{"sortPriority": 1, "sortAsc": false},
			},
		},
	}
	if err := a.get(ctx, req, creds, &resp); err != nil {
		return nil, fmt.Errorf("fetching free agents: %w", err)
	}
	return resp.Players, nil
}

// ProSchedule fetches the pro teams for a season, including bye weeks.
func (a *API) ProSchedule(ctx context.Context, season int, creds credentials.Credentials) ([]ProTeamInfo, error) {
	var resp ProScheduleResponse
	req := Request{Season: season, Views: ProScheduleViews}
	if err := a.get(ctx, req, creds, &resp); err != nil {
		return nil, fmt.Errorf("fetching pro schedule: %w", err)
	}
	return resp.Settings.ProTeams, nil
}
