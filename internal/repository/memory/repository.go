// Package memory keeps the league mirror in process memory. It is used in
// tests and when no database is configured.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

type matchupKey struct {
	Period     int
	ExternalID int
}

type leagueData struct {
	league       models.League
	teams        map[int]models.Team
	rosters      map[models.RosterKey]models.RosterEntry
	matchups     map[matchupKey]models.Matchup
	transactions map[string]models.WaiverTransaction
}

type Repository struct {
	mu      sync.RWMutex
	leagues map[string]*leagueData
	players map[int64]models.Player
	trades  map[string]models.TradeProposal
}

func NewRepository() *Repository {
	return &Repository{
		leagues: make(map[string]*leagueData),
		players: make(map[int64]models.Player),
		trades:  make(map[string]models.TradeProposal),
	}
}

func (r *Repository) Close() error {
	return nil
}

func (r *Repository) upsertLeagueLocked(league models.League) *leagueData {
	ld, ok := r.leagues[league.ID]
	if !ok {
		ld = &leagueData{
			teams:        make(map[int]models.Team),
			rosters:      make(map[models.RosterKey]models.RosterEntry),
			matchups:     make(map[matchupKey]models.Matchup),
			transactions: make(map[string]models.WaiverTransaction),
		}
		r.leagues[league.ID] = ld
	}
	ld.league = league
	return ld
}

func (r *Repository) UpsertLeague(ctx context.Context, league models.League) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if league.ID == "" {
		return apperr.Validationf("league id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ld := range r.leagues {
		if id != league.ID && ld.league.ExternalID == league.ExternalID && ld.league.SeasonYear == league.SeasonYear {
			return apperr.Validationf("league %s season %d is already connected", league.ExternalID, league.SeasonYear)
		}
	}
	r.upsertLeagueLocked(league)
	return nil
}

func (r *Repository) league(id string) (*leagueData, error) {
	ld, ok := r.leagues[id]
	if !ok {
		return nil, apperr.NotFoundf("league %s not found", id)
	}
	return ld, nil
}

func (r *Repository) GetLeague(ctx context.Context, id string) (models.League, error) {
	if err := ctx.Err(); err != nil {
		return models.League{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ld, err := r.league(id)
	if err != nil {
		return models.League{}, err
	}
	return ld.league, nil
}

func (r *Repository) GetLeagueByExternalID(ctx context.Context, externalID string, season int) (models.League, error) {
	if err := ctx.Err(); err != nil {
		return models.League{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ld := range r.leagues {
		if ld.league.ExternalID == externalID && ld.league.SeasonYear == season {
			return ld.league, nil
		}
	}
	return models.League{}, apperr.NotFoundf("league %s season %d not found", externalID, season)
}

func (r *Repository) ListLeagues(ctx context.Context) ([]models.League, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.League, 0, len(r.leagues))
	for _, ld := range r.leagues {
		out = append(out, ld.league)
	}
	slices.SortFunc(out, func(a, b models.League) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func sortedTeams(ld *leagueData) []models.Team {
	out := make([]models.Team, 0, len(ld.teams))
	for _, t := range ld.teams {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b models.Team) int { return cmp.Compare(a.ExternalID, b.ExternalID) })
	return out
}

func (r *Repository) ListTeams(ctx context.Context, leagueID string) ([]models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ld, err := r.league(leagueID)
	if err != nil {
		return nil, err
	}
	return sortedTeams(ld), nil
}

func (r *Repository) GetTeam(ctx context.Context, leagueID string, teamID int) (models.Team, error) {
	if err := ctx.Err(); err != nil {
		return models.Team{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ld, err := r.league(leagueID)
	if err != nil {
		return models.Team{}, err
	}
	t, ok := ld.teams[teamID]
	if !ok {
		return models.Team{}, apperr.NotFoundf("team %d not found in league %s", teamID, leagueID)
	}
	return t, nil
}

func (r *Repository) ClaimTeam(ctx context.Context, leagueID string, teamID int, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ld, err := r.league(leagueID)
	if err != nil {
		return err
	}
	t, ok := ld.teams[teamID]
	if !ok {
		return apperr.NotFoundf("team %d not found in league %s", teamID, leagueID)
	}
	for id, other := range ld.teams {
		if id != teamID && userID != "" && other.OwnerUserID == userID {
			return apperr.Validationf("user %s already owns team %d in league %s", userID, id, leagueID)
		}
	}
	t.OwnerUserID = userID
	ld.teams[teamID] = t
	return nil
}

func (r *Repository) ListRoster(ctx context.Context, leagueID string, f repository.RosterFilter) ([]models.RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ld, err := r.league(leagueID)
	if err != nil {
		return nil, err
	}
	return filterRoster(ld, f), nil
}

func filterRoster(ld *leagueData, f repository.RosterFilter) []models.RosterEntry {
	period := f.Period
	if period == 0 {
		period = ld.league.CurrentPeriod
	}
	var out []models.RosterEntry
	for _, e := range ld.rosters {
		if e.Period != period {
			continue
		}
		if f.TeamID != 0 && e.TeamID != f.TeamID {
			continue
		}
		if f.CurrentOnly && !e.Current {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.RosterEntry) int {
		if c := cmp.Compare(a.TeamID, b.TeamID); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return out
}

func (r *Repository) GetPlayers(ctx context.Context, ids []int64) (map[int64]models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]models.Player, len(ids))
	for _, id := range ids {
		if p, ok := r.players[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (r *Repository) ListPlayers(ctx context.Context) ([]models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b models.Player) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *Repository) ListMatchups(ctx context.Context, leagueID string, period int) ([]models.Matchup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ld, err := r.league(leagueID)
	if err != nil {
		return nil, err
	}
	return periodMatchups(ld, period), nil
}

func periodMatchups(ld *leagueData, period int) []models.Matchup {
	var out []models.Matchup
	for k, m := range ld.matchups {
		if k.Period == period {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b models.Matchup) int { return cmp.Compare(a.ExternalID, b.ExternalID) })
	return out
}

func (r *Repository) ListTransactions(ctx context.Context, leagueID string, f repository.TransactionFilter) ([]models.WaiverTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ld, err := r.league(leagueID)
	if err != nil {
		return nil, err
	}
	return filterTransactions(ld, f), nil
}

func filterTransactions(ld *leagueData, f repository.TransactionFilter) []models.WaiverTransaction {
	var out []models.WaiverTransaction
	for _, tx := range ld.transactions {
		if f.TeamID != 0 && tx.TeamID != f.TeamID {
			continue
		}
		out = append(out, tx)
	}
	slices.SortFunc(out, func(a, b models.WaiverTransaction) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (r *Repository) UpsertTransaction(ctx context.Context, tx models.WaiverTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx.BidAmount.IsNegative() {
		return apperr.Validationf("bid amount must not be negative")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ld, err := r.league(tx.LeagueID)
	if err != nil {
		return err
	}
	ld.transactions[tx.ID] = tx
	return nil
}

func (r *Repository) SaveTradeProposal(ctx context.Context, p models.TradeProposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.league(p.LeagueID); err != nil {
		return err
	}
	r.trades[p.ID] = p.Clone()
	return nil
}

func (r *Repository) GetTradeProposal(ctx context.Context, id string) (models.TradeProposal, error) {
	if err := ctx.Err(); err != nil {
		return models.TradeProposal{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.trades[id]
	if !ok {
		return models.TradeProposal{}, apperr.NotFoundf("trade proposal %s not found", id)
	}
	return p.Clone(), nil
}

func (r *Repository) ListTradeProposals(ctx context.Context, leagueID string) ([]models.TradeProposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.TradeProposal
	for _, p := range r.trades {
		if p.LeagueID == leagueID {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.TradeProposal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *Repository) UpdateTradeStatus(ctx context.Context, id string, from, to models.TradeStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.trades[id]
	if !ok {
		return apperr.NotFoundf("trade proposal %s not found", id)
	}
	if p.Status != from {
		return apperr.Validationf("trade proposal %s is %s, not %s", id, p.Status, from)
	}
	p.Status = to
	r.trades[id] = p
	return nil
}

// CommitSync validates the whole batch before applying any of it, so a
// rejected batch leaves the repository unchanged.
func (r *Repository) CommitSync(ctx context.Context, b repository.SyncBatch) error {
	if b.League.ID == "" {
		return apperr.Validationf("league id is required")
	}
	for _, tx := range b.Transactions {
		if tx.BidAmount.IsNegative() {
			return apperr.Validationf("transaction %s has a negative bid", tx.ID)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCurrentRosters(b); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ld := r.upsertLeagueLocked(b.League)
	for _, t := range b.Teams {
		if existing, ok := ld.teams[t.ExternalID]; ok {
			t.OwnerUserID = existing.OwnerUserID
		}
		ld.teams[t.ExternalID] = t
	}
	for _, p := range b.Players {
		r.players[p.ID] = p.Clone()
	}
	for _, e := range b.Rosters {
		ld.rosters[e.Key()] = e
	}
	for _, m := range b.Matchups {
		ld.matchups[matchupKey{Period: m.Period, ExternalID: m.ExternalID}] = m
	}
	for _, tx := range b.Transactions {
		ld.transactions[tx.ID] = tx
	}
	return nil
}

type playerPeriod struct {
	player int64
	period int
}

// checkCurrentRosters rejects a batch that would leave a player current on
// two teams in the same period.
func (r *Repository) checkCurrentRosters(b repository.SyncBatch) error {
	current := make(map[playerPeriod]int)
	if ld, ok := r.leagues[b.League.ID]; ok {
		for k, e := range ld.rosters {
			if e.Current {
				current[playerPeriod{k.PlayerID, k.Period}] = k.TeamID
			}
		}
	}
	for _, e := range b.Rosters {
		k := playerPeriod{e.PlayerID, e.Period}
		if !e.Current {
			if team, ok := current[k]; ok && team == e.TeamID {
				delete(current, k)
			}
		}
	}
	for _, e := range b.Rosters {
		if !e.Current {
			continue
		}
		k := playerPeriod{e.PlayerID, e.Period}
		if team, ok := current[k]; ok && team != e.TeamID {
			return apperr.Validationf("player %d is already current on team %d in period %d", e.PlayerID, team, e.Period)
		}
		current[k] = e.TeamID
	}
	return nil
}

func (r *Repository) LeagueState(ctx context.Context, leagueID string) (repository.LeagueState, error) {
	if err := ctx.Err(); err != nil {
		return repository.LeagueState{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ld, err := r.league(leagueID)
	if err != nil {
		return repository.LeagueState{}, err
	}

	state := repository.LeagueState{
		League:       ld.league,
		Teams:        sortedTeams(ld),
		Rosters:      filterRoster(ld, repository.RosterFilter{CurrentOnly: true}),
		Players:      make(map[int64]models.Player, len(r.players)),
		Matchups:     periodMatchups(ld, ld.league.MatchupPeriod()),
		Transactions: filterTransactions(ld, repository.TransactionFilter{}),
	}
	for id, p := range r.players {
		state.Players[id] = p.Clone()
	}
	return state, nil
}

var _ repository.Store = (*Repository)(nil)
