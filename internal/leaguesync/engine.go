// Package leaguesync mirrors provider league state into the local store.
// Runs are serialized per league and commit atomically.
package leaguesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/omarshaarawi/leaguedesk/internal/api/espn"
	"github.com/omarshaarawi/leaguedesk/internal/api/fantasy"
	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/credentials"
	"github.com/omarshaarawi/leaguedesk/internal/models"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
)

// DefaultWorkers bounds SyncAll when no worker count is configured.
const DefaultWorkers = 4

// Fetcher reads provider payloads. *espn.API implements it.
type Fetcher interface {
	League(ctx context.Context, ref espn.LeagueRef, creds credentials.Credentials) (*espn.LeagueResponse, error)
	Matchups(ctx context.Context, ref espn.LeagueRef, period int, creds credentials.Credentials) ([]espn.MatchupScore, error)
	Transactions(ctx context.Context, ref espn.LeagueRef, period int, creds credentials.Credentials) ([]espn.Transaction, error)
	FreeAgents(ctx context.Context, ref espn.LeagueRef, period, limit int, creds credentials.Credentials) ([]espn.PlayerPoolEntry, error)
	ProSchedule(ctx context.Context, season int, creds credentials.Credentials) ([]espn.ProTeamInfo, error)
}

// SyncResult summarizes one committed run. Counts are rows written, so a
// rerun against unchanged upstream data reports zeros.
type SyncResult struct {
	RunID               string
	LeagueID            string
	Period              int
	TeamsUpdated        int
	PlayersUpdated      int
	RostersUpdated      int
	RostersRetired      int
	MatchupsUpdated     int
	TransactionsUpdated int
	Anomalies           []fantasy.Anomaly
	SyncedAt            time.Time
}

// Changes is the total number of rows written.
func (r SyncResult) Changes() int {
	return r.TeamsUpdated + r.PlayersUpdated + r.RostersUpdated + r.MatchupsUpdated + r.TransactionsUpdated
}

type Engine struct {
	store          repository.Store
	fetcher        Fetcher
	creds          credentials.Provider
	clock          clockwork.Clock
	logger         *slog.Logger
	tracer         trace.Tracer
	workers        int
	freeAgentLimit int

	mu       sync.Mutex
	inflight map[string]struct{}
	status   map[string]RunStatus
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithFreeAgentLimit(n int) Option {
	return func(e *Engine) {
		e.freeAgentLimit = n
	}
}

func NewEngine(store repository.Store, fetcher Fetcher, creds credentials.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		fetcher:        fetcher,
		creds:          creds,
		clock:          clockwork.NewRealClock(),
		logger:         slog.Default(),
		tracer:         otel.Tracer("github.com/omarshaarawi/leaguedesk/internal/leaguesync"),
		workers:        DefaultWorkers,
		freeAgentLimit: espn.DefaultFreeAgentLimit,
		inflight:       make(map[string]struct{}),
		status:         make(map[string]RunStatus),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status returns the last known state of a league. Leagues never synced by
// this engine report StateIdle.
func (e *Engine) Status(leagueID string) RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.status[leagueID]
	if !ok {
		return RunStatus{State: StateIdle}
	}
	return st
}

func (e *Engine) acquire(leagueID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[leagueID]; busy {
		return false
	}
	e.inflight[leagueID] = struct{}{}
	st := e.status[leagueID]
	st.LastAttempt = e.clock.Now()
	e.status[leagueID] = st
	return true
}

func (e *Engine) release(leagueID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, leagueID)
}

func (e *Engine) setState(leagueID string, state State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.status[leagueID]
	st.State = state
	e.status[leagueID] = st
}

func (e *Engine) succeed(leagueID string, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status[leagueID] = RunStatus{
		State:       StateIdle,
		LastAttempt: e.status[leagueID].LastAttempt,
		LastSuccess: at,
	}
}

func (e *Engine) fail(leagueID string, stage State, err error) error {
	se := &SyncError{LeagueID: leagueID, Stage: stage, Status: espn.StatusOf(err), Err: err}

	e.mu.Lock()
	st := e.status[leagueID]
	st.State = StateFailed
	st.LastErrorKind = apperr.KindOf(err)
	st.LastError = err.Error()
	st.UpstreamStatus = se.Status
	e.status[leagueID] = st
	e.mu.Unlock()

	e.logger.Error("league sync failed",
		"league_id", leagueID,
		"stage", stage,
		"kind", st.LastErrorKind,
		"status", se.Status,
		"error", err,
	)
	return se
}

// Sync runs one full sync of leagueID. A concurrent call for the same league
// fails fast with a SyncInProgress error.
func (e *Engine) Sync(ctx context.Context, leagueID string) (SyncResult, error) {
	if !e.acquire(leagueID) {
		return SyncResult{}, apperr.Newf(apperr.KindSyncInProgress, "league %s is already syncing", leagueID).
			WithMetadata("league_id", leagueID)
	}
	defer e.release(leagueID)

	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "leaguesync.Sync", trace.WithAttributes(
		attribute.String("league.id", leagueID),
		attribute.String("sync.run_id", runID),
	))
	defer span.End()

	result, err := e.run(ctx, leagueID, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SyncResult{}, err
	}
	span.SetAttributes(attribute.Int("sync.changes", result.Changes()))
	return result, nil
}

func (e *Engine) run(ctx context.Context, leagueID, runID string) (SyncResult, error) {
	e.setState(leagueID, StateFetching)
	e.logger.Debug("league sync started", "league_id", leagueID, "run_id", runID)

	league, err := e.store.GetLeague(ctx, leagueID)
	if err != nil {
		return SyncResult{}, e.fail(leagueID, StateFetching, err)
	}
	creds, err := e.resolveCredentials(ctx, league)
	if err != nil {
		return SyncResult{}, e.fail(leagueID, StateFetching, err)
	}
	up, err := e.fetch(ctx, league, creds)
	if err != nil {
		return SyncResult{}, e.fail(leagueID, StateFetching, err)
	}

	e.setState(leagueID, StateMapping)
	snap, anomalies := fantasy.MapSnapshot(leagueID, up)
	for _, a := range anomalies {
		e.logger.Warn("mapping anomaly", "league_id", leagueID, "anomaly", a.String())
	}

	e.setState(leagueID, StateReconciling)
	persisted, err := e.store.LeagueState(ctx, leagueID)
	if err != nil {
		return SyncResult{}, e.fail(leagueID, StateReconciling, err)
	}
	if err := validate(persisted.League, snap); err != nil {
		return SyncResult{}, e.fail(leagueID, StateMapping, err)
	}

	now := e.clock.Now().UTC()
	plan, err := e.diff(ctx, persisted, snap, now)
	if err != nil {
		return SyncResult{}, e.fail(leagueID, StateReconciling, err)
	}
	if err := ctx.Err(); err != nil {
		return SyncResult{}, e.fail(leagueID, StateReconciling, err)
	}
	if err := e.store.CommitSync(ctx, plan.batch); err != nil {
		return SyncResult{}, e.fail(leagueID, StateReconciling, fmt.Errorf("commit sync: %w", err))
	}

	e.succeed(leagueID, now)
	result := SyncResult{
		RunID:               runID,
		LeagueID:            leagueID,
		Period:              snap.League.CurrentPeriod,
		TeamsUpdated:        len(plan.batch.Teams),
		PlayersUpdated:      len(plan.batch.Players),
		RostersUpdated:      len(plan.batch.Rosters),
		RostersRetired:      plan.retired,
		MatchupsUpdated:     len(plan.batch.Matchups),
		TransactionsUpdated: len(plan.batch.Transactions),
		Anomalies:           anomalies,
		SyncedAt:            now,
	}
	e.logger.Info("league sync finished",
		"league_id", leagueID,
		"run_id", runID,
		"period", result.Period,
		"changes", result.Changes(),
		"retired", result.RostersRetired,
		"anomalies", len(anomalies),
	)
	return result, nil
}

func (e *Engine) resolveCredentials(ctx context.Context, league models.League) (credentials.Credentials, error) {
	if league.Visibility != models.VisibilityPrivate {
		return credentials.Credentials{}, nil
	}
	c, err := e.creds.Resolve(ctx, league.OwnerUserID)
	if err != nil {
		if errors.Is(err, credentials.ErrUnauthenticated) {
			return credentials.Credentials{}, apperr.Wrap(apperr.KindUnauthorized, "resolve credentials", err)
		}
		return credentials.Credentials{}, fmt.Errorf("resolve credentials: %w", err)
	}
	return c, nil
}

// fetch issues the composite league call and then the dependent calls
// concurrently. A failed sub-fetch does not cancel its siblings.
func (e *Engine) fetch(ctx context.Context, league models.League, creds credentials.Credentials) (fantasy.Upstream, error) {
	ref := espn.LeagueRef{LeagueID: league.ExternalID, Season: league.SeasonYear}

	raw, err := e.fetcher.League(ctx, ref, creds)
	if err != nil {
		return fantasy.Upstream{}, err
	}
	up := fantasy.Upstream{League: raw}
	period := fantasy.CurrentPeriod(raw)

	var g errgroup.Group
	var matchErr, txErr, freeAgentErr, proErr error
	g.Go(func() error {
		up.Matchups, matchErr = e.fetcher.Matchups(ctx, ref, fantasy.MatchupPeriod(raw), creds)
		return nil
	})
	g.Go(func() error {
		up.Transactions, txErr = e.fetcher.Transactions(ctx, ref, period, creds)
		return nil
	})
	g.Go(func() error {
		up.FreeAgents, freeAgentErr = e.fetcher.FreeAgents(ctx, ref, period, e.freeAgentLimit, creds)
		return nil
	})
	g.Go(func() error {
		up.ProTeams, proErr = e.fetcher.ProSchedule(ctx, league.SeasonYear, creds)
		return nil
	})
	_ = g.Wait()

	if err := errors.Join(matchErr, txErr, freeAgentErr, proErr); err != nil {
		return fantasy.Upstream{}, err
	}
	return up, nil
}

// SyncAll syncs every league on a bounded pool. One league failing does not
// stop the others; the returned error joins all failures.
func (e *Engine) SyncAll(ctx context.Context, leagueIDs []string) ([]SyncResult, error) {
	results := make([]SyncResult, len(leagueIDs))
	errs := make([]error, len(leagueIDs))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, id := range leagueIDs {
		g.Go(func() error {
			results[i], errs[i] = e.Sync(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	var done []SyncResult
	for i, r := range results {
		if errs[i] == nil {
			done = append(done, r)
		}
	}
	return done, errors.Join(errs...)
}
