// Package scheduler runs the periodic league sync and posts the weekly
// reports to the league chat.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/report"
	"github.com/omarshaarawi/leaguedesk/internal/service"
)

type Scheduler struct {
	s              gocron.Scheduler
	fantasyService *service.FantasyService
	cfg            config.Sync
	leagueID       string
	sendMessage    func(string) error
	logger         *slog.Logger
}

type Option func(*options)

type options struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewScheduler creates a scheduler for leagueID. sendMessage may be nil, in
// which case only the sync job runs.
func NewScheduler(fantasyService *service.FantasyService, cfg config.Sync, leagueID string, sendMessage func(string) error, opts ...Option) (*Scheduler, error) {
	o := options{clock: clockwork.NewRealClock(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %q: %w", cfg.Timezone, err)
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
		gocron.WithClock(o.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:              s,
		fantasyService: fantasyService,
		cfg:            cfg,
		leagueID:       leagueID,
		sendMessage:    sendMessage,
		logger:         o.logger,
	}, nil
}

type job struct {
	name      string
	def       gocron.JobDefinition
	task      func()
	immediate bool
}

func (s *Scheduler) jobs() []job {
	syncDef := gocron.DurationJob(s.cfg.Interval)
	if s.cfg.Cron != "" {
		syncDef = gocron.CronJob(s.cfg.Cron, false)
	}
	// The sync job also runs once at startup.
	jobs := []job{{name: "sync", def: syncDef, task: s.syncAll, immediate: true}}

	if s.sendMessage == nil || s.leagueID == "" {
		return jobs
	}

	if s.cfg.RecapCron != "" {
		jobs = append(jobs, job{name: "recap", def: gocron.CronJob(s.cfg.RecapCron, false), task: s.sendTrophies})
	}
	return append(jobs,
		// Monday 17:30
		job{name: "close-scores", def: gocron.WeeklyJob(1, gocron.NewWeekdays(time.Monday), gocron.NewAtTimes(gocron.NewAtTime(17, 30, 0))), task: s.sendCloseScores},
		// Wednesday 7:30
		job{name: "standings", def: gocron.WeeklyJob(1, gocron.NewWeekdays(time.Wednesday), gocron.NewAtTimes(gocron.NewAtTime(7, 30, 0))), task: s.sendStandings},
		// Thursday 18:30
		job{name: "matchups", def: gocron.WeeklyJob(1, gocron.NewWeekdays(time.Thursday), gocron.NewAtTimes(gocron.NewAtTime(18, 30, 0))), task: s.sendMatchups},
		// Sunday 7:30
		job{name: "players-to-monitor", def: gocron.WeeklyJob(1, gocron.NewWeekdays(time.Sunday), gocron.NewAtTimes(gocron.NewAtTime(7, 30, 0))), task: s.sendPlayersToMonitor},
	)
}

func (s *Scheduler) Start() error {
	for _, j := range s.jobs() {
		opts := []gocron.JobOption{
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}
		if j.immediate {
			opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
		}
		_, err := s.s.NewJob(j.def, gocron.NewTask(j.task), opts...)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", j.name, err)
		}
	}
	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.Timeout)
}

func (s *Scheduler) syncAll() {
	ctx, cancel := s.jobContext()
	defer cancel()

	results, err := s.fantasyService.SyncAll(ctx)
	if err != nil {
		s.logger.Error("Scheduled sync failed", "synced", len(results), "error", err)
		return
	}
	s.logger.Info("Scheduled sync finished", "leagues", len(results))
}

func (s *Scheduler) send(name string, render func(context.Context) (string, error)) {
	ctx, cancel := s.jobContext()
	defer cancel()

	text, err := render(ctx)
	if err != nil {
		s.logger.Error("Failed to build report", "report", name, "league_id", s.leagueID, "error", err)
		return
	}
	if err := s.sendMessage(text); err != nil {
		s.logger.Error("Failed to send report", "report", name, "error", err)
	}
}

func (s *Scheduler) sendTrophies() {
	s.send("trophies", func(ctx context.Context) (string, error) {
		r, err := s.fantasyService.WeeklyRecap(ctx, s.leagueID, 0)
		if err != nil {
			return "", err
		}
		return report.FinalScores(r), nil
	})
}

func (s *Scheduler) sendCloseScores() {
	s.send("close-scores", func(ctx context.Context) (string, error) {
		games, _, err := s.fantasyService.CloseGames(ctx, s.leagueID)
		if err != nil {
			return "", err
		}
		return report.CloseGames(games), nil
	})
}

func (s *Scheduler) sendStandings() {
	s.send("standings", func(ctx context.Context) (string, error) {
		res, err := s.fantasyService.GetTeams(ctx, s.leagueID)
		if err != nil {
			return "", err
		}
		return report.Standings(res), nil
	})
}

func (s *Scheduler) sendMatchups() {
	s.send("matchups", func(ctx context.Context) (string, error) {
		res, err := s.fantasyService.GetMatchups(ctx, s.leagueID, 0)
		if err != nil {
			return "", err
		}
		return report.Matchups(res), nil
	})
}

func (s *Scheduler) sendPlayersToMonitor() {
	s.send("players-to-monitor", func(ctx context.Context) (string, error) {
		players, _, err := s.fantasyService.PlayersToMonitor(ctx, s.leagueID)
		if err != nil {
			return "", err
		}
		return report.PlayersToMonitor(players), nil
	})
}
