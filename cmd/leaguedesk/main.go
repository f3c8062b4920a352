package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/omarshaarawi/leaguedesk/internal/api/espn"
	"github.com/omarshaarawi/leaguedesk/internal/bot"
	"github.com/omarshaarawi/leaguedesk/internal/config"
	"github.com/omarshaarawi/leaguedesk/internal/credentials"
	"github.com/omarshaarawi/leaguedesk/internal/leaguesync"
	"github.com/omarshaarawi/leaguedesk/internal/repository"
	"github.com/omarshaarawi/leaguedesk/internal/repository/memory"
	"github.com/omarshaarawi/leaguedesk/internal/repository/sqlstore"
	"github.com/omarshaarawi/leaguedesk/internal/scheduler"
	"github.com/omarshaarawi/leaguedesk/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing store", "error", err)
		}
	}()

	creds := credentials.NewStatic()
	if cfg.ESPNAPI.Private() {
		creds.Set(cfg.ESPNAPI.UserID, credentials.Credentials{SWID: cfg.ESPNAPI.SWID, ESPNS2: cfg.ESPNAPI.ESPNS2})
	}

	espnClient := espn.NewClient(
		espn.WithBaseURL(cfg.ESPNAPI.BaseURL),
		espn.WithTimeout(cfg.ESPNAPI.Timeout),
		espn.WithRetries(cfg.ESPNAPI.MaxRetries, cfg.ESPNAPI.RetryBaseDelay, cfg.ESPNAPI.RetryMaxDelay),
		espn.WithLimiter(espn.NewLimiter(cfg.ESPNAPI.RatePerMinute, cfg.ESPNAPI.RateBurst, cfg.ESPNAPI.RateWait)),
		espn.WithLogger(logger),
	)
	engine := leaguesync.NewEngine(store, espn.NewAPI(espnClient), creds,
		leaguesync.WithLogger(logger),
		leaguesync.WithWorkers(cfg.Sync.Workers),
	)
	fantasyService := service.NewFantasyService(store, engine, creds, policy,
		service.WithLogger(logger),
		service.WithStaleAfter(cfg.Sync.StaleAfter),
	)

	leagueID := connectDefaultLeague(ctx, fantasyService, cfg, logger)

	var sendMessage func(string) error
	if cfg.TelegramBot.Enabled() {
		telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, fantasyService, leagueID, logger)
		if err != nil {
			return err
		}
		if cfg.TelegramBot.ChatID != 0 {
			sendMessage = telegramBot.SendMessage
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil {
				logger.Error("Error running telegram bot", "error", err)
			}
		}()
	} else {
		logger.Info("TELEGRAM_TOKEN not set, running without the bot")
	}

	sched, err := scheduler.NewScheduler(fantasyService, cfg.Sync, leagueID, sendMessage, scheduler.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Error("Error stopping scheduler", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/", healthCheckHandler)
	srv := &http.Server{Addr: cfg.HealthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error starting HTTP server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func openStore(ctx context.Context, cfg config.Store) (repository.Store, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return memory.NewRepository(), nil
	case config.StoreSQLite:
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.DSN)
	case config.StorePostgres:
		return sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// connectDefaultLeague registers the configured league and returns its id.
// Stored data keeps serving when ESPN is unreachable at startup.
func connectDefaultLeague(ctx context.Context, svc *service.FantasyService, cfg *config.Config, logger *slog.Logger) string {
	res, err := svc.ConnectLeague(ctx, service.ConnectRequest{
		ExternalID: cfg.ESPNAPI.LeagueID,
		Season:     cfg.ESPNAPI.Year,
		UserID:     cfg.ESPNAPI.UserID,
	})
	if err != nil {
		logger.Error("Error connecting league", "league", cfg.ESPNAPI.LeagueID, "season", cfg.ESPNAPI.Year, "error", err)
	}
	if res.League.ID == "" {
		return ""
	}
	logger.Info("League connected",
		"league_id", res.League.ID,
		"name", res.League.Name,
		"created", res.Created,
		"last_synced_at", res.League.LastSyncedAt,
	)
	return res.League.ID
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
