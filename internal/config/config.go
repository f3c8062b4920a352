package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

type Config struct {
	TelegramBot TelegramBot
	ESPNAPI     ESPNAPI
	Store       Store
	Sync        Sync
	PolicyFile  string `envconfig:"POLICY_FILE"`
	HealthAddr  string `envconfig:"HEALTH_ADDR" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// TelegramBot is optional. The bot is disabled when Token is empty.
type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN"`
	ChatID int64  `envconfig:"CHAT_ID"`
}

func (t TelegramBot) Enabled() bool {
	return t.Token != ""
}

type ESPNAPI struct {
	Year     int    `envconfig:"YEAR" required:"true"`
	LeagueID string `envconfig:"LEAGUE_ID" required:"true"`
	SWID     string `envconfig:"SWID"`
	ESPNS2   string `envconfig:"ESPN_S2"`
	UserID   string `envconfig:"ESPN_USER_ID" default:"default"`
	BaseURL  string `envconfig:"ESPN_BASE_URL" default:"https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"`

	Timeout        time.Duration `envconfig:"ESPN_TIMEOUT" default:"15s"`
	RatePerMinute  int           `envconfig:"ESPN_RATE_PER_MINUTE" default:"60"`
	RateBurst      int           `envconfig:"ESPN_RATE_BURST" default:"5"`
	RateWait       time.Duration `envconfig:"ESPN_RATE_WAIT" default:"30s"`
	MaxRetries     int           `envconfig:"ESPN_MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"ESPN_RETRY_BASE_DELAY" default:"500ms"`
	RetryMaxDelay  time.Duration `envconfig:"ESPN_RETRY_MAX_DELAY" default:"8s"`
}

// Private reports whether league cookies were configured.
func (e ESPNAPI) Private() bool {
	return e.SWID != "" && e.ESPNS2 != ""
}

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Store struct {
	Driver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"STORE_DSN" default:"leaguedesk.db"`
}

type Sync struct {
	Workers    int           `envconfig:"SYNC_WORKERS" default:"4"`
	Interval   time.Duration `envconfig:"SYNC_INTERVAL" default:"15m"`
	Cron       string        `envconfig:"SYNC_CRON"`
	Timeout    time.Duration `envconfig:"SYNC_TIMEOUT" default:"2m"`
	StaleAfter time.Duration `envconfig:"SYNC_STALE_AFTER" default:"1h"`
	RecapCron  string        `envconfig:"RECAP_CRON" default:"30 7 * * 2"`
	Timezone   string        `envconfig:"SCHEDULE_TZ" default:"America/Chicago"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreSQLite, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("store driver %q is not one of sqlite, postgres, memory", c.Store.Driver)
	}
	if c.Store.Driver != StoreMemory && c.Store.DSN == "" {
		return errors.New("STORE_DSN is required")
	}
	if (c.ESPNAPI.SWID == "") != (c.ESPNAPI.ESPNS2 == "") {
		return errors.New("SWID and ESPN_S2 must be set together")
	}
	if c.ESPNAPI.RatePerMinute < 1 {
		return errors.New("ESPN_RATE_PER_MINUTE must be >= 1")
	}
	if c.ESPNAPI.RateBurst < 1 {
		return errors.New("ESPN_RATE_BURST must be >= 1")
	}
	if c.ESPNAPI.MaxRetries < 0 {
		return errors.New("ESPN_MAX_RETRIES must be >= 0")
	}
	if c.ESPNAPI.RetryMaxDelay < c.ESPNAPI.RetryBaseDelay {
		return errors.New("ESPN_RETRY_MAX_DELAY must be >= ESPN_RETRY_BASE_DELAY")
	}
	if c.Sync.Workers < 1 {
		return errors.New("SYNC_WORKERS must be >= 1")
	}
	if c.Sync.Cron == "" && c.Sync.Interval <= 0 {
		return errors.New("one of SYNC_INTERVAL or SYNC_CRON is required")
	}
	if c.Sync.Timeout <= 0 {
		return errors.New("SYNC_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
		return fmt.Errorf("invalid SCHEDULE_TZ: %w", err)
	}
	if c.Sync.Cron != "" {
		if _, err := cron.ParseStandard(c.Sync.Cron); err != nil {
			return fmt.Errorf("invalid SYNC_CRON: %w", err)
		}
	}
	if c.Sync.RecapCron != "" {
		if _, err := cron.ParseStandard(c.Sync.RecapCron); err != nil {
			return fmt.Errorf("invalid RECAP_CRON: %w", err)
		}
	}
	return nil
}
