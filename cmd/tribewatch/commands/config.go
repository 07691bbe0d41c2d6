package commands

import (
	"fmt"
	"time"
	"tribewatch-backend/lib/configutil"
	"tribewatch-backend/lib/scrapers/twstats"
	"tribewatch-backend/lib/serviceutil"
	"tribewatch-backend/services/notify"
	"tribewatch-backend/services/watcher"
	"tribewatch-backend/services/watcher/store"

	"github.com/robfig/cron/v3"
)

type CursorConfig struct {
	// "timestamp" (default) or "hash"
	Strategy string `json:"strategy"`
	// cursor file path, used unless a database is configured
	File string `json:"file"`
	// optional sqlite/libsql database holding the cursor
	Database *store.DatabaseConfig `json:"database"`
}

type Config struct {
	PageURL         string            `json:"page_url"`
	RowSelector     string            `json:"row_selector"`
	Cron            string            `json:"cron"`
	Timezone        string            `json:"timezone"`
	Recipients      []string          `json:"recipients"`
	Subject         string            `json:"subject"`
	MessageTemplate string            `json:"message_template"`
	Filter          *watcher.Filter   `json:"filter"`
	Cursor          CursorConfig      `json:"cursor"`
	Smtp            notify.SmtpConfig `json:"smtp"`
	HealthPort      int               `json:"health_port"`
}

func (c Config) Validate() error {
	if c.PageURL == "" {
		return fmt.Errorf("page_url is required")
	}
	if c.Cron != "" {
		_, err := cron.ParseStandard(c.Cron)
		if err != nil {
			return fmt.Errorf("bad cron expression %q: %w", c.Cron, err)
		}
	}
	err := watcher.ValidateTemplate(c.MessageTemplate)
	if err != nil {
		return err
	}
	switch c.Cursor.Strategy {
	case "", watcher.StrategyTimestamp, watcher.StrategyHash:
	default:
		return fmt.Errorf("unknown cursor strategy %q", c.Cursor.Strategy)
	}
	if c.Timezone != "" {
		_, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("bad timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

func mustLoadConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	return cfg
}

func (c Config) location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		serviceutil.Fatal("load timezone", err)
	}
	return loc
}

func (c Config) strategy() string {
	if c.Cursor.Strategy == "" {
		return watcher.StrategyTimestamp
	}
	return c.Cursor.Strategy
}

func (c Config) cursorStore() watcher.StateStore {
	if c.Cursor.Database != nil {
		db, err := c.Cursor.Database.OpenDB()
		if err != nil {
			serviceutil.Fatal("open cursor database", err)
		}
		return store.NewSqliteStore(db)
	}

	path := c.Cursor.File
	if path == "" {
		path = "cursor.json"
	}
	return store.NewFileStore(path)
}

func buildWatcher(cfg Config) (*watcher.Service, *twstats.Client) {
	loc := cfg.location()

	client, err := twstats.NewClient(twstats.ClientOptions{
		PageURL:     cfg.PageURL,
		RowSelector: cfg.RowSelector,
		Location:    loc,
	})
	if err != nil {
		serviceutil.Fatal("init stats page client", err)
	}

	detector, err := watcher.NewDetector(cfg.strategy(), loc)
	if err != nil {
		serviceutil.Fatal("init change detector", err)
	}

	svc := watcher.NewService(
		client,
		notify.NewEmailNotifier(cfg.Smtp, cfg.Subject),
		cfg.cursorStore(),
		detector,
		watcher.Options{
			Recipients: cfg.Recipients,
			Template:   cfg.MessageTemplate,
		},
	)
	return svc, client
}
