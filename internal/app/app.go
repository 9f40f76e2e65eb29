package app

import (
	"database/sql"
	"fmt"
	"time"

	"plantline/internal/config"
	"plantline/internal/db"
	"plantline/internal/engine"
	"plantline/internal/migrate"
	"plantline/internal/notify"
)

// App bundles everything a command or server needs: the open database,
// the loaded config and a wired engine. Close releases the dispatcher
// and the database in order.
type App struct {
	DB         *sql.DB
	Config     *config.Config
	Engine     engine.Engine
	dispatcher *notify.Dispatcher
}

// Bootstrap prepares the workspace, opens and migrates the database, loads
// the local config and wires the notification dispatcher. The webhook sink
// is used when a webhook URL is configured, otherwise notifications go to
// the log.
func Bootstrap(workspace string) (*App, error) {
	d, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(d); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		d.Close()
		return nil, err
	}

	var sink notify.Sink
	if cfg.Notifier.WebhookURL != "" {
		timeout := time.Duration(cfg.Notifier.TimeoutSeconds) * time.Second
		sink = notify.NewWebhookSink(cfg.Notifier.WebhookURL, cfg.Notifier.Secret, timeout)
	} else {
		sink = notify.LogSink{}
	}
	dispatcher := notify.NewDispatcher(sink, notify.Contacts{
		Production: cfg.Contacts.Production,
		Manager:    cfg.Contacts.Manager,
	}, cfg.Notifier.QueueSize)

	return &App{
		DB:         d,
		Config:     cfg,
		Engine:     engine.New(d, cfg, dispatcher),
		dispatcher: dispatcher,
	}, nil
}

// Close drains pending notifications and closes the database.
func (a *App) Close() error {
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	return a.DB.Close()
}
