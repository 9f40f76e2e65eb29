package engine

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"plantline/internal/config"
	"plantline/internal/events"
	"plantline/internal/notify"
	"plantline/internal/repo"
)

// Notifier is the engine's view of the notification dispatcher. A nil
// notifier disables delivery without touching workflow logic.
type Notifier interface {
	Notify(kind notify.Kind, p notify.Payload)
}

type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   *config.Config
	Notifier Notifier
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config, notifier Notifier) Engine {
	return Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Events:   events.Writer{DB: db},
		Config:   cfg,
		Notifier: notifier,
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) notify(kind notify.Kind, p notify.Payload) {
	if e.Notifier != nil {
		e.Notifier.Notify(kind, p)
	}
}

// ValidationError reports malformed input, one message per offending field.
// It is always raised before any write.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const dateFormat = "2006-01-02"
