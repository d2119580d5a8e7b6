// Package taskmanager wires the transition processor to its SQLite-backed
// collaborators and exposes the workflow the CLI drives.
package taskmanager

import (
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/backlog"
	"github.com/colonyops/taskmanager/internal/core/config"
	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/core/journal"
	"github.com/colonyops/taskmanager/internal/core/notify"
	"github.com/colonyops/taskmanager/internal/core/transition"
	"github.com/colonyops/taskmanager/internal/data/db"
	"github.com/colonyops/taskmanager/internal/data/stores"
	"github.com/colonyops/taskmanager/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// App is the central entry point for all taskmanager operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Items         item.Store
	Backlogs      backlog.Store
	Notifications notify.Store
	Journal       journal.Store

	Transitions *TransitionService

	Bus    *eventbus.EventBus
	Config *config.Config
	DB     *db.DB
}

// NewApp constructs an App from explicit dependencies. The caller owns the
// bus and must Start it for subscribers to receive events.
func NewApp(cfg *config.Config, database *db.DB, bus *eventbus.EventBus, log zerolog.Logger) (*App, error) {
	return newApp(cfg, database, bus, log, telemetry.Tracer(""), telemetry.Meter(""))
}

func newApp(
	cfg *config.Config,
	database *db.DB,
	bus *eventbus.EventBus,
	log zerolog.Logger,
	tracer trace.Tracer,
	meter metric.Meter,
) (*App, error) {
	var (
		items         = stores.NewItemStore(database)
		backlogs      = stores.NewBacklogStore(database)
		notifications = stores.NewNotifyStore(database)
		events        = stores.NewJournalStore(database)
	)

	communication, err := NewCommunicationService(notifications, cfg.Communication, log)
	if err != nil {
		return nil, fmt.Errorf("create communication service: %w", err)
	}

	processor := transition.NewProcessor(transition.Services{
		ProjectBacklog: NewProjectBacklogService(backlogs, items, log),
		SprintBacklog:  NewSprintBacklogService(backlogs, log),
		Communication:  communication,
		StoryProgress:  NewStoryService(items, log),
		Events:         NewEventRegistry(events, bus, log),
	}, log)

	transitions, err := NewTransitionService(items, processor, tracer, meter, log)
	if err != nil {
		return nil, fmt.Errorf("create transition service: %w", err)
	}

	return &App{
		Items:         items,
		Backlogs:      backlogs,
		Notifications: notifications,
		Journal:       events,
		Transitions:   transitions,
		Bus:           bus,
		Config:        cfg,
		DB:            database,
	}, nil
}
