package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/journal"
	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/colonyops/taskmanager/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type EventsCmd struct {
	flags *Flags
	app   *taskmanager.App

	name  string
	limit int
}

// NewEventsCmd creates a new events command.
func NewEventsCmd(flags *Flags, app *taskmanager.App) *EventsCmd {
	return &EventsCmd{flags: flags, app: app}
}

// Register adds the events command to the application.
func (cmd *EventsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "events",
		Usage: "Inspect the domain event journal",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List journaled events as JSON lines",
				UsageText: "taskmanager events ls [--name <event>] [--limit N]",
				Description: `Lists published domain events, oldest first.

Event names:
  epic.ready-to-prioritize, story.done, story.approved, task.approved, item.released

Examples:
  taskmanager events ls
  taskmanager events ls --name story.done --limit 5`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "name",
						Aliases:     []string{"n"},
						Usage:       "only events with this name",
						Destination: &cmd.name,
					},
					&cli.IntFlag{
						Name:        "limit",
						Usage:       "return at most N events",
						Destination: &cmd.limit,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *EventsCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.limit < 0 {
		return errors.New("--limit must not be negative")
	}

	records, err := cmd.app.Journal.List(ctx, journal.ListFilter{
		Name:  eventbus.Event(cmd.name),
		Limit: cmd.limit,
	})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	out := c.Root().Writer
	for _, r := range records {
		if err := iojson.WriteLine(out, r); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
	return nil
}
