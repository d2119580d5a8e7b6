package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/colonyops/taskmanager/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type NotificationsCmd struct {
	flags *Flags
	app   *taskmanager.App
}

// NewNotificationsCmd creates a new notifications command.
func NewNotificationsCmd(flags *Flags, app *taskmanager.App) *NotificationsCmd {
	return &NotificationsCmd{flags: flags, app: app}
}

// Register adds the notifications command to the application.
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Inspect the notification outbox",
		Description: `Notifications are recorded when a transition needs somebody's attention:
the product owner when an epic is defined, every project team when a story
with tasks is defined without an assignee.`,
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List notifications as JSON lines, newest first",
				UsageText: "taskmanager notifications ls",
				Action:    cmd.runList,
			},
			{
				Name:      "clear",
				Usage:     "Remove all notifications",
				UsageText: "taskmanager notifications clear",
				Action:    cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *NotificationsCmd) runList(ctx context.Context, c *cli.Command) error {
	notifications, err := cmd.app.Notifications.List(ctx)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	out := c.Root().Writer
	for _, n := range notifications {
		if err := iojson.WriteLine(out, n); err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
	}
	return nil
}

func (cmd *NotificationsCmd) runClear(ctx context.Context, c *cli.Command) error {
	count, err := cmd.app.Notifications.Count(ctx)
	if err != nil {
		return fmt.Errorf("count notifications: %w", err)
	}

	if err := cmd.app.Notifications.Clear(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, map[string]int64{"cleared": count})
}
