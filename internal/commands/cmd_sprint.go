package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/colonyops/taskmanager/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type SprintCmd struct {
	flags *Flags
	app   *taskmanager.App

	project int
	name    string
}

// NewSprintCmd creates a new sprint command.
func NewSprintCmd(flags *Flags, app *taskmanager.App) *SprintCmd {
	return &SprintCmd{flags: flags, app: app}
}

// Register adds the sprint command to the application.
func (cmd *SprintCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "sprint",
		Usage: "Manage sprints",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a sprint in a project",
				UsageText: "taskmanager sprint create --project <id> --name <name>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "project",
						Aliases:     []string{"p"},
						Usage:       "project id",
						Required:    true,
						Destination: &cmd.project,
					},
					&cli.StringFlag{
						Name:        "name",
						Aliases:     []string{"n"},
						Usage:       "sprint name",
						Required:    true,
						Destination: &cmd.name,
					},
				},
				Action: cmd.runCreate,
			},
		},
	})

	return app
}

func (cmd *SprintCmd) runCreate(ctx context.Context, c *cli.Command) error {
	sprint := &item.Sprint{ProjectID: item.ID(cmd.project), Name: cmd.name}
	if err := cmd.app.Items.CreateSprint(ctx, sprint); err != nil {
		return fmt.Errorf("create sprint: %w", err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, sprint)
}
