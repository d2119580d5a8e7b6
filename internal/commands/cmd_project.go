package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/colonyops/taskmanager/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type ProjectCmd struct {
	flags *Flags
	app   *taskmanager.App

	// create flags
	name       string
	ownerName  string
	ownerEmail string
	teams      []string
}

// NewProjectCmd creates a new project command.
func NewProjectCmd(flags *Flags, app *taskmanager.App) *ProjectCmd {
	return &ProjectCmd{flags: flags, app: app}
}

// Register adds the project command to the application.
func (cmd *ProjectCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "project",
		Usage: "Manage projects",
		Commands: []*cli.Command{
			cmd.createCmd(),
			cmd.showCmd(),
		},
	})

	return app
}

func (cmd *ProjectCmd) createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a project with its product owner and teams",
		UsageText: "taskmanager project create --name <name> --owner-name <name> [--owner-email <email>] [--team <team>...]",
		Description: `Creates a project. The product owner is notified when an epic of the
project is defined; every team is notified when a story with tasks is
defined without an assignee.

Examples:
  taskmanager project create --name shield --owner-name "Nick Fury" --team avengers --team agents`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "unique project name",
				Required:    true,
				Destination: &cmd.name,
			},
			&cli.StringFlag{
				Name:        "owner-name",
				Usage:       "product owner name",
				Required:    true,
				Destination: &cmd.ownerName,
			},
			&cli.StringFlag{
				Name:        "owner-email",
				Usage:       "product owner email, used as notification recipient",
				Destination: &cmd.ownerEmail,
			},
			&cli.StringSliceFlag{
				Name:        "team",
				Aliases:     []string{"t"},
				Usage:       "team working on the project (repeatable)",
				Destination: &cmd.teams,
			},
		},
		Action: cmd.runCreate,
	}
}

func (cmd *ProjectCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a project",
		UsageText: "taskmanager project show <id>",
		Action:    cmd.runShow,
	}
}

func (cmd *ProjectCmd) runCreate(ctx context.Context, c *cli.Command) error {
	project := &item.Project{
		Name:         cmd.name,
		ProductOwner: &item.Person{Name: cmd.ownerName, Email: cmd.ownerEmail},
	}
	for _, name := range cmd.teams {
		project.Teams = append(project.Teams, item.Team{Name: name})
	}

	if err := cmd.app.Items.CreateProject(ctx, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, project)
}

func (cmd *ProjectCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := idArg(c, 0, "project id")
	if err != nil {
		return err
	}

	project, err := cmd.app.Items.GetProject(ctx, id)
	if err != nil {
		return fmt.Errorf("get project %d: %w", id, err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, project)
}
