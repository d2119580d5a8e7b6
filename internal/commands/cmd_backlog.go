package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/colonyops/taskmanager/internal/core/backlog"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/colonyops/taskmanager/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type BacklogCmd struct {
	flags *Flags
	app   *taskmanager.App

	project    int
	sprint     int
	jsonOutput bool
}

// NewBacklogCmd creates a new backlog command.
func NewBacklogCmd(flags *Flags, app *taskmanager.App) *BacklogCmd {
	return &BacklogCmd{flags: flags, app: app}
}

// Register adds the backlog command to the application.
func (cmd *BacklogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "backlog",
		Usage: "Inspect project and sprint backlogs",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List the entries of a backlog",
				UsageText: "taskmanager backlog ls (--project <id> | --sprint <id>) [--json]",
				Description: `Lists backlog entries grouped by lane in position order.

Project backlogs hold a "ready" lane of stories ready for development and a
"prioritized" lane of epics, top first. Sprint backlogs hold a "ready" lane
of tasks.`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "project",
						Aliases:     []string{"p"},
						Usage:       "project id",
						Destination: &cmd.project,
					},
					&cli.IntFlag{
						Name:        "sprint",
						Aliases:     []string{"s"},
						Usage:       "sprint id",
						Destination: &cmd.sprint,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *BacklogCmd) run(ctx context.Context, c *cli.Command) error {
	scope, scopeID, err := cmd.scope()
	if err != nil {
		return err
	}

	entries, err := cmd.app.Backlogs.List(ctx, scope, scopeID)
	if err != nil {
		return fmt.Errorf("list %s backlog %d: %w", scope, scopeID, err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, e := range entries {
			if err := iojson.WriteLine(out, e); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintf(c.Root().ErrWriter, "%s backlog %d is empty\n", scope, scopeID)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LANE\tPOS\tITEM\tADDED")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", e.Lane, e.Position, e.ItemID, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (cmd *BacklogCmd) scope() (backlog.Scope, item.ID, error) {
	switch {
	case cmd.project > 0 && cmd.sprint > 0:
		return "", 0, errors.New("--project and --sprint are mutually exclusive")
	case cmd.project > 0:
		return backlog.ScopeProject, item.ID(cmd.project), nil
	case cmd.sprint > 0:
		return backlog.ScopeSprint, item.ID(cmd.sprint), nil
	default:
		return "", 0, errors.New("one of --project or --sprint is required")
	}
}
