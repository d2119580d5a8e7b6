package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/urfave/cli/v3"
)

type StatusesCmd struct {
	flags *Flags
}

// NewStatusesCmd creates a new statuses command.
func NewStatusesCmd(flags *Flags) *StatusesCmd {
	return &StatusesCmd{flags: flags}
}

// Register adds the statuses command to the application.
func (cmd *StatusesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "statuses",
		Usage:     "List the work item lifecycle and what entering each status does",
		UsageText: "taskmanager statuses",
		Action:    cmd.run,
	})

	return app
}

var statusEffects = map[item.Status]string{
	item.StatusToBeDefined: "nothing",
	item.StatusDefined:     "epic: top of project backlog, owner notified; story: ready lane or teams notified; task: sprint ready lane",
	item.StatusInProgress:  "subtask: story progress updated",
	item.StatusDone:        "subtask: story progress updated; story done event",
	item.StatusApproved:    "subtask: partial approval; story or task: approved event",
	item.StatusReleased:    "released event",
}

func (cmd *StatusesCmd) run(_ context.Context, c *cli.Command) error {
	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tSIDE EFFECTS")
	for _, s := range item.AllStatuses() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", s, statusEffects[s])
	}
	return w.Flush()
}
