package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/urfave/cli/v3"
)

// ItemCompleter returns a ShellCompleteFunc that suggests work item IDs for
// the first positional argument and, when withStatus is set, lifecycle
// statuses for the second.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func ItemCompleter(app *taskmanager.App, withStatus bool) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		args := cmd.Args()
		if args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		w := cmd.Root().Writer

		if args.Len() >= 1 {
			if withStatus && args.Len() == 1 {
				for _, s := range item.AllStatuses() {
					_, _ = fmt.Fprintln(w, s)
				}
			}
			return
		}

		items, err := app.Items.List(ctx, item.ListFilter{})
		if err != nil {
			return
		}
		for _, it := range items {
			_, _ = fmt.Fprintln(w, it.ID)
		}
	}
}
