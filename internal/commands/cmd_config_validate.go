package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/taskmanager/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "taskmanager config validate [options]",
				Description: "Validates the configuration file, checking database settings, muted project globs, message templates and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validateOutput struct {
	Valid  bool   `json:"valid"`
	Config string `json:"config"`
	Error  string `json:"error,omitempty"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)

	out := validateOutput{Valid: err == nil, Config: cmd.flags.ConfigPath}
	if err != nil {
		out.Error = err.Error()
	}

	if cmd.format == "json" {
		if werr := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); werr != nil {
			return werr
		}
	} else {
		w := c.Root().Writer
		if err != nil {
			_, _ = fmt.Fprintf(w, "%s\n\n", err)
		} else {
			_, _ = fmt.Fprintf(w, "Configuration is valid (%s)\n", cmd.flags.ConfigPath)
		}
	}

	if err != nil {
		return cli.Exit("", 1)
	}
	return nil
}
