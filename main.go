package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskmanager/internal/commands"
	"github.com/colonyops/taskmanager/internal/core/config"
	"github.com/colonyops/taskmanager/internal/core/eventbus"
	"github.com/colonyops/taskmanager/internal/core/logging"
	"github.com/colonyops/taskmanager/internal/data/db"
	"github.com/colonyops/taskmanager/internal/data/stores"
	"github.com/colonyops/taskmanager/internal/taskmanager"
	"github.com/colonyops/taskmanager/internal/telemetry"
	"github.com/colonyops/taskmanager/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// openDatabase opens the store, recovering once from a corrupted file.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("database corrupted, moving it aside")
	if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
		return nil, fmt.Errorf("recover from corruption: %w", rerr)
	}
	return db.Open(cfg.DataDir, opts)
}

// newRootCmd builds the root command. Dependencies are created in the
// Before hook and released in After.
func newRootCmd() *cli.Command {
	var (
		logCloser func()
		tmApp     = &taskmanager.App{}
		database  *db.DB
		busCancel context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "taskmanager",
		Usage:     "Move work items through their lifecycle",
		UsageText: "taskmanager [global options] command [command options]",
		Description: `taskmanager tracks epics, stories and tasks of a project and runs the side
effects of every status change: backlog placement, notifications to product
owners and teams, story progress derived from its tasks, and domain events.

Run 'taskmanager statuses' to see the lifecycle.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKMANAGER_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskmanager.log)",
				Sources:     cli.EnvVars("TASKMANAGER_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKMANAGER_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKMANAGER_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := os.MkdirAll(flags.DataDir, 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}

			// Always log to a file; use explicit path or default to <datadir>/taskmanager.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "taskmanager.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile, logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			err = telemetry.Init(ctx, telemetry.Options{
				Enabled:     cfg.Telemetry.Enabled,
				Stdout:      cfg.Telemetry.Stdout,
				ServiceName: "taskmanager",
				Version:     version,
				Writer:      c.Root().ErrWriter,
			})
			if err != nil {
				return ctx, fmt.Errorf("init telemetry: %w", err)
			}

			database, err = openDatabase(cfg)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			bus := eventbus.New(cfg.Events.BufferSize)
			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))

			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			created, err := taskmanager.NewApp(cfg, database, bus, logging.Component("taskmanager"))
			if err != nil {
				return ctx, fmt.Errorf("create app: %w", err)
			}
			*tmApp = *created

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if busCancel != nil {
				busCancel()
			}

			if err := telemetry.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("failed to flush telemetry")
			}

			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewProjectCmd(flags, tmApp).Register(app)
	app = commands.NewSprintCmd(flags, tmApp).Register(app)
	app = commands.NewItemCmd(flags, tmApp).Register(app)
	app = commands.NewBacklogCmd(flags, tmApp).Register(app)
	app = commands.NewEventsCmd(flags, tmApp).Register(app)
	app = commands.NewNotificationsCmd(flags, tmApp).Register(app)
	app = commands.NewStatusesCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	app.EnableShellCompletion = true

	return app
}

func main() {
	ctx := context.Background()

	exitCode := 0
	runErr := newRootCmd().Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
