package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/colonyops/taskmanager/internal/core/config"
	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/urfave/cli/v3"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "taskmanager", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "taskmanager")
}

// idArg parses the positional argument at index i as a work item ID.
func idArg(c *cli.Command, i int, name string) (item.ID, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, raw)
	}
	return item.ID(id), nil
}
