package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/colonyops/taskmanager/pkg/tmpl"
	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, required),
		c.validateDatabase(),
		c.validateEvents(),
		c.validateMessages(),
	)
}

// ValidateDeep performs Validate plus file access and glob pattern checks.
// The configPath argument is the config file to check (empty skips the check).
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validateMutedProjects(),
	)
}

func (c *Config) validateDatabase() error {
	var errs criterio.FieldErrorsBuilder
	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", errors.New("must be at least 1"))
	}
	if c.Database.MaxIdleConns < 1 {
		errs = errs.Append("database.max_idle_conns", errors.New("must be at least 1"))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = errs.Append("database.max_idle_conns",
			fmt.Errorf("must not exceed max_open_conns (%d)", c.Database.MaxOpenConns))
	}
	if c.Database.BusyTimeout < 0 {
		errs = errs.Append("database.busy_timeout", errors.New("must not be negative"))
	}
	return errs.ToError()
}

func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 1 {
		return criterio.NewFieldErrors("events.buffer_size", errors.New("must be at least 1"))
	}
	return nil
}

func (c *Config) validateMessages() error {
	var errs criterio.FieldErrorsBuilder
	if _, err := tmpl.Parse(c.Communication.TeamMessage); err != nil {
		errs = errs.Append("communication.team_message", err)
	}
	if _, err := tmpl.Parse(c.Communication.PersonMessage); err != nil {
		errs = errs.Append("communication.person_message", err)
	}
	return errs.ToError()
}

func (c *Config) validateMutedProjects() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Communication.MutedProjects {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("communication.muted_projects[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func required(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
