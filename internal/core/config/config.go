// Package config handles configuration loading and validation for taskmanager.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Communication CommunicationConfig `yaml:"communication"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Events        EventsConfig        `yaml:"events"`
	DataDir       string              `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// CommunicationConfig controls which notifications are recorded.
type CommunicationConfig struct {
	// MutedProjects are glob patterns matched against project names.
	// Notifications about items in a matching project are skipped.
	MutedProjects []string `yaml:"muted_projects"`

	// TeamMessage and PersonMessage are Go templates rendered with the
	// item's ID, Kind, Title, Status and Project.
	TeamMessage   string `yaml:"team_message"`
	PersonMessage string `yaml:"person_message"`
}

const (
	DefaultTeamMessage   = `story {{ .ID }} {{ quote .Title }} is defined and waiting for an assignee`
	DefaultPersonMessage = `{{ .Kind }} {{ .ID }} {{ quote .Title }} is now {{ .Status }}`
)

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
	Stdout  bool `yaml:"stdout"` // pretty-print spans to stdout
}

// EventsConfig tunes the in-process event bus.
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Communication: CommunicationConfig{
			MutedProjects: []string{},
			TeamMessage:   DefaultTeamMessage,
			PersonMessage: DefaultPersonMessage,
		},
		Events: EventsConfig{
			BufferSize: 256,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Communication.TeamMessage == "" {
		c.Communication.TeamMessage = defaults.Communication.TeamMessage
	}
	if c.Communication.PersonMessage == "" {
		c.Communication.PersonMessage = defaults.Communication.PersonMessage
	}
	if c.Events.BufferSize == 0 {
		c.Events.BufferSize = defaults.Events.BufferSize
	}
}
