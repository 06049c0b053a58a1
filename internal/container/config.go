// Package container provides dependency injection and lifecycle management
// for the CalAIM task hub following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
)

// Source kinds
const (
	SourceSQLite = "sqlite"
	SourceFile   = "file"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Lark messaging configuration
	Lark LarkConfig

	// Workflow definition and rule overrides
	Workflow WorkflowConfig

	// Priority weights and tier thresholds
	Priority prioritizer.Config

	// Initial automation switches
	Automation AutomationConfig

	// Case record source
	Source SourceConfig

	// Periodic re-sync
	Sync SyncConfig

	// Workbook archive
	Report ReportConfig

	// Server configuration
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// LarkConfig holds Lark messaging settings.
type LarkConfig struct {
	// Enabled turns staff notifications on
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// ReceiveIDType is used for configured recipients
	ReceiveIDType string

	// Recipients maps staff names or emails to receiver ids
	Recipients map[string]string
}

// WorkflowConfig holds optional YAML paths. Empty paths use the built-in workflows and rules.
type WorkflowConfig struct {
	DefinitionsPath string
	RulesPath       string
}

// AutomationConfig holds the automation switches applied at startup.
type AutomationConfig struct {
	Enabled       bool
	Notifications bool

	// RunOnSync evaluates automation rules after each scheduled sync
	RunOnSync bool
}

// SourceConfig selects where case records come from.
type SourceConfig struct {
	// Kind is "sqlite" or "file"
	Kind string

	// Path is the JSON file for the file source
	Path string
}

// SyncConfig holds the re-sync schedule.
type SyncConfig struct {
	// Schedule is a cron expression; empty disables the sync worker
	Schedule string
}

// ReportConfig holds workbook archive settings.
type ReportConfig struct {
	// OutputDir is the base directory for archived workbooks
	OutputDir string

	// Retention keeps the newest n workbooks; zero keeps all
	Retention int

	// ArchiveOnSync writes a workbook after each scheduled sync
	ArchiveOnSync bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/taskhub.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Lark: LarkConfig{
			ReceiveIDType: "open_id",
			Recipients:    map[string]string{},
		},
		Priority: prioritizer.DefaultConfig(),
		Automation: AutomationConfig{
			Enabled:       true,
			Notifications: true,
		},
		Source: SourceConfig{
			Kind: SourceSQLite,
		},
		Report: ReportConfig{
			OutputDir: "data",
			Retention: 14,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate Lark configuration
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when lark is enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark is enabled")
		}
	}

	switch c.Source.Kind {
	case SourceSQLite:
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for the file source")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required")
	}

	if err := c.Priority.Validate(); err != nil {
		return fmt.Errorf("priority: %w", err)
	}

	return nil
}
