package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// Source kinds
const (
	SourceSQLite = "sqlite"
	SourceFile   = "file"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig       `mapstructure:"server"`
	Database   DatabaseConfig     `mapstructure:"database"`
	Logger     LoggerConfig       `mapstructure:"logger"`
	Lark       LarkConfig         `mapstructure:"lark"`
	Workflow   WorkflowConfig     `mapstructure:"workflow"`
	Priority   prioritizer.Config `mapstructure:"priority"`
	Automation AutomationConfig   `mapstructure:"automation"`
	Source     SourceConfig       `mapstructure:"source"`
	Sync       SyncConfig         `mapstructure:"sync"`
	Report     ReportConfig       `mapstructure:"report"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	Mode         string        `mapstructure:"mode" validate:"oneof=debug release test"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// LarkConfig holds Lark messaging configuration
type LarkConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AppID         string `mapstructure:"app_id" validate:"required_if=Enabled true"`
	AppSecret     string `mapstructure:"app_secret" validate:"required_if=Enabled true"`
	ReceiveIDType string `mapstructure:"receive_id_type" validate:"oneof=open_id user_id email"`

	// Recipients maps staff names or emails to Lark receiver ids
	Recipients map[string]string `mapstructure:"recipients"`
}

// WorkflowConfig points at YAML overrides; empty paths use the built-in workflows
type WorkflowConfig struct {
	DefinitionsPath string `mapstructure:"definitions_path"`
	RulesPath       string `mapstructure:"rules_path"`
}

// AutomationConfig holds the initial automation switches
type AutomationConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Notifications bool `mapstructure:"notifications"`
	RunOnSync     bool `mapstructure:"run_on_sync"`
}

// SourceConfig selects where case records are read from
type SourceConfig struct {
	Kind string `mapstructure:"kind" validate:"oneof=sqlite file"`
	Path string `mapstructure:"path" validate:"required_if=Kind file"`
}

// SyncConfig holds the re-sync schedule; an empty schedule disables the worker
type SyncConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// ReportConfig holds workbook archive settings
type ReportConfig struct {
	OutputDir     string `mapstructure:"output_dir" validate:"required"`
	Retention     int    `mapstructure:"retention" validate:"gte=0"`
	ArchiveOnSync bool   `mapstructure:"archive_on_sync"`
}

// Load loads configuration from an optional .env file, the config file and environment variables.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("TASKHUB")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.path", "data/taskhub.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.max_size_mb", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)
	v.SetDefault("logger.compress", true)

	// Lark defaults
	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.receive_id_type", "open_id")

	// Priority defaults
	p := prioritizer.DefaultConfig()
	v.SetDefault("priority.weights.days_overdue", p.Weights.DaysOverdue)
	v.SetDefault("priority.weights.member_complexity", p.Weights.MemberComplexity)
	v.SetDefault("priority.weights.staff_workload", p.Weights.StaffWorkload)
	v.SetDefault("priority.weights.pathway_criticality", p.Weights.PathwayCriticality)
	v.SetDefault("priority.weights.historical_delay", p.Weights.HistoricalDelay)
	v.SetDefault("priority.thresholds.critical", p.Thresholds.Critical)
	v.SetDefault("priority.thresholds.high", p.Thresholds.High)
	v.SetDefault("priority.thresholds.medium", p.Thresholds.Medium)

	// Automation defaults
	v.SetDefault("automation.enabled", true)
	v.SetDefault("automation.notifications", true)
	v.SetDefault("automation.run_on_sync", false)

	// Source, sync and report defaults
	v.SetDefault("source.kind", SourceSQLite)
	v.SetDefault("sync.schedule", "")
	v.SetDefault("report.output_dir", "data")
	v.SetDefault("report.retention", 14)
	v.SetDefault("report.archive_on_sync", false)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string]string{
		"lark.app_id":     "LARK_APP_ID",
		"lark.app_secret": "LARK_APP_SECRET",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.Priority.Validate(); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ToLoggerConfig converts the logger section for utils.NewLogger
func (c LoggerConfig) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Level,
		OutputPath: c.OutputPath,
		Format:     c.Format,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}
