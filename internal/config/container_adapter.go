package config

import (
	"github.com/garyjia/calaim-taskhub/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	recipients := make(map[string]string, len(c.Lark.Recipients))
	for k, v := range c.Lark.Recipients {
		recipients[k] = v
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Lark: container.LarkConfig{
			Enabled:       c.Lark.Enabled,
			AppID:         c.Lark.AppID,
			AppSecret:     c.Lark.AppSecret,
			ReceiveIDType: c.Lark.ReceiveIDType,
			Recipients:    recipients,
		},
		Workflow: container.WorkflowConfig{
			DefinitionsPath: c.Workflow.DefinitionsPath,
			RulesPath:       c.Workflow.RulesPath,
		},
		Priority: c.Priority,
		Automation: container.AutomationConfig{
			Enabled:       c.Automation.Enabled,
			Notifications: c.Automation.Notifications,
			RunOnSync:     c.Automation.RunOnSync,
		},
		Source: container.SourceConfig{
			Kind: c.Source.Kind,
			Path: c.Source.Path,
		},
		Sync: container.SyncConfig{
			Schedule: c.Sync.Schedule,
		},
		Report: container.ReportConfig{
			OutputDir:     c.Report.OutputDir,
			Retention:     c.Report.Retention,
			ArchiveOnSync: c.Report.ArchiveOnSync,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}
