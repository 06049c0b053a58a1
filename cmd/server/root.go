package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/config"
	"github.com/garyjia/calaim-taskhub/internal/container"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

const version = "1.0.0"

// app carries what PersistentPreRunE loaded to the subcommands
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "taskhub",
		Short:         "CalAIM Community Supports task hub",
		Long:          "Prioritizes Kaiser and Health Net placement tasks, runs workflow automation and serves the staff dashboard API.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("TASKHUB_CONFIG"),
		"path to the YAML config file (defaults and environment only when empty)")

	cmd.AddCommand(
		newServeCmd(a),
		newExportCmd(a),
		newRulesCmd(a),
		newImportCmd(a),
	)
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(cfg.Logger.ToLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// startContainer builds and starts the container; callers must Close it
func (a *app) startContainer(ctx context.Context) (*container.Container, error) {
	c, err := container.NewContainer(a.cfg.ToContainerConfig(), a.logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// loadTasks starts the container and loads the task list
func (a *app) loadTasks(ctx context.Context) (*container.Container, error) {
	c, err := a.startContainer(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Services().Tasks.Load(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
