package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/calaim-taskhub/internal/clock"
	httpapi "github.com/garyjia/calaim-taskhub/internal/interfaces/http"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and run background sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Starting CalAIM task hub",
		zap.String("version", version),
		zap.Int("port", a.cfg.Server.Port),
		zap.String("source", a.cfg.Source.Kind))

	c, err := a.startContainer(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			a.logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	// A failed first load is served as a degraded state; the next sync or reload retries
	if err := c.Services().Tasks.Load(ctx); err != nil {
		a.logger.Error("Initial task load failed", zap.Error(err))
	}

	cc := c.Config()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cc.Server.Host,
		Port:         cc.Server.Port,
		ReadTimeout:  cc.Server.ReadTimeout,
		WriteTimeout: cc.Server.WriteTimeout,
	}, httpapi.Services{
		Tasks:      c.Services().Tasks,
		Automation: c.Services().Automation,
		Reports:    c.Services().Report,
		Health: func(ctx context.Context) interface{} {
			return c.Health(ctx).Components
		},
	}, clock.RealClock{}, utils.NewSugaredAdapter(a.logger.Named("http")))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		return c.Workers().Run(gctx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Server exited with error", zap.Error(err))
		return err
	}

	a.logger.Info("Server exited successfully")
	return nil
}
