package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/statekit/internal/daemon"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the daemon and block until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

func serve(ctx context.Context, cfg daemon.Config) error {
	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)

	if cfg.Observability.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		mp, err := observability.InitMeter(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		defer func() {
			shutdownCtx := context.WithoutCancel(ctx)
			if err := mp.Shutdown(shutdownCtx); err != nil {
				log.Warn("meter shutdown failed", logger.ErrorFields("meter", err))
			}
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("tracer shutdown failed", logger.ErrorFields("tracer", err))
			}
		}()
	}

	d, err := daemon.New(cfg, log)
	if err != nil {
		return err
	}
	log.Info("starting", logger.Fields("version", cfg.Version, "environment", cfg.Environment))
	return d.Run(ctx)
}
