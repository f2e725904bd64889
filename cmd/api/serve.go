package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/cronjob"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), e)
		},
	}
}

func serve(parent context.Context, e *env) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log := e.cfg, e.log
	bootstrap.SetGinMode(cfg.App.Environment)

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close resources", zap.Error(err))
		}
	}()

	if cfg.App.SeedOnStartup {
		if err := app.Seed(ctx); err != nil {
			return err
		}
	}

	var scheduler *cronjob.Scheduler
	if cfg.Assets.PruneSchedule != "" {
		scheduler = cronjob.NewScheduler(log.Named("cron"))
		if err := scheduler.SchedulePrune(cfg.Assets.PruneSchedule, app.Projects); err != nil {
			return err
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: bootstrap.BuildRouter(bootstrap.RouterDeps{
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			CORSOrigins: cfg.Server.CORSOrigins,
			App:         app,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	log.Info("shutdown complete")
	return nil
}
