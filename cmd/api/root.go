package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/config"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/logging"
)

// env carries what every subcommand needs after PersistentPreRunE.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "api",
		Short:         "Portfolio projects API",
		Long:          `api serves the portfolio project catalogue and its uploaded images.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = log.With(zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Environment))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}

	serve := newServeCmd(e)
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCmd(e), newAssetsCmd(e))
	return root
}
