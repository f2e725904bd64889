package main

import (
	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/bootstrap"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := bootstrap.OpenDB(cmd.Context(), e.cfg.Database, e.log)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}
