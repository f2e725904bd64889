package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/bootstrap"
)

func newAssetsCmd(e *env) *cobra.Command {
	assets := &cobra.Command{
		Use:   "assets",
		Short: "Manage uploaded images",
	}

	var dryRun bool
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove uploaded files no project references",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.NewApp(cmd.Context(), e.cfg, e.log)
			if err != nil {
				return err
			}
			defer app.Close()

			orphans, err := app.Projects.PruneAssets(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			verb := "removed"
			if dryRun {
				verb = "would remove"
			}
			for _, ref := range orphans {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, ref)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d orphaned file(s)\n", len(orphans))
			return nil
		},
	}
	prune.Flags().BoolVar(&dryRun, "dry-run", false, "list orphaned files without deleting them")

	assets.AddCommand(prune)
	return assets
}
