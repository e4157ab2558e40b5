package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dfs_go/internal/app"
	"dfs_go/internal/service"
)

func lateswapCmd(boot *app.Bootstrap) *cobra.Command {
	var entriesPath string
	var poolPath string
	var watch bool

	c := &cobra.Command{
		Use:   "lateswap",
		Short: "Repair committed contest entries against a refreshed export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := boot.Storage()
			if err != nil {
				return err
			}

			svc := service.NewLateSwapService(boot.Config, store)
			repaired, failed, err := svc.Run(cmd.Context(), entriesPath, poolPath, watch)
			if err != nil {
				return err
			}

			switch {
			case repaired > 0:
				fmt.Printf("Repaired %d entries (%d unrepairable), file updated: %s\n",
					repaired, failed, entriesPath)
			case failed > 0:
				fmt.Printf("No entries repaired (%d unrepairable), file untouched\n", failed)
			default:
				fmt.Println("All entries already valid, nothing to swap")
			}
			return nil
		},
	}

	c.Flags().StringVar(&entriesPath, "entries", "", "contest entries CSV to repair in place (required)")
	c.Flags().StringVar(&poolPath, "pool", "", "refreshed FanDuel player export CSV (required)")
	c.Flags().BoolVar(&watch, "watch", false, "follow the roster feed and keep repairing until all teams lock")

	_ = c.MarkFlagRequired("entries")
	_ = c.MarkFlagRequired("pool")
	return c
}
