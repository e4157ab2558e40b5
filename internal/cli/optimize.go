package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dfs_go/internal/app"
	"dfs_go/internal/service"
)

func optimizeCmd(boot *app.Bootstrap) *cobra.Command {
	var poolPath string
	var outPath string
	var count int

	c := &cobra.Command{
		Use:   "optimize",
		Short: "Generate a lineup set from a FanDuel player export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := boot.Storage()
			if err != nil {
				return err
			}

			svc := service.NewOptimizerService(boot.Config, store)
			sum, err := svc.Run(cmd.Context(), poolPath, outPath, count)
			if err != nil {
				return err
			}

			fmt.Printf("Produced %d lineups in %d attempts (%s)\n",
				sum.Produced, sum.Attempts, sum.Elapsed.Round(time.Millisecond))
			if sum.Infeasible > 0 || sum.NoSolution > 0 {
				fmt.Printf("Dry attempts: %d infeasible, %d without a solution\n",
					sum.Infeasible, sum.NoSolution)
			}
			if outPath != "" && sum.Produced > 0 {
				fmt.Printf("Upload file: %s\n", outPath)
			}
			return nil
		},
	}

	c.Flags().StringVar(&poolPath, "pool", "", "FanDuel player export CSV (required)")
	c.Flags().IntVar(&count, "count", 0, "lineup target (overrides the configured value)")
	c.Flags().StringVar(&outPath, "out", "", "write an upload-ready CSV here")

	_ = c.MarkFlagRequired("pool")
	return c
}
