package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dfs_go/internal/app"
	"dfs_go/internal/domain"
	"dfs_go/internal/infra/pool"
)

func poolCmd(boot *app.Bootstrap) *cobra.Command {
	c := &cobra.Command{
		Use:   "pool",
		Short: "Player pool utilities",
	}
	c.AddCommand(poolValidateCmd(boot))
	return c
}

func poolValidateCmd(boot *app.Bootstrap) *cobra.Command {
	var poolPath string

	c := &cobra.Command{
		Use:   "validate",
		Short: "Load a player export and print a slate summary",
		RunE: func(_ *cobra.Command, _ []string) error {
			p, err := pool.NewLoader(boot.Config.Rules.ExcludedPlayers).Load(poolPath)
			if err != nil {
				return err
			}
			printPoolSummary(os.Stdout, p)
			return nil
		},
	}

	c.Flags().StringVar(&poolPath, "pool", "", "FanDuel player export CSV (required)")
	_ = c.MarkFlagRequired("pool")
	return c
}

func printPoolSummary(w io.Writer, p *domain.Pool) {
	announced, pitchers, probables := 0, 0, 0
	minSalary, maxSalary := 0, 0
	for _, pl := range p.Players() {
		if pl.Announced() {
			announced++
		}
		if pl.IsPitcher() {
			pitchers++
			if pl.ProbablePitcher {
				probables++
			}
		}
		if minSalary == 0 || pl.Salary < minSalary {
			minSalary = pl.Salary
		}
		if pl.Salary > maxSalary {
			maxSalary = pl.Salary
		}
	}

	fmt.Fprintf(w, "Players:   %d (%d announced)\n", p.Len(), announced)
	fmt.Fprintf(w, "Pitchers:  %d (%d probable)\n", pitchers, probables)
	fmt.Fprintf(w, "Salary:    %d to %d\n", minSalary, maxSalary)
	fmt.Fprintf(w, "Teams:     %s\n", strings.Join(p.Teams(), ", "))

	for _, team := range p.Teams() {
		batters := 0
		for _, pl := range p.OnTeam(team) {
			if !pl.IsPitcher() && pl.Announced() {
				batters++
			}
		}
		fmt.Fprintf(w, "  %-4s %2d announced batters\n", team, batters)
	}
}
