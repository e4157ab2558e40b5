package lateswap

import (
	"context"
	"fmt"

	"dfs_go/internal/domain"
	"dfs_go/pkg/points"
)

// StackPreserverStrategy replaces each invalid player with the best
// same-team candidate at his slot, which keeps the team counts, and with
// them the stack shape, mechanically intact. One-off players outside the
// stacks may pull from any team. Candidate salary never increases, so the
// cap holds by construction.
type StackPreserverStrategy struct{}

func (StackPreserverStrategy) Name() string { return "stack_preserver" }

func (s StackPreserverStrategy) Repair(ctx context.Context, rc *RepairContext, lineup *domain.Lineup, invalid []domain.InvalidPlayer) (*domain.SwapResult, error) {
	repaired := lineup.Clone()
	taken := lineup.IDSet()

	var swaps []domain.SwapCandidate
	var projDelta points.Points
	salDelta := 0

	for _, inv := range invalid {
		team := inv.Entry.Team
		if inv.Role == domain.StackNone {
			team = "" // one-offs may pull from any team
		}

		var pick *domain.Player
		for _, p := range rc.Candidates.Eligible(rc.Pool, rc.Slots, inv.Entry.Slot, team, rc.Locked) {
			if _, ok := taken[p.ID]; ok {
				continue
			}
			if p.Salary > inv.Entry.Salary {
				continue
			}
			pick = p
			break
		}
		if pick == nil {
			return nil, fmt.Errorf("%w: no candidate for %s at %s", domain.ErrNoSolution, inv.Entry.Name, inv.Entry.Slot)
		}

		repaired.SetEntry(inv.Index, domain.NewEntry(inv.Entry.Slot, pick))
		taken[pick.ID] = struct{}{}
		sc := domain.SwapCandidate{
			Out:             inv.Entry,
			In:              pick,
			Slot:            inv.Entry.Slot,
			ProjectionDelta: pick.Projection - inv.Entry.Projection,
			SalaryDelta:     pick.Salary - inv.Entry.Salary,
			Role:            inv.Role,
		}
		swaps = append(swaps, sc)
		projDelta += sc.ProjectionDelta
		salDelta += sc.SalaryDelta
	}

	return &domain.SwapResult{
		Lineup:          repaired,
		Swaps:           swaps,
		Strategy:        s.Name(),
		Changed:         true,
		ProjectionDelta: projDelta,
		SalaryDelta:     salDelta,
	}, nil
}
