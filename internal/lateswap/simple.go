package lateswap

import (
	"context"
	"fmt"
	"sort"

	"dfs_go/internal/domain"
	"dfs_go/pkg/points"
)

const defaultFixIters = 8

// SimpleRepairStrategy is the last resort in the chain. It swaps each
// invalid player for the best announced candidate from a different team,
// then runs a bounded exchange pass that pushes the team counts back
// toward one primary-sized and one secondary-sized stack. The exchange
// pass may touch entries the analyzer never flagged, as long as their
// team is not locked.
type SimpleRepairStrategy struct{}

func (SimpleRepairStrategy) Name() string { return "simple_repair" }

func (s SimpleRepairStrategy) Repair(ctx context.Context, rc *RepairContext, lineup *domain.Lineup, invalid []domain.InvalidPlayer) (*domain.SwapResult, error) {
	cfg := rc.Config
	repaired := lineup.Clone()
	taken := lineup.IDSet()

	// 1. One independent swap per invalid entry.
	var swaps []domain.SwapCandidate
	for _, inv := range invalid {
		var pick *domain.Player
		for _, p := range rc.Candidates.Eligible(rc.Pool, rc.Slots, inv.Entry.Slot, "", rc.Locked) {
			if _, ok := taken[p.ID]; ok {
				continue
			}
			if p.Team == inv.Entry.Team {
				continue
			}
			if p.Projection-inv.Entry.Projection < cfg.MinGain {
				continue
			}
			if p.Salary-inv.Entry.Salary > cfg.MaxSalaryBump {
				continue
			}
			pick = p
			break
		}
		if pick == nil {
			return nil, fmt.Errorf("%w: no candidate for %s", domain.ErrNoSolution, inv.Entry.Name)
		}

		repaired.SetEntry(inv.Index, domain.NewEntry(inv.Entry.Slot, pick))
		taken[pick.ID] = struct{}{}
		swaps = append(swaps, domain.SwapCandidate{
			Out:             inv.Entry,
			In:              pick,
			Slot:            inv.Entry.Slot,
			ProjectionDelta: pick.Projection - inv.Entry.Projection,
			SalaryDelta:     pick.Salary - inv.Entry.Salary,
			Role:            inv.Role,
		})
	}

	// 2. Cross-team swaps erode the stacks, so rebuild the shape in place.
	swaps = append(swaps, fixStackShape(rc, repaired, taken)...)

	var projDelta points.Points
	salDelta := 0
	for _, sc := range swaps {
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

// fixStackShape exchanges batters between teams until the lineup carries
// exactly one primary-sized team plus a second team inside the secondary
// band, or the iteration budget runs out. Each pass fixes at most one
// count, so convergence is bounded by MaxFixIters.
func fixStackShape(rc *RepairContext, lineup *domain.Lineup, taken map[string]struct{}) []domain.SwapCandidate {
	t := rc.Config.Targets
	iters := rc.Config.MaxFixIters
	if iters <= 0 {
		iters = defaultFixIters
	}

	var swaps []domain.SwapCandidate
	for i := 0; i < iters; i++ {
		counts := lineup.TeamCounts()
		primaries := teamsAtCount(counts, t.PrimarySize, t.PrimarySize)
		if len(primaries) == 1 && hasSecondary(counts, primaries[0], t) {
			break
		}

		var sc *domain.SwapCandidate
		switch {
		case len(primaries) == 0:
			sc = growPrimary(rc, lineup, counts, taken)
		case len(primaries) > 1:
			sc = shrinkExtraPrimary(rc, lineup, primaries, taken)
		default:
			sc = growSecondary(rc, lineup, counts, primaries[0], taken)
		}
		if sc == nil {
			break // no further exchange possible
		}
		swaps = append(swaps, *sc)
	}
	return swaps
}

// growPrimary raises the team closest below the primary size by one
// batter, donated by the lowest-projection entry on any other team.
func growPrimary(rc *RepairContext, lineup *domain.Lineup, counts map[string]int, taken map[string]struct{}) *domain.SwapCandidate {
	target := closestBelow(counts, rc.Config.Targets.PrimarySize)
	if target == "" {
		return nil
	}
	donorOK := func(e domain.LineupEntry) bool { return e.Team != target }
	return exchange(rc, lineup, taken, donorOK, target, nil, domain.StackPrimary)
}

// shrinkExtraPrimary donates the lowest-projection batter of a surplus
// primary-sized team to any team outside the two largest stacks. Dropping
// to one below the primary size often lands the donor team straight in
// the secondary band.
func shrinkExtraPrimary(rc *RepairContext, lineup *domain.Lineup, primaries []string, taken map[string]struct{}) *domain.SwapCandidate {
	keep, extra := primaries[0], primaries[1]
	donorOK := func(e domain.LineupEntry) bool { return e.Team == extra }
	avoid := map[string]bool{keep: true, extra: true}
	return exchange(rc, lineup, taken, donorOK, "", avoid, domain.StackNone)
}

// growSecondary raises the non-primary team closest below the secondary
// minimum, donated by a one-off entry outside both stacks.
func growSecondary(rc *RepairContext, lineup *domain.Lineup, counts map[string]int, primary string, taken map[string]struct{}) *domain.SwapCandidate {
	below := make(map[string]int, len(counts))
	for team, n := range counts {
		if team != primary {
			below[team] = n
		}
	}
	target := closestBelow(below, rc.Config.Targets.SecondaryMin)
	if target == "" {
		return nil
	}
	donorOK := func(e domain.LineupEntry) bool { return e.Team != primary && e.Team != target }
	return exchange(rc, lineup, taken, donorOK, target, nil, domain.StackSecondary)
}

// exchange applies the first donor-for-candidate trade that fits the cap.
// Donors are tried cheapest projection first, candidates richest first.
func exchange(rc *RepairContext, lineup *domain.Lineup, taken map[string]struct{}, donorOK func(domain.LineupEntry) bool, candTeam string, avoid map[string]bool, role domain.StackRole) *domain.SwapCandidate {
	total := lineup.TotalSalary()

	type donor struct {
		idx   int
		entry domain.LineupEntry
	}
	var donors []donor
	for i, e := range lineup.Entries {
		if e.Pitcher || rc.Locked[e.Team] || !donorOK(e) {
			continue
		}
		donors = append(donors, donor{idx: i, entry: e})
	}
	sort.Slice(donors, func(i, j int) bool {
		if donors[i].entry.Projection != donors[j].entry.Projection {
			return donors[i].entry.Projection < donors[j].entry.Projection
		}
		return donors[i].entry.PlayerID < donors[j].entry.PlayerID
	})

	for _, d := range donors {
		for _, p := range rc.Candidates.Eligible(rc.Pool, rc.Slots, d.entry.Slot, candTeam, rc.Locked) {
			if _, ok := taken[p.ID]; ok {
				continue
			}
			if p.Team == d.entry.Team || avoid[p.Team] {
				continue
			}
			if total-d.entry.Salary+p.Salary > rc.Config.SalaryCap {
				continue
			}
			lineup.SetEntry(d.idx, domain.NewEntry(d.entry.Slot, p))
			taken[p.ID] = struct{}{}
			return &domain.SwapCandidate{
				Out:             d.entry,
				In:              p,
				Slot:            d.entry.Slot,
				ProjectionDelta: p.Projection - d.entry.Projection,
				SalaryDelta:     p.Salary - d.entry.Salary,
				Role:            role,
			}
		}
	}
	return nil
}

// teamsAtCount lists teams whose batter count falls inside [lo, hi],
// largest count first.
func teamsAtCount(counts map[string]int, lo, hi int) []string {
	var out []string
	for team, n := range counts {
		if n >= lo && n <= hi {
			out = append(out, team)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func hasSecondary(counts map[string]int, primary string, t domain.StackTargets) bool {
	for team, n := range counts {
		if team != primary && n >= t.SecondaryMin && n <= t.SecondaryMax {
			return true
		}
	}
	return false
}

// closestBelow picks the team whose count sits nearest under want,
// preferring the larger count and breaking ties by name.
func closestBelow(counts map[string]int, want int) string {
	best, bestN := "", -1
	for team, n := range counts {
		if n >= want {
			continue
		}
		if n > bestN || (n == bestN && (best == "" || team < best)) {
			best, bestN = team, n
		}
	}
	return best
}
