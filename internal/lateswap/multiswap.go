package lateswap

import (
	"context"
	"fmt"
	"strings"

	"dfs_go/internal/domain"
	"dfs_go/internal/solver"
	"dfs_go/pkg/points"
)

// MultiSwapStrategy repairs every invalid entry jointly through the solver,
// so replacements competing for salary or stack room are traded off against
// each other instead of claimed greedily.
type MultiSwapStrategy struct {
	engine solver.Solver
}

// NewMultiSwapStrategy creates the strategy backed by the given solver.
func NewMultiSwapStrategy(engine solver.Solver) *MultiSwapStrategy {
	return &MultiSwapStrategy{engine: engine}
}

func (s *MultiSwapStrategy) Name() string { return "multi_swap" }

type swapCell struct {
	inv    int // index into the invalid slice
	player *domain.Player
	v      solver.Bool
}

func (s *MultiSwapStrategy) Repair(ctx context.Context, rc *RepairContext, lineup *domain.Lineup, invalid []domain.InvalidPlayer) (*domain.SwapResult, error) {
	m := solver.NewModel()
	cfg := rc.Config
	rostered := lineup.IDSet()

	// 1. One boolean per (invalid, candidate) pair.
	var cells []swapCell
	byCandidate := make(map[string][]solver.Bool)
	perInvalid := make([][]solver.Term, len(invalid))
	for i, inv := range invalid {
		for _, p := range rc.Candidates.Eligible(rc.Pool, rc.Slots, inv.Entry.Slot, "", rc.Locked) {
			if _, ok := rostered[p.ID]; ok {
				continue
			}
			if cfg.AvoidSameTeam && p.Team == inv.Entry.Team {
				continue
			}
			if p.Projection-inv.Entry.Projection < cfg.MinGain {
				continue
			}
			if p.Salary-inv.Entry.Salary > cfg.MaxSalaryBump {
				continue
			}
			v := m.NewBool("swap/" + inv.Entry.PlayerID + "/" + p.ID)
			cells = append(cells, swapCell{inv: i, player: p, v: v})
			byCandidate[p.ID] = append(byCandidate[p.ID], v)
			perInvalid[i] = append(perInvalid[i], solver.Unit(v))
		}
		if len(perInvalid[i]) == 0 {
			return nil, fmt.Errorf("%w: no candidates for %s", domain.ErrNoSolution, inv.Entry.Name)
		}
	}

	// 2. Exactly one replacement per invalid entry; no candidate reused.
	for _, terms := range perInvalid {
		m.AddLinear(terms, solver.EQ, 1)
	}
	for _, vars := range byCandidate {
		if len(vars) > 1 {
			m.AddAtMostOne(vars...)
		}
	}

	// 3. Post-swap salary stays under the cap.
	base := lineup.TotalSalary()
	for _, inv := range invalid {
		base -= inv.Entry.Salary
	}
	salary := make([]solver.Term, len(cells))
	for i, c := range cells {
		salary[i] = solver.Term{Var: c.v, Weight: int64(c.player.Salary)}
	}
	m.AddLinear(salary, solver.LE, int64(cfg.SalaryCap-base))

	// 4. Stack counts stay on target.
	if err := addStackConstraints(m, rc, lineup, invalid, cells); err != nil {
		return nil, err
	}

	// 5. The late batting-order budget still holds.
	if err := addLateOrderConstraint(m, rc, lineup, invalid, cells); err != nil {
		return nil, err
	}

	// 6. Take the largest total projection gain.
	obj := make([]solver.Term, len(cells))
	for i, c := range cells {
		obj[i] = solver.Term{Var: c.v, Weight: int64(c.player.Projection - invalid[c.inv].Entry.Projection)}
	}
	m.Maximize(obj)

	res, err := s.engine.Solve(ctx, m, solver.Params{Budget: cfg.SolveBudget})
	if err != nil {
		return nil, err
	}
	if !res.Feasible() {
		return nil, fmt.Errorf("%w: joint swap %s", domain.ErrNoSolution, res.Status)
	}

	repaired := lineup.Clone()
	var swaps []domain.SwapCandidate
	var projDelta points.Points
	salDelta := 0
	for _, c := range cells {
		if !res.Value(c.v) {
			continue
		}
		inv := invalid[c.inv]
		repaired.SetEntry(inv.Index, domain.NewEntry(inv.Entry.Slot, c.player))
		sc := domain.SwapCandidate{
			Out:             inv.Entry,
			In:              c.player,
			Slot:            inv.Entry.Slot,
			ProjectionDelta: c.player.Projection - inv.Entry.Projection,
			SalaryDelta:     c.player.Salary - inv.Entry.Salary,
			Role:            inv.Role,
		}
		swaps = append(swaps, sc)
		projDelta += sc.ProjectionDelta
		salDelta += sc.SalaryDelta
	}

	// Post-hoc gate, independent of the model above.
	if violations := rc.Validator.Violations(repaired, lineup); len(violations) > 0 {
		return nil, fmt.Errorf("%w: post-check failed: %s", domain.ErrNoSolution, strings.Join(violations, "; "))
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

// addStackConstraints pins the committed stack shape: the primary team keeps
// its exact size, the secondary team stays inside its band. Teams outside
// the shape float free, the validator bounds them afterwards.
func addStackConstraints(m *solver.Model, rc *RepairContext, lineup *domain.Lineup, invalid []domain.InvalidPlayer, cells []swapCell) error {
	t := rc.Config.Targets
	shape := domain.AnalyzeStacks(lineup, t)

	kept := lineup.TeamCounts()
	for _, inv := range invalid {
		kept[inv.Entry.Team]--
	}

	constrain := func(team string, rel solver.Relation, want int) error {
		var terms []solver.Term
		for _, c := range cells {
			if c.player.Team == team {
				terms = append(terms, solver.Unit(c.v))
			}
		}
		rhs := int64(want - kept[team])
		if len(terms) == 0 {
			ok := false
			switch rel {
			case solver.LE:
				ok = rhs >= 0
			case solver.GE:
				ok = rhs <= 0
			case solver.EQ:
				ok = rhs == 0
			}
			if !ok {
				return fmt.Errorf("%w: no %s candidates to hold the stack at %d", domain.ErrNoSolution, team, want)
			}
			return nil
		}
		m.AddLinear(terms, rel, rhs)
		return nil
	}

	if shape.Primary != "" {
		if err := constrain(shape.Primary, solver.EQ, t.PrimarySize); err != nil {
			return err
		}
	}
	if shape.Secondary != "" {
		if err := constrain(shape.Secondary, solver.GE, t.SecondaryMin); err != nil {
			return err
		}
		if err := constrain(shape.Secondary, solver.LE, t.SecondaryMax); err != nil {
			return err
		}
	}
	return nil
}

// addLateOrderConstraint keeps the repaired lineup inside the late
// batting-order budget, counting the kept entries at their refreshed orders.
func addLateOrderConstraint(m *solver.Model, rc *RepairContext, lineup *domain.Lineup, invalid []domain.InvalidPlayer, cells []swapCell) error {
	cfg := rc.Config
	if cfg.LateOrderCount <= 0 {
		return nil
	}
	inBand := func(order int) bool {
		return order >= cfg.LateOrderMin && order <= cfg.LateOrderMax
	}

	removed := make(map[int]bool, len(invalid))
	for _, inv := range invalid {
		removed[inv.Index] = true
	}
	keptLate := 0
	for i, e := range lineup.Entries {
		if e.Pitcher || removed[i] {
			continue
		}
		if p, ok := rc.Pool.Get(e.PlayerID); ok && inBand(p.RosterOrder) {
			keptLate++
		}
	}

	var terms []solver.Term
	for _, c := range cells {
		if inBand(c.player.RosterOrder) {
			terms = append(terms, solver.Unit(c.v))
		}
	}
	rhs := int64(cfg.LateOrderCount - keptLate)
	if len(terms) == 0 {
		if rhs < 0 {
			return fmt.Errorf("%w: kept lineup exceeds the late-order budget", domain.ErrNoSolution)
		}
		return nil
	}
	m.AddLinear(terms, solver.LE, rhs)
	return nil
}
