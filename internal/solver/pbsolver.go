package solver

import (
	"context"
	"fmt"
	"time"

	gophersat "github.com/crillab/gophersat/solver"

	"dfs_go/internal/domain"
)

// PBSolver solves models with the gophersat pseudo-boolean engine.
//
// The engine decides satisfiability; maximization runs as iterative
// tightening: after each satisfying assignment a cut "objective >= incumbent
// + 1" is added and the problem re-solved until it turns unsatisfiable
// (incumbent is optimal) or the budget runs out (incumbent is feasible).
type PBSolver struct{}

// NewPBSolver creates the default backend.
func NewPBSolver() *PBSolver {
	return &PBSolver{}
}

// normCon is a normalized "sum(weight*lit) >= k" constraint with positive
// weights. Lits use DIMACS convention: negative means negated variable.
type normCon struct {
	lits    []int
	weights []int
	k       int
}

// Solve implements the Solver interface.
func (s *PBSolver) Solve(ctx context.Context, m *Model, p Params) (*Result, error) {
	start := time.Now()
	res := &Result{Status: StatusUnknown}
	res.Stats.Vars = m.nvars
	res.Stats.Constraints = len(m.cons)

	if m.err != nil {
		res.Status = StatusInvalid
		return res, domain.NewModelError("registration", m.err)
	}
	if m.nvars == 0 {
		res.Status = StatusInvalid
		return res, domain.NewModelError("registration", fmt.Errorf("model has no variables"))
	}

	base, unsatNow := translate(m)
	if unsatNow {
		res.Status = StatusInfeasible
		res.Stats.WallTime = time.Since(start)
		return res, nil
	}

	var deadline time.Time
	if p.Budget > 0 {
		deadline = start.Add(p.Budget)
	}

	first, err := s.solveOnce(ctx, deadline, base)
	res.Stats.Rounds++
	if err != nil {
		res.Stats.WallTime = time.Since(start)
		return res, err
	}
	switch first.state {
	case onceUnsat:
		res.Status = StatusInfeasible
		res.Stats.WallTime = time.Since(start)
		return res, nil
	case onceUnknown:
		res.Stats.WallTime = time.Since(start)
		return res, nil
	}

	res.values = first.model
	res.Objective = evalObjective(m.obj, first.model)
	res.Status = StatusFeasible
	if !m.maxed {
		res.Stats.WallTime = time.Since(start)
		return res, nil
	}

	// Tighten until optimal or out of budget.
	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		cut, trivialUnsat := normalizeLinear(m.obj, GE, res.Objective+1, 0, false)
		if trivialUnsat {
			res.Status = StatusOptimal
			break
		}
		round, err := s.solveOnce(ctx, deadline, append(base[:len(base):len(base)], cut...))
		res.Stats.Rounds++
		if err != nil {
			res.Stats.WallTime = time.Since(start)
			return res, err
		}
		switch round.state {
		case onceSat:
			res.values = round.model
			res.Objective = evalObjective(m.obj, round.model)
			res.Stats.Improvements++
		case onceUnsat:
			res.Status = StatusOptimal
		case onceUnknown:
			// Budget expired mid-round; incumbent stands as feasible.
		}
		if round.state != onceSat {
			break
		}
	}

	res.Stats.WallTime = time.Since(start)
	return res, nil
}

type onceState int

const (
	onceSat onceState = iota
	onceUnsat
	onceUnknown
)

type onceResult struct {
	state onceState
	model []bool
}

// solveOnce runs the backend once. The backend has no interruption hook, so
// the call runs in its own goroutine and an expired deadline abandons it;
// instances at lineup scale finish in milliseconds and the leak is bounded
// by one in-flight solve.
func (s *PBSolver) solveOnce(ctx context.Context, deadline time.Time, cons []normCon) (onceResult, error) {
	ch := make(chan onceResult, 1)
	go func() {
		pbcs := make([]gophersat.PBConstr, len(cons))
		for i, c := range cons {
			lits := make([]int, len(c.lits))
			copy(lits, c.lits)
			weights := make([]int, len(c.weights))
			copy(weights, c.weights)
			pbcs[i] = gophersat.GtEq(lits, weights, c.k)
		}
		pb := gophersat.ParsePBConstrs(pbcs)
		engine := gophersat.New(pb)
		switch engine.Solve() {
		case gophersat.Sat:
			ch <- onceResult{state: onceSat, model: engine.Model()}
		case gophersat.Unsat:
			ch <- onceResult{state: onceUnsat}
		default:
			ch <- onceResult{state: onceUnknown}
		}
	}()

	var expire <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		expire = timer.C
	}

	select {
	case out := <-ch:
		return out, nil
	case <-expire:
		return onceResult{state: onceUnknown}, nil
	case <-ctx.Done():
		return onceResult{state: onceUnknown}, ctx.Err()
	}
}

// translate lowers every registered constraint into normalized form.
// The second return is true when some constraint is unsatisfiable on its
// own, which short-circuits the whole solve to infeasible.
func translate(m *Model) ([]normCon, bool) {
	var out []normCon
	for _, c := range m.cons {
		cons, trivialUnsat := normalizeLinear(c.terms, c.rel, c.rhs, c.cond, c.condVal)
		if trivialUnsat {
			if c.cond == 0 {
				return nil, true
			}
			// Enforcement is impossible, so the condition must stay off.
			out = append(out, normCon{lits: []int{relaxLit(c.cond, c.condVal)}, weights: []int{1}, k: 1})
			continue
		}
		out = append(out, cons...)
	}
	return out, false
}

// relaxLit returns the literal that is true exactly when the implication is
// not enforced.
func relaxLit(cond Bool, condVal bool) int {
	if condVal {
		return -int(cond)
	}
	return int(cond)
}

// normalizeLinear rewrites sum(terms) REL rhs into "at least" constraints
// with positive weights, negating literals for negative weights. A non-zero
// cond turns each piece into a big-M relaxation that only binds while
// cond == condVal.
func normalizeLinear(terms []Term, rel Relation, rhs int64, cond Bool, condVal bool) ([]normCon, bool) {
	var out []normCon
	build := func(ts []Term, k int64) ([]normCon, bool) {
		nc, ok := toAtLeast(ts, k)
		if !ok {
			return out, true
		}
		if nc == nil {
			return out, false // trivially satisfied
		}
		if cond != 0 && nc.k > 0 {
			nc.lits = append(nc.lits, relaxLit(cond, condVal))
			nc.weights = append(nc.weights, nc.k)
		}
		out = append(out, *nc)
		return out, false
	}

	var trivialUnsat bool
	switch rel {
	case GE:
		out, trivialUnsat = build(terms, rhs)
	case LE:
		out, trivialUnsat = build(negateTerms(terms), -rhs)
	case EQ:
		out, trivialUnsat = build(terms, rhs)
		if !trivialUnsat {
			out, trivialUnsat = build(negateTerms(terms), -rhs)
		}
	}
	return out, trivialUnsat
}

func negateTerms(terms []Term) []Term {
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = Term{Var: t.Var, Weight: -t.Weight}
	}
	return out
}

// toAtLeast normalizes sum(w*x) >= k to positive weights over literals.
// Returns (nil, true) when satisfiable for every assignment, and ok=false
// when unsatisfiable for every assignment.
func toAtLeast(terms []Term, k int64) (*normCon, bool) {
	lits := make([]int, 0, len(terms))
	weights := make([]int, 0, len(terms))
	var maxSum int64
	for _, t := range terms {
		switch {
		case t.Weight > 0:
			lits = append(lits, int(t.Var))
			weights = append(weights, int(t.Weight))
			maxSum += t.Weight
		case t.Weight < 0:
			// w*x == w + |w|*(not x); move the constant to the rhs.
			lits = append(lits, -int(t.Var))
			weights = append(weights, int(-t.Weight))
			maxSum += -t.Weight
			k += -t.Weight
		}
	}
	if k <= 0 {
		return nil, true
	}
	if k > maxSum {
		return nil, false
	}
	return &normCon{lits: lits, weights: weights, k: int(k)}, true
}

func evalObjective(obj []Term, model []bool) int64 {
	var total int64
	for _, t := range obj {
		if int(t.Var) <= len(model) && model[t.Var-1] {
			total += t.Weight
		}
	}
	return total
}
