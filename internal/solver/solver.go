// Package solver is a narrow adapter over an external pseudo-boolean
// constraint engine. Callers register boolean variables, weighted linear
// constraints, enforce-only-if implications and one maximization objective,
// then solve under a wall-clock budget. Nothing outside this package touches
// the backend, so the engine is swappable behind the Solver interface.
package solver

import (
	"context"
	"fmt"
	"time"
)

// Bool is a handle to a registered boolean variable. Handles are 1-based;
// the zero value means "no variable".
type Bool int

// Term is one weighted variable of a linear expression.
type Term struct {
	Var    Bool
	Weight int64
}

// Unit returns a weight-1 term for v.
func Unit(v Bool) Term {
	return Term{Var: v, Weight: 1}
}

// Units returns weight-1 terms for all given variables.
func Units(vars ...Bool) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Unit(v)
	}
	return terms
}

// Relation is the comparison of a linear constraint.
type Relation int

const (
	LE Relation = iota // sum <= rhs
	GE                 // sum >= rhs
	EQ                 // sum == rhs
)

// String returns the string representation of Relation.
func (r Relation) String() string {
	switch r {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	default:
		return "?"
	}
}

type linear struct {
	terms   []Term
	rel     Relation
	rhs     int64
	cond    Bool // 0 = unconditional
	condVal bool
}

// Model accumulates variables, constraints and the objective for one solve
// attempt. A Model is built once, solved once, and discarded; it is not safe
// for concurrent use.
type Model struct {
	nvars int
	names []string
	cons  []linear
	obj   []Term
	maxed bool
	err   error // first registration error, surfaced at solve time
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewBool registers a fresh boolean variable. The name is kept for
// diagnostics only.
func (m *Model) NewBool(name string) Bool {
	m.nvars++
	m.names = append(m.names, name)
	return Bool(m.nvars)
}

// NumVars returns the number of registered variables.
func (m *Model) NumVars() int {
	return m.nvars
}

// NumConstraints returns the number of registered constraints.
func (m *Model) NumConstraints() int {
	return len(m.cons)
}

// Name returns the registration name of v.
func (m *Model) Name(v Bool) string {
	if v < 1 || int(v) > m.nvars {
		return ""
	}
	return m.names[v-1]
}

func (m *Model) checkTerms(terms []Term) error {
	if len(terms) == 0 {
		return fmt.Errorf("empty term list")
	}
	for _, t := range terms {
		if t.Var < 1 || int(t.Var) > m.nvars {
			return fmt.Errorf("unknown variable %d", t.Var)
		}
	}
	return nil
}

func (m *Model) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// AddLinear registers sum(terms) REL rhs. Weights may be negative.
func (m *Model) AddLinear(terms []Term, rel Relation, rhs int64) {
	if err := m.checkTerms(terms); err != nil {
		m.fail(fmt.Errorf("linear: %w", err))
		return
	}
	m.cons = append(m.cons, linear{terms: cloneTerms(terms), rel: rel, rhs: rhs})
}

// AddImplication registers sum(terms) REL rhs enforced only while
// cond == condVal. With the condition false the constraint is relaxed away.
func (m *Model) AddImplication(cond Bool, condVal bool, terms []Term, rel Relation, rhs int64) {
	if cond < 1 || int(cond) > m.nvars {
		m.fail(fmt.Errorf("implication: unknown condition variable %d", cond))
		return
	}
	if err := m.checkTerms(terms); err != nil {
		m.fail(fmt.Errorf("implication: %w", err))
		return
	}
	m.cons = append(m.cons, linear{terms: cloneTerms(terms), rel: rel, rhs: rhs, cond: cond, condVal: condVal})
}

// AddExactlyOne registers sum(vars) == 1.
func (m *Model) AddExactlyOne(vars ...Bool) {
	m.AddLinear(Units(vars...), EQ, 1)
}

// AddAtMostOne registers sum(vars) <= 1.
func (m *Model) AddAtMostOne(vars ...Bool) {
	m.AddLinear(Units(vars...), LE, 1)
}

// AddEquivalence makes target true exactly when every operand is true.
func (m *Model) AddEquivalence(target Bool, ops ...Bool) {
	if len(ops) == 0 {
		m.fail(fmt.Errorf("equivalence: no operands"))
		return
	}
	// target <= op for each op; target >= sum(ops) - (n-1)
	lower := make([]Term, 0, len(ops)+1)
	lower = append(lower, Unit(target))
	for _, op := range ops {
		m.AddLinear([]Term{Unit(target), {Var: op, Weight: -1}}, LE, 0)
		lower = append(lower, Term{Var: op, Weight: -1})
	}
	m.AddLinear(lower, GE, int64(1-len(ops)))
}

// Maximize sets the linear objective. Only one objective per model.
func (m *Model) Maximize(terms []Term) {
	if m.maxed {
		m.fail(fmt.Errorf("objective set twice"))
		return
	}
	if err := m.checkTerms(terms); err != nil {
		m.fail(fmt.Errorf("objective: %w", err))
		return
	}
	m.obj = cloneTerms(terms)
	m.maxed = true
}

func cloneTerms(terms []Term) []Term {
	out := make([]Term, len(terms))
	copy(out, terms)
	return out
}

// Solver runs one model to completion under the given parameters.
type Solver interface {
	Solve(ctx context.Context, m *Model, p Params) (*Result, error)
}

// Params bound one solve call.
type Params struct {
	// Budget is the wall-clock limit for the whole call, including
	// objective tightening. Zero means no limit.
	Budget time.Duration
	// Workers is a parallelism hint for backends that support it. The
	// pseudo-boolean backend is single-threaded and ignores it.
	Workers int
}
