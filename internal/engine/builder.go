package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"dfs_go/internal/domain"
	"dfs_go/internal/solver"
)

// BuildConfig carries the per-run knobs of the model builder. It is an
// explicit value handed to the constructor; nothing here is global.
type BuildConfig struct {
	SalaryCap     int
	SalaryFloor   int // 0 disables the floor
	Targets       domain.StackTargets
	MinUnique     int // minimum players differing from every accepted lineup
	PrimaryCap    decimal.Decimal
	SecondaryCap  decimal.Decimal
	AnnouncedOnly bool // skip players without an announced role
}

// Vars exposes the variable handles of one built model, for decoding the
// solution and for rule hooks.
type Vars struct {
	Selected    map[string]solver.Bool            // player id -> selected
	Assigned    map[string]map[string]solver.Bool // player id -> slot name -> assigned
	IsPrimary   map[string]solver.Bool            // team -> primary-stack flag
	IsSecondary map[string]solver.Bool            // team -> secondary-stack flag
	Teams       []string
	players     []*domain.Player // modeled players, pool order
}

// Players returns the players that entered the model.
func (v *Vars) Players() []*domain.Player {
	return v.players
}

// PrimaryTeam reads the primary-stack team out of a solution. The flags are
// the accounting ground truth for the exposure ledger.
func (v *Vars) PrimaryTeam(res *solver.Result) string {
	for _, team := range v.Teams {
		if res.Value(v.IsPrimary[team]) {
			return team
		}
	}
	return ""
}

// SecondaryTeam reads the secondary-stack team out of a solution.
func (v *Vars) SecondaryTeam(res *solver.Result) string {
	for _, team := range v.Teams {
		if res.Value(v.IsSecondary[team]) {
			return team
		}
	}
	return ""
}

// Lineup decodes a feasible solution into a lineup in slot-map order.
// Players inside one slot group order by projection descending so exports
// stay deterministic.
func (v *Vars) Lineup(res *solver.Result, slots domain.SlotMap) (*domain.Lineup, error) {
	bySlot := make(map[string][]*domain.Player)
	for _, p := range v.players {
		for slotName, av := range v.Assigned[p.ID] {
			if res.Value(av) {
				bySlot[slotName] = append(bySlot[slotName], p)
			}
		}
	}

	l := &domain.Lineup{}
	for _, slot := range slots {
		group := bySlot[slot.Name]
		if len(group) != slot.Count {
			return nil, domain.NewModelError("decode",
				fmt.Errorf("slot %s filled %d of %d", slot.Name, len(group), slot.Count))
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].Projection != group[j].Projection {
				return group[i].Projection > group[j].Projection
			}
			return group[i].ID < group[j].ID
		})
		for _, p := range group {
			l.Entries = append(l.Entries, domain.NewEntry(slot.Name, p))
		}
	}
	return l, nil
}

// Builder compiles the pool, the roster configuration and the rule hooks
// into one solver model per attempt. Sport specifics never live here; they
// arrive as Rule values.
type Builder struct {
	pool  *domain.Pool
	slots domain.SlotMap
	cfg   BuildConfig
	rules []Rule
}

// NewBuilder creates a builder for one generation run.
func NewBuilder(pool *domain.Pool, slots domain.SlotMap, cfg BuildConfig, rules []Rule) *Builder {
	return &Builder{pool: pool, slots: slots, cfg: cfg, rules: rules}
}

// Build compiles one solve attempt against the current ledger state.
func (b *Builder) Build(ledger *domain.ExposureLedger) (*solver.Model, *Vars, error) {
	m := solver.NewModel()
	vars := &Vars{
		Selected:    make(map[string]solver.Bool),
		Assigned:    make(map[string]map[string]solver.Bool),
		IsPrimary:   make(map[string]solver.Bool),
		IsSecondary: make(map[string]solver.Bool),
	}

	// 1. Selection and assignment variables for every eligible player.
	for _, p := range b.pool.Players() {
		if b.cfg.AnnouncedOnly && !p.Announced() {
			continue
		}
		eligible := b.slots.EligibleSlots(p)
		if len(eligible) == 0 {
			continue
		}
		sel := m.NewBool("sel/" + p.ID)
		vars.Selected[p.ID] = sel
		vars.Assigned[p.ID] = make(map[string]solver.Bool, len(eligible))
		assigned := make([]solver.Term, 0, len(eligible)+1)
		for _, slotName := range eligible {
			av := m.NewBool("asg/" + p.ID + "/" + slotName)
			vars.Assigned[p.ID][slotName] = av
			assigned = append(assigned, solver.Unit(av))
		}
		// sum(assigned) == selected, which also caps assignments at one.
		assigned = append(assigned, solver.Term{Var: sel, Weight: -1})
		m.AddLinear(assigned, solver.EQ, 0)
		vars.players = append(vars.players, p)
	}
	if len(vars.players) == 0 {
		return nil, nil, domain.ErrEmptyPool
	}

	// 2. Every slot filled to its required count.
	for _, slot := range b.slots {
		var terms []solver.Term
		for _, p := range vars.players {
			if av, ok := vars.Assigned[p.ID][slot.Name]; ok {
				terms = append(terms, solver.Unit(av))
			}
		}
		if len(terms) < slot.Count {
			return nil, nil, domain.NewModelError("slots",
				fmt.Errorf("slot %s has %d eligible players for %d spots", slot.Name, len(terms), slot.Count))
		}
		m.AddLinear(terms, solver.EQ, int64(slot.Count))
	}

	// 3. Salary window.
	salaryTerms := make([]solver.Term, len(vars.players))
	for i, p := range vars.players {
		salaryTerms[i] = solver.Term{Var: vars.Selected[p.ID], Weight: int64(p.Salary)}
	}
	m.AddLinear(salaryTerms, solver.LE, int64(b.cfg.SalaryCap))
	if b.cfg.SalaryFloor > 0 {
		m.AddLinear(salaryTerms, solver.GE, int64(b.cfg.SalaryFloor))
	}

	// 4. Stack roles. The flags enforce their count condition one way; the
	// cardinality sums below force both roles to exist, so every lineup
	// carries exactly one primary and one distinct secondary stack.
	b.addStacking(m, vars, ledger)

	// 5. Uniqueness against already accepted lineups.
	rosterSize := b.slots.RosterSize()
	for _, prev := range ledger.History() {
		var terms []solver.Term
		for id := range prev {
			if sel, ok := vars.Selected[id]; ok {
				terms = append(terms, solver.Unit(sel))
			}
		}
		if len(terms) == 0 {
			continue
		}
		m.AddLinear(terms, solver.LE, int64(rosterSize-b.cfg.MinUnique))
	}

	// 6. Rule hooks.
	rc := &RuleContext{Model: m, Pool: b.pool, Slots: b.slots, Vars: vars, Targets: b.cfg.Targets}
	for _, rule := range b.rules {
		if err := rule.Apply(rc); err != nil {
			return nil, nil, domain.NewModelError(rule.Name(), err)
		}
	}

	// 7. Objective: total projection.
	obj := make([]solver.Term, len(vars.players))
	for i, p := range vars.players {
		obj[i] = solver.Term{Var: vars.Selected[p.ID], Weight: int64(p.Projection)}
	}
	m.Maximize(obj)

	return m, vars, nil
}

func (b *Builder) addStacking(m *solver.Model, vars *Vars, ledger *domain.ExposureLedger) {
	counts := make(map[string][]solver.Term)
	for _, p := range vars.players {
		if p.IsPitcher() {
			continue
		}
		counts[p.Team] = append(counts[p.Team], solver.Unit(vars.Selected[p.ID]))
	}

	teams := make([]string, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	vars.Teams = teams

	t := b.cfg.Targets
	var primaries, secondaries []solver.Bool
	for _, team := range teams {
		terms := counts[team]

		isPrimary := m.NewBool("primary/" + team)
		m.AddImplication(isPrimary, true, terms, solver.EQ, int64(t.PrimarySize))
		vars.IsPrimary[team] = isPrimary
		primaries = append(primaries, isPrimary)

		isSecondary := m.NewBool("secondary/" + team)
		m.AddImplication(isSecondary, true, terms, solver.GE, int64(t.SecondaryMin))
		m.AddImplication(isSecondary, true, terms, solver.LE, int64(t.SecondaryMax))
		vars.IsSecondary[team] = isSecondary
		secondaries = append(secondaries, isSecondary)

		m.AddAtMostOne(isPrimary, isSecondary)

		// Exposure gate: a capped or recently used team may not repeat
		// the role.
		if ledger.PrimaryBlocked(team, b.cfg.PrimaryCap) {
			m.AddLinear([]solver.Term{solver.Unit(isPrimary)}, solver.LE, 0)
		}
		if ledger.SecondaryBlocked(team, b.cfg.SecondaryCap) {
			m.AddLinear([]solver.Term{solver.Unit(isSecondary)}, solver.LE, 0)
		}
	}

	m.AddExactlyOne(primaries...)
	m.AddExactlyOne(secondaries...)
}
