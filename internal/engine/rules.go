package engine

import (
	"fmt"

	"dfs_go/internal/domain"
	"dfs_go/internal/solver"
)

// RuleContext gives rule hooks access to the model under construction.
type RuleContext struct {
	Model   *solver.Model
	Pool    *domain.Pool
	Slots   domain.SlotMap
	Vars    *Vars
	Targets domain.StackTargets
}

// TeamTerms returns the selection terms of the team's modeled non-pitcher
// players, the same sum the stacking constraints count.
func (rc *RuleContext) TeamTerms(team string) []solver.Term {
	var terms []solver.Term
	for _, p := range rc.Vars.Players() {
		if p.Team != team || p.IsPitcher() {
			continue
		}
		terms = append(terms, solver.Unit(rc.Vars.Selected[p.ID]))
	}
	return terms
}

// Rule contributes sport- or contest-specific constraints to a build.
// Rules are constructed from configuration and applied after the core
// constraints, so each stays independently testable.
type Rule interface {
	Name() string
	Apply(rc *RuleContext) error
}

// PitcherOpponentRule forbids rostering a pitcher together with any batter
// he faces.
type PitcherOpponentRule struct{}

func (PitcherOpponentRule) Name() string { return "pitcher_opponent" }

func (PitcherOpponentRule) Apply(rc *RuleContext) error {
	for _, pitcher := range rc.Vars.Players() {
		if !pitcher.IsPitcher() || pitcher.Opponent == "" {
			continue
		}
		pv := rc.Vars.Selected[pitcher.ID]
		for _, batter := range rc.Vars.Players() {
			if batter.IsPitcher() || batter.Team != pitcher.Opponent {
				continue
			}
			rc.Model.AddAtMostOne(pv, rc.Vars.Selected[batter.ID])
		}
	}
	return nil
}

// LateOrderRule caps the number of batters hitting inside a late
// batting-order band, e.g. at most one of orders 8 and 9.
type LateOrderRule struct {
	MinOrder int
	MaxOrder int
	MaxCount int
}

func (LateOrderRule) Name() string { return "late_order" }

func (r LateOrderRule) Apply(rc *RuleContext) error {
	if r.MinOrder > r.MaxOrder {
		return fmt.Errorf("order band %d..%d is empty", r.MinOrder, r.MaxOrder)
	}
	var terms []solver.Term
	for _, p := range rc.Vars.Players() {
		if p.IsPitcher() || p.RosterOrder < r.MinOrder || p.RosterOrder > r.MaxOrder {
			continue
		}
		terms = append(terms, solver.Unit(rc.Vars.Selected[p.ID]))
	}
	if len(terms) == 0 {
		return nil
	}
	rc.Model.AddLinear(terms, solver.LE, int64(r.MaxCount))
	return nil
}

// ExcludedPlayersRule bars the listed player ids from selection.
type ExcludedPlayersRule struct {
	IDs []string
}

func (ExcludedPlayersRule) Name() string { return "excluded_players" }

func (r ExcludedPlayersRule) Apply(rc *RuleContext) error {
	for _, id := range r.IDs {
		if sel, ok := rc.Vars.Selected[id]; ok {
			rc.Model.AddLinear([]solver.Term{solver.Unit(sel)}, solver.LE, 0)
		}
	}
	return nil
}

// OneOffRule admits at most one player from a configured watch list, for
// low-owned leverage plays outside the stacks.
type OneOffRule struct {
	IDs []string
}

func (OneOffRule) Name() string { return "one_off" }

func (r OneOffRule) Apply(rc *RuleContext) error {
	var terms []solver.Term
	for _, id := range r.IDs {
		if sel, ok := rc.Vars.Selected[id]; ok {
			terms = append(terms, solver.Unit(sel))
		}
	}
	if len(terms) == 0 {
		return nil
	}
	rc.Model.AddAtMostOne(termVars(terms)...)
	return nil
}

// AvoidStackPairRule keeps a pitcher away from a correlated team stack:
// while the pitcher is selected the team may not reach the trigger count.
type AvoidStackPairRule struct {
	PitcherID string
	Team      string
	Trigger   int // stack size that activates the conflict
}

func (AvoidStackPairRule) Name() string { return "avoid_stack_pair" }

func (r AvoidStackPairRule) Apply(rc *RuleContext) error {
	sel, ok := rc.Vars.Selected[r.PitcherID]
	if !ok {
		return nil
	}
	terms := rc.TeamTerms(r.Team)
	if len(terms) == 0 {
		return nil
	}
	trigger := r.Trigger
	if trigger <= 0 {
		trigger = rc.Targets.SecondaryMin
	}
	rc.Model.AddImplication(sel, true, terms, solver.LE, int64(trigger-1))
	return nil
}

// RequireStackPairRule is the inverse pairing: selecting the pitcher forces
// the partner team to at least the trigger count.
type RequireStackPairRule struct {
	PitcherID string
	Team      string
	Trigger   int
}

func (RequireStackPairRule) Name() string { return "require_stack_pair" }

func (r RequireStackPairRule) Apply(rc *RuleContext) error {
	sel, ok := rc.Vars.Selected[r.PitcherID]
	if !ok {
		return nil
	}
	terms := rc.TeamTerms(r.Team)
	trigger := r.Trigger
	if trigger <= 0 {
		trigger = rc.Targets.SecondaryMin
	}
	if len(terms) < trigger {
		// The pairing can never be honored, so the pitcher sits out.
		rc.Model.AddLinear([]solver.Term{solver.Unit(sel)}, solver.LE, 0)
		return nil
	}
	rc.Model.AddImplication(sel, true, terms, solver.GE, int64(trigger))
	return nil
}

// PrimaryPairRule restricts which teams may hold the secondary stack while
// a given team holds the primary stack.
type PrimaryPairRule struct {
	Allowed map[string][]string // primary team -> permitted secondary teams
}

func (PrimaryPairRule) Name() string { return "primary_pair" }

func (r PrimaryPairRule) Apply(rc *RuleContext) error {
	for primary, allowed := range r.Allowed {
		pv, ok := rc.Vars.IsPrimary[primary]
		if !ok {
			continue
		}
		permitted := make(map[string]bool, len(allowed))
		for _, team := range allowed {
			permitted[team] = true
		}
		for _, team := range rc.Vars.Teams {
			if team == primary || permitted[team] {
				continue
			}
			rc.Model.AddAtMostOne(pv, rc.Vars.IsSecondary[team])
		}
	}
	return nil
}

// NoPrimaryRule bars the listed teams from the primary-stack role.
type NoPrimaryRule struct {
	Teams []string
}

func (NoPrimaryRule) Name() string { return "no_primary" }

func (r NoPrimaryRule) Apply(rc *RuleContext) error {
	for _, team := range r.Teams {
		if pv, ok := rc.Vars.IsPrimary[team]; ok {
			rc.Model.AddLinear([]solver.Term{solver.Unit(pv)}, solver.LE, 0)
		}
	}
	return nil
}

func termVars(terms []solver.Term) []solver.Bool {
	vars := make([]solver.Bool, len(terms))
	for i, t := range terms {
		vars[i] = t.Var
	}
	return vars
}
