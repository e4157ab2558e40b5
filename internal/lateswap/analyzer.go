package lateswap

import (
	"sort"

	"dfs_go/internal/domain"
)

// Analyzer flags rostered players who are no longer eligible against a
// refreshed pool. Pitchers are exempt: a probable pitcher carries no batting
// order all day, and his start is vetted at build time instead.
type Analyzer struct {
	pool    *domain.Pool
	locked  map[string]bool
	targets domain.StackTargets
}

// NewAnalyzer creates an analyzer over the refreshed pool.
func NewAnalyzer(pool *domain.Pool, locked map[string]bool, targets domain.StackTargets) *Analyzer {
	return &Analyzer{pool: pool, locked: locked, targets: targets}
}

// Invalid returns the entries needing replacement, highest stack priority
// first. An entry is invalid when its player dropped out of the refreshed
// pool or lost his batting order, unless the team's game already started.
func (a *Analyzer) Invalid(lineup *domain.Lineup) []domain.InvalidPlayer {
	shape := domain.AnalyzeStacks(lineup, a.targets)

	var out []domain.InvalidPlayer
	for i, e := range lineup.Entries {
		if e.Pitcher || a.locked[e.Team] {
			continue
		}
		p, ok := a.pool.Get(e.PlayerID)
		if ok && p.RosterOrder > 0 {
			continue
		}
		role := shape.RoleOf(e.Team)
		out = append(out, domain.InvalidPlayer{
			Entry:    e,
			Index:    i,
			Role:     role,
			Priority: role.Priority(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}
