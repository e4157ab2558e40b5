package lateswap

import (
	"fmt"

	"dfs_go/internal/domain"
)

// Validator is the independent gate every repaired lineup must pass. It
// re-checks the contest rules from scratch, so a bug in a strategy's own
// bookkeeping cannot leak an illegal lineup.
type Validator struct {
	pool   *domain.Pool
	slots  domain.SlotMap
	cfg    Config
	locked map[string]bool
}

// NewValidator creates a validator over the refreshed pool.
func NewValidator(pool *domain.Pool, slots domain.SlotMap, cfg Config, locked map[string]bool) *Validator {
	return &Validator{pool: pool, slots: slots, cfg: cfg, locked: locked}
}

// Valid reports whether the candidate lineup passes every check against the
// original it was repaired from.
func (v *Validator) Valid(candidate, original *domain.Lineup) bool {
	return len(v.Violations(candidate, original)) == 0
}

// Violations returns every rule the candidate lineup breaks. Empty means the
// lineup may be committed.
func (v *Validator) Violations(candidate, original *domain.Lineup) []string {
	var out []string

	// 1. Roster shape.
	if got, want := len(candidate.Entries), v.slots.RosterSize(); got != want {
		out = append(out, fmt.Sprintf("roster has %d players, wants %d", got, want))
	}
	slotCounts := candidate.SlotCounts()
	for _, slot := range v.slots {
		if slotCounts[slot.Name] != slot.Count {
			out = append(out, fmt.Sprintf("slot %s filled %d of %d", slot.Name, slotCounts[slot.Name], slot.Count))
		}
	}

	// 2. Salary window.
	salary := candidate.TotalSalary()
	if salary > v.cfg.SalaryCap {
		out = append(out, fmt.Sprintf("salary %d exceeds cap %d", salary, v.cfg.SalaryCap))
	}
	if v.cfg.SalaryFloor > 0 && salary < v.cfg.SalaryFloor {
		out = append(out, fmt.Sprintf("salary %d under floor %d", salary, v.cfg.SalaryFloor))
	}

	// 3. Duplicates.
	if candidate.HasDuplicates() {
		out = append(out, "duplicate player ids")
	}

	// 4. Pitcher against his own opponent's batters.
	for _, e := range candidate.Entries {
		if !e.Pitcher {
			continue
		}
		p, ok := v.pool.Get(e.PlayerID)
		if !ok || p.Opponent == "" {
			continue
		}
		for _, batter := range candidate.Entries {
			if !batter.Pitcher && batter.Team == p.Opponent {
				out = append(out, fmt.Sprintf("batter %s faces rostered pitcher %s", batter.Name, e.Name))
			}
		}
	}

	// 5. Late batting-order band.
	if v.cfg.LateOrderCount > 0 {
		late := 0
		for _, e := range candidate.Entries {
			if e.Pitcher {
				continue
			}
			p, ok := v.pool.Get(e.PlayerID)
			if !ok {
				continue
			}
			if p.RosterOrder >= v.cfg.LateOrderMin && p.RosterOrder <= v.cfg.LateOrderMax {
				late++
			}
		}
		if late > v.cfg.LateOrderCount {
			out = append(out, fmt.Sprintf("%d batters in orders %d-%d, at most %d allowed",
				late, v.cfg.LateOrderMin, v.cfg.LateOrderMax, v.cfg.LateOrderCount))
		}
	}

	// 6. Post-swap stack plausibility. Looser than the build-time shape: the
	// lineup must still look stacked, not match the targets exactly.
	counts := candidate.TeamCounts()
	stacked := 0
	for _, n := range counts {
		if n >= 2 {
			stacked++
		}
	}
	if stacked < 2 {
		out = append(out, fmt.Sprintf("%d teams with 2+ batters, wants 2", stacked))
	}
	if v.cfg.MaxTeams > 0 {
		distinct := make(map[string]bool)
		for _, e := range candidate.Entries {
			distinct[e.Team] = true
		}
		if len(distinct) > v.cfg.MaxTeams {
			out = append(out, fmt.Sprintf("%d distinct teams, at most %d allowed", len(distinct), v.cfg.MaxTeams))
		}
	}

	// 7. Locked entries must survive untouched.
	if original != nil && len(original.Entries) == len(candidate.Entries) {
		for i, e := range original.Entries {
			if v.locked[e.Team] && candidate.Entries[i].PlayerID != e.PlayerID {
				out = append(out, fmt.Sprintf("locked player %s was swapped out", e.Name))
			}
		}
	}

	return out
}
