package domain

import "github.com/shopspring/decimal"

// ExposureLedger tracks per-team stack usage across one generation run.
// It is mutated only on the loop's ACCEPT transition and never shared with
// an in-flight solve.
//
// Usage rates compare a team's count to the lineups accepted so far, so the
// gate is order dependent: during the first few accepts a team can exceed
// its long-run cap before the rate catches up. That warm-up behavior is
// intentional and kept as is.
type ExposureLedger struct {
	accepted        int
	primaryUse      map[string]int
	secondaryUse    map[string]int
	recentPrimary   map[string]int
	recentSecondary map[string]int
	history         []map[string]struct{}
	window          int
}

// NewExposureLedger creates an empty ledger with the given recency window.
func NewExposureLedger(window int) *ExposureLedger {
	return &ExposureLedger{
		primaryUse:      make(map[string]int),
		secondaryUse:    make(map[string]int),
		recentPrimary:   make(map[string]int),
		recentSecondary: make(map[string]int),
		window:          window,
	}
}

// Accepted returns the number of recorded lineups.
func (el *ExposureLedger) Accepted() int {
	return el.accepted
}

// Window returns the configured recency window.
func (el *ExposureLedger) Window() int {
	return el.window
}

// Record registers one accepted lineup: the used stack teams gain a recency
// point, every other team decays by one (floored at zero), and the player-id
// set is kept for uniqueness constraints in later builds.
func (el *ExposureLedger) Record(primary, secondary string, ids []string) {
	el.accepted++

	if primary != "" {
		el.primaryUse[primary]++
	}
	if secondary != "" {
		el.secondaryUse[secondary]++
	}

	bump(el.recentPrimary, primary)
	bump(el.recentSecondary, secondary)

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	el.history = append(el.history, set)
}

func bump(recent map[string]int, used string) {
	for team := range recent {
		if team == used {
			continue
		}
		if recent[team] > 0 {
			recent[team]--
		}
	}
	if used != "" {
		recent[used]++
	}
}

// PrimaryCount returns how often the team held the primary role.
func (el *ExposureLedger) PrimaryCount(team string) int {
	return el.primaryUse[team]
}

// SecondaryCount returns how often the team held the secondary role.
func (el *ExposureLedger) SecondaryCount(team string) int {
	return el.secondaryUse[team]
}

// PrimaryRate returns the team's primary usage rate over accepted lineups.
// Zero until the first accept.
func (el *ExposureLedger) PrimaryRate(team string) decimal.Decimal {
	return rate(el.primaryUse[team], el.accepted)
}

// SecondaryRate returns the team's secondary usage rate over accepted lineups.
func (el *ExposureLedger) SecondaryRate(team string) decimal.Decimal {
	return rate(el.secondaryUse[team], el.accepted)
}

func rate(used, accepted int) decimal.Decimal {
	if accepted == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(used)).Div(decimal.NewFromInt(int64(accepted)))
}

// PrimaryBlocked reports whether the team must be barred from the primary
// role in the next build: its usage rate reached the cap, or it saturated
// the recency window.
func (el *ExposureLedger) PrimaryBlocked(team string, cap decimal.Decimal) bool {
	if cap.IsPositive() && el.PrimaryRate(team).GreaterThanOrEqual(cap) {
		return true
	}
	return el.window > 0 && el.recentPrimary[team] >= el.window
}

// SecondaryBlocked is the secondary-role counterpart of PrimaryBlocked.
func (el *ExposureLedger) SecondaryBlocked(team string, cap decimal.Decimal) bool {
	if cap.IsPositive() && el.SecondaryRate(team).GreaterThanOrEqual(cap) {
		return true
	}
	return el.window > 0 && el.recentSecondary[team] >= el.window
}

// History returns the player-id sets of all accepted lineups, oldest first.
// Callers must not mutate the returned sets.
func (el *ExposureLedger) History() []map[string]struct{} {
	return el.history
}
