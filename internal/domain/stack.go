package domain

import "sort"

// StackRole classifies a team's correlation role inside one lineup.
type StackRole int

const (
	StackNone StackRole = iota
	StackSecondary
	StackPrimary
)

// String returns the string representation of StackRole.
func (r StackRole) String() string {
	switch r {
	case StackPrimary:
		return "PRIMARY"
	case StackSecondary:
		return "SECONDARY"
	default:
		return "NONE"
	}
}

// Priority returns the swap priority of the role. Primary-stack players are
// repaired first.
func (r StackRole) Priority() int {
	switch r {
	case StackPrimary:
		return 3
	case StackSecondary:
		return 2
	default:
		return 1
	}
}

// StackTargets holds the configured stack sizes: the primary stack is an
// exact count, the secondary stack a closed interval.
type StackTargets struct {
	PrimarySize  int
	SecondaryMin int
	SecondaryMax int
}

// StackShape is the derived stack composition of one lineup.
type StackShape struct {
	Primary   string
	Secondary string
	Counts    map[string]int // non-pitcher counts per team
}

// AnalyzeStacks derives the primary and secondary stack teams of a lineup.
// Ties break on higher count first, then team name, so committed lineups
// classify deterministically.
func AnalyzeStacks(l *Lineup, t StackTargets) StackShape {
	counts := l.TeamCounts()

	teams := make([]string, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		if counts[teams[i]] != counts[teams[j]] {
			return counts[teams[i]] > counts[teams[j]]
		}
		return teams[i] < teams[j]
	})

	shape := StackShape{Counts: counts}
	for _, team := range teams {
		if shape.Primary == "" && counts[team] == t.PrimarySize {
			shape.Primary = team
			continue
		}
		if shape.Secondary == "" && team != shape.Primary &&
			counts[team] >= t.SecondaryMin && counts[team] <= t.SecondaryMax {
			shape.Secondary = team
		}
	}
	return shape
}

// RoleOf returns the team's role within this shape.
func (s StackShape) RoleOf(team string) StackRole {
	switch team {
	case s.Primary:
		return StackPrimary
	case s.Secondary:
		return StackSecondary
	default:
		return StackNone
	}
}

// Complete reports whether the shape has one primary and one distinct
// secondary team.
func (s StackShape) Complete() bool {
	return s.Primary != "" && s.Secondary != "" && s.Primary != s.Secondary
}
