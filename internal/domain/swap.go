package domain

import (
	"dfs_go/pkg/points"
)

// InvalidPlayer is a rostered entry flagged for replacement, with the stack
// role it holds in the committed lineup.
type InvalidPlayer struct {
	Entry    LineupEntry
	Index    int // entry index within the lineup
	Role     StackRole
	Priority int
}

// SwapCandidate is one concrete replacement: the outgoing entry, the
// incoming player, and the resulting deltas.
type SwapCandidate struct {
	Out             LineupEntry
	In              *Player
	Slot            string
	ProjectionDelta points.Points
	SalaryDelta     int
	Role            StackRole
}

// SwapResult is the outcome of one late-swap engine run. When no strategy
// produced a valid repair, Lineup is the untouched original, Changed is
// false and Reason explains why.
type SwapResult struct {
	Lineup          *Lineup
	Swaps           []SwapCandidate
	Strategy        string
	Changed         bool
	ProjectionDelta points.Points
	SalaryDelta     int
	Reason          string
}
