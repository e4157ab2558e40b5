package domain

import (
	"context"
)

// RosterFeed defines the interface for live roster update sources
type RosterFeed interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// PoolLoader defines how a validated player pool is obtained
type PoolLoader interface {
	Load(path string) (*Pool, error)
}

// RunRepository defines how run results are persisted
type RunRepository interface {
	CreateRun(run *RunRecord) error
	FinishRun(run *RunRecord) error
	SaveLineup(rec *LineupRecord) error
	SaveSwap(rec *SwapRecord) error
}
