package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	solvesTotal      atomic.Uint64
	lineupsAccepted  atomic.Uint64
	infeasibleTotal  atomic.Uint64
	noSolutionTotal  atomic.Uint64
	modelErrorsTotal atomic.Uint64
	swapsApplied     atomic.Uint64
	swapsFailed      atomic.Uint64

	// Latency tracking
	solveSumNs atomic.Int64
	solveCount atomic.Uint64

	// Gauges
	activeFeeds atomic.Int32
	poolSize    atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordSolve records one solver round trip with latency.
func (m *Metrics) RecordSolve(latencyNs int64) {
	m.solvesTotal.Add(1)
	m.solveSumNs.Add(latencyNs)
	m.solveCount.Add(1)
}

// RecordLineup records an accepted lineup.
func (m *Metrics) RecordLineup() {
	m.lineupsAccepted.Add(1)
}

// RecordInfeasible records a solve that proved the model unsatisfiable.
func (m *Metrics) RecordInfeasible() {
	m.infeasibleTotal.Add(1)
}

// RecordNoSolution records a solve that ran out of budget.
func (m *Metrics) RecordNoSolution() {
	m.noSolutionTotal.Add(1)
}

// RecordModelError records a model that failed to build.
func (m *Metrics) RecordModelError() {
	m.modelErrorsTotal.Add(1)
}

// RecordSwapApplied records a successfully repaired entry.
func (m *Metrics) RecordSwapApplied() {
	m.swapsApplied.Add(1)
}

// RecordSwapFailed records an entry no strategy could repair.
func (m *Metrics) RecordSwapFailed() {
	m.swapsFailed.Add(1)
}

// SetActiveFeeds sets the current live feed count.
func (m *Metrics) SetActiveFeeds(count int32) {
	m.activeFeeds.Store(count)
}

// IncrementFeeds increments active feeds by 1.
func (m *Metrics) IncrementFeeds() {
	m.activeFeeds.Add(1)
}

// DecrementFeeds decrements active feeds by 1.
func (m *Metrics) DecrementFeeds() {
	m.activeFeeds.Add(-1)
}

// SetPoolSize sets the current player pool size.
func (m *Metrics) SetPoolSize(count int32) {
	m.poolSize.Store(count)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	SolvesTotal      uint64
	LineupsAccepted  uint64
	InfeasibleTotal  uint64
	NoSolutionTotal  uint64
	ModelErrorsTotal uint64
	SwapsApplied     uint64
	SwapsFailed      uint64
	AvgSolveNs       int64
	ActiveFeeds      int32
	PoolSize         int32
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgSolve int64
	count := m.solveCount.Load()
	if count > 0 {
		avgSolve = m.solveSumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		SolvesTotal:      m.solvesTotal.Load(),
		LineupsAccepted:  m.lineupsAccepted.Load(),
		InfeasibleTotal:  m.infeasibleTotal.Load(),
		NoSolutionTotal:  m.noSolutionTotal.Load(),
		ModelErrorsTotal: m.modelErrorsTotal.Load(),
		SwapsApplied:     m.swapsApplied.Load(),
		SwapsFailed:      m.swapsFailed.Load(),
		AvgSolveNs:       avgSolve,
		ActiveFeeds:      m.activeFeeds.Load(),
		PoolSize:         m.poolSize.Load(),
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.solvesTotal.Store(0)
	m.lineupsAccepted.Store(0)
	m.infeasibleTotal.Store(0)
	m.noSolutionTotal.Store(0)
	m.modelErrorsTotal.Store(0)
	m.swapsApplied.Store(0)
	m.swapsFailed.Store(0)
	m.solveSumNs.Store(0)
	m.solveCount.Store(0)
	m.activeFeeds.Store(0)
	m.poolSize.Store(0)
}
