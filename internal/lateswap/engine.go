// Package lateswap repairs committed lineups after scratches and lineup
// news invalidate rostered players. An analyzer flags the invalid entries,
// then an ordered chain of strategies tries to produce a replacement lineup
// that an independent validator accepts.
package lateswap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"dfs_go/internal/domain"
	"dfs_go/internal/infra"
	"dfs_go/internal/solver"
	"dfs_go/pkg/points"
)

// Config carries the repair knobs shared by every strategy in the chain.
type Config struct {
	SalaryCap      int
	SalaryFloor    int // 0 disables the floor check
	Targets        domain.StackTargets
	MinGain        points.Points // minimum projection gain per swap
	MaxSalaryBump  int           // maximum salary increase per swap
	AvoidSameTeam  bool          // multi-swap: skip candidates from the invalid player's team
	LateOrderMin   int           // late batting-order band, inclusive
	LateOrderMax   int
	LateOrderCount int // maximum batters inside the band; 0 disables
	MaxTeams       int // maximum distinct teams; 0 disables
	MaxFixIters    int // stack-fix exchange bound
	SolveBudget    time.Duration
}

// RepairContext is the shared state one repair call hands its strategies.
type RepairContext struct {
	Pool       *domain.Pool
	Slots      domain.SlotMap
	Config     Config
	Candidates *CandidateCache
	Locked     map[string]bool
	Validator  *Validator
}

// SwapStrategy is one repair approach. Implementations work on lineup clones
// and return an ErrNoSolution-wrapped error when they cannot produce a full
// repair, which sends the engine on to the next strategy.
type SwapStrategy interface {
	Name() string
	Repair(ctx context.Context, rc *RepairContext, lineup *domain.Lineup, invalid []domain.InvalidPlayer) (*domain.SwapResult, error)
}

// DefaultChain is the standard strategy order: joint optimization, then the
// greedy stack preserver, then the last-resort single swaps.
func DefaultChain(engine solver.Solver) []SwapStrategy {
	return []SwapStrategy{
		NewMultiSwapStrategy(engine),
		StackPreserverStrategy{},
		SimpleRepairStrategy{},
	}
}

// Engine runs the strategy chain over committed lineups. It is not safe for
// concurrent use; watch-mode callers invoke it from a single goroutine and
// apply pool updates between calls.
type Engine struct {
	pool       *domain.Pool
	slots      domain.SlotMap
	cfg        Config
	locked     map[string]bool
	chain      []SwapStrategy
	candidates *CandidateCache
	metrics    *infra.Metrics
}

// NewEngine creates a late-swap engine over the given refreshed pool.
func NewEngine(pool *domain.Pool, slots domain.SlotMap, cfg Config, locked map[string]bool, chain []SwapStrategy) (*Engine, error) {
	candidates, err := NewCandidateCache(candidateCacheSize)
	if err != nil {
		return nil, err
	}
	if locked == nil {
		locked = make(map[string]bool)
	}
	return &Engine{
		pool:       pool,
		slots:      slots,
		cfg:        cfg,
		locked:     locked,
		chain:      chain,
		candidates: candidates,
		metrics:    infra.GlobalMetrics,
	}, nil
}

// UpdatePool swaps in a refreshed player pool and drops every cached
// candidate list derived from the old one.
func (e *Engine) UpdatePool(pool *domain.Pool) {
	e.pool = pool
	e.candidates.Reset()
	e.metrics.SetPoolSize(int32(pool.Len()))
}

// LockTeam marks a team's game as started. Locked entries are exempt from
// analysis and protected by the validator.
func (e *Engine) LockTeam(team string) {
	if !e.locked[team] {
		e.locked[team] = true
		e.candidates.Reset()
	}
}

// Repair analyzes one lineup and runs the chain until a strategy's output
// passes validation. When nothing passes, the untouched original comes back
// with Changed false and the failure reason.
func (e *Engine) Repair(ctx context.Context, lineup *domain.Lineup) (*domain.SwapResult, error) {
	analyzer := NewAnalyzer(e.pool, e.locked, e.cfg.Targets)
	invalid := analyzer.Invalid(lineup)
	if len(invalid) == 0 {
		slog.Debug("Lineup already valid", slog.String("entry_id", lineup.EntryID))
		return &domain.SwapResult{Lineup: lineup}, nil
	}

	names := make([]string, len(invalid))
	for i, inv := range invalid {
		names[i] = inv.Entry.Name
	}
	slog.Info("Repairing lineup",
		slog.String("entry_id", lineup.EntryID),
		slog.Int("invalid", len(invalid)),
		slog.String("players", strings.Join(names, ", ")))

	validator := NewValidator(e.pool, e.slots, e.cfg, e.locked)
	rc := &RepairContext{
		Pool:       e.pool,
		Slots:      e.slots,
		Config:     e.cfg,
		Candidates: e.candidates,
		Locked:     e.locked,
		Validator:  validator,
	}

	for _, strat := range e.chain {
		result, err := strat.Repair(ctx, rc, lineup, invalid)
		if err != nil {
			slog.Debug("Strategy could not repair",
				slog.String("strategy", strat.Name()),
				slog.Any("error", err))
			continue
		}
		violations := validator.Violations(result.Lineup, lineup)
		if len(violations) > 0 {
			slog.Debug("Strategy output failed validation",
				slog.String("strategy", strat.Name()),
				slog.String("violations", strings.Join(violations, "; ")))
			continue
		}

		result.Strategy = strat.Name()
		e.metrics.RecordSwapApplied()
		slog.Info("Lineup repaired",
			slog.String("entry_id", lineup.EntryID),
			slog.String("strategy", strat.Name()),
			slog.Int("swaps", len(result.Swaps)),
			slog.String("projection_delta", result.ProjectionDelta.String()))
		return result, nil
	}

	e.metrics.RecordSwapFailed()
	slog.Warn("No strategy repaired the lineup", slog.String("entry_id", lineup.EntryID))
	return &domain.SwapResult{
		Lineup: lineup,
		Reason: "no strategy produced a valid repair",
	}, nil
}
