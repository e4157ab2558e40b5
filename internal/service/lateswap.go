package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"dfs_go/internal/domain"
	"dfs_go/internal/event"
	"dfs_go/internal/infra"
	"dfs_go/internal/infra/entries"
	"dfs_go/internal/infra/feed"
	"dfs_go/internal/infra/pool"
	"dfs_go/internal/lateswap"
	"dfs_go/internal/solver"
	"dfs_go/pkg/points"
)

// LateSwapService repairs committed contest entries against a refreshed
// pool, optionally staying live on the roster feed until every team locks.
type LateSwapService struct {
	cfg    *infra.Config
	repo   domain.RunRepository
	loader domain.PoolLoader
}

// NewLateSwapService creates the late-swap service. A nil repo disables
// persistence.
func NewLateSwapService(cfg *infra.Config, repo domain.RunRepository) *LateSwapService {
	return &LateSwapService{
		cfg:    cfg,
		repo:   repo,
		loader: pool.NewLoader(nil),
	}
}

// Run repairs every entry in entriesPath and rewrites the file in place,
// returning the repaired and unrepairable counts. With watch enabled it then
// follows the roster feed, re-running the repair pass as news lands, until
// all teams lock or ctx ends.
func (s *LateSwapService) Run(ctx context.Context, entriesPath, poolPath string, watch bool) (int, int, error) {
	cfg := s.cfg
	slots := cfg.SlotMap()

	// 1. Refreshed pool.
	p, err := s.loader.Load(poolPath)
	if err != nil {
		return 0, 0, fmt.Errorf("load pool: %w", err)
	}
	infra.GlobalMetrics.SetPoolSize(int32(p.Len()))

	// 2. Entries file.
	ef, err := parseEntriesFile(entriesPath, p, slots)
	if err != nil {
		return 0, 0, err
	}
	if len(ef.Entries()) == 0 {
		slog.Warn("entries file holds no filled lineups", slog.String("path", entriesPath))
		return 0, 0, nil
	}
	slog.Info("entries file loaded",
		slog.String("path", entriesPath),
		slog.Int("entries", len(ef.Entries())),
		slog.Int("pool", p.Len()),
	)

	// 3. Repair engine.
	eng, err := lateswap.NewEngine(p, slots, swapConfigFrom(cfg), nil, lateswap.DefaultChain(solver.NewPBSolver()))
	if err != nil {
		return 0, 0, err
	}

	// 4. Open the run record.
	run := &domain.RunRecord{
		ID:           uuid.New().String(),
		Kind:         "lateswap",
		StartedAt:    time.Now(),
		ConfigDigest: configDigest(cfg),
	}
	if s.repo != nil {
		if err := s.repo.CreateRun(run); err != nil {
			return 0, 0, fmt.Errorf("create run: %w", err)
		}
	}

	// 5. First repair pass.
	repaired, failed := s.repairAll(ctx, eng, ef, run.ID)
	var runErr error
	if repaired > 0 {
		runErr = ef.WriteTo(entriesPath)
	}
	slog.Info("late swap pass complete",
		slog.String("run_id", run.ID),
		slog.Int("repaired", repaired),
		slog.Int("failed", failed),
	)

	// 6. Stay on the feed until every team locks.
	if watch && runErr == nil {
		wr, wf, werr := s.watch(ctx, eng, ef, p, entriesPath, run.ID)
		repaired += wr
		failed += wf
		runErr = werr
	}

	// 7. Close the run record.
	run.FinishedAt = time.Now()
	run.Lineups = len(ef.Entries())
	run.Attempts = repaired
	run.Infeasible = failed
	if s.repo != nil {
		if err := s.repo.FinishRun(run); err != nil {
			slog.Error("failed to finish run record", slog.Any("error", err))
		}
	}

	return repaired, failed, runErr
}

// repairAll runs the engine over every entry and applies accepted repairs
// back into the file. It returns the repaired and unrepairable counts.
func (s *LateSwapService) repairAll(ctx context.Context, eng *lateswap.Engine, ef *entries.File, runID string) (int, int) {
	repaired, failed := 0, 0
	for _, e := range ef.Entries() {
		if ctx.Err() != nil {
			break
		}

		res, err := eng.Repair(ctx, e.Lineup)
		if err != nil {
			slog.Error("repair aborted", slog.String("entry_id", e.ID), slog.Any("error", err))
			failed++
			continue
		}

		switch {
		case res.Changed:
			ef.Apply(e, res.Lineup)
			repaired++
			s.saveSwap(runID, e.ID, res)
		case res.Reason != "":
			failed++
			s.saveSwap(runID, e.ID, res)
		}
	}
	return repaired, failed
}

// watch follows the roster feed and re-runs the repair pass after each burst
// of roster news, until every pool team has locked or ctx ends.
func (s *LateSwapService) watch(ctx context.Context, eng *lateswap.Engine, ef *entries.File, p *domain.Pool, entriesPath, runID string) (int, int, error) {
	if s.cfg.Feed.WSURL == "" {
		return 0, 0, fmt.Errorf("watch mode requires feed.ws_url")
	}

	events := make(chan event.Event, 256)
	worker := feed.NewWorker(s.cfg.Feed.WSURL, events)
	if err := worker.Connect(ctx); err != nil {
		return 0, 0, fmt.Errorf("connect roster feed: %w", err)
	}
	defer worker.Disconnect()

	locked := make(map[string]bool)
	teams := len(p.Teams())
	repaired, failed := 0, 0

	slog.Info("watching roster feed",
		slog.String("url", s.cfg.Feed.WSURL),
		slog.Int("teams", teams),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped", slog.Int("teams_locked", len(locked)))
			return repaired, failed, nil

		case ev := <-events:
			dirty := s.applyEvent(eng, p, locked, ev)
		drain:
			for {
				select {
				case ev := <-events:
					if s.applyEvent(eng, p, locked, ev) {
						dirty = true
					}
				default:
					break drain
				}
			}

			if dirty {
				eng.UpdatePool(p)
				r, f := s.repairAll(ctx, eng, ef, runID)
				repaired += r
				failed += f
				if r > 0 {
					if err := ef.WriteTo(entriesPath); err != nil {
						return repaired, failed, err
					}
				}
				slog.Info("repair cycle complete",
					slog.Int("repaired", r),
					slog.Int("failed", f),
					slog.Int("teams_locked", len(locked)),
				)
			}

			if teams > 0 && len(locked) >= teams {
				slog.Info("all teams locked, stopping watch")
				return repaired, failed, nil
			}
		}
	}
}

// applyEvent folds one feed event into the pool and lock state. It reports
// whether the event changed anything a repair pass could act on.
func (s *LateSwapService) applyEvent(eng *lateswap.Engine, p *domain.Pool, locked map[string]bool, ev event.Event) bool {
	switch e := ev.(type) {
	case event.RosterUpdate:
		pl, ok := p.Get(e.PlayerID)
		if !ok {
			slog.Debug("roster update for unknown player", slog.String("player_id", e.PlayerID))
			return false
		}
		if pl.RosterOrder == e.Order {
			return false
		}
		slog.Info("roster update",
			slog.String("player", pl.Name),
			slog.String("team", pl.Team),
			slog.Int("old_order", pl.RosterOrder),
			slog.Int("new_order", e.Order),
		)
		pl.RosterOrder = e.Order
		return true

	case event.TeamLock:
		if locked[e.Team] {
			return false
		}
		locked[e.Team] = true
		eng.LockTeam(e.Team)
		slog.Info("team locked", slog.String("team", e.Team))
		return true
	}
	return false
}

// saveSwap records one repair outcome. Persistence failures are logged and
// skipped.
func (s *LateSwapService) saveSwap(runID, entryID string, res *domain.SwapResult) {
	if s.repo == nil {
		return
	}
	rec := &domain.SwapRecord{
		RunID:           runID,
		EntryID:         entryID,
		Strategy:        res.Strategy,
		Swaps:           len(res.Swaps),
		ProjectionDelta: res.ProjectionDelta.String(),
		SalaryDelta:     res.SalaryDelta,
		Reason:          res.Reason,
	}
	if err := s.repo.SaveSwap(rec); err != nil {
		slog.Error("failed to persist swap record",
			slog.String("entry_id", entryID),
			slog.Any("error", err),
		)
	}
}

func parseEntriesFile(path string, p *domain.Pool, slots domain.SlotMap) (*entries.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entries file: %w", err)
	}
	defer f.Close()
	return entries.Parse(f, p, slots)
}

// swapConfigFrom maps contest, rule and swap settings onto the repair chain.
func swapConfigFrom(cfg *infra.Config) lateswap.Config {
	return lateswap.Config{
		SalaryCap:      cfg.Contest.SalaryCap,
		SalaryFloor:    cfg.Contest.SalaryFloor,
		Targets:        stackTargetsFrom(cfg),
		MinGain:        points.FromDecimal(cfg.Swap.MinGain),
		MaxSalaryBump:  cfg.Swap.MaxSalaryBump,
		AvoidSameTeam:  cfg.Swap.AvoidSameTeam,
		LateOrderMin:   cfg.Rules.LateOrder.MinOrder,
		LateOrderMax:   cfg.Rules.LateOrder.MaxOrder,
		LateOrderCount: cfg.Rules.LateOrder.MaxCount,
		MaxTeams:       cfg.Contest.MaxTeams,
		MaxFixIters:    cfg.Swap.MaxFixIters,
		SolveBudget:    time.Duration(cfg.Swap.SolveBudgetMS) * time.Millisecond,
	}
}
