package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dfs_go/internal/domain"
	"dfs_go/internal/infra"
	"dfs_go/internal/solver"
)

// GenerateConfig bounds one generation run.
type GenerateConfig struct {
	TargetLineups int
	MaxAttempts   int
}

// ResampleFunc perturbs the pool before an attempt, typically by jittering
// projections so consecutive solves land on different optima.
type ResampleFunc func(*domain.Pool)

// Summary is the outcome of one generation run.
type Summary struct {
	Produced    int
	Attempts    int
	Infeasible  int
	NoSolution  int
	ModelErrors int
	Elapsed     time.Duration
	Lineups     []*domain.Lineup
}

// Generator drives the build-solve-accept loop until the lineup target or
// the attempt cap is reached.
type Generator struct {
	builder *Builder
	engine  solver.Solver
	params  solver.Params
	cfg     GenerateConfig
	ledger  *domain.ExposureLedger
	metrics *infra.Metrics

	// Boundary: hooks for resampling and streaming accepted lineups out
	resample ResampleFunc
	onAccept func(seq int, lineup *domain.Lineup)
}

// NewGenerator creates a generator. The ledger must be the same instance the
// builder gates on, so exposure bookkeeping and exposure constraints agree.
// Both hooks may be nil.
func NewGenerator(builder *Builder, engine solver.Solver, params solver.Params, cfg GenerateConfig, ledger *domain.ExposureLedger, resample ResampleFunc, onAccept func(int, *domain.Lineup)) *Generator {
	return &Generator{
		builder:  builder,
		engine:   engine,
		params:   params,
		cfg:      cfg,
		ledger:   ledger,
		metrics:  infra.GlobalMetrics,
		resample: resample,
		onAccept: onAccept,
	}
}

// Run executes attempts until the target is met, the attempt cap is hit, or
// ctx is cancelled. Running out of attempts is a normal outcome and returns
// a nil error; cancellation returns the partial summary with ctx's error.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{}

	slog.Info("Generation started",
		slog.Int("target", g.cfg.TargetLineups),
		slog.Int("max_attempts", g.cfg.MaxAttempts),
		slog.Int("pool_size", g.builder.pool.Len()))

	for sum.Produced < g.cfg.TargetLineups && sum.Attempts < g.cfg.MaxAttempts {
		select {
		case <-ctx.Done():
			sum.Elapsed = time.Since(start)
			return sum, ctx.Err()
		default:
		}

		sum.Attempts++

		// 1. Perturb projections so the next optimum differs
		if g.resample != nil {
			g.resample(g.builder.pool)
		}

		// 2. Build the constraint model against the current ledger state
		model, vars, err := g.builder.Build(g.ledger)
		if err != nil {
			sum.ModelErrors++
			g.metrics.RecordModelError()
			slog.Warn("Model build failed",
				slog.Int("attempt", sum.Attempts),
				slog.Any("error", err))
			if errors.Is(err, domain.ErrEmptyPool) {
				// No players will appear on a retry either.
				sum.Elapsed = time.Since(start)
				return sum, err
			}
			continue
		}

		// 3. Solve
		solveStart := time.Now()
		res, err := g.engine.Solve(ctx, model, g.params)
		g.metrics.RecordSolve(time.Since(solveStart).Nanoseconds())
		if err != nil {
			if ctx.Err() != nil {
				sum.Elapsed = time.Since(start)
				return sum, ctx.Err()
			}
			sum.ModelErrors++
			g.metrics.RecordModelError()
			slog.Warn("Solve failed",
				slog.Int("attempt", sum.Attempts),
				slog.Any("error", err))
			continue
		}
		if !res.Feasible() {
			switch res.Status {
			case solver.StatusInfeasible:
				sum.Infeasible++
				g.metrics.RecordInfeasible()
			default:
				sum.NoSolution++
				g.metrics.RecordNoSolution()
			}
			slog.Debug("Attempt produced no lineup",
				slog.Int("attempt", sum.Attempts),
				slog.String("status", res.Status.String()))
			continue
		}

		// 4. Decode and accept
		lineup, err := vars.Lineup(res, g.builder.slots)
		if err != nil {
			sum.ModelErrors++
			g.metrics.RecordModelError()
			slog.Warn("Lineup decode failed",
				slog.Int("attempt", sum.Attempts),
				slog.Any("error", err))
			continue
		}

		g.ledger.Record(vars.PrimaryTeam(res), vars.SecondaryTeam(res), lineup.PlayerIDs())
		sum.Produced++
		sum.Lineups = append(sum.Lineups, lineup)
		g.metrics.RecordLineup()

		slog.Debug("Lineup accepted",
			slog.Int("seq", sum.Produced),
			slog.Int("salary", lineup.TotalSalary()),
			slog.String("projection", lineup.TotalProjection().String()))

		if g.onAccept != nil {
			g.onAccept(sum.Produced, lineup)
		}
	}

	sum.Elapsed = time.Since(start)
	slog.Info("Generation finished",
		slog.Int("produced", sum.Produced),
		slog.Int("attempts", sum.Attempts),
		slog.Int("infeasible", sum.Infeasible),
		slog.Duration("elapsed", sum.Elapsed))
	return sum, nil
}
