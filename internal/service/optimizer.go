package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"dfs_go/internal/domain"
	"dfs_go/internal/engine"
	"dfs_go/internal/infra"
	"dfs_go/internal/infra/entries"
	"dfs_go/internal/infra/pool"
	"dfs_go/internal/solver"
)

// OptimizerService wires the pool loader, the build-solve-accept loop and
// run persistence into the optimize command.
type OptimizerService struct {
	cfg    *infra.Config
	repo   domain.RunRepository
	loader domain.PoolLoader
	engine solver.Solver
}

// NewOptimizerService creates the optimize service. A nil repo disables
// persistence.
func NewOptimizerService(cfg *infra.Config, repo domain.RunRepository) *OptimizerService {
	return &OptimizerService{
		cfg:    cfg,
		repo:   repo,
		loader: pool.NewLoader(cfg.Rules.ExcludedPlayers),
		engine: solver.NewPBSolver(),
	}
}

// Run loads the player pool at poolPath, generates lineups and writes the
// upload file to outPath when non-empty. A positive count overrides the
// configured lineup target.
func (s *OptimizerService) Run(ctx context.Context, poolPath, outPath string, count int) (*engine.Summary, error) {
	cfg := s.cfg
	slots := cfg.SlotMap()

	target := cfg.Build.TargetLineups
	if count > 0 {
		target = count
	}

	// 1. Load the pool.
	p, err := s.loader.Load(poolPath)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	infra.GlobalMetrics.SetPoolSize(int32(p.Len()))
	slog.Info("player pool loaded",
		slog.String("path", poolPath),
		slog.Int("players", p.Len()),
		slog.Int("teams", len(p.Teams())),
	)

	// 2. Open the run record.
	run := &domain.RunRecord{
		ID:           uuid.New().String(),
		Kind:         "optimize",
		StartedAt:    time.Now(),
		ConfigDigest: configDigest(cfg),
	}
	if s.repo != nil {
		if err := s.repo.CreateRun(run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}

	// 3. Assemble the generation loop.
	targets := stackTargetsFrom(cfg)
	builder := engine.NewBuilder(p, slots, buildConfigFrom(cfg), rulesFrom(cfg))
	ledger := domain.NewExposureLedger(cfg.Build.RecencyWindow)
	params := solver.Params{
		Budget:  time.Duration(cfg.Build.SolveBudgetMS) * time.Millisecond,
		Workers: cfg.Build.Workers,
	}

	var resample engine.ResampleFunc
	if cfg.Build.JitterStdDev.IsPositive() {
		resample = pool.NewResampler(cfg.Build.JitterStdDev, cfg.Build.JitterSeed).Resample
	}

	onAccept := func(seq int, lineup *domain.Lineup) {
		s.persistLineup(run.ID, seq, lineup, targets)
	}

	gen := engine.NewGenerator(builder, s.engine, params, engine.GenerateConfig{
		TargetLineups: target,
		MaxAttempts:   cfg.Build.MaxAttempts,
	}, ledger, resample, onAccept)

	// 4. Generate.
	sum, runErr := gen.Run(ctx)

	// 5. Close the run record even on cancellation.
	run.FinishedAt = time.Now()
	run.Lineups = sum.Produced
	run.Attempts = sum.Attempts
	run.Infeasible = sum.Infeasible
	if s.repo != nil {
		if err := s.repo.FinishRun(run); err != nil {
			slog.Error("failed to finish run record", slog.Any("error", err))
		}
	}
	if runErr != nil {
		return sum, runErr
	}

	// 6. Export the upload file.
	if outPath != "" && len(sum.Lineups) > 0 {
		if err := writeUploadFile(outPath, slots, sum.Lineups); err != nil {
			return sum, err
		}
		slog.Info("upload file written",
			slog.String("path", outPath),
			slog.Int("lineups", len(sum.Lineups)),
		)
	}

	snap := infra.GlobalMetrics.Snapshot()
	slog.Info("optimize run complete",
		slog.String("run_id", run.ID),
		slog.Int("produced", sum.Produced),
		slog.Int("attempts", sum.Attempts),
		slog.Int("infeasible", sum.Infeasible),
		slog.Duration("elapsed", sum.Elapsed),
		slog.Uint64("solves_total", snap.SolvesTotal),
		slog.Int64("avg_solve_ns", snap.AvgSolveNs),
	)

	return sum, nil
}

// persistLineup streams one accepted lineup into the repository. Persistence
// failures are logged and skipped so a storage hiccup cannot abort a run.
func (s *OptimizerService) persistLineup(runID string, seq int, lineup *domain.Lineup, targets domain.StackTargets) {
	if s.repo == nil {
		return
	}
	shape := domain.AnalyzeStacks(lineup, targets)
	entriesJSON, err := json.Marshal(lineup.Entries)
	if err != nil {
		slog.Error("failed to encode lineup entries", slog.Any("error", err))
		return
	}
	rec := &domain.LineupRecord{
		RunID:           runID,
		Seq:             seq,
		TotalSalary:     lineup.TotalSalary(),
		TotalProjection: lineup.TotalProjection().String(),
		PrimaryTeam:     shape.Primary,
		SecondaryTeam:   shape.Secondary,
		EntriesJSON:     string(entriesJSON),
	}
	if err := s.repo.SaveLineup(rec); err != nil {
		slog.Error("failed to persist lineup",
			slog.Int("seq", seq),
			slog.Any("error", err),
		)
	}
}

func writeUploadFile(path string, slots domain.SlotMap, lineups []*domain.Lineup) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if err := entries.WriteUpload(out, slots, lineups); err != nil {
		out.Close()
		return fmt.Errorf("write upload file: %w", err)
	}
	return out.Close()
}

// stackTargetsFrom maps the configured stack sizes.
func stackTargetsFrom(cfg *infra.Config) domain.StackTargets {
	return domain.StackTargets{
		PrimarySize:  cfg.Build.PrimaryStackSize,
		SecondaryMin: cfg.Build.SecondaryStackMin,
		SecondaryMax: cfg.Build.SecondaryStackMax,
	}
}

// buildConfigFrom maps contest and build settings onto the builder.
func buildConfigFrom(cfg *infra.Config) engine.BuildConfig {
	return engine.BuildConfig{
		SalaryCap:     cfg.Contest.SalaryCap,
		SalaryFloor:   cfg.Contest.SalaryFloor,
		Targets:       stackTargetsFrom(cfg),
		MinUnique:     cfg.Build.MinUnique,
		PrimaryCap:    cfg.Build.PrimaryExposureCap,
		SecondaryCap:  cfg.Build.SecondaryExposureCap,
		AnnouncedOnly: cfg.Build.AnnouncedOnly,
	}
}

// rulesFrom expands the rules section into the hook list. The pitcher
// opponent rule always runs; the rest activate only when configured.
func rulesFrom(cfg *infra.Config) []engine.Rule {
	rules := []engine.Rule{
		engine.PitcherOpponentRule{},
		engine.LateOrderRule{
			MinOrder: cfg.Rules.LateOrder.MinOrder,
			MaxOrder: cfg.Rules.LateOrder.MaxOrder,
			MaxCount: cfg.Rules.LateOrder.MaxCount,
		},
	}
	if len(cfg.Rules.ExcludedPlayers) > 0 {
		rules = append(rules, engine.ExcludedPlayersRule{IDs: cfg.Rules.ExcludedPlayers})
	}
	if len(cfg.Rules.OneOffPlayers) > 0 {
		rules = append(rules, engine.OneOffRule{IDs: cfg.Rules.OneOffPlayers})
	}
	for _, pair := range cfg.Rules.AvoidStackPairs {
		rules = append(rules, engine.AvoidStackPairRule{
			PitcherID: pair.Pitcher,
			Team:      pair.Team,
			Trigger:   pair.Trigger,
		})
	}
	for _, pair := range cfg.Rules.RequireStackPairs {
		rules = append(rules, engine.RequireStackPairRule{
			PitcherID: pair.Pitcher,
			Team:      pair.Team,
			Trigger:   pair.Trigger,
		})
	}
	if len(cfg.Rules.PrimaryPairs) > 0 {
		rules = append(rules, engine.PrimaryPairRule{Allowed: cfg.Rules.PrimaryPairs})
	}
	if len(cfg.Rules.NoPrimaryTeams) > 0 {
		rules = append(rules, engine.NoPrimaryRule{Teams: cfg.Rules.NoPrimaryTeams})
	}
	return rules
}

// configDigest fingerprints the effective configuration so a run record can
// be traced back to the exact settings that produced it.
func configDigest(cfg *infra.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
