package lateswap

import (
	"context"
	"errors"
	"testing"

	"dfs_go/internal/domain"
	"dfs_go/pkg/points"
)

func TestSimpleRepair_CrossTeamWithStackFix(t *testing.T) {
	lineup := committedLineup(t)
	// e1 is the only direct replacement for c3. Taking him leaves the
	// counts at 2/2/1, so the fix pass has to rebuild the 3+2 shape from
	// c4 and d3.
	pool := refreshed([]string{"c3"}, nil,
		batter("e1", "EEE", "OF", 2, 2800, 15),
		batter("c4", "CCC", "1B", 4, 2700, 10),
		batter("d3", "DDD", "OF", 6, 2600, 7),
	)
	cfg := testConfig()
	rc := testRepairContext(t, pool, cfg, nil)

	res, err := SimpleRepairStrategy{}.Repair(context.Background(), rc, lineup, invalids(t, pool, lineup, cfg, nil))
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	if !res.Changed || res.Strategy != "simple_repair" {
		t.Errorf("Expected a simple_repair result, got %+v", res)
	}
	if len(res.Swaps) != 3 {
		t.Fatalf("Expected 3 swaps (1 direct, 2 shape fixes), got %d", len(res.Swaps))
	}
	if res.Swaps[0].In.ID != "e1" {
		t.Errorf("Expected the direct swap to take e1, got %s", res.Swaps[0].In.ID)
	}

	final := res.Lineup
	counts := final.TeamCounts()
	if counts["CCC"] != 3 || counts["DDD"] != 2 {
		t.Errorf("Expected a rebuilt 3+2 shape, got %v", counts)
	}
	if final.HasPlayer("c3") || final.HasPlayer("e1") {
		t.Errorf("Expected c3 scratched and e1 traded away, got %v", final.PlayerIDs())
	}
	if !final.HasPlayer("c4") || !final.HasPlayer("d3") {
		t.Errorf("Expected c4 and d3 rostered, got %v", final.PlayerIDs())
	}
	if want := points.FromFloat(-3); res.ProjectionDelta != want {
		t.Errorf("Expected projection delta %s, got %s", want, res.ProjectionDelta)
	}
	if res.SalaryDelta != -700 {
		t.Errorf("Expected salary delta -700, got %d", res.SalaryDelta)
	}
	if !rc.Validator.Valid(final, lineup) {
		t.Errorf("Expected the repaired lineup to validate, got %v", rc.Validator.Violations(final, lineup))
	}
}

func TestSimpleRepair_CandidateFilter(t *testing.T) {
	lineup := committedLineup(t)

	t.Run("min gain", func(t *testing.T) {
		pool := refreshed([]string{"c3"}, nil, batter("e1", "EEE", "OF", 2, 2800, 15))
		cfg := testConfig()
		cfg.MinGain = points.FromFloat(10) // the 4.00 upgrade is not enough
		rc := testRepairContext(t, pool, cfg, nil)

		_, err := SimpleRepairStrategy{}.Repair(context.Background(), rc, lineup, invalids(t, pool, lineup, cfg, nil))
		if !errors.Is(err, domain.ErrNoSolution) {
			t.Fatalf("Expected ErrNoSolution, got %v", err)
		}
	})

	t.Run("same team excluded", func(t *testing.T) {
		pool := refreshed([]string{"c3"}, nil, batter("c5", "CCC", "OF", 5, 3000, 20))
		cfg := testConfig()
		rc := testRepairContext(t, pool, cfg, nil)

		_, err := SimpleRepairStrategy{}.Repair(context.Background(), rc, lineup, invalids(t, pool, lineup, cfg, nil))
		if !errors.Is(err, domain.ErrNoSolution) {
			t.Fatalf("Expected ErrNoSolution, got %v", err)
		}
	})

	t.Run("salary bump", func(t *testing.T) {
		pool := refreshed([]string{"c3"}, nil, batter("e1", "EEE", "OF", 2, 3200, 15))
		cfg := testConfig()
		cfg.MaxSalaryBump = 100 // e1 costs 200 more than c3
		rc := testRepairContext(t, pool, cfg, nil)

		_, err := SimpleRepairStrategy{}.Repair(context.Background(), rc, lineup, invalids(t, pool, lineup, cfg, nil))
		if !errors.Is(err, domain.ErrNoSolution) {
			t.Fatalf("Expected ErrNoSolution, got %v", err)
		}
	})
}
