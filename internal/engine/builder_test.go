package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dfs_go/internal/domain"
	"dfs_go/internal/solver"
	"dfs_go/pkg/points"
)

// The tests run on a reduced roster so pools stay small: one pitcher, two
// infielders, two outfielders, one utility. Stack targets scale down with
// it (primary 3, secondary 2-3), which keeps the arithmetic checkable by
// hand.

func testSlots() domain.SlotMap {
	return domain.SlotMap{
		{Name: "P", Count: 1, Positions: []string{"P"}},
		{Name: "IF", Count: 2, Positions: []string{"C", "1B", "2B", "3B", "SS"}},
		{Name: "OF", Count: 2, Positions: []string{"OF"}},
		{Name: "UTIL", Count: 1, Util: true},
	}
}

func testConfig() BuildConfig {
	return BuildConfig{
		SalaryCap: 35000,
		Targets:   domain.StackTargets{PrimarySize: 3, SecondaryMin: 2, SecondaryMax: 3},
		MinUnique: 1,
	}
}

func batter(id, team, pos string, order, salary int, proj float64) *domain.Player {
	return &domain.Player{
		ID:          id,
		Name:        id,
		Team:        team,
		Positions:   []string{pos},
		Salary:      salary,
		Projection:  points.FromFloat(proj),
		RosterOrder: order,
	}
}

func pitcher(id, team, opp string, salary int, proj float64) *domain.Player {
	return &domain.Player{
		ID:              id,
		Name:            id,
		Team:            team,
		Opponent:        opp,
		Positions:       []string{"P"},
		Salary:          salary,
		Projection:      points.FromFloat(proj),
		ProbablePitcher: true,
	}
}

// testPool is one pitcher plus two stackable teams. The best lineup is the
// CCC trio c1+c2+c3 with d1+d2 as the secondary pair, projecting 82.00 for
// a 24000 salary.
func testPool() *domain.Pool {
	return domain.NewPool([]*domain.Player{
		pitcher("p1", "AAA", "BBB", 9000, 30),
		batter("c1", "CCC", "SS", 1, 3000, 12),
		batter("c2", "CCC", "2B", 2, 3000, 11),
		batter("c3", "CCC", "OF", 3, 3000, 11),
		batter("c4", "CCC", "OF", 4, 3000, 10),
		batter("d1", "DDD", "1B", 1, 3000, 9),
		batter("d2", "DDD", "OF", 2, 3000, 9),
		batter("d3", "DDD", "3B", 3, 3000, 2),
	})
}

func solveBuild(t *testing.T, b *Builder, ledger *domain.ExposureLedger) (*solver.Result, *Vars) {
	t.Helper()
	model, vars, err := b.Build(ledger)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	res, err := solver.NewPBSolver().Solve(context.Background(), model, solver.Params{Budget: 10 * time.Second})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	return res, vars
}

func TestBuilder_OptimalLineup(t *testing.T) {
	b := NewBuilder(testPool(), testSlots(), testConfig(), nil)
	res, vars := solveBuild(t, b, domain.NewExposureLedger(0))

	if res.Status != solver.StatusOptimal {
		t.Fatalf("Expected optimal, got %s", res.Status)
	}

	lineup, err := vars.Lineup(res, testSlots())
	if err != nil {
		t.Fatalf("Lineup decode failed: %v", err)
	}

	if len(lineup.Entries) != 6 {
		t.Fatalf("Expected 6 entries, got %d", len(lineup.Entries))
	}
	if lineup.HasDuplicates() {
		t.Error("Lineup contains duplicate players")
	}
	if got := lineup.TotalSalary(); got != 24000 {
		t.Errorf("Expected salary 24000, got %d", got)
	}
	if got := lineup.TotalProjection(); got != points.FromFloat(82) {
		t.Errorf("Expected projection 82.00, got %s", got)
	}
	if team := vars.PrimaryTeam(res); team != "CCC" {
		t.Errorf("Expected primary CCC, got %q", team)
	}
	if team := vars.SecondaryTeam(res); team != "DDD" {
		t.Errorf("Expected secondary DDD, got %q", team)
	}

	counts := lineup.SlotCounts()
	for slot, want := range map[string]int{"P": 1, "IF": 2, "OF": 2, "UTIL": 1} {
		if counts[slot] != want {
			t.Errorf("Slot %s filled %d times, want %d", slot, counts[slot], want)
		}
	}
}

func TestBuilder_SalaryCapExcludesExpensiveStar(t *testing.T) {
	pool := testPool()
	star, ok := pool.Get("c1")
	if !ok {
		t.Fatal("c1 missing from test pool")
	}
	star.Salary = 20000
	star.Projection = points.FromFloat(100)

	b := NewBuilder(pool, testSlots(), testConfig(), nil)
	res, vars := solveBuild(t, b, domain.NewExposureLedger(0))

	if res.Status != solver.StatusOptimal {
		t.Fatalf("Expected optimal, got %s", res.Status)
	}
	lineup, err := vars.Lineup(res, testSlots())
	if err != nil {
		t.Fatalf("Lineup decode failed: %v", err)
	}

	// Any roster with the 20000 star costs at least 41000.
	if lineup.HasPlayer("c1") {
		t.Error("Cap should have priced c1 out of the lineup")
	}
	if got := lineup.TotalSalary(); got > 35000 {
		t.Errorf("Salary %d exceeds the cap", got)
	}
	if got := lineup.TotalProjection(); got != points.FromFloat(80) {
		t.Errorf("Expected projection 80.00, got %s", got)
	}
}

func TestBuilder_PitcherOpponentRule(t *testing.T) {
	players := testPool().Players()
	players = append(players,
		batter("b1", "BBB", "SS", 1, 3000, 50),
		batter("b2", "BBB", "OF", 2, 3000, 50),
	)
	pool := domain.NewPool(players)

	// Without the rule the BBB pair is too good to pass up.
	b := NewBuilder(pool, testSlots(), testConfig(), nil)
	res, vars := solveBuild(t, b, domain.NewExposureLedger(0))
	lineup, err := vars.Lineup(res, testSlots())
	if err != nil {
		t.Fatalf("Lineup decode failed: %v", err)
	}
	if lineup.TeamCounts()["BBB"] == 0 {
		t.Fatal("Expected the unconstrained build to roster BBB batters")
	}

	// With it, the p1 start makes every BBB batter untouchable.
	b = NewBuilder(pool, testSlots(), testConfig(), []Rule{PitcherOpponentRule{}})
	res, vars = solveBuild(t, b, domain.NewExposureLedger(0))
	lineup, err = vars.Lineup(res, testSlots())
	if err != nil {
		t.Fatalf("Lineup decode failed: %v", err)
	}
	if n := lineup.TeamCounts()["BBB"]; n != 0 {
		t.Errorf("Rostered %d batters facing his own pitcher", n)
	}
	if !lineup.HasPlayer("p1") {
		t.Error("Expected the lone pitcher in the lineup")
	}
}

func TestBuilder_ExposureRotatesPrimaryStack(t *testing.T) {
	cfg := testConfig()
	cfg.PrimaryCap = decimal.NewFromFloat(0.5)
	cfg.MinUnique = 2
	ledger := domain.NewExposureLedger(0)

	b := NewBuilder(testPool(), testSlots(), cfg, nil)

	res, vars := solveBuild(t, b, ledger)
	first, err := vars.Lineup(res, testSlots())
	if err != nil {
		t.Fatalf("Lineup decode failed: %v", err)
	}
	if team := vars.PrimaryTeam(res); team != "CCC" {
		t.Fatalf("Expected first primary CCC, got %q", team)
	}
	ledger.Record(vars.PrimaryTeam(res), vars.SecondaryTeam(res), first.PlayerIDs())

	// One accept puts CCC at 100% primary exposure, past the 50% cap.
	res, vars = solveBuild(t, b, ledger)
	if res.Status != solver.StatusOptimal {
		t.Fatalf("Expected optimal, got %s", res.Status)
	}
	second, err := vars.Lineup(res, testSlots())
	if err != nil {
		t.Fatalf("Lineup decode failed: %v", err)
	}
	if team := vars.PrimaryTeam(res); team != "DDD" {
		t.Errorf("Expected rotated primary DDD, got %q", team)
	}
	if team := vars.SecondaryTeam(res); team != "CCC" {
		t.Errorf("Expected secondary CCC, got %q", team)
	}

	overlap := 0
	prev := first.IDSet()
	for _, id := range second.PlayerIDs() {
		if _, ok := prev[id]; ok {
			overlap++
		}
	}
	if overlap > 4 {
		t.Errorf("Lineups share %d players, min-unique allows 4", overlap)
	}
	if got := second.TotalProjection(); got != points.FromFloat(72) {
		t.Errorf("Expected projection 72.00, got %s", got)
	}
}

func TestBuilder_AnnouncedOnlyFiltersPool(t *testing.T) {
	players := testPool().Players()
	players = append(players,
		batter("x1", "CCC", "OF", 0, 3000, 100), // no announced order
	)
	scratched := pitcher("p2", "BBB", "AAA", 8000, 40)
	scratched.ProbablePitcher = false
	players = append(players, scratched)
	pool := domain.NewPool(players)

	cfg := testConfig()
	cfg.AnnouncedOnly = true
	b := NewBuilder(pool, testSlots(), cfg, nil)

	model, vars, err := b.Build(domain.NewExposureLedger(0))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if model == nil {
		t.Fatal("Expected a model")
	}
	if _, ok := vars.Selected["x1"]; ok {
		t.Error("Unannounced batter entered the model")
	}
	if _, ok := vars.Selected["p2"]; ok {
		t.Error("Non-probable pitcher entered the model")
	}
	if _, ok := vars.Selected["c1"]; !ok {
		t.Error("Announced batter missing from the model")
	}
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		b := NewBuilder(domain.NewPool(nil), testSlots(), testConfig(), nil)
		_, _, err := b.Build(domain.NewExposureLedger(0))
		if !errors.Is(err, domain.ErrEmptyPool) {
			t.Errorf("Expected ErrEmptyPool, got %v", err)
		}
	})

	t.Run("underfilled slot", func(t *testing.T) {
		pool := domain.NewPool([]*domain.Player{
			pitcher("p1", "AAA", "BBB", 9000, 30),
			batter("c1", "CCC", "SS", 1, 3000, 12),
			batter("c3", "CCC", "OF", 3, 3000, 11),
			batter("c4", "CCC", "OF", 4, 3000, 10),
		})
		b := NewBuilder(pool, testSlots(), testConfig(), nil)
		_, _, err := b.Build(domain.NewExposureLedger(0))
		var modelErr *domain.ModelError
		if !errors.As(err, &modelErr) {
			t.Fatalf("Expected ModelError, got %v", err)
		}
		if modelErr.Stage != "slots" {
			t.Errorf("Expected slots stage, got %q", modelErr.Stage)
		}
	})
}
