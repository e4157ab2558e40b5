package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"dfs_go/internal/domain"
	"dfs_go/internal/engine"
	"dfs_go/internal/infra"
	"dfs_go/pkg/points"
)

// fakeRepo captures repository calls in memory. Run records are snapshotted
// because the services mutate the same struct between create and finish.
type fakeRepo struct {
	created  []domain.RunRecord
	finished []domain.RunRecord
	lineups  []*domain.LineupRecord
	swaps    []*domain.SwapRecord
}

func (r *fakeRepo) CreateRun(run *domain.RunRecord) error {
	r.created = append(r.created, *run)
	return nil
}

func (r *fakeRepo) FinishRun(run *domain.RunRecord) error {
	r.finished = append(r.finished, *run)
	return nil
}

func (r *fakeRepo) SaveLineup(rec *domain.LineupRecord) error {
	r.lineups = append(r.lineups, rec)
	return nil
}

func (r *fakeRepo) SaveSwap(rec *domain.SwapRecord) error {
	r.swaps = append(r.swaps, rec)
	return nil
}

const poolHeader = "Id,Position,First Name,Nickname,Last Name,FPPG,Played,Salary,Game,Team,Opponent,Injury Indicator,Injury Details,Tier,Roster Order,Probable Pitcher,Projected Ownership"

func poolRow(id, pos, name, fppg string, salary int, team, opp, order, probable string) string {
	fields := []string{
		id, pos, "", name, "", fppg, "10", strconv.Itoa(salary),
		team + "@" + opp, team, opp, "", "", "", order, probable, "",
	}
	return strings.Join(fields, ",")
}

// slatePool is a slate where CCC is the only team deep enough for the
// primary stack and DDD the only one for the secondary, so generation has
// exactly one stack shape to land on.
func slatePool(scratched ...string) string {
	rows := []string{
		poolHeader,
		poolRow("p1", "P", "Ace Starter", "30.0", 9000, "AAA", "BBB", "0", "Yes"),
		poolRow("c_c", "C", "Cam Catcher", "12.0", 3000, "CCC", "DDD", "1", ""),
		poolRow("c_2b", "2B", "Carl Second", "11.0", 3000, "CCC", "DDD", "2", ""),
		poolRow("c_3b", "3B", "Cody Third", "11.0", 3000, "CCC", "DDD", "3", ""),
		poolRow("c_ss", "SS", "Case Short", "10.0", 3000, "CCC", "DDD", "4", ""),
		poolRow("c_of", "OF", "Cliff Field", "10.0", 3000, "CCC", "DDD", "5", ""),
		poolRow("d_1b", "1B", "Dan First", "9.0", 3000, "DDD", "CCC", "1", ""),
		poolRow("d_of1", "OF", "Dave Left", "9.0", 3000, "DDD", "CCC", "2", ""),
		poolRow("d_of2", "OF", "Drew Right", "8.0", 3000, "DDD", "CCC", "3", ""),
		poolRow("e_of", "OF", "Ed Center", "7.0", 2800, "EEE", "FFF", "4", ""),
		poolRow("e_of2", "OF", "Eli Corner", "7.5", 2800, "EEE", "FFF", "3", ""),
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		id := row[:strings.Index(row, ",")]
		for _, s := range scratched {
			if id == s {
				row = poolRow(id, "OF", "Scratched", "7.0", 2800, "EEE", "FFF", "", "")
			}
		}
		out = append(out, row)
	}
	return strings.Join(out, "\n") + "\n"
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return recs
}

func TestOptimizerServiceRun(t *testing.T) {
	dir := t.TempDir()
	poolPath := filepath.Join(dir, "players.csv")
	outPath := filepath.Join(dir, "upload.csv")
	writeFile(t, poolPath, slatePool())

	cfg := infra.DefaultConfig()
	cfg.Build.MaxAttempts = 5
	repo := &fakeRepo{}

	sum, err := NewOptimizerService(cfg, repo).Run(context.Background(), poolPath, outPath, 1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 1. One lineup produced under the cap.
	if sum.Produced != 1 || len(sum.Lineups) != 1 {
		t.Fatalf("Expected 1 lineup, got produced=%d lineups=%d", sum.Produced, len(sum.Lineups))
	}
	lineup := sum.Lineups[0]
	if len(lineup.Entries) != 9 {
		t.Fatalf("Expected 9 entries, got %d", len(lineup.Entries))
	}
	if sal := lineup.TotalSalary(); sal > cfg.Contest.SalaryCap {
		t.Errorf("Salary %d over cap %d", sal, cfg.Contest.SalaryCap)
	}

	// 2. The run record opened and closed around it.
	if len(repo.created) != 1 || len(repo.finished) != 1 {
		t.Fatalf("Expected 1 created and 1 finished run, got %d/%d", len(repo.created), len(repo.finished))
	}
	run := repo.finished[0]
	if run.Kind != "optimize" {
		t.Errorf("Expected kind optimize, got %q", run.Kind)
	}
	if run.ID == "" || run.ID != repo.created[0].ID {
		t.Errorf("Run id mismatch: created %q finished %q", repo.created[0].ID, run.ID)
	}
	if run.ConfigDigest != configDigest(cfg) {
		t.Errorf("Digest does not match the effective config")
	}
	if run.Lineups != 1 || run.Attempts < 1 {
		t.Errorf("Expected counters lineups=1 attempts>=1, got %d/%d", run.Lineups, run.Attempts)
	}
	if run.FinishedAt.IsZero() {
		t.Error("FinishedAt not set")
	}

	// 3. The accepted lineup was streamed into the repository.
	if len(repo.lineups) != 1 {
		t.Fatalf("Expected 1 lineup record, got %d", len(repo.lineups))
	}
	rec := repo.lineups[0]
	if rec.RunID != run.ID || rec.Seq != 1 {
		t.Errorf("Expected run %q seq 1, got %q/%d", run.ID, rec.RunID, rec.Seq)
	}
	if rec.PrimaryTeam != "CCC" || rec.SecondaryTeam != "DDD" {
		t.Errorf("Expected stacks CCC/DDD, got %q/%q", rec.PrimaryTeam, rec.SecondaryTeam)
	}
	var entries []domain.LineupEntry
	if err := json.Unmarshal([]byte(rec.EntriesJSON), &entries); err != nil {
		t.Fatalf("EntriesJSON is not a lineup: %v", err)
	}
	if len(entries) != 9 || entries[0].PlayerID != "p1" {
		t.Errorf("Expected 9 entries led by p1, got %d starting %q", len(entries), entries[0].PlayerID)
	}
	if rec.TotalSalary != lineup.TotalSalary() {
		t.Errorf("Expected salary %d, got %d", lineup.TotalSalary(), rec.TotalSalary)
	}

	// 4. The upload file holds the header and one id row.
	recs := readCSV(t, outPath)
	if len(recs) != 2 {
		t.Fatalf("Expected 2 upload records, got %d", len(recs))
	}
	if got := strings.Join(recs[0], ","); got != "P,C/1B,2B,3B,SS,OF,OF,OF,UTIL" {
		t.Errorf("Unexpected upload header %q", got)
	}
	if recs[1][0] != "p1" {
		t.Errorf("Expected pitcher p1 in the first column, got %q", recs[1][0])
	}
}

func TestOptimizerServiceMissingPool(t *testing.T) {
	repo := &fakeRepo{}
	_, err := NewOptimizerService(infra.DefaultConfig(), repo).Run(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "", 1)
	if err == nil {
		t.Fatal("Expected an error for a missing pool file")
	}
	if len(repo.created) != 0 {
		t.Errorf("Expected no run record, got %d", len(repo.created))
	}
}

const entriesHeader = "entry_id,contest_id,contest_name,P,C/1B,2B,3B,SS,OF,OF,OF,UTIL"

const committedEntry = entriesHeader + "\n" +
	"4400000001,88001,MLB Main,p1,c_c,c_2b,c_3b,c_ss,d_of1,d_of2,e_of,d_1b\n"

func TestLateSwapServiceRun(t *testing.T) {
	dir := t.TempDir()
	poolPath := filepath.Join(dir, "players.csv")
	entriesPath := filepath.Join(dir, "entries.csv")
	// e_of lost his batting order; e_of2 is the only candidate that keeps
	// the CCC stack at its exact size.
	writeFile(t, poolPath, slatePool("e_of"))
	writeFile(t, entriesPath, committedEntry)

	cfg := infra.DefaultConfig()
	repo := &fakeRepo{}

	repaired, failed, err := NewLateSwapService(cfg, repo).Run(context.Background(), entriesPath, poolPath, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if repaired != 1 || failed != 0 {
		t.Fatalf("Expected 1 repaired and 0 failed, got %d/%d", repaired, failed)
	}

	// 1. The file was rewritten with the replacement in the third OF column.
	recs := readCSV(t, entriesPath)
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	if recs[1][10] != "e_of2" {
		t.Errorf("Expected e_of2 in the swapped slot, got %q", recs[1][10])
	}
	if recs[1][3] != "p1" || recs[1][9] != "d_of2" {
		t.Errorf("Untouched slots changed: %v", recs[1])
	}

	// 2. The swap was recorded against the run.
	if len(repo.created) != 1 || len(repo.finished) != 1 {
		t.Fatalf("Expected 1 created and 1 finished run, got %d/%d", len(repo.created), len(repo.finished))
	}
	run := repo.finished[0]
	if run.Kind != "lateswap" {
		t.Errorf("Expected kind lateswap, got %q", run.Kind)
	}
	if run.Lineups != 1 || run.Attempts != 1 || run.Infeasible != 0 {
		t.Errorf("Expected counters 1/1/0, got %d/%d/%d", run.Lineups, run.Attempts, run.Infeasible)
	}
	if len(repo.swaps) != 1 {
		t.Fatalf("Expected 1 swap record, got %d", len(repo.swaps))
	}
	swap := repo.swaps[0]
	if swap.RunID != run.ID || swap.EntryID != "4400000001" {
		t.Errorf("Expected swap on run %q entry 4400000001, got %q/%q", run.ID, swap.RunID, swap.EntryID)
	}
	if swap.Strategy != "multi_swap" || swap.Swaps != 1 {
		t.Errorf("Expected one multi_swap swap, got %q/%d", swap.Strategy, swap.Swaps)
	}
	if swap.ProjectionDelta != "0.50" || swap.SalaryDelta != 0 {
		t.Errorf("Expected delta +0.50 for 0, got %s/%d", swap.ProjectionDelta, swap.SalaryDelta)
	}
	if swap.Reason != "" {
		t.Errorf("Expected no failure reason, got %q", swap.Reason)
	}
}

func TestLateSwapServiceLeavesValidEntriesAlone(t *testing.T) {
	dir := t.TempDir()
	poolPath := filepath.Join(dir, "players.csv")
	entriesPath := filepath.Join(dir, "entries.csv")
	writeFile(t, poolPath, slatePool())
	writeFile(t, entriesPath, committedEntry)

	repo := &fakeRepo{}
	repaired, _, err := NewLateSwapService(infra.DefaultConfig(), repo).Run(context.Background(), entriesPath, poolPath, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if repaired != 0 {
		t.Errorf("Expected 0 repaired, got %d", repaired)
	}

	raw, err := os.ReadFile(entriesPath)
	if err != nil {
		t.Fatalf("read entries: %v", err)
	}
	if string(raw) != committedEntry {
		t.Error("Entries file rewritten although nothing needed repair")
	}
	if len(repo.swaps) != 0 {
		t.Errorf("Expected no swap records, got %d", len(repo.swaps))
	}
	if run := repo.finished[0]; run.Attempts != 0 || run.Infeasible != 0 {
		t.Errorf("Expected counters 0/0, got %d/%d", run.Attempts, run.Infeasible)
	}
}

func TestLateSwapServiceEmptyEntries(t *testing.T) {
	dir := t.TempDir()
	poolPath := filepath.Join(dir, "players.csv")
	entriesPath := filepath.Join(dir, "entries.csv")
	writeFile(t, poolPath, slatePool())
	writeFile(t, entriesPath, entriesHeader+"\n")

	repo := &fakeRepo{}
	if _, _, err := NewLateSwapService(infra.DefaultConfig(), repo).Run(context.Background(), entriesPath, poolPath, false); err != nil {
		t.Fatalf("Expected nil for an empty entries file, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Errorf("Expected no run record, got %d", len(repo.created))
	}
}

func TestRulesFromDefaults(t *testing.T) {
	rules := rulesFrom(infra.DefaultConfig())
	if len(rules) != 2 {
		t.Fatalf("Expected 2 baseline rules, got %d", len(rules))
	}
	if _, ok := rules[0].(engine.PitcherOpponentRule); !ok {
		t.Errorf("Expected PitcherOpponentRule first, got %T", rules[0])
	}
	lo, ok := rules[1].(engine.LateOrderRule)
	if !ok {
		t.Fatalf("Expected LateOrderRule second, got %T", rules[1])
	}
	if lo.MinOrder != 8 || lo.MaxOrder != 9 || lo.MaxCount != 1 {
		t.Errorf("Unexpected late order band %d-%d cap %d", lo.MinOrder, lo.MaxOrder, lo.MaxCount)
	}
}

func TestRulesFromFullConfig(t *testing.T) {
	cfg := infra.DefaultConfig()
	cfg.Rules.ExcludedPlayers = []string{"x1"}
	cfg.Rules.OneOffPlayers = []string{"o1", "o2"}
	cfg.Rules.AvoidStackPairs = []infra.StackPair{{Pitcher: "p9", Team: "BOS", Trigger: 3}}
	cfg.Rules.RequireStackPairs = []infra.StackPair{{Pitcher: "p8", Team: "NYY"}}
	cfg.Rules.PrimaryPairs = map[string][]string{"LAD": {"SD"}}
	cfg.Rules.NoPrimaryTeams = []string{"COL"}

	rules := rulesFrom(cfg)
	if len(rules) != 8 {
		t.Fatalf("Expected 8 rules, got %d", len(rules))
	}
	if ex, ok := rules[2].(engine.ExcludedPlayersRule); !ok || len(ex.IDs) != 1 {
		t.Errorf("Expected ExcludedPlayersRule with 1 id, got %T %+v", rules[2], rules[2])
	}
	if oo, ok := rules[3].(engine.OneOffRule); !ok || len(oo.IDs) != 2 {
		t.Errorf("Expected OneOffRule with 2 ids, got %T %+v", rules[3], rules[3])
	}
	av, ok := rules[4].(engine.AvoidStackPairRule)
	if !ok || av.PitcherID != "p9" || av.Team != "BOS" || av.Trigger != 3 {
		t.Errorf("Unexpected avoid pair %T %+v", rules[4], rules[4])
	}
	rq, ok := rules[5].(engine.RequireStackPairRule)
	if !ok || rq.PitcherID != "p8" || rq.Team != "NYY" || rq.Trigger != 0 {
		t.Errorf("Unexpected require pair %T %+v", rules[5], rules[5])
	}
	if _, ok := rules[6].(engine.PrimaryPairRule); !ok {
		t.Errorf("Expected PrimaryPairRule, got %T", rules[6])
	}
	if np, ok := rules[7].(engine.NoPrimaryRule); !ok || len(np.Teams) != 1 {
		t.Errorf("Expected NoPrimaryRule with 1 team, got %T %+v", rules[7], rules[7])
	}
}

func TestSwapConfigFrom(t *testing.T) {
	cfg := infra.DefaultConfig()
	cfg.Contest.MaxTeams = 3
	sc := swapConfigFrom(cfg)

	if sc.SalaryCap != 35000 || sc.MaxTeams != 3 {
		t.Errorf("Unexpected contest mapping cap=%d teams=%d", sc.SalaryCap, sc.MaxTeams)
	}
	if sc.MinGain != points.FromFloat(-10) {
		t.Errorf("Expected min gain -10.00, got %s", sc.MinGain)
	}
	if sc.MaxSalaryBump != 10000 || sc.AvoidSameTeam {
		t.Errorf("Unexpected swap mapping bump=%d avoid=%v", sc.MaxSalaryBump, sc.AvoidSameTeam)
	}
	if sc.LateOrderMin != 8 || sc.LateOrderMax != 9 || sc.LateOrderCount != 1 {
		t.Errorf("Unexpected late order mapping %d-%d/%d", sc.LateOrderMin, sc.LateOrderMax, sc.LateOrderCount)
	}
	if sc.MaxFixIters != 8 || sc.SolveBudget != 5*time.Second {
		t.Errorf("Unexpected solver mapping iters=%d budget=%s", sc.MaxFixIters, sc.SolveBudget)
	}
	if sc.Targets.PrimarySize != 4 || sc.Targets.SecondaryMin != 3 || sc.Targets.SecondaryMax != 4 {
		t.Errorf("Unexpected stack targets %+v", sc.Targets)
	}
}

func TestConfigDigest(t *testing.T) {
	a := configDigest(infra.DefaultConfig())
	if len(a) != 64 {
		t.Fatalf("Expected a 64 char digest, got %d", len(a))
	}
	if b := configDigest(infra.DefaultConfig()); b != a {
		t.Error("Digest not stable across identical configs")
	}
	cfg := infra.DefaultConfig()
	cfg.Contest.SalaryCap = 40000
	if configDigest(cfg) == a {
		t.Error("Digest unchanged although the config differs")
	}
}
