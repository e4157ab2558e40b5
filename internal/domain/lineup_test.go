package domain

import (
	"testing"

	"dfs_go/pkg/points"
)

func testPlayer(id, name, team string, positions []string, salary int, proj float64, order int) *Player {
	return &Player{
		ID:          id,
		Name:        name,
		Team:        team,
		Positions:   positions,
		Salary:      salary,
		Projection:  points.FromFloat(proj),
		RosterOrder: order,
	}
}

func TestSlotAdmits(t *testing.T) {
	catcher := testPlayer("1-10", "A", "NYY", []string{"C", "1B"}, 2800, 9.1, 2)
	pitcher := testPlayer("1-11", "B", "NYY", []string{"P"}, 9500, 35.0, 0)
	pitcher.ProbablePitcher = true
	outfielder := testPlayer("1-12", "C", "BOS", []string{"OF"}, 3100, 11.4, 5)

	slots := DefaultSlotMap()

	cases := []struct {
		slot   string
		player *Player
		want   bool
	}{
		{"C/1B", catcher, true},
		{"2B", catcher, false},
		{"P", pitcher, true},
		{"UTIL", pitcher, false}, // utility never admits a pitcher
		{"UTIL", catcher, true},
		{"OF", outfielder, true},
		{"P", outfielder, false},
	}
	for _, c := range cases {
		t.Run(c.slot+"/"+c.player.Name, func(t *testing.T) {
			slot, ok := slots.Find(c.slot)
			if !ok {
				t.Fatalf("slot %s not in default map", c.slot)
			}
			if got := slot.Admits(c.player); got != c.want {
				t.Errorf("Admits = %v, want %v", got, c.want)
			}
		})
	}
}

func TestSlotMapColumns(t *testing.T) {
	cols := DefaultSlotMap().Columns()
	want := []string{"P", "C/1B", "2B", "3B", "SS", "OF", "OF", "OF", "UTIL"}
	if len(cols) != len(want) {
		t.Fatalf("Columns() returned %d names, want %d", len(cols), len(want))
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, cols[i], want[i])
		}
	}
	if size := DefaultSlotMap().RosterSize(); size != 9 {
		t.Errorf("RosterSize = %d, want 9", size)
	}
}

func TestPlayerAnnounced(t *testing.T) {
	batter := testPlayer("1-20", "Bat", "LAD", []string{"SS"}, 3000, 10.0, 0)
	if batter.Announced() {
		t.Error("batter with roster order 0 must not count as announced")
	}
	batter.RosterOrder = 7
	if !batter.Announced() {
		t.Error("batter with roster order 7 is announced")
	}

	pitcher := testPlayer("1-21", "Arm", "LAD", []string{"P"}, 8000, 30.0, 0)
	if pitcher.Announced() {
		t.Error("non-probable pitcher is not announced")
	}
	pitcher.ProbablePitcher = true
	if !pitcher.Announced() {
		t.Error("probable pitcher counts as announced despite order 0")
	}
}

func TestLineupTotalsAndSets(t *testing.T) {
	p1 := testPlayer("1-1", "Ace", "NYY", []string{"P"}, 9000, 32.5, 0)
	p1.ProbablePitcher = true
	p2 := testPlayer("1-2", "Bats", "BOS", []string{"OF"}, 3500, 12.25, 3)
	p3 := testPlayer("1-3", "Glove", "BOS", []string{"SS"}, 2700, 8.0, 8)

	l := &Lineup{Entries: []LineupEntry{
		NewEntry("P", p1),
		NewEntry("OF", p2),
		NewEntry("SS", p3),
	}}

	if got := l.TotalSalary(); got != 15200 {
		t.Errorf("TotalSalary = %d, want 15200", got)
	}
	if got := l.TotalProjection(); got != points.FromFloat(52.75) {
		t.Errorf("TotalProjection = %s, want 52.75", got)
	}
	if l.HasDuplicates() {
		t.Error("no duplicates expected")
	}
	if !l.HasPlayer("1-2") || l.HasPlayer("1-9") {
		t.Error("HasPlayer lookup wrong")
	}

	counts := l.TeamCounts()
	if counts["BOS"] != 2 {
		t.Errorf("BOS non-pitcher count = %d, want 2", counts["BOS"])
	}
	if counts["NYY"] != 0 {
		t.Errorf("pitcher must not count toward NYY stack, got %d", counts["NYY"])
	}
}

func TestLineupDuplicateDetection(t *testing.T) {
	p := testPlayer("1-5", "Dup", "CHC", []string{"OF"}, 3000, 9.0, 4)
	l := &Lineup{Entries: []LineupEntry{
		NewEntry("OF", p),
		NewEntry("UTIL", p),
	}}
	if !l.HasDuplicates() {
		t.Error("expected duplicate detection for same player in two slots")
	}
}

func TestLineupClone(t *testing.T) {
	p1 := testPlayer("1-6", "One", "ATL", []string{"2B"}, 2600, 7.5, 6)
	p2 := testPlayer("1-7", "Two", "ATL", []string{"3B"}, 2900, 8.5, 2)

	orig := &Lineup{EntryID: "3527-111", Entries: []LineupEntry{NewEntry("2B", p1)}}
	clone := orig.Clone()
	clone.SetEntry(0, NewEntry("3B", p2))

	if orig.Entries[0].PlayerID != "1-6" {
		t.Error("mutating a clone must not touch the original")
	}
	if clone.EntryID != "3527-111" {
		t.Error("clone must keep the entry id")
	}
}
