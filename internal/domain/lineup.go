package domain

import (
	"dfs_go/pkg/points"
)

// LineupEntry is one filled roster spot. The display fields are denormalized
// at construction so a lineup stays readable after the pool is refreshed.
type LineupEntry struct {
	Slot       string        `json:"slot"`
	PlayerID   string        `json:"player_id"`
	Name       string        `json:"name"`
	Team       string        `json:"team"`
	Salary     int           `json:"salary"`
	Projection points.Points `json:"projection"`
	Pitcher    bool          `json:"pitcher"`
}

// NewEntry builds an entry for a player filling the named slot.
func NewEntry(slot string, p *Player) LineupEntry {
	return LineupEntry{
		Slot:       slot,
		PlayerID:   p.ID,
		Name:       p.Name,
		Team:       p.Team,
		Salary:     p.Salary,
		Projection: p.Projection,
		Pitcher:    p.IsPitcher(),
	}
}

// Lineup is a complete roster for one contest entry. Entries follow the slot
// map order. Created by one solve; mutated afterwards only by the swap engine.
type Lineup struct {
	EntryID string // contest entry id, set when parsed from an entries file
	Entries []LineupEntry
}

// TotalSalary returns the summed salary of all entries.
func (l *Lineup) TotalSalary() int {
	total := 0
	for _, e := range l.Entries {
		total += e.Salary
	}
	return total
}

// TotalProjection returns the summed projection of all entries.
func (l *Lineup) TotalProjection() points.Points {
	var total points.Points
	for _, e := range l.Entries {
		total += e.Projection
	}
	return total
}

// PlayerIDs returns all rostered player ids in slot order.
func (l *Lineup) PlayerIDs() []string {
	ids := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		ids[i] = e.PlayerID
	}
	return ids
}

// IDSet returns the rostered player ids as a set.
func (l *Lineup) IDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(l.Entries))
	for _, e := range l.Entries {
		set[e.PlayerID] = struct{}{}
	}
	return set
}

// HasPlayer reports whether the player id is rostered.
func (l *Lineup) HasPlayer(id string) bool {
	for _, e := range l.Entries {
		if e.PlayerID == id {
			return true
		}
	}
	return false
}

// HasDuplicates reports whether any player id appears more than once.
func (l *Lineup) HasDuplicates() bool {
	return len(l.IDSet()) != len(l.Entries)
}

// TeamCounts returns per-team counts of non-pitcher entries. Stacking rules
// never count the pitcher.
func (l *Lineup) TeamCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.Entries {
		if e.Pitcher {
			continue
		}
		counts[e.Team]++
	}
	return counts
}

// SlotCounts returns per-slot entry counts.
func (l *Lineup) SlotCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.Entries {
		counts[e.Slot]++
	}
	return counts
}

// Clone returns a deep copy. Swap strategies work on clones so a failed
// repair never leaks partial mutations.
func (l *Lineup) Clone() *Lineup {
	entries := make([]LineupEntry, len(l.Entries))
	copy(entries, l.Entries)
	return &Lineup{EntryID: l.EntryID, Entries: entries}
}

// SetEntry replaces the entry at index i.
func (l *Lineup) SetEntry(i int, e LineupEntry) {
	l.Entries[i] = e
}
