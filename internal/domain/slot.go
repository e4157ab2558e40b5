package domain

// Slot is a named roster position with an eligibility rule and a required count.
type Slot struct {
	Name      string   `yaml:"name" json:"name"`
	Count     int      `yaml:"count" json:"count"`
	Positions []string `yaml:"positions" json:"positions"` // admitted player positions
	Util      bool     `yaml:"util" json:"util"`           // admits any non-pitcher regardless of position
}

// Admits reports whether the player may fill this slot.
func (s Slot) Admits(p *Player) bool {
	if s.Util {
		return !p.IsPitcher()
	}
	for _, pos := range s.Positions {
		if p.HasPosition(pos) {
			return true
		}
	}
	return false
}

// SlotMap is the ordered roster configuration for one contest type.
type SlotMap []Slot

// RosterSize returns the total number of roster spots.
func (m SlotMap) RosterSize() int {
	n := 0
	for _, s := range m {
		n += s.Count
	}
	return n
}

// Find returns the slot with the given name.
func (m SlotMap) Find(name string) (Slot, bool) {
	for _, s := range m {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

// Columns expands the map into one column name per roster spot, in order.
// This is the header layout of the contest upload format.
func (m SlotMap) Columns() []string {
	cols := make([]string, 0, m.RosterSize())
	for _, s := range m {
		for i := 0; i < s.Count; i++ {
			cols = append(cols, s.Name)
		}
	}
	return cols
}

// EligibleSlots returns the names of all slots the player may fill.
func (m SlotMap) EligibleSlots(p *Player) []string {
	var names []string
	for _, s := range m {
		if s.Admits(p) {
			names = append(names, s.Name)
		}
	}
	return names
}

// DefaultSlotMap is the FanDuel MLB roster layout. Other contest types are
// configured through the slot list in the config file.
func DefaultSlotMap() SlotMap {
	return SlotMap{
		{Name: "P", Count: 1, Positions: []string{"P"}},
		{Name: "C/1B", Count: 1, Positions: []string{"C", "1B"}},
		{Name: "2B", Count: 1, Positions: []string{"2B"}},
		{Name: "3B", Count: 1, Positions: []string{"3B"}},
		{Name: "SS", Count: 1, Positions: []string{"SS"}},
		{Name: "OF", Count: 3, Positions: []string{"OF"}},
		{Name: "UTIL", Count: 1, Util: true},
	}
}
