package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	"dfs_go/pkg/points"
)

// Player is one entry of the contest player pool. Fields are immutable after
// load except Projection, which a resampler may replace between builds, and
// RosterOrder, which live roster updates rewrite between repair passes.
type Player struct {
	ID              string
	First           string
	Last            string
	Name            string // site display name
	Positions       []string
	Team            string
	Opponent        string
	Salary          int
	Projection      points.Points
	RosterOrder     int // batting order; 0 = not in the announced lineup
	ProbablePitcher bool
	Injury          string
	Ownership       decimal.Decimal
}

// IsPitcher reports whether the player is position-eligible at pitcher.
func (p *Player) IsPitcher() bool {
	return p.HasPosition("P")
}

// HasPosition reports whether the player carries the given position.
func (p *Player) HasPosition(pos string) bool {
	for _, have := range p.Positions {
		if have == pos {
			return true
		}
	}
	return false
}

// Announced reports whether the player is in an announced lineup card.
// Pitchers are announced through the probable flag, not the batting order.
func (p *Player) Announced() bool {
	if p.IsPitcher() {
		return p.ProbablePitcher || p.RosterOrder > 0
	}
	return p.RosterOrder > 0
}

// Pool is an id-indexed player pool, loaded once per run.
type Pool struct {
	players []*Player
	byID    map[string]*Player
}

// NewPool builds a pool from loader output. Later duplicates of an id are
// ignored; the loader is expected to have already deduplicated.
func NewPool(players []*Player) *Pool {
	p := &Pool{
		players: make([]*Player, 0, len(players)),
		byID:    make(map[string]*Player, len(players)),
	}
	for _, pl := range players {
		if _, dup := p.byID[pl.ID]; dup {
			continue
		}
		p.byID[pl.ID] = pl
		p.players = append(p.players, pl)
	}
	return p
}

// Players returns all players in load order.
func (p *Pool) Players() []*Player {
	return p.players
}

// Get returns the player with the given id.
func (p *Pool) Get(id string) (*Player, bool) {
	pl, ok := p.byID[id]
	return pl, ok
}

// Len returns the pool size.
func (p *Pool) Len() int {
	return len(p.players)
}

// Teams returns the distinct team set, sorted.
func (p *Pool) Teams() []string {
	seen := make(map[string]bool)
	for _, pl := range p.players {
		seen[pl.Team] = true
	}
	teams := make([]string, 0, len(seen))
	for t := range seen {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}

// OnTeam returns all players on the given team, in load order.
func (p *Pool) OnTeam(team string) []*Player {
	var out []*Player
	for _, pl := range p.players {
		if pl.Team == team {
			out = append(out, pl)
		}
	}
	return out
}
