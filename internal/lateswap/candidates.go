package lateswap

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"dfs_go/internal/domain"
)

// candidateCacheSize bounds the slot|team keys held at once. A full slate
// stays well under this.
const candidateCacheSize = 256

// CandidateCache memoizes per-slot replacement pools so a batch of entries
// sharing the same scratches does not refilter the pool per lineup. Keys are
// slot|team; the empty team keys the any-team pool. Reset whenever the pool
// or the locked set changes.
type CandidateCache struct {
	cache *lru.Cache[string, []*domain.Player]
}

// NewCandidateCache creates a cache holding up to size keys.
func NewCandidateCache(size int) (*CandidateCache, error) {
	c, err := lru.New[string, []*domain.Player](size)
	if err != nil {
		return nil, err
	}
	return &CandidateCache{cache: c}, nil
}

// Eligible returns announced, unlocked players eligible at the slot, sorted
// by projection descending. A non-empty team narrows the pool to that team.
// The returned slice is shared; callers must not mutate it.
func (c *CandidateCache) Eligible(pool *domain.Pool, slots domain.SlotMap, slotName, team string, locked map[string]bool) []*domain.Player {
	key := slotName + "|" + team
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	slot, ok := slots.Find(slotName)
	if !ok {
		return nil
	}
	out := make([]*domain.Player, 0, 16)
	for _, p := range pool.Players() {
		if team != "" && p.Team != team {
			continue
		}
		if locked[p.Team] || !p.Announced() || !slot.Admits(p) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Projection != out[j].Projection {
			return out[i].Projection > out[j].Projection
		}
		return out[i].ID < out[j].ID
	})

	c.cache.Add(key, out)
	return out
}

// Reset purges every cached candidate list.
func (c *CandidateCache) Reset() {
	c.cache.Purge()
}
